// Package telnet decodes the RFC 854/855 Telnet control stream: IAC-escaped
// data, single-byte commands, option negotiation (WILL/WONT/DO/DONT), and
// subnegotiation blocks. Unlike the single-shot protocols, a Telnet stream
// is consumed byte-by-byte and emits a sequence of Events; the Dissector
// accumulates negotiated option state across calls on the same connection.
package telnet

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded []Event for that call.
const MetaKey = "telnet_events"

const (
	iac = 0xff
	sb  = 250
	se  = 240

	cmdWill = 251
	cmdWont = 252
	cmdDo   = 253
	cmdDont = 254
)

// EventKind distinguishes the shapes of decoded Telnet stream content.
type EventKind uint8

const (
	EventData EventKind = iota
	EventCommand
	EventNegotiation
	EventSubnegotiation
)

// NegotiationVerb is WILL, WONT, DO, or DONT.
type NegotiationVerb uint8

const (
	Will NegotiationVerb = cmdWill
	Wont NegotiationVerb = cmdWont
	Do   NegotiationVerb = cmdDo
	Dont NegotiationVerb = cmdDont
)

func (v NegotiationVerb) String() string {
	switch v {
	case Will:
		return "WILL"
	case Wont:
		return "WONT"
	case Do:
		return "DO"
	case Dont:
		return "DONT"
	default:
		return "Unknown"
	}
}

// Event is one decoded unit of Telnet stream content.
type Event struct {
	Kind EventKind

	Data []byte // EventData: coalesced non-IAC bytes, IAC IAC unescaped

	Command byte // EventCommand: the single command byte after IAC

	Verb   NegotiationVerb // EventNegotiation
	Option byte

	SubOption byte   // EventSubnegotiation
	SubData   []byte
}

// OptionState tracks one Telnet option's negotiated state on both sides of
// the connection.
type OptionState struct {
	LocalEnabled  bool // we WILL / they DO
	RemoteEnabled bool // they WILL / we DO
}

// Dissector implements dissect.Dissector for a Telnet stream. It is
// stateful: construct one per connection.
type Dissector struct {
	progress float64
	options  map[byte]*OptionState
}

func New() *Dissector {
	return &Dissector{options: make(map[byte]*OptionState)}
}

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "telnet", ID: 23, MinHeaderLen: 1, MinMsgLen: 1}
}

// Probe looks for an IAC byte anywhere in the window; Telnet has no fixed
// header, so this is necessarily weak and meant to be used alongside a
// port-based hint.
func (d *Dissector) Probe(window bytesview.Window) bool {
	for _, b := range window.Bytes() {
		if b == iac {
			return true
		}
	}
	return false
}

// Options returns the current negotiated state of every option this
// connection has discussed.
func (d *Dissector) Options() map[byte]*OptionState {
	return d.options
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window
	data := w.Bytes()

	var events []Event
	var pending []byte
	flushData := func() {
		if len(pending) > 0 {
			events = append(events, Event{Kind: EventData, Data: pending})
			pending = nil
		}
	}

	i := 0
	for i < len(data) {
		b := data[i]
		if b != iac {
			pending = append(pending, b)
			i++
			continue
		}

		// b == iac; need at least one more byte to know what kind of
		// sequence this is.
		if i+1 >= len(data) {
			return dissect.NeedMoreData
		}
		next := data[i+1]

		if next == iac {
			pending = append(pending, iac)
			i += 2
			continue
		}

		flushData()

		switch next {
		case cmdWill, cmdWont, cmdDo, cmdDont:
			if i+2 >= len(data) {
				return dissect.NeedMoreData
			}
			option := data[i+2]
			d.recordNegotiation(NegotiationVerb(next), option)
			events = append(events, Event{Kind: EventNegotiation, Verb: NegotiationVerb(next), Option: option})
			i += 3

		case sb:
			end, subOpt, subData, res := readSubnegotiation(data, i)
			if res != dissect.Success {
				if res != dissect.NeedMoreData {
					ctx.Fail()
				}
				return res
			}
			events = append(events, Event{Kind: EventSubnegotiation, SubOption: subOpt, SubData: subData})
			i = end

		default:
			events = append(events, Event{Kind: EventCommand, Command: next})
			i += 2
		}
	}
	flushData()

	ctx.Put(MetaKey, events)
	ctx.Advance(len(data))
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) recordNegotiation(verb NegotiationVerb, option byte) {
	st, ok := d.options[option]
	if !ok {
		st = &OptionState{}
		d.options[option] = st
	}
	switch verb {
	case Will:
		st.RemoteEnabled = true
	case Wont:
		st.RemoteEnabled = false
	case Do:
		st.LocalEnabled = true
	case Dont:
		st.LocalEnabled = false
	}
}

// readSubnegotiation scans a subnegotiation block starting at data[start]
// (which must be IAC SB), handling IAC-IAC escaping inside it, and returns
// the index just past the terminating IAC SE.
func readSubnegotiation(data []byte, start int) (end int, subOpt byte, subData []byte, res dissect.Result) {
	if start+2 >= len(data) {
		return 0, 0, nil, dissect.NeedMoreData
	}
	subOpt = data[start+2]
	i := start + 3
	for i < len(data) {
		if data[i] == iac {
			if i+1 >= len(data) {
				return 0, 0, nil, dissect.NeedMoreData
			}
			if data[i+1] == se {
				return i + 2, subOpt, subData, dissect.Success
			}
			if data[i+1] == iac {
				subData = append(subData, iac)
				i += 2
				continue
			}
			// IAC not followed by IAC or SE inside subnegotiation.
			return 0, 0, nil, dissect.InvalidFormat
		}
		subData = append(subData, data[i])
		i++
	}
	return 0, 0, nil, dissect.NeedMoreData
}

func (d *Dissector) Reset() {
	d.progress = 0
	d.options = make(map[byte]*OptionState)
}

func (d *Dissector) Progress() float64 { return d.progress }

// EventsFrom retrieves the events decoded by the most recent Parse call.
func EventsFrom(ctx *dissect.Context) ([]Event, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	events, ok := v.([]Event)
	return events, ok
}
