// Package m3ua decodes RFC 4666 M3UA (MTP3 User Adaptation) common message
// headers and their TLV parameters.
package m3ua

import (
	"fmt"

	"go.uber.org/multierr"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "m3ua_message"

const headerLen = 8

// MessageClass is the M3UA message class (RFC 4666 §3.1).
type MessageClass uint8

const (
	ClassMgmt         MessageClass = 0
	ClassTransfer     MessageClass = 1
	ClassSSNM         MessageClass = 2
	ClassASPSM        MessageClass = 3
	ClassASPTM        MessageClass = 4
	ClassRoutingKeyMgmt MessageClass = 9
)

// Header is the fixed 8-byte M3UA common message header.
type Header struct {
	Version      uint8
	MessageClass MessageClass
	MessageType  uint8
	MessageLength uint32
}

// Parameter is one decoded TLV parameter (RFC 4666 §3.2).
type Parameter struct {
	Tag   uint16
	Value []byte
}

// Message is the fully decoded M3UA message.
type Message struct {
	Header     Header
	Parameters []Parameter

	// ValidationNotes accumulates non-fatal problems found while walking
	// the TLV parameter list (a parameter whose declared length is
	// shorter than its own header, or overruns the message boundary);
	// the walk still returns every parameter it could recover rather
	// than discarding the whole message. Nil when nothing was flagged.
	ValidationNotes error
}

// Dissector implements dissect.Dissector for M3UA.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "m3ua", ID: 3, MinHeaderLen: headerLen, MinMsgLen: headerLen}
}

func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < headerLen {
		return false
	}
	v, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	return v == 1
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < headerLen {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	version, _ := w.ReadU8(0)
	if version != 1 {
		ctx.Fail()
		return dissect.UnsupportedVersion
	}
	class, _ := w.ReadU8(2)
	typ, _ := w.ReadU8(3)
	msgLen, err := w.ReadU32(4)
	if err != nil {
		return dissect.NeedMoreData
	}
	if msgLen < headerLen {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if w.Len() < int(msgLen) {
		return dissect.NeedMoreData
	}

	hdr := Header{Version: version, MessageClass: MessageClass(class), MessageType: typ, MessageLength: msgLen}
	d.progress = 0.3

	params, notes, res := decodeParameters(w, headerLen, int(msgLen))
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}
	d.progress = 0.9

	ctx.Put(MetaKey, &Message{Header: hdr, Parameters: params, ValidationNotes: notes})
	ctx.Advance(int(msgLen))
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

// decodeParameters walks the TLV parameter list from start to end. A
// dissect.Result other than Success means the buffer ran out mid-field.
// A malformed or boundary-overrunning parameter is recorded as a note and
// the walk recovers rather than discarding every parameter seen so far.
func decodeParameters(w bytesview.Window, start, end int) ([]Parameter, error, dissect.Result) {
	var params []Parameter
	var notes error
	cursor := start
	for cursor < end {
		if w.Len() < cursor+4 {
			return params, notes, dissect.NeedMoreData
		}
		tag, err := w.ReadU16(cursor)
		if err != nil {
			return params, notes, dissect.NeedMoreData
		}
		length, err := w.ReadU16(cursor + 2)
		if err != nil {
			return params, notes, dissect.NeedMoreData
		}

		if length < 4 {
			notes = multierr.Append(notes, fmt.Errorf("m3ua: parameter tag %d at offset %d: declared length %d shorter than 4-byte header", tag, cursor, length))
			params = append(params, Parameter{Tag: tag})
			cursor += 4
			continue
		}

		effLength := int(length) - 4
		if cursor+4+effLength > end {
			notes = multierr.Append(notes, fmt.Errorf("m3ua: parameter tag %d at offset %d: declared length %d overruns message boundary", tag, cursor, length))
			effLength = end - (cursor + 4)
			if effLength < 0 {
				effLength = 0
			}
			valWindow, err := w.Sub(cursor+4, effLength)
			if err != nil {
				return params, notes, dissect.NeedMoreData
			}
			params = append(params, Parameter{Tag: tag, Value: valWindow.Bytes()})
			cursor = end
			continue
		}

		valWindow, err := w.Sub(cursor+4, effLength)
		if err != nil {
			return params, notes, dissect.NeedMoreData
		}
		params = append(params, Parameter{Tag: tag, Value: valWindow.Bytes()})

		padded := int(length)
		if rem := padded % 4; rem != 0 {
			padded += 4 - rem
		}
		cursor += padded
	}
	return params, notes, dissect.Success
}

// MessageFrom retrieves the decoded M3UA message deposited by Parse.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*Message)
	return msg, ok
}
