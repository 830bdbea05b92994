// Package pop3 decodes the POP3 line-oriented command/response protocol
// (RFC 1939): client commands, +OK/-ERR server responses, and multi-line
// responses (RETR, LIST, TOP, UIDL) terminated by a lone "." line.
package pop3

import (
	"bytes"
	"strings"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "pop3_message"

// Direction distinguishes a client command from a server response.
type Direction uint8

const (
	DirCommand Direction = iota
	DirResponse
)

// Status is the response status marker, +OK or -ERR.
type Status uint8

const (
	StatusNone Status = iota
	StatusOK
	StatusErr
)

// Message is one decoded POP3 line (or multi-line response).
type Message struct {
	Direction Direction

	Command string // DirCommand: e.g. "USER", "RETR"
	Args    string

	Status  Status // DirResponse
	Detail  string
	// MultiLine holds the body lines of a multi-line response once the
	// terminating "." has been seen; nil while still accumulating.
	MultiLine []string
}

// multiLineCommands names the commands whose +OK response is followed by a
// dot-terminated multi-line body rather than ending at the status line.
var multiLineCommands = map[string]bool{
	"RETR": true, "LIST": true, "TOP": true, "UIDL": true,
}

// Dissector implements dissect.Dissector for a POP3 connection. It is
// stateful: it must remember the last command sent by the client to know
// whether the next response is single-line or multi-line.
type Dissector struct {
	progress    float64
	lastCommand string
	inMultiLine bool
	multiLines  []string
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "pop3", ID: 110, MinHeaderLen: 1, MinMsgLen: 1}
}

// Probe recognises a command line's leading verb or a response's leading
// status marker.
func (d *Dissector) Probe(window bytesview.Window) bool {
	b := window.Bytes()
	if len(b) == 0 {
		return false
	}
	if b[0] == '+' || b[0] == '-' {
		return true
	}
	n := bytes.IndexByte(b, '\n')
	if n < 0 {
		n = len(b)
	}
	line := b[:n]
	sp := bytes.IndexByte(line, ' ')
	verb := line
	if sp >= 0 {
		verb = line[:sp]
	}
	verb = bytes.TrimRight(verb, "\r")
	return isKnownCommand(string(verb))
}

func isKnownCommand(verb string) bool {
	switch strings.ToUpper(verb) {
	case "USER", "PASS", "APOP", "STAT", "LIST", "RETR", "DELE", "NOOP",
		"RSET", "QUIT", "TOP", "UIDL", "CAPA":
		return true
	default:
		return false
	}
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window
	data := w.Bytes()

	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return dissect.NeedMoreData
	}
	line := data[:nl]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	if d.inMultiLine {
		if string(line) == "." {
			msg := &Message{
				Direction: DirResponse,
				Command:   d.lastCommand,
				Status:    StatusOK,
				MultiLine: d.multiLines,
			}
			d.inMultiLine = false
			d.multiLines = nil
			ctx.Put(MetaKey, msg)
			ctx.Advance(nl + 1)
			ctx.Finish()
			d.progress = 1
			return dissect.Success
		}
		// RFC 1939 §3: a line starting with "." in the body is escaped as "..".
		unescaped := line
		if bytes.HasPrefix(unescaped, []byte("..")) {
			unescaped = unescaped[1:]
		}
		d.multiLines = append(d.multiLines, string(unescaped))
		ctx.Advance(nl + 1)
		ctx.Finish()
		d.progress = 1
		return dissect.Success
	}

	var msg *Message
	if len(line) > 0 && (line[0] == '+' || line[0] == '-') {
		status := StatusErr
		if line[0] == '+' {
			status = StatusOK
		}
		marker := "OK"
		if status == StatusErr {
			marker = "ERR"
		}
		detail := strings.TrimPrefix(string(line[1:]), marker)
		msg = &Message{Direction: DirResponse, Status: status, Detail: strings.TrimSpace(detail)}
		if status == StatusOK && multiLineCommands[strings.ToUpper(d.lastCommand)] {
			d.inMultiLine = true
			d.multiLines = nil
		}
	} else {
		parts := strings.SplitN(string(line), " ", 2)
		cmd := strings.ToUpper(parts[0])
		args := ""
		if len(parts) == 2 {
			args = parts[1]
		}
		msg = &Message{Direction: DirCommand, Command: cmd, Args: args}
		d.lastCommand = cmd
	}

	ctx.Put(MetaKey, msg)
	ctx.Advance(nl + 1)
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset() {
	d.progress = 0
	d.lastCommand = ""
	d.inMultiLine = false
	d.multiLines = nil
}

func (d *Dissector) Progress() float64 { return d.progress }

// MessageFrom retrieves the message decoded by the most recent Parse call.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(*Message)
	return m, ok
}
