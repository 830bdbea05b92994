package signalling

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// H323MetaKey is where an H323 Dissector deposits its decoded *H323Message.
const H323MetaKey = "h323_message"

const tpktHeaderLen = 4

// H323Message is the structural recognition of a TPKT-framed Q.931 message:
// the TPKT header plus the Q.931 message-type byte. Full Q.931/H.225
// information-element decoding is out of scope (spec.md §4.14).
type H323Message struct {
	TPKTVersion  uint8
	TPKTLength   uint16
	CallRefLen   uint8
	MessageType  uint8
	Body         []byte
}

// H323Dissector implements dissect.Dissector for TPKT-framed H.323/Q.931
// call-signalling messages.
type H323Dissector struct {
	progress float64
}

func NewH323() *H323Dissector { return &H323Dissector{} }

func (d *H323Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "h323", ID: 1720, MinHeaderLen: tpktHeaderLen + 3, MinMsgLen: tpktHeaderLen + 3}
}

// Probe checks the TPKT version byte (always 3) and that the reserved byte
// is zero.
func (d *H323Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < tpktHeaderLen {
		return false
	}
	v, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	reserved, err := window.ReadU8(1)
	if err != nil {
		return false
	}
	return v == 3 && reserved == 0
}

func (d *H323Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < tpktHeaderLen {
		ctx.Fail()
		return dissect.BufferTooSmall
	}
	version, _ := w.ReadU8(0)
	if version != 3 {
		ctx.Fail()
		return dissect.UnsupportedVersion
	}
	tpktLen, err := w.ReadU16(2)
	if err != nil {
		return dissect.NeedMoreData
	}
	if int(tpktLen) < tpktHeaderLen+3 {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if w.Len() < int(tpktLen) {
		return dissect.NeedMoreData
	}
	d.progress = 0.4

	// Q.931 §5.2: protocol discriminator, call reference length, call
	// reference value, message type.
	callRefLen, err := w.ReadU8(tpktHeaderLen + 1)
	if err != nil {
		return dissect.NeedMoreData
	}
	msgTypeOffset := tpktHeaderLen + 2 + int(callRefLen)
	msgType, err := w.ReadU8(msgTypeOffset)
	if err != nil {
		return dissect.NeedMoreData
	}

	var body []byte
	if tail, err := w.Tail(msgTypeOffset + 1); err == nil {
		body = tail.Bytes()
	}
	d.progress = 1

	ctx.Put(H323MetaKey, &H323Message{
		TPKTVersion: version,
		TPKTLength:  tpktLen,
		CallRefLen:  callRefLen,
		MessageType: msgType,
		Body:        body,
	})
	ctx.Advance(int(tpktLen))
	ctx.Finish()
	return dissect.Success
}

func (d *H323Dissector) Reset()            { d.progress = 0 }
func (d *H323Dissector) Progress() float64 { return d.progress }

// H323From retrieves the decoded message deposited by Parse.
func H323From(ctx *dissect.Context) (*H323Message, bool) {
	v, ok := ctx.Get(H323MetaKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(*H323Message)
	return m, ok
}
