// Package radius decodes RFC 2865 RADIUS packets: the fixed header, the
// 16-byte authenticator, and TLV attributes.
package radius

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Packet.
const MetaKey = "radius_packet"

const headerLen = 20 // code(1) identifier(1) length(2) authenticator(16)

// Code is the RADIUS packet type (RFC 2865 §3).
type Code uint8

const (
	AccessRequest      Code = 1
	AccessAccept       Code = 2
	AccessReject       Code = 3
	AccountingRequest  Code = 4
	AccountingResponse Code = 5
	AccessChallenge    Code = 11
)

// Attribute is one decoded TLV attribute (RFC 2865 §5). Its wire length
// includes the 2-byte type+length header, so Value is (length - 2) bytes.
type Attribute struct {
	Type  uint8
	Value []byte
}

// Packet is the fully decoded RADIUS packet.
type Packet struct {
	Code          Code
	Identifier    uint8
	Length        uint16
	Authenticator [16]byte
	Attributes    []Attribute
}

// Dissector implements dissect.Dissector for RADIUS.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "radius", ID: 1812, MinHeaderLen: headerLen, MinMsgLen: headerLen}
}

func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < headerLen {
		return false
	}
	code, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	return code >= 1 && code <= 40
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < headerLen {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	code, _ := w.ReadU8(0)
	id, _ := w.ReadU8(1)
	length, err := w.ReadU16(2)
	if err != nil {
		return dissect.NeedMoreData
	}
	if int(length) < headerLen {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if w.Len() < int(length) {
		return dissect.NeedMoreData
	}

	pkt := &Packet{Code: Code(code), Identifier: id, Length: length}
	copy(pkt.Authenticator[:], w.Bytes()[4:20])
	d.progress = 0.4

	cursor := headerLen
	for cursor < int(length) {
		if w.Len() < cursor+2 {
			return dissect.NeedMoreData
		}
		typ, _ := w.ReadU8(cursor)
		alen, err := w.ReadU8(cursor + 1)
		if err != nil {
			return dissect.NeedMoreData
		}
		if alen < 2 {
			ctx.Fail()
			return dissect.InvalidFormat
		}
		if cursor+int(alen) > int(length) {
			ctx.Fail()
			return dissect.InvalidFormat
		}
		valWindow, err := w.Sub(cursor+2, int(alen)-2)
		if err != nil {
			return dissect.NeedMoreData
		}
		pkt.Attributes = append(pkt.Attributes, Attribute{Type: typ, Value: valWindow.Bytes()})
		cursor += int(alen)
	}
	d.progress = 0.9

	ctx.Put(MetaKey, pkt)
	ctx.Advance(int(length))
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

// PacketFrom retrieves the decoded RADIUS packet deposited by Parse.
func PacketFrom(ctx *dissect.Context) (*Packet, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Packet)
	return p, ok
}
