// Package arp decodes RFC 826 Address Resolution Protocol messages: the
// fixed 28-byte Ethernet/IPv4 wire format, opcode Request/Reply/RARP, and a
// small MAC/IPv4 builder used to serialize well-formed requests and replies.
package arp

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "arp_message"

const (
	wireLen = 28 // hwtype(2) ptype(2) hwlen(1) plen(1) op(2) + 2*(6+4)

	hwTypeEthernet = 1
	protoTypeIPv4  = 0x0800
)

// Opcode enumerates the ARP/RARP operation field.
type Opcode uint16

const (
	Request    Opcode = 1
	Reply      Opcode = 2
	RArpRequest Opcode = 3
	RArpReply   Opcode = 4
)

func (o Opcode) String() string {
	switch o {
	case Request:
		return "Request"
	case Reply:
		return "Reply"
	case RArpRequest:
		return "RArpRequest"
	case RArpReply:
		return "RArpReply"
	default:
		return "Unknown"
	}
}

func (o Opcode) valid() bool {
	return o >= Request && o <= RArpReply
}

// Message is the fully decoded ARP record.
type Message struct {
	HardwareType uint16
	ProtocolType uint16
	HardwareLen  uint8
	ProtocolLen  uint8
	Opcode       Opcode
	SenderMAC    [6]byte
	SenderIPv4   [4]byte
	TargetMAC    [6]byte
	TargetIPv4   [4]byte
	// ExtraData holds any bytes beyond the fixed 28-byte header (some
	// Ethernet drivers pad ARP frames to the 60-byte minimum).
	ExtraData []byte
}

// Dissector implements dissect.Dissector for ARP.
type Dissector struct {
	progress float64
}

// New creates a fresh ARP dissector instance.
func New() *Dissector {
	return &Dissector{}
}

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{
		Name:         "arp",
		ID:           0x0806, // ethertype
		MinHeaderLen: wireLen,
		MinMsgLen:    wireLen,
	}
}

// Probe reports whether window looks like an ARP message: long enough, and
// declaring the Ethernet/IPv4 combination this dissector supports.
func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < wireLen {
		return false
	}
	hwType, err := window.ReadU16(0)
	if err != nil {
		return false
	}
	protoType, err := window.ReadU16(2)
	if err != nil {
		return false
	}
	return hwType == hwTypeEthernet && protoType == protoTypeIPv4
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < wireLen {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	hwType, _ := w.ReadU16(0)
	protoType, _ := w.ReadU16(2)
	hwLen, _ := w.ReadU8(4)
	protoLen, _ := w.ReadU8(5)
	opRaw, _ := w.ReadU16(6)
	op := Opcode(opRaw)
	d.progress = 0.4

	if hwType != hwTypeEthernet || protoType != protoTypeIPv4 {
		ctx.Fail()
		return dissect.UnsupportedVersion
	}
	if hwLen == 0 || protoLen == 0 {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if hwType == hwTypeEthernet && hwLen != 6 {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if protoType == protoTypeIPv4 && protoLen != 4 {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if !op.valid() {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	d.progress = 0.6

	msg := &Message{
		HardwareType: hwType,
		ProtocolType: protoType,
		HardwareLen:  hwLen,
		ProtocolLen:  protoLen,
		Opcode:       op,
	}
	copy(msg.SenderMAC[:], w.Bytes()[8:14])
	copy(msg.SenderIPv4[:], w.Bytes()[14:18])
	copy(msg.TargetMAC[:], w.Bytes()[18:24])
	copy(msg.TargetIPv4[:], w.Bytes()[24:28])

	if w.Len() > wireLen {
		tail, err := w.Tail(wireLen)
		if err == nil {
			msg.ExtraData = tail.Bytes()
		}
	}
	d.progress = 1

	ctx.Put(MetaKey, msg)
	ctx.Advance(w.Len())
	ctx.Finish()
	return dissect.Success
}

func (d *Dissector) Reset() {
	d.progress = 0
}

func (d *Dissector) Progress() float64 {
	return d.progress
}

// MessageFrom retrieves the decoded ARP record deposited by Parse.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*Message)
	return msg, ok
}
