// Package mqtt decodes MQTT control packets (v3.1.1 and v5 fixed header and
// variable-length remaining-length field are version-agnostic; v5 property
// lists are decoded where the spec defines them and left empty otherwise).
package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
	"firestige.xyz/dissect/internal/wire"
)

// MetaKey is where Parse deposits the decoded *Packet.
const MetaKey = "mqtt_packet"

// PacketType is the 4-bit control packet type in the fixed header.
type PacketType uint8

const (
	CONNECT     PacketType = 1
	CONNACK     PacketType = 2
	PUBLISH     PacketType = 3
	PUBACK      PacketType = 4
	PUBREC      PacketType = 5
	PUBREL      PacketType = 6
	PUBCOMP     PacketType = 7
	SUBSCRIBE   PacketType = 8
	SUBACK      PacketType = 9
	UNSUBSCRIBE PacketType = 10
	UNSUBACK    PacketType = 11
	PINGREQ     PacketType = 12
	PINGRESP    PacketType = 13
	DISCONNECT  PacketType = 14
	AUTH        PacketType = 15
)

func (t PacketType) String() string {
	switch t {
	case CONNECT:
		return "CONNECT"
	case CONNACK:
		return "CONNACK"
	case PUBLISH:
		return "PUBLISH"
	case PUBACK:
		return "PUBACK"
	case PUBREC:
		return "PUBREC"
	case PUBREL:
		return "PUBREL"
	case PUBCOMP:
		return "PUBCOMP"
	case SUBSCRIBE:
		return "SUBSCRIBE"
	case SUBACK:
		return "SUBACK"
	case UNSUBSCRIBE:
		return "UNSUBSCRIBE"
	case UNSUBACK:
		return "UNSUBACK"
	case PINGREQ:
		return "PINGREQ"
	case PINGRESP:
		return "PINGRESP"
	case DISCONNECT:
		return "DISCONNECT"
	case AUTH:
		return "AUTH"
	default:
		return "Unknown"
	}
}

func (t PacketType) valid() bool { return t >= CONNECT && t <= AUTH }

// FixedHeader is the first byte plus the variable-length remaining-length
// field common to every MQTT control packet.
type FixedHeader struct {
	Type            PacketType
	Dup             bool
	QoS             uint8
	Retain          bool
	RemainingLength uint32
}

// Packet is the fully decoded MQTT control packet. Body holds a
// type-specific struct (*ConnectBody, *PublishBody, *SubscribeBody, ...) or
// nil for packets with no variable header/payload (PINGREQ, PINGRESP).
type Packet struct {
	FixedHeader FixedHeader
	Body        any
}

// Dissector implements dissect.Dissector for MQTT.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "mqtt", ID: 1883, MinHeaderLen: 2, MinMsgLen: 2}
}

// Probe checks that the fixed header's type nibble and remaining-length
// varint are both well-formed. The declared length is not compared with
// the number of bytes captured.
func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < 2 {
		return false
	}
	b0, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	if !PacketType(b0 >> 4).valid() {
		return false
	}
	_, _, err = wire.DecodeVarint(window, 1)
	return err == nil
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < 2 {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	b0, err := w.ReadU8(0)
	if err != nil {
		ctx.Fail()
		return dissect.BufferTooSmall
	}
	typ := PacketType(b0 >> 4)
	if !typ.valid() {
		ctx.Fail()
		return dissect.InvalidFormat
	}

	fh := FixedHeader{
		Type:   typ,
		Dup:    b0&0x08 != 0,
		QoS:    (b0 >> 1) & 0x03,
		Retain: b0&0x01 != 0,
	}
	d.progress = 0.2

	rl, rlLen, err := wire.DecodeVarint(w, 1)
	if err != nil {
		return dissect.NeedMoreData
	}
	fh.RemainingLength = rl

	bodyOffset := 1 + rlLen
	if w.Len() < bodyOffset+int(rl) {
		return dissect.NeedMoreData
	}
	body, err := w.Sub(bodyOffset, int(rl))
	if err != nil {
		return dissect.NeedMoreData
	}
	d.progress = 0.5

	decoded, res := decodeBody(typ, fh, body)
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}
	d.progress = 1

	ctx.Put(MetaKey, &Packet{FixedHeader: fh, Body: decoded})
	ctx.Advance(bodyOffset + int(rl))
	ctx.Finish()
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

func decodeBody(typ PacketType, fh FixedHeader, body bytesview.Window) (any, dissect.Result) {
	switch typ {
	case CONNECT:
		return decodeConnect(body)
	case CONNACK:
		return decodeConnack(body)
	case PUBLISH:
		return decodePublish(fh, body)
	case SUBSCRIBE:
		return decodeSubscribe(body)
	case SUBACK:
		return decodeSuback(body)
	case UNSUBSCRIBE:
		return decodeUnsubscribe(body)
	case UNSUBACK, PUBACK, PUBREC, PUBREL, PUBCOMP:
		return decodePacketIDOnly(body)
	case DISCONNECT, AUTH:
		return decodeReasonWithProperties(body)
	case PINGREQ, PINGRESP:
		return nil, dissect.Success
	default:
		return nil, dissect.InvalidFormat
	}
}

// PacketFrom retrieves the decoded MQTT packet deposited by Parse.
func PacketFrom(ctx *dissect.Context) (*Packet, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Packet)
	return p, ok
}
