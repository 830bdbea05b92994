// Package gtpv2c decodes 3GPP TS 29.274 GTPv2-C control-plane messages:
// the header (with optional TEID), and TLIV information elements including
// type-specific decoding of IMSI, Cause, APN, F-TEID, Bearer QoS, and
// recursive Bearer Context IEs.
package gtpv2c

import (
	"fmt"
	"net"
	"strings"

	"go.uber.org/multierr"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "gtpv2c_message"

const supportedVersion = 2

// IE types this package decodes structurally (3GPP TS 29.274 §8).
const (
	ieIMSI          = 1
	ieCause         = 2
	ieAPN           = 71
	ieFTEID         = 87
	ieBearerQoS     = 80
	ieBearerContext = 93
	ieEBI           = 73
)

// Header is the GTPv2-C message header. TEID is present only when
// TEIDPresent is true (control messages before session establishment omit
// it).
type Header struct {
	Version        uint8
	PiggybackFlag  bool
	TEIDPresent    bool
	MessageType    uint8
	Length         uint16 // excludes the first 4 bytes
	TEID           uint32
	SequenceNumber uint32 // 24-bit, widened
}

// InformationElement is one decoded TLIV IE. Decoded holds a type-specific
// value (string for IMSI/APN, uint8 for Cause, *FTEID, *BearerQoS,
// *BearerContext) when this package recognises the IE type; Value always
// holds the raw bytes regardless.
type InformationElement struct {
	Type        uint8
	Length      uint16
	Instance    uint8
	Value       []byte
	Decoded     any
}

// FTEID is a decoded Fully Qualified TEID IE.
type FTEID struct {
	InterfaceType uint8
	TEID          uint32
	IPv4          string
	IPv6          string
}

// BearerQoS is a decoded Bearer-Level QoS IE.
type BearerQoS struct {
	QCI        uint8
	MaxBitrateUplinkKbps   uint64
	MaxBitrateDownlinkKbps uint64
	GuaranteedBitrateUplinkKbps   uint64
	GuaranteedBitrateDownlinkKbps uint64
}

// BearerContext is a decoded grouped Bearer Context IE.
type BearerContext struct {
	EBI   uint8
	FTEIDs []FTEID
	QoS   *BearerQoS

	// ValidationNotes accumulates non-fatal problems found while walking
	// this grouped IE's own nested IE list.
	ValidationNotes error
}

// Message is the fully decoded GTPv2-C message.
type Message struct {
	Header Header
	IEs    []InformationElement

	// ValidationNotes accumulates non-fatal problems found while walking
	// the top-level IE list (an IE whose declared length overruns the
	// message boundary); the walk still returns every IE it could
	// recover rather than discarding them. Nil when nothing was flagged.
	ValidationNotes error
}

// Dissector implements dissect.Dissector for GTPv2-C.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "gtpv2c", ID: 2123, MinHeaderLen: 4, MinMsgLen: 4}
}

func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < 4 {
		return false
	}
	b0, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	return b0>>5 == supportedVersion
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < 4 {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	b0, _ := w.ReadU8(0)
	version := b0 >> 5
	if version != supportedVersion {
		ctx.Fail()
		return dissect.UnsupportedVersion
	}
	piggyback := b0&0x10 != 0
	teidPresent := b0&0x08 != 0

	msgType, err := w.ReadU8(1)
	if err != nil {
		return dissect.NeedMoreData
	}
	length, err := w.ReadU16(2)
	if err != nil {
		return dissect.NeedMoreData
	}

	hdr := Header{Version: version, PiggybackFlag: piggyback, TEIDPresent: teidPresent, MessageType: msgType, Length: length}

	cursor := 4
	if teidPresent {
		teid, err := w.ReadU32(cursor)
		if err != nil {
			return dissect.NeedMoreData
		}
		hdr.TEID = teid
		cursor += 4
	}
	seq, err := w.ReadU24(cursor)
	if err != nil {
		return dissect.NeedMoreData
	}
	hdr.SequenceNumber = seq
	cursor += 4 // 24-bit sequence number + 1 spare byte
	d.progress = 0.3

	total := 4 + int(length)
	if w.Len() < total {
		return dissect.NeedMoreData
	}

	ies, notes, res := decodeIEs(w, cursor, total)
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}
	d.progress = 0.8

	ctx.Put(MetaKey, &Message{Header: hdr, IEs: ies, ValidationNotes: notes})
	ctx.Advance(total)
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

func decodeIEs(w bytesview.Window, start, end int) ([]InformationElement, error, dissect.Result) {
	var ies []InformationElement
	var notes error
	cursor := start
	for cursor < end {
		ie, consumed, note, res := decodeOneIE(w, cursor, end)
		if res != dissect.Success {
			return ies, notes, res
		}
		if note != nil {
			notes = multierr.Append(notes, note)
		}
		ies = append(ies, ie)
		cursor += consumed
	}
	return ies, notes, dissect.Success
}

// decodeOneIE decodes the IE at offset. A dissect.Result other than
// Success means the buffer ran out mid-field. A non-nil note means the
// IE's declared length reached past end (the enclosing message/grouped-IE
// boundary); the value is clamped to what fits and the walk is made to
// stop at end on return, since trailing bytes can no longer be trusted to
// be another IE header.
func decodeOneIE(w bytesview.Window, offset, end int) (InformationElement, int, error, dissect.Result) {
	if w.Len() < offset+4 {
		return InformationElement{}, 0, nil, dissect.NeedMoreData
	}
	typ, _ := w.ReadU8(offset)
	length, err := w.ReadU16(offset + 1)
	if err != nil {
		return InformationElement{}, 0, nil, dissect.NeedMoreData
	}
	instanceByte, _ := w.ReadU8(offset + 3)

	effLength := int(length)
	var note error
	if offset+4+effLength > end {
		note = fmt.Errorf("gtpv2c: ie type %d at offset %d: declared length %d overruns message boundary", typ, offset, length)
		effLength = end - (offset + 4)
		if effLength < 0 {
			effLength = 0
		}
	}

	valueWindow, err := w.Sub(offset+4, effLength)
	if err != nil {
		return InformationElement{}, 0, nil, dissect.NeedMoreData
	}
	value := valueWindow.Bytes()

	ie := InformationElement{Type: typ, Length: length, Instance: instanceByte & 0x0f, Value: value}
	ie.Decoded = decodeIEValue(typ, valueWindow)

	if note != nil {
		return ie, end - offset, note, dissect.Success
	}

	consumed := 4 + effLength
	if rem := consumed % 4; rem != 0 {
		consumed += 4 - rem
	}
	return ie, consumed, nil, dissect.Success
}

func decodeIEValue(typ uint8, w bytesview.Window) any {
	switch typ {
	case ieIMSI:
		return decodeTBCD(w.Bytes())
	case ieCause:
		if w.Len() >= 1 {
			b, _ := w.ReadU8(0)
			return b
		}
	case ieAPN:
		return decodeAPN(w.Bytes())
	case ieFTEID:
		if f, ok := decodeFTEID(w); ok {
			return f
		}
	case ieBearerQoS:
		if q, ok := decodeBearerQoS(w); ok {
			return q
		}
	case ieBearerContext:
		return decodeBearerContext(w)
	}
	return nil
}

// decodeTBCD decodes a Telephony Binary Coded Decimal digit string (used
// for IMSI), swapping each byte's nibbles and dropping a trailing 0xf
// filler digit.
func decodeTBCD(b []byte) string {
	var sb strings.Builder
	for _, by := range b {
		lo := by & 0x0f
		hi := by >> 4
		if lo <= 9 {
			sb.WriteByte('0' + lo)
		}
		if hi <= 9 {
			sb.WriteByte('0' + hi)
		}
	}
	return sb.String()
}

// decodeAPN decodes a DNS-style length-prefixed label sequence into
// dot-separated form (3GPP TS 23.003 §9.1).
func decodeAPN(b []byte) string {
	var labels []string
	i := 0
	for i < len(b) {
		n := int(b[i])
		i++
		if n == 0 || i+n > len(b) {
			break
		}
		labels = append(labels, string(b[i:i+n]))
		i += n
	}
	return strings.Join(labels, ".")
}

func decodeFTEID(w bytesview.Window) (*FTEID, bool) {
	if w.Len() < 5 {
		return nil, false
	}
	flags, err := w.ReadU8(0)
	if err != nil {
		return nil, false
	}
	hasIPv4 := flags&0x80 != 0
	hasIPv6 := flags&0x40 != 0
	ifaceType := flags & 0x3f

	teid, err := w.ReadU32(1)
	if err != nil {
		return nil, false
	}
	f := &FTEID{InterfaceType: ifaceType, TEID: teid}

	cursor := 5
	if hasIPv4 {
		sub, err := w.Sub(cursor, 4)
		if err != nil {
			return nil, false
		}
		b := sub.Bytes()
		f.IPv4 = formatIPv4(b)
		cursor += 4
	}
	if hasIPv6 {
		sub, err := w.Sub(cursor, 16)
		if err != nil {
			return nil, false
		}
		f.IPv6 = formatIPv6(sub.Bytes())
		cursor += 16
	}
	return f, true
}

func decodeBearerQoS(w bytesview.Window) (*BearerQoS, bool) {
	if w.Len() < 22 {
		return nil, false
	}
	qci, err := w.ReadU8(1)
	if err != nil {
		return nil, false
	}
	ul, _ := decodeQoSRate(w, 2)
	dl, _ := decodeQoSRate(w, 6)
	gul, _ := decodeQoSRate(w, 10)
	gdl, _ := decodeQoSRate(w, 14)
	return &BearerQoS{
		QCI:                           qci,
		MaxBitrateUplinkKbps:          ul,
		MaxBitrateDownlinkKbps:        dl,
		GuaranteedBitrateUplinkKbps:   gul,
		GuaranteedBitrateDownlinkKbps: gdl,
	}, true
}

func decodeQoSRate(w bytesview.Window, offset int) (uint64, bool) {
	b, err := w.Sub(offset, 4)
	if err != nil {
		return 0, false
	}
	raw := b.Bytes()
	return uint64(raw[0])<<24 | uint64(raw[1])<<16 | uint64(raw[2])<<8 | uint64(raw[3]), true
}

func decodeBearerContext(w bytesview.Window) *BearerContext {
	ies, notes, res := decodeIEs(w, 0, w.Len())
	if res != dissect.Success {
		return nil
	}
	bc := &BearerContext{ValidationNotes: notes}
	for _, ie := range ies {
		switch ie.Type {
		case ieEBI:
			if len(ie.Value) >= 1 {
				bc.EBI = ie.Value[0] & 0x0f
			}
		case ieFTEID:
			if f, ok := ie.Decoded.(*FTEID); ok {
				bc.FTEIDs = append(bc.FTEIDs, *f)
			}
		case ieBearerQoS:
			if q, ok := ie.Decoded.(*BearerQoS); ok {
				bc.QoS = q
			}
		}
	}
	return bc
}

func formatIPv4(b []byte) string { return net.IP(b).String() }

func formatIPv6(b []byte) string { return net.IP(b).String() }

// MessageFrom retrieves the decoded GTPv2-C message deposited by Parse.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*Message)
	return msg, ok
}
