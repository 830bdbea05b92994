// Package dns decodes RFC 1035 DNS messages, including name compression,
// over the header's four sections. Type-specific rdata decoding (A, AAAA,
// CNAME, ...) is left to the caller; rdata is captured opaquely at rdlength.
package dns

import (
	"errors"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
	"firestige.xyz/dissect/internal/wire"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "dns_message"

const headerLen = 12

// Header is the 12-byte DNS message header.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

const (
	flagQR     = 1 << 15
	flagAAbit  = 1 << 10
	flagTCbit  = 1 << 9
	flagRDbit  = 1 << 8
	flagRAbit  = 1 << 7
	opcodeMask = 0x7800
	opcodeSh   = 11
	rcodeMask  = 0x000f
)

// IsQuery reports whether h is a query (QR=0).
func (h Header) IsQuery() bool { return h.Flags&flagQR == 0 }

// IsResponse reports whether h is a response (QR=1).
func (h Header) IsResponse() bool { return h.Flags&flagQR != 0 }

// Opcode extracts the 4-bit opcode field.
func (h Header) Opcode() uint8 { return uint8((h.Flags & opcodeMask) >> opcodeSh) }

// Authoritative reports the AA bit.
func (h Header) Authoritative() bool { return h.Flags&flagAAbit != 0 }

// Truncated reports the TC bit.
func (h Header) Truncated() bool { return h.Flags&flagTCbit != 0 }

// RecursionDesired reports the RD bit.
func (h Header) RecursionDesired() bool { return h.Flags&flagRDbit != 0 }

// RecursionAvailable reports the RA bit.
func (h Header) RecursionAvailable() bool { return h.Flags&flagRAbit != 0 }

// ResponseCode extracts the 4-bit RCODE field.
func (h Header) ResponseCode() uint8 { return uint8(h.Flags & rcodeMask) }

// Question is one entry of the question section.
type Question struct {
	Name  string
	QType  uint16
	QClass uint16
}

// ResourceRecord is one answer/authority/additional entry. RData is
// captured opaquely; type-specific decoding is the caller's job.
type ResourceRecord struct {
	Name     string
	Type     uint16
	Class    uint16
	TTL      uint32
	RDLength uint16
	RData    []byte
}

// Message is the fully decoded DNS message.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// Dissector implements dissect.Dissector for DNS.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "dns", ID: 53, MinHeaderLen: headerLen, MinMsgLen: headerLen}
}

// Probe is a cheap structural check: big enough for a header, and the
// section counts don't look absurd (a real message's counts are tiny; an
// attacker declaring 65535 questions in a 12-byte buffer is not DNS).
func (d *Dissector) Probe(window bytesview.Window) bool {
	if window.Len() < headerLen {
		return false
	}
	qd, err := window.ReadU16(4)
	if err != nil {
		return false
	}
	return int(qd) <= window.Len()
}

func (d *Dissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing
	w := ctx.Window

	if w.Len() < headerLen {
		ctx.Fail()
		return dissect.BufferTooSmall
	}

	hdr, err := readHeader(w)
	if err != nil {
		return dissect.NeedMoreData
	}

	msg := &Message{Header: hdr}
	cursor := headerLen

	for i := 0; i < int(hdr.QDCount); i++ {
		q, n, res := readQuestion(w, cursor)
		if res != dissect.Success {
			if res != dissect.NeedMoreData {
				ctx.Fail()
			}
			return res
		}
		msg.Questions = append(msg.Questions, q)
		cursor += n
	}
	d.progress = 0.3

	sections := []struct {
		count int
		out   *[]ResourceRecord
	}{
		{int(hdr.ANCount), &msg.Answers},
		{int(hdr.NSCount), &msg.Authority},
		{int(hdr.ARCount), &msg.Additional},
	}
	for si, sec := range sections {
		for i := 0; i < sec.count; i++ {
			rr, n, res := readRR(w, cursor)
			if res != dissect.Success {
				if res != dissect.NeedMoreData {
					ctx.Fail()
				}
				return res
			}
			*sec.out = append(*sec.out, rr)
			cursor += n
		}
		d.progress = 0.3 + 0.2*float64(si+1)
	}

	ctx.Put(MetaKey, msg)
	ctx.Advance(cursor)
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

func readHeader(w bytesview.Window) (Header, error) {
	id, err := w.ReadU16(0)
	if err != nil {
		return Header{}, err
	}
	flags, err := w.ReadU16(2)
	if err != nil {
		return Header{}, err
	}
	qd, err := w.ReadU16(4)
	if err != nil {
		return Header{}, err
	}
	an, err := w.ReadU16(6)
	if err != nil {
		return Header{}, err
	}
	ns, err := w.ReadU16(8)
	if err != nil {
		return Header{}, err
	}
	ar, err := w.ReadU16(10)
	if err != nil {
		return Header{}, err
	}
	return Header{ID: id, Flags: flags, QDCount: qd, ANCount: an, NSCount: ns, ARCount: ar}, nil
}

func readQuestion(w bytesview.Window, offset int) (Question, int, dissect.Result) {
	name, n, err := wire.ReadDNSName(w, offset)
	if err != nil {
		return Question{}, 0, classifyNameErr(err)
	}
	qtype, err := w.ReadU16(offset + n)
	if err != nil {
		return Question{}, 0, dissect.NeedMoreData
	}
	qclass, err := w.ReadU16(offset + n + 2)
	if err != nil {
		return Question{}, 0, dissect.NeedMoreData
	}
	return Question{Name: name, QType: qtype, QClass: qclass}, n + 4, dissect.Success
}

func readRR(w bytesview.Window, offset int) (ResourceRecord, int, dissect.Result) {
	name, n, err := wire.ReadDNSName(w, offset)
	if err != nil {
		return ResourceRecord{}, 0, classifyNameErr(err)
	}
	cursor := offset + n

	typ, err := w.ReadU16(cursor)
	if err != nil {
		return ResourceRecord{}, 0, dissect.NeedMoreData
	}
	class, err := w.ReadU16(cursor + 2)
	if err != nil {
		return ResourceRecord{}, 0, dissect.NeedMoreData
	}
	ttl, err := w.ReadU32(cursor + 4)
	if err != nil {
		return ResourceRecord{}, 0, dissect.NeedMoreData
	}
	rdlen, err := w.ReadU16(cursor + 8)
	if err != nil {
		return ResourceRecord{}, 0, dissect.NeedMoreData
	}
	rdataWindow, err := w.Sub(cursor+10, int(rdlen))
	if err != nil {
		return ResourceRecord{}, 0, dissect.NeedMoreData
	}

	rr := ResourceRecord{
		Name:     name,
		Type:     typ,
		Class:    class,
		TTL:      ttl,
		RDLength: rdlen,
		RData:    rdataWindow.Bytes(),
	}
	return rr, (cursor + 10 + int(rdlen)) - offset, dissect.Success
}

// classifyNameErr turns a name-decode error into a Result: a compression
// loop is a structural violation (InvalidFormat); anything else means the
// buffer simply ended before the name did (NeedMoreData).
func classifyNameErr(err error) dissect.Result {
	if errors.Is(err, wire.ErrPointerLoop) {
		return dissect.InvalidFormat
	}
	return dissect.NeedMoreData
}

// MessageFrom retrieves the decoded DNS message deposited by Parse.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*Message)
	return msg, ok
}
