// Package diameter decodes RFC 6733 Diameter messages: the 20-byte header
// and recursive AVP (Attribute-Value Pair) iteration, with a handful of
// common AVPs lifted onto typed optional fields.
package diameter

import (
	"fmt"

	"go.uber.org/multierr"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// MetaKey is where Parse deposits the decoded *Message.
const MetaKey = "diameter_message"

const headerLen = 20

// Common AVP codes lifted onto Message's typed fields (RFC 6733 §4.5 and
// the base protocol's common AVP table).
const (
	avpSessionID         = 263
	avpOriginHost        = 264
	avpOriginRealm       = 296
	avpDestinationHost   = 293
	avpDestinationRealm  = 283
	avpUserName          = 1
	avpResultCode        = 268
	avpAuthApplicationID = 258
)

// Header is the fixed 20-byte Diameter message header.
type Header struct {
	Version        uint8
	MessageLength  uint32 // 24-bit field, widened
	CommandFlags   uint8
	CommandCode    uint32 // 24-bit field, widened
	ApplicationID  uint32
	HopByHopID     uint32
	EndToEndID     uint32
}

func (h Header) IsRequest() bool    { return h.CommandFlags&0x80 != 0 }
func (h Header) IsProxiable() bool  { return h.CommandFlags&0x40 != 0 }
func (h Header) IsError() bool      { return h.CommandFlags&0x20 != 0 }
func (h Header) IsRetransmit() bool { return h.CommandFlags&0x10 != 0 }

// AVP is one decoded Attribute-Value Pair, carrying its raw value bytes in
// Data. Parse leaves Children empty; DecodeGrouped decodes a grouped AVP's
// Data into Children.
type AVP struct {
	Code     uint32
	Vendor   bool
	Mandatory bool
	Private  bool
	VendorID uint32
	Data     []byte
	Children []AVP
}

// Message is the fully decoded Diameter message.
type Message struct {
	Header Header
	AVPs   []AVP

	SessionID         string
	OriginHost        string
	OriginRealm       string
	DestinationHost   string
	DestinationRealm  string
	UserName          string
	ResultCode        uint32
	HasResultCode     bool
	AuthApplicationID uint32
	HasAuthAppID      bool

	// ValidationNotes accumulates non-fatal per-AVP problems encountered
	// while walking AVPs (declared length shorter than the AVP header it
	// claims, vendor-flagged length too short to hold even an empty
	// value). The walk recovers and keeps going rather than discarding
	// the whole message over one bad AVP; nil when nothing was flagged.
	ValidationNotes error
}

// Dissector implements dissect.Dissector for Diameter.
type Dissector struct {
	progress float64
}

func New() *Dissector { return &Dissector{} }

func (d *Dissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: "diameter", ID: 3868, MinHeaderLen: headerLen, MinMsgLen: headerLen}
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
	msgLen, err := w.ReadU24(1)
	if err != nil {
		return dissect.NeedMoreData
	}
	flags, _ := w.ReadU8(4)
	cmdCode, err := w.ReadU24(5)
	if err != nil {
		return dissect.NeedMoreData
	}
	appID, err := w.ReadU32(8)
	if err != nil {
		return dissect.NeedMoreData
	}
	hopByHop, err := w.ReadU32(12)
	if err != nil {
		return dissect.NeedMoreData
	}
	endToEnd, err := w.ReadU32(16)
	if err != nil {
		return dissect.NeedMoreData
	}

	if int(msgLen) < headerLen {
		ctx.Fail()
		return dissect.InvalidFormat
	}
	if w.Len() < int(msgLen) {
		return dissect.NeedMoreData
	}

	hdr := Header{
		Version: version, MessageLength: msgLen, CommandFlags: flags,
		CommandCode: cmdCode, ApplicationID: appID, HopByHopID: hopByHop, EndToEndID: endToEnd,
	}
	d.progress = 0.2

	body, err := w.Sub(headerLen, int(msgLen)-headerLen)
	if err != nil {
		return dissect.NeedMoreData
	}

	avps, notes, res := decodeAVPs(body)
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}
	d.progress = 0.7

	msg := &Message{Header: hdr, AVPs: avps, ValidationNotes: notes}
	applyCommonAVPs(msg, avps)

	ctx.Put(MetaKey, msg)
	ctx.Advance(int(msgLen))
	ctx.Finish()
	d.progress = 1
	return dissect.Success
}

func (d *Dissector) Reset()            { d.progress = 0 }
func (d *Dissector) Progress() float64 { return d.progress }

func decodeAVPs(w bytesview.Window) ([]AVP, error, dissect.Result) {
	var avps []AVP
	var notes error
	cursor := 0
	for cursor < w.Len() {
		avp, consumed, note, res := decodeOneAVP(w, cursor)
		if res != dissect.Success {
			return avps, notes, res
		}
		if note != nil {
			notes = multierr.Append(notes, note)
		}
		avps = append(avps, avp)
		cursor += consumed
	}
	return avps, notes, dissect.Success
}

// decodeOneAVP decodes the AVP at offset. A dissect.Result other than
// Success means the buffer itself ran out mid-field (genuinely more bytes
// needed); a non-nil note means the AVP's own length claim was internally
// inconsistent but enough of the header was readable to keep walking past
// it, padded length included, with its value treated as empty.
func decodeOneAVP(w bytesview.Window, offset int) (AVP, int, error, dissect.Result) {
	if w.Len() < offset+8 {
		return AVP{}, 0, nil, dissect.NeedMoreData
	}
	code, err := w.ReadU32(offset)
	if err != nil {
		return AVP{}, 0, nil, dissect.NeedMoreData
	}
	flags, err := w.ReadU8(offset + 4)
	if err != nil {
		return AVP{}, 0, nil, dissect.NeedMoreData
	}
	length, err := w.ReadU24(offset + 5)
	if err != nil {
		return AVP{}, 0, nil, dissect.NeedMoreData
	}

	hasVendor := flags&0x80 != 0
	dataOffset := offset + 8
	var vendorID uint32
	headerLen := 8
	if hasVendor {
		vendorID, err = w.ReadU32(offset + 8)
		if err != nil {
			return AVP{}, 0, nil, dissect.NeedMoreData
		}
		dataOffset = offset + 12
		headerLen = 12
	}

	if int(length) < headerLen {
		note := fmt.Errorf("diameter: avp code %d at offset %d: declared length %d shorter than %d-byte header", code, offset, length, headerLen)
		padded := headerLen
		if rem := padded % 4; rem != 0 {
			padded += 4 - rem
		}
		avp := AVP{Code: code, Vendor: hasVendor, Mandatory: flags&0x40 != 0, Private: flags&0x20 != 0, VendorID: vendorID}
		return avp, padded, note, dissect.Success
	}

	dataLen := int(length) - headerLen
	dataWindow, err := w.Sub(dataOffset, dataLen)
	if err != nil {
		return AVP{}, 0, nil, dissect.NeedMoreData
	}

	avp := AVP{
		Code:      code,
		Vendor:    hasVendor,
		Mandatory: flags&0x40 != 0,
		Private:   flags&0x20 != 0,
		VendorID:  vendorID,
		Data:      dataWindow.Bytes(),
	}

	padded := int(length)
	if rem := padded % 4; rem != 0 {
		padded += 4 - rem
	}
	return avp, padded, nil, dissect.Success
}

func applyCommonAVPs(msg *Message, avps []AVP) {
	for _, a := range avps {
		switch a.Code {
		case avpSessionID:
			msg.SessionID = string(a.Data)
		case avpOriginHost:
			msg.OriginHost = string(a.Data)
		case avpOriginRealm:
			msg.OriginRealm = string(a.Data)
		case avpDestinationHost:
			msg.DestinationHost = string(a.Data)
		case avpDestinationRealm:
			msg.DestinationRealm = string(a.Data)
		case avpUserName:
			msg.UserName = string(a.Data)
		case avpResultCode:
			if len(a.Data) == 4 {
				msg.ResultCode = be32(a.Data)
				msg.HasResultCode = true
			}
		case avpAuthApplicationID:
			if len(a.Data) == 4 {
				msg.AuthApplicationID = be32(a.Data)
				msg.HasAuthAppID = true
			}
		}
	}
}

// DecodeGrouped decodes a.Data as a nested AVP sequence and populates
// a.Children. Whether an AVP's data type is "Grouped" is dictionary
// knowledge (the AVP code alone doesn't say so without a vendor/application
// dictionary, which is out of scope); callers that know an AVP is grouped
// call this explicitly rather than Parse guessing from the wire. The
// returned error, if non-nil, holds non-fatal validation notes gathered
// while walking the children; it never blocks population of a.Children.
func DecodeGrouped(a *AVP) (error, dissect.Result) {
	children, notes, res := decodeAVPs(bytesview.New(a.Data))
	if res != dissect.Success {
		return notes, res
	}
	a.Children = children
	return notes, dissect.Success
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// MessageFrom retrieves the decoded Diameter message deposited by Parse.
func MessageFrom(ctx *dissect.Context) (*Message, bool) {
	v, ok := ctx.Get(MetaKey)
	if !ok {
		return nil, false
	}
	msg, ok := v.(*Message)
	return msg, ok
}
