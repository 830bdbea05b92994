// Package signalling implements structural (not full ASN.1 PER) decoding of
// the 3GPP application-layer signalling protocols named in spec.md §4.14:
// S1AP, NGAP, X2AP/XnAP, and H.323/Q.931. Each extracts only the envelope
// fields needed to classify a message (PDU choice, procedure code,
// criticality, or Q.931 message type) without decoding the ASN.1-PER- or
// ITU-T-encoded information elements inside.
package signalling

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// PDUChoice is the outer CHOICE of an APER-encoded S1AP/NGAP/X2AP PDU:
// initiating message, successful outcome, or unsuccessful outcome.
type PDUChoice uint8

const (
	InitiatingMessage PDUChoice = iota
	SuccessfulOutcome
	UnsuccessfulOutcome
)

func (c PDUChoice) String() string {
	switch c {
	case InitiatingMessage:
		return "InitiatingMessage"
	case SuccessfulOutcome:
		return "SuccessfulOutcome"
	case UnsuccessfulOutcome:
		return "UnsuccessfulOutcome"
	default:
		return "Unknown"
	}
}

// Criticality is the APER criticality tag attached to the procedure code.
type Criticality uint8

const (
	CriticalityReject  Criticality = 0
	CriticalityIgnore  Criticality = 1
	CriticalityNotify  Criticality = 2
)

// APERPDU is the structural envelope shared by S1AP, NGAP, and X2AP/XnAP:
// all three use the same outer PDU shape (TS 36.413 §9.1.1 and its NGAP/
// X2AP analogues). The byte layout modelled here is the common simple
// case — choice tag in the top 2 bits of the first byte, criticality in
// the next 2, procedure code as the following byte — which covers the
// overwhelming majority of real messages without a full PER decoder.
// PER's long-form length determinant is not detected: only a choice tag
// of 3 is rejected (InvalidFormat), and any other first byte is decoded
// under the simple-case layout.
type APERPDU struct {
	Choice        PDUChoice
	Criticality   Criticality
	ProcedureCode uint8
	Body          []byte
}

func decodeAPERPDU(w bytesview.Window) (*APERPDU, dissect.Result) {
	if w.Len() < 2 {
		return nil, dissect.BufferTooSmall
	}
	b0, err := w.ReadU8(0)
	if err != nil {
		return nil, dissect.BufferTooSmall
	}
	choiceTag := b0 >> 6
	if choiceTag > 2 {
		return nil, dissect.InvalidFormat
	}
	criticality := Criticality((b0 >> 4) & 0x03)

	procCode, err := w.ReadU8(1)
	if err != nil {
		return nil, dissect.NeedMoreData
	}

	var body []byte
	if w.Len() > 2 {
		tail, err := w.Tail(2)
		if err == nil {
			body = tail.Bytes()
		}
	}

	return &APERPDU{
		Choice:        PDUChoice(choiceTag),
		Criticality:   criticality,
		ProcedureCode: procCode,
		Body:          body,
	}, dissect.Success
}

// protocolDissector is the common shell for S1AP/NGAP/X2AP: identical
// decode logic, distinguished only by name/SCTP-PPID and the meta key it
// deposits under.
type protocolDissector struct {
	name     string
	ppid     uint32
	metaKey  string
	progress float64
}

func (d *protocolDissector) Descriptor() dissect.Descriptor {
	return dissect.Descriptor{Name: d.name, ID: d.ppid, MinHeaderLen: 2, MinMsgLen: 2}
}

func (d *protocolDissector) Probe(window bytesview.Window) bool {
	if window.Len() < 2 {
		return false
	}
	b0, err := window.ReadU8(0)
	if err != nil {
		return false
	}
	return b0>>6 <= 2
}

func (d *protocolDissector) Parse(ctx *dissect.Context) dissect.Result {
	d.progress = 0
	ctx.Stage = dissect.StageParsing

	pdu, res := decodeAPERPDU(ctx.Window)
	if res != dissect.Success {
		if res != dissect.NeedMoreData {
			ctx.Fail()
		}
		return res
	}
	d.progress = 1

	ctx.Put(d.metaKey, pdu)
	ctx.Advance(ctx.Window.Len())
	ctx.Finish()
	return dissect.Success
}

func (d *protocolDissector) Reset()            { d.progress = 0 }
func (d *protocolDissector) Progress() float64 { return d.progress }

// S1APMetaKey is where an S1AP Dissector deposits its decoded *APERPDU.
const S1APMetaKey = "s1ap_pdu"

// NewS1AP creates an S1AP (TS 36.413) structural dissector. SCTP PPID 18.
func NewS1AP() dissect.Dissector {
	return &protocolDissector{name: "s1ap", ppid: 18, metaKey: S1APMetaKey}
}

// NGAPMetaKey is where an NGAP Dissector deposits its decoded *APERPDU.
const NGAPMetaKey = "ngap_pdu"

// NewNGAP creates an NGAP (TS 38.413) structural dissector. SCTP PPID 60.
func NewNGAP() dissect.Dissector {
	return &protocolDissector{name: "ngap", ppid: 60, metaKey: NGAPMetaKey}
}

// X2APMetaKey is where an X2AP Dissector deposits its decoded *APERPDU.
const X2APMetaKey = "x2ap_pdu"

// NewX2AP creates an X2AP/XnAP structural dissector. SCTP PPID 27.
func NewX2AP() dissect.Dissector {
	return &protocolDissector{name: "x2ap", ppid: 27, metaKey: X2APMetaKey}
}

// S1APFrom, NGAPFrom, X2APFrom retrieve the decoded envelope deposited by
// the correspondingly-named dissector.
func S1APFrom(ctx *dissect.Context) (*APERPDU, bool) { return pduFrom(ctx, S1APMetaKey) }
func NGAPFrom(ctx *dissect.Context) (*APERPDU, bool) { return pduFrom(ctx, NGAPMetaKey) }
func X2APFrom(ctx *dissect.Context) (*APERPDU, bool) { return pduFrom(ctx, X2APMetaKey) }

func pduFrom(ctx *dissect.Context, key string) (*APERPDU, bool) {
	v, ok := ctx.Get(key)
	if !ok {
		return nil, false
	}
	pdu, ok := v.(*APERPDU)
	return pdu, ok
}
