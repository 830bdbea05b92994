package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// AckBody covers PUBACK, PUBREC, PUBREL, PUBCOMP, and UNSUBACK: a packet
// identifier, and (v5 only, and only when the packet is long enough to
// carry one) a reason code plus property list.
type AckBody struct {
	PacketID   uint16
	ReasonCode uint8
	Properties []Property
}

func decodePacketIDOnly(w bytesview.Window) (any, dissect.Result) {
	id, err := w.ReadU16(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	body := &AckBody{PacketID: id}
	if w.Len() <= 2 {
		return body, dissect.Success
	}

	code, err := w.ReadU8(2)
	if err != nil {
		return body, dissect.Success
	}
	body.ReasonCode = code

	if w.Len() > 3 {
		if props, _, res := decodeProperties(w, 3); res == dissect.Success {
			body.Properties = props
		}
	}
	return body, dissect.Success
}

// ReasonBody covers DISCONNECT and AUTH: an optional reason code and
// property list (both may be absent when the reason is the default,
// zero-length remaining-length case).
type ReasonBody struct {
	ReasonCode uint8
	Properties []Property
}

func decodeReasonWithProperties(w bytesview.Window) (any, dissect.Result) {
	if w.Len() == 0 {
		return &ReasonBody{}, dissect.Success
	}
	code, err := w.ReadU8(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	body := &ReasonBody{ReasonCode: code}
	if w.Len() > 1 {
		props, _, res := decodeProperties(w, 1)
		if res != dissect.Success {
			return nil, res
		}
		body.Properties = props
	}
	return body, dissect.Success
}
