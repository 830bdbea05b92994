package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// Subscription is one topic filter/options pair within a SUBSCRIBE packet.
type Subscription struct {
	TopicFilter string
	QoS         uint8
}

// SubscribeBody is the SUBSCRIBE packet's variable header and payload.
type SubscribeBody struct {
	PacketID      uint16
	Properties    []Property
	Subscriptions []Subscription
}

func decodeSubscribe(w bytesview.Window) (any, dissect.Result) {
	id, err := w.ReadU16(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor := 2

	body := &SubscribeBody{PacketID: id}
	if props, n, res := decodeProperties(w, cursor); res == dissect.Success {
		body.Properties = props
		cursor += n
	}

	for cursor < w.Len() {
		filter, n, err := readString(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		if err := validateFilter(filter); err != nil {
			return nil, dissect.InvalidFormat
		}
		cursor += n
		opts, err := w.ReadU8(cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		cursor++
		body.Subscriptions = append(body.Subscriptions, Subscription{
			TopicFilter: filter,
			QoS:         opts & 0x03,
		})
	}
	return body, dissect.Success
}

// SubackBody is the SUBACK packet's variable header and payload.
type SubackBody struct {
	PacketID    uint16
	Properties  []Property
	ReasonCodes []uint8
}

func decodeSuback(w bytesview.Window) (any, dissect.Result) {
	id, err := w.ReadU16(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor := 2

	body := &SubackBody{PacketID: id}
	if props, n, res := decodeProperties(w, cursor); res == dissect.Success {
		body.Properties = props
		cursor += n
	}

	for cursor < w.Len() {
		code, err := w.ReadU8(cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.ReasonCodes = append(body.ReasonCodes, code)
		cursor++
	}
	return body, dissect.Success
}

// UnsubscribeBody is the UNSUBSCRIBE packet's variable header and payload.
type UnsubscribeBody struct {
	PacketID     uint16
	Properties   []Property
	TopicFilters []string
}

func decodeUnsubscribe(w bytesview.Window) (any, dissect.Result) {
	id, err := w.ReadU16(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor := 2

	body := &UnsubscribeBody{PacketID: id}
	if props, n, res := decodeProperties(w, cursor); res == dissect.Success {
		body.Properties = props
		cursor += n
	}

	for cursor < w.Len() {
		filter, n, err := readString(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		if err := validateFilter(filter); err != nil {
			return nil, dissect.InvalidFormat
		}
		body.TopicFilters = append(body.TopicFilters, filter)
		cursor += n
	}
	return body, dissect.Success
}
