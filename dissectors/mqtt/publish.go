package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// PublishBody is the PUBLISH packet's variable header and payload.
type PublishBody struct {
	TopicName string
	// PacketID is nil for QoS 0 publishes, which carry no packet identifier.
	PacketID   *uint16
	Properties []Property
	Payload    []byte
}

func decodePublish(fh FixedHeader, w bytesview.Window) (any, dissect.Result) {
	topic, n, err := readString(w, 0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	if err := validateTopic(topic); err != nil {
		return nil, dissect.InvalidFormat
	}
	cursor := n

	body := &PublishBody{TopicName: topic}

	if fh.QoS > 0 {
		id, err := w.ReadU16(cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.PacketID = &id
		cursor += 2
	}

	// PUBLISH carries a property list only under MQTT v5; nothing in the
	// fixed/variable header says which version produced this packet, so a
	// malformed-looking property list is treated as "this is 3.1.1" rather
	// than a parse failure.
	if props, n, res := decodeProperties(w, cursor); res == dissect.Success {
		body.Properties = props
		cursor += n
	}

	rest, err := w.Tail(cursor)
	if err != nil {
		body.Payload = nil
	} else {
		body.Payload = rest.Bytes()
	}
	return body, dissect.Success
}
