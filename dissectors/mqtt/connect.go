package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

const protocolLevel5 = 5

// ConnectBody is the CONNECT packet's variable header and payload.
type ConnectBody struct {
	ProtocolName  string
	ProtocolLevel uint8

	UsernameFlag bool
	PasswordFlag bool
	WillRetain   bool
	WillQoS      uint8
	WillFlag     bool
	CleanSession bool

	KeepAlive uint16

	Properties []Property // v5 only; nil for v3.1.1

	ClientID string

	WillProperties []Property
	WillTopic      string
	WillPayload    []byte

	Username string
	Password []byte
}

func decodeConnect(w bytesview.Window) (any, dissect.Result) {
	name, n, err := readString(w, 0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor := n

	level, err := w.ReadU8(cursor)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor++

	flags, err := w.ReadU8(cursor)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor++

	keepAlive, err := w.ReadU16(cursor)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	cursor += 2

	body := &ConnectBody{
		ProtocolName:  name,
		ProtocolLevel: level,
		UsernameFlag:  flags&0x80 != 0,
		PasswordFlag:  flags&0x40 != 0,
		WillRetain:    flags&0x20 != 0,
		WillQoS:       (flags >> 3) & 0x03,
		WillFlag:      flags&0x04 != 0,
		CleanSession:  flags&0x02 != 0,
		KeepAlive:     keepAlive,
	}

	if level == protocolLevel5 {
		props, n, res := decodeProperties(w, cursor)
		if res != dissect.Success {
			return nil, res
		}
		body.Properties = props
		cursor += n
	}

	clientID, n, err := readString(w, cursor)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	body.ClientID = clientID
	cursor += n

	if body.WillFlag {
		if level == protocolLevel5 {
			props, n, res := decodeProperties(w, cursor)
			if res != dissect.Success {
				return nil, res
			}
			body.WillProperties = props
			cursor += n
		}
		topic, n, err := readString(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.WillTopic = topic
		cursor += n

		payload, n, err := readBinary(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.WillPayload = payload
		cursor += n
	}

	if body.UsernameFlag {
		user, n, err := readString(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.Username = user
		cursor += n
	}

	if body.PasswordFlag {
		pass, n, err := readBinary(w, cursor)
		if err != nil {
			return nil, dissect.NeedMoreData
		}
		body.Password = pass
		cursor += n
	}

	return body, dissect.Success
}

// ConnackBody is the CONNACK packet's variable header.
type ConnackBody struct {
	SessionPresent bool
	ReturnCode     uint8
	Properties     []Property
}

func decodeConnack(w bytesview.Window) (any, dissect.Result) {
	flags, err := w.ReadU8(0)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	code, err := w.ReadU8(1)
	if err != nil {
		return nil, dissect.NeedMoreData
	}
	body := &ConnackBody{SessionPresent: flags&0x01 != 0, ReturnCode: code}

	if w.Len() > 2 {
		props, _, res := decodeProperties(w, 2)
		if res != dissect.Success {
			return nil, res
		}
		body.Properties = props
	}
	return body, dissect.Success
}
