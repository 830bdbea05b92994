package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
	"firestige.xyz/dissect/internal/wire"
)

// PropertyID identifies an MQTT v5 property (spec §2.2.2.2 of the MQTT 5.0
// standard; only the tags this dissector surfaces are named here).
type PropertyID uint8

const (
	PropPayloadFormatIndicator   PropertyID = 1
	PropMessageExpiryInterval    PropertyID = 2
	PropContentType              PropertyID = 3
	PropResponseTopic            PropertyID = 8
	PropCorrelationData          PropertyID = 9
	PropSubscriptionIdentifier   PropertyID = 11
	PropSessionExpiryInterval    PropertyID = 17
	PropAssignedClientIdentifier PropertyID = 18
	PropServerKeepAlive          PropertyID = 19
	PropAuthenticationMethod     PropertyID = 21
	PropAuthenticationData       PropertyID = 22
	PropRequestProblemInfo       PropertyID = 23
	PropWillDelayInterval        PropertyID = 24
	PropRequestResponseInfo      PropertyID = 25
	PropResponseInformation      PropertyID = 26
	PropServerReference          PropertyID = 28
	PropReasonString             PropertyID = 31
	PropReceiveMaximum           PropertyID = 33
	PropTopicAliasMaximum        PropertyID = 34
	PropTopicAlias               PropertyID = 35
	PropMaximumQoS               PropertyID = 36
	PropRetainAvailable          PropertyID = 37
	PropUserProperty             PropertyID = 38
	PropMaximumPacketSize        PropertyID = 39
	PropWildcardSubAvailable     PropertyID = 40
	PropSubIDsAvailable          PropertyID = 41
	PropSharedSubAvailable       PropertyID = 42
)

type propKind uint8

const (
	kindByte propKind = iota
	kindU16
	kindU32
	kindVarint
	kindString
	kindBinary
	kindStringPair
)

var propTable = map[PropertyID]propKind{
	PropPayloadFormatIndicator:   kindByte,
	PropMessageExpiryInterval:    kindU32,
	PropContentType:              kindString,
	PropResponseTopic:            kindString,
	PropCorrelationData:          kindBinary,
	PropSubscriptionIdentifier:   kindVarint,
	PropSessionExpiryInterval:    kindU32,
	PropAssignedClientIdentifier: kindString,
	PropServerKeepAlive:          kindU16,
	PropAuthenticationMethod:     kindString,
	PropAuthenticationData:       kindBinary,
	PropRequestProblemInfo:       kindByte,
	PropWillDelayInterval:        kindU32,
	PropRequestResponseInfo:      kindByte,
	PropResponseInformation:      kindString,
	PropServerReference:          kindString,
	PropReasonString:             kindString,
	PropReceiveMaximum:           kindU16,
	PropTopicAliasMaximum:        kindU16,
	PropTopicAlias:               kindU16,
	PropMaximumQoS:               kindByte,
	PropRetainAvailable:          kindByte,
	PropUserProperty:             kindStringPair,
	PropMaximumPacketSize:        kindU32,
	PropWildcardSubAvailable:     kindByte,
	PropSubIDsAvailable:          kindByte,
	PropSharedSubAvailable:       kindByte,
}

// Property is one decoded entry of an MQTT v5 property list. Value holds a
// byte, uint16, uint32, string, []byte, or [2]string depending on ID.
type Property struct {
	ID    PropertyID
	Value any
}

// decodeProperties reads a Property Length varint followed by that many
// bytes of tag-value pairs, per MQTT v5 §2.2.2. Unknown tags abort with
// InvalidFormat rather than silently skipping, since without a known kind
// there is no way to know how many bytes to consume.
func decodeProperties(w bytesview.Window, offset int) ([]Property, int, dissect.Result) {
	length, n, err := wire.DecodeVarint(w, offset)
	if err != nil {
		return nil, 0, dissect.NeedMoreData
	}
	cursor := offset + n
	end := cursor + int(length)

	var props []Property
	for cursor < end {
		tag, err := w.ReadU8(cursor)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		cursor++
		kind, ok := propTable[PropertyID(tag)]
		if !ok {
			return nil, 0, dissect.InvalidFormat
		}
		value, consumed, res := decodePropValue(w, cursor, kind)
		if res != dissect.Success {
			return nil, 0, res
		}
		props = append(props, Property{ID: PropertyID(tag), Value: value})
		cursor += consumed
	}
	return props, (n + int(length)), dissect.Success
}

func decodePropValue(w bytesview.Window, offset int, kind propKind) (any, int, dissect.Result) {
	switch kind {
	case kindByte:
		b, err := w.ReadU8(offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return b, 1, dissect.Success
	case kindU16:
		v, err := w.ReadU16(offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return v, 2, dissect.Success
	case kindU32:
		v, err := w.ReadU32(offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return v, 4, dissect.Success
	case kindVarint:
		v, n, err := wire.DecodeVarint(w, offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return v, n, dissect.Success
	case kindString:
		s, n, err := readString(w, offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return s, n, dissect.Success
	case kindBinary:
		b, n, err := readBinary(w, offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return b, n, dissect.Success
	case kindStringPair:
		k, n1, err := readString(w, offset)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		v, n2, err := readString(w, offset+n1)
		if err != nil {
			return nil, 0, dissect.NeedMoreData
		}
		return [2]string{k, v}, n1 + n2, dissect.Success
	default:
		return nil, 0, dissect.InternalError
	}
}
