package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
	"firestige.xyz/dissect/internal/wire"
)

func mustVarint(t *testing.T, v uint32) []byte {
	t.Helper()
	b, err := wire.EncodeVarint(v)
	require.NoError(t, err)
	return b
}

func mqttString(s string) []byte {
	out := []byte{byte(len(s) >> 8), byte(len(s))}
	return append(out, s...)
}

func TestParseConnectV311(t *testing.T) {
	var body []byte
	body = append(body, mqttString("MQTT")...)
	body = append(body, 4)    // protocol level 3.1.1
	body = append(body, 0x02) // clean session
	body = append(body, 0x00, 0x3c)
	body = append(body, mqttString("client-1")...)

	var buf []byte
	buf = append(buf, byte(CONNECT)<<4)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	pkt, ok := PacketFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, CONNECT, pkt.FixedHeader.Type)
	cb, ok := pkt.Body.(*ConnectBody)
	require.True(t, ok)
	assert.Equal(t, "MQTT", cb.ProtocolName)
	assert.EqualValues(t, 4, cb.ProtocolLevel)
	assert.True(t, cb.CleanSession)
	assert.Equal(t, "client-1", cb.ClientID)
	assert.EqualValues(t, 60, cb.KeepAlive)
}

func TestParsePublishQoS1(t *testing.T) {
	var body []byte
	body = append(body, mqttString("a/b")...)
	body = append(body, 0x00, 0x2a) // packet id
	body = append(body, 0x00)       // empty v5 property length (parsed opportunistically)
	body = append(body, "payload"...)

	var buf []byte
	buf = append(buf, byte(PUBLISH)<<4|0x02) // QoS 1
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	pkt, ok := PacketFrom(ctx)
	require.True(t, ok)
	pb, ok := pkt.Body.(*PublishBody)
	require.True(t, ok)
	assert.Equal(t, "a/b", pb.TopicName)
	require.NotNil(t, pb.PacketID)
	assert.EqualValues(t, 42, *pb.PacketID)
	assert.Equal(t, "payload", string(pb.Payload))
}

func TestParsePingreq(t *testing.T) {
	buf := []byte{byte(PINGREQ) << 4, 0x00}
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	pkt, ok := PacketFrom(ctx)
	require.True(t, ok)
	assert.Nil(t, pkt.Body)
}

func TestParseSubscribe(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x01) // packet id
	body = append(body, 0x00)       // property length 0
	body = append(body, mqttString("topic/#")...)
	body = append(body, 0x01) // qos1

	var buf []byte
	buf = append(buf, byte(SUBSCRIBE)<<4|0x02)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	pkt, _ := PacketFrom(ctx)
	sb, ok := pkt.Body.(*SubscribeBody)
	require.True(t, ok)
	require.Len(t, sb.Subscriptions, 1)
	assert.Equal(t, "topic/#", sb.Subscriptions[0].TopicFilter)
	assert.EqualValues(t, 1, sb.Subscriptions[0].QoS)
}

func TestParsePublishRejectsEmptyTopic(t *testing.T) {
	var body []byte
	body = append(body, mqttString("")...)
	body = append(body, "payload"...)

	var buf []byte
	buf = append(buf, byte(PUBLISH)<<4) // QoS 0, no packet id
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParsePublishRejectsNULInTopic(t *testing.T) {
	var body []byte
	body = append(body, mqttString("a/\x00/b")...)
	body = append(body, "payload"...)

	var buf []byte
	buf = append(buf, byte(PUBLISH)<<4)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParsePublishRejectsWildcardInTopic(t *testing.T) {
	var body []byte
	body = append(body, mqttString("a/+/b")...)
	body = append(body, "payload"...)

	var buf []byte
	buf = append(buf, byte(PUBLISH)<<4)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParseSubscribeRejectsEmptyFilter(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x01) // packet id
	body = append(body, 0x00)       // property length 0
	body = append(body, mqttString("")...)
	body = append(body, 0x01) // qos1

	var buf []byte
	buf = append(buf, byte(SUBSCRIBE)<<4|0x02)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParseSubscribeAllowsWildcardFilter(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x01)
	body = append(body, 0x00)
	body = append(body, mqttString("sport/tennis/+")...)
	body = append(body, 0x00)

	var buf []byte
	buf = append(buf, byte(SUBSCRIBE)<<4|0x02)
	buf = append(buf, mustVarint(t, uint32(len(body)))...)
	buf = append(buf, body...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
}

func TestParseRejectsUnknownType(t *testing.T) {
	buf := []byte{0x00, 0x00} // type nibble 0 is reserved, invalid
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParseTruncatedYieldsBufferTooSmall(t *testing.T) {
	buf := []byte{byte(CONNECT) << 4}
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.BufferTooSmall, d.Parse(ctx))
}

func TestParseIncompleteRemainingLengthNeedsMoreData(t *testing.T) {
	buf := []byte{byte(PUBLISH) << 4, 0x80, 0x80} // varint continues but buffer ends
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestSessionsObserveAndLookup(t *testing.T) {
	sessions := NewSessions()
	sessions.Observe(&ConnectBody{ClientID: "client-1", ProtocolLevel: 5, CleanSession: true})

	state, ok := sessions.Lookup("client-1")
	require.True(t, ok)
	assert.EqualValues(t, 5, state.ProtocolLevel)
	assert.True(t, state.CleanSession)

	sessions.Forget("client-1")
	_, ok = sessions.Lookup("client-1")
	assert.False(t, ok)
}
