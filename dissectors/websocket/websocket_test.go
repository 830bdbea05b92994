package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func maskPayload(key [4]byte, payload []byte) []byte {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = b ^ key[i%4]
	}
	return out
}

func TestTextFrameMaskedRoundTrip(t *testing.T) {
	key := [4]byte{0x01, 0x02, 0x03, 0x04}
	payload := []byte("hello")
	masked := maskPayload(key, payload)

	buf := []byte{0x81, 0x80 | byte(len(payload))}
	buf = append(buf, key[:]...)
	buf = append(buf, masked...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	frame, ok := FrameFrom(ctx)
	require.True(t, ok)
	assert.True(t, frame.FIN)
	assert.Equal(t, OpText, frame.Opcode)
	assert.Equal(t, "hello", string(frame.Payload))
}

func TestExtendedPayloadLength16(t *testing.T) {
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = 'a'
	}
	buf := []byte{0x82, 126, byte(len(payload) >> 8), byte(len(payload))}
	buf = append(buf, payload...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	frame, _ := FrameFrom(ctx)
	assert.Equal(t, OpBinary, frame.Opcode)
	assert.Len(t, frame.Payload, 200)
}

func TestRSVBitsRejected(t *testing.T) {
	buf := []byte{0xC1, 0x00} // RSV1 set
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestControlFrameTooLongRejected(t *testing.T) {
	buf := []byte{0x89, 126} // PING claiming extended length, control frames can't do that
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestCloseFrameLengthOneInvalid(t *testing.T) {
	buf := []byte{0x88, 0x01, 0x01}
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestCloseFrameInvalidCode(t *testing.T) {
	buf := []byte{0x88, 0x02, 0x03, 0xec} // 1004
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestCloseFrameValidCode(t *testing.T) {
	buf := []byte{0x88, 0x02, 0x03, 0xe8} // 1000, normal closure
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	frame, _ := FrameFrom(ctx)
	assert.EqualValues(t, 1000, frame.CloseCode)
}

func TestTextFrameInvalidUTF8Rejected(t *testing.T) {
	buf := []byte{0x81, 0x02, 0xff, 0xfe}
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestParseHandshakeRequestValid(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n\r\n"

	h, err := ParseHandshakeRequest([]byte(raw))
	require.NoError(t, err)
	assert.True(t, h.UpgradeValid)
	assert.Equal(t, "/chat", h.Path)
	assert.Equal(t, "dGhlIHNhbXBsZSBub25jZQ==", h.Key)
}

func TestParseHandshakeRequestRejectsMissingUpgrade(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\nHost: example.com\r\n\r\n"
	_, err := ParseHandshakeRequest([]byte(raw))
	assert.ErrorIs(t, err, ErrNotUpgrade)
}

func TestParseHandshakeRequestExtractsProtocolsAndExtensions(t *testing.T) {
	raw := "GET /chat HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Protocol: chat, superchat\r\n" +
		"Sec-WebSocket-Extensions: permessage-deflate\r\n\r\n"

	h, err := ParseHandshakeRequest([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "superchat"}, h.Protocols)
	assert.Equal(t, []string{"permessage-deflate"}, h.Extensions)
}

// ComputeAccept's expected output for this key is the worked example from
// RFC 6455 §1.3.
func TestComputeAcceptMatchesRFCExample(t *testing.T) {
	accept := ComputeAccept("dGhlIHNhbXBsZSBub25jZQ==")
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", accept)
}

func TestParseHandshakeResponseValidatesAccept(t *testing.T) {
	raw := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n"

	h, err := ParseHandshakeResponse([]byte(raw))
	require.NoError(t, err)
	assert.True(t, h.UpgradeValid)
	assert.True(t, AcceptMatches("dGhlIHNhbXBsZSBub25jZQ==", h.Accept))
}

func TestAcceptMatchesRejectsWrongAccept(t *testing.T) {
	assert.False(t, AcceptMatches("dGhlIHNhbXBsZSBub25jZQ==", "not-the-right-value="))
}
