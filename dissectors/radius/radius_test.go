package radius

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func buildPacket(code Code, attrs []byte) []byte {
	length := headerLen + len(attrs)
	var buf []byte
	buf = append(buf, byte(code), 42, byte(length>>8), byte(length))
	buf = append(buf, make([]byte, 16)...) // authenticator
	buf = append(buf, attrs...)
	return buf
}

func appendAttr(buf []byte, typ uint8, value []byte) []byte {
	return append(buf, append([]byte{typ, byte(2 + len(value))}, value...)...)
}

func TestParseAccessRequest(t *testing.T) {
	var attrs []byte
	attrs = appendAttr(attrs, 1, []byte("alice")) // User-Name

	buf := buildPacket(AccessRequest, attrs)
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	pkt, ok := PacketFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, AccessRequest, pkt.Code)
	assert.EqualValues(t, 42, pkt.Identifier)
	require.Len(t, pkt.Attributes, 1)
	assert.Equal(t, "alice", string(pkt.Attributes[0].Value))
}

func TestAttributeLengthTooShortInvalid(t *testing.T) {
	attrs := []byte{1, 1} // length < 2
	buf := buildPacket(AccessRequest, attrs)
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestTruncatedYieldsNeedMoreData(t *testing.T) {
	buf := buildPacket(AccessAccept, appendAttr(nil, 18, []byte("ok")))
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf[:len(buf)-1]))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestProbeRejectsInvalidCode(t *testing.T) {
	buf := buildPacket(AccessRequest, nil)
	buf[0] = 0
	d := New()
	assert.False(t, d.Probe(bytesview.New(buf)))
}
