package dns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func TestParseQueryScenario(t *testing.T) {
	buf := []byte{
		0x12, 0x34, // id
		0x01, 0x00, // flags: RD=1
		0x00, 0x01, // qdcount=1
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		3, 'w', 'w', 'w', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
		0x00, 0x01, // qtype A
		0x00, 0x01, // qclass IN
	}

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	msg, ok := MessageFrom(ctx)
	require.True(t, ok)
	assert.True(t, msg.Header.IsQuery())
	require.Len(t, msg.Questions, 1)
	assert.Equal(t, "www.example.com", msg.Questions[0].Name)
	assert.EqualValues(t, 1, msg.Questions[0].QType)
	assert.EqualValues(t, 1, msg.Questions[0].QClass)
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	d := New()
	ctx := dissect.NewContext(bytesview.New([]byte{0x12, 0x34}))
	assert.Equal(t, dissect.BufferTooSmall, d.Parse(ctx))
}

func TestParseNeedsMoreDataForMissingQuestion(t *testing.T) {
	buf := []byte{0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0} // qdcount=1 but no question bytes
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestParseRejectsPointerLoop(t *testing.T) {
	buf := []byte{
		0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0,
		0xc0, 0x0c, // pointer to itself (offset 12, its own position)
		0, 1, 0, 1,
	}
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func TestHeaderFlagHelpers(t *testing.T) {
	h := Header{Flags: 0x8180} // QR=1 RD=1 RA=1
	assert.True(t, h.IsResponse())
	assert.True(t, h.RecursionDesired())
	assert.True(t, h.RecursionAvailable())
	assert.False(t, h.Truncated())
	assert.False(t, h.Authoritative())
	assert.EqualValues(t, 0, h.ResponseCode())
}
