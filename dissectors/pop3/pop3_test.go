package pop3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func parseLine(t *testing.T, d *Dissector, line string) *Message {
	t.Helper()
	ctx := dissect.NewContext(bytesview.New([]byte(line + "\r\n")))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	msg, ok := MessageFrom(ctx)
	require.True(t, ok)
	return msg
}

func TestCommandLine(t *testing.T) {
	d := New()
	msg := parseLine(t, d, "USER alice")
	assert.Equal(t, DirCommand, msg.Direction)
	assert.Equal(t, "USER", msg.Command)
	assert.Equal(t, "alice", msg.Args)
}

func TestSingleLineResponse(t *testing.T) {
	d := New()
	parseLine(t, d, "STAT")
	msg := parseLine(t, d, "+OK 2 320")
	assert.Equal(t, DirResponse, msg.Direction)
	assert.Equal(t, StatusOK, msg.Status)
	assert.Equal(t, "2 320", msg.Detail)
	assert.Nil(t, msg.MultiLine)
}

func TestMultiLineRetrResponse(t *testing.T) {
	d := New()
	parseLine(t, d, "RETR 1")

	ctx := dissect.NewContext(bytesview.New([]byte("+OK 120 octets\r\n")))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	assert.True(t, d.inMultiLine)

	ctx2 := dissect.NewContext(bytesview.New([]byte("Subject: hi\r\n")))
	require.Equal(t, dissect.Success, d.Parse(ctx2))

	ctx3 := dissect.NewContext(bytesview.New([]byte("..escaped dot line\r\n")))
	require.Equal(t, dissect.Success, d.Parse(ctx3))

	ctx4 := dissect.NewContext(bytesview.New([]byte(".\r\n")))
	require.Equal(t, dissect.Success, d.Parse(ctx4))
	msg, ok := MessageFrom(ctx4)
	require.True(t, ok)
	require.Len(t, msg.MultiLine, 2)
	assert.Equal(t, "Subject: hi", msg.MultiLine[0])
	assert.Equal(t, ".escaped dot line", msg.MultiLine[1])
	assert.False(t, d.inMultiLine)
}

func TestErrResponse(t *testing.T) {
	d := New()
	parseLine(t, d, "DELE 5")
	msg := parseLine(t, d, "-ERR no such message")
	assert.Equal(t, StatusErr, msg.Status)
	assert.Equal(t, "no such message", msg.Detail)
}

func TestNeedsMoreDataWithoutNewline(t *testing.T) {
	d := New()
	ctx := dissect.NewContext(bytesview.New([]byte("USER alice")))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestProbeRecognisesKnownCommand(t *testing.T) {
	d := New()
	assert.True(t, d.Probe(bytesview.New([]byte("QUIT\r\n"))))
	assert.True(t, d.Probe(bytesview.New([]byte("+OK ready\r\n"))))
	assert.False(t, d.Probe(bytesview.New([]byte("GET / HTTP/1.1\r\n"))))
}
