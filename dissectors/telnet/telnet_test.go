package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func TestPlainDataCoalesced(t *testing.T) {
	d := New()
	ctx := dissect.NewContext(bytesview.New([]byte("hello world")))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	events, ok := EventsFrom(ctx)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, EventData, events[0].Kind)
	assert.Equal(t, "hello world", string(events[0].Data))
}

func TestEscapedIACInData(t *testing.T) {
	d := New()
	buf := []byte{'a', iac, iac, 'b'}
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	events, _ := EventsFrom(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, []byte{'a', iac, 'b'}, events[0].Data)
}

func TestOptionNegotiationRecorded(t *testing.T) {
	d := New()
	buf := []byte{iac, cmdWill, 1, iac, cmdDo, 1} // WILL ECHO, DO ECHO
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	events, _ := EventsFrom(ctx)
	require.Len(t, events, 2)
	assert.Equal(t, EventNegotiation, events[0].Kind)
	assert.Equal(t, Will, events[0].Verb)
	assert.EqualValues(t, 1, events[0].Option)

	opts := d.Options()
	require.Contains(t, opts, byte(1))
	assert.True(t, opts[1].RemoteEnabled)
	assert.True(t, opts[1].LocalEnabled)
}

func TestSubnegotiationBlock(t *testing.T) {
	d := New()
	buf := []byte{iac, sb, 24, 'x', iac, iac, 'y', iac, se} // terminal-type sub with escaped IAC
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	events, _ := EventsFrom(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, EventSubnegotiation, events[0].Kind)
	assert.EqualValues(t, 24, events[0].SubOption)
	assert.Equal(t, []byte{'x', iac, 'y'}, events[0].SubData)
}

func TestTruncatedNegotiationNeedsMoreData(t *testing.T) {
	d := New()
	buf := []byte{iac, cmdWill}
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestUnterminatedSubnegotiationNeedsMoreData(t *testing.T) {
	d := New()
	buf := []byte{iac, sb, 24, 'x'}
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}

func TestSingleByteCommand(t *testing.T) {
	d := New()
	buf := []byte{iac, 241} // IAC NOP
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	events, _ := EventsFrom(ctx)
	require.Len(t, events, 1)
	assert.Equal(t, EventCommand, events[0].Kind)
	assert.EqualValues(t, 241, events[0].Command)
}
