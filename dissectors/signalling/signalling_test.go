package signalling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func TestS1APInitiatingMessage(t *testing.T) {
	buf := []byte{0x00 | (1 << 4), 9, 1, 2, 3} // choice=InitiatingMessage, criticality=Ignore, procCode=9
	d := NewS1AP()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	pdu, ok := S1APFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, InitiatingMessage, pdu.Choice)
	assert.Equal(t, CriticalityIgnore, pdu.Criticality)
	assert.EqualValues(t, 9, pdu.ProcedureCode)
	assert.Equal(t, []byte{1, 2, 3}, pdu.Body)
}

func TestNGAPSuccessfulOutcome(t *testing.T) {
	buf := []byte{0x40, 21}
	d := NewNGAP()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	pdu, _ := NGAPFrom(ctx)
	assert.Equal(t, SuccessfulOutcome, pdu.Choice)
}

func TestX2APInvalidChoiceTag(t *testing.T) {
	buf := []byte{0xC0, 1} // choice tag = 3, invalid
	d := NewX2AP()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.InvalidFormat, d.Parse(ctx))
}

func buildH323(msgType uint8, callRef []byte) []byte {
	q931 := []byte{0x08} // protocol discriminator
	q931 = append(q931, byte(len(callRef)))
	q931 = append(q931, callRef...)
	q931 = append(q931, msgType)
	q931 = append(q931, 0xAA, 0xBB) // trailing IEs, opaque

	total := tpktHeaderLen + len(q931)
	buf := []byte{3, 0, byte(total >> 8), byte(total)}
	buf = append(buf, q931...)
	return buf
}

func TestH323MessageType(t *testing.T) {
	buf := buildH323(0x05, []byte{0x12, 0x34}) // SETUP
	d := NewH323()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	msg, ok := H323From(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 3, msg.TPKTVersion)
	assert.EqualValues(t, 0x05, msg.MessageType)
	assert.Equal(t, []byte{0xAA, 0xBB}, msg.Body)
}

func TestH323RejectsWrongTPKTVersion(t *testing.T) {
	buf := buildH323(0x05, nil)
	buf[0] = 4
	d := NewH323()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.UnsupportedVersion, d.Parse(ctx))
}

func TestH323TruncatedYieldsNeedMoreData(t *testing.T) {
	buf := buildH323(0x05, []byte{0x12, 0x34})
	d := NewH323()
	ctx := dissect.NewContext(bytesview.New(buf[:len(buf)-3]))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}
