package gtpv2c

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

func appendIE(buf []byte, typ uint8, instance uint8, value []byte) []byte {
	length := len(value)
	buf = append(buf, typ, byte(length>>8), byte(length), instance&0x0f)
	buf = append(buf, value...)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func buildHeader(teidPresent bool, msgType uint8, teid uint32, seq uint32, ieLen int) []byte {
	b0 := byte(supportedVersion << 5)
	if teidPresent {
		b0 |= 0x08
	}
	var hdr []byte
	headerRestLen := 4 // sequence(3) + spare(1)
	if teidPresent {
		headerRestLen += 4
	}
	total := headerRestLen + ieLen
	hdr = append(hdr, b0, msgType, byte(total>>8), byte(total))
	if teidPresent {
		hdr = append(hdr, byte(teid>>24), byte(teid>>16), byte(teid>>8), byte(teid))
	}
	hdr = append(hdr, byte(seq>>16), byte(seq>>8), byte(seq), 0)
	return hdr
}

func TestParseWithTEIDAndIMSI(t *testing.T) {
	var ies []byte
	ies = appendIE(ies, ieIMSI, 0, []byte{0x21, 0x43, 0x65, 0x87, 0xf9})

	buf := buildHeader(true, 32, 0x11223344, 7, len(ies))
	buf = append(buf, ies...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	msg, ok := MessageFrom(ctx)
	require.True(t, ok)
	assert.True(t, msg.Header.TEIDPresent)
	assert.EqualValues(t, 0x11223344, msg.Header.TEID)
	assert.EqualValues(t, 7, msg.Header.SequenceNumber)
	require.Len(t, msg.IEs, 1)
	assert.Equal(t, "123456789", msg.IEs[0].Decoded)
}

func TestParseAPN(t *testing.T) {
	apnBytes := append([]byte{byte(len("internet"))}, "internet"...)
	apnBytes = append(apnBytes, byte(len("example")))
	apnBytes = append(apnBytes, "example"...)

	var ies []byte
	ies = appendIE(ies, ieAPN, 0, apnBytes)
	buf := buildHeader(false, 32, 0, 1, len(ies))
	buf = append(buf, ies...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	msg, _ := MessageFrom(ctx)
	assert.Equal(t, "internet.example", msg.IEs[0].Decoded)
}

func TestParseFTEIDWithIPv4(t *testing.T) {
	value := []byte{0x80 | 0x01, 0x00, 0x00, 0x00, 0x2a, 10, 0, 0, 1}
	var ies []byte
	ies = appendIE(ies, ieFTEID, 0, value)
	buf := buildHeader(false, 32, 0, 1, len(ies))
	buf = append(buf, ies...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))
	msg, _ := MessageFrom(ctx)
	f, ok := msg.IEs[0].Decoded.(*FTEID)
	require.True(t, ok)
	assert.EqualValues(t, 0x2a, f.TEID)
	assert.Equal(t, "10.0.0.1", f.IPv4)
}

func TestRejectsUnsupportedVersion(t *testing.T) {
	buf := buildHeader(false, 32, 0, 1, 0)
	buf[0] = 1 << 5
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	assert.Equal(t, dissect.UnsupportedVersion, d.Parse(ctx))
}

func TestParseRecoversFromIEOverrunningBoundary(t *testing.T) {
	var ies []byte
	ies = appendIE(ies, ieCause, 0, []byte{5})
	// Malformed IE: claims a 20-byte value but only 4 bytes remain before
	// the message boundary computed from the header's length field.
	ies = append(ies, ieEBI, 0x00, 20, 0x00)
	ies = append(ies, []byte{0x01, 0x02, 0x03, 0x04}...)

	buf := buildHeader(false, 1, 0, 0, len(ies))
	buf = append(buf, ies...)

	d := New()
	ctx := dissect.NewContext(bytesview.New(buf))
	require.Equal(t, dissect.Success, d.Parse(ctx))

	msg, ok := MessageFrom(ctx)
	require.True(t, ok)
	require.Error(t, msg.ValidationNotes)
	require.Len(t, msg.IEs, 2)
	assert.EqualValues(t, 5, msg.IEs[0].Decoded.(uint8))
}

func TestTruncatedYieldsNeedMoreData(t *testing.T) {
	var ies []byte
	ies = appendIE(ies, ieIMSI, 0, []byte{0x21, 0x43})
	buf := buildHeader(true, 32, 1, 1, len(ies))
	buf = append(buf, ies...)
	d := New()
	ctx := dissect.NewContext(bytesview.New(buf[:len(buf)-2]))
	assert.Equal(t, dissect.NeedMoreData, d.Parse(ctx))
}
