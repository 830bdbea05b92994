package bytesview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowReads(t *testing.T) {
	w := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09})

	u8, err := w.ReadU8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := w.ReadU16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u24, err := w.ReadU24(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x010203), u24)

	u32, err := w.ReadU32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), u32)

	u64, err := w.ReadU64(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)
}

func TestWindowBoundsChecked(t *testing.T) {
	w := New([]byte{0x01, 0x02})

	_, err := w.ReadU32(0)
	assert.ErrorIs(t, err, ErrShort)

	_, err = w.At(2)
	assert.ErrorIs(t, err, ErrShort)

	_, err = w.Sub(1, 5)
	assert.ErrorIs(t, err, ErrShort)
}

func TestWindowSubAndTail(t *testing.T) {
	w := New([]byte{0, 1, 2, 3, 4, 5})

	sub, err := w.Sub(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, sub.Bytes())

	tail, err := w.Tail(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, tail.Bytes())

	// sub-window of a sub-window stays bounds-checked against the narrower view.
	_, err = sub.Sub(0, 4)
	assert.ErrorIs(t, err, ErrShort)
}

func TestWindowNoImplicitCopy(t *testing.T) {
	data := []byte{9, 9, 9}
	w := New(data)
	data[0] = 1
	assert.Equal(t, byte(1), w.Bytes()[0], "Window must observe mutations through the owned buffer, never copy")
}
