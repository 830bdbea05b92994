// Package bytesview implements a non-owning, bounds-checked view over a
// contiguous byte range, used by every dissector instead of raw slicing.
package bytesview

import (
	"encoding/binary"
	"fmt"
)

// Window is a half-open range over a byte sequence owned elsewhere. It never
// copies or allocates; its lifetime is bound to the caller's buffer.
type Window struct {
	data   []byte
	offset int
	length int
}

// New wraps data as a Window covering its full extent.
func New(data []byte) Window {
	return Window{data: data, offset: 0, length: len(data)}
}

// Len returns the number of bytes visible through this window.
func (w Window) Len() int {
	return w.length
}

// Bytes returns the window's bytes without copying. Callers must not mutate
// the result.
func (w Window) Bytes() []byte {
	return w.data[w.offset : w.offset+w.length]
}

// ErrShort is wrapped into every out-of-range read or sub-window request.
var ErrShort = fmt.Errorf("bytesview: short buffer")

// At returns the single byte at offset.
func (w Window) At(offset int) (byte, error) {
	if offset < 0 || offset >= w.length {
		return 0, fmt.Errorf("%w: byte at %d, have %d", ErrShort, offset, w.length)
	}
	return w.data[w.offset+offset], nil
}

// ReadU8 reads one byte at offset.
func (w Window) ReadU8(offset int) (uint8, error) {
	return w.At(offset)
}

// ReadU16 reads a big-endian uint16 at offset.
func (w Window) ReadU16(offset int) (uint16, error) {
	if offset < 0 || offset+2 > w.length {
		return 0, fmt.Errorf("%w: u16 at %d, have %d", ErrShort, offset, w.length)
	}
	return binary.BigEndian.Uint16(w.data[w.offset+offset : w.offset+offset+2]), nil
}

// ReadU24 reads a big-endian 24-bit unsigned integer at offset, returned
// widened to uint32. Several signalling protocols (Diameter length/code,
// GTPv2-C IE length) use 24-bit fields.
func (w Window) ReadU24(offset int) (uint32, error) {
	if offset < 0 || offset+3 > w.length {
		return 0, fmt.Errorf("%w: u24 at %d, have %d", ErrShort, offset, w.length)
	}
	b := w.data[w.offset+offset : w.offset+offset+3]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// ReadU32 reads a big-endian uint32 at offset.
func (w Window) ReadU32(offset int) (uint32, error) {
	if offset < 0 || offset+4 > w.length {
		return 0, fmt.Errorf("%w: u32 at %d, have %d", ErrShort, offset, w.length)
	}
	return binary.BigEndian.Uint32(w.data[w.offset+offset : w.offset+offset+4]), nil
}

// ReadU64 reads a big-endian uint64 at offset.
func (w Window) ReadU64(offset int) (uint64, error) {
	if offset < 0 || offset+8 > w.length {
		return 0, fmt.Errorf("%w: u64 at %d, have %d", ErrShort, offset, w.length)
	}
	return binary.BigEndian.Uint64(w.data[w.offset+offset : w.offset+offset+8]), nil
}

// Sub returns the sub-window [offset, offset+length).
func (w Window) Sub(offset, length int) (Window, error) {
	if offset < 0 || length < 0 || offset+length > w.length {
		return Window{}, fmt.Errorf("%w: sub(%d,%d), have %d", ErrShort, offset, length, w.length)
	}
	return Window{data: w.data, offset: w.offset + offset, length: length}, nil
}

// Tail returns the window from offset to the end.
func (w Window) Tail(offset int) (Window, error) {
	if offset < 0 || offset > w.length {
		return Window{}, fmt.Errorf("%w: tail(%d), have %d", ErrShort, offset, w.length)
	}
	return Window{data: w.data, offset: w.offset + offset, length: w.length - offset}, nil
}
