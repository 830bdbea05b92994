package wire

import (
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/bytesview"
)

// MaxPointerJumps bounds DNS message-compression pointer chains (spec:
// chains longer than this are a decompression loop, not a valid message).
const MaxPointerJumps = 10

// ErrPointerLoop is returned when a name's compression-pointer chain exceeds
// MaxPointerJumps.
var ErrPointerLoop = fmt.Errorf("wire: dns name compression pointer chain too deep")

// ReadDNSName decodes a DNS domain name starting at offset within msg, the
// full DNS message (pointers are absolute offsets into it). It returns the
// dotted name and the number of bytes consumed from the *original* offset
// (a pointer jump does not add to consumed — the name ends where the first
// pointer, or the terminating zero label, is read).
func ReadDNSName(msg bytesview.Window, offset int) (name string, consumed int, err error) {
	var labels []string
	cursor := offset
	consumedSet := false
	jumps := 0

	for {
		length, rerr := msg.ReadU8(cursor)
		if rerr != nil {
			return "", 0, rerr
		}

		switch {
		case length == 0:
			cursor++
			if !consumedSet {
				consumed = cursor - offset
			}
			return strings.Join(labels, "."), consumed, nil

		case length&0xc0 == 0xc0:
			// Compression pointer: top two bits set, low 14 bits of this
			// and the next byte form an absolute offset into msg.
			lowByte, rerr := msg.ReadU8(cursor + 1)
			if rerr != nil {
				return "", 0, rerr
			}
			if !consumedSet {
				consumed = cursor + 2 - offset
				consumedSet = true
			}
			jumps++
			if jumps > MaxPointerJumps {
				return "", 0, ErrPointerLoop
			}
			cursor = int(length&0x3f)<<8 | int(lowByte)

		case length&0xc0 != 0:
			return "", 0, fmt.Errorf("wire: reserved dns label length bits in 0x%02x", length)

		default:
			label, rerr := msg.Sub(cursor+1, int(length))
			if rerr != nil {
				return "", 0, rerr
			}
			labels = append(labels, string(label.Bytes()))
			cursor += 1 + int(length)
		}
	}
}
