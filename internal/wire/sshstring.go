package wire

import (
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/bytesview"
)

// ErrStringOverrun is returned when an SSH length-prefixed string's declared
// length runs past the end of the surrounding window.
var ErrStringOverrun = fmt.Errorf("wire: ssh string length overruns buffer")

// ReadSSHString reads a 32-bit-length-prefixed opaque string per RFC 4251
// §5. Returns the string bytes and the total bytes consumed (4 + length).
func ReadSSHString(w bytesview.Window, offset int) (value []byte, consumed int, err error) {
	n, err := w.ReadU32(offset)
	if err != nil {
		return nil, 0, err
	}
	body, err := w.Sub(offset+4, int(n))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: declared %d bytes", ErrStringOverrun, n)
	}
	return body.Bytes(), 4 + int(n), nil
}

// ReadSSHNameList reads a length-prefixed comma-separated ASCII name-list
// per RFC 4251 §5. Empty elements between commas are skipped.
func ReadSSHNameList(w bytesview.Window, offset int) (names []string, consumed int, err error) {
	raw, consumed, err := ReadSSHString(w, offset)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) == 0 {
		return nil, consumed, nil
	}
	for _, part := range strings.Split(string(raw), ",") {
		if part != "" {
			names = append(names, part)
		}
	}
	return names, consumed, nil
}
