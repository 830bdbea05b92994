package mqtt

import (
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/bytesview"
)

// ErrStringOverrun is returned when a 2-byte-prefixed UTF-8 string's
// declared length runs past the end of the window.
var ErrStringOverrun = fmt.Errorf("mqtt: utf-8 string overruns buffer")

// ErrInvalidTopic is returned when a PUBLISH topic name is empty, contains
// a NUL byte, or uses a wildcard token reserved for filters.
var ErrInvalidTopic = fmt.Errorf("mqtt: invalid topic name")

// ErrInvalidFilter is returned when a SUBSCRIBE/UNSUBSCRIBE topic filter is
// empty or contains a NUL byte.
var ErrInvalidFilter = fmt.Errorf("mqtt: invalid topic filter")

// validateTopic checks a PUBLISH topic name: non-empty, no NUL byte, and
// no use of the `+`/`#` wildcard tokens, which are only legal in filters.
// The 2-byte length prefix that produced name already bounds it to 65535
// bytes.
func validateTopic(name string) error {
	if name == "" {
		return ErrInvalidTopic
	}
	if strings.IndexByte(name, 0) >= 0 {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(name, "+#") {
		return ErrInvalidTopic
	}
	return nil
}

// validateFilter checks a SUBSCRIBE/UNSUBSCRIBE topic filter: non-empty
// and no NUL byte. Unlike topic names, `+` and `#` wildcards are legal.
func validateFilter(filter string) error {
	if filter == "" {
		return ErrInvalidFilter
	}
	if strings.IndexByte(filter, 0) >= 0 {
		return ErrInvalidFilter
	}
	return nil
}

// readString reads an MQTT "UTF-8 Encoded String": a 2-byte big-endian
// length prefix followed by that many bytes, unlike SSH's 4-byte prefix.
func readString(w bytesview.Window, offset int) (value string, consumed int, err error) {
	n, err := w.ReadU16(offset)
	if err != nil {
		return "", 0, err
	}
	if n == 0 {
		return "", 2, nil
	}
	sub, err := w.Sub(offset+2, int(n))
	if err != nil {
		return "", 0, ErrStringOverrun
	}
	return string(sub.Bytes()), 2 + int(n), nil
}

// readBinary reads an MQTT "Binary Data" field: a 2-byte length prefix
// followed by that many opaque bytes.
func readBinary(w bytesview.Window, offset int) (value []byte, consumed int, err error) {
	n, err := w.ReadU16(offset)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 2, nil
	}
	sub, err := w.Sub(offset+2, int(n))
	if err != nil {
		return nil, 0, ErrStringOverrun
	}
	return sub.Bytes(), 2 + int(n), nil
}
