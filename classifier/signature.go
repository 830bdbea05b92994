package classifier

import "bytes"

// SignatureTable classifies by scanning a bounded prefix of the payload for
// known byte patterns. Grounded on protocol_detector.cpp's
// load_basic_signatures/classify_by_patterns: HTTP verb/version strings,
// TLS record-type+version byte pairs, and SSH banner prefixes, each match at
// confidence 0.9 per spec.md §4.15, extended here with the MQTT control-byte
// signature the spec names explicitly.
type SignatureTable struct {
	patterns map[string][][]byte
}

// scanWindow bounds how much of the payload the scan looks at, matching
// the source's std::min(buffer.size(), size_t(256)).
const scanWindow = 256

// NewSignatureTable seeds the default pattern set.
func NewSignatureTable() *SignatureTable {
	return &SignatureTable{patterns: map[string][][]byte{
		"http": {
			[]byte("GET "), []byte("POST "), []byte("PUT "), []byte("DELETE "),
			[]byte("HEAD "), []byte("OPTIONS "),
			[]byte("HTTP/1.0"), []byte("HTTP/1.1"), []byte("HTTP/2"),
		},
		"tls": {
			{0x16, 0x03}, // handshake
			{0x14, 0x03}, // change cipher spec
			{0x15, 0x03}, // alert
			{0x17, 0x03}, // application data
		},
		"ssh": {
			[]byte("SSH-2.0"), []byte("SSH-1.99"), []byte("SSH-1.5"),
		},
		"mqtt": {
			// CONNECT control byte (type 1, flags 0) is the only packet type
			// with a fixed first byte worth signature-matching on its own;
			// every other MQTT type's flags vary per spec.md §4.9.
			{0x10},
		},
	}}
}

// Set registers or overrides a protocol's pattern list.
func (t *SignatureTable) Set(protocol string, patterns [][]byte) {
	t.patterns[protocol] = patterns
}

// Classify returns the first pattern match found, in map-iteration order —
// like the source, this does not guarantee a deterministic tie-break
// between two protocols whose patterns both appear in the scanned prefix.
func (t *SignatureTable) Classify(payload []byte) Candidate {
	window := payload
	if len(window) > scanWindow {
		window = window[:scanWindow]
	}

	for protocol, patterns := range t.patterns {
		for _, pattern := range patterns {
			if bytes.Contains(window, pattern) {
				return Candidate{Protocol: protocol, Confidence: 0.9, Method: "signature"}
			}
		}
	}
	return Candidate{Protocol: "unknown", Confidence: 0.1, Method: "signature"}
}
