package dissect

import "errors"

// Sentinel errors for the ambient (non-dissector) machinery: registry
// lookups, config loading, adapter wiring. Dissectors themselves never
// return an error type — they return a Result — but the code around them
// follows the same wrapped-sentinel idiom.
var (
	ErrUnknownProtocol = errors.New("dissect: unknown protocol identifier")
	ErrNotRegistered   = errors.New("dissect: dissector not registered")
	ErrConfigInvalid   = errors.New("dissect: invalid configuration")
	ErrNoCandidate     = errors.New("dissect: no dissector claimed the window")
)
