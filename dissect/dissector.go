package dissect

import "firestige.xyz/dissect/internal/bytesview"

// Dissector is the capability interface every concrete protocol decoder
// implements (spec §9: "a single capability interface... implemented by
// each concrete dissector as a value type", replacing the source's
// BaseParser inheritance hierarchy).
//
// Parse must be re-entrant across separate Dissector instances, but an
// individual instance need not be safe for concurrent use — callers that
// need concurrency give each worker its own instance (see adapter.Sharder).
type Dissector interface {
	// Descriptor returns this dissector's static protocol metadata.
	Descriptor() Descriptor

	// Probe is a cheap look-before-parse test: does window look like this
	// protocol? Probe(w) == false must imply Parse(ctx-over-w) never
	// returns Success.
	Probe(window bytesview.Window) bool

	// Parse drives dissection of ctx to completion or failure. It may be
	// called iteratively on the same Context after a NeedMoreData result,
	// once the caller has appended more bytes to ctx.Window.
	Parse(ctx *Context) Result

	// Reset clears internal state so the instance can dissect a new,
	// unrelated message.
	Reset()

	// Progress reports how far the current Parse has gotten, in [0, 1],
	// for adapters that render it (progress bars, UIs). It is monotone
	// non-decreasing within one Parse and resets to 0 after Reset.
	Progress() float64
}
