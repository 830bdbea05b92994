package dissect

import (
	uuid "github.com/satori/go.uuid"

	"firestige.xyz/dissect/internal/bytesview"
)

// Stage is a Context's position in the Initial -> Parsing -> Complete/Error
// lifecycle (spec §4.4). Stage transitions are explicit and, except for
// NeedMoreData (which leaves Stage unchanged so the caller can resume),
// monotonic.
type Stage uint8

const (
	StageInitial Stage = iota
	StageParsing
	StageComplete
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "Initial"
	case StageParsing:
		return "Parsing"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Context carries one dissection from the adapter, through a Dissector's
// Parse, back to the adapter. It is created by the adapter, mutated by
// Parse, and drained by the adapter; the core never retains it past return.
type Context struct {
	Window bytesview.Window
	Cursor int
	Stage  Stage

	// Meta holds the typed per-protocol output record, deposited under a
	// well-known string key (e.g. "dns_message", "mqtt_packet") once Parse
	// has fully populated it. Dissector packages also expose a typed
	// accessor (e.g. dns.MessageFrom(ctx)) so callers never need to know
	// the key or do the type assertion themselves.
	Meta map[string]any

	id uuid.UUID
}

// NewContext creates a fresh Context over window, in StageInitial.
func NewContext(window bytesview.Window) *Context {
	id, err := uuid.NewV4()
	if err != nil {
		// satori/go.uuid only fails to read crypto/rand, which we treat as
		// an environment fault, not a reason to hand back an unusable nil
		// id; fall back to the documented-zero UUID rather than panic.
		id = uuid.UUID{}
	}
	return &Context{
		Window: window,
		Stage:  StageInitial,
		Meta:   make(map[string]any),
		id:     id,
	}
}

// ID returns the Context's correlation id, stable for its whole lifetime.
// Adapters that log or export dissection outcomes use this to tie related
// log lines together; the core never reads it.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Remaining returns the sub-window starting at the current cursor.
func (c *Context) Remaining() (bytesview.Window, error) {
	return c.Window.Tail(c.Cursor)
}

// Advance moves the cursor forward by n bytes.
func (c *Context) Advance(n int) {
	c.Cursor += n
}

// Fail transitions the Context to StageError. Callers should do this
// whenever a dissector's Parse is about to return InvalidFormat,
// UnsupportedVersion, or InternalError.
func (c *Context) Fail() {
	c.Stage = StageError
}

// Finish transitions the Context to StageComplete.
func (c *Context) Finish() {
	c.Stage = StageComplete
}

// Put deposits a typed per-protocol record under key.
func (c *Context) Put(key string, value any) {
	c.Meta[key] = value
}

// Get retrieves a previously deposited record.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Meta[key]
	return v, ok
}
