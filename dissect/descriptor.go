package dissect

// Descriptor is the static, per-dissector protocol metadata: display name,
// the numeric identifier dissectors are registered under (a transport port
// for application protocols, an ethertype for link-layer ones, an SCTP PPID
// for signalling ones), and the message-size envelope a valid instance of
// the protocol must fall within.
type Descriptor struct {
	Name         string
	ID           uint32
	MinHeaderLen int
	MinMsgLen    int
	MaxMsgLen    int // 0 means unbounded
}
