package m3ua

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the M3UA dissector under its IANA SCTP payload protocol
// identifier (3).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPPID, ID: 3}, "m3ua",
		func() dissect.Dissector { return New() })
}
