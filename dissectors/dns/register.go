package dns

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the DNS dissector under its well-known port (53/udp+tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 53}, "dns",
		func() dissect.Dissector { return New() })
}
