package telnet

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the Telnet dissector under its well-known port (23/tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 23}, "telnet",
		func() dissect.Dissector { return New() })
}
