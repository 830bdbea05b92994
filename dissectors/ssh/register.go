package ssh

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the SSH dissector under its well-known port (22/tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 22}, "ssh",
		func() dissect.Dissector { return New() })
}
