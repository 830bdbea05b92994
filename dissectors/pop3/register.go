package pop3

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the POP3 dissector under its well-known port (110/tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 110}, "pop3",
		func() dissect.Dissector { return New() })
}
