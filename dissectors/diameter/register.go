package diameter

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the Diameter dissector under its well-known port (3868).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 3868}, "diameter",
		func() dissect.Dissector { return New() })
}
