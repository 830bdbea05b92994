package radius

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the RADIUS dissector under its well-known authentication
// port (1812).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 1812}, "radius",
		func() dissect.Dissector { return New() })
}
