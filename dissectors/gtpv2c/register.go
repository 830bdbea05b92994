package gtpv2c

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the GTPv2-C dissector under its well-known port (2123),
// the GTPv2 control-plane port.
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 2123}, "gtpv2c",
		func() dissect.Dissector { return New() })
}
