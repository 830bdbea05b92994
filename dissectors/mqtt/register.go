package mqtt

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the MQTT dissector under its well-known port (1883/tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 1883}, "mqtt",
		func() dissect.Dissector { return New() })
}
