package arp

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the ARP dissector under its link-layer ethertype (0x0806).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindEtherType, ID: 0x0806}, "arp",
		func() dissect.Dissector { return New() })
}
