// Package dissectors is the root-level registration point: RegisterAll
// wires every concrete protocol decoder into a Registry so a caller gets a
// fully bootstrapped dispatch table from one call instead of importing each
// protocol package by hand (spec §4.5's "Global registry" design note).
package dissectors

import (
	"firestige.xyz/dissect/dissectors/arp"
	"firestige.xyz/dissect/dissectors/diameter"
	"firestige.xyz/dissect/dissectors/dns"
	"firestige.xyz/dissect/dissectors/gtpv2c"
	"firestige.xyz/dissect/dissectors/m3ua"
	"firestige.xyz/dissect/dissectors/mqtt"
	"firestige.xyz/dissect/dissectors/pop3"
	"firestige.xyz/dissect/dissectors/radius"
	"firestige.xyz/dissect/dissectors/signalling"
	"firestige.xyz/dissect/dissectors/ssh"
	"firestige.xyz/dissect/dissectors/telnet"
	"firestige.xyz/dissect/dissectors/websocket"
	"firestige.xyz/dissect/registry"
)

// RegisterAll registers every protocol decoder in this module against r,
// then marks r bootstrapped. Safe to call once per Registry; a second call
// on the same Registry panics on the first duplicate registration, the same
// as calling any individual package's Register twice.
func RegisterAll(r *registry.Registry) {
	arp.Register(r)
	dns.Register(r)
	ssh.Register(r)
	telnet.Register(r)
	websocket.Register(r)
	mqtt.Register(r)
	pop3.Register(r)
	diameter.Register(r)
	gtpv2c.Register(r)
	radius.Register(r)
	m3ua.Register(r)
	signalling.Register(r)
	r.Bootstrapped()
}
