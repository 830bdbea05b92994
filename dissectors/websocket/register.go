package websocket

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the WebSocket dissector under port 80, the common
// unencrypted HTTP-upgrade port. A deployment terminating TLS first (port
// 443) looks the dissector up by name via Registry.Get instead, since
// port-based dispatch only ever sees the plaintext side of that connection.
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPort, ID: 80}, "websocket",
		func() dissect.Dissector { return New() })
}
