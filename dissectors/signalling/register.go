package signalling

import (
	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/registry"
)

// Register adds the structural S1AP/NGAP/X2AP dissectors under their IANA
// SCTP payload protocol identifiers, and H.323 under its well-known TPKT
// port (1720/tcp).
func Register(r *registry.Registry) {
	r.Register(registry.Key{Kind: registry.KindPPID, ID: 18}, "s1ap",
		func() dissect.Dissector { return NewS1AP() })
	r.Register(registry.Key{Kind: registry.KindPPID, ID: 60}, "ngap",
		func() dissect.Dissector { return NewNGAP() })
	r.Register(registry.Key{Kind: registry.KindPPID, ID: 27}, "x2ap",
		func() dissect.Dissector { return NewX2AP() })
	r.Register(registry.Key{Kind: registry.KindPort, ID: 1720}, "h323",
		func() dissect.Dissector { return NewH323() })
}
