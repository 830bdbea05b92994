// Package adapter holds the external collaborators spec.md §1 calls out as
// out of scope for the core library: live capture, flow sharding across
// worker threads, and telemetry export. Each is documented at its interface
// and given a thin, real implementation grounded on the teacher's
// otus-packet capture package and skywalkingtracing reporter, scaled down
// to what this module's scope actually needs.
package adapter

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/dissect/internal/bytesview"
)

// Hints carries the transport/link metadata the registry needs to pick a
// Kind+ID to look dissectors up by (spec §2: "an adapter produces a byte
// window and a hint"). Not every field is populated for every source: an
// offline pcap source has ports only once its own caller demultiplexes
// Ethernet/IP/TCP layers, which this package does not do for them.
type Hints struct {
	EtherType  uint16
	SrcPort    uint16
	DstPort    uint16
	LinkType   layers.LinkType
	CaptureLen int
}

// Source produces successive (Window, Hints) pairs for the registry to
// dispatch. Next returns io.EOF-wrapped errors (via the underlying reader)
// once exhausted.
type Source interface {
	Next() (bytesview.Window, Hints, error)
	Close() error
}

// OfflineSource reads packets from a previously captured pcap file via
// gopacket/pcapgo — a pure-Go reader needing no libpcap/cgo, the idiomatic
// stand-in in this corpus for the teacher's live AF_PACKET handle
// (pkg/capture/afpacket.go) when no real interface is available. Live
// capture proper is explicitly out of scope (spec §1); this is the "thin
// demo implementation" SPEC_FULL.md §2 calls for.
type OfflineSource struct {
	reader *pcapgo.Reader
	closer func() error
}

// NewOfflineSource wraps an already-open pcap file reader. The caller owns
// closing the underlying file; closeFn, if non-nil, is invoked by Close.
func NewOfflineSource(reader *pcapgo.Reader, closeFn func() error) *OfflineSource {
	return &OfflineSource{reader: reader, closer: closeFn}
}

// Next reads one packet and wraps it in a zero-copy Window. The returned
// Window borrows the slice pcapgo handed back; it is only valid until the
// next call to Next.
func (s *OfflineSource) Next() (bytesview.Window, Hints, error) {
	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		return bytesview.Window{}, Hints{}, fmt.Errorf("adapter: read packet: %w", err)
	}

	hints := Hints{LinkType: s.reader.LinkType(), CaptureLen: ci.CaptureLength}
	if s.reader.LinkType() == layers.LinkTypeEthernet && len(data) >= 14 {
		hints.EtherType = uint16(data[12])<<8 | uint16(data[13])
	}
	return bytesview.New(data), hints, nil
}

func (s *OfflineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// packetSource is satisfied by *gopacket.PacketSource, documented here so a
// live capture adapter (built against gopacket/pcap or gopacket/afpacket,
// both requiring cgo/libpcap and a real interface — deliberately not
// implemented in this module) can be dropped in without changing Source's
// contract.
type packetSource interface {
	NextPacket() (gopacket.Packet, error)
}

var _ packetSource = (*gopacket.PacketSource)(nil)
