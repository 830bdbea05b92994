package arp

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// BuildRequest serializes a well-formed ARP request (spec §4.6, and the
// round-trip property in spec.md §8: parse(build_arp_request(a,b,c)) must
// recover opcode=Request and the three addresses). senderMAC/senderIPv4
// identify the requester; targetIPv4 is who it's asking about (the target
// MAC is unknown, conventionally zero, in a request).
func BuildRequest(senderMAC [6]byte, senderIPv4, targetIPv4 [4]byte) ([]byte, error) {
	return build(layers.ARPRequest, senderMAC, senderIPv4, [6]byte{}, targetIPv4)
}

// BuildReply serializes a well-formed ARP reply.
func BuildReply(senderMAC [6]byte, senderIPv4 [4]byte, targetMAC [6]byte, targetIPv4 [4]byte) ([]byte, error) {
	return build(layers.ARPReply, senderMAC, senderIPv4, targetMAC, targetIPv4)
}

func build(op uint16, senderMAC [6]byte, senderIPv4 [4]byte, targetMAC [6]byte, targetIPv4 [4]byte) ([]byte, error) {
	l := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         op,
		SourceHwAddress:   senderMAC[:],
		SourceProtAddress: senderIPv4[:],
		DstHwAddress:      targetMAC[:],
		DstProtAddress:    targetIPv4[:],
	}

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, l); err != nil {
		return nil, fmt.Errorf("arp: build failed: %w", err)
	}
	return buf.Bytes(), nil
}
