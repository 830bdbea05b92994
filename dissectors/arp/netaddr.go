package arp

import (
	"fmt"
	"net"
)

// FormatMAC renders a 6-byte MAC address as colon-separated lowercase hex,
// grounded on original_source's network_utils MAC formatting helper.
func FormatMAC(mac [6]byte) string {
	return net.HardwareAddr(mac[:]).String()
}

// ParseMAC parses a colon- or dash-separated MAC address string.
func ParseMAC(s string) ([6]byte, error) {
	var out [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return out, fmt.Errorf("arp: invalid mac %q: %w", s, err)
	}
	if len(hw) != 6 {
		return out, fmt.Errorf("arp: mac %q is not 6 bytes", s)
	}
	copy(out[:], hw)
	return out, nil
}

// FormatIPv4 renders a 4-byte address in dotted-quad form.
func FormatIPv4(ip [4]byte) string {
	return net.IP(ip[:]).String()
}

// ParseIPv4 parses a dotted-quad IPv4 address string.
func ParseIPv4(s string) ([4]byte, error) {
	var out [4]byte
	ip := net.ParseIP(s)
	if ip == nil {
		return out, fmt.Errorf("arp: invalid ipv4 %q", s)
	}
	v4 := ip.To4()
	if v4 == nil {
		return out, fmt.Errorf("arp: %q is not an ipv4 address", s)
	}
	copy(out[:], v4)
	return out, nil
}

// IsBroadcastMAC reports whether mac is the all-ones broadcast address.
func IsBroadcastMAC(mac [6]byte) bool {
	for _, b := range mac {
		if b != 0xff {
			return false
		}
	}
	return true
}

// IsZeroMAC reports whether mac is the all-zeros address.
func IsZeroMAC(mac [6]byte) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsZeroIPv4 reports whether ip is 0.0.0.0.
func IsZeroIPv4(ip [4]byte) bool {
	return ip == [4]byte{}
}
