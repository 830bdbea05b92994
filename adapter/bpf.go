package adapter

import (
	"fmt"
	"net"

	"golang.org/x/net/bpf"
)

// Ethernet-frame byte offsets the filters below reference.
const (
	etherTypeOffset = 12
	ipv4SrcOffset   = 26
	ipv4DstOffset   = 30
	etherTypeIPv4   = 0x0800
	etherTypeIPv6   = 0x86DD
)

// CompileIPv4Filter returns a classic-BPF program that accepts only IPv4
// Ethernet frames. Grounded on otus-packet/internal/utils/bpf.go's
// compileIPv4Filter, re-expressed with golang.org/x/net/bpf's assembler
// instead of hand-encoding the opcode bytes.
func CompileIPv4Filter() ([]bpf.RawInstruction, error) {
	return bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeIPv4, SkipFalse: 1},
		bpf.RetConstant{Val: 65535},
		bpf.RetConstant{Val: 0},
	})
}

// CompileIPv6Filter mirrors CompileIPv4Filter for IPv6 Ethernet frames.
func CompileIPv6Filter() ([]bpf.RawInstruction, error) {
	return bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeIPv6, SkipFalse: 1},
		bpf.RetConstant{Val: 65535},
		bpf.RetConstant{Val: 0},
	})
}

// CompileHostIPv4Filter returns a filter that accepts IPv4 frames whose
// source or destination address matches ip. Grounded on
// otus-packet/internal/utils/bpf.go's compileHostIPv4Filter.
func CompileHostIPv4Filter(ip net.IP) ([]bpf.RawInstruction, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("adapter: %v is not an IPv4 address", ip)
	}
	addr := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])

	return bpf.Assemble([]bpf.Instruction{
		bpf.LoadAbsolute{Off: etherTypeOffset, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: etherTypeIPv4, SkipTrue: 5},
		bpf.LoadAbsolute{Off: ipv4SrcOffset, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: addr, SkipTrue: 2},
		bpf.LoadAbsolute{Off: ipv4DstOffset, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpNotEqual, Val: addr, SkipTrue: 1},
		bpf.RetConstant{Val: 65535},
		bpf.RetConstant{Val: 0},
	})
}
