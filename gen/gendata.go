// Package gen implements the Sequences and Funnels of spec.md §4.5/§4.6:
// lazy, stateful producers of GenData items, and the composition policies
// (SimpleFunnel, RoundRobinFunnel) that interleave them into the single
// stream the engine consumes.
//
// Grounded on cpu/assembler.go's parseWords one-mnemonic-per-case dispatch,
// generalized to one Go type per sequence kind (spec.md §9's "dynamic
// dispatch over sequence types ... tagged variant" note), and on
// emulator.Emulator.Defines's aggregation pattern, reused here by
// RoundRobinFunnel to fan its children's items together.
package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
)

// Kind tags the variant carried by a GenData.
type Kind int

const (
	KindInstr Kind = iota
	KindDataBlob
	KindReserve
)

// GenData is one item yielded by a Sequence: an instruction to place at the
// current pc, a data blob to place in a data region, or a request that the
// engine pre-reserve a future code address.
type GenData struct {
	Kind Kind

	// KindInstr
	Form     isa.Form
	Operands []isa.Operand

	// KindDataBlob. Addr is pre-allocated by the producing sequence via its
	// memory.Store handle (spec.md §9's back-channel design note), so the
	// engine's job reduces to writing Bytes at Addr rather than choosing it.
	Addr    isa.Address
	Bytes   []byte
	Purpose string

	// KindReserve
	Target isa.Address
}

// Instr builds a KindInstr item.
func Instr(form isa.Form, operands []isa.Operand) GenData {
	return GenData{Kind: KindInstr, Form: form, Operands: operands}
}

// DataBlob builds a KindDataBlob item for bytes already allocated at addr.
func DataBlob(addr isa.Address, bytes []byte, purpose string) GenData {
	return GenData{Kind: KindDataBlob, Addr: addr, Bytes: bytes, Purpose: purpose}
}

// Reserve builds a KindReserve item asking the engine to pre-reserve target.
func Reserve(target isa.Address) GenData {
	return GenData{Kind: KindReserve, Target: target}
}
