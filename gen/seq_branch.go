package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

var branchForms = []isa.Form{"beq", "bne", "blt", "bge", "bltu", "bgeu"}

// branchOffsetRange bounds the forward displacement RelativeBranching
// draws: 2 KiB, well inside the ±4 KiB that RV32I's B-type immediate
// (a signed 13-bit byte offset, bit 0 implicitly 0) can encode.
const branchOffsetRange = 1 << 11

// RelativeBranching emits Count branches whose target the engine will
// reserve as a future code placement, per spec.md §4.5's RelativeBranching
// contract. Targets are always forward, inside the legal displacement
// range, so they land inside the code region once generation continues
// past them.
type RelativeBranching struct {
	Count    int
	InstrAlign uint64

	claim    *resource.Claim
	produced int
}

func (s *RelativeBranching) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, 2)}}
}

func (s *RelativeBranching) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *RelativeBranching) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	s.produced++

	form := rngPick(ctx, branchForms)
	a, b := s.claim.Exclusive[0], s.claim.Exclusive[1]

	// A forward offset drawn blind can land on an address AbsoluteBranching's
	// AllocateCode bump pointer already claimed; retry a bounded number of
	// times for one the store still reports free before settling.
	var target isa.Address
	for tries := 0; tries < 16; tries++ {
		n := uint64(ctx.RNG.Int63n(int64(branchOffsetRange/int(s.alignOr4())))) + 1
		offset := n * s.alignOr4()
		candidate := ctx.Exec.PC().Add(offset)
		if ctx.Mem.FreeCodeAddress(candidate) {
			target = candidate
			break
		}
		target = candidate
	}

	return Instr(form, []isa.Operand{isa.GPR(a.ID), isa.GPR(b.ID), isa.Branch(target)}), Produced
}

func (s *RelativeBranching) alignOr4() uint64 {
	if s.InstrAlign == 0 {
		return 4
	}
	return s.InstrAlign
}

// AbsoluteBranching loads an allocated code address into a claim-owned GPR
// and JALRs to it -- spec.md §4.5's AbsoluteBranching contract. The target
// is reserved via Memory.Store.ReserveCode (through the engine's Reserve
// item) before the JALR is emitted so the placement invariant holds even
// though the JALR's encoding carries no target bits of its own.
type AbsoluteBranching struct {
	Count      int
	InstrAlign uint64

	claim    *resource.Claim
	produced int
	state    int
	target   isa.Address
}

func (s *AbsoluteBranching) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, 1)}}
}

func (s *AbsoluteBranching) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *AbsoluteBranching) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	reg := s.claim.Exclusive[0]

	switch s.state {
	case 0:
		align := s.InstrAlign
		if align == 0 {
			align = 4
		}
		addr, err := ctx.Mem.AllocateCode(align, align)
		if err != nil {
			s.produced = s.Count
			return GenData{}, Exhausted
		}
		s.target = addr
		s.state = 1
		return Reserve(addr), Produced
	case 1, 2:
		m := materialize(reg.ID, uint32(s.target))
		idx := s.state - 1
		s.state++
		return m[idx], Produced
	default:
		s.produced++
		s.state = 0
		return Instr("jalr", []isa.Operand{isa.GPR(0), isa.GPR(reg.ID), isa.Jump(s.target)}), Produced
	}
}
