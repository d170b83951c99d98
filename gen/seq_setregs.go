package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// ValuePattern selects how SetGPRs/SetFPRs choose each register's value.
type ValuePattern int

const (
	ValueRandom ValuePattern = iota
	ValueZero
	ValueSentinel
)

var sentinelPatterns = []uint32{0x00000000, 0xffffffff, 0xdeadbeef, 0x55555555, 0xaaaaaaaa, 0x80000000, 0x7fffffff}

func pickValue(ctx *Context, pattern ValuePattern) uint32 {
	switch pattern {
	case ValueZero:
		return 0
	case ValueSentinel:
		return rngPick(ctx, sentinelPatterns)
	default:
		return ctx.RNG.Uint32()
	}
}

// SetGPRs issues LUI+ADDI pairs so every GPR in its claim ends up holding a
// chosen value -- spec.md §4.5's SetGPRs contract.
type SetGPRs struct {
	NumGPRs int
	Pattern ValuePattern

	claim *resource.Claim
	idx   int
	half  int
	value uint32
}

func (s *SetGPRs) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, s.NumGPRs)}}
}

func (s *SetGPRs) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *SetGPRs) Next(ctx *Context) (GenData, Status) {
	if s.idx >= len(s.claim.Exclusive) {
		return GenData{}, Exhausted
	}
	r := s.claim.Exclusive[s.idx]
	if s.half == 0 {
		s.value = pickValue(ctx, s.Pattern)
	}
	m := materialize(r.ID, s.value)
	item := m[s.half]
	s.half++
	if s.half == 2 {
		s.half = 0
		s.idx++
	}
	return item, Produced
}

// SetFPRs issues GPR materialize + FMV.W.X pairs so every FPR in its claim
// ends up holding a chosen bit pattern -- spec.md §4.5's SetFPRs contract.
// It borrows a scratch GPR from the same claim to stage the value before
// the bit-move, since RV32I/F has no immediate-load directly into an FPR.
type SetFPRs struct {
	NumFPRs int
	Pattern ValuePattern

	claim *resource.Claim
	idx   int
	step  int
	value uint32
}

func (s *SetFPRs) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{
		resource.AnyOf(resource.FPR, s.NumFPRs),
		resource.AnyOf(resource.GPR, 1),
	}}
}

func (s *SetFPRs) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *SetFPRs) fprs() []resource.Resource {
	var out []resource.Resource
	for _, r := range s.claim.Exclusive {
		if r.Namespace == resource.FPR {
			out = append(out, r)
		}
	}
	return out
}

func (s *SetFPRs) scratch() resource.Resource {
	for _, r := range s.claim.Exclusive {
		if r.Namespace == resource.GPR {
			return r
		}
	}
	return resource.Resource{}
}

func (s *SetFPRs) Next(ctx *Context) (GenData, Status) {
	fprs := s.fprs()
	if s.idx >= len(fprs) {
		return GenData{}, Exhausted
	}
	scratch := s.scratch()
	fpr := fprs[s.idx]

	switch s.step {
	case 0:
		s.value = pickValue(ctx, s.Pattern)
		m := materialize(scratch.ID, s.value)
		s.step = 2
		return m[0], Produced
	case 2:
		s.step = 3
		m := materialize(scratch.ID, s.value)
		return m[1], Produced
	default:
		s.step = 0
		s.idx++
		return Instr("fmv.w.x", []isa.Operand{isa.FPR(fpr.ID), isa.GPR(scratch.ID)}), Produced
	}
}
