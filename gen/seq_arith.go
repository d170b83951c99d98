package gen

import (
	"github.com/tibbar-gen/tibbar/gen/rng"
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// safeForms lists every base-ISA form that is neither a load, a store, a
// branch, a jump, a CSR op, nor privileged -- spec.md §4.5's
// RandomSafeInstrs contract.
var safeForms = []isa.Form{
	"add", "sub", "and", "or", "xor", "slt", "sltu", "sll", "srl", "sra",
	"addi", "andi", "ori", "xori", "slti",
}

// RandomSafeInstrs yields safeForms instructions with operand GPRs drawn
// from its claim's exclusive set, Count times.
type RandomSafeInstrs struct {
	NumGPRs int
	Count   int

	claim    *resource.Claim
	produced int
}

func (s *RandomSafeInstrs) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, s.NumGPRs)}}
}

func (s *RandomSafeInstrs) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *RandomSafeInstrs) gprs() []resource.Resource { return s.claim.Exclusive }

func (s *RandomSafeInstrs) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	s.produced++

	form := rngPick(ctx, safeForms)
	gprs := s.gprs()
	rd := rngPickResource(ctx, gprs)

	switch form {
	case "addi", "andi", "ori", "xori", "slti":
		rs1 := rngPickResource(ctx, gprs)
		return Instr(form, []isa.Operand{isa.GPR(rd.ID), isa.GPR(rs1.ID), isa.Imm(ctx.RNG.Int63n(1 << 11))}), Produced
	default:
		rs1 := rngPickResource(ctx, gprs)
		rs2 := rngPickResource(ctx, gprs)
		return Instr(form, []isa.Operand{isa.GPR(rd.ID), isa.GPR(rs1.ID), isa.GPR(rs2.ID)}), Produced
	}
}

func rngPick[T any](ctx *Context, items []T) T {
	return rng.Pick(ctx.RNG, items)
}

func rngPickResource(ctx *Context, items []resource.Resource) resource.Resource {
	return rng.Pick(ctx.RNG, items)
}
