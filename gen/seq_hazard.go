package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// Hazards emits Count adjacent (writer, reader) pairs where the reader's
// source GPR equals the writer's destination GPR, per spec.md §4.5's
// Hazards contract and spec.md §8 scenario 4.
type Hazards struct {
	Count int
	NumGPRs int

	claim    *resource.Claim
	produced int
	pending  []GenData
}

func (s *Hazards) ResourceRequests() resource.ClaimSpec {
	n := s.NumGPRs
	if n < 2 {
		n = 2
	}
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, n)}}
}

func (s *Hazards) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *Hazards) Next(ctx *Context) (GenData, Status) {
	if len(s.pending) > 0 {
		item := s.pending[0]
		s.pending = s.pending[1:]
		return item, Produced
	}
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	s.produced++

	gprs := s.claim.Exclusive
	writerDst := rngPickResource(ctx, gprs)
	writerSrc := rngPickResource(ctx, gprs)
	readerDst := rngPickResource(ctx, gprs)

	var writer GenData
	if ctx.RNG.Bool() {
		writer = Instr("addi", []isa.Operand{isa.GPR(writerDst.ID), isa.GPR(writerSrc.ID), isa.Imm(ctx.RNG.Int63n(1 << 11))})
	} else {
		writer = Instr("add", []isa.Operand{isa.GPR(writerDst.ID), isa.GPR(writerSrc.ID), isa.GPR(writerSrc.ID)})
	}
	reader := Instr("addi", []isa.Operand{isa.GPR(readerDst.ID), isa.GPR(writerDst.ID), isa.Imm(0)})

	s.pending = []GenData{reader}
	return writer, Produced
}
