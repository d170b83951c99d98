package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// DefaultProgramStart is the boot-time prologue of spec.md §4.5: it writes
// the trap handler address into the catalog's trap-vector CSR, materializes
// the exit address into a scratch GPR that stays exclusively reserved for
// the whole run (so no body sequence can clobber it before the epilogue
// reads it back), and initializes the stack pointer.
type DefaultProgramStart struct {
	Scratch     resource.Resource
	SP          resource.Resource
	TrapHandler isa.Address
	TrapVecCSR  resource.Resource
	ExitAddr    isa.Address
	StackTop    isa.Address

	claim *resource.Claim
	step  int
}

func (s *DefaultProgramStart) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.Named(s.Scratch), resource.Named(s.SP)}}
}

func (s *DefaultProgramStart) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *DefaultProgramStart) Next(ctx *Context) (GenData, Status) {
	switch s.step {
	case 0, 1:
		m := materialize(s.Scratch.ID, uint32(s.TrapHandler))
		s.step++
		return m[s.step-1], Produced
	case 2:
		s.step++
		return Instr("csrrw", []isa.Operand{isa.GPR(0), isa.CSR(s.TrapVecCSR.ID), isa.GPR(s.Scratch.ID)}), Produced
	case 3, 4:
		m := materialize(s.Scratch.ID, uint32(s.ExitAddr))
		s.step++
		return m[s.step-4], Produced
	case 5, 6:
		m := materialize(s.SP.ID, uint32(s.StackTop))
		s.step++
		return m[s.step-6], Produced
	default:
		return GenData{}, Exhausted
	}
}

// DefaultProgramEnd is the exit-region epilogue of spec.md §4.5: it
// re-materializes the exit address into the scratch GPR (rather than
// trusting that no body sequence touched it), indirect-jumps to it, and
// leaves a branch-to-self in place so a testbench can detect termination
// by PC alone even if it never traps the jalr.
type DefaultProgramEnd struct {
	Scratch  resource.Resource
	ExitAddr isa.Address

	claim *resource.Claim
	step  int
}

func (s *DefaultProgramEnd) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.Named(s.Scratch)}}
}

func (s *DefaultProgramEnd) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *DefaultProgramEnd) Next(ctx *Context) (GenData, Status) {
	switch s.step {
	case 0, 1:
		m := materialize(s.Scratch.ID, uint32(s.ExitAddr))
		s.step++
		return m[s.step-1], Produced
	case 2:
		s.step++
		return Instr("jalr", []isa.Operand{isa.GPR(0), isa.GPR(s.Scratch.ID), isa.Jump(s.ExitAddr)}), Produced
	case 3:
		s.step++
		self := ctx.Exec.PC()
		return Instr("beq", []isa.Operand{isa.GPR(0), isa.GPR(0), isa.Branch(self)}), Produced
	default:
		return GenData{}, Exhausted
	}
}

// DefaultRelocate emits an unconditional jump to a freshly allocated code
// region when the current one is full (spec.md §4.7). The jump's target is
// allocated eagerly on the sequence's first Next so the engine can place
// the jal before asking the relocated region for anything else.
type DefaultRelocate struct {
	InstrAlign uint64

	claim  *resource.Claim
	target isa.Address
	done   bool
}

func (s *DefaultRelocate) ResourceRequests() resource.ClaimSpec { return resource.ClaimSpec{} }
func (s *DefaultRelocate) SetClaim(claim *resource.Claim)       { s.claim = claim }

func (s *DefaultRelocate) Next(ctx *Context) (GenData, Status) {
	if s.done {
		return GenData{}, Exhausted
	}
	s.done = true
	target, err := ctx.Mem.AllocateRelocateCode(s.InstrAlign, s.InstrAlign)
	if err != nil {
		return GenData{}, Exhausted
	}
	s.target = target
	return Instr("jal", []isa.Operand{isa.GPR(0), isa.Jump(target)}), Produced
}
