package gen

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

var loadForms = []isa.Form{"lb", "lh", "lw", "lbu", "lhu"}

func loadSize(form isa.Form) uint64 {
	switch form {
	case "lb", "lbu":
		return 1
	case "lh", "lhu":
		return 2
	default:
		return 4
	}
}

var storeForms = []isa.Form{"sb", "sh", "sw"}

func storeSize(form isa.Form) uint64 {
	switch form {
	case "sb":
		return 1
	case "sh":
		return 2
	default:
		return 4
	}
}

// Load allocates a data blob per iteration, materializes its address into a
// claimed base GPR, and emits a load into a second claimed GPR -- spec.md
// §4.5's Load contract.
type Load struct {
	Count int

	claim    *resource.Claim
	produced int
	state    int
	addr     isa.Address
	form     isa.Form
}

func (s *Load) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, 2)}}
}

func (s *Load) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *Load) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	base, dest := s.claim.Exclusive[0], s.claim.Exclusive[1]

	switch s.state {
	case 0:
		s.form = rngPick(ctx, loadForms)
		n := loadSize(s.form)
		addr, err := ctx.Mem.AllocateData(n, n)
		if err != nil {
			s.produced = s.Count
			return GenData{}, Exhausted
		}
		s.addr = addr
		s.state = 1
		bytes := make([]byte, n)
		ctx.RNG.Read(bytes)
		return DataBlob(addr, bytes, "load-source"), Produced
	case 1, 2:
		m := materialize(base.ID, uint32(s.addr))
		idx := s.state - 1
		s.state++
		return m[idx], Produced
	default:
		s.produced++
		s.state = 0
		return Instr(s.form, []isa.Operand{isa.GPR(dest.ID), isa.GPR(base.ID), isa.MemOff(0)}), Produced
	}
}

// Store allocates a data blob per iteration, materializes its address into
// a base GPR and a chosen value into a second GPR, then emits a store --
// spec.md §4.5's Store contract (the preceding "LoadGPR of the value").
type Store struct {
	Count int

	claim    *resource.Claim
	produced int
	state    int
	addr     isa.Address
	form     isa.Form
	value    uint32
}

func (s *Store) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, 2)}}
}

func (s *Store) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *Store) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	base, val := s.claim.Exclusive[0], s.claim.Exclusive[1]

	switch s.state {
	case 0:
		s.form = rngPick(ctx, storeForms)
		n := storeSize(s.form)
		addr, err := ctx.Mem.AllocateData(n, n)
		if err != nil {
			s.produced = s.Count
			return GenData{}, Exhausted
		}
		s.addr = addr
		s.value = ctx.RNG.Uint32()
		s.state = 1
		return DataBlob(addr, make([]byte, n), "store-target"), Produced
	case 1, 2:
		m := materialize(base.ID, uint32(s.addr))
		idx := s.state - 1
		s.state++
		return m[idx], Produced
	case 3, 4:
		m := materialize(val.ID, s.value)
		idx := s.state - 3
		s.state++
		return m[idx], Produced
	default:
		s.produced++
		s.state = 0
		return Instr(s.form, []isa.Operand{isa.GPR(base.ID), isa.GPR(val.ID), isa.MemOff(0)}), Produced
	}
}

// LoadException emits loads with base GPR 0 and a non-zero offset chosen
// to fault, per spec.md §4.5's LoadException contract: GPR 0 always holds
// zero, so the effective address is the raw (small) offset, which lands
// outside any bank in the configurations tibbar generates (banks live at
// large, non-zero bases).
type LoadException struct {
	Count int

	claim    *resource.Claim
	produced int
}

func (s *LoadException) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{resource.AnyOf(resource.GPR, 1)}}
}

func (s *LoadException) SetClaim(claim *resource.Claim) { s.claim = claim }

func (s *LoadException) Next(ctx *Context) (GenData, Status) {
	if s.produced >= s.Count {
		return GenData{}, Exhausted
	}
	s.produced++
	form := rngPick(ctx, loadForms)
	off := ctx.RNG.Int63n(2047) + 1
	dest := s.claim.Exclusive[0]
	return Instr(form, []isa.Operand{isa.GPR(dest.ID), isa.GPR(0), isa.MemOff(off)}), Produced
}
