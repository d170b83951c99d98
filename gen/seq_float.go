package gen

import (
	"math"

	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// floatValueMatrix is the stressed-value set the float stress sequences
// sweep across: zero, subnormals, infinities, NaN, and representative
// finite magnitudes.
var floatValueMatrix = []float32{
	0.0, -0.0, 1.0, -1.0, 0.5, -0.5,
	float32(math.Inf(1)), float32(math.Inf(-1)),
	float32(math.NaN()),
	1e-30, -1e-30, 1e30, -1e30,
	math.SmallestNonzeroFloat32, math.MaxFloat32,
}

func f32bits(v float32) uint32 { return math.Float32bits(v) }

// floatPrologue issues FPR-setup instructions (scratch GPR materialize +
// FMV.W.X) to stage a value matrix into FPRs. It is shared state machinery
// used by StressFloatSingleSource and StressFloatMultiSource, both of which
// emit an FPR-setup prologue followed by the op matrix itself.
type floatPrologue struct {
	values  []float32
	targets []resource.Resource
	scratch resource.Resource

	idx  int
	step int
}

func (p *floatPrologue) done() bool { return p.idx >= len(p.targets) }

func (p *floatPrologue) next() GenData {
	v := p.values[p.idx%len(p.values)]
	fpr := p.targets[p.idx]
	switch p.step {
	case 0:
		m := materialize(p.scratch.ID, f32bits(v))
		p.step = 1
		return m[0]
	case 1:
		m := materialize(p.scratch.ID, f32bits(v))
		p.step = 2
		return m[1]
	default:
		p.step = 0
		p.idx++
		return Instr("fmv.w.x", []isa.Operand{isa.FPR(fpr.ID), isa.GPR(p.scratch.ID)})
	}
}

// StressFloatSingleSource issues an FPR-setup prologue over floatValueMatrix
// and then, for each staged FPR, emits every single-source op (FSQRT.S)
// with that FPR as both destination and source -- spec.md §4.5's
// "single-source stressed across a value matrix" contract.
type StressFloatSingleSource struct {
	claim    *resource.Claim
	prologue *floatPrologue
	opIdx    int
}

func (s *StressFloatSingleSource) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{
		resource.AnyOf(resource.FPR, 1),
		resource.AnyOf(resource.GPR, 1),
	}}
}

func (s *StressFloatSingleSource) SetClaim(claim *resource.Claim) {
	s.claim = claim
	var fprs []resource.Resource
	var gpr resource.Resource
	for _, r := range claim.Exclusive {
		if r.Namespace == resource.FPR {
			fprs = append(fprs, r)
		} else {
			gpr = r
		}
	}
	s.prologue = &floatPrologue{values: floatValueMatrix, targets: fprs, scratch: gpr}
}

func (s *StressFloatSingleSource) Next(ctx *Context) (GenData, Status) {
	if !s.prologue.done() {
		return s.prologue.next(), Produced
	}
	if s.opIdx >= len(floatValueMatrix) {
		return GenData{}, Exhausted
	}
	fpr := s.prologue.targets[0]
	s.opIdx++
	if s.opIdx < len(floatValueMatrix) {
		s.prologue = &floatPrologue{values: floatValueMatrix[s.opIdx:], targets: s.prologue.targets, scratch: s.prologue.scratch}
	}
	return Instr("fsqrt.s", []isa.Operand{isa.FPR(fpr.ID), isa.FPR(fpr.ID)}), Produced
}

// StressFloatMultiSource issues an FPR-setup prologue over two claimed FPRs
// and then emits every multi-source op (FADD.S/FSUB.S/FMUL.S/FDIV.S) across
// the cartesian product of floatValueMatrix x floatValueMatrix -- spec.md
// §4.5's "multi-source cartesian samples" contract.
type StressFloatMultiSource struct {
	claim    *resource.Claim
	prologue *floatPrologue
	a, b     resource.Resource
	dst      resource.Resource
	opIdx    int
}

var multiSourceForms = []isa.Form{"fadd.s", "fsub.s", "fmul.s", "fdiv.s"}

func (s *StressFloatMultiSource) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{
		resource.AnyOf(resource.FPR, 3),
		resource.AnyOf(resource.GPR, 1),
	}}
}

func (s *StressFloatMultiSource) SetClaim(claim *resource.Claim) {
	s.claim = claim
	var fprs []resource.Resource
	var gpr resource.Resource
	for _, r := range claim.Exclusive {
		if r.Namespace == resource.FPR {
			fprs = append(fprs, r)
		} else {
			gpr = r
		}
	}
	s.a, s.b, s.dst = fprs[0], fprs[1], fprs[2]
	first := floatValueMatrix[0]
	s.prologue = &floatPrologue{values: []float32{first, first}, targets: []resource.Resource{s.a, s.b}, scratch: gpr}
}

func (s *StressFloatMultiSource) Next(ctx *Context) (GenData, Status) {
	if !s.prologue.done() {
		return s.prologue.next(), Produced
	}
	total := len(floatValueMatrix) * len(floatValueMatrix) * len(multiSourceForms)
	if s.opIdx >= total {
		return GenData{}, Exhausted
	}
	form := multiSourceForms[s.opIdx%len(multiSourceForms)]
	s.opIdx++
	if s.opIdx%len(multiSourceForms) == 0 && s.opIdx < total {
		pair, n := s.opIdx/len(multiSourceForms), len(floatValueMatrix)
		values := []float32{floatValueMatrix[pair/n], floatValueMatrix[pair%n]}
		s.prologue = &floatPrologue{values: values, targets: s.prologue.targets, scratch: s.prologue.scratch}
	}
	return Instr(form, []isa.Operand{isa.FPR(s.dst.ID), isa.FPR(s.a.ID), isa.FPR(s.b.ID)}), Produced
}

// FDivFSqrtSweep is a narrower stress sequence dedicated to FDIV.S/FSQRT.S,
// the two ops most likely to expose a divider/sqrt-unit edge case. Its
// prologue stages the first two floatValueMatrix values into a and b once;
// it then emits len(floatValueMatrix) FSQRT.S on a followed by as many
// FDIV.S a = a / b. The FPRs are not re-staged between ops, so each op
// works on the previous op's result rather than on a fresh matrix value.
type FDivFSqrtSweep struct {
	claim    *resource.Claim
	prologue *floatPrologue
	a, b     resource.Resource
	opIdx    int
}

func (s *FDivFSqrtSweep) ResourceRequests() resource.ClaimSpec {
	return resource.ClaimSpec{Exclusive: []resource.Item{
		resource.AnyOf(resource.FPR, 2),
		resource.AnyOf(resource.GPR, 1),
	}}
}

func (s *FDivFSqrtSweep) SetClaim(claim *resource.Claim) {
	s.claim = claim
	var fprs []resource.Resource
	var gpr resource.Resource
	for _, r := range claim.Exclusive {
		if r.Namespace == resource.FPR {
			fprs = append(fprs, r)
		} else {
			gpr = r
		}
	}
	s.a, s.b = fprs[0], fprs[1]
	s.prologue = &floatPrologue{values: floatValueMatrix, targets: []resource.Resource{s.a, s.b}, scratch: gpr}
}

func (s *FDivFSqrtSweep) Next(ctx *Context) (GenData, Status) {
	if !s.prologue.done() {
		return s.prologue.next(), Produced
	}
	switch {
	case s.opIdx < len(floatValueMatrix):
		s.opIdx++
		return Instr("fsqrt.s", []isa.Operand{isa.FPR(s.a.ID), isa.FPR(s.a.ID)}), Produced
	case s.opIdx < 2*len(floatValueMatrix):
		s.opIdx++
		return Instr("fdiv.s", []isa.Operand{isa.FPR(s.a.ID), isa.FPR(s.a.ID), isa.FPR(s.b.ID)}), Produced
	default:
		return GenData{}, Exhausted
	}
}
