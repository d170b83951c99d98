package engine

import (
	"sort"

	"github.com/tibbar-gen/tibbar/gen"
	"github.com/tibbar-gen/tibbar/resource"
)

// Build constructs the main (body) funnel for a named generator, per
// spec.md §6's "generator name (required; one of the registered suite
// names)". Each builder gets the Engine's Reserver and instruction
// alignment so its sequences can be registered with the funnel's
// reservation lifecycle (spec.md §4.6).
type Build func(reserver *resource.Space, instrAlign uint64) gen.Funnel

// suites is the registry of named generators spec.md §8's end-to-end
// scenarios exercise: simple, ldst, ldst_exception, hazard, plus a couple
// the spec's sequence library supports but no scenario names explicitly
// (setregs, branch, float_stress).
var suites = map[string]Build{
	"simple":         buildSimple,
	"ldst":           buildLdSt,
	"ldst_exception": buildLdStException,
	"hazard":         buildHazard,
	"setregs":        buildSetRegs,
	"branch":         buildBranch,
	"float_stress":   buildFloatStress,
}

// SuiteNames returns the registered generator names in sorted order, for
// CLI usage text.
func SuiteNames() []string {
	out := make([]string, 0, len(suites))
	for name := range suites {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BuildFunnel resolves a generator name to its body funnel, or reports
// whether the name is registered (spec.md §6's "exit non-zero with usage"
// contract is the CLI's job; BuildFunnel just reports ok=false).
func BuildFunnel(name string, reserver *resource.Space, instrAlign uint64) (gen.Funnel, bool) {
	b, ok := suites[name]
	if !ok {
		return nil, false
	}
	return b(reserver, instrAlign), true
}

// buildSimple mixes arithmetic, hazards, and relative/absolute branching:
// spec.md §8 scenario 1's "generator simple" smoke test.
func buildSimple(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewRoundRobinFunnel(reserver)
	f.Add(&gen.RandomSafeInstrs{NumGPRs: 4, Count: 64})
	f.Add(&gen.Hazards{NumGPRs: 3, Count: 16})
	f.Add(&gen.RelativeBranching{Count: 8, InstrAlign: instrAlign})
	f.Add(&gen.AbsoluteBranching{Count: 4, InstrAlign: instrAlign})
	f.Add(&gen.SetGPRs{NumGPRs: 4, Pattern: gen.ValueRandom})
	return f
}

// buildLdSt drives loads and stores against allocated data-region blobs:
// spec.md §8 scenario 2.
func buildLdSt(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewRoundRobinFunnel(reserver)
	f.Add(&gen.Load{Count: 32})
	f.Add(&gen.Store{Count: 32})
	f.Add(&gen.RandomSafeInstrs{NumGPRs: 4, Count: 16})
	return f
}

// buildLdStException interleaves ordinary loads with faulting ones:
// spec.md §8 scenario 3.
func buildLdStException(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewRoundRobinFunnel(reserver)
	f.Add(&gen.Load{Count: 16})
	f.Add(&gen.LoadException{Count: 8})
	return f
}

// buildHazard emits only adjacent writer/reader pairs: spec.md §8
// scenario 4.
func buildHazard(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewSimpleFunnel(reserver)
	f.Add(&gen.Hazards{NumGPRs: 4, Count: 32})
	return f
}

// buildSetRegs exercises SetGPRs/SetFPRs across every value pattern.
func buildSetRegs(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewSimpleFunnel(reserver)
	f.Add(&gen.SetGPRs{NumGPRs: 8, Pattern: gen.ValueRandom})
	f.Add(&gen.SetGPRs{NumGPRs: 4, Pattern: gen.ValueZero})
	f.Add(&gen.SetGPRs{NumGPRs: 4, Pattern: gen.ValueSentinel})
	f.Add(&gen.SetFPRs{NumFPRs: 4, Pattern: gen.ValueSentinel})
	return f
}

// buildBranch exercises relative and absolute branching at higher volume
// than buildSimple's interleave.
func buildBranch(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewRoundRobinFunnel(reserver)
	f.Add(&gen.RelativeBranching{Count: 32, InstrAlign: instrAlign})
	f.Add(&gen.AbsoluteBranching{Count: 16, InstrAlign: instrAlign})
	return f
}

// buildFloatStress drives the FPR stress sequences of spec.md §4.5.
func buildFloatStress(reserver *resource.Space, instrAlign uint64) gen.Funnel {
	f := gen.NewSimpleFunnel(reserver)
	f.Add(&gen.StressFloatSingleSource{})
	f.Add(&gen.StressFloatMultiSource{})
	f.Add(&gen.FDivFSqrtSweep{})
	return f
}
