package gen

import (
	"github.com/tibbar-gen/tibbar/exec"
	"github.com/tibbar-gen/tibbar/gen/rng"
	"github.com/tibbar-gen/tibbar/memory"
	"github.com/tibbar-gen/tibbar/resource"
)

// Context is the read-only collaborator bundle a Sequence receives on every
// Next call: a PRNG sub-stream, a read-only view of the Execution Model
// (for sequences that need to know the current pc or a register's value),
// and the Memory Store handle sequences use as the data-allocation
// back-channel (spec.md §9). Sequences must not mutate Exec themselves;
// only the engine advances it.
type Context struct {
	RNG  *rng.Stream
	Exec *exec.Model
	Mem  *memory.Store
}

// Sequence is a lazy, finite producer of GenData items (spec.md §4.5).
// Implementations are small state machines: Next is called repeatedly and
// returns (item, Produced) until exhausted.
type Sequence interface {
	// ResourceRequests returns the claim_spec this sequence needs before
	// producing its first item.
	ResourceRequests() resource.ClaimSpec
	// SetClaim injects the Claim the funnel obtained on this sequence's
	// behalf, prior to the first call to Next.
	SetClaim(claim *resource.Claim)
	// Next produces the next item, or reports Skip/Exhausted.
	Next(ctx *Context) (GenData, Status)
}

// Funnel composes child producers into a single stream. A Funnel is itself
// a Sequence (spec.md §4.6).
type Funnel interface {
	Sequence
	// Add appends a child producer (a Sequence or a nested Funnel).
	Add(child Sequence)
}
