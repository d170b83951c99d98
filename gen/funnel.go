package gen

import (
	"log"

	"github.com/tibbar-gen/tibbar/gen/rng"
	"github.com/tibbar-gen/tibbar/resource"
)

// Status reports what a Sequence's Next call did: it produced an item, it
// has nothing to say this round but is not done (spec.md §4.6's "a child
// that yields nothing this round is skipped"), or it is permanently
// exhausted.
type Status int

const (
	Produced Status = iota
	Skip
	Exhausted
)

// DefaultMaxFailedAttempts bounds how many consecutive rounds a funnel will
// retry a child whose resource request keeps failing before giving up on it
// (spec.md §4.6: "a child that cannot ever be satisfied is eventually
// dropped after a configurable number of failed attempts").
const DefaultMaxFailedAttempts = 64

type childState struct {
	seq            Sequence
	nested         bool
	claim          *resource.Claim
	reserved       bool
	failedAttempts int
	dropped        bool

	// stream is this child's own sub-stream, split off the funnel's RNG the
	// first time the child runs, so its draws stay deterministic regardless
	// of how many draws its sibling children make first (spec.md §9's
	// "Global randomness" note).
	stream *rng.Stream
}

// drawFrom splits cs's sub-stream on first use, swaps it into ctx for the
// duration of fn, and restores the caller's stream afterward.
func drawFrom(ctx *Context, cs *childState, fn func() (GenData, Status)) (GenData, Status) {
	if cs.stream == nil {
		cs.stream = ctx.RNG.Split()
	}
	saved := ctx.RNG
	ctx.RNG = cs.stream
	defer func() { ctx.RNG = saved }()
	return fn()
}

// reserveChild runs the reservation lifecycle immediately before a direct
// (non-nested) child's first item: request its claim_spec, and on success
// inject the Claim via SetClaim. Returns skip=true if the caller should
// treat this round as a Skip (capacity exhaustion, will retry), and
// drop=true if it should drop the child outright (InvalidResource, or too
// many failed attempts); both are false once the child holds its claim.
func reserveChild(reserver *resource.Space, cs *childState) (skip bool, drop bool) {
	if cs.reserved || cs.nested || reserver == nil {
		return false, false
	}
	claim, err := reserver.Request(cs.seq.ResourceRequests())
	if err != nil {
		log.Printf("gen: dropping child, invalid resource request: %v", err)
		return false, true
	}
	if claim == nil {
		cs.failedAttempts++
		if cs.failedAttempts >= DefaultMaxFailedAttempts {
			log.Printf("gen: dropping child after %d failed reservation attempts", cs.failedAttempts)
			return false, true
		}
		return true, false
	}
	cs.claim = claim
	cs.reserved = true
	cs.seq.SetClaim(claim)
	return false, false
}

func releaseChild(reserver *resource.Space, cs *childState) {
	if cs.reserved && reserver != nil {
		reserver.Release(cs.claim)
	}
	cs.reserved = false
	cs.claim = nil
}

// SimpleFunnel fully drains each child, in the order it was added, before
// moving to the next (spec.md §4.6).
type SimpleFunnel struct {
	Reserver *resource.Space

	children []*childState
	cur      int
	claim    *resource.Claim // this funnel's own claim, if nested under another funnel
}

// NewSimpleFunnel builds a SimpleFunnel. reserver may be nil, in which case
// no reservation lifecycle is performed (children run unconditionally).
func NewSimpleFunnel(reserver *resource.Space) *SimpleFunnel {
	return &SimpleFunnel{Reserver: reserver}
}

func (f *SimpleFunnel) Add(child Sequence) {
	_, nested := child.(Funnel)
	f.children = append(f.children, &childState{seq: child, nested: nested})
}

func (f *SimpleFunnel) ResourceRequests() resource.ClaimSpec { return resource.ClaimSpec{} }
func (f *SimpleFunnel) SetClaim(claim *resource.Claim)       { f.claim = claim }

func (f *SimpleFunnel) Next(ctx *Context) (GenData, Status) {
	for f.cur < len(f.children) {
		cs := f.children[f.cur]
		if cs.dropped {
			f.cur++
			continue
		}

		if skip, drop := reserveChild(f.Reserver, cs); drop {
			cs.dropped = true
			f.cur++
			continue
		} else if skip {
			return GenData{}, Skip
		}

		item, status := drawFrom(ctx, cs, func() (GenData, Status) { return cs.seq.Next(ctx) })
		switch status {
		case Produced:
			return item, Produced
		case Skip:
			return GenData{}, Skip
		case Exhausted:
			releaseChild(f.Reserver, cs)
			cs.dropped = true
			f.cur++
		}
	}
	return GenData{}, Exhausted
}

// RoundRobinFunnel advances each live child one item per round; a child
// that yields nothing this round is skipped, and children are dropped once
// exhausted (spec.md §4.6).
type RoundRobinFunnel struct {
	Reserver *resource.Space

	children []*childState
	cursor   int
	claim    *resource.Claim
}

func NewRoundRobinFunnel(reserver *resource.Space) *RoundRobinFunnel {
	return &RoundRobinFunnel{Reserver: reserver}
}

func (f *RoundRobinFunnel) Add(child Sequence) {
	_, nested := child.(Funnel)
	f.children = append(f.children, &childState{seq: child, nested: nested})
}

func (f *RoundRobinFunnel) ResourceRequests() resource.ClaimSpec { return resource.ClaimSpec{} }
func (f *RoundRobinFunnel) SetClaim(claim *resource.Claim)       { f.claim = claim }

func (f *RoundRobinFunnel) liveCount() int {
	n := 0
	for _, cs := range f.children {
		if !cs.dropped {
			n++
		}
	}
	return n
}

func (f *RoundRobinFunnel) Next(ctx *Context) (GenData, Status) {
	n := len(f.children)
	if n == 0 || f.liveCount() == 0 {
		return GenData{}, Exhausted
	}

	for tries := 0; tries < n; tries++ {
		idx := f.cursor % n
		f.cursor++
		cs := f.children[idx]
		if cs.dropped {
			continue
		}

		if skip, drop := reserveChild(f.Reserver, cs); drop {
			cs.dropped = true
			continue
		} else if skip {
			continue
		}

		item, status := drawFrom(ctx, cs, func() (GenData, Status) { return cs.seq.Next(ctx) })
		switch status {
		case Produced:
			return item, Produced
		case Exhausted:
			releaseChild(f.Reserver, cs)
			cs.dropped = true
			continue
		case Skip:
			continue
		}
	}

	if f.liveCount() == 0 {
		return GenData{}, Exhausted
	}
	return GenData{}, Skip
}
