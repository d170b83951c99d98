package resource

import (
	"iter"
	"slices"
)

// poolEntry tracks the live state of a single resource.
type poolEntry struct {
	st             state
	exclusiveOwner *Claim
	sharedRefCount int
}

// Space is the resource space and reserver of spec.md §4.2: it knows the
// full universe of reservable resources per namespace, which are forbidden
// (GPR 0, read-only CSRs, ...), and the live pool state of every resource
// that is currently assigned.
//
// Space is not safe for concurrent use; the generation engine is single
// threaded and cooperative (spec.md §5), so none is needed.
type Space struct {
	universe  map[Namespace][]Resource
	forbidden map[Resource]string
	pool      map[Resource]*poolEntry
}

// NewSpace creates a resource space over the given per-namespace universe
// of resources, with the given forbidden resources (and the reason each is
// forbidden, used in ErrInvalidResource messages).
func NewSpace(universe map[Namespace][]Resource, forbidden map[Resource]string) *Space {
	return &Space{
		universe:  universe,
		forbidden: forbidden,
		pool:      make(map[Resource]*poolEntry),
	}
}

func (s *Space) stateOf(r Resource) state {
	if e, ok := s.pool[r]; ok {
		return e.st
	}
	return unassigned
}

// Reservable returns an iterator over every resource in namespace ns that
// is not architecturally forbidden, regardless of its current pool state.
// It errors with ErrUnknownNamespace if ns was never given a universe at
// NewSpace.
func (s *Space) Reservable(ns Namespace) (iter.Seq[Resource], error) {
	if _, ok := s.universe[ns]; !ok {
		return nil, ErrUnknownNamespace
	}
	return func(yield func(Resource) bool) {
		for _, r := range s.universe[ns] {
			if _, bad := s.forbidden[r]; bad {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}, nil
}

// Request attempts to grant spec atomically. It returns (claim, nil) on
// success, (nil, nil) if the request cannot currently be satisfied (a
// capacity/availability failure, not an error), or (nil, err) if spec names
// an architecturally forbidden resource.
func (s *Space) Request(spec ClaimSpec) (*Claim, error) {
	picked := make(map[Resource]bool)

	var exclusiveResolved []Resource
	for _, item := range spec.Exclusive {
		resolved, err := s.resolveExclusive(item, picked)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, nil
		}
		for _, r := range resolved {
			picked[r] = true
		}
		exclusiveResolved = append(exclusiveResolved, resolved...)
	}

	var sharedResolved []Resource
	for _, item := range spec.Shared {
		resolved, err := s.resolveShared(item, picked)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, nil
		}
		// Shared results are not added to picked, so later shared items in
		// this spec may reuse them; resources this spec already picked
		// exclusively are skipped.
		sharedResolved = append(sharedResolved, resolved...)
	}

	claim := &Claim{
		Exclusive: exclusiveResolved,
		Shared:    sharedResolved,
	}

	for _, r := range exclusiveResolved {
		s.pool[r] = &poolEntry{st: exclusive, exclusiveOwner: claim}
	}
	for _, r := range sharedResolved {
		e := s.pool[r]
		if e == nil {
			e = &poolEntry{}
			s.pool[r] = e
		}
		e.st = shared
		e.sharedRefCount++
	}

	return claim, nil
}

// Release returns claim's resources to the pool: exclusive resources go
// straight back to UNASSIGNED; shared resources decrement a reference
// count and only go UNASSIGNED when it reaches zero.
func (s *Space) Release(claim *Claim) {
	if claim == nil {
		return
	}
	for _, r := range claim.Exclusive {
		delete(s.pool, r)
	}
	for _, r := range claim.Shared {
		e, ok := s.pool[r]
		if !ok {
			continue
		}
		e.sharedRefCount--
		if e.sharedRefCount <= 0 {
			delete(s.pool, r)
		}
	}
}

func (s *Space) resolveExclusive(item Item, picked map[Resource]bool) ([]Resource, error) {
	if !item.Any {
		r := item.Concrete
		if reason, bad := s.forbidden[r]; bad {
			return nil, &ErrInvalidResource{Resource: r, Reason: reason}
		}
		if picked[r] || s.stateOf(r) != unassigned {
			return nil, nil
		}
		return []Resource{r}, nil
	}

	var out []Resource
	for _, r := range s.universe[item.Namespace] {
		if _, bad := s.forbidden[r]; bad {
			continue
		}
		if picked[r] || s.stateOf(r) != unassigned {
			continue
		}
		out = append(out, r)
		if len(out) == item.Count {
			return out, nil
		}
	}
	return nil, nil
}

func (s *Space) resolveShared(item Item, picked map[Resource]bool) ([]Resource, error) {
	if !item.Any {
		r := item.Concrete
		if reason, bad := s.forbidden[r]; bad {
			return nil, &ErrInvalidResource{Resource: r, Reason: reason}
		}
		if picked[r] || s.stateOf(r) == exclusive {
			return nil, nil
		}
		return []Resource{r}, nil
	}

	var out []Resource
	seen := map[Resource]bool{}
	for _, r := range s.universe[item.Namespace] {
		if _, bad := s.forbidden[r]; bad {
			continue
		}
		if picked[r] || seen[r] || s.stateOf(r) == exclusive {
			continue
		}
		seen[r] = true
		out = append(out, r)
		if len(out) == item.Count {
			return out, nil
		}
	}
	return nil, nil
}

// snapshot returns a deep-enough copy of the space's live pool state, useful
// for property tests that need to snapshot-and-compare after a failed
// Request (reservation atomicity).
func (s *Space) snapshot() map[Resource]poolEntry {
	out := make(map[Resource]poolEntry, len(s.pool))
	for r, e := range s.pool {
		out[r] = *e
	}
	return out
}

func sortedKeys(m map[Resource]poolEntry) []Resource {
	out := make([]Resource, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Resource) int {
		if a.Namespace != b.Namespace {
			return int(a.Namespace) - int(b.Namespace)
		}
		return a.ID - b.ID
	})
	return out
}
