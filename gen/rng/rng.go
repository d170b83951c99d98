// Package rng provides the single deterministic PRNG stream spec.md §5
// requires: a run is identified by one seed, and every random choice made
// by any sequence must be reproducible from that seed alone.
//
// Grounded on capp.Capp.Randomize's use of math/rand.New(rand.NewSource(...));
// generalized into a splittable stream so independent sequences can each
// hold their own *rand.Rand without becoming a hidden point of
// ordering-sensitivity between them (spec.md §9's "Global randomness" note).
package rng

import "math/rand"

// Stream is one deterministic sub-stream of the run's PRNG. Two Streams
// split from the same parent with the same counter value always produce
// the same sequence of draws.
type Stream struct {
	*rand.Rand
	seed    int64
	counter uint64
}

// New creates the root Stream for a run seed.
func New(seed int64) *Stream {
	return &Stream{Rand: rand.New(rand.NewSource(seed)), seed: seed}
}

// Split derives a new, independent sub-stream. Each call to Split on the
// same Stream advances an internal counter, so repeated calls in the same
// order (e.g. once per sequence a funnel constructs) are deterministic
// across runs with the same seed.
func (s *Stream) Split() *Stream {
	s.counter++
	mixed := mix64(uint64(s.seed) ^ s.counter*0x9e3779b97f4a7c15)
	return &Stream{Rand: rand.New(rand.NewSource(int64(mixed))), seed: int64(mixed)}
}

// mix64 is splitmix64's finalizer, used to turn (seed, counter) pairs into
// well-distributed sub-seeds.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Intn returns a pseudo-random int in [0, n), grounded on the embedded
// *rand.Rand -- re-exported explicitly because *rand.Rand's promoted
// methods are otherwise easy to shadow by accident in callers that also
// embed Stream.
func (s *Stream) Intn(n int) int { return s.Rand.Intn(n) }

// Uint32 returns a pseudo-random uint32.
func (s *Stream) Uint32() uint32 { return s.Rand.Uint32() }

// Int63n returns a pseudo-random int64 in [0, n).
func (s *Stream) Int63n(n int64) int64 { return s.Rand.Int63n(n) }

// Bool returns a pseudo-random boolean.
func (s *Stream) Bool() bool { return s.Rand.Uint32()&1 != 0 }

// Pick returns a pseudo-random element of items. Panics if items is empty.
func Pick[T any](s *Stream, items []T) T {
	return items[s.Intn(len(items))]
}
