package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func universe() map[Namespace][]Resource {
	gpr := make([]Resource, 32)
	for n := range gpr {
		gpr[n] = Resource{GPR, n}
	}
	csr := []Resource{{CSR, 0x300}, {CSR, 0xc00}}
	return map[Namespace][]Resource{GPR: gpr, CSR: csr}
}

func forbidden() map[Resource]string {
	return map[Resource]string{
		{GPR, 0}:    "architecturally zero",
		{CSR, 0xc00}: "read-only hardware CSR",
	}
}

func TestRequest_ExclusiveConcrete(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	claim, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 5})}})
	assert.NoError(err)
	assert.NotNil(claim)
	assert.Equal([]Resource{{GPR, 5}}, claim.Exclusive)

	// Second exclusive request for the same register must fail (absence).
	claim2, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 5})}})
	assert.NoError(err)
	assert.Nil(claim2)
}

func TestRequest_ForbiddenResourceErrors(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	claim, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 0})}})
	assert.Nil(claim)
	assert.Error(err)
	var invalid *ErrInvalidResource
	assert.ErrorAs(err, &invalid)
}

func TestRequest_AtomicAllOrNothing(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	// Hold r3 exclusively first.
	_, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 3})}})
	assert.NoError(err)

	before := sp.snapshot()

	// A spec that needs r1 (free) AND r3 (held) must fail entirely, leaving
	// r1 untouched.
	claim, err := sp.Request(ClaimSpec{Exclusive: []Item{
		Named(Resource{GPR, 1}),
		Named(Resource{GPR, 3}),
	}})
	assert.NoError(err)
	assert.Nil(claim)

	after := sp.snapshot()
	assert.Equal(sortedKeys(before), sortedKeys(after))
	assert.Equal(before, after)
}

func TestRequest_SharedCoexists(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	c1, err := sp.Request(ClaimSpec{Shared: []Item{Named(Resource{GPR, 2})}})
	assert.NoError(err)
	assert.NotNil(c1)

	c2, err := sp.Request(ClaimSpec{Shared: []Item{Named(Resource{GPR, 2})}})
	assert.NoError(err)
	assert.NotNil(c2)

	// Exclusive now fails because the resource is SHARED.
	c3, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 2})}})
	assert.NoError(err)
	assert.Nil(c3)

	sp.Release(c1)
	// Still shared (c2 holds it).
	c4, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 2})}})
	assert.NoError(err)
	assert.Nil(c4)

	sp.Release(c2)
	// Now unassigned; exclusive succeeds.
	c5, err := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 2})}})
	assert.NoError(err)
	assert.NotNil(c5)
}

func TestRequest_AnyNResolves(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	claim, err := sp.Request(ClaimSpec{Exclusive: []Item{AnyOf(GPR, 3)}})
	assert.NoError(err)
	assert.NotNil(claim)
	assert.Equal(3, len(claim.Exclusive))
	for _, r := range claim.Exclusive {
		assert.NotEqual(Resource{GPR, 0}, r)
	}
}

func TestRelease_ExclusiveReturnsToUnassigned(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	claim, _ := sp.Request(ClaimSpec{Exclusive: []Item{Named(Resource{GPR, 7})}})
	assert.Equal(exclusive, sp.stateOf(Resource{GPR, 7}))

	sp.Release(claim)
	assert.Equal(unassigned, sp.stateOf(Resource{GPR, 7}))
}

func TestReservable_ExcludesForbidden(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	seq, err := sp.Reservable(GPR)
	assert.NoError(err)

	var seen []Resource
	for r := range seq {
		seen = append(seen, r)
	}
	assert.Equal(31, len(seen))
	assert.NotContains(seen, Resource{GPR, 0})
}

func TestReservable_UnknownNamespace(t *testing.T) {
	assert := assert.New(t)

	sp := NewSpace(universe(), forbidden())

	_, err := sp.Reservable(Namespace(99))
	assert.ErrorIs(err, ErrUnknownNamespace)
}
