package resource

// Item is one entry of a ClaimSpec: either a concrete resource, or an
// any-N slot that the Reserver resolves against a namespace's declared
// universe of resources.
type Item struct {
	Concrete  Resource  // used when Any is false
	Any       bool      // true selects an any-N slot
	Namespace Namespace // used when Any is true
	Count     int       // used when Any is true: number of resources needed
}

// Named returns an Item requesting the named resource specifically.
func Named(r Resource) Item {
	return Item{Concrete: r}
}

// AnyOf returns an Item requesting any n unassigned/shareable resources
// from namespace ns, left to the Reserver to resolve.
func AnyOf(ns Namespace, n int) Item {
	return Item{Any: true, Namespace: ns, Count: n}
}

// ClaimSpec is what a sequence (or funnel) asks the Reserver for: a set of
// items that must be held exclusively, and a set that may be shared with
// other live claims.
type ClaimSpec struct {
	Exclusive []Item
	Shared    []Item
}

// Claim is the atomic grant returned by a successful Request. It is opaque
// to callers beyond inspecting which resources it holds; Release consumes it.
type Claim struct {
	Exclusive []Resource
	Shared    []Resource
}
