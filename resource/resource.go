// Package resource implements the resource space and reserver described by
// the generation engine: a namespace of register-like resources (GPR, FPR,
// CSR, ...) that independent sequences claim exclusively or share, so that
// concurrently-interleaved producers never collide on the same register.
package resource

import (
	"fmt"
)

// Namespace identifies a family of resources.
type Namespace int

const (
	GPR = Namespace(0)
	FPR = Namespace(1)
	CSR = Namespace(2)
)

var namespaceName = map[Namespace]string{
	GPR: "gpr",
	FPR: "fpr",
	CSR: "csr",
}

func (n Namespace) String() string {
	if s, ok := namespaceName[n]; ok {
		return s
	}
	return fmt.Sprintf("Namespace(%d)", int(n))
}

// Resource names a single reservable item: a register or CSR.
type Resource struct {
	Namespace Namespace
	ID        int
}

func (r Resource) String() string {
	return fmt.Sprintf("%v%d", r.Namespace, r.ID)
}

// state is the pool state of a single Resource.
type state int

const (
	unassigned = state(0)
	exclusive  = state(1)
	shared     = state(2)
)
