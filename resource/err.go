package resource

import (
	"errors"

	"github.com/tibbar-gen/tibbar/translate"
)

var f = translate.From

// ErrInvalidResource is raised when a claim spec names an architecturally
// forbidden resource (GPR 0, a read-only CSR, ...). This is a programmer/
// catalog error, distinct from ordinary capacity exhaustion, which is
// reported by Request returning a nil Claim and a nil error.
type ErrInvalidResource struct {
	Resource Resource
	Reason   string
}

func (e *ErrInvalidResource) Error() string {
	return f("resource %v invalid: %v", e.Resource, e.Reason)
}

// ErrUnknownNamespace is raised by Reservable for a namespace the space was
// never configured with.
var ErrUnknownNamespace = errors.New(f("unknown resource namespace"))
