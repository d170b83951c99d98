package memory

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/translate"
)

var f = translate.From

// ErrOutOfSpace is returned when a region cannot fit the next placement.
// The engine recovers from it on code regions via the relocate sequence; on
// data regions it ends generation (spec.md §7).
type ErrOutOfSpace struct {
	Region string
	Need   uint64
}

func (e *ErrOutOfSpace) Error() string {
	return f("%v region out of space: need %v more bytes", e.Region, e.Need)
}

// ErrPlacementConflict is a fatal engine bug: an attempt to place over
// already-written bytes.
type ErrPlacementConflict struct {
	Addr isa.Address
}

func (e *ErrPlacementConflict) Error() string {
	return f("placement conflict at %v", e.Addr)
}

// ErrBankPermission is raised when a placement or read violates the
// enclosing bank's access rights (or falls outside every bank).
type ErrBankPermission struct {
	Addr   isa.Address
	Need   Access
	Reason string
}

func (e *ErrBankPermission) Error() string {
	return f("bank permission at %v: need %v: %v", e.Addr, e.Need, e.Reason)
}

// ErrConfig is a fatal startup error: invalid memory configuration.
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string {
	return f("memory config: %v", e.Reason)
}
