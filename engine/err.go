package engine

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/translate"
)

var f = translate.From

// ErrEngine is a fatal setup or generation failure that is not one of the
// more specific kinds memory/resource/exec already raise: boot/exit
// address selection failing, or a misconfigured register reservation at
// Setup (spec.md §7's catch-all "surfaced immediately with a message
// identifying the offending PC or resource").
type ErrEngine struct {
	Reason string
}

func (e *ErrEngine) Error() string {
	return f("engine: %v", e.Reason)
}

// ErrUnplacedTarget is raised at end-of-generation when a reserved branch
// or jump target was never filled with an instruction (spec.md §7's
// UnplacedTarget, fatal at end-of-generation).
type ErrUnplacedTarget struct {
	Addr isa.Address
}

func (e *ErrUnplacedTarget) Error() string {
	return f("engine: target %v was reserved but never placed", e.Addr)
}
