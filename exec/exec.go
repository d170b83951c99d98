// Package exec implements the minimal functional RISC-V interpreter of
// spec.md §4.4: it fetches the instruction placed at pc, asks the ISA
// catalog to execute it, applies the resulting state delta, and advances
// pc. Faults route to a configured trap handler instead of surfacing as Go
// errors.
//
// Grounded on cpu.Cpu.Tick/Execute's fetch-decode-apply loop and
// emulator.Emulator.Tick's trap-detection wrapper, simplified to a plain
// field (rather than a channel) since the generation engine has no
// concurrent I/O to synchronize against (spec.md §5).
package exec

import (
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/memory"
)

// Model is the Execution Model of spec.md §4.4: a purely functional
// interpreter over isa.State and a memory.Store. Its only externally
// visible state beyond pc is the register file, consulted read-only by
// sequences that need to know, for example, whether a GPR has already
// been initialized.
type Model struct {
	Catalog isa.Catalog
	Mem     *memory.Store

	State       isa.State
	TrapHandler isa.Address
	TrapPending bool
	LastTrap    *isa.Trap
}

// New builds a Model with pc = boot and the given trap handler address.
func New(catalog isa.Catalog, mem *memory.Store, boot, trapHandler isa.Address) *Model {
	return &Model{
		Catalog:     catalog,
		Mem:         mem,
		State:       isa.NewState(boot),
		TrapHandler: trapHandler,
	}
}

// PC returns the model's current program counter.
func (m *Model) PC() isa.Address { return m.State.PC }

// GPR returns the current value of general register id (read-only).
func (m *Model) GPR(id int) uint32 { return m.State.GPR[id] }

// FPR returns the current value of float register id (read-only).
func (m *Model) FPR(id int) uint32 { return m.State.FPR[id] }

// Step fetches the instruction at the current pc, executes it via the
// catalog, and applies the resulting state. If the placed instruction
// faults, or pc is unplaced, Step redirects pc to the trap handler and
// records the fault in LastTrap/TrapPending rather than returning an error
// -- spec.md §7 treats Trap as "not an error, routed to the handler".
func (m *Model) Step() error {
	form, operands, ok := m.Mem.CellAt(m.State.PC)
	if !ok {
		m.raiseTrap(&isa.Trap{Kind: isa.TrapFetchMiss, PC: m.State.PC, Note: "unplaced pc"})
		return nil
	}

	next, trap := m.Catalog.Step(form, operands, m.State, m.Mem)
	if trap != nil {
		m.raiseTrap(trap)
		return nil
	}

	m.State = next
	m.TrapPending = false
	return nil
}

func (m *Model) raiseTrap(trap *isa.Trap) {
	m.LastTrap = trap
	m.TrapPending = true
	m.State.Trap = true
	m.State.PC = m.TrapHandler
}
