// Package engine implements the top-level generator loop of spec.md §4.7:
// Setup, Prologue, Body, Epilogue, Emit. It is the single place that owns
// both the Execution Model and the Memory Store and hands sequences
// read-only references into each gen() call, per Design Note 9.
//
// Grounded on cmd/ucapp/main.go's Reset/Tick-until-done driver loop.
package engine

import (
	"log"

	"github.com/tibbar-gen/tibbar/exec"
	"github.com/tibbar-gen/tibbar/gen"
	"github.com/tibbar-gen/tibbar/gen/rng"
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/memory"
	"github.com/tibbar-gen/tibbar/resource"
)

// ScratchReg and SPReg are the GPRs reserved for the whole run's duration
// at Setup: the exit-address scratch register DefaultProgramStart/End
// share, and the stack pointer. Holding them exclusively for the entire
// run (never releasing the claim back to the body funnel) is what keeps
// the scratch register's value intact between Prologue and Epilogue
// without threading state through the funnel (spec.md §4.5's contract for
// DefaultProgramStart/DefaultProgramEnd).
var (
	ScratchReg = resource.Resource{Namespace: resource.GPR, ID: 31}
	SPReg      = resource.Resource{Namespace: resource.GPR, ID: 2}
	TrapVecCSR = resource.Resource{Namespace: resource.CSR, ID: 0x305} // mtvec
)

// ExitSize is the byte size of the reserved exit window: two materialize
// instructions, a jalr, and a self-branch, all 4 bytes each (spec.md
// §4.3's exit-region invariant (d)).
const ExitSize = 16

// DefaultMaxInstructions and DefaultMaxCodeBytes are the generator's
// orderly-drive-to-exit ceilings (spec.md §4.7).
const (
	DefaultMaxInstructions = 20000
	DefaultMaxCodeBytes    = 1 << 20
)

// Limits bounds total generation work (spec.md §4.7).
type Limits struct {
	MaxInstructions int
	MaxCodeBytes    uint64
}

// Engine is the top-level generator of spec.md §4.7.
type Engine struct {
	Catalog  isa.Catalog
	Mem      *memory.Store
	Model    *exec.Model
	Reserver *resource.Space
	RNG      *rng.Stream
	Limits   Limits

	boot, exit isa.Address
	instrAlign uint64

	startSeq *gen.DefaultProgramStart
	endSeq   *gen.DefaultProgramEnd

	instrCount int
	codeBytes  uint64
}

// Setup builds the Memory Store, Resource Space, and Execution Model, and
// chooses the boot and exit addresses, exactly as spec.md §4.7 step 1
// describes. fixedBootOffset, if ok is true, is a 0-based offset into the
// code region (spec.md §6's memory.boot); otherwise boot is randomized.
func Setup(catalog isa.Catalog, banks []memory.Bank, dataReserve uint64, instrAlign uint64, seed int64, fixedBootOffset uint64, fixedBootOK bool, limits Limits) (*Engine, error) {
	mem, err := memory.NewStore(catalog, banks, instrAlign, dataReserve)
	if err != nil {
		return nil, err
	}

	stream := rng.New(seed)

	exitAddr, err := chooseExitAddress(mem, stream, instrAlign)
	if err != nil {
		return nil, err
	}
	if err := mem.ReserveExit(exitAddr, ExitSize); err != nil {
		return nil, err
	}

	bootAddr, err := chooseBootAddress(mem, stream, instrAlign, exitAddr, fixedBootOffset, fixedBootOK)
	if err != nil {
		return nil, err
	}

	reserver := resource.NewSpace(defaultUniverse(), defaultForbidden())
	bootClaim, err := reserver.Request(resource.ClaimSpec{
		Exclusive: []resource.Item{resource.Named(ScratchReg), resource.Named(SPReg)},
	})
	if err != nil {
		return nil, err
	}
	if bootClaim == nil {
		return nil, &ErrEngine{Reason: "could not reserve boot scratch/sp registers"}
	}

	stackTop := exitAddr // degenerate fallback if no data region is configured
	if base, limit, ok := mem.DataRegion(); ok {
		const stackSize = 4096
		if uint64(limit-base) >= stackSize {
			stackBase, err := mem.AllocateData(stackSize, 16)
			if err == nil {
				stackTop = stackBase.Add(stackSize)
			} else {
				stackTop = limit
			}
		} else {
			stackTop = limit
		}
	}

	model := exec.New(catalog, mem, bootAddr, exitAddr)

	startSeq := &gen.DefaultProgramStart{
		Scratch: ScratchReg, SP: SPReg, TrapHandler: exitAddr,
		TrapVecCSR: TrapVecCSR, ExitAddr: exitAddr, StackTop: stackTop,
	}
	startSeq.SetClaim(bootClaim)
	endSeq := &gen.DefaultProgramEnd{Scratch: ScratchReg, ExitAddr: exitAddr}
	endSeq.SetClaim(bootClaim)

	if limits.MaxInstructions == 0 {
		limits.MaxInstructions = DefaultMaxInstructions
	}
	if limits.MaxCodeBytes == 0 {
		limits.MaxCodeBytes = DefaultMaxCodeBytes
	}

	return &Engine{
		Catalog: catalog, Mem: mem, Model: model, Reserver: reserver, RNG: stream,
		Limits: limits, boot: bootAddr, exit: exitAddr, instrAlign: instrAlign,
		startSeq: startSeq, endSeq: endSeq,
	}, nil
}

// Boot and Exit return the addresses Setup chose.
func (e *Engine) Boot() isa.Address { return e.boot }
func (e *Engine) Exit() isa.Address { return e.exit }

func (e *Engine) ctx() *gen.Context {
	return &gen.Context{RNG: e.RNG, Exec: e.Model, Mem: e.Mem}
}

// Run drives Prologue, Body, and Epilogue (spec.md §4.7 steps 2-4) against
// mainFunnel, the caller-supplied body sequence composition.
func (e *Engine) Run(mainFunnel gen.Funnel) error {
	ctx := e.ctx()

	if err := e.drain(e.startSeq, ctx, true); err != nil {
		return err
	}

	for {
		if e.Mem.InExitRegion(e.Model.PC()) {
			break
		}
		if e.instrCount >= e.Limits.MaxInstructions || e.codeBytes >= e.Limits.MaxCodeBytes {
			if err := e.fillReservations(); err != nil {
				return err
			}
			e.driveToExit()
			continue
		}

		if e.Mem.IsPlaced(e.Model.PC()) {
			if err := e.Model.Step(); err != nil {
				return err
			}
			e.instrCount++
			continue
		}

		item, status := mainFunnel.Next(ctx)
		switch status {
		case gen.Skip:
			continue
		case gen.Exhausted:
			if err := e.fillReservations(); err != nil {
				return err
			}
			e.driveToExit()
			continue
		}

		if err := e.place(item, ctx); err != nil {
			return err
		}
	}

	// The epilogue advances pc past each instruction it places without
	// running it; pc is returned to the exit address afterwards, so the
	// model finishes inside the exit region.
	exitPC := e.Model.PC()
	if err := e.drain(e.endSeq, ctx, false); err != nil {
		return err
	}
	e.Model.State.PC = exitPC

	if unresolved := e.Mem.UnresolvedReservations(); len(unresolved) > 0 {
		return &ErrUnplacedTarget{Addr: unresolved[0]}
	}
	return nil
}

// place handles one GenData item per spec.md §4.7 step 3's three cases. A
// fresh DefaultRelocate is constructed each time the current region is low
// on space: the sequence latches done after its single jal, so reusing one
// instance across the whole run would let the region relocate at most
// once.
func (e *Engine) place(item gen.GenData, ctx *gen.Context) error {
	switch item.Kind {
	case gen.KindInstr:
		n := uint64(e.Catalog.Len(item.Form))
		if e.Mem.RemainingInBank(e.Model.PC()) < n {
			relocate := &gen.DefaultRelocate{InstrAlign: e.instrAlign}
			relocItem, status := relocate.Next(ctx)
			if status == gen.Produced {
				if err := e.placeInstr(relocItem); err != nil {
					return err
				}
			}
		}
		return e.placeInstr(item)
	case gen.KindDataBlob:
		return e.Mem.PlaceData(item.Addr, item.Bytes, item.Purpose)
	case gen.KindReserve:
		return e.Mem.ReserveCode(item.Target)
	}
	return nil
}

func (e *Engine) placeInstr(item gen.GenData) error {
	wasWarned := e.Mem.MidPlacementWarning
	if err := e.Mem.PlaceInstruction(e.Model.PC(), item.Form, item.Operands); err != nil {
		return err
	}
	if e.Mem.MidPlacementWarning && !wasWarned {
		log.Printf("engine: branch target resolved into the middle of an existing instruction")
	}
	e.instrCount++
	e.codeBytes += uint64(e.Catalog.Len(item.Form))
	return nil
}

// drain fully runs seq to exhaustion, placing each item at the model's
// current pc. When execute is true (the Prologue), each placed
// instruction is also stepped for real, so the scratch/sp registers it
// writes are reflected in model state for the rest of the run. The
// Epilogue passes execute=false: its jalr would otherwise redirect pc
// away from the next placement address, and nothing downstream depends
// on the model having "run" the exit sequence.
func (e *Engine) drain(seq gen.Sequence, ctx *gen.Context, execute bool) error {
	for {
		item, status := seq.Next(ctx)
		switch status {
		case gen.Exhausted:
			return nil
		case gen.Skip:
			continue
		}
		if item.Kind == gen.KindInstr {
			pc := e.Model.State.PC
			if err := e.placeInstr(item); err != nil {
				return err
			}
			if execute {
				if err := e.Model.Step(); err != nil {
					return err
				}
			} else {
				e.Model.State.PC = pc.Add(uint64(e.Catalog.Len(item.Form)))
			}
			continue
		}
		if err := e.place(item, ctx); err != nil {
			return err
		}
	}
}

// driveToExit forces generation toward the exit region when the main
// funnel is exhausted but pc has not reached it yet (spec.md §4.7 step 3's
// final bullet): it is equivalent to jumping straight to the exit address.
func (e *Engine) driveToExit() {
	e.Model.State.PC = e.exit
}

// fillReservations places a nop directly at every outstanding Reserved
// code target before driveToExit jumps pc away from the region that still
// owes those targets a placement. Without this, a forward branch reserved
// near the end of the main funnel's output (RelativeBranching's targets,
// spec.md §4.5), or one that a later jump skipped over, would be left
// Reserved forever and fail the end-of-run UnplacedTarget check (spec.md
// §8's target coverage invariant), even though nothing was wrong with the
// branch itself. Only the target itself is filled: the address after the
// nop stays unplaced, which the Execution Model treats as a fetch miss
// routed to the trap handler.
func (e *Engine) fillReservations() error {
	for _, target := range e.Mem.UnresolvedReservations() {
		e.Model.State.PC = target
		nop := gen.Instr("addi", []isa.Operand{isa.GPR(0), isa.GPR(0), isa.Imm(0)})
		if err := e.placeInstr(nop); err != nil {
			return err
		}
	}
	return nil
}

func defaultUniverse() map[resource.Namespace][]resource.Resource {
	u := make(map[resource.Namespace][]resource.Resource)
	for i := 0; i < 32; i++ {
		u[resource.GPR] = append(u[resource.GPR], resource.Resource{Namespace: resource.GPR, ID: i})
		u[resource.FPR] = append(u[resource.FPR], resource.Resource{Namespace: resource.FPR, ID: i})
	}
	u[resource.CSR] = []resource.Resource{
		{Namespace: resource.CSR, ID: 0x300}, // mstatus
		{Namespace: resource.CSR, ID: 0x305}, // mtvec
		{Namespace: resource.CSR, ID: 0x340}, // mscratch
		{Namespace: resource.CSR, ID: 0xf14}, // mhartid (read-only)
	}
	return u
}

func defaultForbidden() map[resource.Resource]string {
	return map[resource.Resource]string{
		{Namespace: resource.GPR, ID: 0}:    "gpr 0 is architecturally zero",
		{Namespace: resource.CSR, ID: 0xf14}: "mhartid is read-only",
	}
}

func chooseExitAddress(mem *memory.Store, stream *rng.Stream, align uint64) (isa.Address, error) {
	base, limit := mem.CodeRegion()
	return randomAddrInRange(stream, base, limit, align, ExitSize, nil)
}

func chooseBootAddress(mem *memory.Store, stream *rng.Stream, align uint64, exitAddr isa.Address, fixedOffset uint64, fixedOK bool) (isa.Address, error) {
	base, limit := mem.CodeRegion()
	if fixedOK {
		addr := base.Add(fixedOffset)
		overlapsExit := addr < exitAddr.Add(ExitSize) && exitAddr < addr.Add(align)
		if overlapsExit || uint64(addr-base)+align > uint64(limit-base) {
			return 0, &ErrEngine{Reason: "configured memory.boot overlaps the exit region or code bounds"}
		}
		return addr, nil
	}
	avoid := func(addr isa.Address) bool {
		return addr == exitAddr || (addr < exitAddr.Add(ExitSize) && exitAddr < addr.Add(align))
	}
	return randomAddrInRange(stream, base, limit, align, align, avoid)
}

// randomAddrInRange picks a random, align-aligned, non-zero address in
// [base, limit) with room for size bytes, retrying while avoid (if non-nil)
// rejects the candidate.
func randomAddrInRange(stream *rng.Stream, base, limit isa.Address, align, size uint64, avoid func(isa.Address) bool) (isa.Address, error) {
	span := uint64(limit - base)
	if span < size {
		return 0, &ErrEngine{Reason: "code region too small"}
	}
	for tries := 0; tries < 256; tries++ {
		off := uint64(stream.Int63n(int64((span-size)/align+1))) * align
		addr := base.Add(off)
		if addr == 0 {
			continue
		}
		if avoid != nil && avoid(addr) {
			continue
		}
		return addr, nil
	}
	return 0, &ErrEngine{Reason: "could not place a non-overlapping address after 256 attempts"}
}
