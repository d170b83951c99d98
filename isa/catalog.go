// Package isa defines the consumed interface of an instruction-set catalog:
// enumerated instruction forms, their operand classes, an encoder, a set of
// classifier predicates, register liveness, and a pure execution step. The
// generation engine is written entirely against this interface; concrete
// catalogs (package isa/rv32i) are interchangeable implementations.
//
// The catalog is deterministic and pure: Encode and Step never consult
// process-global state, and Step's only side channel is the Memory handle
// explicitly passed to it.
package isa

import (
	"fmt"

	"github.com/tibbar-gen/tibbar/resource"
)

// Address is a 64-bit byte address. Arithmetic on Address wraps modulo 2^64,
// which is exactly what Go's unsigned-integer overflow already does.
type Address uint64

// Add returns addr+n, wrapping modulo 2^64.
func (addr Address) Add(n uint64) Address {
	return addr + Address(n)
}

// AlignUp rounds addr up to the next multiple of align (align must be a
// power of two).
func (addr Address) AlignUp(align uint64) Address {
	if align <= 1 {
		return addr
	}
	mask := Address(align - 1)
	return (addr + mask) &^ mask
}

func (addr Address) String() string {
	return fmt.Sprintf("0x%08x", uint64(addr))
}

// Form identifies an instruction form (e.g. "add", "beq", "lw"). The set of
// forms a Catalog supports is closed and enumerable via Catalog.Forms.
type Form string

// OperandClass describes what kind of value an operand slot holds.
type OperandClass int

const (
	ClassGPR OperandClass = iota
	ClassFPR
	ClassCSR
	ClassImm
	ClassBranchTarget
	ClassJumpTarget
	ClassMemOffset
)

var operandClassName = [...]string{
	ClassGPR: "gpr", ClassFPR: "fpr", ClassCSR: "csr", ClassImm: "imm",
	ClassBranchTarget: "branch-target", ClassJumpTarget: "jump-target",
	ClassMemOffset: "mem-offset",
}

func (c OperandClass) String() string {
	if int(c) < len(operandClassName) {
		return operandClassName[c]
	}
	return fmt.Sprintf("OperandClass(%d)", int(c))
}

// Operand is the union of the values an operand slot can carry. Which field
// is meaningful is determined by the corresponding OperandClass.
type Operand struct {
	Class OperandClass
	Reg   resource.Resource // ClassGPR / ClassFPR / ClassCSR
	Imm   int64             // ClassImm / ClassMemOffset
	Addr  Address           // ClassBranchTarget / ClassJumpTarget
}

// GPR, FPR, CSR, Imm, Branch, Jump, MemOffset are convenience constructors
// for Operand, used throughout the sequence library.
func GPR(id int) Operand          { return Operand{Class: ClassGPR, Reg: resource.Resource{Namespace: resource.GPR, ID: id}} }
func FPR(id int) Operand          { return Operand{Class: ClassFPR, Reg: resource.Resource{Namespace: resource.FPR, ID: id}} }
func CSR(id int) Operand          { return Operand{Class: ClassCSR, Reg: resource.Resource{Namespace: resource.CSR, ID: id}} }
func Imm(v int64) Operand         { return Operand{Class: ClassImm, Imm: v} }
func Branch(addr Address) Operand { return Operand{Class: ClassBranchTarget, Addr: addr} }
func Jump(addr Address) Operand   { return Operand{Class: ClassJumpTarget, Addr: addr} }
func MemOff(v int64) Operand      { return Operand{Class: ClassMemOffset, Imm: v} }

// Classification is the bundle of classifier predicates spec.md §4.1 asks
// for, evaluated per form (operand-independent).
type Classification struct {
	IsLoad         bool
	IsStore        bool
	IsBranch       bool
	IsJump         bool
	IsCSR          bool
	IsPrivileged   bool
	HasSideEffect  bool
}

// TrapKind enumerates the architectural faults the catalog can raise.
type TrapKind int

const (
	TrapFetchMiss TrapKind = iota
	TrapAccessFault
	TrapIllegalInstruction
	TrapCSRViolation
)

var trapKindName = [...]string{
	TrapFetchMiss: "fetch-miss", TrapAccessFault: "access-fault",
	TrapIllegalInstruction: "illegal-instruction", TrapCSRViolation: "csr-violation",
}

func (k TrapKind) String() string {
	if int(k) < len(trapKindName) {
		return trapKindName[k]
	}
	return fmt.Sprintf("TrapKind(%d)", int(k))
}

// Trap is a modeled architectural fault. It is not a Go error: the
// Execution Model routes it to the configured trap handler rather than
// surfacing it as a failure.
type Trap struct {
	Kind TrapKind
	PC   Address
	Note string
}

func (t *Trap) String() string {
	return fmt.Sprintf("trap(%v) at %v: %v", t.Kind, t.PC, t.Note)
}

// State is the execution state threaded through Catalog.Step: the register
// file, PC, and CSR bank. GPR[0] is architecturally fixed at zero; Catalog
// implementations must not write it.
type State struct {
	PC   Address
	GPR  [32]uint32
	FPR  [32]uint32
	CSR  map[int]uint32
	Trap bool
}

// NewState returns a zeroed State with pc as the program counter.
func NewState(pc Address) State {
	return State{PC: pc, CSR: make(map[int]uint32)}
}

// Clone returns a deep-enough copy of st so Step can return a new value
// without aliasing the caller's CSR map.
func (st State) Clone() State {
	out := st
	out.CSR = make(map[int]uint32, len(st.CSR))
	for k, v := range st.CSR {
		out.CSR[k] = v
	}
	return out
}

// Memory is the narrow read/write surface Catalog.Step needs to evaluate
// loads and stores. memory.Store satisfies this interface; isa never
// imports package memory, keeping the catalog side of the boundary pure.
type Memory interface {
	Read(addr Address, n int) ([]byte, error)
	Write(addr Address, data []byte) error
}

// Catalog is the consumed interface described by spec.md §4.1.
type Catalog interface {
	// Forms enumerates every instruction form the catalog supports.
	Forms() []Form
	// OperandClasses returns the operand slots a form expects, in order.
	OperandClasses(f Form) []OperandClass
	// Len returns the encoded length, in bytes, of an instance of f.
	Len(f Form) int
	// Encode renders f(operands) to its machine-code bytes. addr is the
	// address f will be placed at, needed to compute PC-relative branch
	// and jump displacements from the absolute targets operands carries;
	// Encode otherwise consults no other state.
	Encode(f Form, operands []Operand, addr Address) ([]byte, error)
	// Classify returns f's classifier predicates.
	Classify(f Form) Classification
	// Writes returns the resources f(operands) will write, so the
	// reservation layer can check a sequence actually owns its destination.
	Writes(f Form, operands []Operand) []resource.Resource
	// Step executes one instance of f(operands) against st, consulting mem
	// for loads/stores. It returns the new state and, if the instruction
	// faults, a non-nil Trap (in which case the returned state's PC should
	// be ignored by the caller, which redirects to the trap handler).
	Step(f Form, operands []Operand, st State, mem Memory) (State, *Trap)
}
