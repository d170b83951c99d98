// Package memory implements the bounded memory model of spec.md §4.3: a
// set of named banks, a sparse map of placements, and the allocator and
// placement operations the generation engine drives.
//
// Grounded on cpu/arena.go's arena-tagged address ranges (generalized here
// from a fixed four-arena 32-bit CAPP word to a configurable list of byte
// banks) and cpu/program.go's ordered iteration over placed code.
package memory

import (
	"iter"
	"sort"

	"github.com/tibbar-gen/tibbar/internal"
	"github.com/tibbar-gen/tibbar/isa"
)

// Store is the Memory Store of spec.md §4.3.
type Store struct {
	Catalog isa.Catalog
	Banks   []Bank

	instrAlign uint64
	dataReserve uint64

	placements map[isa.Address]*Cell

	codeFree  isa.Address
	codeLimit isa.Address
	codeBankIdx int
	bankFree    map[int]isa.Address

	hasData   bool
	dataBase  isa.Address
	dataFree  isa.Address
	dataLimit isa.Address

	exitAddr isa.Address
	exitSize uint64
	exitSet  bool

	// MidPlacementWarning is set the first time a branch/jump target
	// resolves into the middle of an already-placed instruction rather than
	// its first byte. spec.md §9's open question treats this as legal;
	// engine logs it once.
	MidPlacementWarning bool
}

// NewStore builds a Store over banks. instrAlign is the alignment (and, for
// the placeholder reservations ReserveCode makes before the real
// instruction is known, the assumed length) of an instruction: 4 for the
// base ISA, 2 for compressed, per spec.md §3. dataReserve is the size
// split off the tail of a unified code+data bank when no separate data
// bank is declared (spec.md §3, default 262144 from spec.md §6).
func NewStore(catalog isa.Catalog, banks []Bank, instrAlign uint64, dataReserve uint64) (*Store, error) {
	var codeBank, dataBank *Bank
	codeBankIdx := -1
	for i := range banks {
		b := &banks[i]
		if b.Code {
			if codeBank != nil {
				return nil, &ErrConfig{Reason: "more than one bank has code=true"}
			}
			codeBank = b
			codeBankIdx = i
		}
		if b.Data && b != codeBank {
			if dataBank != nil {
				return nil, &ErrConfig{Reason: "more than one bank has data=true"}
			}
			dataBank = b
		}
	}
	if codeBank == nil {
		return nil, &ErrConfig{Reason: "no bank declares code=true"}
	}

	s := &Store{
		Catalog:     catalog,
		Banks:       banks,
		instrAlign:  instrAlign,
		dataReserve: dataReserve,
		placements:  make(map[isa.Address]*Cell),
		codeFree:    codeBank.Base,
		codeLimit:   codeBank.End(),
		codeBankIdx: codeBankIdx,
	}

	switch {
	case dataBank != nil:
		s.hasData = true
		s.dataBase = dataBank.Base
		s.dataFree = dataBank.Base
		s.dataLimit = dataBank.End()
	case codeBank.Data:
		if dataReserve > codeBank.Size {
			return nil, &ErrConfig{Reason: "data_reserve exceeds unified bank size"}
		}
		s.hasData = true
		s.dataLimit = codeBank.End()
		s.dataFree = s.dataLimit.Add(^(dataReserve - 1)) // codeBank.End() - dataReserve
		s.dataBase = s.dataFree
		s.codeLimit = s.dataFree
	default:
		s.hasData = false
	}

	return s, nil
}

func (s *Store) bankContaining(addr isa.Address, n uint64) *Bank {
	for i := range s.Banks {
		if s.Banks[i].Contains(addr, n) {
			return &s.Banks[i]
		}
	}
	return nil
}

// InCodeBank reports whether [addr, addr+n) lies entirely within a bank
// that permits execute. Any bank with AccessX qualifies, not only the
// primary code=true bank (spec.md §3's placement invariant is phrased in
// terms of access, not the primary-bank flag), so secondary executable
// banks can host relocated code (spec.md §4.7's relocate sequence).
func (s *Store) InCodeBank(addr isa.Address, n uint64) bool {
	b := s.bankContaining(addr, n)
	return b != nil && b.Access.Has(AccessX)
}

func (s *Store) conflictAt(addr isa.Address, n uint64) (*Cell, bool) {
	for _, cell := range s.placements {
		if cell.overlaps(addr, n) {
			return cell, true
		}
	}
	return nil, false
}

// AllocateCode reserves n bytes in the primary code region at the next
// free, aligned address.
func (s *Store) AllocateCode(n uint64, align uint64) (isa.Address, error) {
	addr := s.codeFree.AlignUp(align)
	if uint64(addr)+n > uint64(s.codeLimit) {
		return 0, &ErrOutOfSpace{Region: "code", Need: n}
	}
	if err := s.reserve(addr, n); err != nil {
		return 0, err
	}
	s.codeFree = addr.Add(n)
	return addr, nil
}

// AllocateData reserves n bytes in the data region.
func (s *Store) AllocateData(n uint64, align uint64) (isa.Address, error) {
	if !s.hasData {
		return 0, &ErrOutOfSpace{Region: "data", Need: n}
	}
	addr := s.dataFree.AlignUp(align)
	if uint64(addr)+n > uint64(s.dataLimit) {
		return 0, &ErrOutOfSpace{Region: "data", Need: n}
	}
	if err := s.reserve(addr, n); err != nil {
		return 0, err
	}
	s.dataFree = addr.Add(n)
	return addr, nil
}

// AllocateRelocateCode reserves n bytes in the next bank, other than the
// primary code region, that permits execute and still has room. It is the
// relocate sequence's allocator (spec.md §4.7): when the primary code
// region fills, generation continues in a secondary executable bank
// rather than stalling.
func (s *Store) AllocateRelocateCode(n uint64, align uint64) (isa.Address, error) {
	for i := range s.Banks {
		if i == s.codeBankIdx {
			continue
		}
		b := &s.Banks[i]
		if !b.Access.Has(AccessX) {
			continue
		}
		free, ok := s.bankFree[i]
		if !ok {
			free = b.Base
		}
		addr := free.AlignUp(align)
		if uint64(addr)+n > uint64(b.End()) {
			continue
		}
		if err := s.reserve(addr, n); err != nil {
			continue
		}
		if s.bankFree == nil {
			s.bankFree = make(map[int]isa.Address)
		}
		s.bankFree[i] = addr.Add(n)
		return addr, nil
	}
	return 0, &ErrOutOfSpace{Region: "code", Need: n}
}

func (s *Store) reserve(addr isa.Address, n uint64) error {
	if cell, ok := s.conflictAt(addr, n); ok {
		return &ErrPlacementConflict{Addr: cell.Addr}
	}
	s.placements[addr] = &Cell{Kind: CellReserved, Addr: addr, Len: n}
	return nil
}

// ReserveCode pre-reserves a code address some later branch or jump will
// target (the GenData Reserve item, and the automatic target registration
// PlaceInstruction performs). If target already lies inside a placed
// Instruction (spec.md §9's open question), the reservation is a no-op and
// MidPlacementWarning is set; this is legal as long as target is itself
// instruction-aligned.
func (s *Store) ReserveCode(target isa.Address) error {
	if !s.InCodeBank(target, s.instrAlign) {
		return &ErrBankPermission{Addr: target, Need: AccessX, Reason: "branch target outside code bank"}
	}
	if existing, ok := s.placements[target]; ok {
		switch existing.Kind {
		case CellReserved, CellInstruction:
			return nil
		default:
			return &ErrPlacementConflict{Addr: target}
		}
	}
	if cell, ok := s.conflictAt(target, s.instrAlign); ok {
		if cell.Kind == CellInstruction {
			s.MidPlacementWarning = true
			return nil
		}
		return &ErrPlacementConflict{Addr: cell.Addr}
	}
	s.placements[target] = &Cell{Kind: CellReserved, Addr: target, Len: s.instrAlign}
	return nil
}

// PlaceInstruction encodes form(operands) via the catalog and writes it at
// addr, which must be free or already Reserved. Any branch/jump target
// among operands is registered via ReserveCode so the placement invariant
// (every taken target is placed or reserved) holds.
func (s *Store) PlaceInstruction(addr isa.Address, form isa.Form, operands []isa.Operand) error {
	bytes, err := s.Catalog.Encode(form, operands, addr)
	if err != nil {
		return err
	}
	n := uint64(len(bytes))

	if !s.InCodeBank(addr, n) {
		return &ErrBankPermission{Addr: addr, Need: AccessX, Reason: "instruction placement outside executable bank"}
	}

	if existing, ok := s.placements[addr]; ok {
		if existing.Kind != CellReserved || existing.Len < n {
			return &ErrPlacementConflict{Addr: addr}
		}
	} else if cell, ok := s.conflictAt(addr, n); ok {
		return &ErrPlacementConflict{Addr: cell.Addr}
	}

	s.placements[addr] = &Cell{
		Kind: CellInstruction, Addr: addr, Len: n, Bytes: bytes,
		Form: form, Operands: operands,
	}

	class := s.Catalog.Classify(form)
	if class.IsBranch || class.IsJump {
		for _, op := range operands {
			if op.Class == isa.ClassBranchTarget || op.Class == isa.ClassJumpTarget {
				if err := s.ReserveCode(op.Addr); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// PlaceData writes bytes at addr, which must lie in a readable+writable
// bank (or a data-bank constant pool) and be free or Reserved.
func (s *Store) PlaceData(addr isa.Address, bytes []byte, purpose string) error {
	n := uint64(len(bytes))
	bank := s.bankContaining(addr, n)
	if bank == nil || !bank.Access.Has(AccessR) || (!bank.Access.Has(AccessW) && !bank.Data) {
		return &ErrBankPermission{Addr: addr, Need: AccessR | AccessW, Reason: "data placement outside read-write bank"}
	}

	if existing, ok := s.placements[addr]; ok {
		if existing.Kind != CellReserved || existing.Len < n {
			return &ErrPlacementConflict{Addr: addr}
		}
	} else if cell, ok := s.conflictAt(addr, n); ok {
		return &ErrPlacementConflict{Addr: cell.Addr}
	}

	s.placements[addr] = &Cell{Kind: CellData, Addr: addr, Len: n, Bytes: append([]byte(nil), bytes...), Purpose: purpose}
	return nil
}

// Read returns n bytes starting at addr, honoring bank permissions.
// Unplaced bytes inside a readable bank read back as zero.
func (s *Store) Read(addr isa.Address, n int) ([]byte, error) {
	bank := s.bankContaining(addr, uint64(n))
	if bank == nil || !bank.Access.Has(AccessR) {
		return nil, &ErrBankPermission{Addr: addr, Need: AccessR, Reason: "unmapped or non-readable"}
	}
	out := make([]byte, n)
	for _, cell := range s.placements {
		if cell.Kind != CellInstruction && cell.Kind != CellData {
			continue
		}
		if !cell.overlaps(addr, uint64(n)) {
			continue
		}
		lo := cell.Addr
		if lo < addr {
			lo = addr
		}
		hi := cell.end()
		if hi > addr.Add(uint64(n)) {
			hi = addr.Add(uint64(n))
		}
		copy(out[uint64(lo-addr):], cell.Bytes[uint64(lo-cell.Addr):uint64(hi-cell.Addr)])
	}
	return out, nil
}

// Write implements isa.Memory for the execution model: it lets a placed
// store instruction mutate a previously-placed Data cell in place.
func (s *Store) Write(addr isa.Address, data []byte) error {
	bank := s.bankContaining(addr, uint64(len(data)))
	if bank == nil || !bank.Access.Has(AccessW) {
		return &ErrBankPermission{Addr: addr, Need: AccessW, Reason: "unmapped or non-writable"}
	}
	if cell, ok := s.placements[addr]; ok && cell.Kind == CellData && cell.Len >= uint64(len(data)) {
		copy(cell.Bytes, data)
		return nil
	}
	return &ErrBankPermission{Addr: addr, Need: AccessW, Reason: "no data cell at address to mutate"}
}

// IsPlaced reports whether an Instruction is placed at exactly addr.
func (s *Store) IsPlaced(addr isa.Address) bool {
	cell, ok := s.placements[addr]
	return ok && cell.Kind == CellInstruction
}

// CellAt returns the form and operands of the Instruction placed at exactly
// addr, for the Execution Model's fetch step.
func (s *Store) CellAt(addr isa.Address) (isa.Form, []isa.Operand, bool) {
	cell, ok := s.placements[addr]
	if !ok || cell.Kind != CellInstruction {
		return "", nil, false
	}
	return cell.Form, cell.Operands, true
}

// FreeCodeAddress reports whether addr lies in a bank that permits execute
// and holds no placement or reservation yet (spec.md §4.3's
// free_code_address(addr) query).
func (s *Store) FreeCodeAddress(addr isa.Address) bool {
	if !s.InCodeBank(addr, s.instrAlign) {
		return false
	}
	if _, ok := s.placements[addr]; ok {
		return false
	}
	_, conflict := s.conflictAt(addr, s.instrAlign)
	return !conflict
}

// RemainingCode returns how many bytes are left before the primary code
// region (or the boundary with the data reserve) is exhausted, measured
// from the allocator's bump pointer. Sequences that reserve forward
// addresses in the primary region via AllocateCode should use this; callers
// tracking the PC-driven placement cursor should use RemainingInBank
// instead, since codeFree never moves as instructions are placed directly
// at pc.
func (s *Store) RemainingCode() uint64 {
	return uint64(s.codeLimit) - uint64(s.codeFree)
}

// RemainingInBank returns how many bytes of code space remain between addr
// and the end of the executable bank containing it. For the primary code
// bank this is codeLimit, which may fall short of the bank's real end when
// a data reserve is carved from its tail; for any other executable bank
// (relocation targets) it is the bank's own end. Returns 0 if addr does not
// lie in an executable bank.
func (s *Store) RemainingInBank(addr isa.Address) uint64 {
	b := s.bankContaining(addr, 1)
	if b == nil || !b.Access.Has(AccessX) {
		return 0
	}
	end := b.End()
	if s.codeBankIdx >= 0 && b == &s.Banks[s.codeBankIdx] {
		end = s.codeLimit
	}
	if addr >= end {
		return 0
	}
	return uint64(end - addr)
}

// ReserveExit carves out the end-sequence window: it must lie inside the
// code region, must not be address zero, and must have room for size
// bytes (spec.md §4.3's exit-region invariants (a)-(d); (c), non-overlap
// with boot, is checked by the caller once both addresses are chosen).
func (s *Store) ReserveExit(addr isa.Address, size uint64) error {
	if addr == 0 {
		return &ErrConfig{Reason: "exit address must not be zero"}
	}
	if !s.InCodeBank(addr, size) {
		return &ErrBankPermission{Addr: addr, Need: AccessX, Reason: "exit region outside code bank"}
	}
	if err := s.reserve(addr, size); err != nil {
		return err
	}
	s.exitAddr = addr
	s.exitSize = size
	s.exitSet = true
	return nil
}

// CodeRegion returns the bounds of the primary code region.
func (s *Store) CodeRegion() (base, limit isa.Address) {
	return s.Banks[s.codeBankIdx].Base, s.codeLimit
}

// DataRegion returns the bounds of the data region (a separate data bank,
// or the data-reserve tail of a unified bank), and whether one exists.
func (s *Store) DataRegion() (base, limit isa.Address, ok bool) {
	return s.dataBase, s.dataLimit, s.hasData
}

// ExitRegion returns the reserved exit window.
func (s *Store) ExitRegion() (isa.Address, uint64) {
	return s.exitAddr, s.exitSize
}

// InExitRegion reports whether addr lies inside the reserved exit window.
func (s *Store) InExitRegion(addr isa.Address) bool {
	return s.exitSet && addr >= s.exitAddr && uint64(addr-s.exitAddr) < s.exitSize
}

// Cells returns every placement in ascending address order, for the
// emitter and for property tests.
func (s *Store) Cells() []*Cell {
	out := make([]*Cell, 0, len(s.placements))
	for _, c := range s.placements {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

func (s *Store) cellsOf(kind CellKind) iter.Seq[*Cell] {
	return func(yield func(*Cell) bool) {
		for _, c := range s.Cells() {
			if c.Kind == kind {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// CellsOfKind iterates placements restricted to kinds, in ascending
// address order within each kind, without the caller allocating an
// intermediate slice. The per-kind sequences are stitched together with
// internal.IterSeqConcat, so a single-kind call (the emitter's only use
// so far) is plain address-ordered iteration.
func (s *Store) CellsOfKind(kinds ...CellKind) iter.Seq[*Cell] {
	seqs := make([]iter.Seq[*Cell], len(kinds))
	for i, k := range kinds {
		seqs[i] = s.cellsOf(k)
	}
	return internal.IterSeqConcat(seqs...)
}

// UnresolvedReservations returns every Reserved code cell that was never
// fulfilled by a placement — the UnplacedTarget error condition, checked
// once at end-of-generation. Reservations inside the data region (data
// allocations such as the stack) and the exit window (filled by the end
// sequence) are not branch targets and are not reported.
func (s *Store) UnresolvedReservations() []isa.Address {
	var out []isa.Address
	for addr, c := range s.placements {
		inData := s.hasData && addr >= s.dataBase && addr < s.dataLimit
		if c.Kind == CellReserved && !inData && !s.InExitRegion(addr) {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
