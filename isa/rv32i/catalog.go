// Package rv32i is a concrete isa.Catalog for the RV32I base integer ISA
// plus a representative slice of the F (single-precision float) extension,
// enough to exercise every sequence in the sequence library.
//
// Grounded on cpu/opcode.go's enumerated-opcode-plus-decode-function style
// (CodeAluOp/AluDecode/MakeCodeAlu, ...) and cpu/cpu.go's Execute switch,
// generalized from the CAPP's four instruction classes to RV32I's six
// instruction formats (R/I/S/B/U/J).
package rv32i

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/resource"
)

// kind identifies which of the RISC-V base instruction formats a form uses.
type kind int

const (
	kindR   kind = iota // rd, rs1, rs2
	kindI               // rd, rs1, imm12
	kindLoad            // rd, rs1(base), imm12 offset -- same bits as kindI, different Classify
	kindS               // rs1(base), rs2(value), imm12 offset
	kindB               // rs1, rs2, branch-offset(imm13, even)
	kindU               // rd, imm20<<12
	kindJ               // rd, jump-offset(imm21, even)
	kindCSR             // rd, csr, rs1 (CSRRW/CSRRS) or rd, csr, imm5 (CSRRCI)
	kindNone            // no operands (ECALL/EBREAK)
	kindFR3             // frd, frs1, frs2 (OP-FP, 3 float operands)
	kindFR1             // frd, frs1 (FSQRT.S)
	kindFLoad           // frd, rs1(base), imm12 offset
	kindFStore          // rs1(base), frs2(value), imm12 offset
	kindFMVWX           // frd, rs1 (bit-move GPR -> FPR)
	kindFMVXW           // rd, frs1  (bit-move FPR -> GPR)
)

type spec struct {
	kind    kind
	opcode  uint32
	funct3  uint32
	funct7  uint32
	isLoad  bool
	isStore bool
	isCSR   bool
	priv    bool
	side    bool
}

var table = map[isa.Form]spec{
	"add":  {kind: kindR, opcode: 0b0110011, funct3: 0x0, funct7: 0x00},
	"sub":  {kind: kindR, opcode: 0b0110011, funct3: 0x0, funct7: 0x20},
	"and":  {kind: kindR, opcode: 0b0110011, funct3: 0x7, funct7: 0x00},
	"or":   {kind: kindR, opcode: 0b0110011, funct3: 0x6, funct7: 0x00},
	"xor":  {kind: kindR, opcode: 0b0110011, funct3: 0x4, funct7: 0x00},
	"slt":  {kind: kindR, opcode: 0b0110011, funct3: 0x2, funct7: 0x00},
	"sltu": {kind: kindR, opcode: 0b0110011, funct3: 0x3, funct7: 0x00},
	"sll":  {kind: kindR, opcode: 0b0110011, funct3: 0x1, funct7: 0x00},
	"srl":  {kind: kindR, opcode: 0b0110011, funct3: 0x5, funct7: 0x00},
	"sra":  {kind: kindR, opcode: 0b0110011, funct3: 0x5, funct7: 0x20},

	"addi": {kind: kindI, opcode: 0b0010011, funct3: 0x0},
	"andi": {kind: kindI, opcode: 0b0010011, funct3: 0x7},
	"ori":  {kind: kindI, opcode: 0b0010011, funct3: 0x6},
	"xori": {kind: kindI, opcode: 0b0010011, funct3: 0x4},
	"slti": {kind: kindI, opcode: 0b0010011, funct3: 0x2},

	"lb":  {kind: kindLoad, opcode: 0b0000011, funct3: 0x0, isLoad: true},
	"lh":  {kind: kindLoad, opcode: 0b0000011, funct3: 0x1, isLoad: true},
	"lw":  {kind: kindLoad, opcode: 0b0000011, funct3: 0x2, isLoad: true},
	"lbu": {kind: kindLoad, opcode: 0b0000011, funct3: 0x4, isLoad: true},
	"lhu": {kind: kindLoad, opcode: 0b0000011, funct3: 0x5, isLoad: true},

	"sb": {kind: kindS, opcode: 0b0100011, funct3: 0x0, isStore: true},
	"sh": {kind: kindS, opcode: 0b0100011, funct3: 0x1, isStore: true},
	"sw": {kind: kindS, opcode: 0b0100011, funct3: 0x2, isStore: true},

	"beq":  {kind: kindB, opcode: 0b1100011, funct3: 0x0},
	"bne":  {kind: kindB, opcode: 0b1100011, funct3: 0x1},
	"blt":  {kind: kindB, opcode: 0b1100011, funct3: 0x4},
	"bge":  {kind: kindB, opcode: 0b1100011, funct3: 0x5},
	"bltu": {kind: kindB, opcode: 0b1100011, funct3: 0x6},
	"bgeu": {kind: kindB, opcode: 0b1100011, funct3: 0x7},

	"jal":  {kind: kindJ, opcode: 0b1101111},
	"jalr": {kind: kindI, opcode: 0b1100111, funct3: 0x0},

	"lui":   {kind: kindU, opcode: 0b0110111},
	"auipc": {kind: kindU, opcode: 0b0010111},

	"csrrw":  {kind: kindCSR, opcode: 0b1110011, funct3: 0x1, isCSR: true, side: true},
	"csrrs":  {kind: kindCSR, opcode: 0b1110011, funct3: 0x2, isCSR: true, side: true},
	"csrrci": {kind: kindCSR, opcode: 0b1110011, funct3: 0x7, isCSR: true, side: true},

	"ecall":  {kind: kindNone, opcode: 0b1110011, funct3: 0x0, priv: true, side: true},
	"ebreak": {kind: kindNone, opcode: 0b1110011, funct3: 0x0, funct7: 1, priv: true, side: true},

	"fadd.s":  {kind: kindFR3, opcode: 0b1010011, funct7: 0x00},
	"fsub.s":  {kind: kindFR3, opcode: 0b1010011, funct7: 0x04},
	"fmul.s":  {kind: kindFR3, opcode: 0b1010011, funct7: 0x08},
	"fdiv.s":  {kind: kindFR3, opcode: 0b1010011, funct7: 0x0c},
	"fsqrt.s": {kind: kindFR1, opcode: 0b1010011, funct7: 0x2c},

	"flw": {kind: kindFLoad, opcode: 0b0000111, funct3: 0x2, isLoad: true},
	"fsw": {kind: kindFStore, opcode: 0b0100111, funct3: 0x2, isStore: true},

	"fmv.w.x": {kind: kindFMVWX, opcode: 0b1010011, funct3: 0x0, funct7: 0x78},
	"fmv.x.w": {kind: kindFMVXW, opcode: 0b1010011, funct3: 0x0, funct7: 0x70},
}

// formOrder fixes the Forms() enumeration order so catalog behavior is
// deterministic independent of Go's map iteration.
var formOrder = []isa.Form{
	"add", "sub", "and", "or", "xor", "slt", "sltu", "sll", "srl", "sra",
	"addi", "andi", "ori", "xori", "slti",
	"lb", "lh", "lw", "lbu", "lhu",
	"sb", "sh", "sw",
	"beq", "bne", "blt", "bge", "bltu", "bgeu",
	"jal", "jalr",
	"lui", "auipc",
	"csrrw", "csrrs", "csrrci",
	"ecall", "ebreak",
	"fadd.s", "fsub.s", "fmul.s", "fdiv.s", "fsqrt.s",
	"flw", "fsw",
	"fmv.w.x", "fmv.x.w",
}

// InstrAlign is the instruction address alignment of the base ISA
// (spec.md §3: "4-byte aligned (base ISA)" -- RV32I carries no compressed
// extension, so every form here is one fixed-width 4-byte word).
const InstrAlign = 4

// Catalog implements isa.Catalog for RV32I+F.
type Catalog struct{}

// New returns the RV32I+F catalog.
func New() *Catalog { return &Catalog{} }

func (c *Catalog) Forms() []isa.Form {
	out := make([]isa.Form, len(formOrder))
	copy(out, formOrder)
	return out
}

func (c *Catalog) Len(isa.Form) int { return 4 }

func (c *Catalog) OperandClasses(form isa.Form) []isa.OperandClass {
	s, ok := table[form]
	if !ok {
		return nil
	}
	switch s.kind {
	case kindR:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassGPR}
	case kindI:
		if form == "jalr" {
			return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassJumpTarget}
		}
		return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassImm}
	case kindLoad:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassMemOffset}
	case kindS:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassMemOffset}
	case kindB:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassGPR, isa.ClassBranchTarget}
	case kindU:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassImm}
	case kindJ:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassJumpTarget}
	case kindCSR:
		if form == "csrrci" {
			return []isa.OperandClass{isa.ClassGPR, isa.ClassCSR, isa.ClassImm}
		}
		return []isa.OperandClass{isa.ClassGPR, isa.ClassCSR, isa.ClassGPR}
	case kindNone:
		return nil
	case kindFR3:
		return []isa.OperandClass{isa.ClassFPR, isa.ClassFPR, isa.ClassFPR}
	case kindFR1:
		return []isa.OperandClass{isa.ClassFPR, isa.ClassFPR}
	case kindFLoad:
		return []isa.OperandClass{isa.ClassFPR, isa.ClassGPR, isa.ClassMemOffset}
	case kindFStore:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassFPR, isa.ClassMemOffset}
	case kindFMVWX:
		return []isa.OperandClass{isa.ClassFPR, isa.ClassGPR}
	case kindFMVXW:
		return []isa.OperandClass{isa.ClassGPR, isa.ClassFPR}
	}
	return nil
}

func (c *Catalog) Classify(form isa.Form) isa.Classification {
	s := table[form]
	return isa.Classification{
		IsLoad:        s.isLoad,
		IsStore:       s.isStore,
		IsBranch:      s.kind == kindB,
		IsJump:        s.kind == kindJ || form == "jalr",
		IsCSR:         s.isCSR,
		IsPrivileged:  s.priv,
		HasSideEffect: s.side,
	}
}

func regNum(op isa.Operand) uint32 { return uint32(op.Reg.ID) }

// Encode renders form(operands) to its 4-byte little-endian instruction word.
// addr is where the instruction will live, needed to turn a branch/jump
// operand's absolute target into a PC-relative displacement.
func (c *Catalog) Encode(form isa.Form, operands []isa.Operand, addr isa.Address) ([]byte, error) {
	s, ok := table[form]
	if !ok {
		return nil, fmt.Errorf("rv32i: unknown form %q", form)
	}

	var word uint32
	switch s.kind {
	case kindR:
		rd, rs1, rs2 := regNum(operands[0]), regNum(operands[1]), regNum(operands[2])
		word = encodeR(s.opcode, rd, s.funct3, rs1, rs2, s.funct7)
	case kindI:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		var imm int64
		if form == "jalr" {
			imm = 0 // displacement folded into the target by the sequence; jalr here always targets rs1+0
		} else {
			imm = operands[2].Imm
		}
		word = encodeI(s.opcode, rd, s.funct3, rs1, uint32(imm)&0xfff)
	case kindLoad:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		word = encodeI(s.opcode, rd, s.funct3, rs1, uint32(operands[2].Imm)&0xfff)
	case kindS:
		rs1, rs2 := regNum(operands[0]), regNum(operands[1])
		word = encodeS(s.opcode, s.funct3, rs1, rs2, uint32(operands[2].Imm)&0xfff)
	case kindB:
		rs1, rs2 := regNum(operands[0]), regNum(operands[1])
		offset := uint32(int64(operands[2].Addr) - int64(addr))
		word = encodeB(s.opcode, s.funct3, rs1, rs2, offset)
	case kindU:
		rd := regNum(operands[0])
		word = encodeU(s.opcode, rd, uint32(operands[1].Imm))
	case kindJ:
		rd := regNum(operands[0])
		offset := uint32(int64(operands[1].Addr) - int64(addr))
		word = encodeJ(s.opcode, rd, offset)
	case kindCSR:
		rd, csr := regNum(operands[0]), uint32(operands[1].Reg.ID)
		if form == "csrrci" {
			word = encodeI(s.opcode, rd, s.funct3, uint32(operands[2].Imm)&0x1f, csr)
		} else {
			rs1 := regNum(operands[2])
			word = encodeI(s.opcode, rd, s.funct3, rs1, csr)
		}
	case kindNone:
		word = encodeI(s.opcode, 0, s.funct3, 0, s.funct7)
	case kindFR3:
		rd, rs1, rs2 := regNum(operands[0]), regNum(operands[1]), regNum(operands[2])
		word = encodeR(s.opcode, rd, 0x7, rs1, rs2, s.funct7) // funct3=111 (dynamic rounding mode)
	case kindFR1:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		word = encodeR(s.opcode, rd, 0x7, rs1, 0, s.funct7)
	case kindFLoad:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		word = encodeI(s.opcode, rd, s.funct3, rs1, uint32(operands[2].Imm)&0xfff)
	case kindFStore:
		rs1, rs2 := regNum(operands[0]), regNum(operands[1])
		word = encodeS(s.opcode, s.funct3, rs1, rs2, uint32(operands[2].Imm)&0xfff)
	case kindFMVWX:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		word = encodeR(s.opcode, rd, s.funct3, rs1, 0, s.funct7)
	case kindFMVXW:
		rd, rs1 := regNum(operands[0]), regNum(operands[1])
		word = encodeR(s.opcode, rd, s.funct3, rs1, 0, s.funct7)
	}

	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, word)
	return out, nil
}

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeI(opcode, rd, funct3, rs1, imm12 uint32) uint32 {
	return ((imm12 & 0xfff) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeS(opcode, funct3, rs1, rs2, imm12 uint32) uint32 {
	imm := imm12 & 0xfff
	lo := imm & 0x1f
	hi := (imm >> 5) & 0x7f
	return (hi << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (lo << 7) | opcode
}

func encodeB(opcode, funct3, rs1, rs2, imm13 uint32) uint32 {
	// imm13 is a 13-bit signed byte offset, bit 0 implicitly zero.
	b12 := (imm13 >> 12) & 0x1
	b11 := (imm13 >> 11) & 0x1
	b10_5 := (imm13 >> 5) & 0x3f
	b4_1 := (imm13 >> 1) & 0xf
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

func encodeU(opcode, rd, imm20 uint32) uint32 {
	return (imm20 << 12) | (rd << 7) | opcode
}

func encodeJ(opcode, rd, imm21 uint32) uint32 {
	// imm21 is a 21-bit signed byte offset, bit 0 implicitly zero.
	b20 := (imm21 >> 20) & 0x1
	b19_12 := (imm21 >> 12) & 0xff
	b11 := (imm21 >> 11) & 0x1
	b10_1 := (imm21 >> 1) & 0x3ff
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

// Writes returns the resources form(operands) mutates.
func (c *Catalog) Writes(form isa.Form, operands []isa.Operand) []resource.Resource {
	s, ok := table[form]
	if !ok || len(operands) == 0 {
		return nil
	}
	switch s.kind {
	case kindR, kindI, kindLoad, kindU, kindJ, kindCSR, kindFMVXW:
		if operands[0].Reg.ID == 0 && operands[0].Class == isa.ClassGPR {
			return nil // writes to x0 are architecturally discarded
		}
		return []resource.Resource{operands[0].Reg}
	case kindFR3, kindFR1, kindFLoad, kindFMVWX:
		return []resource.Resource{operands[0].Reg}
	default:
		return nil
	}
}

// Step executes one instance of form(operands) against st.
func (c *Catalog) Step(form isa.Form, operands []isa.Operand, st isa.State, mem isa.Memory) (isa.State, *isa.Trap) {
	out := st.Clone()
	pc := st.PC
	next := pc.Add(4)

	setGPR := func(id int, v uint32) {
		if id != 0 {
			out.GPR[id] = v
		}
	}
	setFPR := func(id int, v uint32) { out.FPR[id] = v }

	switch form {
	case "add":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]+st.GPR[operands[2].Reg.ID])
	case "sub":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]-st.GPR[operands[2].Reg.ID])
	case "and":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]&st.GPR[operands[2].Reg.ID])
	case "or":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]|st.GPR[operands[2].Reg.ID])
	case "xor":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]^st.GPR[operands[2].Reg.ID])
	case "slt":
		v := uint32(0)
		if int32(st.GPR[operands[1].Reg.ID]) < int32(st.GPR[operands[2].Reg.ID]) {
			v = 1
		}
		setGPR(int(operands[0].Reg.ID), v)
	case "sltu":
		v := uint32(0)
		if st.GPR[operands[1].Reg.ID] < st.GPR[operands[2].Reg.ID] {
			v = 1
		}
		setGPR(int(operands[0].Reg.ID), v)
	case "sll":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]<<(st.GPR[operands[2].Reg.ID]&0x1f))
	case "srl":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]>>(st.GPR[operands[2].Reg.ID]&0x1f))
	case "sra":
		setGPR(int(operands[0].Reg.ID), uint32(int32(st.GPR[operands[1].Reg.ID])>>(st.GPR[operands[2].Reg.ID]&0x1f)))
	case "addi":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]+uint32(operands[2].Imm))
	case "andi":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]&uint32(operands[2].Imm))
	case "ori":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]|uint32(operands[2].Imm))
	case "xori":
		setGPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID]^uint32(operands[2].Imm))
	case "slti":
		v := uint32(0)
		if int32(st.GPR[operands[1].Reg.ID]) < int32(operands[2].Imm) {
			v = 1
		}
		setGPR(int(operands[0].Reg.ID), v)
	case "lb", "lh", "lw", "lbu", "lhu":
		size := map[isa.Form]int{"lb": 1, "lh": 2, "lw": 4, "lbu": 1, "lhu": 2}[form]
		addr := isa.Address(st.GPR[operands[1].Reg.ID]).Add(uint64(operands[2].Imm))
		bytes, err := mem.Read(addr, size)
		if err != nil {
			return st, &isa.Trap{Kind: isa.TrapAccessFault, PC: pc, Note: fmt.Sprintf("%v at %v", form, addr)}
		}
		v := loadValue(form, bytes)
		setGPR(int(operands[0].Reg.ID), v)
	case "sb", "sh", "sw":
		size := map[isa.Form]int{"sb": 1, "sh": 2, "sw": 4}[form]
		addr := isa.Address(st.GPR[operands[0].Reg.ID]).Add(uint64(operands[2].Imm))
		buf := make([]byte, size)
		v := st.GPR[operands[1].Reg.ID]
		for i := 0; i < size; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		if err := mem.Write(addr, buf); err != nil {
			return st, &isa.Trap{Kind: isa.TrapAccessFault, PC: pc, Note: fmt.Sprintf("%v at %v", form, addr)}
		}
	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		a, b := st.GPR[operands[0].Reg.ID], st.GPR[operands[1].Reg.ID]
		taken := false
		switch form {
		case "beq":
			taken = a == b
		case "bne":
			taken = a != b
		case "blt":
			taken = int32(a) < int32(b)
		case "bge":
			taken = int32(a) >= int32(b)
		case "bltu":
			taken = a < b
		case "bgeu":
			taken = a >= b
		}
		if taken {
			next = operands[2].Addr
		}
	case "jal":
		setGPR(int(operands[0].Reg.ID), uint32(next))
		next = operands[1].Addr
	case "jalr":
		setGPR(int(operands[0].Reg.ID), uint32(next))
		next = isa.Address(st.GPR[operands[1].Reg.ID])
	case "lui":
		setGPR(int(operands[0].Reg.ID), uint32(operands[1].Imm)<<12)
	case "auipc":
		setGPR(int(operands[0].Reg.ID), uint32(pc)+uint32(operands[1].Imm)<<12)
	case "csrrw":
		csr := int(operands[1].Reg.ID)
		old := out.CSR[csr]
		out.CSR[csr] = st.GPR[operands[2].Reg.ID]
		setGPR(int(operands[0].Reg.ID), old)
	case "csrrs":
		csr := int(operands[1].Reg.ID)
		old := out.CSR[csr]
		out.CSR[csr] = old | st.GPR[operands[2].Reg.ID]
		setGPR(int(operands[0].Reg.ID), old)
	case "csrrci":
		csr := int(operands[1].Reg.ID)
		old := out.CSR[csr]
		out.CSR[csr] = old &^ uint32(operands[2].Imm)
		setGPR(int(operands[0].Reg.ID), old)
	case "ecall":
		return st, &isa.Trap{Kind: isa.TrapIllegalInstruction, PC: pc, Note: "ecall"}
	case "ebreak":
		return st, &isa.Trap{Kind: isa.TrapIllegalInstruction, PC: pc, Note: "ebreak"}
	case "fadd.s":
		setFPR(int(operands[0].Reg.ID), f32bits(bitsF32(st.FPR[operands[1].Reg.ID])+bitsF32(st.FPR[operands[2].Reg.ID])))
	case "fsub.s":
		setFPR(int(operands[0].Reg.ID), f32bits(bitsF32(st.FPR[operands[1].Reg.ID])-bitsF32(st.FPR[operands[2].Reg.ID])))
	case "fmul.s":
		setFPR(int(operands[0].Reg.ID), f32bits(bitsF32(st.FPR[operands[1].Reg.ID])*bitsF32(st.FPR[operands[2].Reg.ID])))
	case "fdiv.s":
		setFPR(int(operands[0].Reg.ID), f32bits(bitsF32(st.FPR[operands[1].Reg.ID])/bitsF32(st.FPR[operands[2].Reg.ID])))
	case "fsqrt.s":
		setFPR(int(operands[0].Reg.ID), f32bits(float32(math.Sqrt(float64(bitsF32(st.FPR[operands[1].Reg.ID]))))))
	case "flw":
		addr := isa.Address(st.GPR[operands[1].Reg.ID]).Add(uint64(operands[2].Imm))
		bytes, err := mem.Read(addr, 4)
		if err != nil {
			return st, &isa.Trap{Kind: isa.TrapAccessFault, PC: pc, Note: "flw"}
		}
		setFPR(int(operands[0].Reg.ID), binary.LittleEndian.Uint32(bytes))
	case "fsw":
		addr := isa.Address(st.GPR[operands[0].Reg.ID]).Add(uint64(operands[2].Imm))
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, st.FPR[operands[1].Reg.ID])
		if err := mem.Write(addr, buf); err != nil {
			return st, &isa.Trap{Kind: isa.TrapAccessFault, PC: pc, Note: "fsw"}
		}
	case "fmv.w.x":
		setFPR(int(operands[0].Reg.ID), st.GPR[operands[1].Reg.ID])
	case "fmv.x.w":
		setGPR(int(operands[0].Reg.ID), st.FPR[operands[1].Reg.ID])
	default:
		return st, &isa.Trap{Kind: isa.TrapIllegalInstruction, PC: pc, Note: string(form)}
	}

	out.PC = next
	return out, nil
}

func loadValue(form isa.Form, bytes []byte) uint32 {
	buf := make([]byte, 4)
	copy(buf, bytes)
	raw := binary.LittleEndian.Uint32(buf)
	switch form {
	case "lb":
		return uint32(int32(int8(raw)))
	case "lh":
		return uint32(int32(int16(raw)))
	default:
		return raw
	}
}

func bitsF32(bits uint32) float32 { return math.Float32frombits(bits) }
func f32bits(v float32) uint32    { return math.Float32bits(v) }
