package gen

import "github.com/tibbar-gen/tibbar/isa"

// materialize returns the LUI+ADDI pair that loads the 32-bit constant
// value into register id, the standard RISC-V "li" expansion: LUI supplies
// the upper 20 bits and ADDI's signed 12-bit immediate supplies the rest,
// with the upper half bumped by one when the low 12 bits would sign-extend
// negative (spec.md §4.5's SetGPRs/Load/Store/boot sequences all need this).
func materialize(id int, value uint32) [2]GenData {
	hi := (value + 0x800) >> 12
	lo := int64(value) - int64(hi<<12)
	return [2]GenData{
		Instr("lui", []isa.Operand{isa.GPR(id), isa.Imm(int64(hi))}),
		Instr("addi", []isa.Operand{isa.GPR(id), isa.GPR(id), isa.Imm(lo)}),
	}
}
