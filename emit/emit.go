// Package emit converts a placed memory.Store into the assembly text and
// debug YAML of spec.md §6's External Interfaces: a header of comments
// identifying the run's key addresses, a .text section with one
// instruction per line prefixed by its absolute address, and, when data
// blobs were placed, a .data section whose entries are annotated with
// their offset from the data region's base, for the linker script to
// position at that base. The "# Data region:" header line is written only
// when the data region lies outside the code bank.
//
// Grounded on cpu/program.go's Codes() ordered iteration over placed code,
// and io/fs.go's CreateFS interface, which the emitter writes through
// unchanged so its output targets any CreateFS implementation (the real
// filesystem via io.NewOSFS, or an in-memory double in tests).
package emit

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	tibbario "github.com/tibbar-gen/tibbar/io"
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/memory"
)

// Sink is the output filesystem the emitter writes to. It is io/fs.go's
// CreateFS: the emitter only calls Create, but keeping the full interface
// lets a Sink also be handed to code that needs Sub/Mkdir, such as a
// future per-run output directory.
type Sink = tibbario.CreateFS

// Run bundles everything the emitter needs to know about a completed
// generation run beyond what is recoverable from the Store alone: the
// chosen boot/exit addresses and the generator name, for the header
// comments and debug YAML.
type Run struct {
	Generator string
	Seed      int64
	Boot      isa.Address
	Exit      isa.Address
}

// Assembly writes the assembly text output of spec.md §6 to name via sink.
func Assembly(sink Sink, name string, mem *memory.Store, run Run) error {
	w, err := sink.Create(name)
	if err != nil {
		return err
	}
	defer w.Close()

	var b strings.Builder
	writeHeader(&b, mem, run)
	writeText(&b, mem)
	writeData(&b, mem)

	_, err = io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, mem *memory.Store, run Run) {
	codeBase, codeLimit := mem.CodeRegion()
	ramSize := uint64(codeLimit - codeBase)

	fmt.Fprintf(b, "# Load address: %v\n", codeBase)
	fmt.Fprintf(b, "# RAM size: 0x%x\n", ramSize)
	fmt.Fprintf(b, "# Boot: %v\n", run.Boot)
	fmt.Fprintf(b, "# Exit: %v\n", run.Exit)

	if dataBase, _, ok := mem.DataRegion(); ok {
		distinct := true
		for _, bank := range mem.Banks {
			if bank.Code && bank.Contains(dataBase, 1) {
				distinct = false
			}
		}
		if distinct {
			fmt.Fprintf(b, "# Data region: %v\n", dataBase)
		}
	}
	fmt.Fprintf(b, "# Generator: %v\n", run.Generator)
	fmt.Fprintf(b, "# Seed: %v\n", run.Seed)
	b.WriteByte('\n')
}

func writeText(b *strings.Builder, mem *memory.Store) {
	b.WriteString(".section .text\n")
	for cell := range mem.CellsOfKind(memory.CellInstruction) {
		fmt.Fprintf(b, "%v: %v\n", cell.Addr, formatInstr(cell.Form, cell.Operands))
	}
}

func writeData(b *strings.Builder, mem *memory.Store) {
	dataBase, _, ok := mem.DataRegion()
	if !ok {
		return
	}

	wrote := false
	for cell := range mem.CellsOfKind(memory.CellData) {
		if !wrote {
			b.WriteByte('\n')
			b.WriteString(".section .data\n")
			wrote = true
		}
		offset := uint64(cell.Addr - dataBase)
		fmt.Fprintf(b, "# %v (offset 0x%x, %d bytes)\n", cell.Purpose, offset, cell.Len)
		b.WriteString(".byte ")
		for i, byt := range cell.Bytes {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "0x%02x", byt)
		}
		b.WriteByte('\n')
	}
}

// formatInstr renders one placed instruction as "mnemonic op1, op2, ...",
// in the order the catalog declared its operands.
func formatInstr(form isa.Form, operands []isa.Operand) string {
	parts := make([]string, len(operands))
	for i, op := range operands {
		parts[i] = formatOperand(op)
	}
	if len(parts) == 0 {
		return string(form)
	}
	return string(form) + " " + strings.Join(parts, ", ")
}

func formatOperand(op isa.Operand) string {
	switch op.Class {
	case isa.ClassGPR:
		return fmt.Sprintf("x%d", op.Reg.ID)
	case isa.ClassFPR:
		return fmt.Sprintf("f%d", op.Reg.ID)
	case isa.ClassCSR:
		return fmt.Sprintf("0x%x", op.Reg.ID)
	case isa.ClassImm:
		return fmt.Sprintf("%d", op.Imm)
	case isa.ClassMemOffset:
		return fmt.Sprintf("%d", op.Imm)
	case isa.ClassBranchTarget, isa.ClassJumpTarget:
		return op.Addr.String()
	default:
		return "?"
	}
}

// DebugDoc is the optional debug YAML document of spec.md §6: the memory
// map, chosen boot/exit addresses, and run metadata sufficient to
// reconstruct the run.
type DebugDoc struct {
	Generator string    `yaml:"generator"`
	Seed      int64     `yaml:"seed"`
	Boot      string    `yaml:"boot"`
	Exit      string    `yaml:"exit"`
	Banks     []bankDoc `yaml:"banks"`
	DataBlobs []dataDoc `yaml:"data_blobs,omitempty"`
}

type bankDoc struct {
	Name   string `yaml:"name"`
	Base   string `yaml:"base"`
	Size   uint64 `yaml:"size"`
	Code   bool   `yaml:"code"`
	Data   bool   `yaml:"data"`
	Access string `yaml:"access"`
}

type dataDoc struct {
	Addr    string `yaml:"addr"`
	Size    uint64 `yaml:"size"`
	Purpose string `yaml:"purpose"`
}

// DebugYAML writes the debug YAML document to name via sink.
func DebugYAML(sink Sink, name string, mem *memory.Store, run Run) error {
	doc := DebugDoc{
		Generator: run.Generator,
		Seed:      run.Seed,
		Boot:      run.Boot.String(),
		Exit:      run.Exit.String(),
	}
	for _, bank := range mem.Banks {
		doc.Banks = append(doc.Banks, bankDoc{
			Name: bank.Name, Base: bank.Base.String(), Size: bank.Size,
			Code: bank.Code, Data: bank.Data, Access: bank.Access.String(),
		})
	}
	for cell := range mem.CellsOfKind(memory.CellData) {
		doc.DataBlobs = append(doc.DataBlobs, dataDoc{
			Addr: cell.Addr.String(), Size: cell.Len, Purpose: cell.Purpose,
		})
	}

	w, err := sink.Create(name)
	if err != nil {
		return err
	}
	defer w.Close()

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}
