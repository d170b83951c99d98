package memory

import (
	"github.com/tibbar-gen/tibbar/isa"
)

// CellKind tags the variant stored at a Placement's address.
type CellKind int

const (
	CellFree CellKind = iota
	CellReserved
	CellInstruction
	CellData
)

var cellKindName = [...]string{
	CellFree: "free", CellReserved: "reserved", CellInstruction: "instruction", CellData: "data",
}

func (k CellKind) String() string {
	if int(k) < len(cellKindName) {
		return cellKindName[k]
	}
	return "cell(?)"
}

// Cell is one placed item: an Instruction, a Data blob, or a Reserved
// placeholder awaiting a later placement (spec.md §3's "Cell" variant).
type Cell struct {
	Kind     CellKind
	Addr     isa.Address
	Len      uint64
	Bytes    []byte
	Form     isa.Form
	Operands []isa.Operand
	Purpose  string // data blobs only
}

func (c *Cell) end() isa.Address {
	return c.Addr.Add(c.Len)
}

func (c *Cell) overlaps(addr isa.Address, n uint64) bool {
	end := addr.Add(n)
	return addr < c.end() && c.Addr < end
}
