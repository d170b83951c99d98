// Package config loads and validates the memory configuration and run
// parameters of spec.md §6. The YAML schema is hand-validated, in the
// style of cpu/assembler.go's hand-rolled parse errors: no pack example
// imports a JSON-Schema library, so a schema violation is reported as a
// ConfigError built the same way cpu/assembler.go reports a syntax error.
// Numeric fields (Expr) additionally accept a starlark expression string,
// reusing cpu/assembler.go's compile-time "$(...)" evaluation for deriving
// one address from another.
package config

import (
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/memory"
)

// DefaultDataReserve is the byte count split off the tail of a unified
// code+data bank when no separate data bank is declared (spec.md §6).
const DefaultDataReserve = 262144

// DefaultSeed is the run seed used when none is supplied (spec.md §6).
const DefaultSeed = 42

// DefaultOutput is the assembly output path used when none is supplied.
const DefaultOutput = "test.S"

// BankConfig mirrors one entry of the memory config's banks list. Base and
// Size accept either a literal integer or an Expr string.
type BankConfig struct {
	Name   string `yaml:"name"`
	Base   Expr   `yaml:"base"`
	Size   Expr   `yaml:"size"`
	Code   bool   `yaml:"code"`
	Data   bool   `yaml:"data"`
	Access string `yaml:"access"`
}

// MemorySection is the optional "memory" block of the config: the data
// reserve size and an optional fixed boot offset.
type MemorySection struct {
	DataReserve *Expr `yaml:"data_reserve"`
	Boot        *Expr `yaml:"boot"`
}

// Doc is the parsed memory configuration document (spec.md §6).
type Doc struct {
	Banks  []BankConfig   `yaml:"banks"`
	Memory *MemorySection `yaml:"memory"`
}

// Load parses and validates a memory config document from r.
func Load(r io.Reader) (*Doc, error) {
	var doc Doc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ErrConfig{Reason: "yaml: " + err.Error()}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the hand-written schema spec.md §6 describes: at least
// one bank, a legal access string per bank, exactly one code=true bank,
// at most one data=true bank, non-overlapping ranges.
func (d *Doc) Validate() error {
	if len(d.Banks) == 0 {
		return &ErrConfig{Reason: "banks: at least one bank is required"}
	}
	codeCount, dataCount := 0, 0
	for i, b := range d.Banks {
		if b.Name == "" {
			return &ErrConfig{Reason: "banks[" + strconv.Itoa(i) + "]: name is required"}
		}
		if b.Size.Value == 0 {
			return &ErrConfig{Reason: "banks[" + strconv.Itoa(i) + "]: size must be > 0"}
		}
		if _, ok := memory.ParseAccess(b.Access); !ok {
			return &ErrConfig{Reason: "banks[" + strconv.Itoa(i) + "]: access must be one of rx, rw, rwx"}
		}
		if b.Code {
			codeCount++
		}
		if b.Data {
			dataCount++
		}
		for j := i + 1; j < len(d.Banks); j++ {
			o := d.Banks[j]
			if rangesOverlap(b.Base.Value, b.Size.Value, o.Base.Value, o.Size.Value) {
				return &ErrConfig{Reason: "banks[" + strconv.Itoa(i) + "] and banks[" + strconv.Itoa(j) + "] overlap"}
			}
		}
	}
	if codeCount != 1 {
		return &ErrConfig{Reason: "exactly one bank must declare code: true"}
	}
	if dataCount > 1 {
		return &ErrConfig{Reason: "at most one bank may declare data: true"}
	}
	return nil
}

func rangesOverlap(baseA, sizeA, baseB, sizeB uint64) bool {
	endA, endB := baseA+sizeA, baseB+sizeB
	return baseA < endB && baseB < endA
}

// DataReserve returns the configured data reserve, or DefaultDataReserve.
func (d *Doc) DataReserve() uint64 {
	if d.Memory != nil && d.Memory.DataReserve != nil {
		return d.Memory.DataReserve.Value
	}
	return DefaultDataReserve
}

// FixedBoot returns the configured boot offset and whether one was given.
func (d *Doc) FixedBoot() (uint64, bool) {
	if d.Memory != nil && d.Memory.Boot != nil {
		return d.Memory.Boot.Value, true
	}
	return 0, false
}

// ToBanks converts the parsed bank list into memory.Bank values.
func (d *Doc) ToBanks() []memory.Bank {
	out := make([]memory.Bank, len(d.Banks))
	for i, b := range d.Banks {
		access, _ := memory.ParseAccess(b.Access)
		out[i] = memory.Bank{
			Name: b.Name, Base: isa.Address(b.Base.Value), Size: b.Size.Value,
			Code: b.Code, Data: b.Data, Access: access,
		}
	}
	return out
}

// RunParams are the CLI-level run parameters of spec.md §6.
type RunParams struct {
	Generator        string
	Seed             int64
	Output           string
	Verbosity        int
	DebugYAML        string
	MemoryConfigPath string
}

