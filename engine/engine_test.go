package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tibbar-gen/tibbar/config"
	"github.com/tibbar-gen/tibbar/isa/rv32i"
	"github.com/tibbar-gen/tibbar/memory"
)

func defaultTestBanks() []memory.Bank {
	const regionSize = 262144
	return []memory.Bank{
		{Name: "code", Base: 0x80000000, Size: regionSize, Code: true, Access: memory.AccessR | memory.AccessX},
		{Name: "data", Base: 0x80000000 + regionSize, Size: regionSize, Data: true, Access: memory.AccessR | memory.AccessW},
	}
}

// TestSetup_ExitNeverZeroOrOverlappingBoot covers spec.md §8's Exit
// uniqueness property across the generator/seed matrix the end-to-end
// scenarios name.
func TestSetup_ExitNeverZeroOrOverlappingBoot(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	for _, seed := range []int64{1, 3, 7, 42} {
		eng, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, seed, 0, false, Limits{})
		assert.NoError(err)
		assert.NotZero(eng.Exit())
		assert.NotEqual(eng.Boot(), eng.Exit())

		base, limit := eng.Mem.CodeRegion()
		assert.True(eng.Boot() >= base && eng.Boot() < limit)
		assert.True(eng.Exit() >= base && eng.Exit() < limit)
	}
}

// TestSetup_Determinism covers spec.md §8's Determinism property: two
// Setup calls with the same seed and config choose identical boot/exit
// addresses.
func TestSetup_Determinism(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	a, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 42, 0, false, Limits{})
	assert.NoError(err)
	b, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 42, 0, false, Limits{})
	assert.NoError(err)

	assert.Equal(a.Boot(), b.Boot())
	assert.Equal(a.Exit(), b.Exit())
}

// TestSetup_FixedBootOffset covers spec.md §8 scenario 6: memory.boot
// pins the boot address to the code region's base (offset 0).
func TestSetup_FixedBootOffset(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	banks := []memory.Bank{
		{Name: "unified", Base: 0x1000, Size: 1 << 20, Code: true, Data: true, Access: memory.AccessR | memory.AccessW | memory.AccessX},
	}

	eng, err := Setup(catalog, banks, config.DefaultDataReserve, rv32i.InstrAlign, 7, 0, true, Limits{})
	assert.NoError(err)
	assert.Equal(banks[0].Base, eng.Boot())

	dataBase, _, ok := eng.Mem.DataRegion()
	assert.True(ok)
	assert.NotEqual(banks[0].Base, dataBase, "data lives in the reserve tail, not at the unified bank's base")
}

// TestRun_Simple_ReachesExit drives the "simple" generator end to end
// (spec.md §8 scenario 1): the engine must terminate by placing pc inside
// the exit region without hitting UnplacedTarget or a fatal error, and the
// Execution Model must actually be able to walk from boot to exit.
func TestRun_Simple_ReachesExit(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 42, 0, false, Limits{MaxInstructions: 2000})
	assert.NoError(err)

	funnel, ok := BuildFunnel("simple", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)

	err = eng.Run(funnel)
	assert.NoError(err)
	assert.True(eng.Mem.InExitRegion(eng.Model.PC()))
}

// TestRun_LdSt_DataInRegion covers spec.md §8 scenario 2: a full run of
// "ldst" must place at least one data blob, and every placed data blob
// must lie inside the data region.
func TestRun_LdSt_DataInRegion(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 1, 0, false, Limits{MaxInstructions: 2000})
	assert.NoError(err)

	funnel, ok := BuildFunnel("ldst", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	dataBase, dataLimit, ok := eng.Mem.DataRegion()
	assert.True(ok)

	sawDataBlob := false
	for _, cell := range eng.Mem.Cells() {
		if cell.Kind == memory.CellData {
			sawDataBlob = true
			assert.True(cell.Addr >= dataBase && cell.Addr < dataLimit)
		}
	}
	assert.True(sawDataBlob)
}

// TestRun_LdStException_PlacesFaultingLoad covers spec.md §8 scenario 3:
// the "ldst_exception" generator places at least one load with GPR 0 as
// base and a non-zero offset.
func TestRun_LdStException_PlacesFaultingLoad(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 7, 0, false, Limits{MaxInstructions: 2000})
	assert.NoError(err)

	funnel, ok := BuildFunnel("ldst_exception", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	sawFaultingLoad := false
	for _, cell := range eng.Mem.Cells() {
		if cell.Kind != memory.CellInstruction {
			continue
		}
		class := catalog.Classify(cell.Form)
		if !class.IsLoad {
			continue
		}
		if len(cell.Operands) == 3 && cell.Operands[1].Reg.ID == 0 && cell.Operands[2].Imm != 0 {
			sawFaultingLoad = true
		}
	}
	assert.True(sawFaultingLoad)
}

// TestRun_Hazard_AdjacentWriterReaderPair covers spec.md §8 scenario 4.
func TestRun_Hazard_AdjacentWriterReaderPair(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 3, 0, false, Limits{MaxInstructions: 2000})
	assert.NoError(err)

	funnel, ok := BuildFunnel("hazard", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	cells := eng.Mem.Cells()
	found := 0
	for i := 0; i+1 < len(cells); i++ {
		a, b := cells[i], cells[i+1]
		if a.Kind != memory.CellInstruction || b.Kind != memory.CellInstruction {
			continue
		}
		writes := catalog.Writes(a.Form, a.Operands)
		if len(writes) == 0 || len(b.Operands) < 2 {
			continue
		}
		if b.Operands[1].Class.String() == "gpr" && b.Operands[1].Reg == writes[0] {
			found++
		}
	}
	assert.GreaterOrEqual(found, 1)
}

// TestBuildFunnel_UnknownGenerator covers the CLI's "unknown generator"
// exit path at the engine boundary.
func TestBuildFunnel_UnknownGenerator(t *testing.T) {
	assert := assert.New(t)
	_, ok := BuildFunnel("not-a-generator", nil, rv32i.InstrAlign)
	assert.False(ok)
}
