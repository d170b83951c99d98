package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tibbar-gen/tibbar/exec"
	"github.com/tibbar-gen/tibbar/isa"
	"github.com/tibbar-gen/tibbar/isa/rv32i"
	"github.com/tibbar-gen/tibbar/memory"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	banks := []memory.Bank{
		{Name: "mem", Base: 0x80000000, Size: 0x40000, Code: true, Data: true, Access: memory.AccessR | memory.AccessW | memory.AccessX},
	}
	store, err := memory.NewStore(rv32i.New(), banks, 4, 0x10000)
	assert.NoError(t, err)
	return store
}

func TestModel_StepAdvancesPC(t *testing.T) {
	store := newStore(t)
	boot := isa.Address(0x80000000)
	err := store.PlaceInstruction(boot, "addi", []isa.Operand{isa.GPR(1), isa.GPR(0), isa.Imm(5)})
	assert.NoError(t, err)

	model := exec.New(rv32i.New(), store, boot, 0x80000004)
	assert.NoError(t, model.Step())
	assert.Equal(t, isa.Address(0x80000004), model.PC())
	assert.EqualValues(t, 5, model.GPR(1))
}

func TestModel_FetchMissTrapsToHandler(t *testing.T) {
	store := newStore(t)
	boot := isa.Address(0x80000000)
	handler := isa.Address(0x80001000)
	err := store.PlaceInstruction(handler, "addi", []isa.Operand{isa.GPR(2), isa.GPR(0), isa.Imm(1)})
	assert.NoError(t, err)

	model := exec.New(rv32i.New(), store, boot, handler)
	assert.NoError(t, model.Step())
	assert.True(t, model.TrapPending)
	assert.Equal(t, isa.TrapFetchMiss, model.LastTrap.Kind)
	assert.Equal(t, handler, model.PC())
}

func TestModel_BranchTaken(t *testing.T) {
	store := newStore(t)
	boot := isa.Address(0x80000000)
	target := isa.Address(0x80000010)
	assert.NoError(t, store.ReserveCode(target))
	err := store.PlaceInstruction(boot, "beq", []isa.Operand{isa.GPR(0), isa.GPR(0), isa.Branch(target)})
	assert.NoError(t, err)
	assert.NoError(t, store.PlaceInstruction(target, "addi", []isa.Operand{isa.GPR(3), isa.GPR(0), isa.Imm(7)}))

	model := exec.New(rv32i.New(), store, boot, 0x80000004)
	assert.NoError(t, model.Step())
	assert.Equal(t, target, model.PC())
}
