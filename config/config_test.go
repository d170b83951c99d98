package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_LiteralBases(t *testing.T) {
	assert := assert.New(t)

	doc, err := Load(strings.NewReader(`
banks:
  - name: code
    base: 0x80000000
    size: 262144
    code: true
    access: rx
  - name: data
    base: 0x80040000
    size: 262144
    data: true
    access: rw
`))
	assert.NoError(err)
	assert.Len(doc.Banks, 2)
	assert.EqualValues(0x80000000, doc.Banks[0].Base.Value)
	assert.EqualValues(0x80040000, doc.Banks[1].Base.Value)
}

// TestLoad_ExprBase covers deriving a bank's base from an expression, the
// starlark-evaluated counterpart of a literal integer.
func TestLoad_ExprBase(t *testing.T) {
	assert := assert.New(t)

	doc, err := Load(strings.NewReader(`
banks:
  - name: code
    base: 0x80000000
    size: 262144
    code: true
    access: rx
  - name: data
    base: "0x80000000 + 262144"
    size: 262144
    data: true
    access: rw
`))
	assert.NoError(err)
	assert.EqualValues(0x80040000, doc.Banks[1].Base.Value)
}

func TestLoad_ExprSyntaxError(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(strings.NewReader(`
banks:
  - name: code
    base: 0
    size: "not an expression ("
    code: true
    access: rx
`))
	assert.Error(err)
}

func TestValidate_RejectsOverlap(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(strings.NewReader(`
banks:
  - name: code
    base: 0x1000
    size: 0x2000
    code: true
    access: rx
  - name: data
    base: 0x1800
    size: 0x1000
    data: true
    access: rw
`))
	assert.Error(err)
}

func TestDoc_MemorySectionDefaults(t *testing.T) {
	assert := assert.New(t)

	doc, err := Load(strings.NewReader(`
banks:
  - name: unified
    base: 0x1000
    size: 0x100000
    code: true
    data: true
    access: rwx
`))
	assert.NoError(err)
	assert.Equal(uint64(DefaultDataReserve), doc.DataReserve())
	_, ok := doc.FixedBoot()
	assert.False(ok)
}

func TestDoc_MemorySectionOverrides(t *testing.T) {
	assert := assert.New(t)

	doc, err := Load(strings.NewReader(`
banks:
  - name: unified
    base: 0x1000
    size: 0x100000
    code: true
    data: true
    access: rwx
memory:
  data_reserve: 4096
  boot: "0x1000 + 16"
`))
	assert.NoError(err)
	assert.EqualValues(4096, doc.DataReserve())
	boot, ok := doc.FixedBoot()
	assert.True(ok)
	assert.EqualValues(0x1010, boot)
}
