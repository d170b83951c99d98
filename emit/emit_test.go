package emit

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tibbar-gen/tibbar/config"
	"github.com/tibbar-gen/tibbar/engine"
	"github.com/tibbar-gen/tibbar/isa/rv32i"
	"github.com/tibbar-gen/tibbar/memory"
)

// memSink is an in-memory CreateFS, so emitter tests don't touch the real
// filesystem. Sub/Mkdir are unused by emit.go but kept to satisfy the
// interface.
type memSink struct {
	files map[string]*bytes.Buffer
}

func newMemSink() *memSink { return &memSink{files: make(map[string]*bytes.Buffer)} }

type nopCloserBuf struct{ *bytes.Buffer }

func (nopCloserBuf) Close() error { return nil }

func (m *memSink) Create(name string) (io.WriteCloser, error) {
	b := &bytes.Buffer{}
	m.files[name] = b
	return nopCloserBuf{b}, nil
}

func (m *memSink) Sub(name string) (Sink, error) { return m, nil }

func (m *memSink) Mkdir(name string, filemode fs.FileMode) error { return nil }

func defaultTestBanks() []memory.Bank {
	const regionSize = 262144
	return []memory.Bank{
		{Name: "code", Base: 0x80000000, Size: regionSize, Code: true, Access: memory.AccessR | memory.AccessX},
		{Name: "data", Base: 0x80000000 + regionSize, Size: regionSize, Data: true, Access: memory.AccessR | memory.AccessW},
	}
}

// TestAssembly_HeaderAndSections covers spec.md §6's output contract: the
// header names load/boot/exit/data-region addresses, and .text precedes
// .data when a distinct data bank exists.
func TestAssembly_HeaderAndSections(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := engine.Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 42, 0, false, engine.Limits{MaxInstructions: 500})
	assert.NoError(err)

	funnel, ok := engine.BuildFunnel("ldst", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	sink := newMemSink()
	run := Run{Generator: "ldst", Seed: 42, Boot: eng.Boot(), Exit: eng.Exit()}
	assert.NoError(Assembly(sink, "test.S", eng.Mem, run))

	out := sink.files["test.S"].String()
	assert.Contains(out, "# Load address: 0x80000000")
	assert.Contains(out, "# Boot: "+eng.Boot().String())
	assert.Contains(out, "# Exit: "+eng.Exit().String())
	assert.Contains(out, "# Data region: 0x80040000")
	assert.Contains(out, ".section .text")
	assert.Contains(out, ".section .data")

	textIdx := strings.Index(out, ".section .text")
	dataIdx := strings.Index(out, ".section .data")
	assert.True(textIdx < dataIdx)
}

// TestAssembly_UnifiedBank_NoDataRegionLine covers spec.md §8 scenario 6:
// a single rwx bank yields no "# Data region:" header line.
func TestAssembly_UnifiedBank_NoDataRegionLine(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	banks := []memory.Bank{
		{Name: "unified", Base: 0x1000, Size: 1 << 20, Code: true, Data: true, Access: memory.AccessR | memory.AccessW | memory.AccessX},
	}

	eng, err := engine.Setup(catalog, banks, config.DefaultDataReserve, rv32i.InstrAlign, 7, 0, true, engine.Limits{MaxInstructions: 500})
	assert.NoError(err)

	funnel, ok := engine.BuildFunnel("simple", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	sink := newMemSink()
	run := Run{Generator: "simple", Seed: 7, Boot: eng.Boot(), Exit: eng.Exit()}
	assert.NoError(Assembly(sink, "test.S", eng.Mem, run))

	out := sink.files["test.S"].String()
	assert.NotContains(out, "# Data region:")
}

// TestDebugYAML_RoundTrips covers the debug YAML sidecar's documented
// fields.
func TestDebugYAML_RoundTrips(t *testing.T) {
	assert := assert.New(t)
	catalog := rv32i.New()

	eng, err := engine.Setup(catalog, defaultTestBanks(), 0, rv32i.InstrAlign, 1, 0, false, engine.Limits{MaxInstructions: 500})
	assert.NoError(err)

	funnel, ok := engine.BuildFunnel("ldst", eng.Reserver, rv32i.InstrAlign)
	assert.True(ok)
	assert.NoError(eng.Run(funnel))

	sink := newMemSink()
	run := Run{Generator: "ldst", Seed: 1, Boot: eng.Boot(), Exit: eng.Exit()}
	assert.NoError(DebugYAML(sink, "debug.yaml", eng.Mem, run))

	out := sink.files["debug.yaml"].String()
	assert.Contains(out, "generator: ldst")
	assert.Contains(out, "banks:")
}
