// Command tibbar is the CLI front end of spec.md §6: it loads a memory
// config (or falls back to a built-in default), resolves a named
// generator, drives the engine to completion, and emits the assembly
// output (and, if requested, a debug YAML sidecar).
//
// Grounded on cmd/ucapp/main.go's flag+log.Fatalf idiom.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tibbar-gen/tibbar/config"
	"github.com/tibbar-gen/tibbar/emit"
	"github.com/tibbar-gen/tibbar/engine"
	tibbario "github.com/tibbar-gen/tibbar/io"
	"github.com/tibbar-gen/tibbar/isa/rv32i"
	"github.com/tibbar-gen/tibbar/memory"
)

// defaultBanks is used when no --memory-config is given: a 256KiB
// executable code region immediately followed by a 256KiB read-write data
// region, matching spec.md §8 scenario 1's default-config expectations
// ([0x80000000, 0x80040000) for boot/exit, "# Data region: 0x80040000").
func defaultBanks() []memory.Bank {
	const regionSize = 262144
	return []memory.Bank{
		{Name: "code", Base: 0x80000000, Size: regionSize, Code: true, Access: memory.AccessR | memory.AccessX},
		{Name: "data", Base: 0x80000000 + regionSize, Size: regionSize, Data: true, Access: memory.AccessR | memory.AccessW},
	}
}

func main() {
	var generator string
	var output string
	var seed int64
	var verbosity int
	var debugYAML string
	var memoryConfig string

	flag.StringVar(&generator, "generator", "", "generator name (required)")
	flag.StringVar(&generator, "g", "", "generator name (required) (shorthand)")
	flag.StringVar(&output, "output", config.DefaultOutput, "assembly output path")
	flag.StringVar(&output, "o", config.DefaultOutput, "assembly output path (shorthand)")
	flag.Int64Var(&seed, "seed", config.DefaultSeed, "run seed")
	flag.Int64Var(&seed, "s", config.DefaultSeed, "run seed (shorthand)")
	flag.IntVar(&verbosity, "verbosity", 0, "log verbosity")
	flag.IntVar(&verbosity, "v", 0, "log verbosity (shorthand)")
	flag.StringVar(&debugYAML, "debug-yaml", "", "optional debug YAML sidecar path")
	flag.StringVar(&memoryConfig, "memory-config", "", "optional memory config YAML path")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s --generator <name> [flags]\n\nregistered generators: %s\n",
			os.Args[0], strings.Join(engine.SuiteNames(), ", "))
		flag.PrintDefaults()
	}
	flag.Parse()

	if generator == "" {
		flag.Usage()
		os.Exit(2)
	}

	banks := defaultBanks()
	var dataReserve uint64 = config.DefaultDataReserve
	var fixedBootOffset uint64
	var fixedBootOK bool

	if memoryConfig != "" {
		f, err := os.Open(memoryConfig)
		if err != nil {
			log.Fatalf("%v: %v", memoryConfig, err)
		}
		doc, err := config.Load(f)
		f.Close()
		if err != nil {
			log.Fatalf("%v: %v", memoryConfig, err)
		}
		banks = doc.ToBanks()
		dataReserve = doc.DataReserve()
		fixedBootOffset, fixedBootOK = doc.FixedBoot()
	}

	catalog := rv32i.New()

	eng, err := engine.Setup(catalog, banks, dataReserve, rv32i.InstrAlign, seed, fixedBootOffset, fixedBootOK, engine.Limits{})
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	funnel, ok := engine.BuildFunnel(generator, eng.Reserver, rv32i.InstrAlign)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown generator %q; registered: %s\n", generator, strings.Join(engine.SuiteNames(), ", "))
		os.Exit(2)
	}

	if verbosity > 0 {
		log.Printf("tibbar: generator=%v seed=%v boot=%v exit=%v", generator, seed, eng.Boot(), eng.Exit())
	}

	if err := eng.Run(funnel); err != nil {
		log.Fatalf("generation: %v", err)
	}

	run := emit.Run{Generator: generator, Seed: seed, Boot: eng.Boot(), Exit: eng.Exit()}

	sink, err := tibbario.NewOSFS(filepath.Dir(output))
	if err != nil {
		log.Fatalf("output dir: %v", err)
	}

	if err := emit.Assembly(sink, filepath.Base(output), eng.Mem, run); err != nil {
		log.Fatalf("emit: %v", err)
	}

	if debugYAML != "" {
		debugSink, err := tibbario.NewOSFS(filepath.Dir(debugYAML))
		if err != nil {
			log.Fatalf("output dir: %v", err)
		}
		if err := emit.DebugYAML(debugSink, filepath.Base(debugYAML), eng.Mem, run); err != nil {
			log.Fatalf("emit debug yaml: %v", err)
		}
	}
}
