// Package main provides the entry point for fivestage, a cycle-accurate
// five-stage RISC pipeline simulator with split instruction/data caches
// (spec §1). It loads a program image, wires up the pipeline core with
// the requested cache geometry, runs to HALT, and dumps a per-cycle
// trace, final register state, and aggregate statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/fivestage/emu"
	"github.com/sarchlab/fivestage/loader"
	"github.com/sarchlab/fivestage/timing/cache"
	"github.com/sarchlab/fivestage/timing/core"
	"github.com/sarchlab/fivestage/timing/pipeline"
	"github.com/sarchlab/fivestage/timing/trace"
)

var (
	hex        = flag.Bool("hex", false, "Load the program as a flat hex image instead of ELF")
	loadAddr   = flag.Uint64("load-addr", 0, "Load address for -hex images")
	output     = flag.String("o", "out", "Base name for trace/stats/register dump files")
	maxCycles  = flag.Uint64("max-cycles", 0, "Stop after this many cycles even without HALT (0 = unbounded)")
	cacheConf  = flag.String("cache-config", "", "Path to a JSON file with {\"icache\":{...},\"dcache\":{...}} cache configs")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: fivestage [options] <program>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "fivestage: %v\n", err)
		os.Exit(1)
	}
}

// cacheConfigFile is the on-disk shape of -cache-config.
type cacheConfigFile struct {
	ICache cache.Config `json:"icache"`
	DCache cache.Config `json:"dcache"`
}

func defaultCacheConfigs() (cache.Config, cache.Config) {
	def := cache.Config{CacheSize: 1024, BlockSize: 32, Ways: 2, MissLatency: 10}
	return def, def
}

func loadCacheConfigs() (cache.Config, cache.Config, error) {
	iCfg, dCfg := defaultCacheConfigs()
	if *cacheConf == "" {
		return iCfg, dCfg, nil
	}

	data, err := os.ReadFile(*cacheConf)
	if err != nil {
		return iCfg, dCfg, fmt.Errorf("failed to read cache config: %w", err)
	}

	var file cacheConfigFile
	file.ICache, file.DCache = iCfg, dCfg
	if err := json.Unmarshal(data, &file); err != nil {
		return iCfg, dCfg, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return file.ICache, file.DCache, nil
}

func run(programPath string) error {
	var prog *loader.Program
	var err error
	if *hex {
		prog, err = loader.LoadHexImage(programPath, *loadAddr)
	} else {
		prog, err = loader.LoadELF(programPath)
	}
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	iCfg, dCfg, err := loadCacheConfigs()
	if err != nil {
		return err
	}

	mem := emu.NewMemory()
	for _, seg := range prog.Segments {
		mem.Load(seg.VirtAddr, seg.Data)
	}

	traceSink, err := trace.NewPipeStateSink(*output + ".trace.json")
	if err != nil {
		return fmt.Errorf("opening trace sink: %w", err)
	}
	defer func() { _ = traceSink.Close() }()

	c, err := core.New(core.Config{ICache: iCfg, DCache: dCfg, Memory: mem}, pipeline.WithTraceSink(traceSink))
	if err != nil {
		return fmt.Errorf("constructing core: %w", err)
	}
	c.Init(prog.EntryPoint)

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%x\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	status := c.RunCycles(*maxCycles)

	if *verbose {
		if status == pipeline.RunHalt {
			fmt.Println("Halted.")
		} else {
			fmt.Println("Stopped (cycle budget exhausted).")
		}
	}

	if err := trace.DumpRegMem(c.RegFile(), c.Memory(), *output); err != nil {
		return fmt.Errorf("dumping register state: %w", err)
	}
	if err := trace.DumpStats(c.Finalize(), *output); err != nil {
		return fmt.Errorf("dumping statistics: %w", err)
	}

	return nil
}
