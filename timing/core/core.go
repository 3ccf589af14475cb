// Package core wraps the pipeline control engine, its pair of caches,
// and the concrete RV32I simulator behind a single high-level handle,
// the way the rest of the example corpus wraps a pipeline implementation
// for driver code to hold onto (spec §2, §6's initSimulator/runCycles/
// runTillHalt/finalizeSimulator surface).
package core

import (
	"fmt"

	"github.com/sarchlab/fivestage/emu"
	"github.com/sarchlab/fivestage/simulator"
	"github.com/sarchlab/fivestage/timing/cache"
	"github.com/sarchlab/fivestage/timing/pipeline"
)

// Config bundles everything needed to bring a Core up: the two cache
// geometries and the backing memory.
type Config struct {
	ICache cache.Config
	DCache cache.Config
	Memory *emu.Memory
}

// Core is a cycle-accurate five-stage CPU core: a pipeline.Engine wired
// to a simulator.Simulator and its instruction/data caches.
type Core struct {
	Engine *pipeline.Engine
	sim    *simulator.Simulator
	iCache *cache.Cache
	dCache *cache.Cache
}

// New validates cfg and constructs a Core. It returns an error instead
// of panicking on a bad cache geometry, since this is the boundary
// between user-supplied configuration and the construction-time
// contract the cache package enforces internally (spec §4.1, §7
// Configuration violation).
func New(cfg Config, opts ...pipeline.Option) (*Core, error) {
	if err := cfg.ICache.Validate(); err != nil {
		return nil, fmt.Errorf("instruction cache configuration: %w", err)
	}
	if err := cfg.DCache.Validate(); err != nil {
		return nil, fmt.Errorf("data cache configuration: %w", err)
	}

	iCache := cache.New(cfg.ICache, cache.KindInstruction)
	dCache := cache.New(cfg.DCache, cache.KindData)
	sim := simulator.New(cfg.Memory)

	return &Core{
		Engine: pipeline.NewEngine(sim, iCache, dCache, opts...),
		sim:    sim,
		iCache: iCache,
		dCache: dCache,
	}, nil
}

// Init resets the core to a cold-start condition with PC at entryPC.
func (c *Core) Init(entryPC uint64) {
	c.Engine.Init(entryPC)
}

// Tick runs one cycle.
func (c *Core) Tick() pipeline.RunStatus {
	return c.Engine.Tick()
}

// RunCycles runs up to n cycles (0 means unbounded until HALT).
func (c *Core) RunCycles(n uint64) pipeline.RunStatus {
	return c.Engine.RunCycles(n)
}

// RunTillHalt loops single-cycle ticks until HALT.
func (c *Core) RunTillHalt() pipeline.RunStatus {
	return c.Engine.RunTillHalt()
}

// Halted reports whether the core has retired a HALT instruction.
func (c *Core) Halted() bool {
	return c.Engine.Halted()
}

// RegFile exposes the architectural register file for a final dump.
func (c *Core) RegFile() *emu.RegFile {
	return c.sim.RegFile()
}

// Memory exposes the backing memory store for a final dump.
func (c *Core) Memory() *emu.Memory {
	return c.sim.Memory()
}

// Finalize returns the aggregate statistics for the run so far.
func (c *Core) Finalize() pipeline.SimulationStats {
	return c.Engine.Finalize()
}
