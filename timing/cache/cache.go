// Package cache implements the set-associative, true-LRU, timing-only
// cache that feeds the pipeline control engine (spec §4.1). It has no
// data payload: Access only reports hit/miss and maintains tag/LRU state
// — the memory store behind data accesses is a separate external
// collaborator (spec §1 Non-goals: caches here are "timing-only").
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// AccessOp classifies an access for bookkeeping only; it never
// influences placement or replacement (spec §4.1).
type AccessOp int

// Access operations.
const (
	OpRead AccessOp = iota
	OpWrite
)

// Statistics holds the counters the pipeline's stats sink exposes as
// part of SimulationStats (spec §4.5, §6).
type Statistics struct {
	Reads  uint64
	Writes uint64
	Hits   uint64
	Misses uint64
}

// Cache is a set-associative, true-LRU cache with no data storage. Its
// geometry is fixed at construction from Config (spec §3): numSets =
// cacheSize/(blockSize*ways), with blockOffsetBits = log2(blockSize) and
// setIndexBits = log2(numSets) folded into the directory's addressing.
type Cache struct {
	config    Config
	kind      Kind
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New constructs a Cache from a validated Config. It panics if config is
// invalid — a malformed cache geometry is a construction-time contract
// violation (spec §4.1), not a runtime error, so callers are expected to
// call Config.Validate first; New re-validates defensively.
func New(config Config, kind Kind) *Cache {
	if err := config.Validate(); err != nil {
		panic(err)
	}

	return &Cache{
		config: config,
		kind:   kind,
		directory: akitacache.NewDirectory(
			int(config.NumSets()),
			int(config.Ways),
			int(config.BlockSize),
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache's configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Kind returns whether this is the instruction or data cache.
func (c *Cache) Kind() Kind {
	return c.kind
}

// Stats returns a copy of the current hit/miss/read/write counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access looks up address, updating LRU state and the hit/miss counters
// as a side effect, and reports whether it was a hit. On a hit, the
// matching line's LRU timestamp becomes the newest in its set (spec P5).
// On a miss, a victim is installed: first an invalid line in enumeration
// order, else the valid line with the smallest (oldest) LRU timestamp
// (true LRU, spec §4.1). Access never blocks; the caller (the pipeline
// control engine) applies MissLatency externally (spec §4.4).
func (c *Cache) Access(address uint64, op AccessOp) bool {
	if op == OpRead {
		c.stats.Reads++
	} else {
		c.stats.Writes++
	}

	blockAddr := (address / c.config.BlockSize) * c.config.BlockSize

	if block := c.directory.Lookup(0, blockAddr); block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return true
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return false
	}
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = op == OpWrite
	c.directory.Visit(victim)
	return false
}

// Reset clears all tag/LRU state and counters, returning the cache to
// its cold-start condition.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
