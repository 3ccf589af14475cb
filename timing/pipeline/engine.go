package pipeline

import "github.com/sarchlab/fivestage/timing/cache"

// ExceptionHandlerAddr is the hard-wired redirect target for both
// illegal-instruction and memory-exception traps (spec §6).
const ExceptionHandlerAddr uint64 = 0x8000

// RunStatus is the outcome of stepping the engine (spec §6).
type RunStatus int

// Run statuses.
const (
	RunSuccess RunStatus = iota
	RunHalt
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithTraceSink routes per-cycle PipeState records to sink instead of
// discarding them.
func WithTraceSink(sink TraceSink) Option {
	return func(e *Engine) {
		e.trace = sink
	}
}

// Engine is the pipeline control engine: the per-cycle update function
// that reads the current snapshot, drives the five stages in
// writeback-first order, interacts with both caches, performs
// precise-exception flushes, early-resolves branches in ID, and emits
// the next snapshot (spec §2 component 4, §4.4).
type Engine struct {
	sim    Simulator
	iCache *cache.Cache
	dCache *cache.Cache
	trace  TraceSink

	snap   Snapshot
	halted bool

	instructionsRetired uint64
}

// NewEngine builds an Engine around the given external Simulator and
// the pair of timing-only caches that feed IF and MEM. Init must be
// called before the first Tick.
func NewEngine(sim Simulator, iCache, dCache *cache.Cache, opts ...Option) *Engine {
	e := &Engine{
		sim:    sim,
		iCache: iCache,
		dCache: dCache,
		trace:  NopTraceSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init resets all scalar state and zeros all latches to NOP(IDLE), then
// sets PC to entryPC (spec §6's initSimulator contract, minus
// constructing the caches/simulator themselves — those are supplied to
// NewEngine).
func (e *Engine) Init(entryPC uint64) {
	e.snap = initialSnapshot(entryPC)
	e.halted = false
	e.instructionsRetired = 0
}

// Snapshot returns a copy of the engine's current pipeline state.
func (e *Engine) Snapshot() Snapshot {
	return e.snap
}

// Halted reports whether the engine has retired a HALT-bearing
// instruction and will no longer advance.
func (e *Engine) Halted() bool {
	return e.halted
}

// Tick executes exactly one cycle of the control engine (spec §4.4).
// If the engine is already halted it returns RunHalt immediately
// without mutating state further (spec P8).
func (e *Engine) Tick() RunStatus {
	if e.halted {
		return RunHalt
	}

	old := e.snap

	// Step 1: emit trace of the snapshot as it stood before this cycle
	// mutates anything, then advance the cycle counter.
	e.trace.RecordCycle(snapshotToPipeState(old.CycleCount, old))
	next := Snapshot{
		IF:                 NOP(StatusBubble),
		ID:                 NOP(StatusBubble),
		EX:                 NOP(StatusBubble),
		MEM:                NOP(StatusBubble),
		WB:                 NOP(StatusBubble),
		PC:                 old.PC,
		CycleCount:         old.CycleCount + 1,
		LoadUseStalls:      old.LoadUseStalls,
		BranchStallCounter: old.BranchStallCounter,
		IMissActive:        old.IMissActive,
		IMissRemaining:     old.IMissRemaining,
		DMissActive:        old.DMissActive,
		DMissRemaining:     old.DMissRemaining,
	}

	// Step 2: decrement outstanding miss counters.
	if next.IMissActive && next.IMissRemaining > 0 {
		next.IMissRemaining--
	}
	if next.DMissActive && next.DMissRemaining > 0 {
		next.DMissRemaining--
	}

	// Step 3: writeback.
	next.WB = e.sim.SimWB(old.MEM)
	if next.WB.Status == StatusNormal && !next.WB.IsNop {
		e.instructionsRetired++
	}
	if next.WB.IsHalt {
		e.snap = next
		e.halted = true
		return RunHalt
	}

	// Step 4: detect exceptions. memTrap takes precedence because it's
	// older; on memTrap the whole cycle short-circuits into a flush.
	illegalTrap := old.ID.Status == StatusNormal && !old.ID.IsNop && !old.ID.IsHalt && !old.ID.IsLegal
	memTrap := old.MEM.Status == StatusNormal && old.MEM.MemException

	if memTrap {
		next.MEM = NOP(StatusSquashed)
		next.EX = NOP(StatusSquashed)
		next.ID = NOP(StatusSquashed)
		next.IF = NOP(StatusSquashed)
		next.PC = ExceptionHandlerAddr
		next.IMissActive, next.DMissActive = false, false
		next.IMissRemaining, next.DMissRemaining = 0, 0
		e.snap = next
		return RunSuccess
	}

	// Step 5: detect hazards.
	// A load-use stall is counted only when no D-miss already holds the
	// pipeline.
	loadUseHazard := DetectLoadUseHazard(old.EX, old.ID)
	if loadUseHazard && !next.DMissActive {
		next.LoadUseStalls++
	}

	if next.BranchStallCounter > 0 {
		next.BranchStallCounter--
	}
	branchStall := next.BranchStallCounter > 0
	branchInID := old.ID.Opcode == OpcodeBranch || old.ID.Opcode == OpcodeJALR
	if !branchStall && branchInID {
		decision := DetectBranchStall(old.ID, old.EX, old.MEM)
		if decision.Stall {
			next.BranchStallCounter = decision.Cycles
			branchStall = true
			if decision.ProducerIsLoad {
				next.LoadUseStalls++
			}
		}
	}

	dMissStall := next.DMissActive && next.DMissRemaining > 0
	pipelineStall := loadUseHazard || branchStall || dMissStall || next.DMissActive

	// Step 6: MEM update. While an outstanding D-miss holds MEM (stalling,
	// or completing the access this cycle) old.EX cannot move into it.
	memHeld := next.DMissActive
	switch {
	case dMissStall:
		next.MEM = old.MEM
	case next.DMissActive && next.DMissRemaining == 0:
		next.MEM = e.sim.SimMEM(old.MEM)
		next.DMissActive = false
	default:
		exCandidate := old.EX
		if exCandidate.WritesMem {
			exCandidate.Op2Val = Forward(exCandidate, old.MEM, old.WB, exCandidate.Op2Val, OperandRs2)
		}
		exCandidate = e.sim.SimEX(exCandidate)

		accessesMem := exCandidate.ReadsMem || exCandidate.WritesMem
		if accessesMem && exCandidate.Status == StatusNormal && exCandidate.IsLegal && !exCandidate.IsNop {
			op := cache.OpRead
			if exCandidate.WritesMem {
				op = cache.OpWrite
			}
			if hit := e.dCache.Access(exCandidate.MemAddress, op); hit {
				next.MEM = e.sim.SimMEM(exCandidate)
			} else {
				next.DMissActive = true
				next.DMissRemaining = int64(e.dCache.Config().MissLatency)
				next.MEM = exCandidate
			}
		} else {
			next.MEM = e.sim.SimMEM(exCandidate)
		}
	}

	// Step 7: EX update. A non-load producer in the EX latch is the
	// newest forwarding source and overrides Forward's MEM/WB result.
	if !pipelineStall && !illegalTrap {
		idInst := old.ID
		if idInst.ReadsRs1 {
			idInst.Op1Val = Forward(idInst, old.MEM, old.WB, idInst.Op1Val, OperandRs1)
			if matches(idInst, old.EX, OperandRs1) && !old.EX.ReadsMem {
				idInst.Op1Val = old.EX.ArithResult
			}
		}
		if idInst.ReadsRs2 {
			idInst.Op2Val = Forward(idInst, old.MEM, old.WB, idInst.Op2Val, OperandRs2)
			if matches(idInst, old.EX, OperandRs2) && !old.EX.ReadsMem {
				idInst.Op2Val = old.EX.ArithResult
			}
		}
		next.EX = e.sim.SimEX(idInst)
	} else if memHeld {
		next.EX = old.EX
	} else {
		next.EX = NOP(StatusBubble)
	}

	// Step 8: ID update.
	allowIDAdvance := !pipelineStall && !illegalTrap && !next.IMissActive
	branchTaken := false
	var branchTarget uint64

	if allowIDAdvance {
		ifInst := e.sim.SimID(old.IF)
		if ifInst.Status == StatusSpeculative {
			ifInst.Status = StatusNormal
		}

		if ifInst.IsLegal && !ifInst.IsNop && !ifInst.IsHalt && ifInst.Opcode.IsControlFlow() {
			if ifInst.ReadsRs1 {
				ifInst.Op1Val = Forward(ifInst, old.MEM, old.WB, ifInst.Op1Val, OperandRs1)
			}
			if ifInst.ReadsRs2 {
				ifInst.Op2Val = Forward(ifInst, old.MEM, old.WB, ifInst.Op2Val, OperandRs2)
			}
			ifInst = e.sim.SimNextPCResolution(ifInst)
			if ifInst.NextPC != ifInst.PC+4 {
				branchTaken = true
				branchTarget = ifInst.NextPC
			}
		}

		next.ID = ifInst
	} else {
		next.ID = old.ID
	}

	// Step 9: IF fetch.
	fetchBlocked := pipelineStall || illegalTrap || next.IMissActive
	if !fetchBlocked {
		fetched := e.sim.SimIF(next.PC)
		iMiss := false
		if fetched.Status != StatusIdle {
			iMiss = !e.iCache.Access(next.PC, cache.OpRead)
		}
		if iMiss {
			next.IMissActive = true
			next.IMissRemaining = int64(e.iCache.Config().MissLatency)
			fetched.Status = StatusNormal
			next.IF = fetched
		} else {
			if fetched.Opcode.IsControlFlow() {
				fetched.Status = StatusSpeculative
			} else {
				fetched.Status = StatusNormal
			}
			next.IF = fetched
			next.PC += 4
		}
	} else {
		next.IF = old.IF
	}

	// Step 10: apply branch redirect.
	if branchTaken {
		next.PC = branchTarget
		next.IF = NOP(StatusSquashed)
		next.IMissActive = false
	}

	// Step 11: apply illegal-instruction trap.
	if illegalTrap {
		next.ID = NOP(StatusSquashed)
		next.EX = NOP(StatusSquashed)
		next.IF = NOP(StatusSquashed)
		next.PC = ExceptionHandlerAddr
	}

	// Step 12: finalize I-miss.
	if next.IMissActive && next.IMissRemaining == 0 {
		next.IMissActive = false
		next.PC += 4
	}

	// Step 13: commit.
	e.snap = next
	return RunSuccess
}

// RunCycles runs up to n cycles (0 means unbounded until HALT),
// returning RunHalt as soon as a HALT is retired, RunSuccess otherwise
// (spec §6).
func (e *Engine) RunCycles(n uint64) RunStatus {
	var count uint64
	for n == 0 || count < n {
		count++
		if status := e.Tick(); status == RunHalt {
			return RunHalt
		}
	}
	return RunSuccess
}

// RunTillHalt loops single-cycle ticks until HALT (spec §6).
func (e *Engine) RunTillHalt() RunStatus {
	for {
		if status := e.Tick(); status == RunHalt {
			return status
		}
	}
}

// Finalize aggregates the run's final statistics (spec §4.5, §6). It
// does not dump register/memory state — that's the external
// simulator's responsibility.
func (e *Engine) Finalize() SimulationStats {
	return SimulationStats{
		Instructions:  e.instructionsRetired,
		Cycles:        e.snap.CycleCount,
		ICacheHits:    e.iCache.Stats().Hits,
		ICacheMisses:  e.iCache.Stats().Misses,
		DCacheHits:    e.dCache.Stats().Hits,
		DCacheMisses:  e.dCache.Stats().Misses,
		LoadUseStalls: e.snap.LoadUseStalls,
	}
}
