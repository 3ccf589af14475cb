package pipeline

// PipeState is a per-cycle trace record describing the snapshot at the
// start of the cycle, before that cycle mutates state (spec §4.5, §6).
type PipeState struct {
	Cycle uint64

	IFPC     uint64
	IFStatus Status

	IDInstr  uint32
	IDStatus Status

	EXInstr  uint32
	EXStatus Status

	MEMInstr  uint32
	MEMStatus Status

	WBInstr  uint32
	WBStatus Status
}

// snapshotToPipeState renders a PipeState from the current snapshot
// (spec §4.4 step 1: "the record reflects the snapshot at the start of
// cycle n").
func snapshotToPipeState(cycle uint64, s Snapshot) PipeState {
	return PipeState{
		Cycle:     cycle,
		IFPC:      s.IF.PC,
		IFStatus:  s.IF.Status,
		IDInstr:   s.ID.Word,
		IDStatus:  s.ID.Status,
		EXInstr:   s.EX.Word,
		EXStatus:  s.EX.Status,
		MEMInstr:  s.MEM.Word,
		MEMStatus: s.MEM.Status,
		WBInstr:   s.WB.Word,
		WBStatus:  s.WB.Status,
	}
}

// SimulationStats aggregates the counters a run accumulates (spec §4.5).
type SimulationStats struct {
	Instructions  uint64
	Cycles        uint64
	ICacheHits    uint64
	ICacheMisses  uint64
	DCacheHits    uint64
	DCacheMisses  uint64
	LoadUseStalls uint64
}

// TraceSink receives per-cycle trace records as the engine ticks. The
// engine never blocks on it and never inspects what it does with a
// record (spec §6: "agnostic to encoding").
type TraceSink interface {
	RecordCycle(PipeState)
}

// NopTraceSink discards every record. NewEngine installs it when no
// WithTraceSink option is given, so such an Engine is safe to tick.
type NopTraceSink struct{}

// RecordCycle implements TraceSink by doing nothing.
func (NopTraceSink) RecordCycle(PipeState) {}
