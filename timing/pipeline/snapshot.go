package pipeline

// Snapshot is the ordered 5-tuple of stage latches plus the scalar state
// that survives between cycles (spec §3's Pipeline snapshot). Exactly
// one Instruction occupies each latch at all times.
type Snapshot struct {
	IF Instruction
	ID Instruction
	EX Instruction
	MEM Instruction
	WB Instruction

	PC                 uint64
	CycleCount         uint64
	LoadUseStalls      uint64
	BranchStallCounter int

	IMissActive    bool
	IMissRemaining int64
	DMissActive    bool
	DMissRemaining int64
}

// initialSnapshot returns the reset state Init puts the engine in: every
// latch idle, PC at the given entry point, all counters zeroed.
func initialSnapshot(entryPC uint64) Snapshot {
	return Snapshot{
		IF:  NOP(StatusIdle),
		ID:  NOP(StatusIdle),
		EX:  NOP(StatusIdle),
		MEM: NOP(StatusIdle),
		WB:  NOP(StatusIdle),
		PC:  entryPC,
	}
}
