package pipeline

// Simulator is the external collaborator the control engine drives: the
// instruction decoder, ALU, register file, and memory store behind data
// accesses all live behind this interface (spec §1 Non-goals). The
// engine treats every method as an opaque pure-ish stage function that
// consumes an Instruction and returns the next one; only SimWB and
// SimMEM are expected to have side effects on architectural state.
type Simulator interface {
	// SimIF fetches the instruction word at pc and returns its Word and
	// PC, plus the Opcode tag where the implementation supplies it; full
	// decode happens in SimID. Status must not be left at StatusIdle,
	// which the engine treats as nothing to fetch and for which it skips
	// the I-cache; the engine then assigns NORMAL, or SPECULATIVE for a
	// control-flow Opcode that hits in the I-cache (spec §4.4 step 9).
	SimIF(pc uint64) Instruction

	// SimID completes decode: register indices, usage flags, opcode
	// classification, legality. It also reads the register file into
	// Op1Val/Op2Val for the source operands the encoding uses; the
	// engine later replaces those values by forwarding where a newer
	// producer is still in flight.
	SimID(inst Instruction) Instruction

	// SimNextPCResolution computes NextPC for a control-flow instruction
	// already carrying forwarded Op1Val/Op2Val. Non-branches should
	// return PC+4 unchanged.
	SimNextPCResolution(inst Instruction) Instruction

	// SimEX computes ArithResult (and, for memory ops, MemAddress) from
	// the instruction's forwarded operands.
	SimEX(inst Instruction) Instruction

	// SimMEM performs the data memory access for load/store instructions
	// and is a pass-through for everything else. Sets MemResult or
	// MemException.
	SimMEM(inst Instruction) Instruction

	// SimWB commits architectural side effects (register file write) and
	// reports IsHalt on the returned Instruction if this is a halting
	// instruction.
	SimWB(inst Instruction) Instruction
}
