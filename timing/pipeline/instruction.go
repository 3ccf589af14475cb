// Package pipeline implements the pipeline control engine: the per-cycle
// update function that drives five stage latches through an external
// Simulator, consulting a pair of timing-only caches and a hazard/forward
// unit along the way (spec §2, §4.4).
package pipeline

// Status is the lifecycle state of an instruction descriptor as it moves
// through the pipeline latches (spec §4.3).
type Status int

// Instruction statuses.
const (
	// StatusIdle marks a latch that has never held live traffic.
	StatusIdle Status = iota
	// StatusNormal marks an architecturally live instruction.
	StatusNormal
	// StatusSpeculative marks a fetched branch/JAL/JALR held in IF
	// before ID resolves it; ID clears it to NORMAL.
	StatusSpeculative
	// StatusBubble marks a hazard-injected empty slot, terminal for the
	// cycle it's created in.
	StatusBubble
	// StatusSquashed marks an instruction flushed by a trap or a taken
	// branch, terminal for the cycle it's created in.
	StatusSquashed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusNormal:
		return "NORMAL"
	case StatusSpeculative:
		return "SPECULATIVE"
	case StatusBubble:
		return "BUBBLE"
	case StatusSquashed:
		return "SQUASHED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status marks a slot with no live
// architectural effect this cycle — such a slot can never be a
// forwarding source (spec §4.2, condition ii).
func (s Status) Terminal() bool {
	switch s {
	case StatusBubble, StatusSquashed, StatusIdle:
		return true
	default:
		return false
	}
}

// Opcode is the decoded operation tag significant to the control engine.
// Anything the engine doesn't branch on collapses to OpcodeOther.
type Opcode int

// Opcode tags the engine distinguishes (spec §3).
const (
	OpcodeOther Opcode = iota
	OpcodeBranch
	OpcodeJAL
	OpcodeJALR
	OpcodeLoad
	OpcodeStore
)

// IsControlFlow reports whether this opcode is resolved early in ID
// (spec §4.3, §4.4 step 8).
func (o Opcode) IsControlFlow() bool {
	return o == OpcodeBranch || o == OpcodeJAL || o == OpcodeJALR
}

// Instruction is the unit of traffic between stages (spec §3's Data
// Model table). It carries both the decode-time classification the
// hazard unit and control engine need, and the scratch fields each stage
// fills in as the instruction advances.
type Instruction struct {
	Word   uint32
	PC     uint64
	Status Status
	Opcode Opcode

	IsLegal bool
	IsNop   bool
	IsHalt  bool

	ReadsRs1 bool
	ReadsRs2 bool
	WritesRd bool
	Rs1      uint8
	Rs2      uint8
	Rd       uint8

	Op1Val uint64
	Op2Val uint64

	ArithResult uint64

	ReadsMem bool
	WritesMem bool
	MemAddress    uint64
	MemResult     uint64
	MemException  bool

	NextPC uint64
}

// NopWord is the canonical NOP encoding, addi x0, x0, 0 (spec §6).
const NopWord uint32 = 0x00000013

// NOP builds an empty-slot instruction descriptor carrying the given
// status. Every latch that isn't holding live traffic holds one of
// these (spec §3's snapshot invariant).
func NOP(status Status) Instruction {
	return Instruction{
		Word:    NopWord,
		IsLegal: true,
		IsNop:   true,
		Status:  status,
	}
}

// writesVisibleRd reports whether this instruction is a legitimate
// forwarding/dependency source: it writes a non-zero destination
// register and its status is not terminal (spec §4.2 conditions i, ii).
func (i Instruction) writesVisibleRd() bool {
	return i.WritesRd && i.Rd != 0 && !i.Status.Terminal()
}
