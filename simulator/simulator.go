// Package simulator provides the concrete Simulator the pipeline control
// engine drives: the RV32I-subset decoder, the ALU, the register file,
// and the data-memory access path. It implements pipeline.Simulator and
// is otherwise invisible to the engine, which only ever calls through
// that interface (spec §1: decoder/ALU/memory store are external
// collaborators of the pipeline core).
package simulator

import (
	"github.com/sarchlab/fivestage/emu"
	"github.com/sarchlab/fivestage/insts"
	"github.com/sarchlab/fivestage/timing/pipeline"
)

// Simulator wires a register file and a memory store to the RV32I
// decoder and exposes the six stage functions the pipeline.Engine calls.
type Simulator struct {
	regs    *emu.RegFile
	mem     *emu.Memory
	decoder *insts.Decoder
}

// New builds a Simulator around mem with a freshly zeroed register file.
func New(mem *emu.Memory) *Simulator {
	return &Simulator{
		regs:    &emu.RegFile{},
		mem:     mem,
		decoder: insts.NewDecoder(),
	}
}

// RegFile exposes the register file for the final register dump (spec
// §6, finalizeSimulator).
func (s *Simulator) RegFile() *emu.RegFile {
	return s.regs
}

// Memory exposes the memory store for the final memory dump.
func (s *Simulator) Memory() *emu.Memory {
	return s.mem
}

// SimIF fetches the instruction word at pc and tags it with its coarse
// Opcode. Status starts at NORMAL — every address in this simulator's
// flat memory is a real fetch, never the "nothing to fetch" IDLE sentinel
// the engine's cache-consult gate checks for (spec §4.4 step 9) — and the
// engine then sets NORMAL, or SPECULATIVE for a control-flow Opcode that
// hits in the I-cache.
func (s *Simulator) SimIF(pc uint64) pipeline.Instruction {
	word := s.mem.Read32(pc)
	return pipeline.Instruction{
		Word:   word,
		PC:     pc,
		Status: pipeline.StatusNormal,
		Opcode: classify(s.decoder.Decode(word)),
	}
}

// SimID decodes the instruction word and reads the register file for
// whichever source operands the encoding uses. Immediates are not
// latched onto the descriptor; later stages re-decode Word on demand
// (cheap, since decoding is a pure function of the word) rather than
// widen the shared descriptor beyond the fields the control engine
// itself consults.
func (s *Simulator) SimID(inst pipeline.Instruction) pipeline.Instruction {
	d := s.decoder.Decode(inst.Word)

	inst.Opcode = classify(d)
	inst.IsLegal = d.IsLegal
	inst.IsNop = d.IsNop
	inst.IsHalt = d.IsHalt
	inst.ReadsRs1 = d.ReadsRs1
	inst.ReadsRs2 = d.ReadsRs2
	inst.WritesRd = d.WritesRd
	inst.Rs1 = d.Rs1
	inst.Rs2 = d.Rs2
	inst.Rd = d.Rd
	inst.ReadsMem = d.ReadsMem
	inst.WritesMem = d.WritesMem

	if d.ReadsRs1 {
		inst.Op1Val = s.regs.ReadReg(d.Rs1)
	}
	if d.ReadsRs2 {
		inst.Op2Val = s.regs.ReadReg(d.Rs2)
	}

	return inst
}

// classify maps a Decoded record to the coarse opcode tags the control
// engine branches on (spec §3).
func classify(d insts.Decoded) pipeline.Opcode {
	switch {
	case d.IsBranch:
		return pipeline.OpcodeBranch
	case d.IsJal:
		return pipeline.OpcodeJAL
	case d.IsJalr:
		return pipeline.OpcodeJALR
	case d.Op == insts.OpLoad:
		return pipeline.OpcodeLoad
	case d.Op == insts.OpStore:
		return pipeline.OpcodeStore
	default:
		return pipeline.OpcodeOther
	}
}

// SimNextPCResolution computes NextPC for a control-flow instruction
// with already-forwarded operands.
func (s *Simulator) SimNextPCResolution(inst pipeline.Instruction) pipeline.Instruction {
	d := s.decoder.Decode(inst.Word)

	switch inst.Opcode {
	case pipeline.OpcodeBranch:
		if evalBranch(d.Op, inst.Op1Val, inst.Op2Val) {
			inst.NextPC = uint64(int64(inst.PC) + d.Imm)
		} else {
			inst.NextPC = inst.PC + 4
		}
	case pipeline.OpcodeJAL:
		inst.NextPC = uint64(int64(inst.PC) + d.Imm)
	case pipeline.OpcodeJALR:
		inst.NextPC = (inst.Op1Val + uint64(d.Imm)) &^ 1
	default:
		inst.NextPC = inst.PC + 4
	}

	return inst
}

func evalBranch(op insts.Op, a, b uint64) bool {
	switch op {
	case insts.OpBeq:
		return a == b
	case insts.OpBne:
		return a != b
	case insts.OpBlt:
		return int64(a) < int64(b)
	case insts.OpBge:
		return int64(a) >= int64(b)
	default:
		return false
	}
}

// SimEX computes ArithResult for ALU ops and link-register writers, and
// MemAddress for loads/stores. Illegal words decode to OpIllegal and
// NOP/bubble/squashed slots (which carry NopWord) to OpNop; the switch
// has no case for either, so it is a no-op for them — no separate
// status guard is needed.
func (s *Simulator) SimEX(inst pipeline.Instruction) pipeline.Instruction {
	d := s.decoder.Decode(inst.Word)

	switch d.Op {
	case insts.OpAdd:
		inst.ArithResult = inst.Op1Val + inst.Op2Val
	case insts.OpSub:
		inst.ArithResult = inst.Op1Val - inst.Op2Val
	case insts.OpAnd:
		inst.ArithResult = inst.Op1Val & inst.Op2Val
	case insts.OpOr:
		inst.ArithResult = inst.Op1Val | inst.Op2Val
	case insts.OpXor:
		inst.ArithResult = inst.Op1Val ^ inst.Op2Val
	case insts.OpSlt:
		inst.ArithResult = boolToWord(int64(inst.Op1Val) < int64(inst.Op2Val))
	case insts.OpAddImm:
		inst.ArithResult = uint64(int64(inst.Op1Val) + d.Imm)
	case insts.OpAndImm:
		inst.ArithResult = inst.Op1Val & uint64(d.Imm)
	case insts.OpOrImm:
		inst.ArithResult = inst.Op1Val | uint64(d.Imm)
	case insts.OpXorImm:
		inst.ArithResult = inst.Op1Val ^ uint64(d.Imm)
	case insts.OpSltImm:
		inst.ArithResult = boolToWord(int64(inst.Op1Val) < d.Imm)
	case insts.OpLoad, insts.OpStore:
		inst.MemAddress = uint64(int64(inst.Op1Val) + d.Imm)
	case insts.OpJal, insts.OpJalr:
		inst.ArithResult = inst.PC + 4
	}

	return inst
}

func boolToWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// SimMEM performs the data-memory access for loads and stores and is a
// pass-through for everything else. An out-of-bounds address raises
// MemException instead of silently reading/writing garbage.
func (s *Simulator) SimMEM(inst pipeline.Instruction) pipeline.Instruction {
	switch {
	case inst.ReadsMem:
		if !s.mem.InBounds(inst.MemAddress, 4) {
			inst.MemException = true
			return inst
		}
		inst.MemResult = uint64(s.mem.Read32(inst.MemAddress))
	case inst.WritesMem:
		if !s.mem.InBounds(inst.MemAddress, 4) {
			inst.MemException = true
			return inst
		}
		s.mem.Write32(inst.MemAddress, uint32(inst.Op2Val))
	}

	return inst
}

// SimWB commits the architectural register write, if any. Loads write
// MemResult; everything else that writes a register writes ArithResult
// (ALU ops, and the link value computed by JAL/JALR in SimEX).
func (s *Simulator) SimWB(inst pipeline.Instruction) pipeline.Instruction {
	if inst.WritesRd && inst.Rd != 0 {
		value := inst.ArithResult
		if inst.ReadsMem {
			value = inst.MemResult
		}
		s.regs.WriteReg(inst.Rd, value)
	}

	return inst
}
