// Package insts defines the RV32I subset decoded by the simulator
// package and provides the decoder. The pipeline core never looks
// inside a Decoded value directly — it only consumes the opcode-tag
// classification the simulator package derives from it (spec §1:
// decoder/ALU are external collaborators).
package insts

// Op identifies the decoded operation.
type Op int

// Recognized operations. OpIllegal is returned for any word the decoder
// cannot classify.
const (
	OpIllegal Op = iota
	OpNop
	OpHalt
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpSlt
	OpAddImm
	OpAndImm
	OpOrImm
	OpXorImm
	OpSltImm
	OpLoad
	OpStore
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpJal
	OpJalr
)

// Format groups operations that share an encoding and register-usage shape.
type Format int

// Instruction encoding formats.
const (
	FormatIllegal Format = iota
	FormatNop
	FormatHalt
	FormatRType  // rd, rs1, rs2
	FormatIType  // rd, rs1, imm
	FormatLoad   // rd, rs1, imm (address = rs1+imm)
	FormatStore  // rs1 (base), rs2 (data), imm
	FormatBranch // rs1, rs2, imm (PC-relative offset)
	FormatJal    // rd, imm (PC-relative offset)
	FormatJalr   // rd, rs1, imm
)

// Decoded is the decoder's raw output: the classification and register/
// immediate fields needed to build a pipeline.Instruction, before any
// register-file read or forwarding has happened.
type Decoded struct {
	Op     Op
	Format Format
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Imm    int64

	IsLegal bool
	IsNop   bool
	IsHalt  bool

	ReadsRs1  bool
	ReadsRs2  bool
	WritesRd  bool
	ReadsMem  bool
	WritesMem bool
	IsBranch  bool // BEQ/BNE/BLT/BGE
	IsJal     bool
	IsJalr    bool
}

// NopWord is the canonical encoded NOP, an ADDI x0, x0, 0.
const NopWord uint32 = 0x00000013
