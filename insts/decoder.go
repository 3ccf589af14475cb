package insts

// Decoder decodes 32-bit RV32I words into a Decoded record. Only the
// integer subset this simulator needs is recognized (R-type ALU ops,
// ADDI-family immediates, LW/SW, the four branch conditions, JAL, JALR,
// and ECALL as the HALT signal); anything else decodes as illegal, which
// the pipeline core turns into a precise exception (spec §4.4, §7).
type Decoder struct{}

// NewDecoder creates a Decoder. It carries no state; RV32I decoding is a
// pure function of the instruction word.
func NewDecoder() *Decoder {
	return &Decoder{}
}

const (
	opcodeOpImm  = 0x13
	opcodeOp     = 0x33
	opcodeLoad   = 0x03
	opcodeStore  = 0x23
	opcodeBranch = 0x63
	opcodeJal    = 0x6F
	opcodeJalr   = 0x67
	opcodeSystem = 0x73
)

func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend(value uint32, bitWidth uint) int64 {
	shift := 32 - bitWidth
	return int64(int32(value<<shift)) >> shift
}

// Decode classifies a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) Decoded {
	if word == NopWord {
		return Decoded{Op: OpNop, Format: FormatNop, IsLegal: true, IsNop: true}
	}

	opcode := bits(word, 6, 0)
	rd := uint8(bits(word, 11, 7))
	funct3 := bits(word, 14, 12)
	rs1 := uint8(bits(word, 19, 15))
	rs2 := uint8(bits(word, 24, 20))
	funct7 := bits(word, 31, 25)

	switch opcode {
	case opcodeOp:
		return decodeRType(rd, rs1, rs2, funct3, funct7)
	case opcodeOpImm:
		return decodeIType(rd, rs1, funct3, word)
	case opcodeLoad:
		if funct3 != 0x2 { // only LW supported
			return Decoded{Op: OpIllegal, Format: FormatIllegal}
		}
		imm := signExtend(bits(word, 31, 20), 12)
		return Decoded{
			Op: OpLoad, Format: FormatLoad, Rd: rd, Rs1: rs1, Imm: imm,
			IsLegal: true, ReadsRs1: true, WritesRd: true, ReadsMem: true,
		}
	case opcodeStore:
		if funct3 != 0x2 { // only SW supported
			return Decoded{Op: OpIllegal, Format: FormatIllegal}
		}
		immLo := bits(word, 11, 7)
		immHi := bits(word, 31, 25)
		imm := signExtend((immHi<<5)|immLo, 12)
		return Decoded{
			Op: OpStore, Format: FormatStore, Rs1: rs1, Rs2: rs2, Imm: imm,
			IsLegal: true, ReadsRs1: true, ReadsRs2: true, WritesMem: true,
		}
	case opcodeBranch:
		op, ok := branchOp(funct3)
		if !ok {
			return Decoded{Op: OpIllegal, Format: FormatIllegal}
		}
		imm := decodeBImm(word)
		return Decoded{
			Op: op, Format: FormatBranch, Rs1: rs1, Rs2: rs2, Imm: imm,
			IsLegal: true, ReadsRs1: true, ReadsRs2: true, IsBranch: true,
		}
	case opcodeJal:
		imm := decodeJImm(word)
		return Decoded{
			Op: OpJal, Format: FormatJal, Rd: rd, Imm: imm,
			IsLegal: true, WritesRd: true, IsJal: true,
		}
	case opcodeJalr:
		if funct3 != 0 {
			return Decoded{Op: OpIllegal, Format: FormatIllegal}
		}
		imm := signExtend(bits(word, 31, 20), 12)
		return Decoded{
			Op: OpJalr, Format: FormatJalr, Rd: rd, Rs1: rs1, Imm: imm,
			IsLegal: true, ReadsRs1: true, WritesRd: true, IsJalr: true,
		}
	case opcodeSystem:
		// ECALL (imm field zero) is this simulator's HALT signal; any
		// other SYSTEM encoding (CSR access, EBREAK) is not supported.
		if bits(word, 31, 20) == 0 && rd == 0 && rs1 == 0 {
			return Decoded{Op: OpHalt, Format: FormatHalt, IsLegal: true, IsHalt: true}
		}
		return Decoded{Op: OpIllegal, Format: FormatIllegal}
	default:
		return Decoded{Op: OpIllegal, Format: FormatIllegal}
	}
}

func decodeRType(rd, rs1, rs2 uint8, funct3, funct7 uint32) Decoded {
	var op Op
	switch {
	case funct3 == 0x0 && funct7 == 0x00:
		op = OpAdd
	case funct3 == 0x0 && funct7 == 0x20:
		op = OpSub
	case funct3 == 0x7:
		op = OpAnd
	case funct3 == 0x6:
		op = OpOr
	case funct3 == 0x4:
		op = OpXor
	case funct3 == 0x2:
		op = OpSlt
	default:
		return Decoded{Op: OpIllegal, Format: FormatIllegal}
	}
	return Decoded{
		Op: op, Format: FormatRType, Rd: rd, Rs1: rs1, Rs2: rs2,
		IsLegal: true, ReadsRs1: true, ReadsRs2: true, WritesRd: true,
	}
}

func decodeIType(rd, rs1 uint8, funct3 uint32, word uint32) Decoded {
	var op Op
	switch funct3 {
	case 0x0:
		op = OpAddImm
	case 0x7:
		op = OpAndImm
	case 0x6:
		op = OpOrImm
	case 0x4:
		op = OpXorImm
	case 0x2:
		op = OpSltImm
	default:
		return Decoded{Op: OpIllegal, Format: FormatIllegal}
	}
	imm := signExtend(bits(word, 31, 20), 12)
	return Decoded{
		Op: op, Format: FormatIType, Rd: rd, Rs1: rs1, Imm: imm,
		IsLegal: true, ReadsRs1: true, WritesRd: true,
	}
}

func branchOp(funct3 uint32) (Op, bool) {
	switch funct3 {
	case 0x0:
		return OpBeq, true
	case 0x1:
		return OpBne, true
	case 0x4:
		return OpBlt, true
	case 0x5:
		return OpBge, true
	default:
		return OpIllegal, false
	}
}

func decodeBImm(word uint32) int64 {
	b12 := bits(word, 31, 31)
	b11 := bits(word, 7, 7)
	b10_5 := bits(word, 30, 25)
	b4_1 := bits(word, 11, 8)
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(raw, 13)
}

func decodeJImm(word uint32) int64 {
	b20 := bits(word, 31, 31)
	b19_12 := bits(word, 19, 12)
	b11 := bits(word, 20, 20)
	b10_1 := bits(word, 30, 21)
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(raw, 21)
}
