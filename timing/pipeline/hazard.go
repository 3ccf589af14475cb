package pipeline

// Operand selects which source register a forward or dependency check
// is resolving.
type Operand int

// Operands.
const (
	OperandRs1 Operand = iota
	OperandRs2
)

// dependsOn reports whether consumer reads producer's destination
// register through either source operand (spec's dependsOn helper,
// grounded on the engine's control-hazard dependency check, §4.2).
func dependsOn(consumer, producer Instruction) bool {
	if !producer.writesVisibleRd() {
		return false
	}
	return (consumer.ReadsRs1 && consumer.Rs1 == producer.Rd) ||
		(consumer.ReadsRs2 && consumer.Rs2 == producer.Rd)
}

// sourceValue extracts the value a forwarding source contributes: the
// memory result if the source reads memory, otherwise the EX-computed
// arithmetic result (spec §4.2: "memResult if the source reads memory
// and is past MEM... else arithResult").
func sourceValue(src Instruction) uint64 {
	if src.ReadsMem {
		return src.MemResult
	}
	return src.ArithResult
}

// matches reports whether src is a valid forwarding source for the
// requested operand of inst (spec §4.2 conditions i-iii).
func matches(inst, src Instruction, operand Operand) bool {
	if !src.writesVisibleRd() {
		return false
	}
	if operand == OperandRs1 {
		return inst.Rs1 == src.Rd
	}
	return inst.Rs2 == src.Rd
}

// Forward resolves a source operand against two later-stage sources in
// priority order: memSrc (the MEM latch, whose instruction writes back
// this cycle) then wbSrc (the WB latch). First match wins; if neither
// matches, orig passes through unchanged. A producer in the EX latch is
// not one of these sources: the engine checks a non-load producer there
// itself, ahead of Forward, when an instruction moves from ID into EX.
func Forward(inst, memSrc, wbSrc Instruction, orig uint64, operand Operand) uint64 {
	if matches(inst, memSrc, operand) {
		return sourceValue(memSrc)
	}
	if matches(inst, wbSrc, operand) {
		return sourceValue(wbSrc)
	}
	return orig
}

// DetectLoadUseHazard reports whether the instruction latched in EX is a
// load whose destination the instruction latched in ID needs before it
// can be produced (spec §4.2 Load-use hazard). A store's rs2 data
// operand is exempt since it's forwarded later at MEM.
func DetectLoadUseHazard(exInst, idInst Instruction) bool {
	if !(exInst.ReadsMem && exInst.WritesRd && exInst.Rd != 0) {
		return false
	}
	if idInst.ReadsRs1 && idInst.Rs1 == exInst.Rd {
		return true
	}
	if idInst.ReadsRs2 && idInst.Rs2 == exInst.Rd && !idInst.WritesMem {
		return true
	}
	return false
}

// BranchStallDecision is the outcome of evaluating the control-hazard
// stall policy for a branch/JALR sitting in ID (spec §4.2).
type BranchStallDecision struct {
	Stall          bool
	Cycles         int
	ProducerIsLoad bool
}

// DetectBranchStall evaluates the three-tier control-hazard policy: a
// branch/JALR in ID that depends on an EX or MEM producer must wait for
// that producer's value before its target can be resolved.
func DetectBranchStall(idInst, exInst, memInst Instruction) BranchStallDecision {
	if dependsOn(idInst, exInst) {
		if exInst.ReadsMem {
			return BranchStallDecision{Stall: true, Cycles: 2, ProducerIsLoad: true}
		}
		return BranchStallDecision{Stall: true, Cycles: 1, ProducerIsLoad: false}
	}
	if dependsOn(idInst, memInst) && memInst.ReadsMem {
		return BranchStallDecision{Stall: true, Cycles: 1, ProducerIsLoad: true}
	}
	return BranchStallDecision{}
}
