// Package emu provides the architectural state that the pipeline's opaque
// stage functions operate on: the register file and the byte-addressable
// memory store. Both are external collaborators of the pipeline core
// (spec §1) — the core never reaches into them directly, only through the
// simulator package's stage functions.
package emu

// NumRegs is the number of general-purpose registers, x0-x31.
const NumRegs = 32

// RegFile is a RISC-V-style integer register file. x0 is hard-wired to
// zero: reads always return 0 and writes are discarded.
type RegFile struct {
	// X holds general-purpose registers x0-x31. X[0] is never read back
	// as anything but zero; ReadReg/WriteReg enforce this.
	X [NumRegs]uint64

	// PC is an architectural program counter slot. Nothing in this
	// module writes it and the register dump does not include it; the
	// pipeline's own PC (timing/pipeline.Snapshot.PC) is the one the
	// simulation uses.
	PC uint64
}

// ReadReg reads a register value. Register 0 always reads as zero.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || int(reg) >= NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || int(reg) >= NumRegs {
		return
	}
	r.X[reg] = value
}

// Snapshot returns a copy of the register contents, used by the final
// register dump (spec §6, finalizeSimulator).
func (r *RegFile) Snapshot() [NumRegs]uint64 {
	return r.X
}
