package emu_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fivestage/emu"
)

func TestEmu(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Emu Suite")
}

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemoryOfSize(4096)
	})

	It("round-trips a 32-bit word", func() {
		mem.Write32(0x100, 0xDEADBEEF)
		Expect(mem.Read32(0x100)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("round-trips a 64-bit doubleword", func() {
		mem.Write64(0x200, 0x1122334455667788)
		Expect(mem.Read64(0x200)).To(Equal(uint64(0x1122334455667788)))
	})

	It("loads a program image at an offset", func() {
		mem.Load(0x40, []byte{0x13, 0x00, 0x00, 0x00})
		Expect(mem.Read32(0x40)).To(Equal(uint32(0x00000013)))
	})

	It("reports out-of-range accesses", func() {
		Expect(mem.InBounds(4092, 4)).To(BeTrue())
		Expect(mem.InBounds(4093, 4)).To(BeFalse())
	})

	It("returns zero for out-of-range reads instead of panicking", func() {
		Expect(mem.Read32(1 << 30)).To(Equal(uint32(0)))
	})
})

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = &emu.RegFile{}
	})

	It("hard-wires x0 to zero", func() {
		rf.WriteReg(0, 0xFF)
		Expect(rf.ReadReg(0)).To(Equal(uint64(0)))
	})

	It("stores and reads back other registers", func() {
		rf.WriteReg(5, 42)
		Expect(rf.ReadReg(5)).To(Equal(uint64(42)))
	})
})
