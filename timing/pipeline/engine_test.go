package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/fivestage/timing/cache"
	"github.com/sarchlab/fivestage/timing/pipeline"
)

// fakeTemplate is the fixed classification a fakeSimulator associates
// with a given instruction word, letting tests script exact hazard and
// control-flow shapes without going through a real decoder.
type fakeTemplate struct {
	opcode    pipeline.Opcode
	isLegal   bool
	isHalt    bool
	readsRs1  bool
	readsRs2  bool
	writesRd  bool
	rs1, rs2  uint8
	rd        uint8
	readsMem  bool
	writesMem bool
	memAddr   uint64
}

// fakeSimulator is a pipeline.Simulator test double with fully
// scripted decode/execute/branch-resolution behavior, letting each test
// exercise the control engine's stepping logic in isolation from any
// real ISA.
type fakeSimulator struct {
	words        map[uint64]uint32 // PC -> instruction word
	decode       map[uint32]fakeTemplate
	regs         [32]uint64
	mem          map[uint64]uint64
	faultAddrs   map[uint64]bool
	branchTarget map[uint64]uint64 // keyed by the branch's own PC
}

func newFakeSimulator() *fakeSimulator {
	return &fakeSimulator{
		words:        map[uint64]uint32{},
		decode:       map[uint32]fakeTemplate{},
		mem:          map[uint64]uint64{},
		faultAddrs:   map[uint64]bool{},
		branchTarget: map[uint64]uint64{},
	}
}

func (f *fakeSimulator) place(pc uint64, word uint32, tmpl fakeTemplate) {
	f.words[pc] = word
	f.decode[word] = tmpl
}

func (f *fakeSimulator) SimIF(pc uint64) pipeline.Instruction {
	word, ok := f.words[pc]
	if !ok {
		word = pipeline.NopWord
	}
	return pipeline.Instruction{Word: word, PC: pc, Status: pipeline.StatusNormal}
}

func (f *fakeSimulator) SimID(inst pipeline.Instruction) pipeline.Instruction {
	if inst.Word == pipeline.NopWord {
		return pipeline.Instruction{Word: inst.Word, PC: inst.PC, Status: inst.Status, IsLegal: true, IsNop: true}
	}
	tmpl, ok := f.decode[inst.Word]
	if !ok {
		inst.IsLegal = false
		return inst
	}
	inst.Opcode = tmpl.opcode
	inst.IsLegal = tmpl.isLegal
	inst.IsHalt = tmpl.isHalt
	inst.ReadsRs1 = tmpl.readsRs1
	inst.ReadsRs2 = tmpl.readsRs2
	inst.WritesRd = tmpl.writesRd
	inst.Rs1, inst.Rs2, inst.Rd = tmpl.rs1, tmpl.rs2, tmpl.rd
	inst.ReadsMem = tmpl.readsMem
	inst.WritesMem = tmpl.writesMem
	if tmpl.readsRs1 {
		inst.Op1Val = f.regs[tmpl.rs1]
	}
	if tmpl.readsRs2 {
		inst.Op2Val = f.regs[tmpl.rs2]
	}
	return inst
}

func (f *fakeSimulator) SimNextPCResolution(inst pipeline.Instruction) pipeline.Instruction {
	if target, ok := f.branchTarget[inst.PC]; ok {
		inst.NextPC = target
	} else {
		inst.NextPC = inst.PC + 4
	}
	return inst
}

func (f *fakeSimulator) SimEX(inst pipeline.Instruction) pipeline.Instruction {
	if inst.ReadsMem || inst.WritesMem {
		tmpl := f.decode[inst.Word]
		inst.MemAddress = tmpl.memAddr
	} else {
		inst.ArithResult = inst.Op1Val + inst.Op2Val
	}
	return inst
}

func (f *fakeSimulator) SimMEM(inst pipeline.Instruction) pipeline.Instruction {
	switch {
	case inst.ReadsMem:
		if f.faultAddrs[inst.MemAddress] {
			inst.MemException = true
			return inst
		}
		inst.MemResult = f.mem[inst.MemAddress]
	case inst.WritesMem:
		if f.faultAddrs[inst.MemAddress] {
			inst.MemException = true
			return inst
		}
		f.mem[inst.MemAddress] = inst.Op2Val
	}
	return inst
}

func (f *fakeSimulator) SimWB(inst pipeline.Instruction) pipeline.Instruction {
	if inst.WritesRd && inst.Rd != 0 {
		value := inst.ArithResult
		if inst.ReadsMem {
			value = inst.MemResult
		}
		f.regs[inst.Rd] = value
	}
	return inst
}

func smallCache(missLatency uint64) *cache.Cache {
	return cache.New(cache.Config{CacheSize: 1024, BlockSize: 32, Ways: 2, MissLatency: missLatency}, cache.KindData)
}

var _ = Describe("Engine", func() {
	var (
		sim            *fakeSimulator
		iCache, dCache *cache.Cache
		eng            *pipeline.Engine
	)

	BeforeEach(func() {
		sim = newFakeSimulator()
		iCache = smallCache(3)
		dCache = smallCache(3)
		eng = pipeline.NewEngine(sim, iCache, dCache)
		eng.Init(0)
	})

	It("advances a straight-line chain of independent instructions without stalling", func() {
		for i := uint64(0); i < 4; i++ {
			pc := i * 4
			sim.place(pc, uint32(0x1000+pc), fakeTemplate{
				opcode: pipeline.OpcodeOther, isLegal: true, writesRd: true, rd: uint8(i + 1),
			})
		}

		// The cold I-cache miss on the first fetch (4 cycles) delays the
		// whole chain by a fixed offset; once past it the four
		// independent instructions retire back-to-back one per cycle.
		for i := 0; i < 11; i++ {
			Expect(eng.Tick()).To(Equal(pipeline.RunSuccess))
		}

		stats := eng.Finalize()
		Expect(stats.Instructions).To(Equal(uint64(4)))
		Expect(stats.LoadUseStalls).To(Equal(uint64(0)))
	})

	It("inserts exactly one bubble and one stall count for a load-use hazard", func() {
		sim.place(0, 0xAAAA, fakeTemplate{
			opcode: pipeline.OpcodeLoad, isLegal: true, writesRd: true, rd: 1,
			readsMem: true, memAddr: 0x100,
		})
		sim.mem[0x100] = 77
		sim.place(4, 0xBBBB, fakeTemplate{
			opcode: pipeline.OpcodeOther, isLegal: true, writesRd: true, rd: 2,
			readsRs1: true, rs1: 1,
		})

		// The cold I-cache miss on the very first fetch costs missLatency
		// (3) cycles before the load even reaches ID, so the load-use
		// stall itself doesn't land until cycle 7: 4 cycles for the cold
		// fetch to clear plus 3 more for the load to reach EX while the
		// add reaches ID.
		for i := 0; i < 6; i++ {
			eng.Tick()
		}
		Expect(eng.Tick()).To(Equal(pipeline.RunSuccess))

		snap := eng.Snapshot()
		Expect(snap.EX.Status).To(Equal(pipeline.StatusBubble))
		Expect(snap.LoadUseStalls).To(Equal(uint64(1)))

		for i := 0; i < 6; i++ {
			eng.Tick()
		}
		Expect(sim.regs[2]).To(Equal(uint64(77)))
	})

	It("squashes IF and redirects PC on a taken branch", func() {
		sim.place(0, 0xC0DE, fakeTemplate{opcode: pipeline.OpcodeBranch, isLegal: true})
		sim.branchTarget[0] = 0x40
		sim.place(4, 0xD00D, fakeTemplate{opcode: pipeline.OpcodeOther, isLegal: true})

		// The cold I-cache miss on the branch's own fetch costs 4 cycles
		// before it reaches ID; resolution (and the redirect) happens in
		// the same cycle the branch advances into ID, cycle 5.
		for i := 0; i < 4; i++ {
			eng.Tick()
		}
		Expect(eng.Tick()).To(Equal(pipeline.RunSuccess)) // branch resolves in ID this cycle

		snap := eng.Snapshot()
		Expect(snap.IF.Status).To(Equal(pipeline.StatusSquashed))
		Expect(snap.PC).To(Equal(uint64(0x40)))
	})

	It("stalls IF for exactly missLatency cycles on an I-cache miss then resumes", func() {
		iCache = smallCache(3)
		eng = pipeline.NewEngine(sim, iCache, dCache)
		eng.Init(0)
		sim.place(0, 0xF00D, fakeTemplate{opcode: pipeline.OpcodeOther, isLegal: true})

		eng.Tick() // cold fetch misses, remaining set to missLatency (3)
		snap := eng.Snapshot()
		Expect(snap.IMissActive).To(BeTrue())
		Expect(snap.PC).To(Equal(uint64(0))) // PC withheld during the miss

		eng.Tick() // remaining: 3 -> 2
		eng.Tick() // remaining: 2 -> 1
		eng.Tick() // remaining: 1 -> 0, miss finalizes this cycle
		snap = eng.Snapshot()
		Expect(snap.IMissActive).To(BeFalse())
		Expect(snap.PC).To(Equal(uint64(4))) // retired: PC advances once the miss clears
	})

	It("flushes the pipeline and redirects to the exception handler on a memory fault", func() {
		sim.place(0, 0x1111, fakeTemplate{
			opcode: pipeline.OpcodeLoad, isLegal: true, writesRd: true, rd: 1,
			readsMem: true, memAddr: 0x900,
		})
		sim.faultAddrs[0x900] = true

		// Cold I-cache miss (4 cycles) before the load even reaches ID,
		// then a cold D-cache miss on its own address (3 more cycles of
		// stall plus the resolving cycle) before simMEM actually runs
		// and raises memException; the trap itself is only detected the
		// cycle after that.
		for i := 0; i < 11; i++ {
			eng.Tick()
		}

		snap := eng.Snapshot()
		Expect(snap.PC).To(Equal(pipeline.ExceptionHandlerAddr))
	})

	It("returns RunHalt once a HALT instruction retires and stays halted", func() {
		sim.place(0, 0x9999, fakeTemplate{opcode: pipeline.OpcodeOther, isLegal: true, isHalt: true})

		// Cold I-cache miss costs 4 cycles before HALT even reaches ID;
		// 4 more cycles carry it through ID/EX/MEM/WB.
		var status pipeline.RunStatus
		for i := 0; i < 10; i++ {
			status = eng.Tick()
			if status == pipeline.RunHalt {
				break
			}
		}
		Expect(status).To(Equal(pipeline.RunHalt))
		Expect(eng.Halted()).To(BeTrue())
		Expect(eng.Tick()).To(Equal(pipeline.RunHalt))
	})
})
