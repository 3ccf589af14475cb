// Package trace provides the statistics and pipeline-state dump sinks
// that sit outside the pipeline core (spec §1 Non-goals: "formatters
// that write pipeline and statistics dump files"; spec §4.5, §6). The
// pipeline-state sink writes newline-delimited JSON, one record per
// cycle; the statistics and register dumps each write a single indented
// JSON object. All follow the encoding/json + JSON-file convention the
// rest of this module uses for configuration.
package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/fivestage/emu"
	"github.com/sarchlab/fivestage/timing/pipeline"
)

// pipeStateRecord is the JSON shape of one PipeState entry. Status
// fields are rendered as their string form so the trace file is
// readable without cross-referencing the Status enum.
type pipeStateRecord struct {
	Cycle uint64 `json:"cycle"`

	IFPC     uint64 `json:"if_pc"`
	IFStatus string `json:"if_status"`

	IDInstr  uint32 `json:"id_instr"`
	IDStatus string `json:"id_status"`

	EXInstr  uint32 `json:"ex_instr"`
	EXStatus string `json:"ex_status"`

	MEMInstr  uint32 `json:"mem_instr"`
	MEMStatus string `json:"mem_status"`

	WBInstr  uint32 `json:"wb_instr"`
	WBStatus string `json:"wb_status"`
}

func toRecord(p pipeline.PipeState) pipeStateRecord {
	return pipeStateRecord{
		Cycle:     p.Cycle,
		IFPC:      p.IFPC,
		IFStatus:  p.IFStatus.String(),
		IDInstr:   p.IDInstr,
		IDStatus:  p.IDStatus.String(),
		EXInstr:   p.EXInstr,
		EXStatus:  p.EXStatus.String(),
		MEMInstr:  p.MEMInstr,
		MEMStatus: p.MEMStatus.String(),
		WBInstr:   p.WBInstr,
		WBStatus:  p.WBStatus.String(),
	}
}

// PipeStateSink is a pipeline.TraceSink that appends one JSON record per
// cycle to a file, in the order cycles execute (spec §6's trace file
// format contract).
type PipeStateSink struct {
	f   *os.File
	enc *json.Encoder
}

// NewPipeStateSink opens (creating or truncating) path and returns a
// sink ready to receive RecordCycle calls.
func NewPipeStateSink(path string) (*PipeStateSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline trace file: %w", err)
	}
	return &PipeStateSink{f: f, enc: json.NewEncoder(f)}, nil
}

// RecordCycle implements pipeline.TraceSink.
func (s *PipeStateSink) RecordCycle(p pipeline.PipeState) {
	_ = s.enc.Encode(toRecord(p))
}

// Close flushes and closes the underlying file.
func (s *PipeStateSink) Close() error {
	return s.f.Close()
}

// statsRecord is the JSON shape of a SimulationStats dump.
type statsRecord struct {
	Instructions  uint64 `json:"instructions"`
	Cycles        uint64 `json:"cycles"`
	ICacheHits    uint64 `json:"i_cache_hits"`
	ICacheMisses  uint64 `json:"i_cache_misses"`
	DCacheHits    uint64 `json:"d_cache_hits"`
	DCacheMisses  uint64 `json:"d_cache_misses"`
	LoadUseStalls uint64 `json:"load_use_stalls"`
}

// DumpStats writes a single SimulationStats record to baseName +
// ".stats.json" (spec §6's finalizeSimulator/dumpSimStats contract).
func DumpStats(stats pipeline.SimulationStats, baseName string) error {
	record := statsRecord{
		Instructions:  stats.Instructions,
		Cycles:        stats.Cycles,
		ICacheHits:    stats.ICacheHits,
		ICacheMisses:  stats.ICacheMisses,
		DCacheHits:    stats.DCacheHits,
		DCacheMisses:  stats.DCacheMisses,
		LoadUseStalls: stats.LoadUseStalls,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize simulation stats: %w", err)
	}
	if err := os.WriteFile(baseName+".stats.json", data, 0o644); err != nil {
		return fmt.Errorf("failed to write simulation stats: %w", err)
	}
	return nil
}

// regMemRecord is the JSON shape of the final architectural state dump.
type regMemRecord struct {
	Registers [emu.NumRegs]uint64 `json:"registers"`
	MemSize   uint64              `json:"mem_size"`
}

// DumpRegMem writes the final register file to baseName + ".regs.json"
// (spec §6's dumpRegMem contract). It deliberately doesn't dump the
// full memory image — that can be megabytes — only its size, alongside
// the architectural registers that test programs actually assert on.
func DumpRegMem(regs *emu.RegFile, mem *emu.Memory, baseName string) error {
	record := regMemRecord{
		Registers: regs.Snapshot(),
		MemSize:   mem.Size(),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize register/memory dump: %w", err)
	}
	if err := os.WriteFile(baseName+".regs.json", data, 0o644); err != nil {
		return fmt.Errorf("failed to write register/memory dump: %w", err)
	}
	return nil
}
