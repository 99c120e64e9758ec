package compiler

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrFailPreprocessing = errors.New("fail to do preprocessing")
	ErrUnknownMode       = errors.New("unknown analysis mode")
)

type taskKind byte

const (
	taskJumpDests taskKind = iota + 1
	taskHotPath
)

type analysisTask struct {
	info *CodeInfo
	kind taskKind
	mode AnalysisMode
}

// schedule queues a task without blocking. A full queue drops the task.
func (c *CodeCache) schedule(task analysisTask) bool {
	select {
	case c.tasks <- task:
		analysisScheduledCounter.Inc(1)
		return true
	default:
		analysisDroppedCounter.Inc(1)
		log.Debug("Analysis queue full, dropping task", "hash", task.info.Hash, "mode", task.mode)
		return false
	}
}

func (c *CodeCache) taskProcessor() {
	defer c.wg.Done()
	for {
		select {
		case task := <-c.tasks:
			c.handleTask(task)
		case <-c.quit:
			return
		}
	}
}

func (c *CodeCache) handleTask(task analysisTask) {
	switch task.kind {
	case taskJumpDests:
		task.info.jumps.Analyse()

	case taskHotPath:
		hot, err := BuildHotPath(task.info.Code, task.mode, c.isa)
		if err != nil {
			analysisFailedCounter.Inc(1)
			log.Debug("Code analysis failed", "hash", task.info.Hash, "mode", task.mode, "err", err)
			task.info.abandon()
			return
		}
		analysisCompletedCounter.Inc(1)
		task.info.publish(hot)
	}
}

// BuildHotPath analyses code and returns the segments for the given mode.
// Code that yields no segment is reported as ErrFailPreprocessing.
func BuildHotPath(code []byte, mode AnalysisMode, isa InstructionSet) (hot *HotPath, err error) {
	defer func() {
		if r := recover(); r != nil {
			hot, err = nil, fmt.Errorf("%w: %v", ErrFailPreprocessing, r)
		}
	}()
	var build func(BasicBlock, InstructionSet) []*Segment
	switch mode {
	case ModePatternMatching:
		build = fuseBlock
	case ModeSubsegmentCompiled:
		build = compileBlock
	default:
		return nil, ErrUnknownMode
	}
	var segments []*Segment
	for _, block := range GenerateBasicBlocks(code) {
		if block.StartPC >= MaxFastPathPC {
			break
		}
		for _, seg := range build(block, isa) {
			if seg.StartPC() < MaxFastPathPC {
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) == 0 {
		return nil, ErrFailPreprocessing
	}
	hot = &HotPath{
		Mode:     mode,
		segments: make([]*Segment, segments[len(segments)-1].StartPC()+1),
		count:    len(segments),
	}
	for _, seg := range segments {
		hot.segments[seg.StartPC()] = seg
	}
	return hot, nil
}

// fuseBlock replaces known instruction sequences of a block by fused
// segments.
func fuseBlock(block BasicBlock, isa InstructionSet) []*Segment {
	var segments []*Segment
	ins := block.Instructions
	for i := 0; i < len(ins); {
		pattern, n := matchPattern(ins[i:])
		if n == 0 || !straight(ins[i:i+n], isa) {
			i++
			continue
		}
		segments = append(segments, newSegment(SegmentFused, pattern, ins[i:i+n], isa))
		i += n
	}
	return segments
}

// compileBlock turns every maximal run of at least two straight
// instructions of a block into a compiled segment.
func compileBlock(block BasicBlock, isa InstructionSet) []*Segment {
	var (
		segments []*Segment
		ins      = block.Instructions
		start    = 0
	)
	flush := func(end int) {
		if end-start >= 2 {
			segments = append(segments, newSegment(SegmentCompiled, NoPattern, ins[start:end], isa))
		}
	}
	for i := range ins {
		if !straight(ins[i:i+1], isa) {
			flush(i)
			start = i + 1
		}
	}
	flush(len(ins))
	return segments
}

func straight(ins []Instruction, isa InstructionSet) bool {
	for _, in := range ins {
		if in.truncated() {
			return false
		}
		info, ok := isa.OpInfo(in.Op)
		if !ok || !info.Straight {
			return false
		}
	}
	return true
}

// BasicBlock is a run of instructions that is only entered at its first
// instruction and only left after its last one.
type BasicBlock struct {
	StartPC      uint64 // Program counter where this block starts
	EndPC        uint64 // Program counter where this block ends (exclusive)
	Instructions []Instruction
	IsJumpDest   bool // Whether this block starts with a JUMPDEST
}

// GenerateBasicBlocks splits code into basic blocks. A block starts at a
// JUMPDEST or after a terminator, and ends with a terminator, right before
// a JUMPDEST, or at the end of the code.
func GenerateBasicBlocks(code []byte) []BasicBlock {
	if len(code) == 0 {
		return nil
	}
	var (
		blocks  []BasicBlock
		current *BasicBlock
		pc      uint64
	)
	for pc < uint64(len(code)) {
		op := ByteCode(code[pc])
		if op == JUMPDEST && current != nil {
			current.EndPC = pc
			blocks = append(blocks, *current)
			current = nil
		}
		if current == nil {
			current = &BasicBlock{StartPC: pc, IsJumpDest: op == JUMPDEST}
		}
		ins := Instruction{PC: pc, Op: op}
		if n := op.immediateSize(); n > 0 {
			end := pc + 1 + uint64(n)
			if end > uint64(len(code)) {
				end = uint64(len(code))
			}
			ins.Data = code[pc+1 : end]
		}
		current.Instructions = append(current.Instructions, ins)
		pc += ins.Size()

		if isBlockTerminator(op) {
			current.EndPC = pc
			blocks = append(blocks, *current)
			current = nil
		}
	}
	if current != nil {
		current.EndPC = pc
		blocks = append(blocks, *current)
	}
	return blocks
}
