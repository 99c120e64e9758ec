package vm

import (
	"fmt"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/params"
)

// FastPathResult is the frame state after a segment ran.
type FastPathResult struct {
	PC       uint64
	GasUsed  uint64
	StackLen int
}

// tryExecuteFastPath runs the hot path segment starting at the frame's pc.
// It reports false without touching the frame when there is no segment,
// or when the segment's gas or stack requirements are not met; the generic
// loop then raises the exact exception at the exact instruction.
func (in *EVMInterpreter) tryExecuteFastPath(frame *Frame) (FastPathResult, bool) {
	if !in.fastPath || frame.pc >= compiler.MaxFastPathPC {
		return FastPathResult{}, false
	}
	hot := frame.code.HotPath()
	if hot == nil {
		return FastPathResult{}, false
	}
	seg := hot.SegmentAt(frame.pc)
	if seg == nil {
		return FastPathResult{}, false
	}
	if sLen := frame.stack.len(); sLen < seg.MinStack || sLen+seg.MaxGrowth > int(params.StackLimit) {
		return FastPathResult{}, false
	}
	if err := frame.gas.ChargeUint64(seg.StaticGas); err != nil {
		return FastPathResult{}, false
	}

	switch seg.Kind {
	case compiler.SegmentFused:
		handler := lookupFused(seg.Pattern)
		if handler == nil {
			// Patterns are produced by the analysis, an unknown one means
			// the cache and the interpreter disagree.
			panic(fmt.Sprintf("no fused handler for pattern %v", seg.Pattern))
		}
		handler(frame, seg)
	default:
		for _, ins := range seg.Ops {
			pc := ins.PC
			if _, err := in.table[ins.Op].execute(&pc, in, frame); err != nil {
				panic(fmt.Sprintf("straight op %v failed inside a segment: %v", OpCode(ins.Op), err))
			}
		}
	}
	frame.pc = seg.StartPC() + seg.Length
	fastPathHitMeter.Mark(1)

	return FastPathResult{
		PC:       frame.pc,
		GasUsed:  seg.StaticGas,
		StackLen: frame.stack.len(),
	}, true
}
