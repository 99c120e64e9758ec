package vm

import (
	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/holiman/uint256"
)

// fusedHandler runs a whole fused segment. Gas and stack bounds have been
// checked for the segment before the handler is called, and immediates
// are taken from the decoded instructions rather than from the code.
type fusedHandler func(frame *Frame, seg *compiler.Segment)

var fusedHandlers = [...]fusedHandler{
	compiler.Push1Push1:            fusedPush1Push1,
	compiler.Push1Add:              fusedPush1Add,
	compiler.Push1Shl:              fusedPush1Shl,
	compiler.Swap1Pop:              fusedSwap1Pop,
	compiler.PopPop:                fusedPopPop,
	compiler.Swap2Swap1:            fusedSwap2Swap1,
	compiler.Swap2Pop:              fusedSwap2Pop,
	compiler.Swap1Dup2:             fusedSwap1Dup2,
	compiler.Dup2Lt:                fusedDup2Lt,
	compiler.Dup3And:               fusedDup3And,
	compiler.IsZeroPush2:           fusedIsZeroPush2,
	compiler.Swap1PopSwap2Swap1:    fusedSwap1PopSwap2Swap1,
	compiler.Swap3PopPopPop:        fusedSwap3PopPopPop,
	compiler.SubSltIsZeroPush2:     fusedSubSltIsZeroPush2,
	compiler.AndDup2AddSwap1Dup2Lt: fusedAndDup2AddSwap1Dup2Lt,
}

// lookupFused returns the handler of p, nil for patterns this interpreter
// does not fuse.
func lookupFused(p compiler.Pattern) fusedHandler {
	if int(p) < len(fusedHandlers) {
		return fusedHandlers[p]
	}
	return nil
}

func pushImmediate(frame *Frame, data []byte) {
	frame.stack.push(new(uint256.Int).SetBytes(data))
}

func fusedPush1Push1(frame *Frame, seg *compiler.Segment) {
	pushImmediate(frame, seg.Ops[0].Data)
	pushImmediate(frame, seg.Ops[1].Data)
}

func fusedPush1Add(frame *Frame, seg *compiler.Segment) {
	y := frame.stack.peek()
	y.Add(y, new(uint256.Int).SetBytes(seg.Ops[0].Data))
}

func fusedPush1Shl(frame *Frame, seg *compiler.Segment) {
	value := frame.stack.peek()
	// A single byte shift is always below 256
	value.Lsh(value, uint(seg.Ops[0].Data[0]))
}

func fusedSwap1Pop(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap1()
	frame.stack.pop()
}

func fusedPopPop(frame *Frame, seg *compiler.Segment) {
	frame.stack.pop2()
}

func fusedSwap2Swap1(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap2()
	frame.stack.swap1()
}

func fusedSwap2Pop(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap2()
	frame.stack.pop()
}

func fusedSwap1Dup2(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap1()
	frame.stack.dup(2)
}

func fusedDup2Lt(frame *Frame, seg *compiler.Segment) {
	x := frame.stack.data[frame.stack.len()-2]
	y := frame.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
}

func fusedDup3And(frame *Frame, seg *compiler.Segment) {
	x := frame.stack.data[frame.stack.len()-3]
	y := frame.stack.peek()
	y.And(&x, y)
}

func fusedIsZeroPush2(frame *Frame, seg *compiler.Segment) {
	x := frame.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	pushImmediate(frame, seg.Ops[1].Data)
}

func fusedSwap1PopSwap2Swap1(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap1()
	frame.stack.pop()
	frame.stack.swap2()
	frame.stack.swap1()
}

func fusedSwap3PopPopPop(frame *Frame, seg *compiler.Segment) {
	frame.stack.swap3()
	frame.stack.pop2()
	frame.stack.pop()
}

func fusedSubSltIsZeroPush2(frame *Frame, seg *compiler.Segment) {
	x, y := frame.stack.pop2()
	y.Sub(&x, &y)
	z := frame.stack.peek()
	// ISZERO(SLT(a, b)) folds into !SLT(a, b)
	if y.Slt(z) {
		z.Clear()
	} else {
		z.SetOne()
	}
	pushImmediate(frame, seg.Ops[3].Data)
}

func fusedAndDup2AddSwap1Dup2Lt(frame *Frame, seg *compiler.Segment) {
	x := frame.stack.pop()
	y := frame.stack.peek()
	y.And(&x, y)

	frame.stack.dup(2)
	x = frame.stack.pop()
	y = frame.stack.peek()
	y.Add(&x, y)

	frame.stack.swap1()
	x = frame.stack.data[frame.stack.len()-2]
	y = frame.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
}
