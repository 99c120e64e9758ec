package vm

import (
	"sync"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
)

var framePool = sync.Pool{
	New: func() any {
		return &Frame{}
	},
}

// getFrame returns a frame from the pool with a fresh stack and memory.
func getFrame(typ ExecutionType, parent *Frame, code *compiler.CodeInfo, gas int64) *Frame {
	frame := framePool.Get().(*Frame)

	// Reset the frame, nothing of the previous execution may leak
	*frame = Frame{
		Type:     typ,
		parent:   parent,
		code:     code,
		gas:      NewGasMeter(gas),
		startGas: gas,
		stack:    newstack(),
		memory:   NewMemory(),
	}
	if parent != nil {
		frame.depth = parent.depth + 1
	}
	return frame
}

// returnFrame returns a frame and its stack and memory to the pools
func returnFrame(frame *Frame) {
	if frame == nil {
		return
	}
	returnStack(frame.stack)
	frame.memory.Free()
	*frame = Frame{}
	framePool.Put(frame)
}
