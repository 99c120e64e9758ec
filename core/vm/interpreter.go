// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"
)

// EVMInterpreter represents an EVM interpreter. Nested calls do not recurse:
// the interpreter keeps the chain of active frames through their parent
// pointers and switches between them.
type EVMInterpreter struct {
	evm      *EVM
	table    *JumpTable
	maxDepth int

	// fastPath is set when the code cache builds its hot paths for the
	// same instruction table.
	fastPath bool
}

// NewEVMInterpreter returns a new instance of the Interpreter.
func NewEVMInterpreter(evm *EVM) *EVMInterpreter {
	table := LookupInstructionSet(evm.chainRules)
	in := &EVMInterpreter{
		evm:      evm,
		table:    table,
		maxDepth: evm.interpreterConfig.MaxCallDepth,
	}
	if evm.codeCache != nil {
		isa, ok := evm.codeCache.InstructionSet().(*JumpTable)
		in.fastPath = ok && isa == table
	}
	return in
}

// Run executes root and every frame it calls until root completes. The
// returned error is root's; errors of nested frames are turned into the
// status word pushed onto their parent's stack.
//
// Cancellation is polled between frames: once the EVM is cancelled, every
// frame still on the chain aborts with ErrExecutionAborted.
func (in *EVMInterpreter) Run(root *Frame) ([]byte, error) {
	frame := root
	for {
		var (
			ret []byte
			err error
		)
		if in.evm.Cancelled() {
			err = ErrExecutionAborted
		} else {
			ret, err = in.execute(frame)
		}
		if err == nil && frame.pending != nil {
			child := frame.pending
			frame.pending = nil
			frame = child
			continue
		}
		if frame == root {
			return ret, err
		}
		parent := frame.parent
		in.finishCall(parent, frame, ret, err)
		frame = parent
	}
}

// execute runs frame from its pc until it completes, aborts or starts a
// child frame.
func (in *EVMInterpreter) execute(frame *Frame) ([]byte, error) {
	if frame.code.IsEmpty() {
		return nil, nil
	}
	for {
		if _, ok := in.tryExecuteFastPath(frame); ok {
			continue
		}
		operation := in.table[frame.getOp(frame.pc)]

		// Validate stack
		if sLen := frame.stack.len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}
		if err := frame.gas.ChargeUint64(operation.constantGas); err != nil {
			return nil, err
		}

		var memorySize uint64
		// All ops with a dynamic memory usage also has a dynamic gas cost.
		if operation.dynamicGas != nil {
			// calculate the new memory size and expand the memory to fit
			// the operation
			// Memory check needs to be done prior to evaluating the dynamic gas portion,
			// to detect calculation overflows
			if operation.memorySize != nil {
				memSize, overflow := operation.memorySize(frame.stack)
				if overflow {
					return nil, ErrGasUintOverflow
				}
				// memory is expanded in words of 32 bytes. Gas
				// is also calculated in words.
				if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
					return nil, ErrGasUintOverflow
				}
			}
			// Consume the gas and return an error if not enough gas is available.
			// cost is explicitly set so that the capture state defer method can get the proper cost
			dynamicCost, err := operation.dynamicGas(in, frame, memorySize)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrOutOfGas, err)
			}
			if err := frame.gas.ChargeUint64(dynamicCost); err != nil {
				return nil, err
			}
		}
		if memorySize > 0 {
			frame.memory.Resize(memorySize)
		}

		// execute the operation
		res, err := operation.execute(&frame.pc, in, frame)
		if err != nil {
			if err == errStopToken {
				err = nil // clear stop token error
			}
			return res, err
		}
		frame.pc++
		if frame.pending != nil {
			return nil, nil
		}
	}
}

// finishCall hands the result of child back to parent: the status word,
// the output and the unused gas.
func (in *EVMInterpreter) finishCall(parent, child *Frame, ret []byte, err error) {
	var (
		evm     = in.evm
		tracer  = evm.Config.Tracer
		gasLeft = child.gas.Remaining()
	)
	if err != nil {
		evm.StateDB.RevertToSnapshot(child.snapshot)
		if isExceptional(err) {
			if tracer != nil && tracer.OnGasChange != nil {
				tracer.OnGasChange(uint64(gasLeft), 0, tracing.GasChangeCallFailedExecution)
			}
			gasLeft = 0
			ret = nil
			failedCallCounter.Inc(1)
		}
	}
	evm.captureEnd(child.depth, uint64(child.startGas), uint64(gasLeft), ret, err)

	if err != nil {
		parent.stack.push(new(uint256.Int))
	} else {
		parent.stack.push(new(uint256.Int).SetOne())
	}
	if err == nil || errors.Is(err, ErrExecutionReverted) {
		parent.memory.Set(child.retOffset, min(child.retSize, uint64(len(ret))), ret)
	}
	parent.returnData = ret

	before := parent.gas.Remaining()
	parent.gas.Refund(gasLeft)
	if gasLeft != 0 && tracer != nil && tracer.OnGasChange != nil {
		tracer.OnGasChange(uint64(before), uint64(parent.gas.Remaining()), tracing.GasChangeCallLeftOverRefunded)
	}
	returnFrame(child)
}
