// Copyright 2015 The go-ethereum Authors
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
	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallKind is the variant of a CALL-family instruction.
type CallKind uint8

const (
	Call CallKind = iota
	CallCode
	DelegateCall
	StaticCall
)

func (k CallKind) String() string {
	return k.opCode().String()
}

func (k CallKind) opCode() OpCode {
	switch k {
	case CallCode:
		return CALLCODE
	case DelegateCall:
		return DELEGATECALL
	case StaticCall:
		return STATICCALL
	default:
		return CALL
	}
}

func (k CallKind) executionType() ExecutionType {
	switch k {
	case CallCode:
		return ExecCallCode
	case DelegateCall:
		return ExecDelegateCall
	case StaticCall:
		return ExecStaticCall
	default:
		return ExecCall
	}
}

// hasValue reports whether the instruction takes a value operand.
func (k CallKind) hasValue() bool {
	return k == Call || k == CallCode
}

// ExecutionOutcome is the result of a CALL-family instruction that did not
// abort. Child is the frame the interpreter has to run next, nil when the
// call was completed in place.
type ExecutionOutcome struct {
	Child *Frame
}

func makeCall(kind CallKind) executionFunc {
	return func(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
		outcome, err := interpreter.ExecuteCallInstruction(kind, frame)
		if err != nil {
			return nil, err
		}
		frame.pending = outcome.Child
		return nil, nil
	}
}

// ExecuteCallInstruction executes one CALL, CALLCODE, DELEGATECALL or
// STATICCALL on top of frame. The operands are consumed even if the
// instruction aborts.
//
// A returned error is an exceptional abort of frame. Calls that fail
// without aborting (depth limit, insufficient balance) push zero and refund
// the forwarded gas. Calls to precompiles and to accounts without code are
// completed in place; everything else returns the child frame, whose result
// is pushed once the interpreter has run it.
func (in *EVMInterpreter) ExecuteCallInstruction(kind CallKind, frame *Frame) (ExecutionOutcome, error) {
	var (
		evm      = in.evm
		rules    = evm.chainRules
		stack    = frame.stack
		operands = 6
	)
	if kind.hasValue() {
		operands = 7
	}
	if stack.len() < operands {
		return ExecutionOutcome{}, ErrStackUnderflow
	}
	requested, addr := stack.pop(), stack.pop()
	var value uint256.Int
	if kind.hasValue() {
		value = stack.pop()
	}
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())

	// Cold or warm account access
	if rules.IsEIP2929 {
		cost := params.WarmStorageReadCostEIP2929
		if !evm.StateDB.AddressInAccessList(toAddr) {
			// If the caller cannot afford the cost, this change will be rolled back
			evm.StateDB.AddAddressToAccessList(toAddr)
			cost = params.ColdAccountAccessCostEIP2929
		}
		if err := frame.gas.ChargeUint64(cost); err != nil {
			return ExecutionOutcome{}, err
		}
	}

	var callValue, transfer *uint256.Int
	switch kind {
	case Call, CallCode:
		callValue, transfer = &value, &value
	case DelegateCall:
		callValue, transfer = frame.value, new(uint256.Int)
	default:
		callValue, transfer = new(uint256.Int), new(uint256.Int)
	}
	// CALLCODE moves value to the executing account itself, which is not a
	// state modification.
	if frame.static && kind != CallCode && !transfer.IsZero() {
		return ExecutionOutcome{}, ErrWriteProtection
	}

	var extra uint64
	if !transfer.IsZero() {
		extra += params.CallValueTransferGas
	}
	if kind == Call {
		if rules.ClearEmptyAccountWhenTouched() {
			if !transfer.IsZero() && evm.StateDB.Empty(toAddr) {
				extra += params.CallNewAccountGas
			}
		} else if !evm.StateDB.Exist(toAddr) {
			extra += params.CallNewAccountGas
		}
	}

	if err := frame.gas.ChargeUint64(rules.CallCost()); err != nil {
		return ExecutionOutcome{}, err
	}
	// An empty output window is never written, its offset must not cost.
	if retSize.IsZero() {
		retOffset.Clear()
	}
	if err := frame.expandMemory(&inOffset, &inSize); err != nil {
		return ExecutionOutcome{}, err
	}
	if err := frame.expandMemory(&retOffset, &retSize); err != nil {
		return ExecutionOutcome{}, err
	}
	if err := frame.gas.ChargeUint64(extra); err != nil {
		return ExecutionOutcome{}, err
	}

	precompile, isPrecompile := evm.precompile(toAddr)
	code := compiler.EmptyCodeInfo
	if !isPrecompile {
		code = evm.resolveCode(toAddr)
	}

	limit, err := callGas(rules, frame.gas.Remaining(), &requested)
	if err != nil {
		return ExecutionOutcome{}, err
	}
	if err := frame.gas.Charge(limit); err != nil {
		return ExecutionOutcome{}, err
	}
	forwarded := limit
	if !transfer.IsZero() {
		forwarded = addGas(forwarded, int64(params.CallStipend))
	}

	if frame.depth >= in.maxDepth || (!transfer.IsZero() && evm.StateDB.GetBalance(frame.address).Lt(transfer)) {
		stack.push(new(uint256.Int))
		frame.returnData = nil
		frame.gas.Refund(forwarded)
		failedCallCounter.Inc(1)
		return ExecutionOutcome{}, nil
	}

	snapshot := evm.StateDB.Snapshot()
	if kind == Call {
		evm.transfer(frame.address, toAddr, transfer, isPrecompile)
	}
	input := frame.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if isPrecompile {
		in.callPrecompile(frame, kind, precompile, toAddr, input, callValue, forwarded, snapshot, retOffset.Uint64(), retSize.Uint64())
		return ExecutionOutcome{}, nil
	}
	if code.IsEmpty() && !evm.tracesFrames() {
		stack.push(new(uint256.Int).SetOne())
		frame.returnData = nil
		frame.gas.Refund(forwarded)
		emptyCallCounter.Inc(1)
		return ExecutionOutcome{}, nil
	}

	child := getFrame(kind.executionType(), frame, code, forwarded)
	child.codeSource = toAddr
	switch kind {
	case CallCode:
		child.caller, child.address = frame.address, frame.address
	case DelegateCall:
		child.caller, child.address = frame.caller, frame.address
	default:
		child.caller, child.address = frame.address, toAddr
	}
	child.value = new(uint256.Int).Set(callValue)
	child.transfer = new(uint256.Int).Set(transfer)
	child.input = input
	child.static = frame.static || kind == StaticCall
	child.snapshot = snapshot
	child.retOffset, child.retSize = retOffset.Uint64(), retSize.Uint64()

	evm.captureBegin(child.depth, kind.opCode(), frame.address, toAddr, input, uint64(forwarded), callValue)
	return ExecutionOutcome{Child: child}, nil
}

// callPrecompile runs a precompile in place of a child frame. A failed
// run forfeits the forwarded gas like any exceptional abort.
func (in *EVMInterpreter) callPrecompile(frame *Frame, kind CallKind, p PrecompiledContract, addr common.Address, input []byte, value *uint256.Int, gas int64, snapshot int, retOffset, retSize uint64) {
	evm := in.evm
	depth := frame.depth + 1
	evm.captureBegin(depth, kind.opCode(), frame.address, addr, input, uint64(gas), value)

	ret, gasLeft, err := RunPrecompiledContract(p, input, uint64(gas))
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
		failedCallCounter.Inc(1)
		frame.stack.push(new(uint256.Int))
	} else {
		frame.stack.push(new(uint256.Int).SetOne())
		frame.memory.Set(retOffset, min(retSize, uint64(len(ret))), ret)
	}
	frame.returnData = ret
	evm.captureEnd(depth, uint64(gas), gasLeft, ret, err)
	frame.gas.Refund(int64(gasLeft))
}
