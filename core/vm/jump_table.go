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
)

type (
	executionFunc func(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error)
	gasFunc       func(interpreter *EVMInterpreter, frame *Frame, memorySize uint64) (uint64, error)
	// memorySizeFunc returns the required size, and whether the operation overflowed a uint64
	memorySizeFunc func(*Stack) (size uint64, overflow bool)
)

type operation struct {
	// execute is the operation function
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	// pops and pushes describe the stack effect
	pops, pushes int
	// minStack tells how many stack items are required
	minStack int
	// maxStack specifies the max length the stack can have for this operation
	// to not overflow the stack.
	maxStack int

	// memorySize returns the memory size required for the operation
	memorySize memorySizeFunc

	// straight operations can run inside a compiled segment
	straight bool
	// undefined denotes if the instruction is not officially defined in the jump table
	undefined bool
}

func newOperation(execute executionFunc, constantGas uint64, pops, pushes int) *operation {
	return &operation{
		execute:     execute,
		constantGas: constantGas,
		pops:        pops,
		pushes:      pushes,
		minStack:    minStack(pops, pushes),
		maxStack:    maxStack(pops, pushes),
	}
}

// JumpTable contains the EVM opcodes supported at a given fork.
type JumpTable [256]*operation

var (
	frontierInstructionSet         = newFrontierInstructionSet()
	homesteadInstructionSet        = newHomesteadInstructionSet()
	tangerineWhistleInstructionSet = newTangerineWhistleInstructionSet()
	spuriousDragonInstructionSet   = newSpuriousDragonInstructionSet()
	byzantiumInstructionSet        = newByzantiumInstructionSet()
	constantinopleInstructionSet   = newConstantinopleInstructionSet()
	berlinInstructionSet           = newBerlinInstructionSet()
	shanghaiInstructionSet         = newShanghaiInstructionSet()
)

// LookupInstructionSet returns the instruction set for the fork configured by
// the rules. The returned tables are shared and must not be modified.
func LookupInstructionSet(rules params.Rules) *JumpTable {
	switch {
	case rules.IsShanghai:
		return &shanghaiInstructionSet
	case rules.IsBerlin:
		return &berlinInstructionSet
	case rules.IsConstantinople:
		return &constantinopleInstructionSet
	case rules.IsByzantium:
		return &byzantiumInstructionSet
	case rules.IsEIP158:
		return &spuriousDragonInstructionSet
	case rules.IsEIP150:
		return &tangerineWhistleInstructionSet
	case rules.IsHomestead:
		return &homesteadInstructionSet
	}
	return &frontierInstructionSet
}

// OpInfo describes op to the code analysis. Undefined opcodes are reported
// as unknown.
func (jt *JumpTable) OpInfo(op compiler.ByteCode) (compiler.OpInfo, bool) {
	o := jt[op]
	if o == nil || o.undefined {
		return compiler.OpInfo{}, false
	}
	return compiler.OpInfo{
		ConstantGas: o.constantGas,
		Pops:        o.pops,
		Pushes:      o.pushes,
		Straight:    o.straight,
	}, true
}

func validate(jt JumpTable) JumpTable {
	for i, op := range jt {
		if op == nil {
			jt[i] = &operation{execute: opUndefined, maxStack: maxStack(0, 0), undefined: true}
			continue
		}
		// The interpreter has an assumption that if the memorySize function is
		// set, then the dynamicGas function is also set. This is a somewhat
		// arbitrary assumption, and can be removed if we need to -- but it
		// allows us to avoid a condition check. As long as we have that assumption
		// in there, this little sanity check prevents us from merging in a
		// change which violates it.
		if op.memorySize != nil && op.dynamicGas == nil {
			panic(OpCode(i).String() + " has memorySize but no dynamicGas")
		}
	}
	return jt
}

// newShanghaiInstructionSet returns the frontier, homestead, byzantium,
// constantinople, berlin and shanghai instructions.
func newShanghaiInstructionSet() JumpTable {
	instructionSet := newBerlinInstructionSet()
	op := newOperation(opPush0, GasQuickStep, 0, 1)
	op.straight = true
	instructionSet[PUSH0] = op
	return validate(instructionSet)
}

// newBerlinInstructionSet returns the frontier, homestead, byzantium,
// constantinople and berlin instructions. BALANCE pays the warm read up
// front and the cold surcharge dynamically (EIP-2929).
func newBerlinInstructionSet() JumpTable {
	instructionSet := newConstantinopleInstructionSet()
	instructionSet[BALANCE].constantGas = params.WarmStorageReadCostEIP2929
	instructionSet[BALANCE].dynamicGas = gasEip2929AccountCheck
	return validate(instructionSet)
}

// newConstantinopleInstructionSet returns the frontier, homestead,
// byzantium and constantinople instructions.
func newConstantinopleInstructionSet() JumpTable {
	instructionSet := newByzantiumInstructionSet()
	for op, fn := range map[OpCode]executionFunc{SHL: opSHL, SHR: opSHR, SAR: opSAR} {
		o := newOperation(fn, GasFastestStep, 2, 1)
		o.straight = true
		instructionSet[op] = o
	}
	return validate(instructionSet)
}

// newByzantiumInstructionSet returns the frontier, homestead and
// byzantium instructions.
func newByzantiumInstructionSet() JumpTable {
	instructionSet := newSpuriousDragonInstructionSet()
	instructionSet[STATICCALL] = newOperation(makeCall(StaticCall), 0, 6, 1)

	op := newOperation(opReturnDataSize, GasQuickStep, 0, 1)
	op.straight = true
	instructionSet[RETURNDATASIZE] = op

	op = newOperation(opReturnDataCopy, GasFastestStep, 3, 0)
	op.dynamicGas = gasReturnDataCopy
	op.memorySize = memoryReturnDataCopy
	instructionSet[RETURNDATACOPY] = op

	op = newOperation(opRevert, 0, 2, 0)
	op.dynamicGas = gasRevert
	op.memorySize = memoryRevert
	instructionSet[REVERT] = op
	return validate(instructionSet)
}

// EIP 158 a.k.a Spurious Dragon
func newSpuriousDragonInstructionSet() JumpTable {
	instructionSet := newTangerineWhistleInstructionSet()
	instructionSet[EXP].dynamicGas = gasExpEIP158
	return validate(instructionSet)
}

// EIP 150 a.k.a Tangerine Whistle
func newTangerineWhistleInstructionSet() JumpTable {
	instructionSet := newHomesteadInstructionSet()
	instructionSet[BALANCE].constantGas = params.BalanceGasEIP150
	return validate(instructionSet)
}

// newHomesteadInstructionSet returns the frontier and homestead
// instructions that can be executed during the homestead phase.
func newHomesteadInstructionSet() JumpTable {
	instructionSet := newFrontierInstructionSet()
	instructionSet[DELEGATECALL] = newOperation(makeCall(DelegateCall), 0, 6, 1)
	return validate(instructionSet)
}

// newFrontierInstructionSet returns the frontier instructions
// that can be executed during the frontier phase.
func newFrontierInstructionSet() JumpTable {
	tbl := JumpTable{
		STOP:       newOperation(opStop, 0, 0, 0),
		ADD:        newOperation(opAdd, GasFastestStep, 2, 1),
		MUL:        newOperation(opMul, GasFastStep, 2, 1),
		SUB:        newOperation(opSub, GasFastestStep, 2, 1),
		DIV:        newOperation(opDiv, GasFastStep, 2, 1),
		SDIV:       newOperation(opSdiv, GasFastStep, 2, 1),
		MOD:        newOperation(opMod, GasFastStep, 2, 1),
		SMOD:       newOperation(opSmod, GasFastStep, 2, 1),
		ADDMOD:     newOperation(opAddmod, GasMidStep, 3, 1),
		MULMOD:     newOperation(opMulmod, GasMidStep, 3, 1),
		SIGNEXTEND: newOperation(opSignExtend, GasFastStep, 2, 1),
		LT:         newOperation(opLt, GasFastestStep, 2, 1),
		GT:         newOperation(opGt, GasFastestStep, 2, 1),
		SLT:        newOperation(opSlt, GasFastestStep, 2, 1),
		SGT:        newOperation(opSgt, GasFastestStep, 2, 1),
		EQ:         newOperation(opEq, GasFastestStep, 2, 1),
		ISZERO:     newOperation(opIszero, GasFastestStep, 1, 1),
		AND:        newOperation(opAnd, GasFastestStep, 2, 1),
		XOR:        newOperation(opXor, GasFastestStep, 2, 1),
		OR:         newOperation(opOr, GasFastestStep, 2, 1),
		NOT:        newOperation(opNot, GasFastestStep, 1, 1),
		BYTE:       newOperation(opByte, GasFastestStep, 2, 1),

		ADDRESS:      newOperation(opAddress, GasQuickStep, 0, 1),
		CALLER:       newOperation(opCaller, GasQuickStep, 0, 1),
		CALLVALUE:    newOperation(opCallValue, GasQuickStep, 0, 1),
		CALLDATALOAD: newOperation(opCallDataLoad, GasFastestStep, 1, 1),
		CALLDATASIZE: newOperation(opCallDataSize, GasQuickStep, 0, 1),
		CODESIZE:     newOperation(opCodeSize, GasQuickStep, 0, 1),

		POP:      newOperation(opPop, GasQuickStep, 1, 0),
		PC:       newOperation(opPc, GasQuickStep, 0, 1),
		MSIZE:    newOperation(opMsize, GasQuickStep, 0, 1),
		JUMPDEST: newOperation(opJumpdest, params.JumpdestGas, 0, 0),
	}
	// Everything above is straight: constant gas, no memory, no state, no
	// control flow. STOP is the exception.
	for op, o := range tbl {
		if o != nil && OpCode(op) != STOP {
			o.straight = true
		}
	}

	tbl[EXP] = newOperation(opExp, GasSlowStep, 2, 1)
	tbl[EXP].dynamicGas = gasExpFrontier

	tbl[BALANCE] = newOperation(opBalance, params.BalanceGasFrontier, 1, 1)
	tbl[GAS] = newOperation(opGas, GasQuickStep, 0, 1)
	tbl[JUMP] = newOperation(opJump, GasMidStep, 1, 0)
	tbl[JUMPI] = newOperation(opJumpi, GasSlowStep, 2, 0)

	tbl[CALLDATACOPY] = newOperation(opCallDataCopy, GasFastestStep, 3, 0)
	tbl[CALLDATACOPY].dynamicGas = gasCallDataCopy
	tbl[CALLDATACOPY].memorySize = memoryCallDataCopy

	tbl[CODECOPY] = newOperation(opCodeCopy, GasFastestStep, 3, 0)
	tbl[CODECOPY].dynamicGas = gasCodeCopy
	tbl[CODECOPY].memorySize = memoryCodeCopy

	tbl[MLOAD] = newOperation(opMload, GasFastestStep, 1, 1)
	tbl[MLOAD].dynamicGas = gasMLoad
	tbl[MLOAD].memorySize = memoryMLoad

	tbl[MSTORE] = newOperation(opMstore, GasFastestStep, 2, 0)
	tbl[MSTORE].dynamicGas = gasMStore
	tbl[MSTORE].memorySize = memoryMStore

	tbl[MSTORE8] = newOperation(opMstore8, GasFastestStep, 2, 0)
	tbl[MSTORE8].dynamicGas = gasMStore8
	tbl[MSTORE8].memorySize = memoryMStore8

	tbl[RETURN] = newOperation(opReturn, 0, 2, 0)
	tbl[RETURN].dynamicGas = gasReturn
	tbl[RETURN].memorySize = memoryReturn

	// The CALL family charges its own gas, see ExecuteCallInstruction.
	tbl[CALL] = newOperation(makeCall(Call), 0, 7, 1)
	tbl[CALLCODE] = newOperation(makeCall(CallCode), 0, 7, 1)

	for i := 0; i < 32; i++ {
		op := newOperation(makePush(uint64(i+1), i+1), GasFastestStep, 0, 1)
		op.straight = true
		tbl[PUSH1+OpCode(i)] = op
	}
	tbl[PUSH1].execute = opPush1
	for i := 1; i <= 16; i++ {
		dup := newOperation(makeDup(int64(i)), GasFastestStep, i, i+1)
		dup.straight = true
		tbl[DUP1+OpCode(i-1)] = dup

		swap := newOperation(makeSwap(int64(i)), GasFastestStep, i+1, i+1)
		swap.straight = true
		tbl[SWAP1+OpCode(i-1)] = swap
	}
	return validate(tbl)
}
