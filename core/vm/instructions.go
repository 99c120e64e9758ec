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
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func opAdd(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	base, exponent := frame.stack.pop(), frame.stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	back, num := frame.stack.pop(), frame.stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop(), frame.stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	th, val := frame.stack.pop(), frame.stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop2()
	z := frame.stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x, y := frame.stack.pop2()
	z := frame.stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	shift, value := frame.stack.pop(), frame.stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opAddress(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes(frame.address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	slot := frame.stack.peek()
	address := common.Address(slot.Bytes20())
	slot.Set(interpreter.evm.StateDB.GetBalance(address))
	return nil, nil
}

func opCaller(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetBytes(frame.caller.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(frame.value)
	return nil, nil
}

func opCallDataLoad(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	x := frame.stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(frame.input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	var (
		memOffset, dataOffset = frame.stack.pop2()
		length                = frame.stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	// These values are checked for overflow during gas cost calculation
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	frame.memory.Set(memOffset64, length64, getData(frame.input, dataOffset64, length64))

	return nil, nil
}

func opReturnDataSize(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	var (
		memOffset, dataOffset = frame.stack.pop2()
		length                = frame.stack.pop()
	)

	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(frame.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), frame.returnData[offset64:end64])
	return nil, nil
}

func opCodeSize(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(len(frame.code.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	var (
		memOffset, codeOffset = frame.stack.pop2()
		length                = frame.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(frame.code.Code, uint64CodeOffset, length.Uint64())
	frame.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

func opPop(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.pop()
	return nil, nil
}

func opMload(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	v := frame.stack.peek()
	offset := v.Uint64()
	v.SetBytes(frame.memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	mStart, val := frame.stack.pop2()
	frame.memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	off, val := frame.stack.pop2()
	frame.memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opJump(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	pos := frame.stack.pop()
	if !validJumpdest(frame, &pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	return nil, nil
}

func opJumpi(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	pos, cond := frame.stack.pop2()
	if !cond.IsZero() {
		if !validJumpdest(frame, &pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	}
	return nil, nil
}

func opJumpdest(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(frame.memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int).SetUint64(uint64(frame.gas.Remaining())))
	return nil, nil
}

func opStop(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	return nil, errStopToken
}

// opReturn hands the output back to the caller. Frames created by
// EOFCREATE and creation transactions return their container instead.
func opReturn(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	if frame.Type.returnsContainer() {
		return nil, ErrBadInstruction
	}
	offset, size := frame.stack.pop2()
	ret := frame.memory.GetCopy(offset.Uint64(), size.Uint64())

	return ret, errStopToken
}

func opRevert(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	offset, size := frame.stack.pop2()
	ret := frame.memory.GetCopy(offset.Uint64(), size.Uint64())

	return ret, ErrExecutionReverted
}

func opUndefined(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	return nil, &ErrInvalidOpCode{opcode: frame.getOp(*pc)}
}

// opPush1 is a specialized version of pushN
func opPush1(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	var (
		codeLen = uint64(len(frame.code.Code))
		integer = new(uint256.Int)
	)
	*pc += 1
	if *pc < codeLen {
		frame.stack.push(integer.SetUint64(uint64(frame.code.Code[*pc])))
	} else {
		frame.stack.push(integer.Clear())
	}
	return nil, nil
}

// make push instruction function
func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
		var (
			codeLen = len(frame.code.Code)
			start   = min(codeLen, int(*pc+1))
			end     = min(codeLen, start+pushByteSize)
		)
		a := new(uint256.Int).SetBytes(frame.code.Code[start:end])

		// Missing bytes: pushByteSize - len(pushData)
		if missing := pushByteSize - (end - start); missing > 0 {
			a.Lsh(a, uint(8*missing))
		}
		frame.stack.push(a)
		*pc += size
		return nil, nil
	}
}

// make dup instruction function
func makeDup(size int64) executionFunc {
	return func(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
		frame.stack.dup(int(size))
		return nil, nil
	}
}

// opPush0 implements the PUSH0 opcode
func opPush0(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
	frame.stack.push(new(uint256.Int))
	return nil, nil
}

// make swap instruction function
func makeSwap(size int64) executionFunc {
	return func(pc *uint64, interpreter *EVMInterpreter, frame *Frame) ([]byte, error) {
		frame.stack.swap(int(size))
		return nil, nil
	}
}

func validJumpdest(frame *Frame, dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	// PC cannot go beyond len(code) and certainly can't be bigger than 63bits.
	// Don't bother checking for JUMPDEST in that case.
	if overflow {
		return false
	}
	return frame.code.ValidJumpDest(udest)
}
