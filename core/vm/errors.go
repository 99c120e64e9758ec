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
)

// List evm execution errors
var (
	ErrOutOfGas              = errors.New("out of gas")
	ErrDepth                 = errors.New("max call depth exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance for transfer")
	ErrExecutionReverted     = errors.New("execution reverted")
	ErrInvalidJump           = errors.New("invalid jump destination")
	ErrWriteProtection       = errors.New("write protection")
	ErrReturnDataOutOfBounds = errors.New("return data out of bounds")
	ErrGasUintOverflow       = errors.New("gas uint64 overflow")
	ErrStackUnderflow        = errors.New("stack underflow")
	ErrStackOverflow         = errors.New("stack overflow")
	ErrExecutionAborted      = errors.New("execution aborted")
	ErrPrecompileFailed      = errors.New("precompiled contract failed")

	// ErrBadInstruction is raised by RETURN inside frames that hand their
	// output back through a different convention.
	ErrBadInstruction = errors.New("bad instruction")

	// errStopToken is an internal token indicating interpreter loop
	// termination, never returned to outside callers.
	errStopToken = errors.New("stop token")
)

// ErrInvalidOpCode wraps an evm error when an invalid opcode is encountered.
type ErrInvalidOpCode struct {
	opcode OpCode
}

func (e *ErrInvalidOpCode) Error() string { return fmt.Sprintf("invalid opcode: %s", e.opcode) }

// isExceptional reports whether err aborts a frame and forfeits its gas.
// A revert keeps the remaining gas.
func isExceptional(err error) bool {
	return err != nil && !errors.Is(err, ErrExecutionReverted)
}
