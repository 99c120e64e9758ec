// Copyright 2017 The go-ethereum Authors
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

	"github.com/bnb-chain/bsc-evm/params"
	"github.com/holiman/uint256"
)

// Gas costs
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// GasMeter tracks the gas left to a single frame. The counter is signed but
// never goes below zero: a charge that would cross zero fails with
// ErrOutOfGas and leaves the meter untouched.
type GasMeter struct {
	remaining int64
}

// NewGasMeter returns a meter holding gas.
func NewGasMeter(gas int64) GasMeter {
	return GasMeter{remaining: gas}
}

// Charge consumes amount gas.
func (g *GasMeter) Charge(amount int64) error {
	if amount < 0 || g.remaining < amount {
		return ErrOutOfGas
	}
	g.remaining -= amount
	return nil
}

// ChargeUint64 consumes an unsigned cost. Costs beyond the int64 range can
// never be paid.
func (g *GasMeter) ChargeUint64(amount uint64) error {
	if amount > math.MaxInt64 {
		return ErrOutOfGas
	}
	return g.Charge(int64(amount))
}

// Refund returns amount gas to the meter. The call stipend can push a
// frame above the gas it started with, so the counter saturates.
func (g *GasMeter) Refund(amount int64) {
	g.remaining = addGas(g.remaining, amount)
}

// Remaining returns the gas left.
func (g *GasMeter) Remaining() int64 {
	return g.remaining
}

// ConsumeAll burns every unit of gas left, as an exceptional abort does.
func (g *GasMeter) ConsumeAll() {
	g.remaining = 0
}

// addGas returns a+b for a non-negative b, saturating at math.MaxInt64.
func addGas(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// callGas returns the gas limit forwarded to a sub-call. All surcharges must
// have been charged before, so the 63/64 cap is taken from what is left.
//
// As part of EIP 150 (TangerineWhistle), a request above
// available - available/64 is capped instead of failing.
func callGas(rules params.Rules, available int64, requested *uint256.Int) (int64, error) {
	if rules.Use63Over64() {
		capped := available - available/64
		// If the bit length exceeds 64 bit we know that the newly calculated "gas" for EIP150
		// is smaller than the requested amount. Therefore we return the new gas instead
		// of returning an error.
		if !requested.IsUint64() || requested.Uint64() > uint64(capped) {
			return capped, nil
		}
	}
	if !requested.IsUint64() || requested.Uint64() > math.MaxInt64 {
		return 0, ErrOutOfGas
	}
	return int64(requested.Uint64()), nil
}

// memoryGasCost calculates the quadratic gas for memory expansion. It does so
// only for the memory region that is expanded, not the total memory. The
// memory is left untouched, so a charge that fails can be retried.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		// The memory only grows once its expansion has been paid for, so
		// its current size is what has been charged so far.
		paidWords := toWordSize(uint64(mem.Len()))
		return memoryFee(newMemSizeWords) - memoryFee(paidWords), nil
	}
	return 0, nil
}

// memoryFee is the total cost of a memory of the given number of words.
func memoryFee(words uint64) uint64 {
	return words*params.MemoryGas + words*words/params.QuadCoeffDiv
}
