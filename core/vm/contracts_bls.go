// Copyright 2024 The go-ethereum Authors
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
	"github.com/bnb-chain/bsc-evm/crypto/bls12381"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
)

// blsPrecompile is one EIP-2537 operation. The required gas is a fixed
// base cost plus a cost derived from the input, which is zero for the
// fixed arity operations.
type blsPrecompile struct {
	name    string
	baseGas uint64
	dataGas func(input []byte) uint64
	run     func(input []byte) ([]byte, error)
}

// BaseGasCost returns the input independent part of the price.
func (c *blsPrecompile) BaseGasCost() uint64 {
	return c.baseGas
}

// DataGasCost returns the input dependent part of the price.
func (c *blsPrecompile) DataGasCost(input []byte) uint64 {
	if c.dataGas == nil {
		return 0
	}
	return c.dataGas(input)
}

func (c *blsPrecompile) RequiredGas(input []byte) uint64 {
	return c.BaseGasCost() + c.DataGasCost(input)
}

// Run converts every decoding or length error into the failure result.
func (c *blsPrecompile) Run(input []byte) ([]byte, bool) {
	out, err := c.run(input)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Name returns the operation name.
func (c *blsPrecompile) Name() string {
	return c.name
}

// multiExpGas prices k (point, scalar) pairs with the batch discount.
func multiExpGas(input []byte, pairSize int, mulGas uint64, table *[params.Bls12381MultiExpMaxDiscountPairs]uint64) uint64 {
	k := len(input) / pairSize
	if k == 0 {
		return 0
	}
	return uint64(k) * mulGas * params.MultiExpDiscount(table, k) / 1000
}

func newBLS12381G1Add() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_G1ADD", baseGas: params.Bls12381G1AddGas, run: bls12381.G1Add}
}

func newBLS12381G2Add() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_G2ADD", baseGas: params.Bls12381G2AddGas, run: bls12381.G2Add}
}

// newBLS12381G1Mul prices a single multiplication like a one pair multi
// exponentiation.
func newBLS12381G1Mul() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_G1MUL", baseGas: params.Bls12381G1MulGas, run: bls12381.G1Mul}
}

func newBLS12381G2Mul() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_G2MUL", baseGas: params.Bls12381G2MulGas, run: bls12381.G2Mul}
}

func newBLS12381G1MultiExp(parallelThreshold int) *blsPrecompile {
	return &blsPrecompile{
		name: "BLS12_G1MSM",
		dataGas: func(input []byte) uint64 {
			return multiExpGas(input, bls12381.G1MulPairSize, params.Bls12381G1MulGas, &params.Bls12381G1MultiExpDiscountTable)
		},
		run: func(input []byte) ([]byte, error) {
			return bls12381.G1MultiExp(input, parallelThreshold)
		},
	}
}

func newBLS12381G2MultiExp(parallelThreshold int) *blsPrecompile {
	return &blsPrecompile{
		name: "BLS12_G2MSM",
		dataGas: func(input []byte) uint64 {
			return multiExpGas(input, bls12381.G2MulPairSize, params.Bls12381G2MulGas, &params.Bls12381G2MultiExpDiscountTable)
		},
		run: func(input []byte) ([]byte, error) {
			return bls12381.G2MultiExp(input, parallelThreshold)
		},
	}
}

func newBLS12381Pairing() *blsPrecompile {
	return &blsPrecompile{
		name:    "BLS12_PAIRING_CHECK",
		baseGas: params.Bls12381PairingBaseGas,
		dataGas: func(input []byte) uint64 {
			return uint64(len(input)/bls12381.PairingPairSize) * params.Bls12381PairingPerPairGas
		},
		run: bls12381.PairingCheck,
	}
}

func newBLS12381MapG1() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_MAP_FP_TO_G1", baseGas: params.Bls12381MapG1Gas, run: bls12381.MapFpToG1}
}

func newBLS12381MapG2() *blsPrecompile {
	return &blsPrecompile{name: "BLS12_MAP_FP2_TO_G2", baseGas: params.Bls12381MapG2Gas, run: bls12381.MapFp2ToG2}
}

func pragueContracts(parallelThreshold int) PrecompiledContracts {
	return PrecompiledContracts{
		common.BytesToAddress([]byte{0x0b}): newBLS12381G1Add(),
		common.BytesToAddress([]byte{0x0c}): newBLS12381G1MultiExp(parallelThreshold),
		common.BytesToAddress([]byte{0x0d}): newBLS12381G2Add(),
		common.BytesToAddress([]byte{0x0e}): newBLS12381G2MultiExp(parallelThreshold),
		common.BytesToAddress([]byte{0x0f}): newBLS12381Pairing(),
		common.BytesToAddress([]byte{0x10}): newBLS12381MapG1(),
		common.BytesToAddress([]byte{0x11}): newBLS12381MapG2(),
	}
}

// PrecompiledContractsBLSMul is the draft EIP-2537 layout that still exposes
// single point multiplications, for hosts that deploy it.
var PrecompiledContractsBLSMul = PrecompiledContracts{
	common.BytesToAddress([]byte{0x0b}): newBLS12381G1Add(),
	common.BytesToAddress([]byte{0x0c}): newBLS12381G1Mul(),
	common.BytesToAddress([]byte{0x0d}): newBLS12381G1MultiExp(params.DefaultInterpreterConfig.ParallelDecodeThreshold),
	common.BytesToAddress([]byte{0x0e}): newBLS12381G2Add(),
	common.BytesToAddress([]byte{0x0f}): newBLS12381G2Mul(),
	common.BytesToAddress([]byte{0x10}): newBLS12381G2MultiExp(params.DefaultInterpreterConfig.ParallelDecodeThreshold),
	common.BytesToAddress([]byte{0x11}): newBLS12381Pairing(),
	common.BytesToAddress([]byte{0x12}): newBLS12381MapG1(),
	common.BytesToAddress([]byte{0x13}): newBLS12381MapG2(),
}
