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
	"slices"

	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
)

// PrecompiledContract is the basic interface for native Go contracts. The
// implementation requires a deterministic gas count based on the input size
// of the Run method of the contract. Run reports failure instead of
// returning an error: every malformed input is the same failure to the
// caller.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64 // RequiredPrice calculates the contract gas use
	Run(input []byte) ([]byte, bool) // Run runs the precompiled contract
}

// PrecompiledContracts contains the precompiled contracts supported at the
// given fork, keyed by address.
type PrecompiledContracts map[common.Address]PrecompiledContract

// PrecompiledContractsPrague contains the set of pre-compiled Ethereum
// contracts used in the Prague release.
var PrecompiledContractsPrague = pragueContracts(params.DefaultInterpreterConfig.ParallelDecodeThreshold)

// ActivePrecompiles returns the precompiled contracts enabled with the
// current configuration.
func ActivePrecompiles(rules params.Rules) PrecompiledContracts {
	if rules.IsPrague {
		return PrecompiledContractsPrague
	}
	return PrecompiledContracts{}
}

// activePrecompiledContracts builds the precompile set of one EVM. The
// multi exponentiations fan out according to the interpreter config.
func activePrecompiledContracts(rules params.Rules, config params.InterpreterConfig) PrecompiledContracts {
	if !rules.IsPrague {
		return PrecompiledContracts{}
	}
	if config.ParallelDecodeThreshold == params.DefaultInterpreterConfig.ParallelDecodeThreshold {
		return PrecompiledContractsPrague
	}
	return pragueContracts(config.ParallelDecodeThreshold)
}

// Addresses returns the addresses of the contracts in a stable order.
func (p PrecompiledContracts) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(p))
	for addr := range p {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b common.Address) int { return a.Cmp(b) })
	return addrs
}

// RunPrecompiledContract runs and evaluates the output of a precompiled
// contract. A failed run consumes the gas it was charged and returns
// ErrPrecompileFailed.
func RunPrecompiledContract(p PrecompiledContract, input []byte, suppliedGas uint64) (ret []byte, remainingGas uint64, err error) {
	gasCost := p.RequiredGas(input)
	if suppliedGas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	suppliedGas -= gasCost
	output, ok := p.Run(input)
	if !ok {
		return nil, suppliedGas, ErrPrecompileFailed
	}
	return output, suppliedGas, nil
}
