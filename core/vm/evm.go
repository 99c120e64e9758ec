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
	"math"
	"math/big"
	"sync/atomic"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"
)

// BlockContext provides the EVM with the block the calls run in. Once
// provided it shouldn't be modified.
type BlockContext struct {
	BlockNumber *big.Int // Selects the fork rules
	Time        uint64   // Selects the timestamp based fork rules
}

// Config are the configuration options for the EVM.
type Config struct {
	Tracer *tracing.Hooks

	// Interpreter is used when no code cache is given, otherwise the
	// cache's config applies.
	Interpreter params.InterpreterConfig

	// CodeCache shares code analysis between EVMs. Without it code is
	// analysed per call and never becomes hot.
	CodeCache *compiler.CodeCache
}

// EVM is the Ethereum Virtual Machine base object and provides
// the necessary tools to run a contract on the given state with
// the provided context. It should be noted that any error
// generated through any of the calls should be considered a
// revert-state-and-consume-all-gas operation, no checks on
// specific errors should ever be performed. The interpreter makes
// sure that any errors generated are to be considered faulty code.
//
// The EVM should never be reused and is not thread safe.
type EVM struct {
	// Context provides auxiliary blockchain related information
	Context BlockContext
	// StateDB gives access to the underlying state
	StateDB StateDB

	// chainConfig contains information about the current chain
	chainConfig *params.ChainConfig
	// chain rules contains the chain rules for the current epoch
	chainRules params.Rules
	// virtual machine configuration options used to initialise the
	// evm.
	Config            Config
	interpreterConfig params.InterpreterConfig
	codeCache         *compiler.CodeCache

	interpreter *EVMInterpreter
	// abort is used to abort the EVM calling operations
	abort atomic.Bool
	// precompiles holds the precompiled contracts for the current epoch
	precompiles PrecompiledContracts
}

// NewEVM constructs an EVM instance with the supplied block context, state
// database and several configs.
func NewEVM(blockCtx BlockContext, statedb StateDB, chainConfig *params.ChainConfig, config Config) *EVM {
	if blockCtx.BlockNumber == nil {
		blockCtx.BlockNumber = new(big.Int)
	}
	evm := &EVM{
		Context:           blockCtx,
		StateDB:           statedb,
		Config:            config,
		chainConfig:       chainConfig,
		chainRules:        chainConfig.Rules(blockCtx.BlockNumber, blockCtx.Time),
		interpreterConfig: config.Interpreter,
		codeCache:         config.CodeCache,
	}
	if evm.codeCache != nil {
		evm.interpreterConfig = evm.codeCache.Config()
	} else if evm.interpreterConfig.MaxCallDepth == 0 {
		evm.interpreterConfig = params.DefaultInterpreterConfig
	}
	evm.precompiles = activePrecompiledContracts(evm.chainRules, evm.interpreterConfig)
	evm.interpreter = NewEVMInterpreter(evm)
	return evm
}

// Cancel cancels any running EVM operation. This may be called concurrently and
// it's safe to be called multiple times.
func (evm *EVM) Cancel() {
	evm.abort.Store(true)
}

// Cancelled returns true if Cancel has been called
func (evm *EVM) Cancelled() bool {
	return evm.abort.Load()
}

// Interpreter returns the current interpreter
func (evm *EVM) Interpreter() *EVMInterpreter {
	return evm.interpreter
}

// ChainConfig returns the environment's chain configuration
func (evm *EVM) ChainConfig() *params.ChainConfig { return evm.chainConfig }

// Rules returns the fork rules the EVM runs with.
func (evm *EVM) Rules() params.Rules { return evm.chainRules }

// Precompiles returns the precompiled contracts of the EVM.
func (evm *EVM) Precompiles() PrecompiledContracts { return evm.precompiles }

func (evm *EVM) precompile(addr common.Address) (PrecompiledContract, bool) {
	p, ok := evm.precompiles[addr]
	return p, ok
}

// Call executes the contract associated with the addr with the given input as
// parameters. It also handles any necessary value transfer required and takes
// the necessary steps to create accounts and reverses the state in case of an
// execution error or failed value transfer.
func (evm *EVM) Call(caller common.Address, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	// Capture the tracer start/end events in debug mode
	evm.captureBegin(0, CALL, caller, addr, input, gas, value)
	defer func(startGas uint64) {
		evm.captureEnd(0, startGas, leftOverGas, ret, err)
	}(gas)

	if gas > math.MaxInt64 {
		return nil, gas, ErrGasUintOverflow
	}
	// Fail if we're trying to transfer more than the available balance
	if !value.IsZero() && evm.StateDB.GetBalance(caller).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}
	snapshot := evm.StateDB.Snapshot()
	p, isPrecompile := evm.precompile(addr)

	if !evm.transfer(caller, addr, value, isPrecompile) {
		// Calling a non-existing account, don't do anything.
		return nil, gas, nil
	}
	if isPrecompile {
		ret, gas, err = RunPrecompiledContract(p, input, gas)
	} else {
		code := evm.resolveCode(addr)
		if !code.IsEmpty() {
			root := getFrame(ExecTransaction, nil, code, int64(gas))
			root.caller, root.address, root.codeSource = caller, addr, addr
			root.value = new(uint256.Int).Set(value)
			root.transfer = root.value
			root.input = input
			root.snapshot = snapshot

			ret, err = evm.interpreter.Run(root)
			gas = uint64(root.gas.Remaining())
			returnFrame(root)
		}
	}
	// When an error was returned by the EVM we revert to the snapshot and
	// consume any gas remaining, unless the error was a revert.
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if isExceptional(err) {
			if evm.Config.Tracer != nil && evm.Config.Tracer.OnGasChange != nil {
				evm.Config.Tracer.OnGasChange(gas, 0, tracing.GasChangeCallFailedExecution)
			}
			gas = 0
		}
	}
	return ret, gas, err
}

// transfer moves amount from sender to recipient, creating the recipient if
// needed. Once empty accounts are cleared, a zero transfer to an account
// that does not exist is not applied and transfer reports false.
func (evm *EVM) transfer(sender, recipient common.Address, amount *uint256.Int, isPrecompile bool) bool {
	if !evm.StateDB.Exist(recipient) {
		if !isPrecompile && evm.chainRules.ClearEmptyAccountWhenTouched() && amount.IsZero() {
			return false
		}
		evm.StateDB.CreateAccount(recipient)
	}
	evm.StateDB.SubBalance(sender, amount, tracing.BalanceChangeTransfer)
	evm.StateDB.AddBalance(recipient, amount, tracing.BalanceChangeTransfer)
	return true
}

// resolveCode returns the analysed code of addr and counts the execution
// towards the hot path thresholds.
func (evm *EVM) resolveCode(addr common.Address) *compiler.CodeInfo {
	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return compiler.EmptyCodeInfo
	}
	hash := evm.StateDB.GetCodeHash(addr)
	if evm.codeCache == nil {
		return compiler.NewCodeInfo(hash, code)
	}
	info := evm.codeCache.GetOrCreate(hash, code)
	info.NoticeExecution()
	return info
}

// tracesFrames reports whether a tracer wants to see every call frame.
func (evm *EVM) tracesFrames() bool {
	tracer := evm.Config.Tracer
	return tracer != nil && (tracer.OnEnter != nil || tracer.OnExit != nil)
}

func (evm *EVM) captureBegin(depth int, typ OpCode, from common.Address, to common.Address, input []byte, startGas uint64, value *uint256.Int) {
	tracer := evm.Config.Tracer
	if tracer == nil {
		return
	}
	if tracer.OnEnter != nil {
		tracer.OnEnter(depth, byte(typ), from, to, input, startGas, value.ToBig())
	}
	if tracer.OnGasChange != nil {
		tracer.OnGasChange(0, startGas, tracing.GasChangeCallInitialBalance)
	}
}

func (evm *EVM) captureEnd(depth int, startGas uint64, leftOverGas uint64, ret []byte, err error) {
	tracer := evm.Config.Tracer
	if tracer == nil {
		return
	}
	if leftOverGas != 0 && tracer.OnGasChange != nil {
		tracer.OnGasChange(leftOverGas, 0, tracing.GasChangeCallLeftOverReturned)
	}
	if tracer.OnExit != nil {
		tracer.OnExit(depth, ret, startGas-leftOverGas, err, err != nil)
	}
}
