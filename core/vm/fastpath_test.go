package vm

import (
	"math/big"
	"testing"
	"time"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fusableProgram hits most two-instruction patterns and returns 5.
var fusableProgram = append([]byte{
	byte(PUSH1), 5, byte(PUSH1), 7, // Push1Push1
	byte(PUSH1), 3, byte(ADD), // Push1Add
	byte(DUP2), byte(LT), // Dup2Lt
	byte(PUSH1), 4, byte(SHL), // Push1Shl
	byte(ISZERO), byte(PUSH2), 0x01, 0x02, // IsZeroPush2
	byte(POP), byte(POP), // PopPop
}, returnTop...)

// countdownProgram loops ten times through a straight block.
var countdownProgram = append([]byte{
	byte(PUSH1), 10,
	byte(JUMPDEST),
	byte(PUSH1), 1, byte(SWAP1), byte(SUB),
	byte(DUP1), byte(PUSH1), 2, byte(JUMPI),
}, returnTop...)

func hotConfig(mode compiler.AnalysisMode) params.InterpreterConfig {
	cfg := params.DefaultInterpreterConfig
	cfg.AnalysisWorkers = 1
	cfg.EnablePatternMatching = mode == compiler.ModePatternMatching
	cfg.PatternMatchingThreshold = 1
	cfg.EnableJit = mode == compiler.ModeSubsegmentCompiled
	cfg.JitThreshold = 1
	return cfg
}

func newHotCache(t *testing.T, mode compiler.AnalysisMode) *compiler.CodeCache {
	t.Helper()
	rules := params.AllForksChainConfig.Rules(big.NewInt(1), 0)
	cache, err := compiler.NewCodeCache(hotConfig(mode), LookupInstructionSet(rules))
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return cache
}

// makeHot runs code once through the cache and waits for its hot path.
func makeHot(t *testing.T, cache *compiler.CodeCache, code []byte) *compiler.CodeInfo {
	t.Helper()
	evm, statedb := newTestEVM(t, params.AllForksChainConfig, Config{CodeCache: cache})
	statedb.SetCode(callerAddr, code)
	_, _, err := evm.Call(originAddr, callerAddr, nil, 1_000_000, new(uint256.Int))
	require.NoError(t, err)

	info := cache.GetOrCreate(crypto.Keccak256Hash(code), code)
	require.Eventually(t, func() bool {
		state, _ := info.State()
		return state == compiler.AnalysisComplete
	}, 5*time.Second, time.Millisecond)
	require.NotNil(t, info.HotPath())
	return info
}

func TestFastPathMatchesGenericPath(t *testing.T) {
	for _, mode := range []compiler.AnalysisMode{compiler.ModePatternMatching, compiler.ModeSubsegmentCompiled} {
		for name, code := range map[string][]byte{"fusable": fusableProgram, "countdown": countdownProgram} {
			t.Run(mode.String()+"/"+name, func(t *testing.T) {
				generic, statedb := newTestEVM(t, params.AllForksChainConfig, Config{})
				statedb.SetCode(callerAddr, code)
				wantRet, wantGas, err := generic.Call(originAddr, callerAddr, nil, 1_000_000, new(uint256.Int))
				require.NoError(t, err)

				cache := newHotCache(t, mode)
				info := makeHot(t, cache, code)
				_, gotMode := info.State()
				assert.Equal(t, mode, gotMode)

				evm, statedb := newTestEVM(t, params.AllForksChainConfig, Config{CodeCache: cache})
				statedb.SetCode(callerAddr, code)
				require.True(t, evm.Interpreter().fastPath)
				ret, gas, err := evm.Call(originAddr, callerAddr, nil, 1_000_000, new(uint256.Int))
				require.NoError(t, err)
				assert.Equal(t, wantRet, ret)
				assert.Equal(t, wantGas, gas)
			})
		}
	}
	assert.Equal(t, byte(5), returnWord(t, fusableProgram)[31])
}

func returnWord(t *testing.T, code []byte) []byte {
	evm, statedb := newTestEVM(t, params.AllForksChainConfig, Config{})
	statedb.SetCode(callerAddr, code)
	ret, _, err := evm.Call(originAddr, callerAddr, nil, 1_000_000, new(uint256.Int))
	require.NoError(t, err)
	return ret
}

func TestTryExecuteFastPath(t *testing.T) {
	cache := newHotCache(t, compiler.ModePatternMatching)
	info := makeHot(t, cache, fusableProgram)
	evm, _ := newTestEVM(t, params.AllForksChainConfig, Config{CodeCache: cache})
	in := evm.Interpreter()

	t.Run("segment", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 1000)
		defer returnFrame(frame)
		res, ok := in.tryExecuteFastPath(frame)
		require.True(t, ok)
		assert.Equal(t, FastPathResult{PC: 4, GasUsed: 6, StackLen: 2}, res)
		assert.Equal(t, uint64(4), frame.PC())
		assert.Equal(t, int64(994), frame.Gas())
		assert.Equal(t, uint64(7), frame.stack.peek().Uint64())
		assert.Equal(t, uint64(5), frame.stack.Back(1).Uint64())
	})
	t.Run("no_segment", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 1000)
		defer returnFrame(frame)
		frame.pc = 2
		_, ok := in.tryExecuteFastPath(frame)
		assert.False(t, ok)
	})
	t.Run("out_of_gas", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 5)
		defer returnFrame(frame)
		_, ok := in.tryExecuteFastPath(frame)
		assert.False(t, ok)
		assert.Equal(t, int64(5), frame.Gas())
		assert.Zero(t, frame.stack.len())
		assert.Zero(t, frame.PC())
	})
	t.Run("stack_underflow", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 1000)
		defer returnFrame(frame)
		frame.pc = 4 // PUSH1 ADD needs one item
		_, ok := in.tryExecuteFastPath(frame)
		assert.False(t, ok)
		assert.Equal(t, int64(1000), frame.Gas())
	})
	t.Run("stack_overflow", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 1000)
		defer returnFrame(frame)
		for i := 0; i < int(params.StackLimit)-1; i++ {
			frame.stack.push(new(uint256.Int))
		}
		_, ok := in.tryExecuteFastPath(frame)
		assert.False(t, ok)
		assert.Equal(t, int(params.StackLimit)-1, frame.stack.len())
	})
	t.Run("beyond_max_pc", func(t *testing.T) {
		frame := getFrame(ExecCall, nil, info, 1000)
		defer returnFrame(frame)
		frame.pc = compiler.MaxFastPathPC
		_, ok := in.tryExecuteFastPath(frame)
		assert.False(t, ok)
	})
}

func TestFastPathNeedsMatchingInstructionSet(t *testing.T) {
	cache := newHotCache(t, compiler.ModePatternMatching)
	evm, _ := newTestEVM(t, params.FrontierChainConfig, Config{CodeCache: cache})
	assert.False(t, evm.Interpreter().fastPath)

	evm, _ = newTestEVM(t, params.AllForksChainConfig, Config{CodeCache: cache})
	assert.True(t, evm.Interpreter().fastPath)
}

func TestFastPathOutOfGasFallsBack(t *testing.T) {
	cache := newHotCache(t, compiler.ModeSubsegmentCompiled)
	makeHot(t, cache, countdownProgram)

	// The generic loop raises the exception at the exact instruction, with
	// the same result as without a hot path.
	for _, gas := range []uint64{2, 10, 40} {
		generic, statedb := newTestEVM(t, params.AllForksChainConfig, Config{})
		statedb.SetCode(callerAddr, countdownProgram)
		_, wantGas, wantErr := generic.Call(originAddr, callerAddr, nil, gas, new(uint256.Int))

		evm, statedb := newTestEVM(t, params.AllForksChainConfig, Config{CodeCache: cache})
		statedb.SetCode(callerAddr, countdownProgram)
		_, gotGas, gotErr := evm.Call(originAddr, callerAddr, nil, gas, new(uint256.Int))
		assert.Equal(t, wantErr, gotErr)
		assert.Equal(t, wantGas, gotGas)
	}
}
