package main

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/core/vm"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHex(t *testing.T) {
	for _, in := range []string{"0x6001", "6001", " 0X6001\n"} {
		b, err := decodeHex(in)
		require.NoError(t, err, in)
		assert.Equal(t, []byte{0x60, 0x01}, b)
	}
	_, err := decodeHex("0x600")
	assert.Error(t, err)
	_, err = decodeHex("zz")
	assert.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("0x0b")
	require.NoError(t, err)
	assert.Equal(t, common.BytesToAddress([]byte{0x0b}), addr)

	_, err = parseAddress("0x")
	assert.Error(t, err)
	_, err = parseAddress("0x" + string(bytes.Repeat([]byte("ab"), 21)))
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode("jit")
	require.NoError(t, err)
	assert.Equal(t, compiler.ModeSubsegmentCompiled, mode)
	_, err = parseMode("mir")
	assert.Error(t, err)
}

func TestRunnerCall(t *testing.T) {
	cfg := &params.Config{Chain: params.AllForksChainConfig, Interpreter: params.DefaultInterpreterConfig}
	r, err := newRunner(cfg, vm.BlockContext{BlockNumber: big.NewInt(0)}, frameLogger())
	require.NoError(t, err)
	defer r.close()

	// CALLVALUE, return it as a word
	code := []byte{byte(vm.CALLVALUE), byte(vm.PUSH1), 0, byte(vm.MSTORE), byte(vm.PUSH1), 32, byte(vm.PUSH1), 0, byte(vm.RETURN)}
	res := r.call(code, nil, 100_000, uint256.NewInt(9))
	require.NoError(t, res.err)
	assert.Equal(t, common.LeftPadBytes([]byte{9}, 32), res.ret)
	assert.Equal(t, uint64(2+3+6+3+3), res.gasUsed)
	assert.Equal(t, compiler.NotAnalyzed, res.state)

	var out bytes.Buffer
	printResults(&out, []callResult{res})
	assert.Contains(t, out.String(), "17")
}

func TestRunnerCallAll(t *testing.T) {
	cfg := &params.Config{Chain: params.AllForksChainConfig, Interpreter: params.DefaultInterpreterConfig}
	r, err := newRunner(cfg, vm.BlockContext{BlockNumber: big.NewInt(0)}, nil)
	require.NoError(t, err)
	defer r.close()

	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 2, byte(vm.ADD), byte(vm.POP), byte(vm.STOP)}
	results := r.callAll(code, nil, 100_000, new(uint256.Int), 8, 4, 0)
	require.Len(t, results, 8)
	for _, res := range results {
		require.NoError(t, res.err)
		assert.Equal(t, uint64(3+3+3+2), res.gasUsed)
	}
	assert.Equal(t, 1, r.cache.Len())
}

func TestPrintContracts(t *testing.T) {
	var out bytes.Buffer
	printContracts(&out, vm.PrecompiledContractsBLSMul)
	for _, name := range []string{"BLS12_G1ADD", "BLS12_G1MUL", "BLS12_MAP_FP2_TO_G2"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestPrintSegments(t *testing.T) {
	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 2, byte(vm.ADD), byte(vm.POP), byte(vm.STOP)}
	isa := vm.LookupInstructionSet(params.AllForksChainConfig.Rules(big.NewInt(0), 0))
	hot, err := compiler.BuildHotPath(code, compiler.ModePatternMatching, isa)
	require.NoError(t, err)

	var out bytes.Buffer
	printSegments(&out, hot)
	assert.Contains(t, out.String(), "Push1Push1")
	assert.Contains(t, out.String(), "PUSH1 PUSH1")
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Interpreter]\nMaxCallDepth = 16\n"), 0o644))

	cfg, err := params.LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Interpreter.MaxCallDepth)
	assert.Equal(t, params.AllForksChainConfig, cfg.Chain)
}
