package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/core/state"
	"github.com/bnb-chain/bsc-evm/core/vm"
	"github.com/bnb-chain/bsc-evm/internal/debug"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit for each call",
		Value: 10_000_000,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "value sent with each call, in wei",
		Value: "0",
	}
	repeatFlag = &cli.IntFlag{
		Name:  "repeat",
		Usage: "number of calls to run, later calls may take the hot path",
		Value: 1,
	}
	blockFlag = &cli.Uint64Flag{
		Name:  "block",
		Usage: "block number selecting the fork rules",
	}
	timeFlag = &cli.Uint64Flag{
		Name:  "time",
		Usage: "block timestamp selecting the fork rules",
	}
	parallelFlag = &cli.IntFlag{
		Name:  "parallel",
		Usage: "number of calls running at the same time",
		Value: 1,
	}
	settleFlag = &cli.DurationFlag{
		Name:  "settle",
		Usage: "pause between starting calls, giving the analysis workers time to publish hot paths",
	}
	traceFramesFlag = &cli.BoolFlag{
		Name:  "trace.frames",
		Usage: "log every call frame entered and left",
	}
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run contract code",
	Flags: []cli.Flag{
		codeFlag,
		codeFileFlag,
		inputFlag,
		gasFlag,
		valueFlag,
		repeatFlag,
		parallelFlag,
		blockFlag,
		timeFlag,
		settleFlag,
		traceFramesFlag,
	},
	Description: `
Deploys the code at a fixed address and calls it --repeat times through a
shared code cache. Every call runs on a fresh state, so the calls only share
the code analysis. With --parallel, up to that many calls run concurrently
against the same cache.`,
	Action: runCmd,
}

var (
	senderAddr   = common.HexToAddress("0x5e4de7")
	receiverAddr = common.HexToAddress("0xc0de")
)

// callResult is the outcome of one run.
type callResult struct {
	ret      []byte
	gasUsed  uint64
	err      error
	duration time.Duration
	state    compiler.AnalysisState
	mode     compiler.AnalysisMode
}

func runCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := loadCode(ctx)
	if err != nil {
		return err
	}
	var input []byte
	if in := ctx.String(inputFlag.Name); in != "" {
		if input, err = decodeHex(in); err != nil {
			return err
		}
	}
	value, err := uint256.FromDecimal(ctx.String(valueFlag.Name))
	if err != nil {
		return errors.Wrap(err, "invalid --value")
	}
	blockCtx := vm.BlockContext{
		BlockNumber: new(big.Int).SetUint64(ctx.Uint64(blockFlag.Name)),
		Time:        ctx.Uint64(timeFlag.Name),
	}
	var tracer *tracing.Hooks
	if ctx.Bool(traceFramesFlag.Name) {
		tracer = frameLogger()
	}
	runner, err := newRunner(cfg, blockCtx, tracer)
	if err != nil {
		return err
	}
	defer runner.close()

	var (
		repeat   = ctx.Int(repeatFlag.Name)
		parallel = ctx.Int(parallelFlag.Name)
		settle   = ctx.Duration(settleFlag.Name)
		gas      = ctx.Uint64(gasFlag.Name)
	)
	if repeat < 1 || parallel < 1 {
		return errors.New("--repeat and --parallel must be positive")
	}
	results := runner.callAll(code, input, gas, value, repeat, parallel, settle)
	last := results[len(results)-1]
	fmt.Printf("output: %x\n", last.ret)
	if last.err != nil {
		fmt.Printf("error: %v\n", last.err)
	}
	printResults(os.Stdout, results)
	return nil
}

// runner executes calls against a shared code cache.
type runner struct {
	chain    *params.ChainConfig
	blockCtx vm.BlockContext
	tracer   *tracing.Hooks
	db       *state.Database
	cache    *compiler.CodeCache
}

func newRunner(cfg *params.Config, blockCtx vm.BlockContext, tracer *tracing.Hooks) (*runner, error) {
	rules := cfg.Chain.Rules(blockCtx.BlockNumber, blockCtx.Time)
	cache, err := compiler.NewCodeCache(cfg.Interpreter, vm.LookupInstructionSet(rules))
	if err != nil {
		return nil, err
	}
	log.Debug("Code cache started", "workers", cfg.Interpreter.AnalysisWorkers, "size", cfg.Interpreter.CodeCacheSize)
	return &runner{
		chain:    cfg.Chain,
		blockCtx: blockCtx,
		tracer:   tracer,
		db:       state.NewDatabase(0),
		cache:    cache,
	}, nil
}

func (r *runner) close() {
	r.cache.Close()
	r.db.Release()
}

// callAll runs repeat calls, at most parallel of them at a time. Results
// are reported in start order.
func (r *runner) callAll(code, input []byte, gas uint64, value *uint256.Int, repeat, parallel int, settle time.Duration) []callResult {
	var (
		results = make([]callResult, repeat)
		workers errgroup.Group
	)
	workers.SetLimit(parallel)
	for i := range results {
		i := i
		workers.Go(func() error {
			results[i] = r.call(code, input, gas, value)
			return nil
		})
		if settle > 0 && i+1 < repeat {
			time.Sleep(settle)
		}
	}
	workers.Wait()
	return results
}

// call runs code once on a fresh state funded with value.
func (r *runner) call(code, input []byte, gas uint64, value *uint256.Int) callResult {
	statedb := state.New(r.db)
	statedb.SetCode(receiverAddr, code)
	statedb.SetBalance(senderAddr, value, tracing.BalanceChangeUnspecified)
	evm := vm.NewEVM(r.blockCtx, statedb, r.chain, vm.Config{Tracer: r.tracer, CodeCache: r.cache})

	defer debug.Handler.StartRegionAuto("call")()
	start := time.Now()
	ret, leftOver, err := evm.Call(senderAddr, receiverAddr, input, gas, value)
	res := callResult{
		ret:      ret,
		gasUsed:  gas - leftOver,
		err:      err,
		duration: time.Since(start),
	}
	res.state, res.mode = r.cache.GetOrCreate(crypto.Keccak256Hash(code), code).State()
	return res
}

func printResults(w io.Writer, results []callResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run", "Gas used", "Error", "Duration", "Analysis", "Mode"})
	for i, res := range results {
		errText := ""
		if res.err != nil {
			errText = res.err.Error()
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.FormatUint(res.gasUsed, 10),
			errText,
			res.duration.String(),
			res.state.String(),
			res.mode.String(),
		})
	}
	table.Render()
}

// frameLogger logs frames as they are entered and left.
func frameLogger() *tracing.Hooks {
	return &tracing.Hooks{
		OnEnter: func(depth int, typ byte, from, to common.Address, input []byte, gas uint64, value *big.Int) {
			log.Info("Enter frame", "depth", depth, "type", vm.OpCode(typ), "from", from, "to", to, "gas", gas, "value", value)
		},
		OnExit: func(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
			log.Info("Exit frame", "depth", depth, "used", gasUsed, "err", err, "reverted", reverted)
		},
	}
}
