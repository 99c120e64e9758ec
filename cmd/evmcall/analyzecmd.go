package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"

	"github.com/bnb-chain/bsc-evm/core/opcodeCompiler/compiler"
	"github.com/bnb-chain/bsc-evm/core/vm"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var modeFlag = &cli.StringFlag{
	Name:  "mode",
	Usage: "analysis to run: pattern or jit",
	Value: "pattern",
}

var analyzeCommand = &cli.Command{
	Name:  "analyze",
	Usage: "Show the basic blocks and hot path segments of contract code",
	Flags: []cli.Flag{
		codeFlag,
		codeFileFlag,
		modeFlag,
		blockFlag,
		timeFlag,
	},
	Action: analyzeCmd,
}

func parseMode(s string) (compiler.AnalysisMode, error) {
	switch s {
	case "pattern":
		return compiler.ModePatternMatching, nil
	case "jit":
		return compiler.ModeSubsegmentCompiled, nil
	}
	return compiler.ModeNone, errors.Errorf("unknown analysis mode %q", s)
}

func analyzeCmd(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := loadCode(ctx)
	if err != nil {
		return err
	}
	mode, err := parseMode(ctx.String(modeFlag.Name))
	if err != nil {
		return err
	}
	rules := cfg.Chain.Rules(new(big.Int).SetUint64(ctx.Uint64(blockFlag.Name)), ctx.Uint64(timeFlag.Name))
	isa := vm.LookupInstructionSet(rules)

	jumps := compiler.NewJumpDestAnalyzer(code, true)
	blocks := compiler.GenerateBasicBlocks(code)
	fmt.Printf("code: %d bytes, %d basic blocks\n", len(code), len(blocks))
	printBlocks(os.Stdout, blocks, jumps)

	hot, err := compiler.BuildHotPath(code, mode, isa)
	if err != nil {
		return errors.Wrap(err, "build hot path")
	}
	fmt.Printf("%s: %d segments\n", hot.Mode, hot.Len())
	printSegments(os.Stdout, hot)
	return nil
}

func printBlocks(w io.Writer, blocks []compiler.BasicBlock, jumps *compiler.JumpDestAnalyzer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Start", "End", "Instructions", "Jump target"})
	for _, b := range blocks {
		table.Append([]string{
			strconv.FormatUint(b.StartPC, 10),
			strconv.FormatUint(b.EndPC, 10),
			strconv.Itoa(len(b.Instructions)),
			strconv.FormatBool(jumps.IsValidJumpDestination(b.StartPC)),
		})
	}
	table.Render()
}

func printSegments(w io.Writer, hot *compiler.HotPath) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PC", "Kind", "Pattern", "Ops", "Bytes", "Static gas", "Min stack", "Max growth"})
	for _, seg := range hot.Segments() {
		ops := ""
		for i, ins := range seg.Ops {
			if i > 0 {
				ops += " "
			}
			ops += vm.OpCode(ins.Op).String()
		}
		table.Append([]string{
			strconv.FormatUint(seg.StartPC(), 10),
			seg.Kind.String(),
			seg.Pattern.String(),
			ops,
			strconv.FormatUint(seg.Length, 10),
			strconv.FormatUint(seg.StaticGas, 10),
			strconv.Itoa(seg.MinStack),
			strconv.Itoa(seg.MaxGrowth),
		})
	}
	table.Render()
}
