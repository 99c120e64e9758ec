// evmcall runs contract code, inspects its hot path analysis and calls the
// BLS12-381 precompiles from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnb-chain/bsc-evm/internal/debug"
	"github.com/bnb-chain/bsc-evm/params"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "contract bytecode as hex (with or without 0x prefix)",
	}
	codeFileFlag = &cli.StringFlag{
		Name:  "codefile",
		Usage: "file containing contract bytecode hex, '-' for stdin",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "call data as hex",
	}
)

var app = &cli.App{
	Name:  "evmcall",
	Usage: "the call core command line interface",
	Flags: append([]cli.Flag{configFlag}, debug.Flags...),
	Commands: []*cli.Command{
		runCommand,
		analyzeCommand,
		precompileCommand,
	},
	Before: debug.Setup,
	After: func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig returns the config given by --config, or the defaults with
// every fork active.
func loadConfig(ctx *cli.Context) (*params.Config, error) {
	file := ctx.String(configFlag.Name)
	if file == "" {
		return &params.Config{Chain: params.AllForksChainConfig, Interpreter: params.DefaultInterpreterConfig}, nil
	}
	cfg, err := params.LoadConfig(file)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded config", "file", file, "chain", cfg.Chain)
	return cfg, nil
}

// loadCode reads the bytecode from --code or --codefile.
func loadCode(ctx *cli.Context) ([]byte, error) {
	var (
		hexCode = ctx.String(codeFlag.Name)
		file    = ctx.String(codeFileFlag.Name)
	)
	switch {
	case hexCode != "" && file != "":
		return nil, errors.New("only one of --code and --codefile may be given")
	case hexCode != "":
		return decodeHex(hexCode)
	case file == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		return decodeHex(string(data))
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrap(err, "read code file")
		}
		return decodeHex(string(data))
	}
	return nil, errors.New("one of --code or --codefile is required")
}

// decodeHex decodes s, ignoring surrounding whitespace and a 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		return nil, errors.Errorf("odd length hex string %q", abbreviate(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex %q", abbreviate(s))
	}
	return b, nil
}

func abbreviate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
