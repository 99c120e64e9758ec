package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"

	"github.com/bnb-chain/bsc-evm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var draftLayoutFlag = &cli.BoolFlag{
	Name:  "draft",
	Usage: "use the draft address layout with separate single multiplication contracts",
}

var precompileCommand = &cli.Command{
	Name:  "precompile",
	Usage: "Inspect and call the BLS12-381 precompiled contracts",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List the active precompiled contracts",
			Flags:  []cli.Flag{draftLayoutFlag, blockFlag, timeFlag},
			Action: listPrecompiles,
		},
		{
			Name:      "call",
			Usage:     "Run a precompiled contract on the given input",
			ArgsUsage: "<address>",
			Flags:     []cli.Flag{draftLayoutFlag, inputFlag, gasFlag, blockFlag, timeFlag},
			Action:    callPrecompile,
		},
	},
}

// namedContract is implemented by the precompiles that can report a name.
type namedContract interface {
	Name() string
}

func contractName(p vm.PrecompiledContract) string {
	if n, ok := p.(namedContract); ok {
		return n.Name()
	}
	return "unknown"
}

func activeContracts(ctx *cli.Context) (vm.PrecompiledContracts, error) {
	if ctx.Bool(draftLayoutFlag.Name) {
		return vm.PrecompiledContractsBLSMul, nil
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	rules := cfg.Chain.Rules(new(big.Int).SetUint64(ctx.Uint64(blockFlag.Name)), ctx.Uint64(timeFlag.Name))
	return vm.ActivePrecompiles(rules), nil
}

func listPrecompiles(ctx *cli.Context) error {
	contracts, err := activeContracts(ctx)
	if err != nil {
		return err
	}
	printContracts(os.Stdout, contracts)
	return nil
}

func printContracts(w io.Writer, contracts vm.PrecompiledContracts) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Address", "Name", "Gas (empty input)"})
	for _, addr := range contracts.Addresses() {
		p := contracts[addr]
		table.Append([]string{addr.Hex(), contractName(p), strconv.FormatUint(p.RequiredGas(nil), 10)})
	}
	table.Render()
}

func callPrecompile(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected the precompile address as the only argument")
	}
	addr, err := parseAddress(ctx.Args().First())
	if err != nil {
		return err
	}

	contracts, err := activeContracts(ctx)
	if err != nil {
		return err
	}
	p, ok := contracts[addr]
	if !ok {
		return errors.Errorf("no active precompile at %s", addr.Hex())
	}
	input, err := decodeHex(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	gas := ctx.Uint64(gasFlag.Name)
	ret, remaining, err := vm.RunPrecompiledContract(p, input, gas)
	fmt.Printf("contract: %s\n", contractName(p))
	fmt.Printf("gas used: %d\n", gas-remaining)
	if err != nil {
		return err
	}
	fmt.Printf("output: %x\n", ret)
	return nil
}

// parseAddress accepts full and short hex addresses such as 0x0b.
func parseAddress(s string) (common.Address, error) {
	b, err := decodeHex(s)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) == 0 || len(b) > common.AddressLength {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.BytesToAddress(b), nil
}
