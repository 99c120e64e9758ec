// Copyright 2016 The go-ethereum Authors
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

package params

import (
	"fmt"
	"math/big"
)

func newUint64(val uint64) *uint64 { return &val }

var (
	// AllForksChainConfig activates every fork the call core knows about at
	// genesis, including the BLS12-381 precompiles.
	AllForksChainConfig = &ChainConfig{
		ChainID:             big.NewInt(1337),
		HomesteadBlock:      big.NewInt(0),
		EIP150Block:         big.NewInt(0),
		EIP158Block:         big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(0),
		BerlinBlock:         big.NewInt(0),
		LondonBlock:         big.NewInt(0),
		ShanghaiTime:        newUint64(0),
		PragueTime:          newUint64(0),
	}

	// FrontierChainConfig has no forks activated: frontier call costs, no
	// 63/64 rule and no access lists.
	FrontierChainConfig = &ChainConfig{
		ChainID: big.NewInt(1),
	}

	// TangerineWhistleChainConfig enables EIP-150 but still charges the
	// new-account surcharge whenever the target does not exist.
	TangerineWhistleChainConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big.NewInt(0),
		EIP150Block:    big.NewInt(0),
	}

	// SpuriousDragonChainConfig enables EIP-158 empty account handling on top
	// of TangerineWhistleChainConfig.
	SpuriousDragonChainConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big.NewInt(0),
		EIP150Block:    big.NewInt(0),
		EIP158Block:    big.NewInt(0),
	}
)

// ChainConfig is the fork schedule consulted by the call core. It is the
// pinned activation table that decides which gas rules apply to a call:
// blocks for the historical forks, timestamps for the ones after the merge.
//
// ChainConfig is stored in the TOML config file, so field names are part of
// the file format.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"` // chainId identifies the current chain

	HomesteadBlock      *big.Int `json:"homesteadBlock,omitempty"`      // Homestead switch block (nil = no fork, 0 = already homestead)
	EIP150Block         *big.Int `json:"eip150Block,omitempty"`         // EIP150 HF block (nil = no fork)
	EIP158Block         *big.Int `json:"eip158Block,omitempty"`         // EIP158 HF block
	ByzantiumBlock      *big.Int `json:"byzantiumBlock,omitempty"`      // Byzantium switch block (nil = no fork, 0 = already on byzantium)
	ConstantinopleBlock *big.Int `json:"constantinopleBlock,omitempty"` // Constantinople switch block (nil = no fork, 0 = already activated)
	BerlinBlock         *big.Int `json:"berlinBlock,omitempty"`         // Berlin switch block (nil = no fork, 0 = already on berlin)
	LondonBlock         *big.Int `json:"londonBlock,omitempty"`         // London switch block (nil = no fork, 0 = already on london)

	ShanghaiTime *uint64 `json:"shanghaiTime,omitempty"` // Shanghai switch time (nil = no fork, 0 = already on shanghai)
	PragueTime   *uint64 `json:"pragueTime,omitempty"`   // Prague switch time (nil = no fork, 0 = already on prague)
}

// String implements the fmt.Stringer interface.
func (c *ChainConfig) String() string {
	var shanghai, prague string
	if c.ShanghaiTime != nil {
		shanghai = fmt.Sprint(*c.ShanghaiTime)
	}
	if c.PragueTime != nil {
		prague = fmt.Sprint(*c.PragueTime)
	}
	return fmt.Sprintf("{ChainID: %v Homestead: %v EIP150: %v EIP158: %v Byzantium: %v Constantinople: %v Berlin: %v London: %v ShanghaiTime: %v PragueTime: %v}",
		c.ChainID,
		c.HomesteadBlock,
		c.EIP150Block,
		c.EIP158Block,
		c.ByzantiumBlock,
		c.ConstantinopleBlock,
		c.BerlinBlock,
		c.LondonBlock,
		shanghai,
		prague,
	)
}

// IsHomestead returns whether num is either equal to the homestead block or greater.
func (c *ChainConfig) IsHomestead(num *big.Int) bool {
	return isBlockForked(c.HomesteadBlock, num)
}

// IsEIP150 returns whether num is either equal to the EIP150 fork block or greater.
func (c *ChainConfig) IsEIP150(num *big.Int) bool {
	return isBlockForked(c.EIP150Block, num)
}

// IsEIP158 returns whether num is either equal to the EIP158 fork block or greater.
func (c *ChainConfig) IsEIP158(num *big.Int) bool {
	return isBlockForked(c.EIP158Block, num)
}

// IsByzantium returns whether num is either equal to the Byzantium fork block or greater.
func (c *ChainConfig) IsByzantium(num *big.Int) bool {
	return isBlockForked(c.ByzantiumBlock, num)
}

// IsConstantinople returns whether num is either equal to the Constantinople fork block or greater.
func (c *ChainConfig) IsConstantinople(num *big.Int) bool {
	return isBlockForked(c.ConstantinopleBlock, num)
}

// IsBerlin returns whether num is either equal to the Berlin fork block or greater.
func (c *ChainConfig) IsBerlin(num *big.Int) bool {
	return isBlockForked(c.BerlinBlock, num)
}

// IsLondon returns whether num is either equal to the London fork block or greater.
func (c *ChainConfig) IsLondon(num *big.Int) bool {
	return isBlockForked(c.LondonBlock, num)
}

// IsShanghai returns whether time is either equal to the Shanghai fork time or greater.
func (c *ChainConfig) IsShanghai(num *big.Int, time uint64) bool {
	return c.IsLondon(num) && isTimestampForked(c.ShanghaiTime, time)
}

// IsPrague returns whether time is either equal to the Prague fork time or greater.
func (c *ChainConfig) IsPrague(num *big.Int, time uint64) bool {
	return c.IsLondon(num) && isTimestampForked(c.PragueTime, time)
}

// CheckConfigForkOrder checks that we don't "skip" any forks, geth isn't pluggable enough
// to guarantee that forks can be implemented in a different order than on official networks
func (c *ChainConfig) CheckConfigForkOrder() error {
	type fork struct {
		name     string
		block    *big.Int
		optional bool
	}
	var lastFork fork
	for _, cur := range []fork{
		{name: "homesteadBlock", block: c.HomesteadBlock},
		{name: "eip150Block", block: c.EIP150Block},
		{name: "eip158Block", block: c.EIP158Block},
		{name: "byzantiumBlock", block: c.ByzantiumBlock},
		{name: "constantinopleBlock", block: c.ConstantinopleBlock},
		{name: "berlinBlock", block: c.BerlinBlock},
		{name: "londonBlock", block: c.LondonBlock},
	} {
		if lastFork.name != "" {
			switch {
			// Non-optional forks must all be present in the chain config up to the last defined fork
			case lastFork.block == nil && cur.block != nil:
				return fmt.Errorf("unsupported fork ordering: %v not enabled, but %v enabled at block %v",
					lastFork.name, cur.name, cur.block)

			// Fork (whether defined by block or timestamp) must follow the fork definition sequence
			case lastFork.block != nil && cur.block != nil:
				if lastFork.block.Cmp(cur.block) > 0 {
					return fmt.Errorf("unsupported fork ordering: %v enabled at block %v, but %v enabled at block %v",
						lastFork.name, lastFork.block, cur.name, cur.block)
				}
			}
		}
		lastFork = cur
	}
	if c.ShanghaiTime != nil && c.LondonBlock == nil {
		return fmt.Errorf("unsupported fork ordering: londonBlock not enabled, but shanghaiTime enabled at timestamp %v", *c.ShanghaiTime)
	}
	if c.PragueTime != nil {
		if c.ShanghaiTime == nil {
			return fmt.Errorf("unsupported fork ordering: shanghaiTime not enabled, but pragueTime enabled at timestamp %v", *c.PragueTime)
		}
		if *c.ShanghaiTime > *c.PragueTime {
			return fmt.Errorf("unsupported fork ordering: shanghaiTime enabled at timestamp %v, but pragueTime enabled at timestamp %v", *c.ShanghaiTime, *c.PragueTime)
		}
	}
	return nil
}

// isBlockForked returns whether a fork scheduled at block s is active at the
// given head block. Whilst this method is the same as isTimestampForked, they
// are explicitly separate for clearer reading.
func isBlockForked(s, head *big.Int) bool {
	if s == nil || head == nil {
		return false
	}
	return s.Cmp(head) <= 0
}

// isTimestampForked returns whether a fork scheduled at timestamp s is active
// at the given head timestamp.
func isTimestampForked(s *uint64, head uint64) bool {
	if s == nil {
		return false
	}
	return *s <= head
}

// Rules wraps ChainConfig and is merely syntactic sugar or can be used for functions
// that do not have or require information about the block.
//
// Rules is a one time interface meaning that it shouldn't be used in between transition
// phases.
type Rules struct {
	ChainID                                 *big.Int
	IsHomestead, IsEIP150, IsEIP158         bool
	IsByzantium, IsConstantinople, IsBerlin bool
	IsLondon, IsEIP2929                     bool
	IsShanghai, IsPrague                    bool
}

// Rules ensures c's ChainID is not nil.
func (c *ChainConfig) Rules(num *big.Int, timestamp uint64) Rules {
	chainID := c.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	return Rules{
		ChainID:          new(big.Int).Set(chainID),
		IsHomestead:      c.IsHomestead(num),
		IsEIP150:         c.IsEIP150(num),
		IsEIP158:         c.IsEIP158(num),
		IsByzantium:      c.IsByzantium(num),
		IsConstantinople: c.IsConstantinople(num),
		IsBerlin:         c.IsBerlin(num),
		IsEIP2929:        c.IsBerlin(num),
		IsLondon:         c.IsLondon(num),
		IsShanghai:       c.IsShanghai(num, timestamp),
		IsPrague:         c.IsPrague(num, timestamp),
	}
}

// Use63Over64 reports whether a call may forward at most all but one 64th of
// the caller's remaining gas.
func (r Rules) Use63Over64() bool { return r.IsEIP150 }

// ClearEmptyAccountWhenTouched reports whether empty accounts are treated as
// dead, which switches the new-account surcharge to the "dead and value
// bearing" predicate.
func (r Rules) ClearEmptyAccountWhenTouched() bool { return r.IsEIP158 }

// CallCost returns the static gas of the CALL family. From Berlin on the
// static part is zero and the access list surcharge takes its place.
func (r Rules) CallCost() uint64 {
	switch {
	case r.IsEIP2929:
		return 0
	case r.IsEIP150:
		return CallGasEIP150
	default:
		return CallGasFrontier
	}
}
