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

package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// stateObject represents an account which is being modified. Code bytes are
// not held by the object, only their hash; the bytes live in the shared code
// store of the owning StateDB.
type stateObject struct {
	address  common.Address
	balance  *uint256.Int
	nonce    uint64
	codeHash common.Hash
}

func newObject(address common.Address) *stateObject {
	return &stateObject{
		address:  address,
		balance:  new(uint256.Int),
		codeHash: EmptyCodeHash,
	}
}

// empty returns whether the account is considered empty (EIP-161).
func (s *stateObject) empty() bool {
	return s.nonce == 0 && s.balance.IsZero() && s.codeHash == EmptyCodeHash
}

func (s *stateObject) deepCopy() *stateObject {
	return &stateObject{
		address:  s.address,
		balance:  new(uint256.Int).Set(s.balance),
		nonce:    s.nonce,
		codeHash: s.codeHash,
	}
}

func (s *stateObject) setBalance(amount *uint256.Int) {
	s.balance = amount
}
