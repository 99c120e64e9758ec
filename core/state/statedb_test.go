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

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0xaaaa")
	addrB = common.HexToAddress("0xbbbb")
)

func newTestState() *StateDB {
	return New(NewDatabase(0))
}

func TestEmptyAndExist(t *testing.T) {
	s := newTestState()
	assert.False(t, s.Exist(addrA))
	assert.True(t, s.Empty(addrA))

	s.CreateAccount(addrA)
	assert.True(t, s.Exist(addrA))
	assert.True(t, s.Empty(addrA))
	assert.Equal(t, EmptyCodeHash, s.GetCodeHash(addrA))
	assert.Equal(t, common.Hash{}, s.GetCodeHash(addrB))

	s.AddBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeTransfer)
	assert.False(t, s.Empty(addrA))
}

func TestCodeStore(t *testing.T) {
	s := newTestState()
	code := []byte{0x60, 0x01, 0x00}
	s.SetCode(addrA, code)

	assert.Equal(t, code, s.GetCode(addrA))
	assert.Equal(t, crypto.Keccak256Hash(code), s.GetCodeHash(addrA))
	assert.False(t, s.Empty(addrA))
	assert.Nil(t, s.GetCode(addrB))

	// A second state on the same store sees the code by hash.
	other := New(s.Database())
	assert.Equal(t, code, other.Database().ContractCode(crypto.Keccak256Hash(code)))

	// Code beyond the fastcache chunk size goes through the big-entry path.
	large := make([]byte, 100*1024)
	large[len(large)-1] = 0x5b
	s.SetCode(addrB, large)
	assert.Equal(t, large, s.GetCode(addrB))
}

func TestSnapshotRevert(t *testing.T) {
	s := newTestState()
	s.SetBalance(addrA, uint256.NewInt(100), tracing.BalanceChangeUnspecified)

	snap := s.Snapshot()
	s.SubBalance(addrA, uint256.NewInt(40), tracing.BalanceChangeTransfer)
	s.AddBalance(addrB, uint256.NewInt(40), tracing.BalanceChangeTransfer)
	s.SetNonce(addrA, 7)
	s.SetCode(addrB, []byte{0x00})
	s.AddAddressToAccessList(addrB)

	require.Equal(t, uint64(60), s.GetBalance(addrA).Uint64())
	require.True(t, s.Exist(addrB))

	s.RevertToSnapshot(snap)
	assert.Equal(t, uint64(100), s.GetBalance(addrA).Uint64())
	assert.Equal(t, uint64(0), s.GetNonce(addrA))
	assert.False(t, s.Exist(addrB))
	assert.False(t, s.AddressInAccessList(addrB))
}

func TestNestedSnapshots(t *testing.T) {
	s := newTestState()
	s.SetBalance(addrA, uint256.NewInt(10), tracing.BalanceChangeUnspecified)

	outer := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeTransfer)
	inner := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeTransfer)

	s.RevertToSnapshot(inner)
	assert.Equal(t, uint64(11), s.GetBalance(addrA).Uint64())

	s.RevertToSnapshot(outer)
	assert.Equal(t, uint64(10), s.GetBalance(addrA).Uint64())
}

func TestRevertOnce(t *testing.T) {
	s := newTestState()
	snap := s.Snapshot()
	s.RevertToSnapshot(snap)
	assert.Panics(t, func() { s.RevertToSnapshot(snap) })

	// Reverting an outer snapshot invalidates the inner ones.
	outer := s.Snapshot()
	inner := s.Snapshot()
	s.RevertToSnapshot(outer)
	assert.Panics(t, func() { s.RevertToSnapshot(inner) })
	assert.Panics(t, func() { s.RevertToSnapshot(1000) })
}

func TestCreateAccountKeepsBalance(t *testing.T) {
	s := newTestState()
	s.SetBalance(addrA, uint256.NewInt(5), tracing.BalanceChangeUnspecified)
	s.SetNonce(addrA, 3)

	snap := s.Snapshot()
	s.CreateAccount(addrA)
	assert.Equal(t, uint64(5), s.GetBalance(addrA).Uint64())
	assert.Equal(t, uint64(0), s.GetNonce(addrA))

	s.RevertToSnapshot(snap)
	assert.Equal(t, uint64(3), s.GetNonce(addrA))
}

func TestBalanceHook(t *testing.T) {
	s := newTestState()
	var changes []string
	s.SetLogger(&tracing.Hooks{
		OnBalanceChange: func(addr common.Address, prev, new *big.Int, reason tracing.BalanceChangeReason) {
			changes = append(changes, prev.String()+"->"+new.String())
		},
	})
	s.AddBalance(addrA, uint256.NewInt(3), tracing.BalanceChangeTransfer)
	s.AddBalance(addrA, new(uint256.Int), tracing.BalanceChangeTransfer)
	s.SubBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeTransfer)
	assert.Equal(t, []string{"0->3", "3->2"}, changes)
}

func TestCopyIsIndependent(t *testing.T) {
	s := newTestState()
	s.SetBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeUnspecified)
	cpy := s.Copy()
	cpy.AddBalance(addrA, uint256.NewInt(1), tracing.BalanceChangeTransfer)

	assert.Equal(t, uint64(1), s.GetBalance(addrA).Uint64())
	assert.Equal(t, uint64(2), cpy.GetBalance(addrA).Uint64())
}
