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

// Package state provides an in-memory, journaled world state for the
// interpreter: account balances, nonces, code and the transaction access list.
package state

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"
)

// StateDB holds the accounts touched by a single transaction. It is used by
// one interpreter thread at a time; every mutation is journaled so that a
// snapshot can be rolled back exactly once.
type StateDB struct {
	db           *Database
	stateObjects map[common.Address]*stateObject
	accessList   mapset.Set[common.Address]
	journal      *journal
	logger       *tracing.Hooks
}

// New creates a state on top of the given code store.
func New(db *Database) *StateDB {
	return &StateDB{
		db:           db,
		stateObjects: make(map[common.Address]*stateObject),
		accessList:   mapset.NewThreadUnsafeSet[common.Address](),
		journal:      newJournal(),
	}
}

// SetLogger sets the logger for account balance change hooks.
func (s *StateDB) SetLogger(l *tracing.Hooks) {
	s.logger = l
}

// Database returns the code store backing the state.
func (s *StateDB) Database() *Database {
	return s.db
}

func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	return s.stateObjects[addr]
}

func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	obj := s.getStateObject(addr)
	if obj == nil {
		obj = newObject(addr)
		s.stateObjects[addr] = obj
		s.journal.append(createObjectChange{account: addr})
	}
	return obj
}

// Exist reports whether the given account exists in state.
// Notably this also returns true for empty accounts.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty returns whether the state object is either non-existent
// or empty according to the EIP161 specification (balance = nonce = code = 0)
func (s *StateDB) Empty(addr common.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

// GetBalance retrieves the balance from the given address or 0 if object not found.
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.balance
	}
	return new(uint256.Int)
}

// GetNonce retrieves the nonce from the given address or 0 if object not found.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

// GetCode returns the code of the account, nil if none.
func (s *StateDB) GetCode(addr common.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return s.db.ContractCode(obj.codeHash)
	}
	return nil
}

// GetCodeHash returns the code hash of the account, or the zero hash if the
// account does not exist.
func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.codeHash
	}
	return common.Hash{}
}

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	obj := s.getOrNewStateObject(addr)
	if amount.IsZero() {
		return
	}
	s.setBalance(obj, new(uint256.Int).Add(obj.balance, amount), reason)
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	obj := s.getOrNewStateObject(addr)
	if amount.IsZero() {
		return
	}
	s.setBalance(obj, new(uint256.Int).Sub(obj.balance, amount), reason)
}

// SetBalance overwrites the balance of the account associated with addr.
func (s *StateDB) SetBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.setBalance(s.getOrNewStateObject(addr), new(uint256.Int).Set(amount), reason)
}

func (s *StateDB) setBalance(obj *stateObject, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	s.journal.append(balanceChange{account: obj.address, prev: obj.balance})
	if s.logger != nil && s.logger.OnBalanceChange != nil {
		s.logger.OnBalanceChange(obj.address, obj.balance.ToBig(), amount.ToBig(), reason)
	}
	obj.setBalance(amount)
}

// SetNonce sets the nonce of the account associated with addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{account: addr, prev: obj.nonce})
	obj.nonce = nonce
}

// SetCode stores code in the code store and points the account at it.
func (s *StateDB) SetCode(addr common.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{account: addr, prevHash: obj.codeHash})
	obj.codeHash = s.db.WriteCode(code)
}

// CreateAccount explicitly creates a new state object, assuming that the
// account did not previously exist in the state. If the account already
// exists, its balance is carried over to the fresh object.
func (s *StateDB) CreateAccount(addr common.Address) {
	prev := s.getStateObject(addr)
	obj := newObject(addr)
	if prev == nil {
		s.journal.append(createObjectChange{account: addr})
	} else {
		s.journal.append(resetObjectChange{prev: prev})
		obj.balance = new(uint256.Int).Set(prev.balance)
	}
	s.stateObjects[addr] = obj
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot reverts all state changes made since the given revision.
// It panics if the revision is unknown or has already been reverted.
func (s *StateDB) RevertToSnapshot(revid int) {
	s.journal.revertToSnapshot(revid, s)
}

// AddressInAccessList returns true if the given address is in the access list.
func (s *StateDB) AddressInAccessList(addr common.Address) bool {
	return s.accessList.Contains(addr)
}

// AddAddressToAccessList adds the given address to the access list.
func (s *StateDB) AddAddressToAccessList(addr common.Address) {
	if s.accessList.Add(addr) {
		s.journal.append(accessListAddAccountChange{address: addr})
	}
}

// Copy creates a deep, independent copy of the state. Snapshots of the
// original are not valid on the copy.
func (s *StateDB) Copy() *StateDB {
	cpy := New(s.db)
	for addr, obj := range s.stateObjects {
		cpy.stateObjects[addr] = obj.deepCopy()
	}
	cpy.accessList = s.accessList.Clone()
	cpy.logger = s.logger
	return cpy
}
