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
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type revision struct {
	id           int
	journalIndex int
}

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the state
// was created. These are tracked to be able to be reverted in the case of an
// execution exception or request for reversal.
type journal struct {
	entries []journalEntry

	validRevisions []revision
	nextRevisionId int
}

func newJournal() *journal {
	return &journal{}
}

// snapshot returns an identifier for the current revision of the state.
func (j *journal) snapshot() int {
	id := j.nextRevisionId
	j.nextRevisionId++
	j.validRevisions = append(j.validRevisions, revision{id, len(j.entries)})
	return id
}

// revertToSnapshot reverts all state changes made since the given revision.
// The revision and every later one are invalidated, so a second revert of the
// same id panics.
func (j *journal) revertToSnapshot(revid int, s *StateDB) {
	idx := sort.Search(len(j.validRevisions), func(i int) bool {
		return j.validRevisions[i].id >= revid
	})
	if idx == len(j.validRevisions) || j.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := j.validRevisions[idx].journalIndex

	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:snapshot]
	j.validRevisions = j.validRevisions[:idx]
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) length() int {
	return len(j.entries)
}

type (
	createObjectChange struct {
		account common.Address
	}
	// resetObjectChange records an account that was replaced by CreateAccount.
	resetObjectChange struct {
		prev *stateObject
	}
	balanceChange struct {
		account common.Address
		prev    *uint256.Int
	}
	nonceChange struct {
		account common.Address
		prev    uint64
	}
	codeChange struct {
		account  common.Address
		prevHash common.Hash
	}
	accessListAddAccountChange struct {
		address common.Address
	}
)

func (ch createObjectChange) revert(s *StateDB) {
	delete(s.stateObjects, ch.account)
}

func (ch resetObjectChange) revert(s *StateDB) {
	s.stateObjects[ch.prev.address] = ch.prev
}

func (ch balanceChange) revert(s *StateDB) {
	s.getStateObject(ch.account).setBalance(ch.prev)
}

func (ch nonceChange) revert(s *StateDB) {
	s.getStateObject(ch.account).nonce = ch.prev
}

func (ch codeChange) revert(s *StateDB) {
	s.getStateObject(ch.account).codeHash = ch.prevHash
}

func (ch accessListAddAccountChange) revert(s *StateDB) {
	s.accessList.Remove(ch.address)
}
