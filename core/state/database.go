// Copyright 2017 The go-ethereum Authors
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
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// Cache size granted for caching clean code.
	codeCacheSize = 64 * 1024 * 1024
)

// EmptyCodeHash is the known hash of empty contract code.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// Database is the content-addressed contract code store shared by every
// StateDB built on it. The backing map is authoritative; the fastcache
// instance keeps recently read code off the map lock.
type Database struct {
	lock  sync.RWMutex
	codes map[common.Hash][]byte
	cache *fastcache.Cache
}

// NewDatabase creates a code store. A non-positive cacheSize selects the
// default clean cache size.
func NewDatabase(cacheSize int) *Database {
	if cacheSize <= 0 {
		cacheSize = codeCacheSize
	}
	return &Database{
		codes: make(map[common.Hash][]byte),
		cache: fastcache.New(cacheSize),
	}
}

// ContractCode retrieves a particular contract's code.
func (db *Database) ContractCode(codeHash common.Hash) []byte {
	if codeHash == EmptyCodeHash {
		return nil
	}
	if code := db.cache.GetBig(nil, codeHash.Bytes()); len(code) > 0 {
		return code
	}
	db.lock.RLock()
	code := db.codes[codeHash]
	db.lock.RUnlock()
	if len(code) > 0 {
		db.cache.SetBig(codeHash.Bytes(), code)
	}
	return code
}

// WriteCode stores code under its hash and returns the hash.
func (db *Database) WriteCode(code []byte) common.Hash {
	if len(code) == 0 {
		return EmptyCodeHash
	}
	hash := crypto.Keccak256Hash(code)

	db.lock.Lock()
	if _, ok := db.codes[hash]; !ok {
		db.codes[hash] = common.CopyBytes(code)
	}
	db.lock.Unlock()

	db.cache.SetBig(hash.Bytes(), code)
	return hash
}

// Release resets the clean cache, fastcache requires this to free its
// off-heap buckets.
func (db *Database) Release() {
	db.cache.Reset()
}
