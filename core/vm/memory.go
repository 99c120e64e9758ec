// Copyright 2015 The go-ethereum Authors
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

package vm

import (
	"math/bits"
	"sync"

	"github.com/holiman/uint256"
)

const (
	minPooledBuffer = 1 << 10
	maxPooledBuffer = 1 << 16
)

// bufferPools holds power-of-two sized memory buffers from 1KiB to 64KiB.
var bufferPools [7]sync.Pool

func poolIndex(size uint64) int {
	if size <= minPooledBuffer {
		return 0
	}
	return bits.Len64(size-1) - bits.Len(minPooledBuffer-1)
}

// getPool returns a zeroed buffer of length size. Buffers above the largest
// size class are allocated directly.
func getPool(size uint64) []byte {
	if size > maxPooledBuffer {
		return make([]byte, size)
	}
	idx := poolIndex(size)
	if b, ok := bufferPools[idx].Get().(*[]byte); ok {
		buf := (*b)[:cap(*b)]
		clear(buf)
		return buf[:size]
	}
	return make([]byte, size, minPooledBuffer<<idx)
}

// putPool hands a buffer back for reuse.
func putPool(b []byte) {
	c := uint64(cap(b))
	if c < minPooledBuffer || c > maxPooledBuffer || c&(c-1) != 0 {
		return
	}
	b = b[:0]
	bufferPools[poolIndex(c)].Put(&b)
}

var memoryPool = sync.Pool{
	New: func() any {
		return &Memory{}
	},
}

// Memory implements a simple memory model for the ethereum virtual machine.
type Memory struct {
	store []byte
}

// NewMemory returns a new memory model.
func NewMemory() *Memory {
	return memoryPool.Get().(*Memory)
}

// Free returns the memory to the pool.
func (m *Memory) Free() {
	putPool(m.store)
	m.store = nil
	memoryPool.Put(m)
}

// Set sets offset + size to value
func (m *Memory) Set(offset, size uint64, value []byte) {
	// It's possible the offset is greater than 0 and size equals 0. This is because
	// the calcMemSize (common.go) could potentially return 0 when size is zero (NO-OP)
	if size > 0 {
		// length of store may never be less than offset + size.
		// The store should be resized PRIOR to setting the memory
		if offset+size > uint64(len(m.store)) {
			panic("invalid memory: store empty")
		}
		copy(m.store[offset:offset+size], value)
	}
}

// Set32 sets the 32 bytes starting at offset to the value of val, left-padded with zeroes to
// 32 bytes.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	// length of store may never be less than offset + size.
	// The store should be resized PRIOR to setting the memory
	if offset+32 > uint64(len(m.store)) {
		panic("invalid memory: store empty")
	}
	// Fill in relevant bits
	val.PutUint256(m.store[offset:])
}

// Resize resizes the memory to size and returns the backing buffer. A
// growing store is moved to a pooled buffer of the next size class.
func (m *Memory) Resize(size uint64) []byte {
	if uint64(len(m.store)) >= size {
		return m.store
	}
	if uint64(cap(m.store)) >= size {
		m.store = m.store[:size]
		return m.store
	}
	buf := getPool(size)
	copy(buf, m.store)
	putPool(m.store)
	m.store = buf
	return m.store
}

// GetCopy returns offset + size as a new slice
func (m *Memory) GetCopy(offset, size uint64) (cpy []byte) {
	if size == 0 {
		return nil
	}

	// memory is always resized before being accessed, no need to check bounds
	cpy = make([]byte, size)
	copy(cpy, m.store[offset:offset+size])
	return
}

// GetPtr returns the offset + size
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}

	// memory is always resized before being accessed, no need to check bounds
	return m.store[offset : offset+size]
}

// Len returns the length of the backing slice
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the backing slice
func (m *Memory) Data() []byte {
	return m.store
}
