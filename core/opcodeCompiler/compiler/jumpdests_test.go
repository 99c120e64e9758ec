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

package compiler

import (
	"math/rand"
	"sync"
	"testing"
)

func TestJumpDestAnalysis(t *testing.T) {
	tests := []struct {
		code  []byte
		exp   byte
		which int
	}{
		{[]byte{byte(PUSH1), 0x01, 0x01, 0x01}, 0b0000_0010, 0},
		{[]byte{byte(PUSH1), byte(PUSH1), byte(PUSH1), byte(PUSH1)}, 0b0000_1010, 0},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1)}, 0b0101_0100, 0},
		{[]byte{byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), byte(PUSH8), 0x01, 0x01, 0x01}, bits(1, 2, 3, 4, 5, 6, 7), 0},
		{[]byte{byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0001, 1},
		{[]byte{0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH2), byte(PUSH2), byte(PUSH2), 0x01, 0x01, 0x01}, 0b1100_0000, 0},
		{[]byte{0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH2), 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0000, 1},
		{[]byte{byte(PUSH3), 0x01, 0x01, 0x01, byte(PUSH1), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0010_1110, 0},
		{[]byte{byte(PUSH3), 0x01, 0x01, 0x01, byte(PUSH1), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0000, 1},
		{[]byte{0x01, byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b1111_1100, 0},
		{[]byte{0x01, byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0011, 1},
		{[]byte{byte(PUSH16), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b1111_1110, 0},
		{[]byte{byte(PUSH16), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b1111_1111, 1},
		{[]byte{byte(PUSH16), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01}, 0b0000_0001, 2},
		{[]byte{byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH1), 0x01}, 0b1111_1110, 0},
		{[]byte{byte(PUSH8), 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, 0x01, byte(PUSH1), 0x01}, 0b0000_0101, 1},
		{[]byte{byte(PUSH32)}, 0b1111_1110, 0},
		{[]byte{byte(PUSH32)}, 0b1111_1111, 1},
		{[]byte{byte(PUSH32)}, 0b1111_1111, 2},
		{[]byte{byte(PUSH32)}, 0b1111_1111, 3},
		{[]byte{byte(PUSH32)}, 0b0000_0001, 4},
	}
	for i, test := range tests {
		ret := codeBitmap(test.code)
		if ret[test.which] != test.exp {
			t.Fatalf("test %d: expected %x, got %02x", i, test.exp, ret[test.which])
		}
	}
}

func bits(positions ...int) byte {
	var b byte
	for _, p := range positions {
		b |= 1 << p
	}
	return b
}

func TestJumpDestPushData(t *testing.T) {
	a := NewJumpDestAnalyzer([]byte{byte(PUSH1), byte(JUMPDEST), byte(JUMPDEST)}, true)
	if a.IsValidJumpDestination(0) {
		t.Error("PUSH1 reported as jump destination")
	}
	if a.IsValidJumpDestination(1) {
		t.Error("push data reported as jump destination")
	}
	if !a.IsValidJumpDestination(2) {
		t.Error("JUMPDEST not reported as jump destination")
	}
	if a.IsValidJumpDestination(3) {
		t.Error("out of range offset reported as jump destination")
	}
}

func TestJumpDestEmptyCodeShared(t *testing.T) {
	a := NewJumpDestAnalyzer(nil, true)
	if a != EmptyJumpDestAnalyzer {
		t.Fatal("empty code did not yield the shared analyzer")
	}
	if NewJumpDestAnalyzer([]byte{}, false) != EmptyJumpDestAnalyzer {
		t.Fatal("empty code did not yield the shared analyzer")
	}
	if a.IsValidJumpDestination(0) || !a.Analysed() {
		t.Fatal("empty analyzer misbehaves")
	}
}

// naiveJumpDests is the reference definition of a valid jump destination.
func naiveJumpDests(code []byte) map[uint64]bool {
	valid := make(map[uint64]bool)
	for pc := 0; pc < len(code); pc++ {
		op := ByteCode(code[pc])
		if op == JUMPDEST {
			valid[uint64(pc)] = true
		}
		pc += op.immediateSize()
	}
	return valid
}

func TestJumpDestMatchesNaiveScan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		code := make([]byte, rng.Intn(300))
		for i := range code {
			// Bias towards PUSHes and JUMPDESTs to hit the interesting paths.
			switch rng.Intn(4) {
			case 0:
				code[i] = byte(JUMPDEST)
			case 1:
				code[i] = byte(PUSH1) + byte(rng.Intn(32))
			default:
				code[i] = byte(rng.Intn(256))
			}
		}
		a := NewJumpDestAnalyzer(code, round%2 == 0)
		want := naiveJumpDests(code)
		for pc := uint64(0); pc < uint64(len(code))+2; pc++ {
			if have := a.IsValidJumpDestination(pc); have != want[pc] {
				t.Fatalf("round %d pc %d: have %v, want %v (code %x)", round, pc, have, want[pc], code)
			}
		}
	}
}

func TestJumpDestConcurrentAnalyse(t *testing.T) {
	code := make([]byte, 4096)
	for i := range code {
		code[i] = byte(JUMPDEST)
	}
	a := NewJumpDestAnalyzer(code, false)
	if a.Analysed() {
		t.Fatal("lazy analyzer analysed eagerly")
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if !a.IsValidJumpDestination(uint64(i)) {
				t.Errorf("offset %d not valid", i)
			}
		}(i)
	}
	wg.Wait()
	if !a.Analysed() {
		t.Fatal("bitmap not published")
	}
}

func BenchmarkJumpdestAnalysis_1200k(bench *testing.B) {
	// 1.4 ms
	code := make([]byte, 1200000)
	bench.SetBytes(1)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		codeBitmap(code)
	}
	bench.StopTimer()
}
