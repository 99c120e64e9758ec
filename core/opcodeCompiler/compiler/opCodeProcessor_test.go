package compiler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// testInstructionSet is a reduced instruction table good enough for the
// analysis passes.
type testInstructionSet struct{}

func (testInstructionSet) OpInfo(op ByteCode) (OpInfo, bool) {
	switch {
	case op == PUSH0:
		return OpInfo{ConstantGas: 2, Pushes: 1, Straight: true}, true
	case PUSH1 <= op && op <= PUSH32:
		return OpInfo{ConstantGas: 3, Pushes: 1, Straight: true}, true
	case DUP1 <= op && op <= DUP16:
		n := int(op-DUP1) + 1
		return OpInfo{ConstantGas: 3, Pops: n, Pushes: n + 1, Straight: true}, true
	case SWAP1 <= op && op <= SWAP16:
		n := int(op-SWAP1) + 2
		return OpInfo{ConstantGas: 3, Pops: n, Pushes: n, Straight: true}, true
	}
	switch op {
	case ADD, SUB, LT, GT, SLT, EQ, AND, OR, XOR, SHL, SHR:
		return OpInfo{ConstantGas: 3, Pops: 2, Pushes: 1, Straight: true}, true
	case ISZERO, NOT:
		return OpInfo{ConstantGas: 3, Pops: 1, Pushes: 1, Straight: true}, true
	case POP:
		return OpInfo{ConstantGas: 2, Pops: 1, Straight: true}, true
	case JUMPDEST:
		return OpInfo{ConstantGas: 1, Straight: true}, true
	case STOP:
		return OpInfo{}, true
	case JUMP:
		return OpInfo{ConstantGas: 8, Pops: 1}, true
	case JUMPI:
		return OpInfo{ConstantGas: 10, Pops: 2}, true
	case MSTORE:
		return OpInfo{ConstantGas: 3, Pops: 2}, true
	case RETURN, REVERT:
		return OpInfo{Pops: 2}, true
	}
	return OpInfo{}, false
}

func code(ops ...interface{}) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		switch v := op.(type) {
		case ByteCode:
			buf.WriteByte(byte(v))
		case []byte:
			buf.Write(v)
		case byte:
			buf.WriteByte(v)
		case int:
			buf.WriteByte(byte(v))
		}
	}
	return buf.Bytes()
}

func TestGenerateBasicBlocks(t *testing.T) {
	c := code(PUSH1, 3, JUMP, JUMPDEST, PUSH1, 1, PUSH1, 2, ADD, STOP, JUMPDEST, POP)
	blocks := GenerateBasicBlocks(c)
	require.Len(t, blocks, 3)

	require.Equal(t, uint64(0), blocks[0].StartPC)
	require.Equal(t, uint64(3), blocks[0].EndPC)
	require.False(t, blocks[0].IsJumpDest)
	require.Len(t, blocks[0].Instructions, 2)
	require.Equal(t, []byte{3}, blocks[0].Instructions[0].Data)

	require.Equal(t, uint64(3), blocks[1].StartPC)
	require.Equal(t, uint64(10), blocks[1].EndPC)
	require.True(t, blocks[1].IsJumpDest)
	require.Len(t, blocks[1].Instructions, 5)

	require.Equal(t, uint64(10), blocks[2].StartPC)
	require.Equal(t, uint64(12), blocks[2].EndPC)
	require.True(t, blocks[2].IsJumpDest)
}

func TestGenerateBasicBlocksTruncatedPush(t *testing.T) {
	blocks := GenerateBasicBlocks(code(ADD, PUSH4, 0x01, 0x02))
	require.Len(t, blocks, 1)
	last := blocks[0].Instructions[1]
	require.Equal(t, PUSH4, last.Op)
	require.True(t, last.truncated())
	require.Equal(t, uint64(4), blocks[0].EndPC)
	require.Empty(t, GenerateBasicBlocks(nil))
}

func TestBuildHotPathPatterns(t *testing.T) {
	c := code(PUSH1, 1, PUSH1, 2, ADD, SWAP1, POP, SWAP2, SWAP1, JUMPDEST, DUP2, LT, MSTORE, POP, POP, STOP)
	hot, err := BuildHotPath(c, ModePatternMatching, testInstructionSet{})
	require.NoError(t, err)
	require.Equal(t, ModePatternMatching, hot.Mode)

	seg := hot.SegmentAt(0)
	require.NotNil(t, seg)
	require.Equal(t, SegmentFused, seg.Kind)
	require.Equal(t, Push1Push1, seg.Pattern)
	require.Equal(t, uint64(4), seg.Length)
	require.Equal(t, uint64(6), seg.StaticGas)
	require.Equal(t, 0, seg.MinStack)
	require.Equal(t, 2, seg.MaxGrowth)

	// ADD at 4 is not part of a pattern, SWAP1 POP SWAP2 SWAP1 is.
	require.Nil(t, hot.SegmentAt(4))
	seg = hot.SegmentAt(5)
	require.NotNil(t, seg)
	require.Equal(t, Swap1PopSwap2Swap1, seg.Pattern)
	require.Equal(t, 4, seg.MinStack)
	require.Equal(t, 0, seg.MaxGrowth)

	// The pattern after the JUMPDEST starts a new block.
	seg = hot.SegmentAt(10)
	require.NotNil(t, seg)
	require.Equal(t, Dup2Lt, seg.Pattern)
	require.Equal(t, 2, seg.MinStack)
	require.Equal(t, 1, seg.MaxGrowth)

	// MSTORE is not fusable, the POP POP behind it is.
	seg = hot.SegmentAt(13)
	require.NotNil(t, seg)
	require.Equal(t, PopPop, seg.Pattern)
	require.Equal(t, 4, hot.Len())
}

func TestBuildHotPathSubsegments(t *testing.T) {
	c := code(PUSH1, 1, PUSH1, 2, ADD, DUP1, PUSH1, 0, MSTORE, PUSH1, 0x20, PUSH1, 0, RETURN)
	hot, err := BuildHotPath(c, ModeSubsegmentCompiled, testInstructionSet{})
	require.NoError(t, err)
	require.Equal(t, 2, hot.Len())

	seg := hot.SegmentAt(0)
	require.NotNil(t, seg)
	require.Equal(t, SegmentCompiled, seg.Kind)
	require.Len(t, seg.Ops, 5)
	require.Equal(t, uint64(8), seg.Length)
	require.Equal(t, uint64(15), seg.StaticGas)
	require.Equal(t, 0, seg.MinStack)
	require.Equal(t, 3, seg.MaxGrowth)

	seg = hot.SegmentAt(9)
	require.NotNil(t, seg)
	require.Len(t, seg.Ops, 2)
	require.Equal(t, []*Segment{hot.SegmentAt(0), hot.SegmentAt(9)}, hot.Segments())
}

func TestBuildHotPathFailures(t *testing.T) {
	_, err := BuildHotPath(code(STOP), ModePatternMatching, testInstructionSet{})
	require.ErrorIs(t, err, ErrFailPreprocessing)

	_, err = BuildHotPath(code(PUSH1, 1, JUMP), ModeSubsegmentCompiled, testInstructionSet{})
	require.ErrorIs(t, err, ErrFailPreprocessing)

	_, err = BuildHotPath(code(PUSH1, 1, PUSH1, 1), ModeNone, testInstructionSet{})
	require.ErrorIs(t, err, ErrUnknownMode)

	// A pattern whose push runs past the end of the code is not fused.
	_, err = BuildHotPath(code(PUSH1, 1, PUSH1), ModePatternMatching, testInstructionSet{})
	require.ErrorIs(t, err, ErrFailPreprocessing)
}

func TestBuildHotPathIndexLimit(t *testing.T) {
	c := make([]byte, MaxFastPathPC+8)
	for i := range c {
		c[i] = byte(JUMPDEST)
	}
	// One pattern right below the limit and one right above it.
	copy(c[MaxFastPathPC-4:], code(POP, POP))
	copy(c[MaxFastPathPC+2:], code(POP, POP))

	hot, err := BuildHotPath(c, ModePatternMatching, testInstructionSet{})
	require.NoError(t, err)
	require.Equal(t, 1, hot.Len())
	require.NotNil(t, hot.SegmentAt(MaxFastPathPC-4))
	require.Nil(t, hot.SegmentAt(MaxFastPathPC+2))
}

func TestMatchPatternLongestFirst(t *testing.T) {
	blocks := GenerateBasicBlocks(code(SWAP1, POP, SWAP2, SWAP1, STOP))
	pattern, n := matchPattern(blocks[0].Instructions)
	require.Equal(t, Swap1PopSwap2Swap1, pattern)
	require.Equal(t, 4, n)

	pattern, n = matchPattern(blocks[0].Instructions[2:])
	require.Equal(t, Swap2Swap1, pattern)
	require.Equal(t, 2, n)
	require.Equal(t, "Swap2Swap1", pattern.String())
}
