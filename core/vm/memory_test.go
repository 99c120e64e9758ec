package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestMemoryResizeKeepsContent(t *testing.T) {
	m := NewMemory()
	defer m.Free()

	m.Resize(64)
	m.Set32(0, uint256.NewInt(0xdead))
	m.Resize(4096)
	require.Equal(t, 4096, m.Len())
	require.Equal(t, byte(0xad), m.Data()[31])
	require.Equal(t, byte(0xde), m.Data()[30])
	for _, b := range m.Data()[32:] {
		require.Zero(t, b)
	}
}

func TestMemoryPooledBuffersAreZeroed(t *testing.T) {
	dirty := getPool(2048)
	for i := range dirty {
		dirty[i] = 0xff
	}
	putPool(dirty)

	m := NewMemory()
	defer m.Free()
	m.Resize(1500)
	m.Resize(2048)
	for _, b := range m.Data() {
		require.Zero(t, b)
	}
}

func TestMemoryGetCopy(t *testing.T) {
	m := NewMemory()
	defer m.Free()
	m.Resize(32)
	m.Set(0, 3, []byte{1, 2, 3})

	cpy := m.GetCopy(0, 3)
	cpy[0] = 9
	require.Equal(t, byte(1), m.GetPtr(0, 1)[0])
	require.Nil(t, m.GetCopy(0, 0))
}

func TestPoolIndex(t *testing.T) {
	require.Equal(t, 0, poolIndex(1))
	require.Equal(t, 0, poolIndex(1024))
	require.Equal(t, 1, poolIndex(1025))
	require.Equal(t, 6, poolIndex(65536))
	require.Len(t, getPool(70000), 70000)
}

func BenchmarkResize(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := new(Memory)
		bytes := m.Resize(1024)
		putPool(bytes)
	}
}

func BenchmarkOldResize(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := new(Memory)
		if uint64(m.Len()) < 1024 {
			m.store = append(m.store, make([]byte, 1024-uint64(m.Len()))...)
		}
	}
}
