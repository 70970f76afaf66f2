package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMemory(t *testing.T) {
	mem, err := NewMemory(2, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(2), mem.PageSize())
	require.Equal(t, 2*int(PageSize), len(mem.Buffer))

	max := uint32(1)
	_, err = NewMemory(2, &max)
	require.ErrorContains(t, err, "exceeds maximum 1")

	_, err = NewMemory(MemoryMaxPages+1, nil)
	require.ErrorContains(t, err, "exceeds 65536 pages")
}

func TestMemory_grow(t *testing.T) {
	max := uint32(3)
	mem, err := NewMemory(1, &max)
	require.NoError(t, err)
	require.True(t, mem.WriteByteAt(0, 0xaa))

	prev, ok := mem.Grow(2)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev)
	require.Equal(t, uint32(3), mem.PageSize())

	// Old contents survive, new pages are zeroed.
	b, ok := mem.ReadByteAt(0)
	require.True(t, ok)
	require.Equal(t, byte(0xaa), b)
	b, ok = mem.ReadByteAt(2 * PageSize)
	require.True(t, ok)
	require.Zero(t, b)

	_, ok = mem.Grow(1)
	require.False(t, ok)
	require.Equal(t, uint32(3), mem.PageSize())

	t.Run("growing by zero reports current size", func(t *testing.T) {
		prev, ok := mem.Grow(0)
		require.True(t, ok)
		require.Equal(t, uint32(3), prev)
	})
}

func TestMemory_accessors(t *testing.T) {
	mem, err := NewMemory(1, nil)
	require.NoError(t, err)

	require.True(t, mem.WriteUint32Le(0, 0xdeadbeef))
	v32, ok := mem.ReadUint32Le(0)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v32)
	// Little-endian byte order.
	b, _ := mem.ReadByteAt(0)
	require.Equal(t, byte(0xef), b)

	require.True(t, mem.WriteUint64Le(8, 0x1122334455667788))
	v64, ok := mem.ReadUint64Le(8)
	require.True(t, ok)
	require.Equal(t, uint64(0x1122334455667788), v64)

	require.True(t, mem.WriteFloat32Le(16, 1.5))
	f32, ok := mem.ReadFloat32Le(16)
	require.True(t, ok)
	require.Equal(t, float32(1.5), f32)

	require.True(t, mem.WriteFloat64Le(24, math.Pi))
	f64, ok := mem.ReadFloat64Le(24)
	require.True(t, ok)
	require.Equal(t, math.Pi, f64)

	require.True(t, mem.WriteBytes(32, []byte{1, 2, 3}))
	bs, ok := mem.ReadBytes(32, 3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, bs)
	// ReadBytes copies; mutating the result leaves memory untouched.
	bs[0] = 9
	b, _ = mem.ReadByteAt(32)
	require.Equal(t, byte(1), b)
}

func TestMemory_accessBounds(t *testing.T) {
	mem, err := NewMemory(1, nil)
	require.NoError(t, err)
	last := PageSize - 1

	ok := mem.WriteByteAt(last, 1)
	require.True(t, ok)
	require.False(t, mem.WriteUint32Le(last, 1))
	_, ok = mem.ReadUint32Le(last)
	require.False(t, ok)
	_, ok = mem.ReadByteAt(PageSize)
	require.False(t, ok)

	// A huge offset must not wrap around.
	_, ok = mem.ReadBytes(math.MaxUint32, 8)
	require.False(t, ok)
	require.False(t, mem.WriteBytes(math.MaxUint32, []byte{1}))
}
