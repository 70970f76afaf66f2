package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tab, err := NewTable(3, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(3), tab.Len())
	require.Equal(t, RefTypeFuncref, tab.ElemType)
	for i := uint32(0); i < 3; i++ {
		f, err := tab.Get(i)
		require.NoError(t, err)
		require.Nil(t, f)
	}

	max := uint32(2)
	_, err = NewTable(3, &max)
	require.ErrorContains(t, err, "initial size 3 exceeds maximum 2")
}

func TestTable_getSetBounds(t *testing.T) {
	tab, err := NewTable(2, nil)
	require.NoError(t, err)

	f := &FunctionInstance{Name: "f"}
	require.NoError(t, tab.Set(1, f))
	got, err := tab.Get(1)
	require.NoError(t, err)
	require.Same(t, f, got)

	// Emptying a slot via nil.
	require.NoError(t, tab.Set(1, nil))
	got, err = tab.Get(1)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = tab.Get(2)
	var trap *Trap
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapOutOfBoundsTableAccess, trap.Kind)

	err = tab.Set(2, f)
	require.ErrorAs(t, err, &trap)
	require.Equal(t, TrapOutOfBoundsTableAccess, trap.Kind)
}

func TestTable_grow(t *testing.T) {
	max := uint32(4)
	tab, err := NewTable(2, &max)
	require.NoError(t, err)

	f := &FunctionInstance{Name: "f"}
	require.NoError(t, tab.Set(0, f))

	require.NoError(t, tab.Grow(2))
	require.Equal(t, uint32(4), tab.Len())
	// Existing entries survive, new slots start empty.
	got, err := tab.Get(0)
	require.NoError(t, err)
	require.Same(t, f, got)
	got, err = tab.Get(3)
	require.NoError(t, err)
	require.Nil(t, got)

	err = tab.Grow(1)
	require.ErrorContains(t, err, "exceeds maximum 4")
	require.Equal(t, uint32(4), tab.Len())
}
