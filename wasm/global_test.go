package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobal_mutability(t *testing.T) {
	g := NewGlobal(&GlobalType{ValType: ValueTypeI64, Mutable: true}, 41)
	require.Equal(t, uint64(41), g.Get())
	require.NoError(t, g.Set(42))
	require.Equal(t, uint64(42), g.Get())

	imm := NewGlobal(&GlobalType{ValType: ValueTypeI32}, 7)
	err := imm.Set(8)
	require.ErrorContains(t, err, "global of type i32 is immutable")
	require.Equal(t, uint64(7), imm.Get())
}
