package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportMap_addFunction(t *testing.T) {
	im := NewImportMap()
	require.NoError(t, im.AddFunction("env", "add", func(a, b int32) int32 { return a + b }))

	b, ok := im.resolve("env", "add")
	require.True(t, ok)
	require.Equal(t, ImportKindFunction, b.kind)
	require.True(t, b.function.IsHost())
	require.True(t, b.function.Signature.EqualsSignature(
		[]ValueType{ValueTypeI32, ValueTypeI32},
		[]ValueType{ValueTypeI32}))
}

func TestImportMap_signatureDerivation(t *testing.T) {
	im := NewImportMap()

	// A leading *CallContext is not part of the wasm signature.
	require.NoError(t, im.AddFunction("env", "log", func(ctx *CallContext, ptr uint32, len uint32) {}))
	b, _ := im.resolve("env", "log")
	require.True(t, b.function.Signature.EqualsSignature(
		[]ValueType{ValueTypeI32, ValueTypeI32}, nil))

	require.NoError(t, im.AddFunction("env", "mix", func(a int64, b float32, c float64) uint64 { return 0 }))
	b, _ = im.resolve("env", "mix")
	require.True(t, b.function.Signature.EqualsSignature(
		[]ValueType{ValueTypeI64, ValueTypeF32, ValueTypeF64},
		[]ValueType{ValueTypeI64}))

	err := im.AddFunction("env", "bad", func(s string) {})
	require.ErrorContains(t, err, "unsupported kind string")

	err = im.AddFunction("env", "notfunc", 42)
	require.ErrorContains(t, err, "is not a function")
}

func TestImportMap_duplicateAndNil(t *testing.T) {
	im := NewImportMap()
	require.NoError(t, im.AddFunction("env", "f", func() {}))
	err := im.AddFunction("env", "f", func() {})
	require.ErrorContains(t, err, `"env"."f" is already registered`)

	// The same field name under another module is distinct.
	require.NoError(t, im.AddFunction("env2", "f", func() {}))

	require.Error(t, im.AddTable("env", "t", nil))
	require.Error(t, im.AddMemory("env", "m", nil))
	require.Error(t, im.AddGlobal("env", "g", nil))
	require.Error(t, im.AddFunctionInstance("env", "fi", nil))
}

func TestImportMap_entities(t *testing.T) {
	im := NewImportMap()

	tab, err := NewTable(1, nil)
	require.NoError(t, err)
	mem, err := NewMemory(1, nil)
	require.NoError(t, err)
	g := NewGlobal(&GlobalType{ValType: ValueTypeI32}, 1)

	require.NoError(t, im.AddTable("env", "t", tab))
	require.NoError(t, im.AddMemory("env", "m", mem))
	require.NoError(t, im.AddGlobal("env", "g", g))

	b, ok := im.resolve("env", "t")
	require.True(t, ok)
	require.Same(t, tab, b.table)

	_, ok = im.resolve("env", "missing")
	require.False(t, ok)

	// A nil map resolves nothing instead of panicking.
	var nilMap *ImportMap
	_, ok = nilMap.resolve("env", "t")
	require.False(t, ok)
}
