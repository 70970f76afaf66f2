package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// addWasm is a binary module exporting "add": (i32, i32) -> i32.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(fs, &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "add.wasm", addWasm, 0o644))

	out, err := execute(t, fs, "run", "add.wasm", "add", "40", "2")
	require.NoError(t, err)
	require.Equal(t, "42\n", out)

	t.Run("negative arguments", func(t *testing.T) {
		// The -- keeps the flag parser away from negative numbers.
		out, err := execute(t, fs, "run", "add.wasm", "add", "--", "-40", "2")
		require.NoError(t, err)
		require.Equal(t, "-38\n", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, fs, "run", "nope.wasm", "add")
		require.ErrorContains(t, err, "read nope.wasm")
	})

	t.Run("wrong argument count", func(t *testing.T) {
		_, err := execute(t, fs, "run", "add.wasm", "add", "1")
		require.ErrorContains(t, err, "expected 2 arguments but got 1")
	})

	t.Run("unknown export", func(t *testing.T) {
		_, err := execute(t, fs, "run", "add.wasm", "mul")
		require.ErrorContains(t, err, `"mul" is not exported`)
	})

	t.Run("malformed module", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "bad.wasm", []byte("junk"), 0o644))
		_, err := execute(t, fs, "run", "bad.wasm", "add")
		require.ErrorContains(t, err, "invalid magic number")
	})
}

func TestVersion(t *testing.T) {
	out, err := execute(t, afero.NewMemMapFs(), "version")
	require.NoError(t, err)
	require.Equal(t, "wasmlink "+version+"\n", out)
}
