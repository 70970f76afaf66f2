package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink"
	"github.com/wasmlink/wasmlink/wasm"
)

func newRunCmd(fs afero.Fs, out io.Writer, newLogger func() (*zap.Logger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run <module.wasm> <export> [args...]",
		Short: "Instantiate a module and call one of its exported functions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			source, err := afero.ReadFile(fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			r := wasmlink.NewRuntimeWithConfig(
				wasmlink.NewRuntimeConfig().
					WithContext(cmd.Context()).
					WithLogger(logger))
			instance, err := r.CompileAndInstantiate(source, nil)
			if err != nil {
				return err
			}

			name := args[1]
			f, err := instance.Function(name)
			if err != nil {
				return err
			}
			raw, err := parseArgs(f.Signature.Params, args[2:])
			if err != nil {
				return err
			}
			results, err := instance.CallFunction(cmd.Context(), name, raw...)
			if err != nil {
				return err
			}
			for i, res := range results {
				fmt.Fprintln(out, formatResult(f.Signature.Results[i], res))
			}
			return nil
		},
	}
}

// parseArgs converts command-line strings into the raw 64-bit values
// the export's signature demands.
func parseArgs(params []wasm.ValueType, args []string) ([]uint64, error) {
	if len(args) != len(params) {
		return nil, fmt.Errorf("expected %d arguments but got %d", len(params), len(args))
	}
	raw := make([]uint64, len(args))
	for i, arg := range args {
		switch params[i] {
		case wasm.ValueTypeI32:
			v, err := strconv.ParseInt(arg, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			raw[i] = uint64(uint32(int32(v)))
		case wasm.ValueTypeI64:
			v, err := strconv.ParseInt(arg, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			raw[i] = uint64(v)
		case wasm.ValueTypeF32:
			v, err := strconv.ParseFloat(arg, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			raw[i] = uint64(math.Float32bits(float32(v)))
		case wasm.ValueTypeF64:
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			raw[i] = math.Float64bits(v)
		}
	}
	return raw, nil
}

func formatResult(t wasm.ValueType, raw uint64) string {
	switch t {
	case wasm.ValueTypeI32:
		return strconv.FormatInt(int64(int32(uint32(raw))), 10)
	case wasm.ValueTypeI64:
		return strconv.FormatInt(int64(raw), 10)
	case wasm.ValueTypeF32:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(raw))), 'g', -1, 32)
	case wasm.ValueTypeF64:
		return strconv.FormatFloat(math.Float64frombits(raw), 'g', -1, 64)
	}
	return strconv.FormatUint(raw, 10)
}
