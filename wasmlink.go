// Package wasmlink loads WebAssembly 1.0 binary modules, links their
// imports and runs their exported functions on an embedded interpreter.
//
// The top-level API is a thin facade over the wasm, wasm/binary and
// wasm/interpreter packages:
//
//	r := wasmlink.NewRuntime()
//	compiled, err := r.CompileModule(source)
//	instance, err := r.InstantiateModule(compiled, imports)
//	results, err := instance.CallFunction(ctx, "add", 1, 2)
package wasmlink

import (
	"context"

	"github.com/wasmlink/wasmlink/wasm"
	"github.com/wasmlink/wasmlink/wasm/binary"
	"github.com/wasmlink/wasmlink/wasm/interpreter"
)

// Runtime compiles and instantiates modules against a shared store.
// Instances created by the same Runtime can import each other's
// exports through an ImportMap.
type Runtime interface {
	// CompileModule decodes and validates a binary module. The returned
	// module is ready for instantiation but owns no runtime state.
	CompileModule(source []byte) (*CompiledModule, error)

	// InstantiateModule allocates an instance of a compiled module,
	// resolving its imports from the given map. A nil map is valid for
	// modules without imports.
	InstantiateModule(compiled *CompiledModule, imports *wasm.ImportMap) (*wasm.Instance, error)

	// CompileAndInstantiate is CompileModule followed by
	// InstantiateModule.
	CompileAndInstantiate(source []byte, imports *wasm.ImportMap) (*wasm.Instance, error)
}

// CompiledModule is a decoded, validated module.
type CompiledModule struct {
	module *wasm.Module
}

// Module exposes the underlying structure, e.g. to inspect sections.
func (c *CompiledModule) Module() *wasm.Module { return c.module }

type runtime struct {
	ctx   context.Context
	store *wasm.Store
}

// NewRuntime returns a Runtime with the default configuration.
func NewRuntime() Runtime {
	return NewRuntimeWithConfig(NewRuntimeConfig())
}

// NewRuntimeWithConfig builds a Runtime from config: an interpreting
// engine plus a store sharing the configured logger and limits.
func NewRuntimeWithConfig(config *RuntimeConfig) Runtime {
	engineOpts := []interpreter.Option{interpreter.WithLogger(config.logger)}
	if config.callStackDepth > 0 {
		engineOpts = append(engineOpts, interpreter.WithCallStackLimit(config.callStackDepth))
	}
	storeOpts := []wasm.StoreOption{wasm.WithLogger(config.logger)}
	if config.memoryCapPages > 0 {
		storeOpts = append(storeOpts, wasm.WithMemoryCapPages(config.memoryCapPages))
	}
	return &runtime{
		ctx:   config.ctx,
		store: wasm.NewStore(interpreter.NewEngine(engineOpts...), storeOpts...),
	}
}

func (r *runtime) CompileModule(source []byte) (*CompiledModule, error) {
	m, err := binary.DecodeModule(source)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &CompiledModule{module: m}, nil
}

func (r *runtime) InstantiateModule(compiled *CompiledModule, imports *wasm.ImportMap) (*wasm.Instance, error) {
	return r.store.Instantiate(r.ctx, compiled.module, imports)
}

func (r *runtime) CompileAndInstantiate(source []byte, imports *wasm.ImportMap) (*wasm.Instance, error) {
	compiled, err := r.CompileModule(source)
	if err != nil {
		return nil, err
	}
	return r.InstantiateModule(compiled, imports)
}
