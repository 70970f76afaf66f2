package wasm

import (
	"context"
	"fmt"
	"reflect"
)

// FunctionInstance is a callable function: either a module function
// with a validated body, or a host function backed by a Go func.
type FunctionInstance struct {
	Name      string
	Signature *FunctionType

	// Module function fields.
	Body       []byte
	LocalTypes []ValueType
	Blocks     map[uint64]*Block
	Instance   *Instance

	// GoFunc is set for host functions; when set the body fields are
	// unused.
	GoFunc *reflect.Value
}

// IsHost returns true when f is backed by a Go function.
func (f *FunctionInstance) IsHost() bool {
	return f.GoFunc != nil
}

// ExportInstance is the runtime entity behind one export name. Exactly
// one of the pointer fields is set, selected by Kind.
type ExportInstance struct {
	Kind     ExportKind
	Function *FunctionInstance
	Table    *TableInstance
	Memory   *MemoryInstance
	Global   *GlobalInstance
}

// Instance is a successfully instantiated module. The index-space
// slices combine imported entities (shared pointers) with locally
// allocated ones, imports first.
type Instance struct {
	Exports   map[string]*ExportInstance
	Functions []*FunctionInstance
	Tables    []*TableInstance
	Globals   []*GlobalInstance
	Memory    *MemoryInstance
	Types     []*FunctionType

	engine Engine
}

// Function returns the exported function of that name.
func (i *Instance) Function(name string) (*FunctionInstance, error) {
	exp, err := i.export(name, ExportKindFunction)
	if err != nil {
		return nil, err
	}
	return exp.Function, nil
}

// Table returns the exported table of that name.
func (i *Instance) Table(name string) (*TableInstance, error) {
	exp, err := i.export(name, ExportKindTable)
	if err != nil {
		return nil, err
	}
	return exp.Table, nil
}

// MemoryExport returns the exported memory of that name.
func (i *Instance) MemoryExport(name string) (*MemoryInstance, error) {
	exp, err := i.export(name, ExportKindMemory)
	if err != nil {
		return nil, err
	}
	return exp.Memory, nil
}

// Global returns the exported global of that name.
func (i *Instance) Global(name string) (*GlobalInstance, error) {
	exp, err := i.export(name, ExportKindGlobal)
	if err != nil {
		return nil, err
	}
	return exp.Global, nil
}

// CallFunction invokes the exported function of that name. Arguments
// and results use the raw 64-bit representation.
func (i *Instance) CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	f, err := i.Function(name)
	if err != nil {
		return nil, err
	}
	if len(args) != len(f.Signature.Params) {
		return nil, fmt.Errorf("call %q: expected %d arguments but got %d",
			name, len(f.Signature.Params), len(args))
	}
	return i.engine.Call(ctx, f, args...)
}

func (i *Instance) export(name string, kind ExportKind) (*ExportInstance, error) {
	exp, ok := i.Exports[name]
	if !ok {
		return nil, fmt.Errorf("%q is not exported", name)
	}
	if exp.Kind != kind {
		return nil, fmt.Errorf("%q is a %s, not a %s",
			name, ExportKindName(exp.Kind), ExportKindName(kind))
	}
	return exp, nil
}
