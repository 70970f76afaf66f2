package wasm

import (
	"fmt"
	"reflect"
)

// ImportMap collects the host-side bindings a module's imports resolve
// against, keyed by (module, field).
type ImportMap struct {
	bindings map[importKey]*importBinding
}

type importKey struct {
	module, name string
}

type importBinding struct {
	kind     ImportKind
	function *FunctionInstance
	table    *TableInstance
	memory   *MemoryInstance
	global   *GlobalInstance
}

// NewImportMap returns an empty ImportMap.
func NewImportMap() *ImportMap {
	return &ImportMap{bindings: map[importKey]*importBinding{}}
}

// AddFunction registers a Go function under (module, name). The wasm
// signature is derived from the Go signature: float32/float64 map to
// f32/f64, int32/uint32 to i32, int64/uint64 to i64. The function may
// optionally take a *CallContext as its first parameter.
func (im *ImportMap) AddFunction(module, name string, goFunc interface{}) error {
	fn := reflect.ValueOf(goFunc)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("%q.%q: %T is not a function", module, name, goFunc)
	}
	sig, err := signatureFromGoFunc(fn.Type())
	if err != nil {
		return fmt.Errorf("%q.%q: %w", module, name, err)
	}
	return im.add(module, name, &importBinding{
		kind: ImportKindFunction,
		function: &FunctionInstance{
			Name:      fmt.Sprintf("%s.%s", module, name),
			Signature: sig,
			GoFunc:    &fn,
		},
	})
}

// AddFunctionInstance registers an already built function, typically
// one exported by another instance.
func (im *ImportMap) AddFunctionInstance(module, name string, f *FunctionInstance) error {
	if f == nil {
		return fmt.Errorf("%q.%q: nil function", module, name)
	}
	return im.add(module, name, &importBinding{kind: ImportKindFunction, function: f})
}

// AddTable registers a table under (module, name).
func (im *ImportMap) AddTable(module, name string, t *TableInstance) error {
	if t == nil {
		return fmt.Errorf("%q.%q: nil table", module, name)
	}
	return im.add(module, name, &importBinding{kind: ImportKindTable, table: t})
}

// AddMemory registers a memory under (module, name).
func (im *ImportMap) AddMemory(module, name string, m *MemoryInstance) error {
	if m == nil {
		return fmt.Errorf("%q.%q: nil memory", module, name)
	}
	return im.add(module, name, &importBinding{kind: ImportKindMemory, memory: m})
}

// AddGlobal registers a global under (module, name).
func (im *ImportMap) AddGlobal(module, name string, g *GlobalInstance) error {
	if g == nil {
		return fmt.Errorf("%q.%q: nil global", module, name)
	}
	return im.add(module, name, &importBinding{kind: ImportKindGlobal, global: g})
}

func (im *ImportMap) add(module, name string, b *importBinding) error {
	key := importKey{module: module, name: name}
	if _, ok := im.bindings[key]; ok {
		return fmt.Errorf("%q.%q is already registered", module, name)
	}
	im.bindings[key] = b
	return nil
}

func (im *ImportMap) resolve(module, name string) (*importBinding, bool) {
	if im == nil {
		return nil, false
	}
	b, ok := im.bindings[importKey{module: module, name: name}]
	return b, ok
}

var callContextType = reflect.TypeOf((*CallContext)(nil))

// signatureFromGoFunc derives the wasm signature of a host function
// from its Go type.
func signatureFromGoFunc(t reflect.Type) (*FunctionType, error) {
	sig := &FunctionType{}
	start := 0
	if t.NumIn() > 0 && t.In(0) == callContextType {
		start = 1
	}
	for i := start; i < t.NumIn(); i++ {
		vt, err := valueTypeOf(t.In(i).Kind())
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		sig.Params = append(sig.Params, vt)
	}
	for i := 0; i < t.NumOut(); i++ {
		vt, err := valueTypeOf(t.Out(i).Kind())
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		sig.Results = append(sig.Results, vt)
	}
	return sig, nil
}

func valueTypeOf(kind reflect.Kind) (ValueType, error) {
	switch kind {
	case reflect.Int32, reflect.Uint32:
		return ValueTypeI32, nil
	case reflect.Int64, reflect.Uint64:
		return ValueTypeI64, nil
	case reflect.Float32:
		return ValueTypeF32, nil
	case reflect.Float64:
		return ValueTypeF64, nil
	}
	return 0, fmt.Errorf("unsupported kind %s", kind)
}
