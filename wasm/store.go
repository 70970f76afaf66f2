package wasm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink/wasm/leb128"
)

// Store drives instantiation: it resolves imports, allocates runtime
// state, compiles functions through its engine and assembles the
// resulting Instance.
type Store struct {
	engine         Engine
	logger         *zap.Logger
	memoryCapPages uint32
}

// StoreOption adjusts a Store at construction time.
type StoreOption func(*Store)

// WithLogger replaces the no-op default logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMemoryCapPages bounds the initial size of locally allocated
// memories, independent of what modules declare. Zero means no cap.
func WithMemoryCapPages(pages uint32) StoreOption {
	return func(s *Store) { s.memoryCapPages = pages }
}

// NewStore creates a Store executing functions on the given engine.
func NewStore(engine Engine, opts ...StoreOption) *Store {
	s := &Store{engine: engine, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Instantiate links module against imports and returns a running
// Instance. It is all-or-nothing: on any failure, writes already made
// to imported tables and memories are undone and no Instance escapes.
//
// The steps run in a fixed order: import resolution, local allocation,
// function compilation, element application, data application, export
// assembly, then the start function.
func (s *Store) Instantiate(ctx context.Context, module *Module, imports *ImportMap) (*Instance, error) {
	if err := module.Validate(); err != nil {
		return nil, err
	}

	instance := &Instance{
		Exports: map[string]*ExportInstance{},
		Types:   module.TypeSection,
		engine:  s.engine,
	}

	var rollbackFuncs []func()
	defer func() {
		for i := len(rollbackFuncs) - 1; i >= 0; i-- {
			rollbackFuncs[i]()
		}
	}()

	if err := s.resolveImports(module, imports, instance); err != nil {
		return nil, err
	}
	importedGlobals := len(instance.Globals)

	for i, g := range module.GlobalSection {
		val, err := executeConstExpression(instance.Globals[:importedGlobals], g.Init)
		if err != nil {
			return nil, fmt.Errorf("global %d initializer: %w", i, err)
		}
		instance.Globals = append(instance.Globals, NewGlobal(g.Type, val))
	}

	for i, tt := range module.TableSection {
		table, err := NewTable(tt.Limits.Min, tt.Limits.Max)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		instance.Tables = append(instance.Tables, table)
	}

	for i, mt := range module.MemorySection {
		if s.memoryCapPages != 0 && mt.Min > s.memoryCapPages {
			return nil, fmt.Errorf("memory %d requires %d pages, store caps at %d", i, mt.Min, s.memoryCapPages)
		}
		mem, err := NewMemory(mt.Min, mt.Max)
		if err != nil {
			return nil, fmt.Errorf("memory %d: %w", i, err)
		}
		instance.Memory = mem
	}

	for i, ti := range module.FunctionSection {
		code := module.CodeSection[i]
		f := &FunctionInstance{
			Name:       fmt.Sprintf("function[%d]", len(instance.Functions)),
			Signature:  module.TypeSection[ti],
			Body:       code.Body,
			LocalTypes: code.LocalTypes,
			Blocks:     code.Blocks,
			Instance:   instance,
		}
		instance.Functions = append(instance.Functions, f)
		if err := s.engine.Compile(f); err != nil {
			return nil, fmt.Errorf("compile function %d: %w", i, err)
		}
	}

	undo, err := applyElementSegments(module, instance, importedGlobals)
	rollbackFuncs = append(rollbackFuncs, undo...)
	if err != nil {
		return nil, err
	}

	undo, err = applyDataSegments(module, instance, importedGlobals)
	rollbackFuncs = append(rollbackFuncs, undo...)
	if err != nil {
		return nil, err
	}

	if err := buildExports(module, instance); err != nil {
		return nil, err
	}

	if module.StartSection != nil {
		f := instance.Functions[*module.StartSection]
		if _, err := s.engine.Call(ctx, f); err != nil {
			return nil, fmt.Errorf("start function: %w", err)
		}
	}

	s.logger.Debug("instantiated module",
		zap.Int("functions", len(instance.Functions)),
		zap.Int("globals", len(instance.Globals)),
		zap.Int("exports", len(instance.Exports)))

	rollbackFuncs = nil
	return instance, nil
}

// resolveImports fills the instance's index spaces from the bindings,
// in declaration order, checking kind, signature and limits.
func (s *Store) resolveImports(module *Module, imports *ImportMap, instance *Instance) error {
	for _, imp := range module.ImportSection {
		b, ok := imports.resolve(imp.Module, imp.Name)
		if !ok {
			return &LinkError{Kind: UnresolvedImport, Module: imp.Module, Field: imp.Name,
				Message: "no binding registered"}
		}
		if b.kind != imp.Kind {
			return &LinkError{Kind: ImportKindMismatch, Module: imp.Module, Field: imp.Name,
				Message: fmt.Sprintf("want %s, binding is %s",
					ExportKindName(imp.Kind), ExportKindName(b.kind))}
		}
		switch imp.Kind {
		case ImportKindFunction:
			declared := module.TypeSection[*imp.DescFunc]
			if !b.function.Signature.Equals(declared) {
				return &LinkError{Kind: ImportSignatureMismatch, Module: imp.Module, Field: imp.Name,
					Message: fmt.Sprintf("want %s, binding is %s", declared, b.function.Signature)}
			}
			instance.Functions = append(instance.Functions, b.function)
		case ImportKindTable:
			required := imp.DescTable.Limits
			table := b.table
			if table.Len() < required.Min {
				return &LinkError{Kind: ImportLimitsMismatch, Module: imp.Module, Field: imp.Name,
					Message: fmt.Sprintf("table has %d slots, at least %d required", table.Len(), required.Min)}
			}
			if required.Max != nil && (table.Max == nil || *table.Max > *required.Max) {
				return &LinkError{Kind: ImportLimitsMismatch, Module: imp.Module, Field: imp.Name,
					Message: fmt.Sprintf("table maximum must be at most %d", *required.Max)}
			}
			instance.Tables = append(instance.Tables, table)
		case ImportKindMemory:
			required := imp.DescMem
			mem := b.memory
			if mem.PageSize() < required.Min {
				return &LinkError{Kind: ImportLimitsMismatch, Module: imp.Module, Field: imp.Name,
					Message: fmt.Sprintf("memory has %d pages, at least %d required", mem.PageSize(), required.Min)}
			}
			if required.Max != nil && (mem.Max == nil || *mem.Max > *required.Max) {
				return &LinkError{Kind: ImportLimitsMismatch, Module: imp.Module, Field: imp.Name,
					Message: fmt.Sprintf("memory maximum must be at most %d", *required.Max)}
			}
			instance.Memory = mem
		case ImportKindGlobal:
			required := imp.DescGlobal
			g := b.global
			if g.Type.ValType != required.ValType || g.Type.Mutable != required.Mutable {
				return &LinkError{Kind: ImportSignatureMismatch, Module: imp.Module, Field: imp.Name,
					Message: "global type mismatch"}
			}
			instance.Globals = append(instance.Globals, g)
		}
	}
	return nil
}

// applyElementSegments writes function references into tables. Undo
// closures restoring the previous slots are returned even on error so
// earlier segments roll back too.
func applyElementSegments(module *Module, instance *Instance, importedGlobals int) ([]func(), error) {
	var undo []func()
	for i, elem := range module.ElementSection {
		raw, err := executeConstExpression(instance.Globals[:importedGlobals], elem.Offset)
		if err != nil {
			return undo, fmt.Errorf("element segment %d offset: %w", i, err)
		}
		offset := uint32(raw)
		table := instance.Tables[elem.TableIndex]
		if uint64(offset)+uint64(len(elem.Init)) > uint64(table.Len()) {
			return undo, fmt.Errorf("element segment %d: %w", i, NewTrap(TrapOutOfBoundsTableAccess))
		}
		prev := make([]*FunctionInstance, len(elem.Init))
		copy(prev, table.Table[offset:])
		undo = append(undo, func() { copy(table.Table[offset:], prev) })
		for j, fi := range elem.Init {
			table.Table[offset+uint32(j)] = instance.Functions[fi]
		}
	}
	return undo, nil
}

// applyDataSegments writes initializer bytes into memory.
func applyDataSegments(module *Module, instance *Instance, importedGlobals int) ([]func(), error) {
	var undo []func()
	for i, data := range module.DataSection {
		raw, err := executeConstExpression(instance.Globals[:importedGlobals], data.Offset)
		if err != nil {
			return undo, fmt.Errorf("data segment %d offset: %w", i, err)
		}
		offset := uint32(raw)
		mem := instance.Memory
		if mem == nil || !mem.hasLen(offset, uint32(len(data.Init))) {
			return undo, fmt.Errorf("data segment %d: %w", i, NewTrap(TrapOutOfBoundsMemoryAccess))
		}
		prev := make([]byte, len(data.Init))
		copy(prev, mem.Buffer[offset:])
		undo = append(undo, func() { copy(mem.Buffer[offset:], prev) })
		copy(mem.Buffer[offset:], data.Init)
	}
	return undo, nil
}

// buildExports assembles the name surface. Every export must resolve
// to allocated or imported storage of its declared kind; this runs
// before the start function so a failing module never executes.
func buildExports(module *Module, instance *Instance) error {
	for _, exp := range module.ExportSection {
		ei := &ExportInstance{Kind: exp.Kind}
		missing := func() error {
			return &LinkError{Kind: MissingBackingStorage,
				Message: fmt.Sprintf("export %q references %s %d with no backing storage",
					exp.Name, ExportKindName(exp.Kind), exp.Index)}
		}
		switch exp.Kind {
		case ExportKindFunction:
			if int(exp.Index) >= len(instance.Functions) {
				return missing()
			}
			ei.Function = instance.Functions[exp.Index]
		case ExportKindTable:
			if int(exp.Index) >= len(instance.Tables) {
				return missing()
			}
			ei.Table = instance.Tables[exp.Index]
		case ExportKindMemory:
			if exp.Index != 0 || instance.Memory == nil {
				return missing()
			}
			ei.Memory = instance.Memory
		case ExportKindGlobal:
			if int(exp.Index) >= len(instance.Globals) {
				return missing()
			}
			ei.Global = instance.Globals[exp.Index]
		}
		instance.Exports[exp.Name] = ei
	}
	return nil
}

// executeConstExpression evaluates an initializer to its raw 64-bit
// value. Validation has already checked types and indices.
func executeConstExpression(importedGlobals []*GlobalInstance, expr *ConstantExpression) (uint64, error) {
	switch expr.Opcode {
	case OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(bytes.NewReader(expr.Data))
		if err != nil {
			return 0, fmt.Errorf("read i32.const: %w", err)
		}
		return uint64(uint32(v)), nil
	case OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(bytes.NewReader(expr.Data))
		if err != nil {
			return 0, fmt.Errorf("read i64.const: %w", err)
		}
		return uint64(v), nil
	case OpcodeF32Const:
		if len(expr.Data) != 4 {
			return 0, fmt.Errorf("f32.const needs 4 bytes")
		}
		return uint64(binary.LittleEndian.Uint32(expr.Data)), nil
	case OpcodeF64Const:
		if len(expr.Data) != 8 {
			return 0, fmt.Errorf("f64.const needs 8 bytes")
		}
		return binary.LittleEndian.Uint64(expr.Data), nil
	case OpcodeGlobalGet:
		index, _, err := leb128.DecodeUint32(bytes.NewReader(expr.Data))
		if err != nil {
			return 0, fmt.Errorf("read global.get: %w", err)
		}
		if int(index) >= len(importedGlobals) {
			return 0, fmt.Errorf("constant expression references unknown global %d", index)
		}
		return importedGlobals[index].Get(), nil
	}
	return 0, fmt.Errorf("opcode 0x%x is not constant", expr.Opcode)
}
