package wasm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEngine satisfies Engine without executing anything, so store
// behavior can be tested in isolation.
type fakeEngine struct {
	compiled []*FunctionInstance
	called   []*FunctionInstance
	callErr  error
}

func (e *fakeEngine) Compile(f *FunctionInstance) error {
	e.compiled = append(e.compiled, f)
	return nil
}

func (e *fakeEngine) Call(ctx context.Context, f *FunctionInstance, args ...uint64) ([]uint64, error) {
	e.called = append(e.called, f)
	return nil, e.callErr
}

func TestInstantiate_localAllocation(t *testing.T) {
	engine := &fakeEngine{}
	s := NewStore(engine)

	max := uint32(4)
	m := &Module{
		TypeSection:     []*FunctionType{{}},
		FunctionSection: []uint32{0},
		TableSection:    []*TableType{{ElemType: RefTypeFuncref, Limits: &Limits{Min: 2, Max: &max}}},
		MemorySection:   []*MemoryType{{Min: 1}},
		GlobalSection: []*Global{{
			Type: &GlobalType{ValType: ValueTypeI32, Mutable: true},
			Init: i32const(42),
		}},
		ExportSection: []*Export{
			{Name: "f", Kind: ExportKindFunction, Index: 0},
			{Name: "t", Kind: ExportKindTable, Index: 0},
			{Name: "m", Kind: ExportKindMemory, Index: 0},
			{Name: "g", Kind: ExportKindGlobal, Index: 0},
		},
		CodeSection: []*Code{{Body: []byte{OpcodeEnd}}},
	}

	instance, err := s.Instantiate(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, engine.compiled, 1)

	f, err := instance.Function("f")
	require.NoError(t, err)
	require.Same(t, instance, f.Instance)

	tab, err := instance.Table("t")
	require.NoError(t, err)
	require.Equal(t, uint32(2), tab.Len())

	mem, err := instance.MemoryExport("m")
	require.NoError(t, err)
	require.Equal(t, uint32(1), mem.PageSize())

	g, err := instance.Global("g")
	require.NoError(t, err)
	require.Equal(t, uint64(42), g.Get())
}

func TestInstantiate_linkErrors(t *testing.T) {
	requireLinkError := func(t *testing.T, err error, kind LinkErrorKind) {
		t.Helper()
		var le *LinkError
		require.ErrorAs(t, err, &le)
		require.Equal(t, kind, le.Kind)
	}
	s := NewStore(&fakeEngine{})
	ctx := context.Background()

	t.Run("unresolved import", func(t *testing.T) {
		ti := uint32(0)
		m := &Module{
			TypeSection:   []*FunctionType{{}},
			ImportSection: []*Import{{Module: "env", Name: "f", Kind: ImportKindFunction, DescFunc: &ti}},
		}
		_, err := s.Instantiate(ctx, m, NewImportMap())
		requireLinkError(t, err, UnresolvedImport)
		require.ErrorContains(t, err, `"env"."f"`)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		ti := uint32(0)
		m := &Module{
			TypeSection:   []*FunctionType{{}},
			ImportSection: []*Import{{Module: "env", Name: "f", Kind: ImportKindFunction, DescFunc: &ti}},
		}
		im := NewImportMap()
		mem, _ := NewMemory(1, nil)
		require.NoError(t, im.AddMemory("env", "f", mem))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportKindMismatch)
	})

	t.Run("function signature mismatch", func(t *testing.T) {
		ti := uint32(0)
		m := &Module{
			TypeSection:   []*FunctionType{{Results: []ValueType{ValueTypeI32}}},
			ImportSection: []*Import{{Module: "env", Name: "f", Kind: ImportKindFunction, DescFunc: &ti}},
		}
		im := NewImportMap()
		require.NoError(t, im.AddFunction("env", "f", func() {}))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportSignatureMismatch)
	})

	t.Run("table too small", func(t *testing.T) {
		m := &Module{
			ImportSection: []*Import{{Module: "env", Name: "t", Kind: ImportKindTable,
				DescTable: &TableType{ElemType: RefTypeFuncref, Limits: &Limits{Min: 3}}}},
		}
		im := NewImportMap()
		tab, _ := NewTable(2, nil)
		require.NoError(t, im.AddTable("env", "t", tab))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportLimitsMismatch)
	})

	t.Run("table maximum unbounded but required", func(t *testing.T) {
		max := uint32(4)
		m := &Module{
			ImportSection: []*Import{{Module: "env", Name: "t", Kind: ImportKindTable,
				DescTable: &TableType{ElemType: RefTypeFuncref, Limits: &Limits{Min: 1, Max: &max}}}},
		}
		im := NewImportMap()
		tab, _ := NewTable(2, nil) // no maximum, could grow past 4
		require.NoError(t, im.AddTable("env", "t", tab))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportLimitsMismatch)
	})

	t.Run("memory too small", func(t *testing.T) {
		m := &Module{
			ImportSection: []*Import{{Module: "env", Name: "m", Kind: ImportKindMemory,
				DescMem: &MemoryType{Min: 2}}},
		}
		im := NewImportMap()
		mem, _ := NewMemory(1, nil)
		require.NoError(t, im.AddMemory("env", "m", mem))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportLimitsMismatch)
	})

	t.Run("global type mismatch", func(t *testing.T) {
		m := &Module{
			ImportSection: []*Import{{Module: "env", Name: "g", Kind: ImportKindGlobal,
				DescGlobal: &GlobalType{ValType: ValueTypeI32}}},
		}
		im := NewImportMap()
		require.NoError(t, im.AddGlobal("env", "g", NewGlobal(&GlobalType{ValType: ValueTypeI64}, 0)))
		_, err := s.Instantiate(ctx, m, im)
		requireLinkError(t, err, ImportSignatureMismatch)
	})
}

func TestInstantiate_importedEntitiesShared(t *testing.T) {
	s := NewStore(&fakeEngine{})

	tab, err := NewTable(2, nil)
	require.NoError(t, err)
	im := NewImportMap()
	require.NoError(t, im.AddTable("env", "t", tab))

	m := &Module{
		ImportSection: []*Import{{Module: "env", Name: "t", Kind: ImportKindTable,
			DescTable: &TableType{ElemType: RefTypeFuncref, Limits: &Limits{Min: 1}}}},
		ExportSection: []*Export{{Name: "t2", Kind: ExportKindTable, Index: 0}},
	}
	instance, err := s.Instantiate(context.Background(), m, im)
	require.NoError(t, err)

	// Re-exporting an imported table exposes the same object, not a copy.
	got, err := instance.Table("t2")
	require.NoError(t, err)
	require.Same(t, tab, got)
}

func TestInstantiate_globalInitFromImport(t *testing.T) {
	s := NewStore(&fakeEngine{})
	im := NewImportMap()
	require.NoError(t, im.AddGlobal("env", "base", NewGlobal(&GlobalType{ValType: ValueTypeI32}, 100)))

	m := &Module{
		ImportSection: []*Import{{Module: "env", Name: "base", Kind: ImportKindGlobal,
			DescGlobal: &GlobalType{ValType: ValueTypeI32}}},
		GlobalSection: []*Global{{
			Type: &GlobalType{ValType: ValueTypeI32},
			Init: &ConstantExpression{Opcode: OpcodeGlobalGet, Data: []byte{0x00}},
		}},
		ExportSection: []*Export{{Name: "derived", Kind: ExportKindGlobal, Index: 1}},
	}
	instance, err := s.Instantiate(context.Background(), m, im)
	require.NoError(t, err)

	g, err := instance.Global("derived")
	require.NoError(t, err)
	require.Equal(t, uint64(100), g.Get())
}

func TestInstantiate_elementSegments(t *testing.T) {
	ti := uint32(0)
	newModule := func(segments ...*ElementSegment) *Module {
		return &Module{
			TypeSection: []*FunctionType{{}},
			ImportSection: []*Import{
				{Module: "env", Name: "t", Kind: ImportKindTable,
					DescTable: &TableType{ElemType: RefTypeFuncref, Limits: &Limits{Min: 2}}},
				{Module: "env", Name: "f", Kind: ImportKindFunction, DescFunc: &ti},
			},
			ElementSection: segments,
		}
	}

	t.Run("populates slots", func(t *testing.T) {
		s := NewStore(&fakeEngine{})
		tab, _ := NewTable(2, nil)
		im := NewImportMap()
		require.NoError(t, im.AddTable("env", "t", tab))
		require.NoError(t, im.AddFunction("env", "f", func() {}))

		_, err := s.Instantiate(context.Background(),
			newModule(&ElementSegment{Offset: i32const(1), Init: []uint32{0}}), im)
		require.NoError(t, err)

		got, err := tab.Get(1)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.True(t, got.IsHost())
	})

	t.Run("out of bounds rolls back earlier writes", func(t *testing.T) {
		s := NewStore(&fakeEngine{})
		tab, _ := NewTable(2, nil)
		sentinel := &FunctionInstance{Name: "sentinel"}
		require.NoError(t, tab.Set(0, sentinel))

		im := NewImportMap()
		require.NoError(t, im.AddTable("env", "t", tab))
		require.NoError(t, im.AddFunction("env", "f", func() {}))

		_, err := s.Instantiate(context.Background(), newModule(
			&ElementSegment{Offset: i32const(0), Init: []uint32{0}},
			&ElementSegment{Offset: i32const(3), Init: []uint32{0}},
		), im)
		var trap *Trap
		require.ErrorAs(t, err, &trap)
		require.Equal(t, TrapOutOfBoundsTableAccess, trap.Kind)

		// The first segment's write to slot 0 was undone.
		got, err := tab.Get(0)
		require.NoError(t, err)
		require.Same(t, sentinel, got)
	})
}

func TestInstantiate_dataSegments(t *testing.T) {
	newModule := func(segments ...*DataSegment) *Module {
		return &Module{
			ImportSection: []*Import{{Module: "env", Name: "m", Kind: ImportKindMemory,
				DescMem: &MemoryType{Min: 1}}},
			DataSection: segments,
		}
	}

	t.Run("copies bytes", func(t *testing.T) {
		s := NewStore(&fakeEngine{})
		mem, _ := NewMemory(1, nil)
		im := NewImportMap()
		require.NoError(t, im.AddMemory("env", "m", mem))

		_, err := s.Instantiate(context.Background(),
			newModule(&DataSegment{Offset: i32const(8), Init: []byte{0xab, 0xcd}}), im)
		require.NoError(t, err)

		b, ok := mem.ReadBytes(8, 2)
		require.True(t, ok)
		require.Equal(t, []byte{0xab, 0xcd}, b)
	})

	t.Run("out of bounds rolls back earlier writes", func(t *testing.T) {
		s := NewStore(&fakeEngine{})
		mem, _ := NewMemory(1, nil)
		require.True(t, mem.WriteByteAt(0, 0x11))
		im := NewImportMap()
		require.NoError(t, im.AddMemory("env", "m", mem))

		huge := &ConstantExpression{Opcode: OpcodeI32Const, Data: []byte{0xff, 0xff, 0xff, 0xff, 0x07}}
		_, err := s.Instantiate(context.Background(), newModule(
			&DataSegment{Offset: i32const(0), Init: []byte{0x99}},
			&DataSegment{Offset: huge, Init: []byte{0x99}},
		), im)
		var trap *Trap
		require.ErrorAs(t, err, &trap)
		require.Equal(t, TrapOutOfBoundsMemoryAccess, trap.Kind)

		b, ok := mem.ReadByteAt(0)
		require.True(t, ok)
		require.Equal(t, byte(0x11), b)
	})
}

func TestInstantiate_startFunction(t *testing.T) {
	idx := uint32(0)
	newModule := func() *Module {
		return &Module{
			TypeSection:     []*FunctionType{{}},
			FunctionSection: []uint32{0},
			CodeSection:     []*Code{{Body: []byte{OpcodeEnd}}},
			StartSection:    &idx,
		}
	}

	t.Run("runs after linking", func(t *testing.T) {
		engine := &fakeEngine{}
		s := NewStore(engine)
		_, err := s.Instantiate(context.Background(), newModule(), nil)
		require.NoError(t, err)
		require.Len(t, engine.called, 1)
	})

	t.Run("failure aborts instantiation and rolls back", func(t *testing.T) {
		engine := &fakeEngine{callErr: errors.New("boom")}
		s := NewStore(engine)

		mem, _ := NewMemory(1, nil)
		im := NewImportMap()
		require.NoError(t, im.AddMemory("env", "m", mem))

		m := newModule()
		m.ImportSection = []*Import{{Module: "env", Name: "m", Kind: ImportKindMemory,
			DescMem: &MemoryType{Min: 1}}}
		m.DataSection = []*DataSegment{{Offset: i32const(0), Init: []byte{0x77}}}

		_, err := s.Instantiate(context.Background(), m, im)
		require.ErrorContains(t, err, "start function: boom")

		b, ok := mem.ReadByteAt(0)
		require.True(t, ok)
		require.Zero(t, b)
	})
}

func TestInstantiate_missingBackingStorage(t *testing.T) {
	// A module can only reach buildExports with a dangling index if
	// validation was bypassed, e.g. by a hand-built module.
	m := &Module{
		ExportSection: []*Export{{Name: "m", Kind: ExportKindMemory, Index: 0}},
		validated:     true,
	}
	s := NewStore(&fakeEngine{})
	_, err := s.Instantiate(context.Background(), m, nil)
	var le *LinkError
	require.ErrorAs(t, err, &le)
	require.Equal(t, MissingBackingStorage, le.Kind)
}

func TestInstantiate_memoryCap(t *testing.T) {
	s := NewStore(&fakeEngine{}, WithMemoryCapPages(1))
	m := &Module{MemorySection: []*MemoryType{{Min: 2}}}
	_, err := s.Instantiate(context.Background(), m, nil)
	require.ErrorContains(t, err, "store caps at 1")

	m2 := &Module{MemorySection: []*MemoryType{{Min: 1}}}
	_, err = s.Instantiate(context.Background(), m2, nil)
	require.NoError(t, err)
}
