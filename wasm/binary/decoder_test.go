package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/wasm"
)

// section encodes one section with a single-byte size. Test fixtures
// stay under 128 bytes so the LEB encoding is trivial.
func section(id wasm.SectionID, contents ...byte) []byte {
	if len(contents) > 127 {
		panic("test section too large for single-byte size")
	}
	return append([]byte{id, byte(len(contents))}, contents...)
}

func module(sections ...[]byte) []byte {
	ret := append([]byte{}, Magic...)
	ret = append(ret, Version...)
	for _, s := range sections {
		ret = append(ret, s...)
	}
	return ret
}

func TestDecodeModule_preamble(t *testing.T) {
	_, err := DecodeModule([]byte("\x00asm\x01\x00\x00\x00"))
	require.NoError(t, err)

	_, err = DecodeModule([]byte("not a module"))
	require.ErrorContains(t, err, "invalid magic number")

	_, err = DecodeModule([]byte("\x00asm\x02\x00\x00\x00"))
	require.ErrorContains(t, err, "unsupported version")

	_, err = DecodeModule([]byte("\x00as"))
	require.ErrorContains(t, err, "invalid magic number")
}

func TestDecodeModule_sectionStructure(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		_, err := DecodeModule(module(section(12)))
		require.ErrorContains(t, err, "unknown section id")
	})
	t.Run("out of order", func(t *testing.T) {
		src := module(
			section(wasm.SectionIDFunction, 0x00),
			section(wasm.SectionIDType, 0x00),
		)
		_, err := DecodeModule(src)
		require.ErrorContains(t, err, "type section out of order")
	})
	t.Run("duplicate section", func(t *testing.T) {
		src := module(
			section(wasm.SectionIDType, 0x00),
			section(wasm.SectionIDType, 0x00),
		)
		_, err := DecodeModule(src)
		require.ErrorContains(t, err, "out of order")
	})
	t.Run("size exceeds input", func(t *testing.T) {
		_, err := DecodeModule(module([]byte{wasm.SectionIDType, 0x7f, 0x00}))
		require.ErrorContains(t, err, "exceeds remaining input")
	})
	t.Run("size mismatch", func(t *testing.T) {
		// Declared two bytes, type count zero consumes one.
		src := module([]byte{wasm.SectionIDType, 0x02, 0x00, 0x00})
		_, err := DecodeModule(src)
		require.ErrorContains(t, err, "declared 2 bytes but held 1")
	})
	t.Run("malformed error carries offset", func(t *testing.T) {
		_, err := DecodeModule(module(section(12)))
		var me *wasm.MalformedError
		require.ErrorAs(t, err, &me)
		require.Equal(t, 9, me.Offset)
	})
}

func TestDecodeModule_typeSection(t *testing.T) {
	src := module(section(wasm.SectionIDType,
		0x02, // two types
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // (i32,i32)->i32
		0x60, 0x00, 0x00, // ()->()
	))
	m, err := DecodeModule(src)
	require.NoError(t, err)
	require.Len(t, m.TypeSection, 2)
	require.True(t, m.TypeSection[0].EqualsSignature(
		[]wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		[]wasm.ValueType{wasm.ValueTypeI32}))
	require.True(t, m.TypeSection[1].EqualsSignature(nil, nil))

	t.Run("bad form", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDType, 0x01, 0x5f, 0x00, 0x00)))
		require.ErrorContains(t, err, "invalid function type form")
	})
	t.Run("multiple results", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDType,
			0x01, 0x60, 0x00, 0x02, 0x7f, 0x7f)))
		require.ErrorContains(t, err, "at most 1")
	})
	t.Run("bad value type", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDType,
			0x01, 0x60, 0x01, 0x7b, 0x00)))
		require.ErrorContains(t, err, "invalid value type")
	})
}

func TestDecodeModule_importSection(t *testing.T) {
	src := module(
		section(wasm.SectionIDType, 0x01, 0x60, 0x00, 0x00),
		section(wasm.SectionIDImport,
			0x04,
			0x03, 'e', 'n', 'v', 0x01, 'f', 0x00, 0x00, // func type 0
			0x03, 'e', 'n', 'v', 0x01, 't', 0x01, 0x70, 0x00, 0x01, // table min 1
			0x03, 'e', 'n', 'v', 0x01, 'm', 0x02, 0x01, 0x01, 0x02, // memory 1..2
			0x03, 'e', 'n', 'v', 0x01, 'g', 0x03, 0x7f, 0x00, // immutable i32
		),
	)
	m, err := DecodeModule(src)
	require.NoError(t, err)
	require.Len(t, m.ImportSection, 4)

	require.Equal(t, wasm.ImportKindFunction, m.ImportSection[0].Kind)
	require.Equal(t, uint32(0), *m.ImportSection[0].DescFunc)

	require.Equal(t, wasm.ImportKindTable, m.ImportSection[1].Kind)
	require.Equal(t, uint32(1), m.ImportSection[1].DescTable.Limits.Min)
	require.Nil(t, m.ImportSection[1].DescTable.Limits.Max)

	require.Equal(t, wasm.ImportKindMemory, m.ImportSection[2].Kind)
	require.Equal(t, uint32(2), *m.ImportSection[2].DescMem.Max)

	require.Equal(t, wasm.ImportKindGlobal, m.ImportSection[3].Kind)
	require.False(t, m.ImportSection[3].DescGlobal.Mutable)

	t.Run("invalid kind", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDImport,
			0x01, 0x01, 'a', 0x01, 'b', 0x04, 0x00)))
		require.ErrorContains(t, err, "invalid import kind")
	})
	t.Run("name not utf8", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDImport,
			0x01, 0x01, 0xff, 0x01, 'b', 0x00, 0x00)))
		require.ErrorContains(t, err, "not valid UTF-8")
	})
}

func TestDecodeModule_limits(t *testing.T) {
	_, err := DecodeModule(module(section(wasm.SectionIDMemory, 0x01, 0x02, 0x00)))
	require.ErrorContains(t, err, "invalid limits flag")

	m, err := DecodeModule(module(section(wasm.SectionIDMemory, 0x01, 0x01, 0x01, 0x03)))
	require.NoError(t, err)
	require.Len(t, m.MemorySection, 1)
	require.Equal(t, uint32(1), m.MemorySection[0].Min)
	require.Equal(t, uint32(3), *m.MemorySection[0].Max)
}

func TestDecodeModule_exportSection(t *testing.T) {
	src := module(section(wasm.SectionIDExport,
		0x02,
		0x01, 'a', 0x00, 0x00,
		0x01, 'b', 0x02, 0x00,
	))
	m, err := DecodeModule(src)
	require.NoError(t, err)
	require.Len(t, m.ExportSection, 2)
	require.Equal(t, "a", m.ExportSection[0].Name)
	require.Equal(t, wasm.ExportKindMemory, m.ExportSection[1].Kind)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDExport,
			0x02,
			0x01, 'a', 0x00, 0x00,
			0x01, 'a', 0x01, 0x00)))
		require.ErrorContains(t, err, `duplicate export name "a"`)
	})
	t.Run("invalid kind", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDExport,
			0x01, 0x01, 'a', 0x04, 0x00)))
		require.ErrorContains(t, err, "invalid export kind")
	})
}

func TestDecodeModule_codeSection(t *testing.T) {
	src := module(
		section(wasm.SectionIDType, 0x01, 0x60, 0x00, 0x00),
		section(wasm.SectionIDFunction, 0x01, 0x00),
		section(wasm.SectionIDCode,
			0x01,
			0x06, // body size
			0x01, 0x02, 0x7f, // two i32 locals
			wasm.OpcodeNop, wasm.OpcodeNop, wasm.OpcodeEnd,
		),
	)
	m, err := DecodeModule(src)
	require.NoError(t, err)
	require.Len(t, m.CodeSection, 1)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, m.CodeSection[0].LocalTypes)
	require.Equal(t, []byte{wasm.OpcodeNop, wasm.OpcodeNop, wasm.OpcodeEnd}, m.CodeSection[0].Body)

	t.Run("no end terminator", func(t *testing.T) {
		src := module(
			section(wasm.SectionIDType, 0x01, 0x60, 0x00, 0x00),
			section(wasm.SectionIDFunction, 0x01, 0x00),
			section(wasm.SectionIDCode, 0x01, 0x02, 0x00, wasm.OpcodeNop),
		)
		_, err := DecodeModule(src)
		require.ErrorContains(t, err, "not terminated by end")
	})
	t.Run("counts must match", func(t *testing.T) {
		src := module(
			section(wasm.SectionIDType, 0x01, 0x60, 0x00, 0x00),
			section(wasm.SectionIDFunction, 0x01, 0x00),
		)
		_, err := DecodeModule(src)
		require.ErrorContains(t, err, "1 function declarations but 0 code bodies")
	})
}

func TestDecodeModule_segments(t *testing.T) {
	src := module(
		section(wasm.SectionIDTable, 0x01, 0x70, 0x00, 0x02),
		section(wasm.SectionIDMemory, 0x01, 0x00, 0x01),
		section(wasm.SectionIDGlobal,
			0x01, 0x7f, 0x01, wasm.OpcodeI32Const, 0x2a, wasm.OpcodeEnd),
		section(wasm.SectionIDElement,
			0x01, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd, 0x00),
		section(wasm.SectionIDData,
			0x01, 0x00, wasm.OpcodeI32Const, 0x08, wasm.OpcodeEnd, 0x02, 0xab, 0xcd),
	)
	m, err := DecodeModule(src)
	require.NoError(t, err)

	require.Len(t, m.GlobalSection, 1)
	require.True(t, m.GlobalSection[0].Type.Mutable)
	require.Equal(t, wasm.OpcodeI32Const, m.GlobalSection[0].Init.Opcode)
	require.Equal(t, []byte{0x2a}, m.GlobalSection[0].Init.Data)

	require.Len(t, m.ElementSection, 1)
	require.Equal(t, uint32(0), m.ElementSection[0].TableIndex)
	require.Empty(t, m.ElementSection[0].Init)

	require.Len(t, m.DataSection, 1)
	require.Equal(t, []byte{0xab, 0xcd}, m.DataSection[0].Init)
	require.Equal(t, []byte{0x08}, m.DataSection[0].Offset.Data)
}

func TestDecodeModule_constantExpression(t *testing.T) {
	t.Run("non-constant opcode", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDGlobal,
			0x01, 0x7f, 0x00, wasm.OpcodeI32Add, wasm.OpcodeEnd)))
		require.ErrorContains(t, err, "not constant")
	})
	t.Run("missing end", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDGlobal,
			0x01, 0x7f, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeNop)))
		require.ErrorContains(t, err, "not terminated by end")
	})
	t.Run("truncated f64", func(t *testing.T) {
		_, err := DecodeModule(module(section(wasm.SectionIDGlobal,
			0x01, 0x7c, 0x00, wasm.OpcodeF64Const, 0x00, 0x00)))
		require.ErrorContains(t, err, "f64 constant truncated")
	})
}

func TestDecodeModule_customAndStart(t *testing.T) {
	src := module(
		section(wasm.SectionIDCustom, 0x04, 'n', 'a', 'm', 'e', 0x01, 0x02),
		section(wasm.SectionIDType, 0x01, 0x60, 0x00, 0x00),
		section(wasm.SectionIDFunction, 0x01, 0x00),
		section(wasm.SectionIDStart, 0x00),
		section(wasm.SectionIDCode, 0x01, 0x02, 0x00, wasm.OpcodeEnd),
	)
	m, err := DecodeModule(src)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, m.CustomSections["name"])
	require.NotNil(t, m.StartSection)
	require.Equal(t, uint32(0), *m.StartSection)
}
