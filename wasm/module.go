package wasm

// Module is the fully decoded, static description of one WebAssembly
// binary. Field order mirrors the binary format's section order. Decoding
// performs no semantic checks; call Validate before instantiation.
type Module struct {
	TypeSection     []*FunctionType
	ImportSection   []*Import
	FunctionSection []uint32
	TableSection    []*TableType
	MemorySection   []*MemoryType
	GlobalSection   []*Global
	ExportSection   []*Export
	StartSection    *uint32
	ElementSection  []*ElementSegment
	CodeSection     []*Code
	DataSection     []*DataSegment
	CustomSections  map[string][]byte

	validated bool
}

// Import is one entry of the import section. Exactly one of the
// descriptor fields is set, selected by Kind.
type Import struct {
	Module, Name string
	Kind         ImportKind

	DescFunc   *uint32
	DescTable  *TableType
	DescMem    *MemoryType
	DescGlobal *GlobalType
}

// Export is one entry of the export section. Index points into the
// combined imported+local index space of Kind.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32
}

// Global is one entry of the global section: a type and its constant
// initializer.
type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// ElementSegment pre-populates a table's slots with function references
// at instantiation time.
type ElementSegment struct {
	TableIndex uint32
	Offset     *ConstantExpression
	Init       []uint32
}

// DataSegment pre-populates memory bytes at instantiation time.
type DataSegment struct {
	MemoryIndex uint32
	Offset      *ConstantExpression
	Init        []byte
}

// Code is one function body: its local declarations (flattened) and the
// raw instruction sequence, terminated by the end opcode.
type Code struct {
	LocalTypes []ValueType
	Body       []byte

	// Blocks maps the offset of each block/loop/if opcode in Body to its
	// structure, filled in by Validate for the instruction compiler.
	Blocks map[uint64]*Block
}

// Block is the validator's annotation of one structured control
// construct inside a function body. Offsets are indexes into Code.Body.
type Block struct {
	StartAt, ElseAt, EndAt uint64
	BlockType              *FunctionType
	BlockTypeBytes         uint64
	IsLoop                 bool
	IsIf                   bool
}

// ConstantExpression is the initializer of a global, or the offset
// expression of an element or data segment. Data holds the encoded
// immediate following Opcode.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// ImportedFunctionTypes returns the type indices of all function imports
// in declaration order.
func (m *Module) ImportedFunctionTypes() []uint32 {
	var ret []uint32
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindFunction {
			ret = append(ret, *imp.DescFunc)
		}
	}
	return ret
}

// allFunctionTypeIndices returns the combined imported+local function
// index space as type indices.
func (m *Module) allFunctionTypeIndices() []uint32 {
	return append(m.ImportedFunctionTypes(), m.FunctionSection...)
}

// allTableTypes returns the combined imported+local table index space.
func (m *Module) allTableTypes() []*TableType {
	var ret []*TableType
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindTable {
			ret = append(ret, imp.DescTable)
		}
	}
	return append(ret, m.TableSection...)
}

// allMemoryTypes returns the combined imported+local memory index space.
func (m *Module) allMemoryTypes() []*MemoryType {
	var ret []*MemoryType
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindMemory {
			ret = append(ret, imp.DescMem)
		}
	}
	return append(ret, m.MemorySection...)
}

// allGlobalTypes returns the combined imported+local global index space.
func (m *Module) allGlobalTypes() []*GlobalType {
	var ret []*GlobalType
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindGlobal {
			ret = append(ret, imp.DescGlobal)
		}
	}
	for _, g := range m.GlobalSection {
		ret = append(ret, g.Type)
	}
	return ret
}
