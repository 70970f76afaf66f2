// Package wasm holds the static module representation, the validator and
// the runtime structures produced by instantiation.
package wasm

// ValueType is the binary encoding of a value type such as i32.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the text-format name of t, or "unknown" for an
// undefined value.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// ImportKind indicates which import description is present.
type ImportKind = byte

const (
	ImportKindFunction ImportKind = 0x00
	ImportKindTable    ImportKind = 0x01
	ImportKindMemory   ImportKind = 0x02
	ImportKindGlobal   ImportKind = 0x03
)

// ExportKind indicates which index space an Export.Index points into.
type ExportKind = byte

const (
	ExportKindFunction ExportKind = 0x00
	ExportKindTable    ExportKind = 0x01
	ExportKindMemory   ExportKind = 0x02
	ExportKindGlobal   ExportKind = 0x03
)

// ExportKindName returns the text-format name of the export description.
func ExportKindName(k ExportKind) string {
	switch k {
	case ExportKindFunction:
		return "func"
	case ExportKindTable:
		return "table"
	case ExportKindMemory:
		return "memory"
	case ExportKindGlobal:
		return "global"
	}
	return "unknown"
}

// SectionID identifies one section of a module in the binary format.
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// SectionIDName returns the canonical name of a module section.
func SectionIDName(id SectionID) string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}

// RefTypeFuncref is the only table element type in WebAssembly 1.0.
const RefTypeFuncref byte = 0x70

// FunctionType is a function signature: its parameter and result types.
type FunctionType struct {
	Params, Results []ValueType
}

// EqualsSignature returns true if the receiver has exactly the given
// parameter and result types.
func (t *FunctionType) EqualsSignature(params, results []ValueType) bool {
	return valueTypesEqual(t.Params, params) && valueTypesEqual(t.Results, results)
}

// Equals returns true if both signatures have identical parameter and
// result types.
func (t *FunctionType) Equals(other *FunctionType) bool {
	return other != nil && t.EqualsSignature(other.Params, other.Results)
}

func (t *FunctionType) String() string {
	ret := ""
	if len(t.Params) == 0 {
		ret += "nil"
	}
	for i, p := range t.Params {
		if i > 0 {
			ret += ","
		}
		ret += ValueTypeName(p)
	}
	ret += "->"
	if len(t.Results) == 0 {
		ret += "nil"
	}
	for i, r := range t.Results {
		if i > 0 {
			ret += ","
		}
		ret += ValueTypeName(r)
	}
	return ret
}

func valueTypesEqual(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Limits bounds the size of a table or memory: a required minimum and an
// optional maximum.
type Limits struct {
	Min uint32
	Max *uint32
}

// TableType describes a table declaration or import: its element type and
// size limits.
type TableType struct {
	ElemType byte
	Limits   *Limits
}

// MemoryType describes a memory declaration or import. Limits are in
// units of pages (64KiB).
type MemoryType = Limits

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// PageSize is the size of one linear-memory page in bytes.
const PageSize uint32 = 65536

// MemoryMaxPages caps linear memory at 2^16 pages (4GiB), the largest
// addressable size in WebAssembly 1.0.
const MemoryMaxPages uint32 = 65536
