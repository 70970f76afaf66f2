package wasm

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wasmlink/wasmlink/wasm/leb128"
)

// Validate performs the semantic checks decoding skips: index-space
// bounds, constant expressions, export backing and the symbolic
// type-checking of every function body. As a side effect it annotates
// each body's block structure for the instruction compiler. Validate is
// idempotent.
func (m *Module) Validate() error {
	if m.validated {
		return nil
	}
	if len(m.FunctionSection) != len(m.CodeSection) {
		return invalidIndex("%d function declarations but %d code bodies",
			len(m.FunctionSection), len(m.CodeSection))
	}

	for i, ti := range m.FunctionSection {
		if ti >= uint32(len(m.TypeSection)) {
			return invalidIndex("function %d declares unknown type %d", i, ti)
		}
	}
	for _, imp := range m.ImportSection {
		if imp.Kind == ImportKindFunction && *imp.DescFunc >= uint32(len(m.TypeSection)) {
			return invalidIndex("import %q.%q declares unknown type %d", imp.Module, imp.Name, *imp.DescFunc)
		}
	}

	functions := m.allFunctionTypeIndices()
	tables := m.allTableTypes()
	memories := m.allMemoryTypes()
	globals := m.allGlobalTypes()

	if len(tables) > 1 {
		return invalidIndex("at most one table is allowed, got %d", len(tables))
	}
	if len(memories) > 1 {
		return invalidIndex("at most one memory is allowed, got %d", len(memories))
	}
	for _, t := range tables {
		if t.Limits.Max != nil && t.Limits.Min > *t.Limits.Max {
			return invalidIndex("table minimum %d exceeds maximum %d", t.Limits.Min, *t.Limits.Max)
		}
	}
	for _, mem := range memories {
		if mem.Min > MemoryMaxPages {
			return invalidIndex("memory minimum %d exceeds %d pages", mem.Min, MemoryMaxPages)
		}
		if mem.Max != nil {
			if *mem.Max > MemoryMaxPages {
				return invalidIndex("memory maximum %d exceeds %d pages", *mem.Max, MemoryMaxPages)
			}
			if mem.Min > *mem.Max {
				return invalidIndex("memory minimum %d exceeds maximum %d", mem.Min, *mem.Max)
			}
		}
	}

	// Constant expressions may only read globals imported before them.
	importedGlobals := globals[:len(globals)-len(m.GlobalSection)]
	for i, g := range m.GlobalSection {
		if err := validateConstExpression(importedGlobals, g.Init, g.Type.ValType); err != nil {
			return fmt.Errorf("global %d initializer: %w", i, err)
		}
	}

	for i, elem := range m.ElementSection {
		if elem.TableIndex >= uint32(len(tables)) {
			return invalidIndex("element segment %d targets unknown table %d", i, elem.TableIndex)
		}
		if err := validateConstExpression(importedGlobals, elem.Offset, ValueTypeI32); err != nil {
			return fmt.Errorf("element segment %d offset: %w", i, err)
		}
		for _, fi := range elem.Init {
			if fi >= uint32(len(functions)) {
				return invalidIndex("element segment %d references unknown function %d", i, fi)
			}
		}
	}

	for i, data := range m.DataSection {
		if data.MemoryIndex >= uint32(len(memories)) {
			return invalidIndex("data segment %d targets unknown memory %d", i, data.MemoryIndex)
		}
		if err := validateConstExpression(importedGlobals, data.Offset, ValueTypeI32); err != nil {
			return fmt.Errorf("data segment %d offset: %w", i, err)
		}
	}

	if m.StartSection != nil {
		idx := *m.StartSection
		if idx >= uint32(len(functions)) {
			return invalidIndex("start references unknown function %d", idx)
		}
		sig := m.TypeSection[functions[idx]]
		if len(sig.Params) != 0 || len(sig.Results) != 0 {
			return typeMismatch("start function must have an empty signature, got %s", sig)
		}
	}

	for _, exp := range m.ExportSection {
		var space int
		switch exp.Kind {
		case ExportKindFunction:
			space = len(functions)
		case ExportKindTable:
			space = len(tables)
		case ExportKindMemory:
			space = len(memories)
		case ExportKindGlobal:
			space = len(globals)
		}
		if exp.Index >= uint32(space) {
			return &ValidationError{Kind: InvalidExport, Message: fmt.Sprintf(
				"export %q references unknown %s %d", exp.Name, ExportKindName(exp.Kind), exp.Index)}
		}
	}

	for i, code := range m.CodeSection {
		sig := m.TypeSection[m.FunctionSection[i]]
		if err := m.validateFunctionBody(sig, code, functions, globals, memories, tables); err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
	}

	m.validated = true
	return nil
}

func invalidIndex(format string, args ...interface{}) error {
	return &ValidationError{Kind: InvalidIndex, Message: fmt.Sprintf(format, args...)}
}

func typeMismatch(format string, args ...interface{}) error {
	return &ValidationError{Kind: TypeMismatch, Message: fmt.Sprintf(format, args...)}
}

// validateConstExpression checks an initializer both for well-formed
// immediates and for producing exactly the expected type.
func validateConstExpression(importedGlobals []*GlobalType, expr *ConstantExpression, expected ValueType) error {
	var actual ValueType
	switch expr.Opcode {
	case OpcodeI32Const:
		if _, _, err := leb128.DecodeInt32(bytes.NewReader(expr.Data)); err != nil {
			return typeMismatch("malformed i32.const immediate: %v", err)
		}
		actual = ValueTypeI32
	case OpcodeI64Const:
		if _, _, err := leb128.DecodeInt64(bytes.NewReader(expr.Data)); err != nil {
			return typeMismatch("malformed i64.const immediate: %v", err)
		}
		actual = ValueTypeI64
	case OpcodeF32Const:
		if len(expr.Data) != 4 {
			return typeMismatch("malformed f32.const immediate")
		}
		actual = ValueTypeF32
	case OpcodeF64Const:
		if len(expr.Data) != 8 {
			return typeMismatch("malformed f64.const immediate")
		}
		actual = ValueTypeF64
	case OpcodeGlobalGet:
		index, _, err := leb128.DecodeUint32(bytes.NewReader(expr.Data))
		if err != nil {
			return typeMismatch("malformed global.get immediate: %v", err)
		}
		if index >= uint32(len(importedGlobals)) {
			return invalidIndex("constant expression references unknown imported global %d", index)
		}
		g := importedGlobals[index]
		if g.Mutable {
			return typeMismatch("constant expression reads mutable global %d", index)
		}
		actual = g.ValType
	default:
		return typeMismatch("opcode 0x%x is not constant", expr.Opcode)
	}
	if actual != expected {
		return typeMismatch("constant expression yields %s, expected %s",
			ValueTypeName(actual), ValueTypeName(expected))
	}
	return nil
}

// memOp describes a load or store: the natural alignment in bytes and
// the value type moved.
type memOp struct {
	align uint32
	t     ValueType
	store bool
}

var memOps = map[Opcode]memOp{
	OpcodeI32Load:    {align: 4, t: ValueTypeI32},
	OpcodeI64Load:    {align: 8, t: ValueTypeI64},
	OpcodeF32Load:    {align: 4, t: ValueTypeF32},
	OpcodeF64Load:    {align: 8, t: ValueTypeF64},
	OpcodeI32Load8S:  {align: 1, t: ValueTypeI32},
	OpcodeI32Load8U:  {align: 1, t: ValueTypeI32},
	OpcodeI32Load16S: {align: 2, t: ValueTypeI32},
	OpcodeI32Load16U: {align: 2, t: ValueTypeI32},
	OpcodeI64Load8S:  {align: 1, t: ValueTypeI64},
	OpcodeI64Load8U:  {align: 1, t: ValueTypeI64},
	OpcodeI64Load16S: {align: 2, t: ValueTypeI64},
	OpcodeI64Load16U: {align: 2, t: ValueTypeI64},
	OpcodeI64Load32S: {align: 4, t: ValueTypeI64},
	OpcodeI64Load32U: {align: 4, t: ValueTypeI64},
	OpcodeI32Store:   {align: 4, t: ValueTypeI32, store: true},
	OpcodeI64Store:   {align: 8, t: ValueTypeI64, store: true},
	OpcodeF32Store:   {align: 4, t: ValueTypeF32, store: true},
	OpcodeF64Store:   {align: 8, t: ValueTypeF64, store: true},
	OpcodeI32Store8:  {align: 1, t: ValueTypeI32, store: true},
	OpcodeI32Store16: {align: 2, t: ValueTypeI32, store: true},
	OpcodeI64Store8:  {align: 1, t: ValueTypeI64, store: true},
	OpcodeI64Store16: {align: 2, t: ValueTypeI64, store: true},
	OpcodeI64Store32: {align: 4, t: ValueTypeI64, store: true},
}

// opSig is the static stack effect of a numeric, comparison or
// conversion instruction.
type opSig struct {
	pops []ValueType
	push ValueType
}

var numericOps = map[Opcode]opSig{}

func init() {
	i32, i64, f32, f64 := ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64
	unary := func(in, out ValueType) opSig { return opSig{pops: []ValueType{in}, push: out} }
	binop := func(in, out ValueType) opSig { return opSig{pops: []ValueType{in, in}, push: out} }
	fill := func(lo, hi Opcode, sig opSig) {
		for op := lo; op <= hi; op++ {
			numericOps[op] = sig
		}
	}

	numericOps[OpcodeI32Eqz] = unary(i32, i32)
	fill(OpcodeI32Eq, OpcodeI32GeU, binop(i32, i32))
	numericOps[OpcodeI64Eqz] = unary(i64, i32)
	fill(OpcodeI64Eq, OpcodeI64GeU, binop(i64, i32))
	fill(OpcodeF32Eq, OpcodeF32Ge, binop(f32, i32))
	fill(OpcodeF64Eq, OpcodeF64Ge, binop(f64, i32))

	fill(OpcodeI32Clz, OpcodeI32Popcnt, unary(i32, i32))
	fill(OpcodeI32Add, OpcodeI32Rotr, binop(i32, i32))
	fill(OpcodeI64Clz, OpcodeI64Popcnt, unary(i64, i64))
	fill(OpcodeI64Add, OpcodeI64Rotr, binop(i64, i64))
	fill(OpcodeF32Abs, OpcodeF32Sqrt, unary(f32, f32))
	fill(OpcodeF32Add, OpcodeF32Copysign, binop(f32, f32))
	fill(OpcodeF64Abs, OpcodeF64Sqrt, unary(f64, f64))
	fill(OpcodeF64Add, OpcodeF64Copysign, binop(f64, f64))

	numericOps[OpcodeI32WrapI64] = unary(i64, i32)
	fill(OpcodeI32TruncF32S, OpcodeI32TruncF32U, unary(f32, i32))
	fill(OpcodeI32TruncF64S, OpcodeI32TruncF64U, unary(f64, i32))
	fill(OpcodeI64ExtendI32S, OpcodeI64ExtendI32U, unary(i32, i64))
	fill(OpcodeI64TruncF32S, OpcodeI64TruncF32U, unary(f32, i64))
	fill(OpcodeI64TruncF64S, OpcodeI64TruncF64U, unary(f64, i64))
	fill(OpcodeF32ConvertI32S, OpcodeF32ConvertI32U, unary(i32, f32))
	fill(OpcodeF32ConvertI64S, OpcodeF32ConvertI64U, unary(i64, f32))
	numericOps[OpcodeF32DemoteF64] = unary(f64, f32)
	fill(OpcodeF64ConvertI32S, OpcodeF64ConvertI32U, unary(i32, f64))
	fill(OpcodeF64ConvertI64S, OpcodeF64ConvertI64U, unary(i64, f64))
	numericOps[OpcodeF64PromoteF32] = unary(f32, f64)
	numericOps[OpcodeI32ReinterpretF32] = unary(f32, i32)
	numericOps[OpcodeI64ReinterpretF64] = unary(f64, i64)
	numericOps[OpcodeF32ReinterpretI32] = unary(i32, f32)
	numericOps[OpcodeF64ReinterpretI64] = unary(i64, f64)
}

// validateFunctionBody walks a body once, simulating the operand stack
// symbolically. Blocks are annotated onto code.Blocks as their end
// opcode is reached.
func (m *Module) validateFunctionBody(sig *FunctionType, code *Code,
	functions []uint32, globals []*GlobalType,
	memories []*MemoryType, tables []*TableType) error {
	body := code.Body
	code.Blocks = map[uint64]*Block{}

	// The function itself acts as the outermost label.
	labelStack := []*Block{{BlockType: sig, StartAt: math.MaxUint64}}
	stack := &typeStack{}

	localType := func(index uint32) (ValueType, error) {
		nparams := uint32(len(sig.Params))
		if index < nparams {
			return sig.Params[index], nil
		}
		if int(index-nparams) < len(code.LocalTypes) {
			return code.LocalTypes[index-nparams], nil
		}
		return 0, invalidIndex("unknown local %d", index)
	}
	labelTypes := func(depth uint32) ([]ValueType, error) {
		if int(depth) >= len(labelStack) {
			return nil, invalidIndex("branch depth %d exceeds nesting %d", depth, len(labelStack))
		}
		target := labelStack[len(labelStack)-int(depth)-1]
		if target.IsLoop {
			// A branch to a loop re-enters its header, which takes no values.
			return nil, nil
		}
		return target.BlockType.Results, nil
	}

	for pc := uint64(0); pc < uint64(len(body)); pc++ {
		op := body[pc]
		if mo, ok := memOps[op]; ok {
			if len(memories) == 0 {
				return invalidIndex("memory instruction 0x%x without a memory", op)
			}
			align, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
			if err != nil {
				return typeMismatch("read alignment of 0x%x: %v", op, err)
			}
			if align > 31 || uint32(1)<<align > mo.align {
				return typeMismatch("alignment 2^%d of 0x%x exceeds natural alignment %d", align, op, mo.align)
			}
			pc += num
			_, num, err = leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
			if err != nil {
				return typeMismatch("read offset of 0x%x: %v", op, err)
			}
			pc += num
			if mo.store {
				if err := stack.popAndCheck(mo.t); err != nil {
					return err
				}
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return err
				}
			} else {
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return err
				}
				stack.push(mo.t)
			}
		} else if sg, ok := numericOps[op]; ok {
			for range sg.pops {
				if err := stack.popAndCheck(sg.pops[0]); err != nil {
					return fmt.Errorf("operand of 0x%x: %w", op, err)
				}
			}
			stack.push(sg.push)
		} else {
			switch op {
			case OpcodeUnreachable:
				stack.markUnreachable()
			case OpcodeNop:
			case OpcodeBlock, OpcodeLoop, OpcodeIf:
				bt, num, err := m.readBlockType(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return err
				}
				if op == OpcodeIf {
					if err := stack.popAndCheck(ValueTypeI32); err != nil {
						return fmt.Errorf("if condition: %w", err)
					}
				}
				labelStack = append(labelStack, &Block{
					StartAt:        pc,
					BlockType:      bt,
					BlockTypeBytes: num,
					IsLoop:         op == OpcodeLoop,
					IsIf:           op == OpcodeIf,
				})
				stack.pushLimit()
				pc += num
			case OpcodeElse:
				bl := labelStack[len(labelStack)-1]
				if !bl.IsIf {
					return typeMismatch("else outside of if")
				}
				bl.ElseAt = pc
				if err := stack.requireResults(bl.BlockType.Results, true); err != nil {
					return fmt.Errorf("then arm: %w", err)
				}
				// The else arm starts from the same stack the then arm did.
				stack.resetToLimit()
			case OpcodeEnd:
				bl := labelStack[len(labelStack)-1]
				labelStack = labelStack[:len(labelStack)-1]
				bl.EndAt = pc
				code.Blocks[bl.StartAt] = bl
				if bl.IsIf && bl.ElseAt <= bl.StartAt {
					if len(bl.BlockType.Results) > 0 {
						return typeMismatch("if with results has no else arm")
					}
					// An if without else jumps straight to end on false.
					bl.ElseAt = bl.EndAt - 1
				}
				if err := stack.requireResults(bl.BlockType.Results, true); err != nil {
					return fmt.Errorf("at end of block: %w", err)
				}
				stack.resetToLimit()
				for _, t := range bl.BlockType.Results {
					stack.push(t)
				}
				stack.popLimit()
			case OpcodeBr:
				depth, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read br depth: %v", err)
				}
				pc += num
				types, err := labelTypes(depth)
				if err != nil {
					return err
				}
				if err := stack.requireResults(types, false); err != nil {
					return fmt.Errorf("br operands: %w", err)
				}
				stack.markUnreachable()
			case OpcodeBrIf:
				depth, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read br_if depth: %v", err)
				}
				pc += num
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return fmt.Errorf("br_if condition: %w", err)
				}
				types, err := labelTypes(depth)
				if err != nil {
					return err
				}
				if err := stack.requireResults(types, false); err != nil {
					return fmt.Errorf("br_if operands: %w", err)
				}
				for _, t := range types {
					stack.push(t)
				}
			case OpcodeBrTable:
				r := bytes.NewReader(body[pc+1:])
				count, num, err := leb128.DecodeUint32(r)
				if err != nil {
					return typeMismatch("read br_table count: %v", err)
				}
				targets := make([]uint32, count)
				for i := range targets {
					depth, n, err := leb128.DecodeUint32(r)
					if err != nil {
						return typeMismatch("read br_table target: %v", err)
					}
					num += n
					targets[i] = depth
				}
				def, n, err := leb128.DecodeUint32(r)
				if err != nil {
					return typeMismatch("read br_table default: %v", err)
				}
				pc += num + n
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return fmt.Errorf("br_table index: %w", err)
				}
				expected, err := labelTypes(def)
				if err != nil {
					return err
				}
				for _, depth := range targets {
					types, err := labelTypes(depth)
					if err != nil {
						return err
					}
					if !valueTypesEqual(types, expected) {
						return typeMismatch("br_table targets disagree on arity")
					}
				}
				if err := stack.requireResults(expected, false); err != nil {
					return fmt.Errorf("br_table operands: %w", err)
				}
				stack.markUnreachable()
			case OpcodeReturn:
				for i := len(sig.Results) - 1; i >= 0; i-- {
					if err := stack.popAndCheck(sig.Results[i]); err != nil {
						return fmt.Errorf("return operands: %w", err)
					}
				}
				stack.markUnreachable()
			case OpcodeCall:
				index, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read call target: %v", err)
				}
				pc += num
				if index >= uint32(len(functions)) {
					return invalidIndex("call references unknown function %d", index)
				}
				ft := m.TypeSection[functions[index]]
				for i := len(ft.Params) - 1; i >= 0; i-- {
					if err := stack.popAndCheck(ft.Params[i]); err != nil {
						return fmt.Errorf("call arguments: %w", err)
					}
				}
				for _, t := range ft.Results {
					stack.push(t)
				}
			case OpcodeCallIndirect:
				typeIndex, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read call_indirect type: %v", err)
				}
				pc += num + 1
				if pc >= uint64(len(body)) || body[pc] != 0x00 {
					return typeMismatch("call_indirect reserved byte must be zero")
				}
				if len(tables) == 0 {
					return invalidIndex("call_indirect without a table")
				}
				if typeIndex >= uint32(len(m.TypeSection)) {
					return invalidIndex("call_indirect references unknown type %d", typeIndex)
				}
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return fmt.Errorf("call_indirect slot index: %w", err)
				}
				ft := m.TypeSection[typeIndex]
				for i := len(ft.Params) - 1; i >= 0; i-- {
					if err := stack.popAndCheck(ft.Params[i]); err != nil {
						return fmt.Errorf("call_indirect arguments: %w", err)
					}
				}
				for _, t := range ft.Results {
					stack.push(t)
				}
			case OpcodeDrop:
				if _, err := stack.pop(); err != nil {
					return fmt.Errorf("drop: %w", err)
				}
			case OpcodeSelect:
				if err := stack.popAndCheck(ValueTypeI32); err != nil {
					return fmt.Errorf("select condition: %w", err)
				}
				v1, err := stack.pop()
				if err != nil {
					return fmt.Errorf("select: %w", err)
				}
				v2, err := stack.pop()
				if err != nil {
					return fmt.Errorf("select: %w", err)
				}
				if v1 != v2 && v1 != typeUnknown && v2 != typeUnknown {
					return typeMismatch("select operands differ: %s vs %s", ValueTypeName(v1), ValueTypeName(v2))
				}
				if v1 == typeUnknown {
					stack.push(v2)
				} else {
					stack.push(v1)
				}
			case OpcodeLocalGet:
				index, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read local.get index: %v", err)
				}
				pc += num
				t, err := localType(index)
				if err != nil {
					return err
				}
				stack.push(t)
			case OpcodeLocalSet, OpcodeLocalTee:
				index, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read local index: %v", err)
				}
				pc += num
				t, err := localType(index)
				if err != nil {
					return err
				}
				if err := stack.popAndCheck(t); err != nil {
					return fmt.Errorf("local write: %w", err)
				}
				if op == OpcodeLocalTee {
					stack.push(t)
				}
			case OpcodeGlobalGet:
				index, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read global.get index: %v", err)
				}
				pc += num
				if index >= uint32(len(globals)) {
					return invalidIndex("unknown global %d", index)
				}
				stack.push(globals[index].ValType)
			case OpcodeGlobalSet:
				index, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read global.set index: %v", err)
				}
				pc += num
				if index >= uint32(len(globals)) {
					return invalidIndex("unknown global %d", index)
				}
				if !globals[index].Mutable {
					return typeMismatch("global.set on immutable global %d", index)
				}
				if err := stack.popAndCheck(globals[index].ValType); err != nil {
					return fmt.Errorf("global.set: %w", err)
				}
			case OpcodeMemorySize, OpcodeMemoryGrow:
				if len(memories) == 0 {
					return invalidIndex("memory instruction 0x%x without a memory", op)
				}
				reserved, num, err := leb128.DecodeUint32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read memory reserved byte: %v", err)
				}
				if reserved != 0 || num != 1 {
					return typeMismatch("memory instruction reserved byte must be zero")
				}
				pc += num
				if op == OpcodeMemoryGrow {
					if err := stack.popAndCheck(ValueTypeI32); err != nil {
						return fmt.Errorf("memory.grow: %w", err)
					}
				}
				stack.push(ValueTypeI32)
			case OpcodeI32Const:
				_, num, err := leb128.DecodeInt32(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read i32.const: %v", err)
				}
				pc += num
				stack.push(ValueTypeI32)
			case OpcodeI64Const:
				_, num, err := leb128.DecodeInt64(bytes.NewReader(body[pc+1:]))
				if err != nil {
					return typeMismatch("read i64.const: %v", err)
				}
				pc += num
				stack.push(ValueTypeI64)
			case OpcodeF32Const:
				pc += 4
				stack.push(ValueTypeF32)
			case OpcodeF64Const:
				pc += 8
				stack.push(ValueTypeF64)
			default:
				return typeMismatch("invalid instruction 0x%x", op)
			}
		}
	}

	if len(labelStack) > 0 {
		return typeMismatch("unclosed block")
	}
	return nil
}

// readBlockType decodes a block type immediate: void or exactly one
// value type. Type-index block types belong to the multi-value
// extension and are rejected.
func (m *Module) readBlockType(r *bytes.Reader) (*FunctionType, uint64, error) {
	raw, num, err := leb128.DecodeInt33AsInt64(r)
	if err != nil {
		return nil, 0, typeMismatch("read block type: %v", err)
	}
	switch raw {
	case -64: // 0x40
		return &FunctionType{}, num, nil
	case -1: // 0x7f
		return &FunctionType{Results: []ValueType{ValueTypeI32}}, num, nil
	case -2: // 0x7e
		return &FunctionType{Results: []ValueType{ValueTypeI64}}, num, nil
	case -3: // 0x7d
		return &FunctionType{Results: []ValueType{ValueTypeF32}}, num, nil
	case -4: // 0x7c
		return &FunctionType{Results: []ValueType{ValueTypeF64}}, num, nil
	default:
		return nil, 0, typeMismatch("invalid block type %d", raw)
	}
}

// typeUnknown is the polymorphic stack entry pushed after an
// unconditional transfer; it unifies with every value type.
const typeUnknown = ValueType(0xff)

// typeStack simulates the operand stack during validation. Limits mark
// the stack height at block entry; pops never cross the current limit.
type typeStack struct {
	stack  []ValueType
	limits []int
}

func (s *typeStack) push(v ValueType) {
	s.stack = append(s.stack, v)
}

func (s *typeStack) pop() (ValueType, error) {
	limit := 0
	if len(s.limits) > 0 {
		limit = s.limits[len(s.limits)-1]
	}
	if len(s.stack) <= limit {
		return 0, typeMismatch("operand stack underflow")
	}
	if len(s.stack) == limit+1 && s.stack[limit] == typeUnknown {
		return typeUnknown, nil
	}
	ret := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return ret, nil
}

func (s *typeStack) popAndCheck(expected ValueType) error {
	actual, err := s.pop()
	if err != nil {
		return err
	}
	if actual != expected && actual != typeUnknown && expected != typeUnknown {
		return typeMismatch("expected %s but stack has %s",
			ValueTypeName(expected), ValueTypeName(actual))
	}
	return nil
}

// markUnreachable makes the rest of the current block stack-polymorphic.
func (s *typeStack) markUnreachable() {
	s.resetToLimit()
	s.stack = append(s.stack, typeUnknown)
}

func (s *typeStack) resetToLimit() {
	if len(s.limits) > 0 {
		s.stack = s.stack[:s.limits[len(s.limits)-1]]
	} else {
		s.stack = s.stack[:0]
	}
}

func (s *typeStack) pushLimit() {
	s.limits = append(s.limits, len(s.stack))
}

func (s *typeStack) popLimit() {
	if len(s.limits) > 0 {
		s.limits = s.limits[:len(s.limits)-1]
	}
}

// requireResults pops the expected result types. With exact set, the
// stack must then be empty down to the current limit.
func (s *typeStack) requireResults(expected []ValueType, exact bool) error {
	limit := 0
	if len(s.limits) > 0 {
		limit = s.limits[len(s.limits)-1]
	}
	for i := len(expected) - 1; i >= 0; i-- {
		if err := s.popAndCheck(expected[i]); err != nil {
			return err
		}
	}
	if exact {
		if !(limit == len(s.stack) || (limit+1 == len(s.stack) && s.stack[limit] == typeUnknown)) {
			return typeMismatch("values left on the stack at block end")
		}
	}
	return nil
}
