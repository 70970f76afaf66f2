// Package binary decodes the WebAssembly 1.0 binary format into the
// static module representation. Decoding checks structure only; index
// and type checking happen in the validator.
package binary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/wasmlink/wasmlink/wasm"
	"github.com/wasmlink/wasmlink/wasm/leb128"
)

// Magic is the 4-byte preamble of every binary module.
var Magic = []byte{0x00, 0x61, 0x73, 0x6d}

// Version is the 4-byte version field following the magic.
var Version = []byte{0x01, 0x00, 0x00, 0x00}

// maxLocals bounds the flattened local declarations of one body so a
// tiny input cannot demand a huge allocation.
const maxLocals = 1 << 20

// DecodeModule parses source into a Module. Failures return a
// *wasm.MalformedError carrying the offset at which decoding stopped.
func DecodeModule(source []byte) (*wasm.Module, error) {
	d := &decoder{source: source, r: bytes.NewReader(source)}

	preamble := make([]byte, 4)
	if _, err := io.ReadFull(d.r, preamble); err != nil || !bytes.Equal(preamble, Magic) {
		return nil, d.malformed(errors.New("invalid magic number"))
	}
	if _, err := io.ReadFull(d.r, preamble); err != nil || !bytes.Equal(preamble, Version) {
		return nil, d.malformed(errors.New("unsupported version"))
	}

	m := &wasm.Module{}
	lastID := wasm.SectionIDCustom
	for {
		id, err := d.r.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, d.malformed(err)
		}
		if id > wasm.SectionIDData {
			return nil, d.malformed(fmt.Errorf("unknown section id %d", id))
		}
		if id != wasm.SectionIDCustom {
			if id <= lastID {
				return nil, d.malformed(fmt.Errorf("%s section out of order", wasm.SectionIDName(id)))
			}
			lastID = id
		}

		size, _, err := leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read size of %s section: %w", wasm.SectionIDName(id), err))
		}
		if int(size) > d.r.Len() {
			return nil, d.malformed(fmt.Errorf("%s section size %d exceeds remaining input", wasm.SectionIDName(id), size))
		}

		start := d.pos()
		if err := d.readSection(m, id, size); err != nil {
			return nil, err
		}
		if consumed := d.pos() - start; consumed != int(size) {
			return nil, d.malformed(fmt.Errorf("%s section declared %d bytes but held %d",
				wasm.SectionIDName(id), size, consumed))
		}
	}

	if len(m.FunctionSection) != len(m.CodeSection) {
		return nil, d.malformed(fmt.Errorf("%d function declarations but %d code bodies",
			len(m.FunctionSection), len(m.CodeSection)))
	}
	return m, nil
}

type decoder struct {
	source []byte
	r      *bytes.Reader
}

func (d *decoder) pos() int {
	return int(d.r.Size()) - d.r.Len()
}

func (d *decoder) malformed(cause error) error {
	return &wasm.MalformedError{Offset: d.pos(), Cause: cause}
}

func (d *decoder) readSection(m *wasm.Module, id wasm.SectionID, size uint32) error {
	var err error
	switch id {
	case wasm.SectionIDCustom:
		err = d.readCustomSection(m, size)
	case wasm.SectionIDType:
		m.TypeSection, err = d.readTypeSection()
	case wasm.SectionIDImport:
		m.ImportSection, err = d.readImportSection()
	case wasm.SectionIDFunction:
		m.FunctionSection, err = d.readFunctionSection()
	case wasm.SectionIDTable:
		m.TableSection, err = d.readTableSection()
	case wasm.SectionIDMemory:
		m.MemorySection, err = d.readMemorySection()
	case wasm.SectionIDGlobal:
		m.GlobalSection, err = d.readGlobalSection()
	case wasm.SectionIDExport:
		m.ExportSection, err = d.readExportSection()
	case wasm.SectionIDStart:
		m.StartSection, err = d.readStartSection()
	case wasm.SectionIDElement:
		m.ElementSection, err = d.readElementSection()
	case wasm.SectionIDCode:
		m.CodeSection, err = d.readCodeSection()
	case wasm.SectionIDData:
		m.DataSection, err = d.readDataSection()
	}
	if err != nil {
		return fmt.Errorf("%s section: %w", wasm.SectionIDName(id), err)
	}
	return nil
}

// readCount reads a vector length and sanity-checks it against the
// remaining input, since every element takes at least one byte.
func (d *decoder) readCount() (uint32, error) {
	count, _, err := leb128.DecodeUint32(d.r)
	if err != nil {
		return 0, d.malformed(fmt.Errorf("read count: %w", err))
	}
	if int64(count) > int64(d.r.Len()) {
		return 0, d.malformed(fmt.Errorf("count %d exceeds remaining input", count))
	}
	return count, nil
}

func (d *decoder) readName() (string, error) {
	length, err := d.readCount()
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", d.malformed(fmt.Errorf("read name: %w", err))
	}
	if !utf8.Valid(buf) {
		return "", d.malformed(errors.New("name is not valid UTF-8"))
	}
	return string(buf), nil
}

func (d *decoder) readValueType() (wasm.ValueType, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.malformed(fmt.Errorf("read value type: %w", err))
	}
	switch b {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return b, nil
	}
	return 0, d.malformed(fmt.Errorf("invalid value type 0x%x", b))
}

func (d *decoder) readCustomSection(m *wasm.Module, size uint32) error {
	start := d.pos()
	name, err := d.readName()
	if err != nil {
		return err
	}
	nameLen := d.pos() - start
	if int(size) < nameLen {
		return d.malformed(errors.New("custom section name exceeds section size"))
	}
	payload := make([]byte, int(size)-nameLen)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return d.malformed(fmt.Errorf("read custom section %q: %w", name, err))
	}
	if m.CustomSections == nil {
		m.CustomSections = map[string][]byte{}
	}
	m.CustomSections[name] = payload
	return nil
}

func (d *decoder) readTypeSection() ([]*wasm.FunctionType, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.FunctionType, count)
	for i := range ret {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read type form: %w", err))
		}
		if b != 0x60 {
			return nil, d.malformed(fmt.Errorf("invalid function type form 0x%x", b))
		}
		ft := &wasm.FunctionType{}
		nparams, err := d.readCount()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nparams; j++ {
			vt, err := d.readValueType()
			if err != nil {
				return nil, err
			}
			ft.Params = append(ft.Params, vt)
		}
		nresults, err := d.readCount()
		if err != nil {
			return nil, err
		}
		if nresults > 1 {
			return nil, d.malformed(fmt.Errorf("function type has %d results, at most 1 allowed", nresults))
		}
		for j := uint32(0); j < nresults; j++ {
			vt, err := d.readValueType()
			if err != nil {
				return nil, err
			}
			ft.Results = append(ft.Results, vt)
		}
		ret[i] = ft
	}
	return ret, nil
}

func (d *decoder) readLimits() (*wasm.Limits, error) {
	flag, err := d.r.ReadByte()
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read limits flag: %w", err))
	}
	ret := &wasm.Limits{}
	if flag > 0x01 {
		return nil, d.malformed(fmt.Errorf("invalid limits flag 0x%x", flag))
	}
	ret.Min, _, err = leb128.DecodeUint32(d.r)
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read limits minimum: %w", err))
	}
	if flag == 0x01 {
		max, _, err := leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read limits maximum: %w", err))
		}
		ret.Max = &max
	}
	return ret, nil
}

func (d *decoder) readTableType() (*wasm.TableType, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read element type: %w", err))
	}
	if b != wasm.RefTypeFuncref {
		return nil, d.malformed(fmt.Errorf("invalid element type 0x%x", b))
	}
	limits, err := d.readLimits()
	if err != nil {
		return nil, err
	}
	return &wasm.TableType{ElemType: b, Limits: limits}, nil
}

func (d *decoder) readGlobalType() (*wasm.GlobalType, error) {
	vt, err := d.readValueType()
	if err != nil {
		return nil, err
	}
	mut, err := d.r.ReadByte()
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read mutability: %w", err))
	}
	if mut > 1 {
		return nil, d.malformed(fmt.Errorf("invalid mutability 0x%x", mut))
	}
	return &wasm.GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

func (d *decoder) readImportSection() ([]*wasm.Import, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.Import, count)
	for i := range ret {
		imp := &wasm.Import{}
		if imp.Module, err = d.readName(); err != nil {
			return nil, err
		}
		if imp.Name, err = d.readName(); err != nil {
			return nil, err
		}
		kind, err := d.r.ReadByte()
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read import kind: %w", err))
		}
		imp.Kind = kind
		switch kind {
		case wasm.ImportKindFunction:
			ti, _, err := leb128.DecodeUint32(d.r)
			if err != nil {
				return nil, d.malformed(fmt.Errorf("read type index: %w", err))
			}
			imp.DescFunc = &ti
		case wasm.ImportKindTable:
			if imp.DescTable, err = d.readTableType(); err != nil {
				return nil, err
			}
		case wasm.ImportKindMemory:
			if imp.DescMem, err = d.readLimits(); err != nil {
				return nil, err
			}
		case wasm.ImportKindGlobal:
			if imp.DescGlobal, err = d.readGlobalType(); err != nil {
				return nil, err
			}
		default:
			return nil, d.malformed(fmt.Errorf("invalid import kind 0x%x", kind))
		}
		ret[i] = imp
	}
	return ret, nil
}

func (d *decoder) readFunctionSection() ([]uint32, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]uint32, count)
	for i := range ret {
		ret[i], _, err = leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read type index: %w", err))
		}
	}
	return ret, nil
}

func (d *decoder) readTableSection() ([]*wasm.TableType, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.TableType, count)
	for i := range ret {
		if ret[i], err = d.readTableType(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (d *decoder) readMemorySection() ([]*wasm.MemoryType, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.MemoryType, count)
	for i := range ret {
		if ret[i], err = d.readLimits(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (d *decoder) readGlobalSection() ([]*wasm.Global, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.Global, count)
	for i := range ret {
		gt, err := d.readGlobalType()
		if err != nil {
			return nil, err
		}
		init, err := d.readConstantExpression()
		if err != nil {
			return nil, err
		}
		ret[i] = &wasm.Global{Type: gt, Init: init}
	}
	return ret, nil
}

func (d *decoder) readExportSection() ([]*wasm.Export, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, count)
	ret := make([]*wasm.Export, count)
	for i := range ret {
		name, err := d.readName()
		if err != nil {
			return nil, err
		}
		if _, ok := seen[name]; ok {
			return nil, d.malformed(fmt.Errorf("duplicate export name %q", name))
		}
		seen[name] = struct{}{}
		kind, err := d.r.ReadByte()
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read export kind: %w", err))
		}
		if kind > wasm.ExportKindGlobal {
			return nil, d.malformed(fmt.Errorf("invalid export kind 0x%x", kind))
		}
		index, _, err := leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read export index: %w", err))
		}
		ret[i] = &wasm.Export{Name: name, Kind: kind, Index: index}
	}
	return ret, nil
}

func (d *decoder) readStartSection() (*uint32, error) {
	index, _, err := leb128.DecodeUint32(d.r)
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read start index: %w", err))
	}
	return &index, nil
}

func (d *decoder) readElementSection() ([]*wasm.ElementSegment, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.ElementSegment, count)
	for i := range ret {
		seg := &wasm.ElementSegment{}
		seg.TableIndex, _, err = leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read table index: %w", err))
		}
		if seg.Offset, err = d.readConstantExpression(); err != nil {
			return nil, err
		}
		n, err := d.readCount()
		if err != nil {
			return nil, err
		}
		seg.Init = make([]uint32, n)
		for j := range seg.Init {
			seg.Init[j], _, err = leb128.DecodeUint32(d.r)
			if err != nil {
				return nil, d.malformed(fmt.Errorf("read function index: %w", err))
			}
		}
		ret[i] = seg
	}
	return ret, nil
}

func (d *decoder) readCodeSection() ([]*wasm.Code, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.Code, count)
	for i := range ret {
		size, _, err := leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read body size: %w", err))
		}
		if int(size) > d.r.Len() {
			return nil, d.malformed(fmt.Errorf("body size %d exceeds remaining input", size))
		}
		start := d.pos()

		code := &wasm.Code{}
		ndecls, err := d.readCount()
		if err != nil {
			return nil, err
		}
		var total uint64
		for j := uint32(0); j < ndecls; j++ {
			n, _, err := leb128.DecodeUint32(d.r)
			if err != nil {
				return nil, d.malformed(fmt.Errorf("read local count: %w", err))
			}
			vt, err := d.readValueType()
			if err != nil {
				return nil, err
			}
			total += uint64(n)
			if total > maxLocals {
				return nil, d.malformed(fmt.Errorf("too many locals: %d", total))
			}
			for k := uint32(0); k < n; k++ {
				code.LocalTypes = append(code.LocalTypes, vt)
			}
		}

		bodyLen := int(size) - (d.pos() - start)
		if bodyLen <= 0 {
			return nil, d.malformed(errors.New("empty function body"))
		}
		code.Body = make([]byte, bodyLen)
		if _, err := io.ReadFull(d.r, code.Body); err != nil {
			return nil, d.malformed(fmt.Errorf("read body: %w", err))
		}
		if code.Body[bodyLen-1] != wasm.OpcodeEnd {
			return nil, d.malformed(errors.New("function body is not terminated by end"))
		}
		ret[i] = code
	}
	return ret, nil
}

func (d *decoder) readDataSection() ([]*wasm.DataSegment, error) {
	count, err := d.readCount()
	if err != nil {
		return nil, err
	}
	ret := make([]*wasm.DataSegment, count)
	for i := range ret {
		seg := &wasm.DataSegment{}
		seg.MemoryIndex, _, err = leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, d.malformed(fmt.Errorf("read memory index: %w", err))
		}
		if seg.Offset, err = d.readConstantExpression(); err != nil {
			return nil, err
		}
		n, err := d.readCount()
		if err != nil {
			return nil, err
		}
		seg.Init = make([]byte, n)
		if _, err := io.ReadFull(d.r, seg.Init); err != nil {
			return nil, d.malformed(fmt.Errorf("read data bytes: %w", err))
		}
		ret[i] = seg
	}
	return ret, nil
}

// readConstantExpression captures the initializer opcode and its raw
// immediate bytes, checking the terminating end opcode.
func (d *decoder) readConstantExpression() (*wasm.ConstantExpression, error) {
	op, err := d.r.ReadByte()
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read constant opcode: %w", err))
	}
	start := d.pos()
	switch op {
	case wasm.OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(d.r)
	case wasm.OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(d.r)
	case wasm.OpcodeF32Const:
		if d.r.Len() < 4 {
			return nil, d.malformed(errors.New("f32 constant truncated"))
		}
		_, err = d.r.Seek(4, io.SeekCurrent)
	case wasm.OpcodeF64Const:
		if d.r.Len() < 8 {
			return nil, d.malformed(errors.New("f64 constant truncated"))
		}
		_, err = d.r.Seek(8, io.SeekCurrent)
	case wasm.OpcodeGlobalGet:
		_, _, err = leb128.DecodeUint32(d.r)
	default:
		return nil, d.malformed(fmt.Errorf("opcode 0x%x is not constant", op))
	}
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read constant immediate: %w", err))
	}
	data := d.source[start:d.pos()]
	end, err := d.r.ReadByte()
	if err != nil {
		return nil, d.malformed(fmt.Errorf("read constant terminator: %w", err))
	}
	if end != wasm.OpcodeEnd {
		return nil, d.malformed(fmt.Errorf("constant expression not terminated by end, got 0x%x", end))
	}
	return &wasm.ConstantExpression{Opcode: op, Data: data}, nil
}
