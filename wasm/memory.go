package wasm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MemoryInstance is a runtime linear memory. Buffer always holds a
// whole number of pages. Like tables, imported memories are shared by
// pointer rather than copied.
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
	Max    *uint32
}

// NewMemory creates a zeroed memory of min pages with an optional
// maximum in pages.
func NewMemory(min uint32, max *uint32) (*MemoryInstance, error) {
	if min > MemoryMaxPages {
		return nil, fmt.Errorf("memory initial size %d exceeds %d pages", min, MemoryMaxPages)
	}
	if max != nil && min > *max {
		return nil, fmt.Errorf("memory initial size %d exceeds maximum %d", min, *max)
	}
	return &MemoryInstance{
		Buffer: make([]byte, uint64(min)*uint64(PageSize)),
		Min:    min,
		Max:    max,
	}, nil
}

// PageSize returns the current size in pages.
func (m *MemoryInstance) PageSize() uint32 {
	return uint32(uint64(len(m.Buffer)) / uint64(PageSize))
}

// Len returns the current size in bytes.
func (m *MemoryInstance) Len() uint32 {
	return uint32(len(m.Buffer))
}

// Grow appends delta zeroed pages and returns the previous size in
// pages, or false when the result would exceed the maximum.
func (m *MemoryInstance) Grow(delta uint32) (uint32, bool) {
	prev := m.PageSize()
	newPages := uint64(prev) + uint64(delta)
	max := uint64(MemoryMaxPages)
	if m.Max != nil && uint64(*m.Max) < max {
		max = uint64(*m.Max)
	}
	if newPages > max {
		return 0, false
	}
	m.Buffer = append(m.Buffer, make([]byte, uint64(delta)*uint64(PageSize))...)
	return prev, true
}

// hasLen returns true if [offset, offset+length) lies inside the
// buffer. The sum is computed in uint64 so it cannot wrap.
func (m *MemoryInstance) hasLen(offset uint32, length uint32) bool {
	return uint64(offset)+uint64(length) <= uint64(len(m.Buffer))
}

// ReadBytes returns a copy of length bytes at offset, or false on an
// out-of-range access.
func (m *MemoryInstance) ReadBytes(offset, length uint32) ([]byte, bool) {
	if !m.hasLen(offset, length) {
		return nil, false
	}
	ret := make([]byte, length)
	copy(ret, m.Buffer[offset:])
	return ret, true
}

// ReadByteAt returns the byte at offset, or false on an out-of-range
// access.
func (m *MemoryInstance) ReadByteAt(offset uint32) (byte, bool) {
	if !m.hasLen(offset, 1) {
		return 0, false
	}
	return m.Buffer[offset], true
}

// ReadUint32Le reads a little-endian uint32 at offset.
func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.hasLen(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Buffer[offset:]), true
}

// ReadUint64Le reads a little-endian uint64 at offset.
func (m *MemoryInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.hasLen(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Buffer[offset:]), true
}

// ReadFloat32Le reads a little-endian float32 at offset.
func (m *MemoryInstance) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(v), true
}

// ReadFloat64Le reads a little-endian float64 at offset.
func (m *MemoryInstance) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(v), true
}

// WriteBytes copies b into memory at offset, or returns false on an
// out-of-range access.
func (m *MemoryInstance) WriteBytes(offset uint32, b []byte) bool {
	if !m.hasLen(offset, uint32(len(b))) {
		return false
	}
	copy(m.Buffer[offset:], b)
	return true
}

// WriteByteAt writes one byte at offset.
func (m *MemoryInstance) WriteByteAt(offset uint32, v byte) bool {
	if !m.hasLen(offset, 1) {
		return false
	}
	m.Buffer[offset] = v
	return true
}

// WriteUint32Le writes a little-endian uint32 at offset.
func (m *MemoryInstance) WriteUint32Le(offset uint32, v uint32) bool {
	if !m.hasLen(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Buffer[offset:], v)
	return true
}

// WriteUint64Le writes a little-endian uint64 at offset.
func (m *MemoryInstance) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.hasLen(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Buffer[offset:], v)
	return true
}

// WriteFloat32Le writes a little-endian float32 at offset.
func (m *MemoryInstance) WriteFloat32Le(offset uint32, v float32) bool {
	return m.WriteUint32Le(offset, math.Float32bits(v))
}

// WriteFloat64Le writes a little-endian float64 at offset.
func (m *MemoryInstance) WriteFloat64Le(offset uint32, v float64) bool {
	return m.WriteUint64Le(offset, math.Float64bits(v))
}
