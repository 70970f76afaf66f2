package wasm

import "fmt"

// TableInstance is a runtime table of function references. A nil entry
// is an empty slot. Imported tables are shared by pointer, so writes
// through one instance are visible to every module holding it.
type TableInstance struct {
	Table    []*FunctionInstance
	ElemType byte
	Min      uint32
	Max      *uint32
}

// NewTable creates a funcref table with the given initial length and
// optional maximum. All slots start empty.
func NewTable(initial uint32, max *uint32) (*TableInstance, error) {
	if max != nil && initial > *max {
		return nil, fmt.Errorf("table initial size %d exceeds maximum %d", initial, *max)
	}
	return &TableInstance{
		Table:    make([]*FunctionInstance, initial),
		ElemType: RefTypeFuncref,
		Min:      initial,
		Max:      max,
	}, nil
}

// Len returns the current number of slots.
func (t *TableInstance) Len() uint32 {
	return uint32(len(t.Table))
}

// Get returns the function at slot i, or nil when the slot is empty.
// Out-of-range access fails with an out of bounds table access trap.
func (t *TableInstance) Get(i uint32) (*FunctionInstance, error) {
	if i >= t.Len() {
		return nil, NewTrap(TrapOutOfBoundsTableAccess)
	}
	return t.Table[i], nil
}

// Set stores f into slot i. A nil f empties the slot. No signature
// check happens here; call_indirect checks at call time.
func (t *TableInstance) Set(i uint32, f *FunctionInstance) error {
	if i >= t.Len() {
		return NewTrap(TrapOutOfBoundsTableAccess)
	}
	t.Table[i] = f
	return nil
}

// Grow appends delta empty slots. When the result would exceed the
// table's maximum the length is left unchanged and an error returned.
func (t *TableInstance) Grow(delta uint32) error {
	newLen := uint64(t.Len()) + uint64(delta)
	if t.Max != nil && newLen > uint64(*t.Max) {
		return fmt.Errorf("table grow to %d slots exceeds maximum %d", newLen, *t.Max)
	}
	t.Table = append(t.Table, make([]*FunctionInstance, delta)...)
	return nil
}
