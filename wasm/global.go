package wasm

import "fmt"

// GlobalInstance is a runtime global variable. Val holds the value in
// its raw 64-bit representation regardless of type; floats are stored
// as their IEEE-754 bit patterns.
type GlobalInstance struct {
	Type *GlobalType
	Val  uint64
}

// NewGlobal creates a global of the given type holding val.
func NewGlobal(t *GlobalType, val uint64) *GlobalInstance {
	return &GlobalInstance{Type: t, Val: val}
}

// Get returns the current value in its raw representation.
func (g *GlobalInstance) Get() uint64 {
	return g.Val
}

// Set replaces the value. Writing an immutable global fails.
func (g *GlobalInstance) Set(val uint64) error {
	if !g.Type.Mutable {
		return fmt.Errorf("global of type %s is immutable", ValueTypeName(g.Type.ValType))
	}
	g.Val = val
	return nil
}
