package wasm

import "context"

// Engine turns validated function bodies into callable units and
// executes them.
type Engine interface {
	// Compile prepares f for execution. It is called once per function
	// during instantiation, after validation.
	Compile(f *FunctionInstance) error
	// Call invokes a compiled function with args in their raw 64-bit
	// representation, returning results the same way. Traps surface as
	// a *Trap error.
	Call(ctx context.Context, f *FunctionInstance, args ...uint64) ([]uint64, error)
}

// CallContext is handed to host functions that declare *CallContext as
// their first parameter. It carries the invocation context and the
// calling module's memory.
type CallContext struct {
	ctx    context.Context
	memory *MemoryInstance
}

// NewCallContext builds the context passed to a host function. Engines
// call this; hosts only consume it.
func NewCallContext(ctx context.Context, memory *MemoryInstance) *CallContext {
	return &CallContext{ctx: ctx, memory: memory}
}

// Context returns the context of the invocation.
func (c *CallContext) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Memory returns the calling module's memory, or nil when it has none.
func (c *CallContext) Memory() *MemoryInstance {
	return c.memory
}
