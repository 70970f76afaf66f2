package wasmlink

import (
	"context"

	"go.uber.org/zap"
)

// RuntimeConfig controls how NewRuntimeWithConfig assembles a Runtime.
// The With methods return an updated copy, so configs are safe to fork
// and share.
type RuntimeConfig struct {
	ctx            context.Context
	logger         *zap.Logger
	memoryCapPages uint32
	callStackDepth int
}

// NewRuntimeConfig returns the default configuration: background
// context, no-op logger, no memory cap and the engine's default call
// stack depth.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		ctx:    context.Background(),
		logger: zap.NewNop(),
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	ret := *c
	return &ret
}

// WithContext sets the context used for instantiation and for calls
// made through the runtime.
func (c *RuntimeConfig) WithContext(ctx context.Context) *RuntimeConfig {
	ret := c.clone()
	if ctx != nil {
		ret.ctx = ctx
	}
	return ret
}

// WithLogger enables structured logging in the store and engine.
func (c *RuntimeConfig) WithLogger(logger *zap.Logger) *RuntimeConfig {
	ret := c.clone()
	if logger != nil {
		ret.logger = logger
	}
	return ret
}

// WithMemoryCapPages bounds the initial size of memories modules
// allocate, regardless of their declared minimum.
func (c *RuntimeConfig) WithMemoryCapPages(pages uint32) *RuntimeConfig {
	ret := c.clone()
	ret.memoryCapPages = pages
	return ret
}

// WithCallStackDepth bounds nested call frames; exceeding the bound
// raises a call stack exhausted trap.
func (c *RuntimeConfig) WithCallStackDepth(depth int) *RuntimeConfig {
	ret := c.clone()
	ret.callStackDepth = depth
	return ret
}
