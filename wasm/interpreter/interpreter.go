// Package interpreter executes validated function bodies by walking
// their instruction stream directly over a uint64 operand stack.
package interpreter

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wasmlink/wasmlink/wasm"
	"github.com/wasmlink/wasmlink/wasm/leb128"
)

const defaultCallStackLimit = 1024

// Option adjusts the engine at construction time.
type Option func(*engine)

// WithLogger enables debug tracing of executed opcodes. The default is
// a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCallStackLimit bounds the number of nested frames; exceeding it
// raises a call stack exhausted trap.
func WithCallStackLimit(n int) Option {
	return func(e *engine) {
		if n > 0 {
			e.callStackLimit = n
		}
	}
}

type engine struct {
	logger         *zap.Logger
	callStackLimit int

	mu       sync.RWMutex
	compiled map[*wasm.FunctionInstance]struct{}
}

var _ wasm.Engine = (*engine)(nil)

// NewEngine returns an interpreting wasm.Engine.
func NewEngine(opts ...Option) wasm.Engine {
	e := &engine{
		logger:         zap.NewNop(),
		callStackLimit: defaultCallStackLimit,
		compiled:       map[*wasm.FunctionInstance]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile prepares f for execution. For module functions the
// terminating end opcode is rewritten into return so the outermost
// frame pops like any other; the validator's block annotations must be
// present. Host functions only get their signature checked.
func (e *engine) Compile(f *wasm.FunctionInstance) error {
	if f.IsHost() {
		if err := checkHostFunc(f.GoFunc.Type()); err != nil {
			return fmt.Errorf("host function %s: %w", f.Name, err)
		}
	} else {
		if f.Blocks == nil {
			return fmt.Errorf("function %s has not been validated", f.Name)
		}
		if len(f.Body) == 0 {
			return fmt.Errorf("function %s has an empty body", f.Name)
		}
		f.Body[len(f.Body)-1] = wasm.OpcodeReturn
	}
	e.mu.Lock()
	e.compiled[f] = struct{}{}
	e.mu.Unlock()
	return nil
}

var callContextType = reflect.TypeOf((*wasm.CallContext)(nil))

func checkHostFunc(tp reflect.Type) error {
	for i := 0; i < tp.NumIn(); i++ {
		if i == 0 && tp.In(0) == callContextType {
			continue
		}
		switch tp.In(i).Kind() {
		case reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			return fmt.Errorf("unsupported parameter kind %s", tp.In(i).Kind())
		}
	}
	for i := 0; i < tp.NumOut(); i++ {
		switch tp.Out(i).Kind() {
		case reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			return fmt.Errorf("unsupported result kind %s", tp.Out(i).Kind())
		}
	}
	return nil
}

// Call invokes f. Each invocation runs on its own operand and frame
// stacks, so instances sharing this engine may call concurrently as
// long as they do not share mutable state.
func (e *engine) Call(ctx context.Context, f *wasm.FunctionInstance, args ...uint64) (results []uint64, err error) {
	e.mu.RLock()
	_, ok := e.compiled[f]
	e.mu.RUnlock()
	if !ok {
		// Imported functions may have been compiled by another store.
		if err := e.Compile(f); err != nil {
			return nil, err
		}
	}
	if len(args) != len(f.Signature.Params) {
		return nil, fmt.Errorf("expected %d arguments but got %d", len(f.Signature.Params), len(args))
	}

	ce := &callEngine{
		engine:   e,
		ctx:      ctx,
		operands: newOperandStack(),
		frames:   &frameStack{limit: e.callStackLimit},
		trace:    e.logger.Core().Enabled(zapcore.DebugLevel),
	}

	defer func() {
		if v := recover(); v != nil {
			if trap, isTrap := v.(*wasm.Trap); isTrap {
				results, err = nil, trap
			} else if perr, isErr := v.(error); isErr {
				results, err = nil, perr
			} else {
				panic(v)
			}
		}
	}()

	for _, arg := range args {
		ce.operands.push(arg)
	}
	ce.invoke(f)

	results = make([]uint64, len(f.Signature.Results))
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = ce.operands.pop()
	}
	return results, nil
}

// callEngine is the per-invocation execution state.
type callEngine struct {
	engine   *engine
	ctx      context.Context
	operands *operandStack
	frames   *frameStack
	active   *frame
	trace    bool
}

func (ce *callEngine) invoke(f *wasm.FunctionInstance) {
	if f.IsHost() {
		ce.callHost(f)
		return
	}
	ce.pushFrame(newFrame(f, ce.operands))
	for ce.active != nil {
		op := ce.active.f.Body[ce.active.pc]
		if ce.trace {
			ce.engine.logger.Debug("exec",
				zap.String("function", ce.active.f.Name),
				zap.Uint64("pc", ce.active.pc),
				zap.Uint8("opcode", op))
		}
		dispatch[op](ce)
	}
}

// newFrame pops the arguments off the operand stack into locals and
// sets up the function-level label.
func newFrame(f *wasm.FunctionInstance, operands *operandStack) *frame {
	nargs := len(f.Signature.Params)
	locals := make([]uint64, nargs+len(f.LocalTypes))
	for i := nargs - 1; i >= 0; i-- {
		locals[i] = operands.pop()
	}
	fr := &frame{f: f, locals: locals, base: operands.sp, labels: &labelStack{}}
	fr.labels.push(&label{
		arity:          len(f.Signature.Results),
		continuationPC: uint64(len(f.Body)) - 1, // the rewritten return
		operandSP:      operands.sp,
	})
	return fr
}

func (ce *callEngine) pushFrame(fr *frame) {
	ce.frames.push(fr)
	ce.active = fr
}

func (ce *callEngine) popFrame() {
	ce.frames.pop()
	ce.active = ce.frames.peek()
}

// callHost marshals operands into reflect values, invokes the Go
// function and pushes its results back. The host frame is pushed only
// for depth accounting.
func (ce *callEngine) callHost(f *wasm.FunctionInstance) {
	tp := f.GoFunc.Type()
	start := 0
	if tp.NumIn() > 0 && tp.In(0) == callContextType {
		start = 1
	}
	in := make([]reflect.Value, tp.NumIn())
	for i := tp.NumIn() - 1; i >= start; i-- {
		raw := ce.operands.pop()
		val := reflect.New(tp.In(i)).Elem()
		switch tp.In(i).Kind() {
		case reflect.Float32:
			val.SetFloat(float64(math.Float32frombits(uint32(raw))))
		case reflect.Float64:
			val.SetFloat(math.Float64frombits(raw))
		case reflect.Uint32, reflect.Uint64:
			val.SetUint(raw)
		case reflect.Int32:
			val.SetInt(int64(int32(uint32(raw))))
		case reflect.Int64:
			val.SetInt(int64(raw))
		}
		in[i] = val
	}
	if start == 1 {
		var mem *wasm.MemoryInstance
		if ce.active != nil {
			mem = ce.active.f.Instance.Memory
		}
		in[0] = reflect.ValueOf(wasm.NewCallContext(ce.ctx, mem))
	}

	ce.frames.push(&frame{f: f})
	for _, ret := range f.GoFunc.Call(in) {
		switch ret.Kind() {
		case reflect.Float32:
			ce.operands.push(uint64(math.Float32bits(float32(ret.Float()))))
		case reflect.Float64:
			ce.operands.push(math.Float64bits(ret.Float()))
		case reflect.Uint32, reflect.Uint64:
			ce.operands.push(ret.Uint())
		case reflect.Int32:
			ce.operands.push(uint64(uint32(int32(ret.Int()))))
		case reflect.Int64:
			ce.operands.push(uint64(ret.Int()))
		}
	}
	ce.frames.pop()
}

// Immediate fetchers. They leave pc on the last byte of the immediate;
// the handler's final pc++ moves past it. Errors cannot happen on
// validated bodies.

func (ce *callEngine) fetchUint32() uint32 {
	ret, num, err := leb128.DecodeUint32(bytes.NewReader(ce.active.f.Body[ce.active.pc:]))
	if err != nil {
		panic(err)
	}
	ce.active.pc += num - 1
	return ret
}

func (ce *callEngine) fetchInt32() int32 {
	ret, num, err := leb128.DecodeInt32(bytes.NewReader(ce.active.f.Body[ce.active.pc:]))
	if err != nil {
		panic(err)
	}
	ce.active.pc += num - 1
	return ret
}

func (ce *callEngine) fetchInt64() int64 {
	ret, num, err := leb128.DecodeInt64(bytes.NewReader(ce.active.f.Body[ce.active.pc:]))
	if err != nil {
		panic(err)
	}
	ce.active.pc += num - 1
	return ret
}

func (ce *callEngine) fetchFloat32() float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(ce.active.f.Body[ce.active.pc:]))
	ce.active.pc += 3
	return v
}

func (ce *callEngine) fetchFloat64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(ce.active.f.Body[ce.active.pc:]))
	ce.active.pc += 7
	return v
}
