package interpreter

import (
	"math"

	"github.com/wasmlink/wasmlink/wasm"
)

const initialOperandStackHeight = 1024

type operandStack struct {
	stack []uint64
	sp    int // index of the top element, -1 when empty
}

func newOperandStack() *operandStack {
	return &operandStack{stack: make([]uint64, initialOperandStackHeight), sp: -1}
}

func (s *operandStack) push(v uint64) {
	if s.sp+1 == len(s.stack) {
		s.stack = append(s.stack, v)
	} else {
		s.stack[s.sp+1] = v
	}
	s.sp++
}

func (s *operandStack) pushBool(b bool) {
	if b {
		s.push(1)
	} else {
		s.push(0)
	}
}

func (s *operandStack) pop() uint64 {
	ret := s.stack[s.sp]
	s.sp--
	return ret
}

func (s *operandStack) drop() {
	s.sp--
}

// Floats travel the stack as their IEEE-754 bit patterns; f32 uses the
// low 32 bits.

func (s *operandStack) pushFloat32(v float32) {
	s.push(uint64(math.Float32bits(v)))
}

func (s *operandStack) popFloat32() float32 {
	return math.Float32frombits(uint32(s.pop()))
}

func (s *operandStack) pushFloat64(v float64) {
	s.push(math.Float64bits(v))
}

func (s *operandStack) popFloat64() float64 {
	return math.Float64frombits(s.pop())
}

// label is one entry of a frame's control stack: where a branch to it
// continues, how many values it transfers, and the operand stack
// height to unwind to.
type label struct {
	arity          int
	continuationPC uint64
	operandSP      int
}

type labelStack struct {
	stack []*label
}

func (s *labelStack) push(l *label) {
	s.stack = append(s.stack, l)
}

func (s *labelStack) pop() *label {
	ret := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return ret
}

// frame is one function activation. base is the operand stack height
// at entry, after the arguments were consumed; unwinding never crosses
// it into the caller's operands.
type frame struct {
	pc     uint64
	f      *wasm.FunctionInstance
	locals []uint64
	base   int
	labels *labelStack
}

type frameStack struct {
	stack []*frame
	limit int
}

func (s *frameStack) push(fr *frame) {
	if len(s.stack) >= s.limit {
		panic(wasm.NewTrap(wasm.TrapStackOverflow))
	}
	s.stack = append(s.stack, fr)
}

func (s *frameStack) pop() *frame {
	ret := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return ret
}

func (s *frameStack) peek() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}
