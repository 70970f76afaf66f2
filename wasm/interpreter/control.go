package interpreter

import (
	"bytes"

	"github.com/wasmlink/wasmlink/wasm"
	"github.com/wasmlink/wasmlink/wasm/leb128"
)

func unreachable(ce *callEngine) {
	panic(wasm.NewTrap(wasm.TrapUnreachableExecuted))
}

func nop(ce *callEngine) {
	ce.active.pc++
}

func block(ce *callEngine) {
	fr := ce.active
	bl := fr.f.Blocks[fr.pc]
	fr.pc += bl.BlockTypeBytes
	fr.labels.push(&label{
		arity:          len(bl.BlockType.Results),
		continuationPC: bl.EndAt + 1,
		operandSP:      ce.operands.sp,
	})
	fr.pc++
}

func loop(ce *callEngine) {
	fr := ce.active
	bl := fr.f.Blocks[fr.pc]
	fr.pc += bl.BlockTypeBytes
	// A branch to a loop label restarts the loop with no values.
	fr.labels.push(&label{
		arity:          0,
		continuationPC: bl.StartAt,
		operandSP:      ce.operands.sp,
	})
	fr.pc++
}

func ifOp(ce *callEngine) {
	fr := ce.active
	bl := fr.f.Blocks[fr.pc]
	fr.pc += bl.BlockTypeBytes
	cond := ce.operands.pop()
	if cond == 0 {
		fr.pc = bl.ElseAt
	}
	fr.labels.push(&label{
		arity:          len(bl.BlockType.Results),
		continuationPC: bl.EndAt + 1,
		operandSP:      ce.operands.sp,
	})
	fr.pc++
}

// elseOp only executes when the then arm ran; it jumps over the else
// arm to the block's continuation.
func elseOp(ce *callEngine) {
	l := ce.active.labels.pop()
	ce.active.pc = l.continuationPC
}

func end(ce *callEngine) {
	ce.active.labels.pop()
	ce.active.pc++
}

// returnOp unwinds the frame: the results stay on top, anything else
// the body left above the frame's base is discarded.
func returnOp(ce *callEngine) {
	fr := ce.active
	arity := len(fr.f.Signature.Results)
	carried := make([]uint64, arity)
	for i := arity - 1; i >= 0; i-- {
		carried[i] = ce.operands.pop()
	}
	ce.operands.sp = fr.base
	for _, v := range carried {
		ce.operands.push(v)
	}
	ce.popFrame()
}

func br(ce *callEngine) {
	ce.active.pc++
	depth := ce.fetchUint32()
	brAt(ce, depth)
}

func brIf(ce *callEngine) {
	ce.active.pc++
	depth := ce.fetchUint32()
	if ce.operands.pop() != 0 {
		brAt(ce, depth)
	} else {
		ce.active.pc++
	}
}

// brAt transfers to the label depth levels up: carry the label's arity
// worth of values, unwind the operand stack beneath them and jump.
func brAt(ce *callEngine, depth uint32) {
	var l *label
	for i := uint32(0); i <= depth; i++ {
		l = ce.active.labels.pop()
	}
	carried := make([]uint64, l.arity)
	for i := l.arity - 1; i >= 0; i-- {
		carried[i] = ce.operands.pop()
	}
	ce.operands.sp = l.operandSP
	for _, v := range carried {
		ce.operands.push(v)
	}
	ce.active.pc = l.continuationPC
}

func brTable(ce *callEngine) {
	ce.active.pc++
	r := bytes.NewReader(ce.active.f.Body[ce.active.pc:])
	count, num, err := leb128.DecodeUint32(r)
	if err != nil {
		panic(err)
	}
	targets := make([]uint32, count)
	for i := range targets {
		t, n, err := leb128.DecodeUint32(r)
		if err != nil {
			panic(err)
		}
		num += n
		targets[i] = t
	}
	def, n, err := leb128.DecodeUint32(r)
	if err != nil {
		panic(err)
	}
	ce.active.pc += num + n

	i := uint32(ce.operands.pop())
	if i < count {
		brAt(ce, targets[i])
	} else {
		brAt(ce, def)
	}
}

func call(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	target := ce.active.f.Instance.Functions[index]
	callIn(ce, target)
}

func callIndirect(ce *callEngine) {
	instance := ce.active.f.Instance

	ce.active.pc++
	typeIndex := ce.fetchUint32()
	expected := instance.Types[typeIndex]
	ce.active.pc++ // reserved table index byte

	table := instance.Tables[0]
	slot := uint32(ce.operands.pop())
	if slot >= table.Len() {
		panic(wasm.NewTrap(wasm.TrapOutOfBoundsTableAccess))
	}
	target := table.Table[slot]
	if target == nil {
		panic(wasm.NewTrap(wasm.TrapUninitializedTableEntry))
	}
	if !target.Signature.Equals(expected) {
		panic(wasm.NewTrap(wasm.TrapIndirectCallTypeMismatch))
	}
	callIn(ce, target)
}

func callIn(ce *callEngine, target *wasm.FunctionInstance) {
	ce.active.pc++ // move past the call instruction before transferring
	if target.IsHost() {
		ce.callHost(target)
		return
	}
	ce.pushFrame(newFrame(target, ce.operands))
}

func drop(ce *callEngine) {
	ce.operands.drop()
	ce.active.pc++
}

func selectOp(ce *callEngine) {
	cond := ce.operands.pop()
	v2 := ce.operands.pop()
	if cond == 0 {
		ce.operands.drop()
		ce.operands.push(v2)
	}
	ce.active.pc++
}

func localGet(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	ce.operands.push(ce.active.locals[index])
	ce.active.pc++
}

func localSet(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	ce.active.locals[index] = ce.operands.pop()
	ce.active.pc++
}

func localTee(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	ce.active.locals[index] = ce.operands.stack[ce.operands.sp]
	ce.active.pc++
}

func globalGet(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	ce.operands.push(ce.active.f.Instance.Globals[index].Val)
	ce.active.pc++
}

func globalSet(ce *callEngine) {
	ce.active.pc++
	index := ce.fetchUint32()
	ce.active.f.Instance.Globals[index].Val = ce.operands.pop()
	ce.active.pc++
}

func i32Const(ce *callEngine) {
	ce.active.pc++
	v := ce.fetchInt32()
	ce.operands.push(uint64(uint32(v)))
	ce.active.pc++
}

func i64Const(ce *callEngine) {
	ce.active.pc++
	v := ce.fetchInt64()
	ce.operands.push(uint64(v))
	ce.active.pc++
}

func f32Const(ce *callEngine) {
	ce.active.pc++
	v := ce.fetchFloat32()
	ce.operands.pushFloat32(v)
	ce.active.pc++
}

func f64Const(ce *callEngine) {
	ce.active.pc++
	v := ce.fetchFloat64()
	ce.operands.pushFloat64(v)
	ce.active.pc++
}
