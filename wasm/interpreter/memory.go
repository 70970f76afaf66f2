package interpreter

import (
	"encoding/binary"
	"math"

	"github.com/wasmlink/wasmlink/wasm"
)

// memoryAccess fetches the align and offset immediates, pops the base
// address and bounds-checks the full width. Any byte out of range
// traps; accesses never clamp. Returns the effective address.
func (ce *callEngine) memoryAccess(width uint64) uint64 {
	ce.active.pc++
	_ = ce.fetchUint32() // alignment hint, checked by the validator
	ce.active.pc++
	offset := uint64(ce.fetchUint32())
	ce.active.pc++
	base := uint64(uint32(ce.operands.pop()))
	eff := base + offset
	mem := ce.active.f.Instance.Memory
	if mem == nil || eff+width > uint64(len(mem.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess))
	}
	return eff
}

// memoryStoreAccess is memoryAccess for stores, where the value to
// store sits above the base address on the stack.
func (ce *callEngine) memoryStoreAccess(width uint64) (uint64, uint64) {
	ce.active.pc++
	_ = ce.fetchUint32()
	ce.active.pc++
	offset := uint64(ce.fetchUint32())
	ce.active.pc++
	value := ce.operands.pop()
	base := uint64(uint32(ce.operands.pop()))
	eff := base + offset
	mem := ce.active.f.Instance.Memory
	if mem == nil || eff+width > uint64(len(mem.Buffer)) {
		panic(wasm.NewTrap(wasm.TrapOutOfBoundsMemoryAccess))
	}
	return eff, value
}

func (ce *callEngine) memory() *wasm.MemoryInstance {
	return ce.active.f.Instance.Memory
}

func i32Load(ce *callEngine) {
	eff := ce.memoryAccess(4)
	ce.operands.push(uint64(binary.LittleEndian.Uint32(ce.memory().Buffer[eff:])))
}

func i64Load(ce *callEngine) {
	eff := ce.memoryAccess(8)
	ce.operands.push(binary.LittleEndian.Uint64(ce.memory().Buffer[eff:]))
}

func f32Load(ce *callEngine) {
	eff := ce.memoryAccess(4)
	ce.operands.push(uint64(binary.LittleEndian.Uint32(ce.memory().Buffer[eff:])))
}

func f64Load(ce *callEngine) {
	eff := ce.memoryAccess(8)
	ce.operands.push(binary.LittleEndian.Uint64(ce.memory().Buffer[eff:]))
}

func i32Load8S(ce *callEngine) {
	eff := ce.memoryAccess(1)
	ce.operands.push(uint64(uint32(int32(int8(ce.memory().Buffer[eff])))))
}

func i32Load8U(ce *callEngine) {
	eff := ce.memoryAccess(1)
	ce.operands.push(uint64(ce.memory().Buffer[eff]))
}

func i32Load16S(ce *callEngine) {
	eff := ce.memoryAccess(2)
	ce.operands.push(uint64(uint32(int32(int16(binary.LittleEndian.Uint16(ce.memory().Buffer[eff:]))))))
}

func i32Load16U(ce *callEngine) {
	eff := ce.memoryAccess(2)
	ce.operands.push(uint64(binary.LittleEndian.Uint16(ce.memory().Buffer[eff:])))
}

func i64Load8S(ce *callEngine) {
	eff := ce.memoryAccess(1)
	ce.operands.push(uint64(int64(int8(ce.memory().Buffer[eff]))))
}

func i64Load8U(ce *callEngine) {
	eff := ce.memoryAccess(1)
	ce.operands.push(uint64(ce.memory().Buffer[eff]))
}

func i64Load16S(ce *callEngine) {
	eff := ce.memoryAccess(2)
	ce.operands.push(uint64(int64(int16(binary.LittleEndian.Uint16(ce.memory().Buffer[eff:])))))
}

func i64Load16U(ce *callEngine) {
	eff := ce.memoryAccess(2)
	ce.operands.push(uint64(binary.LittleEndian.Uint16(ce.memory().Buffer[eff:])))
}

func i64Load32S(ce *callEngine) {
	eff := ce.memoryAccess(4)
	ce.operands.push(uint64(int64(int32(binary.LittleEndian.Uint32(ce.memory().Buffer[eff:])))))
}

func i64Load32U(ce *callEngine) {
	eff := ce.memoryAccess(4)
	ce.operands.push(uint64(binary.LittleEndian.Uint32(ce.memory().Buffer[eff:])))
}

func i32Store(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(4)
	binary.LittleEndian.PutUint32(ce.memory().Buffer[eff:], uint32(v))
}

func i64Store(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(8)
	binary.LittleEndian.PutUint64(ce.memory().Buffer[eff:], v)
}

func f32Store(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(4)
	binary.LittleEndian.PutUint32(ce.memory().Buffer[eff:], uint32(v))
}

func f64Store(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(8)
	binary.LittleEndian.PutUint64(ce.memory().Buffer[eff:], v)
}

func i32Store8(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(1)
	ce.memory().Buffer[eff] = byte(v)
}

func i32Store16(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(2)
	binary.LittleEndian.PutUint16(ce.memory().Buffer[eff:], uint16(v))
}

func i64Store8(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(1)
	ce.memory().Buffer[eff] = byte(v)
}

func i64Store16(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(2)
	binary.LittleEndian.PutUint16(ce.memory().Buffer[eff:], uint16(v))
}

func i64Store32(ce *callEngine) {
	eff, v := ce.memoryStoreAccess(4)
	binary.LittleEndian.PutUint32(ce.memory().Buffer[eff:], uint32(v))
}

func memorySize(ce *callEngine) {
	ce.active.pc++ // reserved byte
	ce.operands.push(uint64(ce.memory().PageSize()))
	ce.active.pc++
}

func memoryGrow(ce *callEngine) {
	ce.active.pc++ // reserved byte
	delta := uint32(ce.operands.pop())
	prev, ok := ce.memory().Grow(delta)
	if !ok {
		ce.operands.push(uint64(uint32(math.MaxUint32))) // -1 as u32
	} else {
		ce.operands.push(uint64(prev))
	}
	ce.active.pc++
}
