package interpreter

import (
	"math"
	"math/bits"

	"github.com/wasmlink/wasmlink/wasm"
)

// i32 comparisons

func i32Eqz(ce *callEngine) {
	ce.operands.pushBool(uint32(ce.operands.pop()) == 0)
	ce.active.pc++
}

func i32Eq(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 == v2)
	ce.active.pc++
}

func i32Ne(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 != v2)
	ce.active.pc++
}

func i32LtS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func i32LtU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func i32GtS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func i32GtU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func i32LeS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func i32LeU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func i32GeS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

func i32GeU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

// i64 comparisons

func i64Eqz(ce *callEngine) {
	ce.operands.pushBool(ce.operands.pop() == 0)
	ce.active.pc++
}

func i64Eq(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 == v2)
	ce.active.pc++
}

func i64Ne(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 != v2)
	ce.active.pc++
}

func i64LtS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func i64LtU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func i64GtS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func i64GtU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func i64LeS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func i64LeU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func i64GeS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

func i64GeU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

// float comparisons

func f32Eq(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 == v2)
	ce.active.pc++
}

func f32Ne(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 != v2)
	ce.active.pc++
}

func f32Lt(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func f32Gt(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func f32Le(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func f32Ge(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

func f64Eq(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 == v2)
	ce.active.pc++
}

func f64Ne(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 != v2)
	ce.active.pc++
}

func f64Lt(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 < v2)
	ce.active.pc++
}

func f64Gt(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 > v2)
	ce.active.pc++
}

func f64Le(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 <= v2)
	ce.active.pc++
}

func f64Ge(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushBool(v1 >= v2)
	ce.active.pc++
}

// i32 arithmetic

func i32Clz(ce *callEngine) {
	ce.operands.push(uint64(bits.LeadingZeros32(uint32(ce.operands.pop()))))
	ce.active.pc++
}

func i32Ctz(ce *callEngine) {
	ce.operands.push(uint64(bits.TrailingZeros32(uint32(ce.operands.pop()))))
	ce.active.pc++
}

func i32Popcnt(ce *callEngine) {
	ce.operands.push(uint64(bits.OnesCount32(uint32(ce.operands.pop()))))
	ce.active.pc++
}

func i32Add(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop()) + uint32(ce.operands.pop())))
	ce.active.pc++
}

func i32Sub(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.push(uint64(v1 - v2))
	ce.active.pc++
}

func i32Mul(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop()) * uint32(ce.operands.pop())))
	ce.active.pc++
}

func i32DivS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	if v1 == math.MinInt32 && v2 == -1 {
		panic(wasm.NewTrap(wasm.TrapIntegerOverflow))
	}
	ce.operands.push(uint64(uint32(v1 / v2)))
	ce.active.pc++
}

func i32DivU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	ce.operands.push(uint64(v1 / v2))
	ce.active.pc++
}

func i32RemS(ce *callEngine) {
	v2, v1 := int32(ce.operands.pop()), int32(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	if v1 == math.MinInt32 && v2 == -1 {
		// The quotient overflows but the remainder is defined as zero.
		ce.operands.push(0)
	} else {
		ce.operands.push(uint64(uint32(v1 % v2)))
	}
	ce.active.pc++
}

func i32RemU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	ce.operands.push(uint64(v1 % v2))
	ce.active.pc++
}

func i32And(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop()) & uint32(ce.operands.pop())))
	ce.active.pc++
}

func i32Or(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop()) | uint32(ce.operands.pop())))
	ce.active.pc++
}

func i32Xor(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop()) ^ uint32(ce.operands.pop())))
	ce.active.pc++
}

func i32Shl(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.push(uint64(v1 << (v2 % 32)))
	ce.active.pc++
}

func i32ShrS(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), int32(ce.operands.pop())
	ce.operands.push(uint64(uint32(v1 >> (v2 % 32))))
	ce.active.pc++
}

func i32ShrU(ce *callEngine) {
	v2, v1 := uint32(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.push(uint64(v1 >> (v2 % 32)))
	ce.active.pc++
}

func i32Rotl(ce *callEngine) {
	v2, v1 := int(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.push(uint64(bits.RotateLeft32(v1, v2)))
	ce.active.pc++
}

func i32Rotr(ce *callEngine) {
	v2, v1 := int(ce.operands.pop()), uint32(ce.operands.pop())
	ce.operands.push(uint64(bits.RotateLeft32(v1, -v2)))
	ce.active.pc++
}

// i64 arithmetic

func i64Clz(ce *callEngine) {
	ce.operands.push(uint64(bits.LeadingZeros64(ce.operands.pop())))
	ce.active.pc++
}

func i64Ctz(ce *callEngine) {
	ce.operands.push(uint64(bits.TrailingZeros64(ce.operands.pop())))
	ce.active.pc++
}

func i64Popcnt(ce *callEngine) {
	ce.operands.push(uint64(bits.OnesCount64(ce.operands.pop())))
	ce.active.pc++
}

func i64Add(ce *callEngine) {
	ce.operands.push(ce.operands.pop() + ce.operands.pop())
	ce.active.pc++
}

func i64Sub(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.push(v1 - v2)
	ce.active.pc++
}

func i64Mul(ce *callEngine) {
	ce.operands.push(ce.operands.pop() * ce.operands.pop())
	ce.active.pc++
}

func i64DivS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	if v1 == math.MinInt64 && v2 == -1 {
		panic(wasm.NewTrap(wasm.TrapIntegerOverflow))
	}
	ce.operands.push(uint64(v1 / v2))
	ce.active.pc++
}

func i64DivU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	ce.operands.push(v1 / v2)
	ce.active.pc++
}

func i64RemS(ce *callEngine) {
	v2, v1 := int64(ce.operands.pop()), int64(ce.operands.pop())
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	if v1 == math.MinInt64 && v2 == -1 {
		ce.operands.push(0)
	} else {
		ce.operands.push(uint64(v1 % v2))
	}
	ce.active.pc++
}

func i64RemU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	if v2 == 0 {
		panic(wasm.NewTrap(wasm.TrapDivideByZero))
	}
	ce.operands.push(v1 % v2)
	ce.active.pc++
}

func i64And(ce *callEngine) {
	ce.operands.push(ce.operands.pop() & ce.operands.pop())
	ce.active.pc++
}

func i64Or(ce *callEngine) {
	ce.operands.push(ce.operands.pop() | ce.operands.pop())
	ce.active.pc++
}

func i64Xor(ce *callEngine) {
	ce.operands.push(ce.operands.pop() ^ ce.operands.pop())
	ce.active.pc++
}

func i64Shl(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.push(v1 << (v2 % 64))
	ce.active.pc++
}

func i64ShrS(ce *callEngine) {
	v2, v1 := ce.operands.pop(), int64(ce.operands.pop())
	ce.operands.push(uint64(v1 >> (v2 % 64)))
	ce.active.pc++
}

func i64ShrU(ce *callEngine) {
	v2, v1 := ce.operands.pop(), ce.operands.pop()
	ce.operands.push(v1 >> (v2 % 64))
	ce.active.pc++
}

func i64Rotl(ce *callEngine) {
	v2, v1 := int(ce.operands.pop()), ce.operands.pop()
	ce.operands.push(bits.RotateLeft64(v1, v2))
	ce.active.pc++
}

func i64Rotr(ce *callEngine) {
	v2, v1 := int(ce.operands.pop()), ce.operands.pop()
	ce.operands.push(bits.RotateLeft64(v1, -v2))
	ce.active.pc++
}

// f32 arithmetic

func f32Abs(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.Abs(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Neg(ce *callEngine) {
	ce.operands.pushFloat32(-ce.operands.popFloat32())
	ce.active.pc++
}

func f32Ceil(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.Ceil(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Floor(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.Floor(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Trunc(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.Trunc(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Nearest(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.RoundToEven(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Sqrt(ce *callEngine) {
	ce.operands.pushFloat32(float32(math.Sqrt(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func f32Add(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(v1 + v2)
	ce.active.pc++
}

func f32Sub(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(v1 - v2)
	ce.active.pc++
}

func f32Mul(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(v1 * v2)
	ce.active.pc++
}

func f32Div(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(v1 / v2)
	ce.active.pc++
}

func f32Min(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(float32(wasmMin(float64(v1), float64(v2))))
	ce.active.pc++
}

func f32Max(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(float32(wasmMax(float64(v1), float64(v2))))
	ce.active.pc++
}

func f32Copysign(ce *callEngine) {
	v2, v1 := ce.operands.popFloat32(), ce.operands.popFloat32()
	ce.operands.pushFloat32(float32(math.Copysign(float64(v1), float64(v2))))
	ce.active.pc++
}

// f64 arithmetic

func f64Abs(ce *callEngine) {
	ce.operands.pushFloat64(math.Abs(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Neg(ce *callEngine) {
	ce.operands.pushFloat64(-ce.operands.popFloat64())
	ce.active.pc++
}

func f64Ceil(ce *callEngine) {
	ce.operands.pushFloat64(math.Ceil(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Floor(ce *callEngine) {
	ce.operands.pushFloat64(math.Floor(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Trunc(ce *callEngine) {
	ce.operands.pushFloat64(math.Trunc(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Nearest(ce *callEngine) {
	ce.operands.pushFloat64(math.RoundToEven(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Sqrt(ce *callEngine) {
	ce.operands.pushFloat64(math.Sqrt(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64Add(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(v1 + v2)
	ce.active.pc++
}

func f64Sub(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(v1 - v2)
	ce.active.pc++
}

func f64Mul(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(v1 * v2)
	ce.active.pc++
}

func f64Div(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(v1 / v2)
	ce.active.pc++
}

func f64Min(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(wasmMin(v1, v2))
	ce.active.pc++
}

func f64Max(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(wasmMax(v1, v2))
	ce.active.pc++
}

func f64Copysign(ce *callEngine) {
	v2, v1 := ce.operands.popFloat64(), ce.operands.popFloat64()
	ce.operands.pushFloat64(math.Copysign(v1, v2))
	ce.active.pc++
}

// wasmMin propagates NaN and orders the zeroes: min(-0, +0) is -0.
func wasmMin(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == y {
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// wasmMax propagates NaN and orders the zeroes: max(-0, +0) is +0.
func wasmMax(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN()
	}
	if x == y {
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// conversions

func i32WrapI64(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop())))
	ce.active.pc++
}

// truncToInt traps on NaN and on truncated values outside [lo, hi].
func truncToInt(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapInvalidConversionToInteger))
	}
	tr := math.Trunc(v)
	if tr < lo || tr > hi {
		panic(wasm.NewTrap(wasm.TrapIntegerOverflow))
	}
	return tr
}

func i32TruncF32S(ce *callEngine) {
	tr := truncToInt(float64(ce.operands.popFloat32()), math.MinInt32, math.MaxInt32)
	ce.operands.push(uint64(uint32(int32(tr))))
	ce.active.pc++
}

func i32TruncF32U(ce *callEngine) {
	tr := truncToInt(float64(ce.operands.popFloat32()), 0, math.MaxUint32)
	ce.operands.push(uint64(uint32(tr)))
	ce.active.pc++
}

func i32TruncF64S(ce *callEngine) {
	tr := truncToInt(ce.operands.popFloat64(), math.MinInt32, math.MaxInt32)
	ce.operands.push(uint64(uint32(int32(tr))))
	ce.active.pc++
}

func i32TruncF64U(ce *callEngine) {
	tr := truncToInt(ce.operands.popFloat64(), 0, math.MaxUint32)
	ce.operands.push(uint64(uint32(tr)))
	ce.active.pc++
}

func i64ExtendI32S(ce *callEngine) {
	ce.operands.push(uint64(int64(int32(ce.operands.pop()))))
	ce.active.pc++
}

func i64ExtendI32U(ce *callEngine) {
	ce.operands.push(uint64(uint32(ce.operands.pop())))
	ce.active.pc++
}

// truncToInt64 and truncToUint64 bound-check against exactly
// representable float64 limits: 2^63 and 2^64 themselves.
func truncToInt64(v float64) int64 {
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapInvalidConversionToInteger))
	}
	tr := math.Trunc(v)
	if tr >= 9.223372036854776e18 || tr < -9.223372036854776e18 {
		panic(wasm.NewTrap(wasm.TrapIntegerOverflow))
	}
	return int64(tr)
}

func truncToUint64(v float64) uint64 {
	if math.IsNaN(v) {
		panic(wasm.NewTrap(wasm.TrapInvalidConversionToInteger))
	}
	tr := math.Trunc(v)
	if tr >= 1.8446744073709552e19 || tr < 0 {
		panic(wasm.NewTrap(wasm.TrapIntegerOverflow))
	}
	return uint64(tr)
}

func i64TruncF32S(ce *callEngine) {
	ce.operands.push(uint64(truncToInt64(float64(ce.operands.popFloat32()))))
	ce.active.pc++
}

func i64TruncF32U(ce *callEngine) {
	ce.operands.push(truncToUint64(float64(ce.operands.popFloat32())))
	ce.active.pc++
}

func i64TruncF64S(ce *callEngine) {
	ce.operands.push(uint64(truncToInt64(ce.operands.popFloat64())))
	ce.active.pc++
}

func i64TruncF64U(ce *callEngine) {
	ce.operands.push(truncToUint64(ce.operands.popFloat64()))
	ce.active.pc++
}

func f32ConvertI32S(ce *callEngine) {
	ce.operands.pushFloat32(float32(int32(ce.operands.pop())))
	ce.active.pc++
}

func f32ConvertI32U(ce *callEngine) {
	ce.operands.pushFloat32(float32(uint32(ce.operands.pop())))
	ce.active.pc++
}

func f32ConvertI64S(ce *callEngine) {
	ce.operands.pushFloat32(float32(int64(ce.operands.pop())))
	ce.active.pc++
}

func f32ConvertI64U(ce *callEngine) {
	ce.operands.pushFloat32(float32(ce.operands.pop()))
	ce.active.pc++
}

func f32DemoteF64(ce *callEngine) {
	ce.operands.pushFloat32(float32(ce.operands.popFloat64()))
	ce.active.pc++
}

func f64ConvertI32S(ce *callEngine) {
	ce.operands.pushFloat64(float64(int32(ce.operands.pop())))
	ce.active.pc++
}

func f64ConvertI32U(ce *callEngine) {
	ce.operands.pushFloat64(float64(uint32(ce.operands.pop())))
	ce.active.pc++
}

func f64ConvertI64S(ce *callEngine) {
	ce.operands.pushFloat64(float64(int64(ce.operands.pop())))
	ce.active.pc++
}

func f64ConvertI64U(ce *callEngine) {
	ce.operands.pushFloat64(float64(ce.operands.pop()))
	ce.active.pc++
}

func f64PromoteF32(ce *callEngine) {
	ce.operands.pushFloat64(float64(ce.operands.popFloat32()))
	ce.active.pc++
}

// Reinterpretations are no-ops on the raw representation.
func reinterpret(ce *callEngine) {
	ce.active.pc++
}
