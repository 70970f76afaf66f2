// Package leb128 decodes the variable-length integer encoding used
// throughout the WebAssembly binary format.
//
// See https://www.w3.org/TR/wasm-core-1/#integers%E2%91%A4
package leb128

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrOverflow is returned when an encoded value does not fit the
	// destination integer width.
	ErrOverflow = errors.New("leb128: value overflows destination type")
	// ErrTooLong is returned when the encoding uses more bytes than the
	// grammar allows for the destination width.
	ErrTooLong = errors.New("leb128: encoding exceeds maximal length")
)

const (
	maxLen32 = 5  // ceil(32/7)
	maxLen64 = 10 // ceil(64/7)
)

// DecodeUint32 reads an unsigned 32-bit integer, returning the value and
// the number of bytes consumed.
func DecodeUint32(r io.Reader) (ret uint32, num uint64, err error) {
	var shift uint
	for {
		b, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("read byte: %w", err)
		}
		num++
		// A u32 encoding ends at the fifth byte, which may only carry 4
		// significant bits.
		if shift == 28 {
			if b&0x80 != 0 {
				return 0, 0, ErrTooLong
			}
			if b&0x70 != 0 {
				return 0, 0, ErrOverflow
			}
		}
		ret |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, num, nil
		}
		shift += 7
	}
}

// DecodeUint64 reads an unsigned 64-bit integer, returning the value and
// the number of bytes consumed.
func DecodeUint64(r io.Reader) (ret uint64, num uint64, err error) {
	var shift uint
	for {
		b, err := readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("read byte: %w", err)
		}
		num++
		// A u64 encoding ends at the tenth byte, which may only carry 1
		// significant bit.
		if shift == 63 {
			if b&0x80 != 0 {
				return 0, 0, ErrTooLong
			}
			if b&0x7e != 0 {
				return 0, 0, ErrOverflow
			}
		}
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return ret, num, nil
		}
		shift += 7
	}
}

// DecodeInt32 reads a signed 32-bit integer, returning the value and the
// number of bytes consumed.
func DecodeInt32(r io.Reader) (ret int32, num uint64, err error) {
	var shift uint
	var b byte
	for {
		b, err = readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("read byte: %w", err)
		}
		num++
		if num > maxLen32 {
			return 0, 0, ErrTooLong
		}
		ret |= int32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// Sign-extend when the final group's sign bit is set.
	if shift < 32 && b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, num, nil
}

// DecodeInt64 reads a signed 64-bit integer, returning the value and the
// number of bytes consumed.
func DecodeInt64(r io.Reader) (ret int64, num uint64, err error) {
	var shift uint
	var b byte
	for {
		b, err = readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("read byte: %w", err)
		}
		num++
		if num > maxLen64 {
			return 0, 0, ErrTooLong
		}
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, num, nil
}

// DecodeInt33AsInt64 reads the signed 33-bit integer used by block type
// immediates, returning it widened to int64 with the number of bytes
// consumed.
func DecodeInt33AsInt64(r io.Reader) (ret int64, num uint64, err error) {
	var shift uint
	var b byte
	for {
		b, err = readByte(r)
		if err != nil {
			return 0, 0, fmt.Errorf("read byte: %w", err)
		}
		num++
		if num > maxLen32 {
			return 0, 0, ErrTooLong
		}
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 33 && b&0x40 != 0 {
		ret |= -1 << shift
	}
	const limit = int64(1) << 32
	if ret >= limit || ret < -limit {
		return 0, 0, ErrOverflow
	}
	return ret, num, nil
}

func readByte(r io.Reader) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
