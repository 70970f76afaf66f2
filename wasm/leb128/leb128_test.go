package leb128

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUint32(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		exp uint32
		num uint64
	}{
		{in: []byte{0x00}, exp: 0, num: 1},
		{in: []byte{0x04}, exp: 4, num: 1},
		{in: []byte{0x80, 0x7f}, exp: 16256, num: 2},
		{in: []byte{0xe5, 0x8e, 0x26}, exp: 624485, num: 3},
		{in: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, exp: 0xffffffff, num: 5},
	} {
		actual, num, err := DecodeUint32(bytes.NewReader(tc.in))
		require.NoError(t, err)
		require.Equal(t, tc.exp, actual)
		require.Equal(t, tc.num, num)
	}
}

func TestDecodeUint32_errors(t *testing.T) {
	// The fifth byte may not continue the encoding.
	_, _, err := DecodeUint32(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}))
	require.ErrorIs(t, err, ErrTooLong)

	// The fifth byte carries more than 4 significant bits.
	_, _, err = DecodeUint32(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x1f}))
	require.ErrorIs(t, err, ErrOverflow)

	// Truncated input.
	_, _, err = DecodeUint32(bytes.NewReader([]byte{0x80}))
	require.Error(t, err)
}

func TestDecodeUint64(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		exp uint64
	}{
		{in: []byte{0x00}, exp: 0},
		{in: []byte{0x80, 0x01}, exp: 128},
		{in: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, exp: 0xffffffffffffffff},
	} {
		actual, _, err := DecodeUint64(bytes.NewReader(tc.in))
		require.NoError(t, err)
		require.Equal(t, tc.exp, actual)
	}

	_, _, err := DecodeUint64(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestDecodeInt32(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		exp int32
	}{
		{in: []byte{0x00}, exp: 0},
		{in: []byte{0x04}, exp: 4},
		{in: []byte{0x7f}, exp: -1},
		{in: []byte{0x7e}, exp: -2},
		{in: []byte{0xc0, 0xbb, 0x78}, exp: -123456},
		{in: []byte{0xff, 0xff, 0xff, 0xff, 0x07}, exp: 1<<31 - 1},
		{in: []byte{0x80, 0x80, 0x80, 0x80, 0x78}, exp: -1 << 31},
	} {
		actual, _, err := DecodeInt32(bytes.NewReader(tc.in))
		require.NoError(t, err)
		require.Equal(t, tc.exp, actual)
	}

	_, _, err := DecodeInt32(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}))
	require.ErrorIs(t, err, ErrTooLong)
}

func TestDecodeInt64(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		exp int64
	}{
		{in: []byte{0x00}, exp: 0},
		{in: []byte{0x7f}, exp: -1},
		{in: []byte{0x80, 0x7f}, exp: -128},
		{in: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}, exp: 1<<63 - 1},
		{in: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}, exp: -1 << 63},
	} {
		actual, _, err := DecodeInt64(bytes.NewReader(tc.in))
		require.NoError(t, err)
		require.Equal(t, tc.exp, actual)
	}
}

func TestDecodeInt33AsInt64(t *testing.T) {
	for _, tc := range []struct {
		in  []byte
		exp int64
	}{
		{in: []byte{0x40}, exp: -64}, // the empty block type
		{in: []byte{0x7f}, exp: -1},
		{in: []byte{0x7e}, exp: -2},
		{in: []byte{0x7d}, exp: -3},
		{in: []byte{0x7c}, exp: -4},
		{in: []byte{0x00}, exp: 0},
		{in: []byte{0x05}, exp: 5},
	} {
		actual, _, err := DecodeInt33AsInt64(bytes.NewReader(tc.in))
		require.NoError(t, err)
		require.Equal(t, tc.exp, actual)
	}
}
