package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/dacapoday/litescan"
)

// Varint layout, most significant group first:
//
//	bytes 1..8: high bit set means another byte follows, low 7 bits are data
//	byte 9:     all 8 bits are data, never followed
//
// so an encoding is 1 to 9 bytes and covers the full 64-bit range. The 9th
// byte carrying 8 bits means a 9-byte input does not follow the plain
// 7-bits-per-byte formula, and no input can be longer than 9 bytes, so
// there is no overlong-varint error.

// MaxVarintLen is the longest encoding of a 64-bit value.
const MaxVarintLen = 9

// ReadVarint decodes one varint from r and returns it as a signed value
// (the accumulated bits reinterpreted as two's complement).
func ReadVarint(r io.ByteReader) (int64, error) {
	var v uint64
	for i := range MaxVarintLen {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: varint: %w", litescan.ErrTruncated, io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		if i == MaxVarintLen-1 {
			return int64(v<<8 | uint64(b)), nil
		}
		v = v<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return int64(v), nil
		}
	}
	panic("unreachable")
}

// Varint decodes a varint from buf and returns it with the number of bytes
// consumed. It returns (0, 0) if buf ends before the varint does.
func Varint(buf []byte) (int64, int) {
	var v uint64
	for i, b := range buf {
		if i == MaxVarintLen-1 {
			return int64(v<<8 | uint64(b)), MaxVarintLen
		}
		v = v<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return int64(v), i + 1
		}
	}
	return 0, 0
}

// AppendVarint appends the encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	n := VarintLen(v)
	if n == MaxVarintLen {
		var buf [MaxVarintLen]byte
		buf[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			buf[i] = byte(v&0x7F) | 0x80
			v >>= 7
		}
		return append(dst, buf[:]...)
	}
	for i := n - 1; i > 0; i-- {
		dst = append(dst, byte(v>>(7*uint(i))&0x7F)|0x80)
	}
	return append(dst, byte(v&0x7F))
}

// VarintLen returns the number of bytes AppendVarint uses for v.
func VarintLen(v uint64) int {
	if v>>56 != 0 {
		return MaxVarintLen
	}
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
