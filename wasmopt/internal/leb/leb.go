// Package leb implements the LEB128 integer encoding used throughout the
// WebAssembly binary format.
package leb

import "errors"

// ErrOverflow is returned when a LEB128 value exceeds 32 bits.
var ErrOverflow = errors.New("leb128: overflow")

// ErrTruncated is returned when the input ends mid-value.
var ErrTruncated = errors.New("leb128: truncated")

// ReadU32 decodes an unsigned LEB128 value from data at pos. It returns the
// value and the number of bytes consumed.
func ReadU32(data []byte, pos int) (uint32, int, error) {
	var result uint32
	var shift uint
	n := 0
	for {
		if pos+n >= len(data) {
			return 0, 0, ErrTruncated
		}
		b := data[pos+n]
		n++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, 0, ErrOverflow
		}
	}
}

// AppendU32 appends the minimal unsigned LEB128 encoding of v to dst.
func AppendU32(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// Size returns the number of bytes the minimal encoding of v occupies.
func Size(v uint32) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
