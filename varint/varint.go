/*
Package varint implements the variable length integer encoding used by the
RLE3 and 7SF header fields.

A value is split into 7-bit groups which are written most significant group
first. Bit 7 of every byte except the last one is set, so a reader keeps
consuming bytes until it finds one with the high bit clear:

	127   -> 0x7f
	128   -> 0x81 0x00
	16384 -> 0x81 0x80 0x00
*/
package varint

import (
	"errors"
	"io"
)

const (
	continuation = 0x80
	groupMask    = 0x7f
	groupBits    = 7

	// MaxLen is the maximum number of bytes a uint64 can occupy.
	MaxLen = 10
)

var (
	// ErrOverflow is returned when a decoded value does not fit in 64 bits.
	ErrOverflow = errors.New("varint: value overflows 64 bits")
	// ErrTruncated is returned when the input ends before the final byte.
	ErrTruncated = errors.New("varint: truncated value")
)

// Size returns the number of bytes needed to encode v.
func Size(v uint64) int {
	n := 1
	for v > groupMask {
		v >>= groupBits
		n++
	}
	return n
}

// Append appends the encoding of v to b and returns the extended slice.
func Append(b []byte, v uint64) []byte {
	n := Size(v)
	for i := 0; i < n; i++ {
		b = append(b, 0)
	}
	out := b[len(b)-n:]
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(v & groupMask)
		if i != n-1 {
			out[i] |= continuation
		}
		v >>= groupBits
	}
	return b
}

// Encode returns the encoding of v.
func Encode(v uint64) []byte {
	return Append(make([]byte, 0, Size(v)), v)
}

// Read decodes a single value from r.
func Read(r io.ByteReader) (uint64, error) {
	var v uint64
	for {
		c, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, ErrTruncated
			}
			return 0, err
		}
		if v>>(64-groupBits) != 0 {
			return 0, ErrOverflow
		}
		v = v<<groupBits | uint64(c&groupMask)
		if c&continuation == 0 {
			return v, nil
		}
	}
}

// Decode decodes a single value from the start of b and returns it along
// with the number of bytes consumed.
func Decode(b []byte) (uint64, int, error) {
	var v uint64
	for i, c := range b {
		if v>>(64-groupBits) != 0 {
			return 0, 0, ErrOverflow
		}
		v = v<<groupBits | uint64(c&groupMask)
		if c&continuation == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// ReadInt decodes a single value from r that must fit in a non-negative int
// of at most bits wide.
func ReadInt(r io.ByteReader, bits uint) (int, error) {
	v, err := Read(r)
	if err != nil {
		return 0, err
	}
	if bits < 64 && v>>bits != 0 || v > uint64(maxInt) {
		return 0, ErrOverflow
	}
	return int(v), nil
}

const maxInt = int(^uint(0) >> 1)
