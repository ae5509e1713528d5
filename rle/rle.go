/*
Package rle implements the 3-bit indexed run-length packing used for RLE3
image data and 7SF glyph bitmaps.

Every record starts with a byte laid out as:

	765     - palette index (0-7)
	   4    - count continues into the next byte
	    3210 - count, or the high nibble of a 12-bit count

A count of 1 to 15 fits in the first byte. Longer counts set bit 4 and carry
the low eight bits of a 12-bit count in a second byte, so a single record
can hold at most 4095 samples. Longer runs are split into several records
with the same index which a reader must add back together.
*/
package rle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxIndex is the highest index a record can carry.
	MaxIndex = 7
	// MaxShort is the longest count that fits in a single byte record.
	MaxShort = 0x0f
	// MaxCount is the longest count a single record can carry.
	MaxCount = 0xfff

	indexShift = 5
	extended   = 0x10
	nibble     = 0x0f
)

var (
	// ErrOverflow is returned for a run length that is not positive.
	ErrOverflow = errors.New("rle: run length must be positive")
	// ErrIndex is returned for a Run index outside of 1-8, or a 0-based
	// index passed to Pack outside of 0-7.
	ErrIndex = errors.New("rle: index out of range")
	// ErrMalformedRun is returned when a two byte record is missing its
	// second byte.
	ErrMalformedRun = errors.New("rle: truncated run record")
	// ErrZeroCount is returned when a record carries a count of zero.
	ErrZeroCount = errors.New("rle: zero length run record")
	// ErrCount is returned when records overshoot the expected number of
	// samples.
	ErrCount = errors.New("rle: runs overshoot sample count")
)

// Run is a sequence of Length samples sharing the palette entry at Index.
// Index is 1-based, matching the position of the entry in its palette.
type Run struct {
	Index  int
	Length int
}

func (r Run) String() string {
	return fmt.Sprintf("%dx%d", r.Index, r.Length)
}

// Collect groups indices into maximal runs.
func Collect(indices []int) []Run {
	var runs []Run
	for _, i := range indices {
		if n := len(runs); n > 0 && runs[n-1].Index == i {
			runs[n-1].Length++
			continue
		}
		runs = append(runs, Run{Index: i, Length: 1})
	}
	return runs
}

// Expand is the inverse of Collect.
func Expand(runs []Run) []int {
	var indices []int
	for _, r := range runs {
		for i := 0; i < r.Length; i++ {
			indices = append(indices, r.Index)
		}
	}
	return indices
}

// Merge joins neighbouring runs that share an index, such as the records
// produced by splitting a run longer than MaxCount.
func Merge(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if n := len(out); n > 0 && out[n-1].Index == r.Index {
			out[n-1].Length += r.Length
			continue
		}
		out = append(out, r)
	}
	return out
}

// Total returns the number of samples covered by runs.
func Total(runs []Run) int {
	n := 0
	for _, r := range runs {
		n += r.Length
	}
	return n
}

// Pack appends the records for length samples of the 0-based index to b.
func Pack(b []byte, index, length int) ([]byte, error) {
	if index < 0 || index > MaxIndex {
		return b, ErrIndex
	}
	if length <= 0 {
		return b, ErrOverflow
	}

	for length > 0 {
		if length <= MaxShort {
			return append(b, byte(index<<indexShift|length)), nil
		}

		n := length
		if n > MaxCount {
			n = MaxCount
		}
		b = append(b, byte(index<<indexShift|extended|n>>8), byte(n))
		length -= n
	}

	return b, nil
}

// Append appends the records for runs to b.
func Append(b []byte, runs []Run) ([]byte, error) {
	for _, r := range runs {
		if r.Index < 1 || r.Index > MaxIndex+1 {
			return b, ErrIndex
		}
		var err error
		if b, err = Pack(b, r.Index-1, r.Length); err != nil {
			return b, err
		}
	}
	return b, nil
}

// Encode returns the records for runs.
func Encode(runs []Run) ([]byte, error) {
	return Append(nil, runs)
}

// Reader reads records from an underlying io.ByteReader.
type Reader struct {
	r io.ByteReader
}

// NewReader returns a Reader reading from r.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r}
}

// Next returns the next record as a Run with a 1-based index. It returns
// io.EOF when there are no more records.
func (r *Reader) Next() (Run, error) {
	c, err := r.r.ReadByte()
	if err != nil {
		return Run{}, err
	}

	run := Run{
		Index:  int(c>>indexShift) + 1,
		Length: int(c & nibble),
	}

	if c&extended != 0 {
		lo, err := r.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return Run{}, ErrMalformedRun
			}
			return Run{}, err
		}
		run.Length = run.Length<<8 | int(lo)
	}

	if run.Length == 0 {
		return Run{}, ErrZeroCount
	}

	return run, nil
}

// ReadRuns reads records until at least total samples are covered. Records
// are returned as read, without merging. It is an error for the final
// record to overshoot total.
func (r *Reader) ReadRuns(total int) ([]Run, error) {
	var runs []Run
	n := 0
	for n < total {
		run, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		runs = append(runs, run)
		n += run.Length
	}
	if n != total {
		return nil, fmt.Errorf("%w: %d samples, want %d", ErrCount, n, total)
	}
	return runs, nil
}

// Unpack decodes every record in b.
func Unpack(b []byte) ([]Run, error) {
	r := NewReader(bytes.NewReader(b))
	var runs []Run
	for {
		run, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return runs, nil
			}
			return nil, err
		}
		runs = append(runs, run)
	}
}
