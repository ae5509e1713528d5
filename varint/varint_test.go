package varint

import (
	"bufio"
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tables := []struct {
		name string
		v    uint64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x01}},
		{"max single", 127, []byte{0x7f}},
		{"min double", 128, []byte{0x81, 0x00}},
		{"width", 240, []byte{0x81, 0x70}},
		{"max double", 16383, []byte{0xff, 0x7f}},
		{"min triple", 16384, []byte{0x81, 0x80, 0x00}},
		{"max uint32", math.MaxUint32, []byte{0x8f, 0xff, 0xff, 0xff, 0x7f}},
		{"uint32 + 1", 1 << 32, []byte{0x90, 0x80, 0x80, 0x80, 0x00}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			b := Encode(table.v)
			assert.Equal(t, table.want, b)
			assert.Equal(t, len(table.want), Size(table.v))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 255, 256, 4095, 4096, 16383, 16384, 1<<21 - 1, 1 << 21, 1<<28 + 5, math.MaxUint32, 1 << 32, math.MaxUint64}
	for v := uint64(0); v < 1<<16; v += 7 {
		values = append(values, v)
	}

	for _, v := range values {
		b := Encode(v)

		got, n, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(b), n)

		got, err = Read(bytes.NewReader(b))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestAppendSequence(t *testing.T) {
	var b []byte
	b = Append(b, 300)
	b = Append(b, 5)
	b = Append(b, 1<<20)

	r := bufio.NewReader(bytes.NewReader(b))
	for _, want := range []uint64{300, 5, 1 << 20} {
		v, err := Read(r)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := Read(r)
	assert.Equal(t, ErrTruncated, err)
}

func TestTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0x81, 0x80})
	assert.Equal(t, ErrTruncated, err)

	_, _, err = Decode(nil)
	assert.Equal(t, ErrTruncated, err)

	_, err = Read(bytes.NewReader([]byte{0xff}))
	assert.Equal(t, ErrTruncated, err)
}

func TestOverflow(t *testing.T) {
	b := bytes.Repeat([]byte{0xff}, 10)
	b = append(b, 0x7f)

	_, _, err := Decode(b)
	assert.Equal(t, ErrOverflow, err)

	_, err = Read(bytes.NewReader(b))
	assert.Equal(t, ErrOverflow, err)
}

func TestReadInt(t *testing.T) {
	v, err := ReadInt(bytes.NewReader(Encode(math.MaxUint32)), 32)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint32, v)

	_, err = ReadInt(bytes.NewReader(Encode(1<<32)), 32)
	assert.Equal(t, ErrOverflow, err)

	_, err = ReadInt(bytes.NewReader(Encode(math.MaxUint64)), 64)
	assert.Equal(t, ErrOverflow, err)
}
