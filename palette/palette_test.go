package palette

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(v uint8, n int) []uint8 {
	s := make([]uint8, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func span(from, to, step int) []uint8 {
	var s []uint8
	for i := from; i < to; i += step {
		s = append(s, uint8(i))
	}
	return s
}

func concat(parts ...[]uint8) []uint8 {
	var s []uint8
	for _, p := range parts {
		s = append(s, p...)
	}
	return s
}

func TestMedianCut(t *testing.T) {
	tables := []struct {
		name    string
		samples []uint8
		want    []uint8
		stats   Stats
	}{
		{
			name:    "few distinct",
			samples: []uint8{200, 5, 5, 3, 200, 3},
			want:    []uint8{3, 5, 200},
		},
		{
			name:    "seven distinct",
			samples: []uint8{0, 255, 10, 20, 30, 40, 50, 50, 50},
			want:    []uint8{0, 10, 20, 30, 40, 50, 255},
		},
		{
			name:    "eight distinct",
			samples: concat([]uint8{0, 10, 20}, repeat(30, 12), []uint8{40, 50, 60, 70}),
			want:    []uint8{0, 10, 20, 30, 40, 50, 60, 70},
		},
		{
			name:    "ramp",
			samples: span(0, 256, 1),
			want:    []uint8{16, 48, 80, 112, 144, 176, 208, 240},
		},
		{
			name:    "mostly transparent",
			samples: concat(repeat(0, 50), span(1, 9, 1), repeat(255, 2)),
			want:    []uint8{0, 1, 2, 4, 5, 6, 7, 132},
			stats:   Stats{Low: 49, High: 1},
		},
		{
			name:    "glyph",
			samples: concat(repeat(0, 300), repeat(255, 200), span(10, 250, 3)),
			want:    []uint8{0, 28, 67, 108, 148, 187, 226, 254},
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			in := append([]uint8(nil), table.samples...)
			p, stats := MedianCut(in)
			assert.Equal(t, table.want, p)
			if table.stats != (Stats{}) {
				assert.Equal(t, table.stats, stats)
			}
			assert.Equal(t, table.samples, in)
		})
	}
}

func TestMedianCutProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(2000)
		samples := make([]uint8, n)
		lo, hi := r.Intn(256), r.Intn(256)
		if lo > hi {
			lo, hi = hi, lo
		}
		min, max := uint8(255), uint8(0)
		for j := range samples {
			samples[j] = uint8(lo + r.Intn(hi-lo+1))
			if samples[j] < min {
				min = samples[j]
			}
			if samples[j] > max {
				max = samples[j]
			}
		}

		p, _ := MedianCut(samples)
		require.NotEmpty(t, p)
		require.LessOrEqual(t, len(p), MaxColors)
		for j, c := range p {
			require.GreaterOrEqual(t, c, min)
			require.LessOrEqual(t, c, max)
			if j > 0 {
				require.LessOrEqual(t, p[j-1], c)
			}
		}
	}
}

func TestDistinct(t *testing.T) {
	tables := []struct {
		name string
		in   []uint8
		want []uint8
	}{
		{"already distinct", []uint8{16, 48, 80, 112, 144, 176, 208, 240}, []uint8{16, 48, 80, 112, 144, 176, 208, 240}},
		{"dark crowd", []uint8{0, 1, 2, 4, 5, 6, 7, 132}, []uint8{0, 9, 18, 28, 37, 46, 55, 132}},
		{"all bright", repeat(255, 8), []uint8{199, 207, 215, 223, 231, 239, 247, 255}},
		{"duplicates", []uint8{0, 0, 0, 128, 128, 250, 255, 255}, []uint8{0, 8, 16, 128, 136, 234, 247, 255}},
		{"single", []uint8{42}, []uint8{42}},
		{"empty", []uint8{}, []uint8{}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Equal(t, table.want, Distinct(table.in))
		})
	}
}

func TestDistinctProperties(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		p := make([]uint8, 1+r.Intn(MaxColors))
		for j := range p {
			p[j] = uint8(r.Intn(256))
		}
		// Bias towards clustered palettes
		if i%2 == 0 {
			for j := range p {
				p[j] = uint8(240 + r.Intn(16))
			}
		}
		in := append([]uint8(nil), p...)

		d := Distinct(p)
		require.Equal(t, in, p)
		require.Len(t, d, len(p))
		for j := 1; j < len(d); j++ {
			require.Less(t, Bucket(d[j-1]), Bucket(d[j]), "%v -> %v", p, d)
		}
	}
}

func TestPush(t *testing.T) {
	tables := []struct {
		name string
		in   []uint8
		want []uint8
	}{
		{"dark crowd", []uint8{0, 9, 18, 28, 37, 46, 55, 132}, []uint8{0, 25, 34, 44, 53, 62, 71, 140}},
		{"tight", []uint8{0, 9, 18, 27, 36, 45, 54, 63}, []uint8{0, 17, 26, 35, 44, 53, 62, 71}},
		{"saturated", []uint8{199, 207, 215, 223, 231, 239, 247, 255}, []uint8{199, 207, 215, 223, 231, 239, 247, 255}},
		{"spread", []uint8{16, 48, 80, 112, 144, 176, 208, 240}, []uint8{16, 88, 112, 136, 160, 184, 216, 248}},
		{"short", []uint8{10, 40, 100, 180}, []uint8{10, 64, 116, 188}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			in := append([]uint8(nil), table.in...)
			got := Push(in)
			assert.Equal(t, table.want, got)
			assert.Equal(t, table.in, in)
			for j := 1; j < len(got); j++ {
				assert.Less(t, Bucket(got[j-1]), Bucket(got[j]))
			}
		})
	}
}

func TestRebalance(t *testing.T) {
	index, store := Rebalance([]uint8{0, 0, 0, 128, 128, 250, 255, 255}, true)
	assert.Equal(t, []uint8{0, 8, 16, 128, 136, 234, 247, 255}, index)
	assert.Equal(t, []uint8{0, 32, 40, 136, 144, 234, 247, 255}, store)

	index, store = Rebalance([]uint8{10, 40, 100, 180}, false)
	assert.Equal(t, index, store)
	store[0] = 0
	assert.Equal(t, uint8(10), index[0])
}

func TestNearest(t *testing.T) {
	p := []uint8{0, 64, 128, 255}

	tables := []struct {
		v    uint8
		want int
	}{
		{0, 1},
		{31, 1},
		{32, 1}, // tie between 0 and 64
		{33, 2},
		{96, 2}, // tie between 64 and 128
		{200, 4},
		{255, 4},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, Nearest(table.v, p), "level %d", table.v)
	}

	assert.Equal(t, 0, Nearest(10, nil))
}
