/*
Package palette implements the single channel palette handling shared by the
RLE3 and 7SF encoders.

A palette holds at most eight 8-bit levels in ascending order. The target
display stores five bits per channel so most of the work happens in terms of
5-bit buckets, the top five bits of each level.
*/
package palette

import (
	"math"
	"sort"
)

const (
	// MaxColors is the largest palette the 3-bit run index can address.
	MaxColors = 8

	bucketShift = 3
	bucketStep  = 1 << bucketShift
	maxBucket   = 0xff >> bucketShift

	// Leaf partitions are found by halving the samples this many times.
	depth = 3

	// Darker neighbours at or below this bucket let the push budget grow.
	pushThreshold = 20
)

// Bucket returns the 5-bit bucket of the 8-bit level v.
func Bucket(v uint8) int {
	return int(v >> bucketShift)
}

// Stats describes what MedianCut trimmed from either end of the samples
// before partitioning them.
type Stats struct {
	Low  int // copies of the minimum removed
	High int // copies of the maximum removed
}

func distinct(samples []uint8) []uint8 {
	var seen [256]bool
	var p []uint8
	for _, s := range samples {
		if !seen[s] {
			seen[s] = true
			p = append(p, s)
		}
	}
	sort.Slice(p, func(i, j int) bool { return p[i] < p[j] })
	return p
}

// MedianCut reduces samples to at most MaxColors representative levels. If
// there are no more than MaxColors distinct levels then they are returned
// as is, otherwise the over-represented extremes are trimmed and the remaining
// sorted samples are halved three times, each leaf contributing its rounded
// mean. The result is always in ascending order and may be shorter than
// MaxColors if a leaf ends up empty. samples is not modified.
func MedianCut(samples []uint8) ([]uint8, Stats) {
	if p := distinct(samples); len(p) <= MaxColors {
		return p, Stats{}
	}

	s := make([]uint8, len(samples))
	copy(s, samples)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	s, stats := trim(s)

	parts := [][]uint8{s}
	for i := 0; i < depth; i++ {
		next := make([][]uint8, 0, len(parts)*2)
		for _, part := range parts {
			if len(part) == 0 {
				continue
			}
			m := len(part) / 2
			next = append(next, part[:m], part[m:])
		}
		parts = next
	}

	p := make([]uint8, 0, MaxColors)
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		sum := 0
		for _, v := range part {
			sum += int(v)
		}
		p = append(p, uint8(math.RoundToEven(float64(sum)/float64(len(part)))))
	}

	return p, stats
}

// trim drops copies of whichever extreme is more common, one at a time,
// while that extreme makes up more than an eighth of what is left.
func trim(s []uint8) ([]uint8, Stats) {
	var stats Stats

	count := func(v uint8) int {
		n := 0
		for _, x := range s {
			if x == v {
				n++
			}
		}
		return n
	}

	high, low := count(s[len(s)-1]), count(s[0])
	for {
		switch {
		case high > low:
			if high <= len(s)/MaxColors {
				return s, stats
			}
			s = s[:len(s)-1]
			high--
			stats.High++
		default:
			if low <= len(s)/MaxColors {
				return s, stats
			}
			s = s[1:]
			low--
			stats.Low++
		}
	}
}

// Distinct returns a copy of p adjusted so that each entry falls in a
// strictly higher 5-bit bucket than the one before it. Entries are first
// raised one bucket at a time until they clear their predecessor, never past
// the top bucket, and then lowered one bucket at a time from the top down
// until they sit below their successor.
func Distinct(p []uint8) []uint8 {
	v := make([]int, len(p))
	for i, c := range p {
		v[i] = int(c)
	}

	for i := 1; i < len(v); i++ {
		for v[i-1]>>bucketShift >= v[i]>>bucketShift && v[i]>>bucketShift < maxBucket {
			v[i] += bucketStep
		}
	}
	for i := len(v) - 2; i >= 0; i-- {
		for v[i]>>bucketShift >= v[i+1]>>bucketShift && v[i] >= bucketStep {
			v[i] -= bucketStep
		}
	}

	out := make([]uint8, len(v))
	for i, c := range v {
		out[i] = uint8(c)
	}
	return out
}

// Push returns a copy of p with entries raised towards the next brighter
// entry to make them more legible on a dim panel. Entries are visited from
// the brightest down to the second darkest. Each may be raised by up to the
// current budget of buckets, stopping short of the next entry's bucket and
// of 255. Whenever an entry moved and its darker neighbour is in a low
// bucket the budget grows by one for the rest of the sweep. The darkest
// entry is never moved. p should already satisfy Distinct.
func Push(p []uint8) []uint8 {
	v := make([]int, len(p))
	for i, c := range p {
		v[i] = int(c)
	}

	budget := 1
	for i := len(v) - 1; i > 0; i-- {
		pushed := 0
		for pushed < budget && v[i]+bucketStep <= 0xff && (i+1 >= len(v) || v[i]>>bucketShift+1 < v[i+1]>>bucketShift) {
			v[i] += bucketStep
			pushed++
		}
		if pushed > 0 && v[i-1]>>bucketShift <= pushThreshold {
			budget++
		}
	}

	out := make([]uint8, len(v))
	for i, c := range v {
		out[i] = uint8(c)
	}
	return out
}

// Rebalance runs Distinct over p and, if push is set, Push over the result.
// The first palette is the one samples should be indexed against, the
// second is the one to store.
func Rebalance(p []uint8, push bool) ([]uint8, []uint8) {
	d := Distinct(p)
	if !push {
		return d, append([]uint8(nil), d...)
	}
	return d, Push(d)
}

// Nearest returns the 1-based index of the entry in p closest to v. Ties go
// to the lower index. It returns 0 if p is empty.
func Nearest(v uint8, p []uint8) int {
	best, index := math.MaxInt32, 0
	for i, c := range p {
		d := int(v) - int(c)
		if d < 0 {
			d = -d
		}
		if d < best {
			best, index = d, i+1
		}
	}
	return index
}
