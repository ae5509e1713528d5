package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sort"

	"github.com/bodgit/rle3/palette"
	"github.com/bodgit/rle3/rle"
	"github.com/bodgit/rle3/varint"
	"github.com/ericpauley/go-quantize/quantize"
)

// ErrInvalidPalette is returned when an image uses more than eight colors
// and they cannot be expressed as a single base color with varying alpha.
var ErrInvalidPalette = errors.New("image: wrong color number")

// colorTable maps colors to 1-based indices in order of first appearance.
type colorTable struct {
	index  map[color.NRGBA]int
	colors []color.NRGBA
}

func (t *colorTable) add(c color.NRGBA) int {
	if i, ok := t.index[c]; ok {
		return i
	}
	t.colors = append(t.colors, c)
	t.index[c] = len(t.colors)
	return len(t.colors)
}

// snap turns antialiased near-black and near-white into the real thing,
// otherwise they each end up using a palette entry.
func snap(c color.NRGBA) color.NRGBA {
	switch sum := int(c.R) + int(c.G) + int(c.B); {
	case sum < nearBlack:
		return color.NRGBA{0x00, 0x00, 0x00, c.A}
	case sum > nearWhite:
		return color.NRGBA{0xff, 0xff, 0xff, c.A}
	}
	return c
}

func opaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

type baseState int

const (
	baseUnset baseState = iota
	baseSet
	baseRejected
)

type encoder struct {
	o     *Options
	alpha bool

	table   colorTable
	indices []int

	base      color.NRGBA
	baseState baseState
	samples   []uint8
}

// index assigns every pixel an exact color index and looks for a single
// base color shared by every visible pixel.
func (e *encoder) index(m image.Image) {
	b := m.Bounds()
	e.table = colorTable{index: make(map[color.NRGBA]int)}
	e.indices = make([]int, 0, b.Dx()*b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			if e.alpha {
				c = snap(c)
				if c.A > 0 {
					rgb := color.NRGBA{c.R, c.G, c.B, 0xff}
					switch e.baseState {
					case baseUnset:
						e.base, e.baseState = rgb, baseSet
						e.o.printf("Base color: %v", rgb)
					case baseSet:
						if rgb != e.base {
							e.o.printf("Rejected base color: %v", rgb)
							e.baseState = baseRejected
						}
					}
				}
				e.samples = append(e.samples, c.A)
			} else {
				c.A = 0xff
			}
			e.indices = append(e.indices, e.table.add(c))
		}
	}
}

func (e *encoder) push() bool {
	switch e.o.Push {
	case PushAlways:
		return true
	case PushAuto:
		return int(e.base.R)+int(e.base.G)+int(e.base.B) > lightTheme
	}
	return false
}

// quantize replaces the exact color table with one where the base color
// is combined with at most eight alpha levels.
func (e *encoder) quantize() []color.NRGBA {
	levels, stats := palette.MedianCut(e.samples)
	e.o.printf("Trimmed opaque: %d", stats.High)
	e.o.printf("Trimmed transparent: %d", stats.Low)
	e.o.printf("Palette: %v", levels)

	reference, stored := palette.Rebalance(levels, e.push())
	e.o.printf("5-bit palette: %v", buckets(reference))
	e.o.printf("Pushed 5-bit palette: %v", buckets(stored))

	translate := make([]int, len(e.table.colors)+1)
	colors := make(map[int]color.NRGBA)
	for i, c := range e.table.colors {
		j := palette.Nearest(c.A, reference)
		translate[i+1] = j
		colors[j] = color.NRGBA{c.R, c.G, c.B, stored[j-1]}
		e.o.printf("%d %v -> %d %v", i+1, c, j, colors[j])
	}

	// Close any gaps left by unused levels by moving the highest used
	// index into the lowest free one
	used := make([]int, 0, len(colors))
	for j := range colors {
		used = append(used, j)
	}
	sort.Ints(used)
	var unused []int
	for j := 1; j <= maxColors; j++ {
		if _, ok := colors[j]; !ok {
			unused = append(unused, j)
		}
	}
	move := make(map[int]int)
	for len(unused) > 0 && len(used) > 0 {
		j, i := used[len(used)-1], unused[0]
		if j <= i {
			break
		}
		used, unused = used[:len(used)-1], unused[1:]
		e.o.printf("%d -> %d", j, i)
		colors[i] = colors[j]
		delete(colors, j)
		move[j] = i
	}
	for i, j := range translate {
		if k, ok := move[j]; ok {
			translate[i] = k
		}
	}

	for i, j := range e.indices {
		e.indices[i] = translate[j]
	}

	p := make([]color.NRGBA, len(colors))
	for j, c := range colors {
		p[j-1] = c
	}
	e.o.printf("%d used colors", len(p))
	return p
}

func buckets(p []uint8) []int {
	b := make([]int, len(p))
	for i, c := range p {
		b[i] = palette.Bucket(c)
	}
	return b
}

func (e *encoder) build(m image.Image) (*File, error) {
	b := m.Bounds()
	if int64(b.Dx())*int64(b.Dy()) >= maxSamples {
		return nil, fmt.Errorf("image: %dx%d image too large", b.Dx(), b.Dy())
	}
	e.alpha = !opaque(m)
	e.index(m)

	f := &File{
		Width:  b.Dx(),
		Height: b.Dy(),
		Alpha:  e.alpha || e.o.Transparency,
	}

	n := len(e.table.colors)
	switch {
	case e.alpha && e.baseState == baseSet && len(e.samples) > 0:
		f.Palette = e.quantize()
	case n == 0 || n > maxColors:
		return nil, fmt.Errorf("%w: %d colors", ErrInvalidPalette, n)
	default:
		f.Palette = make([]color.NRGBA, n)
		for i, c := range e.table.colors {
			if !e.alpha && f.Alpha && e.o.Key.matches(c) {
				e.o.printf("Transparent color: %d %v", i+1, c)
				c.A = 0x00
			}
			f.Palette[i] = c
		}
	}

	f.Runs = rle.Collect(e.indices)
	e.o.printf("Color changes: %d", len(f.Runs))

	return f, nil
}

// Build converts m into an RLE3 image using the given options. If o is nil
// then DefaultOptions is used.
func Build(m image.Image, o *Options) (*File, error) {
	if o == nil {
		o = DefaultOptions()
	}

	e := encoder{o: o}
	f, err := e.build(m)
	if err == nil || !errors.Is(err, ErrInvalidPalette) || !o.Reduce {
		return f, err
	}

	// Quantize the image down to eight colors and try again
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxColors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	o.printf("Reduced to %d colors", len(pm.Palette))

	e = encoder{o: o}
	return e.build(pm)
}

// MarshalBinary encodes f in RLE3 format.
func (f *File) MarshalBinary() ([]byte, error) {
	n := len(f.Palette)
	if n < 1 || n > maxColors {
		return nil, ErrColorCount
	}
	if f.Width < 0 || f.Height < 0 || rle.Total(f.Runs) != f.Width*f.Height {
		return nil, ErrPixelCount
	}
	for _, r := range f.Runs {
		if r.Index > n {
			return nil, ErrBadIndex
		}
	}

	b := []byte(magic)
	b = varint.Append(b, uint64(f.Width))
	b = varint.Append(b, uint64(f.Height))

	flags := byte(n)
	if f.Alpha {
		flags |= alphaFlag
	}
	b = append(b, flags)

	for _, c := range f.Palette {
		b = append(b, c.R, c.G, c.B)
		if f.Alpha {
			b = append(b, c.A)
		}
	}

	return rle.Append(b, f.Runs)
}

// Encode writes the Image m to w in RLE3 format. If o is nil then
// DefaultOptions is used.
func Encode(w io.Writer, m image.Image, o *Options) error {
	f, err := Build(m, o)
	if err != nil {
		return err
	}

	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
