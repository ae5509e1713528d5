package font

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/rle3/palette"
	"github.com/bodgit/rle3/rle"
	"github.com/bodgit/rle3/varint"
	"github.com/bodgit/rle3/vlw"
)

func metric(name string, v int32) (int, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: %s %d", ErrRange, name, v)
	}
	return int(v), nil
}

func bearing(name string, v int) (uint64, error) {
	if v < minBearing || v > maxBearing {
		return 0, fmt.Errorf("%w: %s %d", ErrRange, name, v)
	}
	if v < 0 {
		v += bearingBias
	}
	return uint64(v), nil
}

// Build converts the VLW font src into a 7SF font. Every bitmap sample of
// every glyph feeds one shared median cut palette. If o is nil then
// DefaultOptions is used.
func Build(src *vlw.Font, o *Options) (*Font, error) {
	if o == nil {
		o = DefaultOptions()
	}

	f := &Font{
		Glyphs: make([]Glyph, len(src.Glyphs)),
	}

	var err error
	if f.Size, err = metric("size", src.Size); err != nil {
		return nil, err
	}
	if f.Ascent, err = metric("ascent", src.Ascent); err != nil {
		return nil, err
	}
	if f.Descent, err = metric("descent", src.Descent); err != nil {
		return nil, err
	}

	o.printf("Character count = %d", len(src.Glyphs))
	o.printf("Version = %d", src.Version)
	o.printf("Font size = %d pt", src.Size)

	var samples []uint8
	for _, g := range src.Glyphs {
		samples = append(samples, g.Bitmap...)
	}

	levels, stats := palette.MedianCut(samples)
	o.printf("Trimmed white: %d", stats.High)
	o.printf("Trimmed black: %d", stats.Low)
	o.printf("Palette: %v", levels)

	// Samples are matched against the levels before they get spread out,
	// only the stored palette is adjusted
	_, f.Palette = palette.Rebalance(levels, o.Push)
	o.printf("Pushed 5-bit palette = %v", buckets(f.Palette))

	for i, g := range src.Glyphs {
		if len(g.Bitmap) != int(g.Height)*int(g.Width) {
			return nil, fmt.Errorf("%w: glyph %#x", ErrPixelCount, g.Code)
		}

		indices := make([]int, len(g.Bitmap))
		for j, c := range g.Bitmap {
			indices[j] = palette.Nearest(c, levels)
		}

		f.Glyphs[i] = Glyph{
			Code:    g.Code,
			Height:  int(g.Height),
			Width:   int(g.Width),
			Advance: int(g.Advance),
			DY:      int(g.DY),
			DX:      int(g.DX),
			Runs:    rle.Collect(indices),
		}
	}

	o.printf("Above baseline = %d", src.Above())
	o.printf("Below baseline = %d", src.Below())

	return f, nil
}

func buckets(p []uint8) []int {
	b := make([]int, len(p))
	for i, c := range p {
		b[i] = palette.Bucket(c)
	}
	return b
}

// MarshalBinary encodes f in 7SF format.
func (f *Font) MarshalBinary() ([]byte, error) {
	return f.marshal(new(Options))
}

func (f *Font) marshal(o *Options) ([]byte, error) {
	if len(f.Palette) > maxColors {
		return nil, ErrPalette
	}

	b := []byte(magic)
	for _, v := range []int{len(f.Glyphs), f.Size, f.Ascent, f.Descent} {
		if v < 0 {
			return nil, ErrRange
		}
		b = varint.Append(b, uint64(v))
	}

	for _, g := range f.Glyphs {
		if g.Height < 0 || g.Width < 0 || g.Advance < 0 {
			return nil, fmt.Errorf("%w: glyph %#x", ErrRange, g.Code)
		}

		dy, err := bearing("dY", g.DY)
		if err != nil {
			return nil, err
		}
		dx, err := bearing("dX", g.DX)
		if err != nil {
			return nil, err
		}

		b = binary.LittleEndian.AppendUint32(b, g.Code)
		b = varint.Append(b, uint64(g.Height))
		b = varint.Append(b, uint64(g.Width))
		b = varint.Append(b, uint64(g.Advance))
		b = varint.Append(b, dy)
		b = varint.Append(b, dx)
	}

	b = append(b, byte(len(f.Palette)))
	b = append(b, f.Palette...)

	for _, g := range f.Glyphs {
		if rle.Total(g.Runs) != g.Height*g.Width {
			return nil, fmt.Errorf("%w: glyph %#x", ErrPixelCount, g.Code)
		}
		for _, r := range g.Runs {
			if r.Index > len(f.Palette) {
				return nil, ErrBadIndex
			}
		}

		runs, err := rle.Encode(g.Runs)
		if err != nil {
			return nil, err
		}

		o.printf("Glyph %#x: %d bytes -> %d bytes", g.Code, g.Height*g.Width, len(runs))
		b = varint.Append(b, uint64(len(runs)))
		b = append(b, runs...)
	}

	return b, nil
}

// Encode writes the VLW font src to w in 7SF format. If o is nil then
// DefaultOptions is used.
func Encode(w io.Writer, src *vlw.Font, o *Options) error {
	if o == nil {
		o = DefaultOptions()
	}

	f, err := Build(src, o)
	if err != nil {
		return err
	}

	b, err := f.marshal(o)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
