/*
Package font implements the 7SF (7-shade font) format, an anti-aliased
bitmap font where every glyph is a run length encoded stream of 3-bit
indices into one palette of up to eight alpha levels shared by the whole
font.

	"7SF"
	glyph count       varint
	point size        varint
	ascent            varint
	descent           varint
	for each glyph:
	  code point      4 bytes, little-endian
	  height          varint
	  width           varint
	  x advance       varint
	  dY              varint, 8-bit two's complement
	  dX              varint, 8-bit two's complement
	palette length    1 byte
	palette           1 byte per alpha level
	for each glyph:
	  length          varint, bytes of run data that follow
	  runs            height * width samples, see package rle
*/
package font

import (
	"errors"
	"image"
	"log"
	"strings"

	"github.com/bodgit/rle3/rle"
)

const (
	magic       = "7SF"
	maxColors   = 8
	bearingBias = 256
	minBearing  = -128
	maxBearing  = 127
)

var (
	// ErrFormat is returned when the input does not start with the 7SF
	// magic.
	ErrFormat = errors.New("font: not a 7SF font")
	// ErrTruncated is returned when the input ends too early.
	ErrTruncated = errors.New("font: not enough font data")
	// ErrTrailing is returned when there is data after the last glyph.
	ErrTrailing = errors.New("font: too much font data")
	// ErrRange is returned for a metric that cannot be stored.
	ErrRange = errors.New("font: metric out of range")
	// ErrPalette is returned for a palette of more than eight levels.
	ErrPalette = errors.New("font: too many palette levels")
	// ErrBadIndex is returned for a run referencing a missing palette
	// level.
	ErrBadIndex = errors.New("font: invalid palette index")
	// ErrPixelCount is returned when the runs of a glyph do not cover its
	// bitmap exactly.
	ErrPixelCount = errors.New("font: run lengths do not match glyph size")
)

// Options are the encoding parameters.
type Options struct {
	// Push brightens the stored palette for display on a dim panel.
	Push bool
	// Logger receives encoding diagnostics, it may be nil.
	Logger *log.Logger
}

// DefaultOptions returns the options used when Encode is passed nil.
func DefaultOptions() *Options {
	return &Options{
		Push: true,
	}
}

func (o *Options) printf(format string, v ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, v...)
	}
}

// Glyph is a single character. Run indices are 1-based positions in the
// palette of the Font.
type Glyph struct {
	Code          uint32
	Height, Width int
	Advance       int
	DY, DX        int
	Runs          []rle.Run
}

// Font is a 7SF font. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type Font struct {
	Size    int
	Ascent  int
	Descent int
	Palette []uint8
	Glyphs  []Glyph
}

// Glyph returns the glyph for the code point c, or nil.
func (f *Font) Glyph(c rune) *Glyph {
	for i := range f.Glyphs {
		if f.Glyphs[i].Code == uint32(c) {
			return &f.Glyphs[i]
		}
	}
	return nil
}

// Above returns the largest distance any glyph reaches above the baseline.
func (f *Font) Above() int {
	n := 0
	for _, g := range f.Glyphs {
		if g.DY > n {
			n = g.DY
		}
	}
	return n
}

// Below returns the largest distance any glyph reaches below the baseline.
func (f *Font) Below() int {
	n := 0
	for _, g := range f.Glyphs {
		if d := g.Height - g.DY; d > n {
			n = d
		}
	}
	return n
}

// Image expands the runs of g into an alpha mask using the palette of f.
func (f *Font) Image(g *Glyph) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, g.Width, g.Height))
	i := 0
	for _, r := range g.Runs {
		var a uint8
		if r.Index >= 1 && r.Index <= len(f.Palette) {
			a = f.Palette[r.Index-1]
		}
		for j := 0; j < r.Length && i < len(m.Pix); j++ {
			m.Pix[i] = a
			i++
		}
	}
	return m
}

// Preview renders g as text, one line per row. Pixels using the first
// palette entry are blank, those using the last are '#' and everything else
// is '.'. Stored levels are pushed, so the last entry need not be 255.
func (f *Font) Preview(g *Glyph) string {
	var sb strings.Builder
	x := 0
	for _, r := range g.Runs {
		var ch byte
		switch r.Index {
		case 1:
			ch = ' '
		case len(f.Palette):
			ch = '#'
		default:
			ch = '.'
		}
		for i := 0; i < r.Length; i++ {
			sb.WriteByte(ch)
			if x++; x == g.Width {
				sb.WriteByte('\n')
				x = 0
			}
		}
	}
	return sb.String()
}
