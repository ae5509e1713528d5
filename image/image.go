/*
Package image implements an RLE3 image decoder and encoder.

RLE3 stores an image of up to eight colors as a palette followed by a run
length encoded stream of 3-bit indices in row-major order:

	"RLE3"
	width             varint
	height            varint
	flags             1 byte, bit 7 set if palette entries carry alpha,
	                  bits 0-6 hold the number of colors (1-8)
	palette           3 bytes (R, G, B) per color, or 4 bytes
	                  (R, G, B, A) if bit 7 of flags is set
	pixels            run records, see package rle

Full color images must not use more than eight colors. Images where every
visible pixel is the same color and only alpha varies are instead stored by
quantizing the alpha channel down to at most eight levels.
*/
package image

import (
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/bodgit/rle3/rle"
)

const (
	magic = "RLE3"

	alphaFlag  = 0x80
	countMask  = 0x7f
	maxColors  = 8
	maxSamples = 1 << 32

	// Channel sums used to snap antialiased near-black and near-white
	// pixels before indexing
	nearBlack = 4
	nearWhite = 735

	// Base colors brighter than this channel sum get pushed palettes in
	// PushAuto mode
	lightTheme = 376
)

// Key is an RGB triple. Channels are wider than 8 bits so that a Key can be
// set to a color no image can contain.
type Key struct {
	R, G, B uint16
}

// NoKey is a Key that matches no 8-bit color.
var NoKey = Key{256, 256, 256}

func (k Key) matches(c color.NRGBA) bool {
	return k.R == uint16(c.R) && k.G == uint16(c.G) && k.B == uint16(c.B)
}

// PushMode controls whether quantized alpha palettes get brightened for
// display.
type PushMode int

const (
	// PushAuto pushes the palette if the base color is light.
	PushAuto PushMode = iota
	// PushAlways always pushes the palette.
	PushAlways
	// PushNever never pushes the palette.
	PushNever
)

func (p PushMode) String() string {
	switch p {
	case PushAuto:
		return "auto"
	case PushAlways:
		return "always"
	case PushNever:
		return "never"
	}
	return fmt.Sprintf("PushMode(%d)", int(p))
}

// ParsePushMode is the inverse of PushMode.String.
func ParsePushMode(s string) (PushMode, error) {
	for _, p := range []PushMode{PushAuto, PushAlways, PushNever} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("image: unknown push mode %q", s)
}

// Options are the encoding parameters.
type Options struct {
	// Transparency writes a fourth palette column for opaque images,
	// 0 for the palette entry matching Key and 255 for all others.
	Transparency bool
	// Key is the color written as transparent when Transparency is set.
	Key Key
	// Push decides whether quantized alpha palettes are brightened.
	Push PushMode
	// Reduce quantizes full color images with more than eight colors
	// down to eight instead of failing.
	Reduce bool
	// Logger receives encoding diagnostics, it may be nil.
	Logger *log.Logger
}

// DefaultOptions returns the options used when Encode is passed nil.
func DefaultOptions() *Options {
	return &Options{
		Transparency: true,
		Key:          NoKey,
		Push:         PushAuto,
	}
}

func (o *Options) printf(format string, v ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, v...)
	}
}

// File is the content of an RLE3 file. Palette entries are always fully
// populated, entries read from a file without alpha have A set to 255. Run
// indices are 1-based positions in Palette.
type File struct {
	Width, Height int
	Alpha         bool
	Palette       []color.NRGBA
	Runs          []rle.Run
}

// String renders the image as text, one line per row. Transparent pixels
// are blank, the darkest color is '#' and everything else is its palette
// index. A palette whose alpha is only ever 0 or 255 is a transparency
// marker rather than real alpha, so white is blank and the darkest color
// is '#' whatever its alpha.
func (f *File) String() string {
	marker := true
	darkest := -1
	for _, c := range f.Palette {
		if c.A != 0x00 && c.A != 0xff {
			marker = false
		}
		if sum := int(c.R) + int(c.G) + int(c.B); darkest < 0 || sum < darkest {
			darkest = sum
		}
	}

	var sb strings.Builder
	x := 0
	for _, r := range f.Runs {
		ch := byte('?')
		var c color.NRGBA
		if r.Index >= 1 && r.Index <= len(f.Palette) {
			c, ch = f.Palette[r.Index-1], byte('0'+r.Index)
		}
		switch {
		case ch == '?':
		case c.A == 0, marker && c.R == 0xff && c.G == 0xff && c.B == 0xff:
			ch = ' '
		case (marker || c.A == 0xff) && int(c.R)+int(c.G)+int(c.B) == darkest:
			ch = '#'
		}
		for i := 0; i < r.Length; i++ {
			sb.WriteByte(ch)
			if x++; x == f.Width {
				sb.WriteByte('\n')
				x = 0
			}
		}
	}
	return sb.String()
}
