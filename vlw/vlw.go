/*
Package vlw implements the anti-aliased bitmap font format written by
Processing's createFont() and read by TFT_eSPI.

The file starts with six big-endian 32-bit values; glyph count, version,
point size, a deprecated mboxY value, ascent and descent. These are followed
by seven big-endian 32-bit values per glyph; code point, bitmap height,
bitmap width, x advance, dY (distance from the baseline to the top of the
bitmap, up is positive), dX (distance from the cursor to the left of the
bitmap) and padding. Then come the glyph bitmaps, one 8-bit alpha value per
pixel, and finally the font names and smoothing flag which are kept as is.
*/
package vlw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var (
	// ErrTruncated is returned when the data ends before the last bitmap.
	ErrTruncated = errors.New("vlw: insufficient data")
	// ErrDimensions is returned for a negative glyph count or bitmap size.
	ErrDimensions = errors.New("vlw: invalid dimensions")
)

type header struct {
	Count   int32
	Version int32
	Size    int32
	MboxY   int32
	Ascent  int32
	Descent int32
}

type metrics struct {
	Code    uint32
	Height  int32
	Width   int32
	Advance int32
	DY      int32
	DX      int32
	Padding int32
}

// Glyph is a single character.
type Glyph struct {
	Code    uint32
	Height  int32
	Width   int32
	Advance int32
	DY      int32
	DX      int32
	Padding int32

	// Bitmap holds Height rows of Width alpha values.
	Bitmap []byte
}

// Font is a VLW font. It implements the encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler interfaces.
type Font struct {
	Version int32
	Size    int32
	MboxY   int32
	Ascent  int32
	Descent int32
	Glyphs  []Glyph

	// Trailer is everything after the last bitmap.
	Trailer []byte
}

// Above returns the largest distance any glyph reaches above the baseline.
func (f *Font) Above() int {
	n := 0
	for _, g := range f.Glyphs {
		if int(g.DY) > n {
			n = int(g.DY)
		}
	}
	return n
}

// Below returns the largest distance any glyph reaches below the baseline.
func (f *Font) Below() int {
	n := 0
	for _, g := range f.Glyphs {
		if d := int(g.Height - g.DY); d > n {
			n = d
		}
	}
	return n
}

func read(r io.Reader, v interface{}) error {
	if err := binary.Read(r, binary.BigEndian, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}
	return nil
}

// UnmarshalBinary decodes the font from binary form.
func (f *Font) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	var h header
	if err := read(r, &h); err != nil {
		return err
	}
	if h.Count < 0 {
		return ErrDimensions
	}
	if int64(h.Count)*int64(binary.Size(metrics{})) > int64(r.Len()) {
		return ErrTruncated
	}

	*f = Font{
		Version: h.Version,
		Size:    h.Size,
		MboxY:   h.MboxY,
		Ascent:  h.Ascent,
		Descent: h.Descent,
		Glyphs:  make([]Glyph, h.Count),
	}

	for i := range f.Glyphs {
		var m metrics
		if err := read(r, &m); err != nil {
			return err
		}
		if m.Height < 0 || m.Width < 0 {
			return ErrDimensions
		}
		f.Glyphs[i] = m.glyph()
	}

	for i := range f.Glyphs {
		g := &f.Glyphs[i]
		n := int64(g.Height) * int64(g.Width)
		if n == 0 {
			continue
		}
		if n > int64(r.Len()) {
			return ErrTruncated
		}
		g.Bitmap = make([]byte, n)
		if _, err := io.ReadFull(r, g.Bitmap); err != nil {
			return ErrTruncated
		}
	}

	if r.Len() > 0 {
		f.Trailer = append([]byte(nil), b[len(b)-r.Len():]...)
	}

	return nil
}

func (m metrics) glyph() Glyph {
	return Glyph{
		Code:    m.Code,
		Height:  m.Height,
		Width:   m.Width,
		Advance: m.Advance,
		DY:      m.DY,
		DX:      m.DX,
		Padding: m.Padding,
	}
}

// MarshalBinary encodes the font into binary form and returns the result.
func (f *Font) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	h := header{
		Count:   int32(len(f.Glyphs)),
		Version: f.Version,
		Size:    f.Size,
		MboxY:   f.MboxY,
		Ascent:  f.Ascent,
		Descent: f.Descent,
	}
	if err := binary.Write(b, binary.BigEndian, &h); err != nil {
		return nil, err
	}

	for _, g := range f.Glyphs {
		if g.Height < 0 || g.Width < 0 || len(g.Bitmap) != int(g.Height)*int(g.Width) {
			return nil, ErrDimensions
		}
		m := metrics{
			Code:    g.Code,
			Height:  g.Height,
			Width:   g.Width,
			Advance: g.Advance,
			DY:      g.DY,
			DX:      g.DX,
			Padding: g.Padding,
		}
		if err := binary.Write(b, binary.BigEndian, &m); err != nil {
			return nil, err
		}
	}

	for _, g := range f.Glyphs {
		if _, err := b.Write(g.Bitmap); err != nil {
			return nil, err
		}
	}

	if _, err := b.Write(f.Trailer); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
