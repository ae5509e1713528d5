package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/rle3/rle"
	"github.com/bodgit/rle3/varint"
)

// Smallest possible glyph record; code point plus five single byte varints
const minGlyphBytes = 4 + 5

func truncated(err error) error {
	switch err {
	case io.EOF, io.ErrUnexpectedEOF, varint.ErrTruncated:
		return ErrTruncated
	}
	return err
}

type decoder struct {
	r *bytes.Reader
	f Font
}

func (d *decoder) readInt() (int, error) {
	return varint.ReadInt(d.r, 32)
}

func (d *decoder) readBearing() (int, error) {
	v, err := d.readInt()
	if err != nil {
		return 0, err
	}
	if v >= bearingBias {
		return 0, ErrRange
	}
	return int(int8(uint8(v))), nil
}

func (d *decoder) readHeader() (int, error) {
	var tmp [len(magic)]byte
	if _, err := io.ReadFull(d.r, tmp[:]); err != nil {
		return 0, err
	}
	if string(tmp[:]) != magic {
		return 0, ErrFormat
	}

	n, err := d.readInt()
	if err != nil {
		return 0, err
	}
	if n > d.r.Len()/minGlyphBytes {
		return 0, ErrTruncated
	}

	for _, v := range []*int{&d.f.Size, &d.f.Ascent, &d.f.Descent} {
		if *v, err = d.readInt(); err != nil {
			return 0, err
		}
	}

	return n, nil
}

func (d *decoder) readGlyph(g *Glyph) error {
	var tmp [4]byte
	if _, err := io.ReadFull(d.r, tmp[:]); err != nil {
		return err
	}
	g.Code = binary.LittleEndian.Uint32(tmp[:])

	var err error
	for _, v := range []*int{&g.Height, &g.Width, &g.Advance} {
		if *v, err = d.readInt(); err != nil {
			return err
		}
	}
	if g.DY, err = d.readBearing(); err != nil {
		return err
	}
	if g.DX, err = d.readBearing(); err != nil {
		return err
	}

	return nil
}

func (d *decoder) readPalette() error {
	n, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if n > maxColors {
		return ErrPalette
	}
	d.f.Palette = make([]uint8, n)
	_, err = io.ReadFull(d.r, d.f.Palette)
	return err
}

func (d *decoder) readRuns(g *Glyph) error {
	n, err := d.readInt()
	if err != nil {
		return err
	}
	if n > d.r.Len() {
		return ErrTruncated
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return err
	}

	if g.Runs, err = rle.Unpack(b); err != nil {
		return err
	}
	if rle.Total(g.Runs) != g.Height*g.Width {
		return fmt.Errorf("%w: glyph %#x", ErrPixelCount, g.Code)
	}
	for _, r := range g.Runs {
		if r.Index > len(d.f.Palette) {
			return ErrBadIndex
		}
	}

	return nil
}

func (d *decoder) decode() error {
	n, err := d.readHeader()
	if err != nil {
		return err
	}

	d.f.Glyphs = make([]Glyph, n)
	for i := range d.f.Glyphs {
		if err := d.readGlyph(&d.f.Glyphs[i]); err != nil {
			return err
		}
	}

	if err := d.readPalette(); err != nil {
		return err
	}

	for i := range d.f.Glyphs {
		if err := d.readRuns(&d.f.Glyphs[i]); err != nil {
			return err
		}
	}

	if d.r.Len() > 0 {
		return ErrTrailing
	}

	return nil
}

// UnmarshalBinary decodes a 7SF font from b.
func (f *Font) UnmarshalBinary(b []byte) error {
	d := decoder{r: bytes.NewReader(b)}
	if err := d.decode(); err != nil {
		return truncated(err)
	}
	*f = d.f
	return nil
}

// Read reads a 7SF font from r.
func Read(r io.Reader) (*Font, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f := new(Font)
	if err := f.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return f, nil
}
