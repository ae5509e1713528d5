package image

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/rle3/rle"
	"github.com/bodgit/rle3/varint"
)

var (
	// ErrFormat is returned when the input does not start with the RLE3
	// magic.
	ErrFormat = errors.New("image: not an RLE3 image")
	// ErrTruncated is returned when the input ends before the image is
	// complete.
	ErrTruncated = errors.New("image: not enough image data")
	// ErrTrailing is returned when there is data after the last run.
	ErrTrailing = errors.New("image: too much image data")
	// ErrColorCount is returned for a color count outside of 1-8.
	ErrColorCount = errors.New("image: invalid color count")
	// ErrBadIndex is returned for a run referencing a missing palette
	// entry.
	ErrBadIndex = errors.New("image: invalid palette index")
	// ErrPixelCount is returned when the runs do not cover every pixel
	// exactly.
	ErrPixelCount = errors.New("image: run lengths do not match dimensions")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func truncated(err error) error {
	switch err {
	case io.EOF, io.ErrUnexpectedEOF, varint.ErrTruncated:
		return ErrTruncated
	}
	return err
}

type decoder struct {
	r *bufio.Reader
	f File
}

func (d *decoder) readHeader() error {
	var tmp [len(magic)]byte
	if err := readFull(d.r, tmp[:]); err != nil {
		return err
	}
	if string(tmp[:]) != magic {
		return ErrFormat
	}

	var err error
	if d.f.Width, err = varint.ReadInt(d.r, 32); err != nil {
		return err
	}
	if d.f.Height, err = varint.ReadInt(d.r, 32); err != nil {
		return err
	}
	if d.f.Height != 0 && d.f.Width > (maxSamples-1)/d.f.Height {
		return varint.ErrOverflow
	}

	return nil
}

func (d *decoder) readPalette() error {
	flags, err := d.r.ReadByte()
	if err != nil {
		return err
	}

	d.f.Alpha = flags&alphaFlag != 0
	n := int(flags & countMask)
	if n < 1 || n > maxColors {
		return ErrColorCount
	}

	width := 3
	if d.f.Alpha {
		width = 4
	}

	var tmp [4]byte
	d.f.Palette = make([]color.NRGBA, n)
	for i := range d.f.Palette {
		tmp[3] = 0xff
		if err := readFull(d.r, tmp[:width]); err != nil {
			return err
		}
		d.f.Palette[i] = color.NRGBA{tmp[0], tmp[1], tmp[2], tmp[3]}
	}

	return nil
}

func (d *decoder) readRuns() error {
	var err error
	if d.f.Runs, err = rle.NewReader(d.r).ReadRuns(d.f.Width * d.f.Height); err != nil {
		if errors.Is(err, rle.ErrCount) {
			return fmt.Errorf("%w: %v", ErrPixelCount, err)
		}
		return err
	}

	for _, r := range d.f.Runs {
		if r.Index > len(d.f.Palette) {
			return ErrBadIndex
		}
	}

	if _, err := d.r.ReadByte(); err != io.EOF {
		if err != nil {
			return err
		}
		return ErrTrailing
	}

	return nil
}

func (d *decoder) decode(r io.Reader, configOnly bool) error {
	d.r = bufio.NewReader(r)

	if err := d.readHeader(); err != nil {
		return truncated(err)
	}

	if err := d.readPalette(); err != nil {
		return truncated(err)
	}

	if configOnly {
		return nil
	}

	if err := d.readRuns(); err != nil {
		return truncated(err)
	}

	return nil
}

// Read reads an RLE3 image from r without expanding the runs.
func Read(r io.Reader) (*File, error) {
	var d decoder
	if err := d.decode(r, false); err != nil {
		return nil, err
	}
	return &d.f, nil
}

// UnmarshalBinary decodes an RLE3 image from b.
func (f *File) UnmarshalBinary(b []byte) error {
	n, err := Read(bytes.NewReader(b))
	if err != nil {
		return err
	}
	*f = *n
	return nil
}

func (f *File) colorModel() color.Palette {
	p := make(color.Palette, len(f.Palette))
	for i, c := range f.Palette {
		p[i] = c
	}
	return p
}

// Image expands the runs into a paletted image.
func (f *File) Image() *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, f.Width, f.Height), f.colorModel())
	i := 0
	for _, r := range f.Runs {
		for j := 0; j < r.Length; j++ {
			m.Pix[i] = uint8(r.Index - 1)
			i++
		}
	}
	return m
}

// Decode reads an RLE3 image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	f, err := Read(r)
	if err != nil {
		return nil, err
	}
	return f.Image(), nil
}

// DecodeConfig returns the color model and dimensions of an RLE3 image
// without decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r, true); err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: d.f.colorModel(),
		Width:      d.f.Width,
		Height:     d.f.Height,
	}, nil
}

func init() {
	image.RegisterFormat("rle3", magic, Decode, DecodeConfig)
}
