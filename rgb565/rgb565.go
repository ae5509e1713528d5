/*
Package rgb565 reconstructs images from the raw screenshot dumps printed by
the device. Each line of the dump is one row of whitespace separated
hexadecimal 16-bit pixels packed as RRRRRGGGGGGBBBBB.
*/
package rgb565

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// ErrRagged is returned when the rows of a dump differ in length.
var ErrRagged = errors.New("rgb565: rows differ in width")

// Color converts a packed 5:6:5 pixel to 8 bits per channel.
func Color(p uint16) color.RGBA {
	return color.RGBA{
		R: uint8(p>>11&0x1f) << 3,
		G: uint8(p>>5&0x3f) << 2,
		B: uint8(p&0x1f) << 3,
		A: 0xff,
	}
}

// Decode reads a dump from r. The width is taken from the last row and the
// height is the number of non-empty rows.
func Decode(r io.Reader) (*image.RGBA, error) {
	var rows [][]uint16

	s := bufio.NewScanner(r)
	s.Buffer(nil, 1<<20)
	for n := 1; s.Scan(); n++ {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]uint16, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseUint(f, 16, 16)
			if err != nil {
				return nil, fmt.Errorf("rgb565: line %d: %w", n, err)
			}
			row[i] = uint16(v)
		}
		rows = append(rows, row)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return image.NewRGBA(image.Rectangle{}), nil
	}

	w := len(rows[len(rows)-1])
	m := image.NewRGBA(image.Rect(0, 0, w, len(rows)))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d pixels, want %d", ErrRagged, y, len(row), w)
		}
		for x, p := range row {
			m.SetRGBA(x, y, Color(p))
		}
	}

	return m, nil
}
