package rgb565

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, Color(0x0000))
	assert.Equal(t, color.RGBA{0xf8, 0xfc, 0xf8, 0xff}, Color(0xffff))
	assert.Equal(t, color.RGBA{0xf8, 0, 0, 0xff}, Color(0xf800))
	assert.Equal(t, color.RGBA{0, 0xfc, 0, 0xff}, Color(0x07e0))
	assert.Equal(t, color.RGBA{0, 0, 0xf8, 0xff}, Color(0x001f))
}

func TestDecode(t *testing.T) {
	in := "f800 07e0  001f\n\n  ffff 0000 8410\n"

	m, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), m.Bounds())
	assert.Equal(t, color.RGBA{0xf8, 0, 0, 0xff}, m.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0xf8, 0xff}, m.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{0x80, 0x80, 0x80, 0xff}, m.RGBAAt(2, 1))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("0000 0000\n0000\n"))
	assert.True(t, errors.Is(err, ErrRagged))

	_, err = Decode(strings.NewReader("0000 zzzz\n"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("10000\n"))
	assert.Error(t, err)

	m, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.True(t, m.Bounds().Empty())
}
