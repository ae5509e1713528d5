package font

import (
	"bytes"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/bodgit/rle3/rle"
	"github.com/bodgit/rle3/vlw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFont() *vlw.Font {
	return &vlw.Font{
		Version: 11,
		Size:    16,
		Ascent:  12,
		Descent: 3,
		Glyphs: []vlw.Glyph{
			{
				Code:    'A',
				Height:  3,
				Width:   4,
				Advance: 5,
				DY:      9,
				DX:      -1,
				Bitmap: []byte{
					0, 0, 255, 255,
					0, 128, 200, 0,
					30, 60, 90, 255,
				},
			},
			{
				Code:    ' ',
				Advance: 4,
			},
			{
				Code:    'g',
				Height:  2,
				Width:   3,
				Advance: 4,
				DY:      2,
				DX:      1,
				Bitmap: []byte{
					255, 10, 0,
					100, 160, 220,
				},
			},
		},
		Trailer: []byte{0x04, 'T', 'e', 's', 't', 0x00, 0x01},
	}
}

const testFont7SF = "375346" + "03100c03" +
	"41000000" + "0304" + "05" + "09" + "817f" +
	"20000000" + "0000" + "04" + "00" + "00" +
	"67000000" + "0203" + "04" + "02" + "01" +
	"08" + "003a466b7ca0d0f6" +
	"0a" + "02e201a1c101416181e1" +
	"00" +
	"06" + "e1210181a1e1"

func TestEncode(t *testing.T) {
	want, err := hex.DecodeString(testFont7SF)
	require.NoError(t, err)

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, testFont(), nil))
	assert.Equal(t, want, b.Bytes())
}

func TestEncodeLog(t *testing.T) {
	var logs strings.Builder
	o := DefaultOptions()
	o.Logger = log.New(&logs, "", 0)

	require.NoError(t, Encode(new(bytes.Buffer), testFont(), o))
	assert.Equal(t, 1, strings.Count(logs.String(), "Glyph 0x41: 12 bytes -> 10 bytes\n"))
	assert.Equal(t, 1, strings.Count(logs.String(), "Glyph 0x20: 0 bytes -> 0 bytes\n"))
	assert.Equal(t, 1, strings.Count(logs.String(), "Glyph 0x67: 6 bytes -> 6 bytes\n"))
	assert.Contains(t, logs.String(), "Above baseline = 9\n")
}

func TestBuild(t *testing.T) {
	f, err := Build(testFont(), nil)
	require.NoError(t, err)

	assert.Equal(t, 16, f.Size)
	assert.Equal(t, 12, f.Ascent)
	assert.Equal(t, 3, f.Descent)
	assert.Equal(t, []uint8{0, 58, 70, 107, 124, 160, 208, 246}, f.Palette)
	assert.Equal(t, 9, f.Above())
	assert.Equal(t, 0, f.Below())

	g := f.Glyph('g')
	require.NotNil(t, g)
	assert.Equal(t, []rle.Run{{Index: 8, Length: 1}, {Index: 2, Length: 1}, {Index: 1, Length: 1}, {Index: 5, Length: 1}, {Index: 6, Length: 1}, {Index: 8, Length: 1}}, g.Runs)
	assert.Equal(t, "#. \n..#\n", f.Preview(g))
	assert.Nil(t, f.Glyph('z'))

	o := DefaultOptions()
	o.Push = false
	f, err = Build(testFont(), o)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 10, 30, 75, 100, 144, 200, 238}, f.Palette)
}

func TestRoundTrip(t *testing.T) {
	f, err := Build(testFont(), nil)
	require.NoError(t, err)

	b, err := f.MarshalBinary()
	require.NoError(t, err)

	g, err := Read(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, f, g)

	a := g.Glyph('A')
	require.NotNil(t, a)
	assert.Equal(t, -1, a.DX)
	m := g.Image(a)
	assert.Equal(t, []uint8{0, 0, 246, 246, 0, 160, 208, 0, 70, 107, 124, 246}, m.Pix)
	assert.Equal(t, "  ##\n .. \n...#\n", g.Preview(a))
}

func TestLongGlyph(t *testing.T) {
	bitmap := make([]byte, 100*50)
	for i := range bitmap[:4100] {
		bitmap[i] = 0xff
	}
	src := &vlw.Font{
		Size: 100,
		Glyphs: []vlw.Glyph{
			{Code: 0x2588, Height: 100, Width: 50, Advance: 50, DY: 100, DX: -128, Bitmap: bitmap},
		},
	}

	f, err := Build(src, nil)
	require.NoError(t, err)

	b, err := f.MarshalBinary()
	require.NoError(t, err)

	g := new(Font)
	require.NoError(t, g.UnmarshalBinary(b))
	assert.Equal(t, -128, g.Glyphs[0].DX)
	assert.Equal(t, f.Glyphs[0].Runs, rle.Merge(g.Glyphs[0].Runs))
	assert.Len(t, g.Glyphs[0].Runs, 3)
}

func TestBuildErrors(t *testing.T) {
	src := testFont()
	src.Ascent = -1
	_, err := Build(src, nil)
	assert.True(t, errors.Is(err, ErrRange))

	src = testFont()
	src.Glyphs[0].DX = -129
	f, err := Build(src, nil)
	require.NoError(t, err)
	_, err = f.MarshalBinary()
	assert.True(t, errors.Is(err, ErrRange))

	src = testFont()
	src.Glyphs[0].Bitmap = src.Glyphs[0].Bitmap[:3]
	_, err = Build(src, nil)
	assert.True(t, errors.Is(err, ErrPixelCount))
}

func TestDecodeErrors(t *testing.T) {
	valid, err := hex.DecodeString(testFont7SF)
	require.NoError(t, err)

	replace := func(i int, v byte) []byte {
		b := append([]byte(nil), valid...)
		b[i] = v
		return b
	}

	tables := []struct {
		name string
		in   []byte
		err  error
	}{
		{"empty", nil, ErrTruncated},
		{"bad magic", []byte("8SF\x00\x00\x00\x00"), ErrFormat},
		{"short", valid[:len(valid)-1], ErrTruncated},
		{"trailing", append(append([]byte(nil), valid...), 0x00), ErrTrailing},
		{"too many glyphs", []byte("7SF\x7f\x10\x0c\x03"), ErrTruncated},
		{"big palette", replace(35, 0x09), ErrPalette},
		{"bad bearing", append([]byte("7SF\x01\x10\x0c\x03"+"\x41\x00\x00\x00\x00\x00\x00\x82\x00\x00"), valid[35:]...), ErrRange},
		{"pixel count", replace(55, 0x03), ErrPixelCount},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(table.in))
			assert.True(t, errors.Is(err, table.err), "got %v", err)
		})
	}
}
