package bitmap

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/user/fakecam/pkg/adapters/osfilesystem"
	"github.com/user/fakecam/pkg/ports"
)

type bmpLayout struct {
	width, height int
	bpp           int
	compression   uint32
	topDown       bool
	signature     uint16
}

// colorAt is the fixture picture: every pixel distinct for small sizes.
func colorAt(x, y int) (r, g, b byte) {
	return byte(10 + x*20), byte(100 + y*30), byte(x*y + 1)
}

// buildBMP assembles a BMP byte by byte, including row padding filled with
// 0xAA so that padding leaks are visible.
func buildBMP(t *testing.T, s bmpLayout) []byte {
	t.Helper()
	if s.signature == 0 {
		s.signature = 0x4D42
	}
	rowSize := RowSize(s.width, s.bpp)
	height := int32(s.height)
	if s.topDown {
		height = -height
	}

	var buf bytes.Buffer
	fh := fileHeader{
		Signature:  s.signature,
		FileSize:   uint32(54 + rowSize*s.height),
		DataOffset: 54,
	}
	ih := infoHeader{
		HeaderSize:   40,
		Width:        int32(s.width),
		Height:       height,
		Planes:       1,
		BitsPerPixel: uint16(s.bpp),
		Compression:  s.compression,
		ImageSize:    uint32(rowSize * s.height),
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, fh))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, ih))
	require.Equal(t, 54, buf.Len())

	for i := 0; i < s.height; i++ {
		y := i
		if !s.topDown {
			y = s.height - 1 - i
		}
		row := bytes.Repeat([]byte{0xAA}, rowSize)
		for x := 0; x < s.width && s.bpp >= 24; x++ {
			r, g, b := colorAt(x, y)
			o := x * s.bpp / 8
			row[o], row[o+1], row[o+2] = b, g, r
			if s.bpp == 32 {
				row[o+3] = 0x7F
			}
		}
		buf.Write(row)
	}
	return buf.Bytes()
}

func assertFixture(t *testing.T, f ports.Frame, w, h int) {
	t.Helper()
	require.Equal(t, ports.FormatRGB24, f.Format)
	require.Equal(t, w, f.Width)
	require.Equal(t, h, f.Height)
	require.Equal(t, w*3, f.Stride)
	require.Len(t, f.Data, w*h*3)
	assert.Zero(t, f.Timestamp)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := colorAt(x, y)
			o := y*f.Stride + x*3
			assert.Equal(t, []byte{r, g, b}, f.Data[o:o+3], "pixel (%d,%d)", x, y)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		layout bmpLayout
	}{
		{"24bpp bottom-up padded", bmpLayout{width: 3, height: 2, bpp: 24}},
		{"24bpp top-down", bmpLayout{width: 5, height: 3, bpp: 24, topDown: true}},
		{"24bpp aligned", bmpLayout{width: 4, height: 4, bpp: 24}},
		{"32bpp bottom-up", bmpLayout{width: 3, height: 3, bpp: 32}},
		{"32bpp top-down", bmpLayout{width: 2, height: 5, bpp: 32, topDown: true}},
		{"single pixel", bmpLayout{width: 1, height: 1, bpp: 24}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(buildBMP(t, tt.layout))
			require.NoError(t, err)
			assertFixture(t, f, tt.layout.width, tt.layout.height)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	valid := buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 24})

	tests := []struct {
		name string
		data []byte
	}{
		{"compressed", buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 24, compression: 1})},
		{"bitfields", buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 32, compression: 3})},
		{"8bpp", buildBMP(t, bmpLayout{width: 4, height: 2, bpp: 8})},
		{"16bpp", buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 16})},
		{"bad signature", buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 24, signature: 0x4141})},
		{"truncated headers", valid[:40]},
		{"truncated pixels", valid[:len(valid)-1]},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, ports.ErrMalformedInput)
		})
	}
}

func TestDecodeZeroSize(t *testing.T) {
	data := buildBMP(t, bmpLayout{width: 2, height: 2, bpp: 24})
	binary.LittleEndian.PutUint32(data[18:], 0)
	_, err := Decode(data)
	assert.ErrorIs(t, err, ports.ErrMalformedInput)
}

func TestDecodeMatchesReferenceEncoder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 7, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 7; x++ {
			r, g, b := colorAt(x, y)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	f, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assertFixture(t, f, 7, 3)
}

func TestReferenceDecoderAgreesWithFixture(t *testing.T) {
	data := buildBMP(t, bmpLayout{width: 3, height: 2, bpp: 24})
	img, err := bmp.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b := colorAt(2, 1)
	got := color.RGBAModel.Convert(img.At(2, 1)).(color.RGBA)
	assert.Equal(t, color.RGBA{R: r, G: g, B: b, A: 0xff}, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "still.bmp")
	require.NoError(t, os.WriteFile(path, buildBMP(t, bmpLayout{width: 4, height: 3, bpp: 32}), 0o644))

	fs := osfilesystem.New()
	f, err := Load(fs, path)
	require.NoError(t, err)
	assertFixture(t, f, 4, 3)

	_, err = Load(fs, filepath.Join(dir, "missing.bmp"))
	assert.ErrorIs(t, err, ports.ErrIO)
}
