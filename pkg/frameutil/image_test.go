package frameutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/fakecam/pkg/ports"
)

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 12, 21))
	img.Set(10, 20, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img.Set(11, 20, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	f := FromImage(img)
	assert.Equal(t, ports.FormatRGB24, f.Format)
	assert.Equal(t, 2, f.Width)
	assert.Equal(t, 1, f.Height)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, f.Data)
}

func TestToImageRoundTrip(t *testing.T) {
	src := patternFrame(ports.FormatRGB24, 5, 3)
	img, err := ToImage(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())

	back := FromImage(img)
	assert.Equal(t, tightRows(src), back.Data)
}

func TestToImageKeepsAlpha(t *testing.T) {
	f := ports.NewFrame(ports.FormatRGBA32, 1, 1)
	copy(f.Data, []byte{10, 20, 30, 40})
	img, err := ToImage(f)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 40}, img.At(0, 0))
}

func TestToImageFromYUV(t *testing.T) {
	rgb := solidRGB(4, 2, 16, 128, 240)
	yuv, err := ConvertFormat(rgb, ports.FormatYUV420Planar)
	require.NoError(t, err)

	img, err := ToImage(yuv)
	require.NoError(t, err)
	c := img.At(3, 1).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 16, G: 128, B: 240, A: 255}, c)
}
