package frameutil

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/fakecam/pkg/ports"
)

// FromImage copies img into a tightly packed RGB24 frame. Alpha is
// dropped.
func FromImage(img image.Image) ports.Frame {
	b := img.Bounds()
	out := ports.NewFrame(ports.FormatRGB24, b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			o := y*out.Stride + x*3
			out.Data[o], out.Data[o+1], out.Data[o+2] = c.R, c.G, c.B
		}
	}
	return out
}

// ToImage returns an RGB24 or RGBA32 frame as an image. NV21 and
// YUV420Planar frames are converted through RGB24 first.
func ToImage(f ports.Frame) (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("to image: %w", err)
	}
	switch f.Format {
	case ports.FormatYUV420Planar:
		nv21, err := I420ToNV21(f)
		if err != nil {
			return nil, err
		}
		f = nv21
		fallthrough
	case ports.FormatNV21:
		rgb, err := ConvertFormat(f, ports.FormatRGB24)
		if err != nil {
			return nil, err
		}
		f = rgb
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	bpp := f.Format.BytesPerPixel()
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			copy(dst[x*4:x*4+3], row[x*bpp:x*bpp+3])
			if bpp == 4 {
				dst[x*4+3] = row[x*bpp+3]
			} else {
				dst[x*4+3] = 0xFF
			}
		}
	}
	return img, nil
}
