package frameutil

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// ScaleFrame resizes a packed RGB24 or RGBA32 frame with bilinear
// interpolation. It always resamples, even when the size is unchanged.
func ScaleFrame(src ports.Frame, targetWidth, targetHeight int) (ports.Frame, error) {
	if err := requirePacked("scale", src); err != nil {
		return ports.Frame{}, err
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return ports.Frame{}, fmt.Errorf("scale: %w: target %dx%d", ports.ErrInvalidGeometry, targetWidth, targetHeight)
	}

	bpp := src.Format.BytesPerPixel()
	out := ports.NewFrame(src.Format, targetWidth, targetHeight)
	out.Timestamp = src.Timestamp

	xRatio := float64(src.Width) / float64(targetWidth)
	yRatio := float64(src.Height) / float64(targetHeight)

	for dy := 0; dy < targetHeight; dy++ {
		sy := float64(dy) * yRatio
		y0 := int(sy)
		y1 := y0 + 1
		if y1 >= src.Height {
			y1 = src.Height - 1
		}
		yFrac := sy - float64(y0)
		row0 := src.Data[y0*src.Stride:]
		row1 := src.Data[y1*src.Stride:]
		dst := out.Data[dy*out.Stride:]

		for dx := 0; dx < targetWidth; dx++ {
			sx := float64(dx) * xRatio
			x0 := int(sx)
			x1 := x0 + 1
			if x1 >= src.Width {
				x1 = src.Width - 1
			}
			xFrac := sx - float64(x0)

			w00 := (1 - xFrac) * (1 - yFrac)
			w10 := xFrac * (1 - yFrac)
			w01 := (1 - xFrac) * yFrac
			w11 := xFrac * yFrac

			for c := 0; c < bpp; c++ {
				v := w00*float64(row0[x0*bpp+c]) +
					w10*float64(row0[x1*bpp+c]) +
					w01*float64(row1[x0*bpp+c]) +
					w11*float64(row1[x1*bpp+c])
				dst[dx*bpp+c] = clampByte(int(v + 0.5))
			}
		}
	}
	return out, nil
}
