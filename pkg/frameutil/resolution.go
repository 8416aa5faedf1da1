package frameutil

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// MatchResolution resizes src to exactly targetWidth x targetHeight. When
// the size already matches the frame is copied verbatim. Without
// maintainAspect the picture is stretched; with it the picture is fitted
// inside the target and centered on black.
func MatchResolution(src ports.Frame, targetWidth, targetHeight int, maintainAspect bool) (ports.Frame, error) {
	if err := src.Validate(); err != nil {
		return ports.Frame{}, fmt.Errorf("match resolution: %w", err)
	}
	if src.Width == targetWidth && src.Height == targetHeight {
		return src.Clone(), nil
	}
	if !maintainAspect {
		return ScaleFrame(src, targetWidth, targetHeight)
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return ports.Frame{}, fmt.Errorf("match resolution: %w: target %dx%d", ports.ErrInvalidGeometry, targetWidth, targetHeight)
	}

	scaledW, scaledH := FitInside(src.Width, src.Height, targetWidth, targetHeight)
	scaled, err := ScaleFrame(src, scaledW, scaledH)
	if err != nil {
		return ports.Frame{}, err
	}

	out := ports.NewFrame(src.Format, targetWidth, targetHeight)
	out.Timestamp = src.Timestamp
	if out.Format == ports.FormatRGBA32 {
		for i := 3; i < len(out.Data); i += 4 {
			out.Data[i] = 0xff
		}
	}

	bpp := src.Format.BytesPerPixel()
	offX := (targetWidth - scaledW) / 2
	offY := (targetHeight - scaledH) / 2
	rowLen := scaledW * bpp
	for y := 0; y < scaledH; y++ {
		d := (y+offY)*out.Stride + offX*bpp
		copy(out.Data[d:d+rowLen], scaled.Data[y*scaled.Stride:])
	}
	return out, nil
}

// FitInside returns the largest size with the aspect ratio of w x h that
// fits in a boxW x boxH box. Neither side drops below one pixel.
func FitInside(w, h, boxW, boxH int) (int, int) {
	srcAspect := float64(w) / float64(h)
	boxAspect := float64(boxW) / float64(boxH)
	var fw, fh int
	if srcAspect > boxAspect {
		fw = boxW
		fh = int(float64(boxW) / srcAspect)
	} else {
		fh = boxH
		fw = int(float64(boxH) * srcAspect)
	}
	return max(fw, 1), max(fh, 1)
}
