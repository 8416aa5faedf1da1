package frameutil

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// FlipHorizontal mirrors f left to right in place.
func FlipHorizontal(f *ports.Frame) error {
	if f == nil {
		return fmt.Errorf("flip: %w: nil frame", ports.ErrInvalidGeometry)
	}
	if err := requirePacked("flip", *f); err != nil {
		return err
	}
	bpp := f.Format.BytesPerPixel()
	var tmp [4]byte
	for y := 0; y < f.Height; y++ {
		row := f.Data[y*f.Stride : y*f.Stride+f.Width*bpp]
		for l, r := 0, f.Width-1; l < r; l, r = l+1, r-1 {
			a := row[l*bpp : (l+1)*bpp]
			b := row[r*bpp : (r+1)*bpp]
			copy(tmp[:bpp], a)
			copy(a, b)
			copy(b, tmp[:bpp])
		}
	}
	return nil
}

// Rotate180 turns f upside down in place by swapping pixel i with pixel
// total-1-i. Row padding stays at the end of each row.
func Rotate180(f *ports.Frame) error {
	if f == nil {
		return fmt.Errorf("rotate180: %w: nil frame", ports.ErrInvalidGeometry)
	}
	if err := requirePacked("rotate180", *f); err != nil {
		return err
	}
	bpp := f.Format.BytesPerPixel()
	total := f.Width * f.Height
	offset := func(i int) int {
		return (i/f.Width)*f.Stride + (i%f.Width)*bpp
	}
	var tmp [4]byte
	for i, j := 0, total-1; i < j; i, j = i+1, j-1 {
		a := f.Data[offset(i) : offset(i)+bpp]
		b := f.Data[offset(j) : offset(j)+bpp]
		copy(tmp[:bpp], a)
		copy(a, b)
		copy(b, tmp[:bpp])
	}
	return nil
}

// Rotate90CW returns src rotated a quarter turn clockwise. Source pixel
// (x, y) lands at (height-1-y, x).
func Rotate90CW(src ports.Frame) (ports.Frame, error) {
	return rotate90("rotate90cw", src, func(x, y int) (int, int) {
		return src.Height - 1 - y, x
	})
}

// Rotate90CCW returns src rotated a quarter turn counter-clockwise. Source
// pixel (x, y) lands at (y, width-1-x).
func Rotate90CCW(src ports.Frame) (ports.Frame, error) {
	return rotate90("rotate90ccw", src, func(x, y int) (int, int) {
		return y, src.Width - 1 - x
	})
}

func rotate90(op string, src ports.Frame, mapping func(x, y int) (int, int)) (ports.Frame, error) {
	if err := requirePacked(op, src); err != nil {
		return ports.Frame{}, err
	}
	bpp := src.Format.BytesPerPixel()
	out := ports.NewFrame(src.Format, src.Height, src.Width)
	out.Timestamp = src.Timestamp
	for y := 0; y < src.Height; y++ {
		row := src.Data[y*src.Stride:]
		for x := 0; x < src.Width; x++ {
			dx, dy := mapping(x, y)
			d := dy*out.Stride + dx*bpp
			copy(out.Data[d:d+bpp], row[x*bpp:(x+1)*bpp])
		}
	}
	return out, nil
}

// ApplyFrontCameraTransform mirrors src and then rotates it clockwise, the
// readout of a mirrored sideways-mounted front sensor. The order matters.
func ApplyFrontCameraTransform(src ports.Frame) (ports.Frame, error) {
	if err := requirePacked("front camera", src); err != nil {
		return ports.Frame{}, err
	}
	mirrored := src.Clone()
	if err := FlipHorizontal(&mirrored); err != nil {
		return ports.Frame{}, err
	}
	return Rotate90CW(mirrored)
}

// Rotate returns src turned clockwise by degrees, which must be 0, 90, 180
// or 270. The input is never modified.
func Rotate(src ports.Frame, degrees int) (ports.Frame, error) {
	switch degrees {
	case 0:
		if err := src.Validate(); err != nil {
			return ports.Frame{}, fmt.Errorf("rotate: %w", err)
		}
		return src.Clone(), nil
	case 90:
		return Rotate90CW(src)
	case 180:
		out := src.Clone()
		if err := Rotate180(&out); err != nil {
			return ports.Frame{}, err
		}
		return out, nil
	case 270:
		return Rotate90CCW(src)
	default:
		return ports.Frame{}, fmt.Errorf("rotate: %w: %d degrees", ports.ErrInvalidGeometry, degrees)
	}
}
