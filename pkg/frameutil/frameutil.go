// Package frameutil implements the stateless frame transforms: pixel-format
// conversion, bilinear scaling, rotation, mirroring and aspect-preserving
// resolution matching.
//
// Functions returning a Frame allocate a fresh, tightly packed buffer and
// only read their input, so they may run concurrently on distinct frames.
// FlipHorizontal and Rotate180 work in place.
package frameutil

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// requirePacked validates f and rejects planar YUV layouts.
func requirePacked(op string, f ports.Frame) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !f.Format.Packed() {
		return fmt.Errorf("%s: %w: %s frames are not supported", op, ports.ErrInvalidGeometry, f.Format)
	}
	return nil
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// tightRows copies a packed frame into a buffer whose stride is exactly
// width*bpp.
func tightRows(f ports.Frame) []byte {
	rowLen := f.Width * f.Format.BytesPerPixel()
	out := make([]byte, rowLen*f.Height)
	if f.Stride == rowLen {
		copy(out, f.Data[:rowLen*f.Height])
		return out
	}
	for y := 0; y < f.Height; y++ {
		copy(out[y*rowLen:(y+1)*rowLen], f.Data[y*f.Stride:])
	}
	return out
}
