package ports

import (
	"fmt"
	"strings"
)

// PixelFormat describes the memory layout of a frame buffer.
type PixelFormat int

const (
	// FormatNV21 is a Y plane followed by interleaved V/U samples at quarter resolution.
	FormatNV21 PixelFormat = iota
	// FormatYUV420Planar is a Y plane followed by a U plane and a V plane (I420).
	FormatYUV420Planar
	// FormatRGBA32 is packed R, G, B, A bytes.
	FormatRGBA32
	// FormatRGB24 is packed R, G, B bytes.
	FormatRGB24
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case FormatNV21:
		return "nv21"
	case FormatYUV420Planar:
		return "yuv420p"
	case FormatRGBA32:
		return "rgba32"
	case FormatRGB24:
		return "rgb24"
	default:
		return "unknown"
	}
}

// ParsePixelFormat parses a pixel format name as produced by String.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(s) {
	case "nv21":
		return FormatNV21, nil
	case "yuv420p", "yuv420", "i420":
		return FormatYUV420Planar, nil
	case "rgba32", "rgba":
		return FormatRGBA32, nil
	case "rgb24", "rgb":
		return FormatRGB24, nil
	default:
		return 0, fmt.Errorf("%w: pixel format %q", ErrUnsupportedFormat, s)
	}
}

// Packed reports whether the format stores whole pixels contiguously.
func (f PixelFormat) Packed() bool {
	return f == FormatRGB24 || f == FormatRGBA32
}

// BytesPerPixel returns the pixel size of packed formats and 0 for planar ones.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB24:
		return 3
	case FormatRGBA32:
		return 4
	default:
		return 0
	}
}

// ChromaSize returns the dimensions of one subsampled chroma plane.
func ChromaSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}

// FrameSize returns the byte count of a tightly packed frame.
func FrameSize(format PixelFormat, width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	switch format {
	case FormatNV21, FormatYUV420Planar:
		cw, ch := ChromaSize(width, height)
		return width*height + 2*cw*ch
	case FormatRGB24, FormatRGBA32:
		return width * height * format.BytesPerPixel()
	default:
		return 0
	}
}

// Frame is a decoded picture. A Frame exclusively owns Data: producers
// never retain a reference to a buffer they hand out, so a Frame may be
// passed to another goroutine without copying.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Format PixelFormat
	// Stride is the number of bytes per row. For planar formats it is the
	// luma row size.
	Stride int
	// Timestamp is the presentation time in microseconds. Still images are 0.
	Timestamp int64
}

// NewFrame allocates a zeroed, tightly packed frame.
func NewFrame(format PixelFormat, width, height int) Frame {
	stride := width
	if format.Packed() {
		stride = width * format.BytesPerPixel()
	}
	return Frame{
		Data:   make([]byte, FrameSize(format, width, height)),
		Width:  width,
		Height: height,
		Format: format,
		Stride: stride,
	}
}

// Empty reports whether the frame carries no pixel data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// Size returns the expected byte count for the frame's geometry.
func (f Frame) Size() int {
	if f.Format.Packed() {
		if f.Width <= 0 || f.Height <= 0 {
			return 0
		}
		return f.Stride * f.Height
	}
	return FrameSize(f.Format, f.Width, f.Height)
}

// Validate checks the frame invariants: non-empty data, positive
// dimensions, a stride wide enough for one row, and a buffer of exactly the
// size implied by the geometry.
func (f Frame) Validate() error {
	if f.Empty() {
		return fmt.Errorf("%w: empty frame", ErrInvalidGeometry)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, f.Width, f.Height)
	}
	if f.Format.Packed() && f.Stride < f.Width*f.Format.BytesPerPixel() {
		return fmt.Errorf("%w: stride %d too small for width %d", ErrInvalidGeometry, f.Stride, f.Width)
	}
	if want := f.Size(); want == 0 || len(f.Data) != want {
		return fmt.Errorf("%w: buffer has %d bytes, %s %dx%d needs %d",
			ErrInvalidGeometry, len(f.Data), f.Format, f.Width, f.Height, want)
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	c := f
	c.Data = append([]byte(nil), f.Data...)
	return c
}
