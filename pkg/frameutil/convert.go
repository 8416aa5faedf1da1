package frameutil

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// ConvertFormat returns src converted to target. Matching formats yield a
// copy. The supported conversions are RGB24 to NV21, RGB24 to YUV420Planar
// and NV21 to RGB24; every other pair fails with ErrUnsupportedFormat.
func ConvertFormat(src ports.Frame, target ports.PixelFormat) (ports.Frame, error) {
	if err := src.Validate(); err != nil {
		return ports.Frame{}, fmt.Errorf("convert: %w", err)
	}
	if src.Format == target {
		return src.Clone(), nil
	}

	var out ports.Frame
	switch {
	case src.Format == ports.FormatRGB24 && target == ports.FormatNV21:
		out = ports.NewFrame(ports.FormatNV21, src.Width, src.Height)
		RGBToNV21(tightRows(src), out.Data, src.Width, src.Height)
	case src.Format == ports.FormatRGB24 && target == ports.FormatYUV420Planar:
		out = ports.NewFrame(ports.FormatYUV420Planar, src.Width, src.Height)
		RGBToYUV420(tightRows(src), out.Data, src.Width, src.Height)
	case src.Format == ports.FormatNV21 && target == ports.FormatRGB24:
		out = ports.NewFrame(ports.FormatRGB24, src.Width, src.Height)
		NV21ToRGB(src.Data, out.Data, src.Width, src.Height)
	default:
		return ports.Frame{}, fmt.Errorf("convert: %w: %s to %s", ports.ErrUnsupportedFormat, src.Format, target)
	}
	out.Timestamp = src.Timestamp
	return out, nil
}

// BT.601 limited-range integer coefficients.
func rgbToY(r, g, b int) byte {
	return clampByte(((66*r + 129*g + 25*b + 128) >> 8) + 16)
}

func rgbToU(r, g, b int) byte {
	return clampByte(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
}

func rgbToV(r, g, b int) byte {
	return clampByte(((112*r - 94*g - 18*b + 128) >> 8) + 128)
}

// RGBToNV21 converts tightly packed RGB24 into NV21. dst must hold
// ports.FrameSize(FormatNV21, width, height) bytes. Chroma is taken from
// the top-left pixel of each 2x2 block.
func RGBToNV21(rgb, dst []byte, width, height int) {
	cw, _ := ports.ChromaSize(width, height)
	lumaSize := width * height
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			r, g, b := int(rgb[i]), int(rgb[i+1]), int(rgb[i+2])
			dst[y*width+x] = rgbToY(r, g, b)
			if y%2 == 0 && x%2 == 0 {
				vu := lumaSize + (y/2)*cw*2 + (x/2)*2
				dst[vu] = rgbToV(r, g, b)
				dst[vu+1] = rgbToU(r, g, b)
			}
		}
	}
}

// RGBToYUV420 converts tightly packed RGB24 into I420 (Y, then U, then V).
func RGBToYUV420(rgb, dst []byte, width, height int) {
	cw, ch := ports.ChromaSize(width, height)
	lumaSize := width * height
	uPlane := dst[lumaSize : lumaSize+cw*ch]
	vPlane := dst[lumaSize+cw*ch : lumaSize+2*cw*ch]
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			r, g, b := int(rgb[i]), int(rgb[i+1]), int(rgb[i+2])
			dst[y*width+x] = rgbToY(r, g, b)
			if y%2 == 0 && x%2 == 0 {
				c := (y/2)*cw + x/2
				uPlane[c] = rgbToU(r, g, b)
				vPlane[c] = rgbToV(r, g, b)
			}
		}
	}
}

// NV21ToRGB converts NV21 into tightly packed RGB24. Each pixel uses the
// chroma pair of the 2x2 block it belongs to.
func NV21ToRGB(nv21, rgb []byte, width, height int) {
	cw, _ := ports.ChromaSize(width, height)
	lumaSize := width * height
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := int(nv21[y*width+x]) - 16
			vu := lumaSize + (y/2)*cw*2 + (x/2)*2
			v := int(nv21[vu]) - 128
			u := int(nv21[vu+1]) - 128

			o := (y*width + x) * 3
			rgb[o] = clampByte((298*c + 409*v + 128) >> 8)
			rgb[o+1] = clampByte((298*c - 100*u - 208*v + 128) >> 8)
			rgb[o+2] = clampByte((298*c + 516*u + 128) >> 8)
		}
	}
}

// I420ToNV21 repacks a YUV420Planar frame as NV21 without touching sample
// values.
func I420ToNV21(src ports.Frame) (ports.Frame, error) {
	if err := src.Validate(); err != nil {
		return ports.Frame{}, fmt.Errorf("repack: %w", err)
	}
	if src.Format != ports.FormatYUV420Planar {
		return ports.Frame{}, fmt.Errorf("repack: %w: %s to %s", ports.ErrUnsupportedFormat, src.Format, ports.FormatNV21)
	}

	out := ports.NewFrame(ports.FormatNV21, src.Width, src.Height)
	out.Timestamp = src.Timestamp
	lumaSize := src.Width * src.Height
	cw, ch := ports.ChromaSize(src.Width, src.Height)
	chromaSize := cw * ch
	copy(out.Data[:lumaSize], src.Data[:lumaSize])

	u := src.Data[lumaSize : lumaSize+chromaSize]
	v := src.Data[lumaSize+chromaSize : lumaSize+2*chromaSize]
	vu := out.Data[lumaSize:]
	for i := 0; i < chromaSize; i++ {
		vu[2*i] = v[i]
		vu[2*i+1] = u[i]
	}
	return out, nil
}

// RGBToRGBA widens an RGB24 frame to opaque RGBA32.
func RGBToRGBA(src ports.Frame) (ports.Frame, error) {
	if err := src.Validate(); err != nil {
		return ports.Frame{}, fmt.Errorf("widen: %w", err)
	}
	if src.Format != ports.FormatRGB24 {
		return ports.Frame{}, fmt.Errorf("widen: %w: %s to %s", ports.ErrUnsupportedFormat, src.Format, ports.FormatRGBA32)
	}
	out := ports.NewFrame(ports.FormatRGBA32, src.Width, src.Height)
	out.Timestamp = src.Timestamp
	for y := 0; y < src.Height; y++ {
		row := src.Data[y*src.Stride:]
		dst := out.Data[y*out.Stride:]
		for x := 0; x < src.Width; x++ {
			dst[x*4] = row[x*3]
			dst[x*4+1] = row[x*3+1]
			dst[x*4+2] = row[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return out, nil
}
