// Package bitmap loads uncompressed 24 and 32 bit BMP images into RGB24
// frames.
package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/user/fakecam/pkg/ports"
)

const (
	signature      = 0x4D42 // "BM"
	fileHeaderSize = 14
	infoHeaderSize = 40
	compressionRGB = 0
)

// fileHeader is the 14 byte BITMAPFILEHEADER.
type fileHeader struct {
	Signature  uint16
	FileSize   uint32
	Reserved1  uint16
	Reserved2  uint16
	DataOffset uint32
}

// infoHeader is the 40 byte BITMAPINFOHEADER.
type infoHeader struct {
	HeaderSize      uint32
	Width           int32
	Height          int32
	Planes          uint16
	BitsPerPixel    uint16
	Compression     uint32
	ImageSize       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Header describes a parsed BMP.
type Header struct {
	Width        int
	Height       int
	BitsPerPixel int
	// BottomUp is true when rows are stored last row first.
	BottomUp bool
	// RowSize is the on-disk row length including padding.
	RowSize    int
	DataOffset int
}

// RowSize returns the padded on-disk row length for width pixels at bpp bits.
func RowSize(width, bpp int) int {
	return (width*bpp + 31) / 32 * 4
}

// ParseHeader validates the file and info headers of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < fileHeaderSize+infoHeaderSize {
		return Header{}, fmt.Errorf("%w: bmp: %d bytes is shorter than the headers", ports.ErrMalformedInput, len(data))
	}

	r := bytes.NewReader(data)
	var fh fileHeader
	var ih infoHeader
	if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
		return Header{}, fmt.Errorf("%w: bmp: file header: %v", ports.ErrMalformedInput, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &ih); err != nil {
		return Header{}, fmt.Errorf("%w: bmp: info header: %v", ports.ErrMalformedInput, err)
	}

	if fh.Signature != signature {
		return Header{}, fmt.Errorf("%w: bmp: bad signature 0x%04X", ports.ErrMalformedInput, fh.Signature)
	}
	if ih.HeaderSize < infoHeaderSize {
		return Header{}, fmt.Errorf("%w: bmp: info header size %d", ports.ErrMalformedInput, ih.HeaderSize)
	}
	if ih.BitsPerPixel != 24 && ih.BitsPerPixel != 32 {
		return Header{}, fmt.Errorf("%w: bmp: unsupported bit depth %d", ports.ErrMalformedInput, ih.BitsPerPixel)
	}
	if ih.Compression != compressionRGB {
		return Header{}, fmt.Errorf("%w: bmp: compression %d is not supported", ports.ErrMalformedInput, ih.Compression)
	}
	if ih.Width <= 0 || ih.Height == 0 || ih.Height == math.MinInt32 {
		return Header{}, fmt.Errorf("%w: bmp: invalid size %dx%d", ports.ErrMalformedInput, ih.Width, ih.Height)
	}

	h := Header{
		Width:        int(ih.Width),
		Height:       int(ih.Height),
		BitsPerPixel: int(ih.BitsPerPixel),
		BottomUp:     ih.Height > 0,
		DataOffset:   int(fh.DataOffset),
	}
	if !h.BottomUp {
		h.Height = -h.Height
	}
	h.RowSize = RowSize(h.Width, h.BitsPerPixel)

	need := h.DataOffset + h.RowSize*h.Height
	if h.DataOffset < fileHeaderSize+infoHeaderSize || need > len(data) {
		return Header{}, fmt.Errorf("%w: bmp: pixel data at %d needs %d bytes, file has %d",
			ports.ErrMalformedInput, h.DataOffset, need, len(data))
	}
	return h, nil
}

// Decode parses a BMP held in memory and returns a top-down RGB24 frame
// with timestamp 0. Alpha is dropped.
func Decode(data []byte) (ports.Frame, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return ports.Frame{}, err
	}

	frame := ports.NewFrame(ports.FormatRGB24, h.Width, h.Height)
	srcBpp := h.BitsPerPixel / 8
	pixels := data[h.DataOffset:]
	for y := 0; y < h.Height; y++ {
		srcRow := y
		if h.BottomUp {
			srcRow = h.Height - 1 - y
		}
		src := pixels[srcRow*h.RowSize:]
		dst := frame.Data[y*frame.Stride:]
		for x := 0; x < h.Width; x++ {
			s := x * srcBpp
			dst[x*3] = src[s+2]
			dst[x*3+1] = src[s+1]
			dst[x*3+2] = src[s]
		}
	}
	return frame, nil
}

// Load reads and decodes the BMP at path.
func Load(fs ports.FileSystem, path string) (ports.Frame, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return ports.Frame{}, fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	return Decode(data)
}
