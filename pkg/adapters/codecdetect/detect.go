// Package codecdetect identifies media containers from their leading
// bytes, so a mislabelled file is still routed to the right extractor.
package codecdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Container is a media container family.
type Container string

const (
	ContainerMP4      Container = "mp4"
	ContainerIVF      Container = "ivf"
	ContainerMatroska Container = "matroska"
	ContainerBMP      Container = "bmp"
	ContainerUnknown  Container = "unknown"
)

// sniffLen is enough for every signature below.
const sniffLen = 12

var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// DetectFromBytes identifies the container from the start of a file.
func DetectFromBytes(head []byte) Container {
	switch {
	case len(head) >= 4 && string(head[:4]) == "DKIF":
		return ContainerIVF
	case len(head) >= 4 && bytes.Equal(head[:4], ebmlMagic):
		return ContainerMatroska
	case len(head) >= 2 && string(head[:2]) == "BM":
		return ContainerBMP
	case len(head) >= 8 && isBoxType(string(head[4:8])):
		return ContainerMP4
	}
	return ContainerUnknown
}

// isBoxType reports whether t is a top-level ISO BMFF box seen at the
// start of MP4, MOV and 3GP files.
func isBoxType(t string) bool {
	switch t {
	case "ftyp", "moov", "mdat", "free", "skip", "wide", "styp":
		return true
	}
	return false
}

// DetectFromReader reads up to the first bytes of r.
func DetectFromReader(r io.Reader) (Container, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ContainerUnknown, fmt.Errorf("read header: %w", err)
	}
	return DetectFromBytes(head[:n]), nil
}

// DetectFromFile opens path and identifies its container.
func DetectFromFile(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContainerUnknown, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return DetectFromReader(f)
}
