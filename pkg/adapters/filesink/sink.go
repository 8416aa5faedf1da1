// Package filesink provides a FrameSink that writes every delivered frame
// to a directory. RGB frames become BMP files; NV21 and YUV420Planar frames
// are written raw so their exact bytes can be inspected.
package filesink

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/user/fakecam/pkg/frameutil"
	"github.com/user/fakecam/pkg/ports"
)

// Sink saves frames to files named <prefix>-NNNN.<ext>.
type Sink struct {
	baseDir string
	prefix  string
	fs      ports.FileSystem
	log     ports.Logger

	mu      sync.Mutex
	index   int
	dirMade bool
	paths   []string
}

// New creates a Sink writing into baseDir.
func New(baseDir string, fs ports.FileSystem, log ports.Logger) *Sink {
	return &Sink{
		baseDir: baseDir,
		prefix:  "frame",
		fs:      fs,
		log:     log.WithComponent("filesink"),
	}
}

// WithPrefix sets the file name prefix.
func (s *Sink) WithPrefix(prefix string) *Sink {
	s.prefix = prefix
	return s
}

// Extension returns the file extension used for format.
func Extension(format ports.PixelFormat) string {
	switch format {
	case ports.FormatNV21:
		return ".nv21"
	case ports.FormatYUV420Planar:
		return ".yuv"
	default:
		return ".bmp"
	}
}

// EncodeBMP encodes an RGB24 or RGBA32 frame as BMP.
func EncodeBMP(frame ports.Frame) ([]byte, error) {
	if !frame.Format.Packed() {
		return nil, fmt.Errorf("%w: bmp from %s", ports.ErrUnsupportedFormat, frame.Format)
	}
	img, err := frameutil.ToImage(frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode bmp: %w", err)
	}
	return buf.Bytes(), nil
}

// Deliver writes frame to the next file.
func (s *Sink) Deliver(ctx context.Context, frame ports.Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	var data []byte
	if frame.Format.Packed() {
		var err error
		if data, err = EncodeBMP(frame); err != nil {
			return err
		}
	} else {
		data = frame.Data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirMade {
		if err := s.fs.MkdirAll(s.baseDir); err != nil {
			return fmt.Errorf("%w: %v", ports.ErrIO, err)
		}
		s.dirMade = true
	}
	path := filepath.Join(s.baseDir, fmt.Sprintf("%s-%04d%s", s.prefix, s.index, Extension(frame.Format)))
	if err := s.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	s.index++
	s.paths = append(s.paths, path)
	s.log.Debug("Wrote %s", path)
	return nil
}

// Paths returns the files written so far.
func (s *Sink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Close does nothing; every frame is written when delivered.
func (s *Sink) Close() error {
	return nil
}

var _ ports.FrameSink = (*Sink)(nil)
