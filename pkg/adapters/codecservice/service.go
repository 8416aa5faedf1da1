// Package codecservice implements ports.CodecService. It picks an extractor
// from the container, remuxing Matroska and WebM first, and hands out
// ffmpeg-backed decoders.
package codecservice

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/user/fakecam/pkg/adapters/codecdetect"
	"github.com/user/fakecam/pkg/adapters/ffmpegcodec"
	"github.com/user/fakecam/pkg/adapters/ivfextractor"
	"github.com/user/fakecam/pkg/adapters/mp4extractor"
	"github.com/user/fakecam/pkg/adapters/remux"
	"github.com/user/fakecam/pkg/ports"
)

// Options configures the service.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
	// RemuxTimeout bounds one ffprobe plus ffmpeg remux. Zero means no limit.
	RemuxTimeout time.Duration
}

// Service opens extractors and decoders for the media reader.
type Service struct {
	fs   ports.FileSystem
	log  ports.Logger
	opts Options

	once     sync.Once
	remuxer  *remux.Remuxer
	remuxErr error
}

// New creates a Service. ffmpeg is located lazily, on the first decoder
// or remux request.
func New(fs ports.FileSystem, log ports.Logger, opts Options) *Service {
	return &Service{fs: fs, log: log, opts: opts}
}

// NewExtractor opens path with the extractor for its container. The
// container is sniffed from the file and the extension is the fallback.
func (s *Service) NewExtractor(path string) (ports.Extractor, error) {
	container, err := codecdetect.DetectFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	if container == codecdetect.ContainerUnknown {
		container = containerForExt(filepath.Ext(path))
	}

	switch container {
	case codecdetect.ContainerMP4:
		return mp4extractor.Open(path)
	case codecdetect.ContainerIVF:
		return ivfextractor.Open(path)
	case codecdetect.ContainerMatroska:
		return s.openRemuxed(path)
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedFormat, path)
}

func containerForExt(ext string) codecdetect.Container {
	switch strings.ToLower(ext) {
	case ".mp4", ".m4v", ".mov", ".3gp":
		return codecdetect.ContainerMP4
	case ".ivf":
		return codecdetect.ContainerIVF
	case ".mkv", ".webm":
		return codecdetect.ContainerMatroska
	}
	return codecdetect.ContainerUnknown
}

func (s *Service) openRemuxed(path string) (ports.Extractor, error) {
	r, err := s.remux()
	if err != nil {
		return nil, fmt.Errorf("%w: matroska input needs ffmpeg: %v", ports.ErrCodecFailure, err)
	}

	ctx := context.Background()
	if s.opts.RemuxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RemuxTimeout)
		defer cancel()
	}
	res, err := r.Remux(ctx, path)
	if err != nil {
		return nil, err
	}

	var inner ports.Extractor
	switch res.Ext {
	case ".ivf":
		inner, err = ivfextractor.Open(res.Path)
	default:
		inner, err = mp4extractor.Open(res.Path)
	}
	if err != nil {
		if rmErr := s.fs.Remove(res.Path); rmErr != nil {
			s.log.Warn("Failed to remove %s: %v", res.Path, rmErr)
		}
		return nil, err
	}
	return r.NewExtractor(inner, res), nil
}

func (s *Service) remux() (*remux.Remuxer, error) {
	s.once.Do(func() {
		s.remuxer, s.remuxErr = remux.New(s.fs, s.log, remux.Options{
			FFmpegPath:  s.opts.FFmpegPath,
			FFprobePath: s.opts.FFprobePath,
		})
	})
	return s.remuxer, s.remuxErr
}

// NewDecoder returns an unconfigured ffmpeg decoder for mime.
func (s *Service) NewDecoder(mime string) (ports.Decoder, error) {
	d, err := ffmpegcodec.New(mime, ffmpegcodec.Options{
		FFmpegPath: s.opts.FFmpegPath,
		Logger:     s.log,
	})
	if err != nil {
		if errors.Is(err, ffmpegcodec.ErrUnsupportedCodec) || errors.Is(err, ffmpegcodec.ErrToolNotFound) {
			return nil, fmt.Errorf("%w: %v", ports.ErrCodecFailure, err)
		}
		return nil, err
	}
	return d, nil
}

// Supports reports whether a decoder can be created for mime.
func Supports(mime string) bool {
	return ffmpegcodec.Supports(mime)
}

var _ ports.CodecService = (*Service)(nil)
