// Package mediareader implements the frame source: it owns one open media
// file, a demuxer and decoder pair for video containers or a decoded
// picture for BMP stills, and hands out independent frame copies.
package mediareader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/user/fakecam/pkg/bitmap"
	"github.com/user/fakecam/pkg/ports"
)

// Kind is the kind of media a Reader has open.
type Kind int

const (
	KindNone Kind = iota
	KindVideo
	KindStillImage
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindStillImage:
		return "still"
	default:
		return "none"
	}
}

// State is the lifecycle state of a Reader.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateReady
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	default:
		return "closed"
	}
}

// DefaultFrameRate is reported for videos whose container has no rate.
const DefaultFrameRate = 30.0

var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".3gp":  true,
	".mkv":  true,
	".webm": true,
	".ivf":  true,
}

var unimplementedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Options tunes a Reader.
type Options struct {
	// PollTimeout bounds each decoder dequeue attempt.
	PollTimeout time.Duration
	// MaxDimension rejects media wider or taller than this. 0 disables
	// the check.
	MaxDimension int
}

// DefaultOptions returns the default reader options.
func DefaultOptions() Options {
	return Options{
		PollTimeout:  10 * time.Millisecond,
		MaxDimension: 4096,
	}
}

// Info describes the open media.
type Info struct {
	Path       string
	Kind       Kind
	Width      int
	Height     int
	FrameRate  float64
	DurationUs int64
	HasAudio   bool
	// Format is the pixel layout of frames returned by NextFrame.
	Format ports.PixelFormat
}

// Reader is a frame source over one media file. All methods are serialized
// by a single lock, including the decode loop, so concurrent callers block
// rather than interleave.
type Reader struct {
	mu sync.Mutex

	codecs ports.CodecService
	fs     ports.FileSystem
	log    ports.Logger
	opts   Options

	state    State
	info     Info
	position int64

	extractor ports.Extractor
	decoder   ports.Decoder
	// frame holds the most recently decoded picture and is reused.
	frame []byte

	photo ports.Frame
}

// New creates a closed Reader.
func New(codecs ports.CodecService, fs ports.FileSystem, log ports.Logger, opts Options) *Reader {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultOptions().PollTimeout
	}
	return &Reader{
		codecs: codecs,
		fs:     fs,
		log:    log.WithComponent("mediareader"),
		opts:   opts,
	}
}

// Open closes any open media and opens path. Video containers are decoded
// up to their first frame before Open returns. On failure the Reader is
// left closed with every partially created resource released.
func (r *Reader) Open(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeLocked()
	r.state = StateOpening
	r.log.Debug("Opening %s", path)

	err := r.openLocked(ctx, path)
	if err != nil {
		r.closeLocked()
		r.log.Error("Failed to open %s: %v", path, err)
		return err
	}
	r.state = StateReady
	r.log.Info("Opened %s (%s %dx%d)", path, r.info.Kind, r.info.Width, r.info.Height)
	return nil
}

func (r *Reader) openLocked(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case videoExtensions[ext], ext == ".bmp":
	case unimplementedImageExtensions[ext]:
		return fmt.Errorf("%w: %s images are not implemented", ports.ErrUnsupportedFormat, ext)
	default:
		return fmt.Errorf("%w: unknown extension %q", ports.ErrUnsupportedFormat, ext)
	}

	exists, err := r.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ports.ErrIO, path, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s does not exist", ports.ErrIO, path)
	}

	if ext == ".bmp" {
		return r.openStill(path)
	}
	return r.openVideo(ctx, path)
}

func (r *Reader) openStill(path string) error {
	frame, err := bitmap.Load(r.fs, path)
	if err != nil {
		return err
	}
	if err := r.checkDimensions(frame.Width, frame.Height); err != nil {
		return err
	}
	r.photo = frame
	r.info = Info{
		Path:   path,
		Kind:   KindStillImage,
		Width:  frame.Width,
		Height: frame.Height,
		Format: ports.FormatRGB24,
	}
	return nil
}

func (r *Reader) openVideo(ctx context.Context, path string) error {
	ex, err := r.codecs.NewExtractor(path)
	if err != nil {
		return classify(err, ports.ErrIO)
	}
	r.extractor = ex

	videoTrack := -1
	hasAudio := false
	var format ports.TrackFormat
	for i := 0; i < ex.TrackCount(); i++ {
		tf, err := ex.TrackFormat(i)
		if err != nil {
			return classify(err, ports.ErrMalformedInput)
		}
		switch tf.MediaType {
		case ports.MediaTypeVideo:
			if videoTrack < 0 {
				videoTrack = i
				format = tf
			}
		case ports.MediaTypeAudio:
			hasAudio = true
		}
	}
	if videoTrack < 0 {
		return fmt.Errorf("%w in %s", ports.ErrNoTrackFound, path)
	}
	if err := r.checkDimensions(format.Width, format.Height); err != nil {
		return err
	}
	if err := ex.SelectTrack(videoTrack); err != nil {
		return classify(err, ports.ErrMalformedInput)
	}
	// Sample-size limits are known only once the track is indexed.
	if format, err = ex.TrackFormat(videoTrack); err != nil {
		return classify(err, ports.ErrMalformedInput)
	}

	frameRate := format.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	r.log.Debug("Video track %d: %s %dx%d %.2f fps, %d us", videoTrack, format.MIME, format.Width, format.Height, frameRate, format.DurationUs)
	if hasAudio {
		r.log.Debug("Audio track present")
	}

	dec, err := r.codecs.NewDecoder(format.MIME)
	if err != nil {
		return classify(err, ports.ErrCodecFailure)
	}
	r.decoder = dec
	if err := dec.Configure(format); err != nil {
		return classify(err, ports.ErrCodecFailure)
	}
	if err := dec.Start(); err != nil {
		return classify(err, ports.ErrCodecFailure)
	}

	r.info = Info{
		Path:       path,
		Kind:       KindVideo,
		Width:      format.Width,
		Height:     format.Height,
		FrameRate:  frameRate,
		DurationUs: format.DurationUs,
		HasAudio:   hasAudio,
		Format:     ports.FormatYUV420Planar,
	}
	r.frame = make([]byte, 0, ports.FrameSize(ports.FormatYUV420Planar, format.Width, format.Height))

	return r.decodeLocked(ctx)
}

func (r *Reader) checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ports.ErrMalformedInput, w, h)
	}
	if limit := r.opts.MaxDimension; limit > 0 && (w > limit || h > limit) {
		return fmt.Errorf("%w: %dx%d exceeds the %d pixel limit", ports.ErrMalformedInput, w, h, limit)
	}
	return nil
}

// NextFrame decodes the next picture and returns a copy of it. Video is
// returned as YUV420Planar and loops at end of stream. Stills return the
// same RGB24 picture every time.
func (r *Reader) NextFrame(ctx context.Context) (ports.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateReady {
		return ports.Frame{}, fmt.Errorf("next frame: %w", ports.ErrNotReady)
	}
	if r.info.Kind == KindStillImage {
		return r.photoLocked()
	}

	if err := r.decodeLocked(ctx); err != nil {
		return ports.Frame{}, err
	}

	want := ports.FrameSize(ports.FormatYUV420Planar, r.info.Width, r.info.Height)
	if len(r.frame) < want {
		return ports.Frame{}, fmt.Errorf("%w: decoded %d bytes, %dx%d needs %d",
			ports.ErrCodecFailure, len(r.frame), r.info.Width, r.info.Height, want)
	}
	return ports.Frame{
		Data:      append([]byte(nil), r.frame[:want]...),
		Width:     r.info.Width,
		Height:    r.info.Height,
		Format:    ports.FormatYUV420Planar,
		Stride:    r.info.Width,
		Timestamp: r.position,
	}, nil
}

// PhotoFrame returns a copy of the loaded still picture.
func (r *Reader) PhotoFrame() (ports.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.photoLocked()
}

func (r *Reader) photoLocked() (ports.Frame, error) {
	if r.photo.Empty() {
		return ports.Frame{}, fmt.Errorf("photo frame: %w: no image loaded", ports.ErrNotReady)
	}
	return r.photo.Clone(), nil
}

// SeekTo moves the demuxer to the closest sync sample at or before timeUs.
// It is only valid for open videos.
func (r *Reader) SeekTo(timeUs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateReady {
		return fmt.Errorf("seek: %w", ports.ErrNotReady)
	}
	if r.info.Kind != KindVideo {
		return fmt.Errorf("seek: %w: %s sources cannot seek", ports.ErrUnsupportedFormat, r.info.Kind)
	}
	if err := r.extractor.SeekTo(timeUs); err != nil {
		return classify(err, ports.ErrIO)
	}
	r.position = timeUs
	r.log.Debug("Seeked to %d us", timeUs)
	return nil
}

// Reset rewinds to the start of the video.
func (r *Reader) Reset() error {
	return r.SeekTo(0)
}

// Close releases the decoder, the demuxer and all buffers. Calling Close
// on a closed Reader is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return nil
}

func (r *Reader) closeLocked() {
	wasOpen := r.state == StateReady
	if r.decoder != nil {
		if err := r.decoder.Stop(); err != nil {
			r.log.Warn("Failed to stop decoder: %v", err)
		}
		r.decoder.Release()
		r.decoder = nil
	}
	if r.extractor != nil {
		if err := r.extractor.Close(); err != nil {
			r.log.Warn("Failed to close extractor: %v", err)
		}
		r.extractor = nil
	}
	if wasOpen {
		r.log.Debug("Closed %s", r.info.Path)
	}
	r.frame = nil
	r.photo = ports.Frame{}
	r.info = Info{}
	r.position = 0
	r.state = StateClosed
}

// IsReady reports whether media is open.
func (r *Reader) IsReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateReady
}

// State returns the lifecycle state.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Info describes the open media. ok is false when the Reader is closed.
func (r *Reader) Info() (info Info, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info, r.state == StateReady
}

// Position returns the presentation time of the last decoded frame, or
// the last seek target, in microseconds.
func (r *Reader) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// FrameRate returns the video frame rate, or 0 for stills and closed readers.
func (r *Reader) FrameRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateReady {
		return 0
	}
	return r.info.FrameRate
}

var taxonomy = []error{
	ports.ErrUnsupportedFormat,
	ports.ErrIO,
	ports.ErrMalformedInput,
	ports.ErrNoTrackFound,
	ports.ErrCodecFailure,
	ports.ErrNotReady,
	ports.ErrInvalidGeometry,
}

// classify wraps err in fallback unless it already carries a taxonomy
// sentinel.
func classify(err, fallback error) error {
	for _, sentinel := range taxonomy {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

var _ ports.FrameSource = (*Reader)(nil)
