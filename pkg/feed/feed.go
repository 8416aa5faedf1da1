// Package feed turns a FrameSource into a camera feed: every frame is
// normalized to RGB24, oriented, fitted to the consumer's resolution and
// converted to the consumer's pixel format.
package feed

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/user/fakecam/pkg/pipeline"
	"github.com/user/fakecam/pkg/ports"
)

// Config describes what the consumer expects.
type Config struct {
	// Width and Height of delivered frames. Zero keeps the source size.
	Width  int
	Height int
	// Format of delivered frames.
	Format ports.PixelFormat
	// MaintainAspect letterboxes instead of stretching.
	MaintainAspect bool
	// FrontCamera mirrors and rotates 90 degrees clockwise, the way a
	// front sensor is mounted.
	FrontCamera bool
	// Rotation in degrees clockwise: 0, 90, 180 or 270.
	Rotation int
	// Mirror flips horizontally after rotation.
	Mirror bool
	// FPS paces Run. Zero uses the source's frame rate; negative disables
	// pacing.
	FPS float64
}

// DefaultConfig keeps the source size and delivers NV21.
func DefaultConfig() Config {
	return Config{Format: ports.FormatNV21, MaintainAspect: true}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Width < 0 || c.Height < 0 || (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("%w: output size %dx%d", ports.ErrInvalidGeometry, c.Width, c.Height)
	}
	switch c.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("%w: rotation %d", ports.ErrInvalidGeometry, c.Rotation)
	}
	if c.Format.String() == "unknown" {
		return fmt.Errorf("%w: output format %d", ports.ErrUnsupportedFormat, c.Format)
	}
	return nil
}

// Feed pulls frames from one source. Methods are safe for concurrent use;
// frames are produced one at a time.
type Feed struct {
	src   ports.FrameSource
	cfg   Config
	chain *pipeline.Chain[ports.Frame]
	log   ports.Logger

	mu       sync.Mutex
	produced int
}

// New creates a Feed.
func New(src ports.FrameSource, cfg Config, log ports.Logger) (*Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Feed{
		src:   src,
		cfg:   cfg,
		chain: buildChain(cfg),
		log:   log.WithComponent("feed"),
	}, nil
}

// Stages returns the names of the transform stages in order.
func (f *Feed) Stages() []string {
	return f.chain.Names()
}

// Next pulls one frame from the source and transforms it.
func (f *Feed) Next(ctx context.Context) (ports.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	frame, err := f.src.NextFrame(ctx)
	if err != nil {
		return ports.Frame{}, err
	}
	out, err := f.chain.Execute(ctx, frame)
	if err != nil {
		return ports.Frame{}, err
	}
	f.produced++
	return out, nil
}

// Inject overwrites dst with the next frame, as a camera hook would fill
// the consumer's preview buffer. It copies min(len(dst), frame size)
// bytes and returns the count.
func (f *Feed) Inject(ctx context.Context, dst []byte) (int, error) {
	frame, err := f.Next(ctx)
	if err != nil {
		return 0, err
	}
	return copy(dst, frame.Data), nil
}

// Produced returns the number of frames produced so far.
func (f *Feed) Produced() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.produced
}

func (f *Feed) rate() float64 {
	if f.cfg.FPS != 0 {
		return f.cfg.FPS
	}
	return f.src.FrameRate()
}

// Run delivers n frames to sink, or frames until ctx is done when n <= 0,
// paced at the feed's frame rate. It returns the number delivered. A
// cancelled context ends an unbounded run without error.
func (f *Feed) Run(ctx context.Context, sink ports.FrameSink, n int) (int, error) {
	fps := f.rate()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if fps > 0 {
		limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
	f.log.Info("Feeding %d frames at %.1f fps", n, fps)

	delivered := 0
	for n <= 0 || delivered < n {
		if err := limiter.Wait(ctx); err != nil {
			// Wait also fails early when the next token is due after the
			// deadline; an unbounded run still lasts until ctx is done.
			if n <= 0 {
				<-ctx.Done()
				err = nil
			}
			return f.stopped(delivered, err)
		}
		frame, err := f.Next(ctx)
		if err == nil {
			err = sink.Deliver(ctx, frame)
		}
		if err != nil {
			if n <= 0 && ctx.Err() != nil {
				err = nil
			}
			return f.stopped(delivered, err)
		}
		f.log.Debug("Delivered frame %d (%d us)", delivered, frame.Timestamp)
		delivered++
	}
	return f.stopped(delivered, nil)
}

func (f *Feed) stopped(delivered int, err error) (int, error) {
	f.log.Info("Feed stopped after %d frames", delivered)
	return delivered, err
}
