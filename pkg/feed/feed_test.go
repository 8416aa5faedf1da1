package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/fakecam/pkg/adapters/logger"
	"github.com/user/fakecam/pkg/mocks"
	"github.com/user/fakecam/pkg/ports"
)

func rgbFrame(w, h int, pixels ...byte) ports.Frame {
	f := ports.NewFrame(ports.FormatRGB24, w, h)
	copy(f.Data, pixels)
	return f
}

func solid(w, h int, r, g, b byte) ports.Frame {
	f := ports.NewFrame(ports.FormatRGB24, w, h)
	for i := 0; i < len(f.Data); i += 3 {
		f.Data[i], f.Data[i+1], f.Data[i+2] = r, g, b
	}
	return f
}

func newFeed(t *testing.T, src ports.FrameSource, cfg Config) *Feed {
	t.Helper()
	f, err := New(src, cfg, logger.NewNoop())
	require.NoError(t, err)
	return f
}

func rgbConfig() Config {
	return Config{Format: ports.FormatRGB24}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"explicit size", func(c *Config) { c.Width, c.Height = 640, 480 }, nil},
		{"negative width", func(c *Config) { c.Width, c.Height = -1, 480 }, ports.ErrInvalidGeometry},
		{"width only", func(c *Config) { c.Width = 640 }, ports.ErrInvalidGeometry},
		{"bad rotation", func(c *Config) { c.Rotation = 45 }, ports.ErrInvalidGeometry},
		{"bad format", func(c *Config) { c.Format = ports.PixelFormat(42) }, ports.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStagesSkipNoOps(t *testing.T) {
	src := &mocks.FrameSource{}
	assert.Equal(t, []string{"normalize"}, newFeed(t, src, rgbConfig()).Stages())

	cfg := Config{Width: 8, Height: 8, Format: ports.FormatNV21, Mirror: true}
	assert.Equal(t, []string{"normalize", "orient", "resize", "output"}, newFeed(t, src, cfg).Stages())
}

func TestNextPassesRGBThrough(t *testing.T) {
	frame := rgbFrame(2, 1, 1, 2, 3, 4, 5, 6)
	frame.Timestamp = 1234
	f := newFeed(t, &mocks.FrameSource{Frames: []ports.Frame{frame}}, rgbConfig())

	got, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, frame.Data, got.Data)
	assert.Equal(t, int64(1234), got.Timestamp)
	assert.Equal(t, 1, f.Produced())
}

func TestNextConvertsDecoderOutput(t *testing.T) {
	// BT.601 studio-swing red.
	yuv := ports.NewFrame(ports.FormatYUV420Planar, 4, 4)
	for i := 0; i < 16; i++ {
		yuv.Data[i] = 82
	}
	for i := 16; i < 20; i++ {
		yuv.Data[i] = 90
	}
	for i := 20; i < 24; i++ {
		yuv.Data[i] = 240
	}
	f := newFeed(t, &mocks.FrameSource{Frames: []ports.Frame{yuv}}, rgbConfig())

	got, err := f.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.FormatRGB24, got.Format)
	for i := 0; i < len(got.Data); i += 3 {
		assert.GreaterOrEqual(t, got.Data[i], byte(240), "red at %d", i)
		assert.LessOrEqual(t, got.Data[i+1], byte(15), "green at %d", i)
		assert.LessOrEqual(t, got.Data[i+2], byte(15), "blue at %d", i)
	}
}

func TestNextOrients(t *testing.T) {
	a := []byte{10, 11, 12}
	b := []byte{20, 21, 22}
	frame := rgbFrame(2, 1, append(append([]byte{}, a...), b...)...)

	tests := []struct {
		name  string
		cfg   Config
		wantW int
		wantH int
		want  []byte
	}{
		{"front camera", Config{Format: ports.FormatRGB24, FrontCamera: true}, 1, 2, append(append([]byte{}, b...), a...)},
		{"rotate 90", Config{Format: ports.FormatRGB24, Rotation: 90}, 1, 2, append(append([]byte{}, a...), b...)},
		{"rotate 180", Config{Format: ports.FormatRGB24, Rotation: 180}, 2, 1, append(append([]byte{}, b...), a...)},
		{"mirror", Config{Format: ports.FormatRGB24, Mirror: true}, 2, 1, append(append([]byte{}, b...), a...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mocks.FrameSource{Frames: []ports.Frame{frame}}
			got, err := newFeed(t, src, tt.cfg).Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, got.Width)
			assert.Equal(t, tt.wantH, got.Height)
			assert.Equal(t, tt.want, got.Data)
		})
	}
	// The source's frame is never modified.
	assert.Equal(t, append(append([]byte{}, a...), b...), frame.Data)
}

func TestNextLetterboxesToRGBA(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(4, 2, 255, 0, 0)}}
	cfg := Config{Width: 4, Height: 4, Format: ports.FormatRGBA32, MaintainAspect: true}

	got, err := newFeed(t, src, cfg).Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, ports.FormatRGBA32, got.Format)
	require.Len(t, got.Data, 4*4*4)

	row := func(y int) []byte { return got.Data[y*16 : (y+1)*16] }
	for x := 0; x < 4; x++ {
		assert.Equal(t, []byte{0, 0, 0, 255}, row(0)[x*4:x*4+4], "top bar")
		assert.Equal(t, []byte{255, 0, 0, 255}, row(1)[x*4:x*4+4], "picture")
		assert.Equal(t, []byte{255, 0, 0, 255}, row(2)[x*4:x*4+4], "picture")
		assert.Equal(t, []byte{0, 0, 0, 255}, row(3)[x*4:x*4+4], "bottom bar")
	}
}

func TestNextToNV21(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(6, 4, 16, 128, 240)}}
	got, err := newFeed(t, src, Config{Format: ports.FormatNV21}).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ports.FormatNV21, got.Format)
	assert.Len(t, got.Data, 6*4*3/2)
	assert.Equal(t, byte(108), got.Data[0])
	// V comes first in each NV21 chroma pair.
	assert.Equal(t, byte(71), got.Data[24])
	assert.Equal(t, byte(194), got.Data[25])
}

func TestNextErrors(t *testing.T) {
	rgba := ports.NewFrame(ports.FormatRGBA32, 2, 2)
	f := newFeed(t, &mocks.FrameSource{Frames: []ports.Frame{rgba}}, rgbConfig())
	_, err := f.Next(context.Background())
	assert.ErrorIs(t, err, ports.ErrUnsupportedFormat)

	f = newFeed(t, &mocks.FrameSource{}, rgbConfig())
	_, err = f.Next(context.Background())
	assert.ErrorIs(t, err, ports.ErrNotReady)
	assert.Equal(t, 0, f.Produced())
}

func TestInject(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{rgbFrame(2, 1, 1, 2, 3, 4, 5, 6)}}
	f := newFeed(t, src, rgbConfig())

	small := make([]byte, 4)
	n, err := f.Inject(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, small)

	large := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	n, err = f.Inject(context.Background(), large)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 9, 9}, large)
}

func TestRunDeliversN(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(2, 2, 1, 2, 3)}, Rate: 30}
	sink := &mocks.FrameSink{}
	cfg := rgbConfig()
	cfg.FPS = -1

	n, err := newFeed(t, src, cfg).Run(context.Background(), sink, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, sink.Delivered(), 3)
	assert.Equal(t, 3, src.Calls)
}

func TestRunPaces(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(2, 2, 1, 2, 3)}, Rate: 50}
	sink := &mocks.FrameSink{}

	start := time.Now()
	n, err := newFeed(t, src, rgbConfig()).Run(context.Background(), sink, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	// One burst token, then 20 ms per frame.
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRunUnboundedStopsOnContext(t *testing.T) {
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(2, 2, 1, 2, 3)}}
	sink := &mocks.FrameSink{}
	cfg := rgbConfig()
	cfg.FPS = 200

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	n, err := newFeed(t, src, cfg).Run(ctx, sink, 0)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Len(t, sink.Delivered(), n)
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("sink full")
	src := &mocks.FrameSource{Frames: []ports.Frame{solid(2, 2, 1, 2, 3)}}
	calls := 0
	sink := &mocks.FrameSink{DeliverFunc: func(ctx context.Context, frame ports.Frame) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	}}
	cfg := rgbConfig()
	cfg.FPS = -1

	n, err := newFeed(t, src, cfg).Run(context.Background(), sink, 5)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)

	failing := &mocks.FrameSource{NextFrameFunc: func(ctx context.Context) (ports.Frame, error) {
		return ports.Frame{}, ports.ErrCodecFailure
	}}
	n, err = newFeed(t, failing, cfg).Run(context.Background(), &mocks.FrameSink{}, 0)
	assert.ErrorIs(t, err, ports.ErrCodecFailure)
	assert.Equal(t, 0, n)
}
