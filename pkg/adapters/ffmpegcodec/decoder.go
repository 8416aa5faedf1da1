// Package ffmpegcodec implements ports.Decoder with a long-running ffmpeg
// process. Compressed samples are written to its stdin, as an Annex B
// elementary stream for H.264 and H.265 or IVF framed for VP8, VP9 and
// AV1, and raw yuv420p pictures are read back from its stdout.
package ffmpegcodec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/user/fakecam/pkg/ports"
)

var (
	// ErrToolNotFound is returned when ffmpeg or ffprobe cannot be located.
	ErrToolNotFound = errors.New("ffmpegcodec: ffmpeg not found in PATH")

	// ErrUnsupportedCodec is returned for codecs ffmpeg is not fed here.
	ErrUnsupportedCodec = errors.New("ffmpegcodec: unsupported codec")

	// ErrNotConfigured is returned when Start precedes Configure.
	ErrNotConfigured = errors.New("ffmpegcodec: decoder not configured")

	// ErrNotStarted is returned for buffer operations before Start.
	ErrNotStarted = errors.New("ffmpegcodec: decoder not started")

	// ErrProcessExited is returned once the ffmpeg process has gone away.
	ErrProcessExited = errors.New("ffmpegcodec: ffmpeg exited")

	// ErrBadIndex is returned for buffer indices that are out of range or
	// not currently owned by the caller.
	ErrBadIndex = errors.New("ffmpegcodec: invalid buffer index")
)

const (
	defaultInputSize = 2 << 20
	inputSlots       = 4
	outputSlots      = 4
	ivfTimebaseRate  = 30
	stderrTailBytes  = 4096
)

// inputCodec maps a MIME type to the ffmpeg demuxer reading stdin and, for
// IVF, the fourcc to put in the file header.
type inputCodec struct {
	demuxer string
	fourcc  string
}

var inputCodecs = map[string]inputCodec{
	ports.MIMEVideoAVC:  {demuxer: "h264"},
	ports.MIMEVideoHEVC: {demuxer: "hevc"},
	ports.MIMEVideoVP8:  {demuxer: "ivf", fourcc: "VP80"},
	ports.MIMEVideoVP9:  {demuxer: "ivf", fourcc: "VP90"},
	ports.MIMEVideoAV1:  {demuxer: "ivf", fourcc: "AV01"},
}

// Supports reports whether mime can be decoded.
func Supports(mime string) bool {
	_, ok := inputCodecs[mime]
	return ok
}

// Options configures a Decoder.
type Options struct {
	// FFmpegPath overrides ffmpeg discovery.
	FFmpegPath string
	Logger     ports.Logger
}

type queuedInput struct {
	index int
	size  int
	eos   bool
}

// Decoder is a ports.Decoder backed by an ffmpeg process.
type Decoder struct {
	opts  Options
	log   ports.Logger
	codec inputCodec
	mime  string

	mu         sync.Mutex
	configured bool
	started    bool
	format     ports.TrackFormat
	frameSize  int
	formatSent bool

	inputs      [][]byte
	freeInputs  chan int
	queued      chan queuedInput
	outputs     [][]byte
	outputPTS   []int64
	freeOutputs chan int
	ready       chan int
	pts         ptsQueue

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	cancel    context.CancelFunc
	done      chan struct{}
	exitErr   error
	stderr    *tailBuffer
	ivfFrames uint64
}

// New creates a decoder for mime.
func New(mime string, opts Options) (*Decoder, error) {
	codec, ok := inputCodecs[mime]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, mime)
	}
	d := &Decoder{opts: opts, codec: codec, mime: mime}
	if opts.Logger != nil {
		d.log = opts.Logger.WithComponent("ffmpegcodec")
	}
	return d, nil
}

// Configure prepares buffers for a track. The decoder must be stopped.
func (d *Decoder) Configure(format ports.TrackFormat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("ffmpegcodec: configure while running")
	}
	if format.MIME != "" && format.MIME != d.mime {
		return fmt.Errorf("%w: decoder for %s given %s", ErrUnsupportedCodec, d.mime, format.MIME)
	}
	if format.Width <= 0 || format.Height <= 0 {
		return fmt.Errorf("ffmpegcodec: invalid size %dx%d", format.Width, format.Height)
	}

	inputSize := format.MaxInputSize
	if inputSize <= 0 {
		inputSize = defaultInputSize
	}
	d.inputs = make([][]byte, inputSlots)
	for i := range d.inputs {
		d.inputs[i] = make([]byte, inputSize)
	}

	d.format = ports.TrackFormat{
		MIME:        "video/raw",
		MediaType:   ports.MediaTypeVideo,
		Width:       format.Width,
		Height:      format.Height,
		FrameRate:   format.FrameRate,
		DurationUs:  format.DurationUs,
		ColorFormat: ports.ColorFormatYUV420Planar,
	}
	d.frameSize = ports.FrameSize(ports.FormatYUV420Planar, format.Width, format.Height)
	d.outputs = make([][]byte, outputSlots)
	for i := range d.outputs {
		d.outputs[i] = make([]byte, d.frameSize)
	}
	d.outputPTS = make([]int64, outputSlots)
	d.configured = true
	return nil
}

func (d *Decoder) args() []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-probesize", "32", "-analyzeduration", "0",
		"-fflags", "nobuffer", "-flags", "low_delay",
		"-f", d.codec.demuxer, "-i", "pipe:0",
		"-an", "-sn",
		"-vsync", "passthrough",
		"-vf", "scale=" + strconv.Itoa(d.format.Width) + ":" + strconv.Itoa(d.format.Height),
		"-f", "rawvideo", "-pix_fmt", "yuv420p", "pipe:1",
	}
	return args
}

// Start launches ffmpeg and the goroutines pumping its pipes.
func (d *Decoder) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.configured {
		return ErrNotConfigured
	}
	if d.started {
		return nil
	}
	path, err := FindFFmpeg(d.opts.FFmpegPath)
	if err != nil {
		return err
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, path, d.args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpegcodec: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpegcodec: stdout pipe: %w", err)
	}
	d.stderr = newTailBuffer(stderrTailBytes)
	cmd.Stderr = d.stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("ffmpegcodec: start ffmpeg: %w", err)
	}
	if d.log != nil {
		d.log.Debug("Starting ffmpeg for %s (%dx%d)", d.mime, d.format.Width, d.format.Height)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.cancel = cancel
	d.done = make(chan struct{})
	d.exitErr = nil
	d.formatSent = false
	d.ivfFrames = 0
	d.pts.reset()

	d.freeInputs = make(chan int, len(d.inputs))
	for i := range d.inputs {
		d.freeInputs <- i
	}
	d.queued = make(chan queuedInput, len(d.inputs))
	d.freeOutputs = make(chan int, len(d.outputs))
	for i := range d.outputs {
		d.freeOutputs <- i
	}
	d.ready = make(chan int, len(d.outputs))

	group, gctx := errgroup.WithContext(procCtx)
	group.Go(func() error { return d.writeLoop(gctx, stdin) })
	group.Go(func() error { return d.readLoop(gctx, stdout) })
	group.Go(func() error {
		<-gctx.Done()
		cancel()
		return nil
	})

	done := d.done
	go func() {
		err := group.Wait()
		waitErr := cmd.Wait()
		d.mu.Lock()
		if err == nil || errors.Is(err, context.Canceled) {
			err = waitErr
		}
		if msg := d.stderr.String(); msg != "" {
			if err == nil {
				err = errors.New(msg)
			} else {
				err = fmt.Errorf("%v: %s", err, msg)
			}
		}
		d.exitErr = err
		d.mu.Unlock()
		if d.log != nil {
			d.log.Debug("ffmpeg exited: %v", err)
		}
		close(done)
	}()

	if d.codec.demuxer == "ivf" {
		if err := writeIVFHeader(stdin, d.codec.fourcc, d.format.Width, d.format.Height, 1, ivfTimebaseRate); err != nil {
			d.stopLocked()
			return fmt.Errorf("ffmpegcodec: write ivf header: %w", err)
		}
	}

	d.started = true
	return nil
}

func (d *Decoder) writeLoop(ctx context.Context, stdin io.WriteCloser) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case q := <-d.queued:
			payload := d.inputs[q.index][:q.size]
			var err error
			if d.codec.demuxer == "ivf" {
				err = writeIVFFrame(stdin, payload, d.ivfFrames)
				d.ivfFrames++
			} else {
				_, err = stdin.Write(payload)
			}
			if err != nil {
				return fmt.Errorf("write sample: %w", err)
			}
			d.freeInputs <- q.index
			if q.eos {
				return stdin.Close()
			}
		}
	}
}

func (d *Decoder) readLoop(ctx context.Context, stdout io.Reader) error {
	for {
		var slot int
		select {
		case <-ctx.Done():
			return nil
		case slot = <-d.freeOutputs:
		}
		if _, err := io.ReadFull(stdout, d.outputs[slot][:d.frameSize]); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrProcessExited
			}
			return fmt.Errorf("read frame: %w", err)
		}
		d.outputPTS[slot] = d.pts.pop()
		d.ready <- slot
	}
}

// DequeueInputBuffer waits for a free input slot until ctx is done.
func (d *Decoder) DequeueInputBuffer(ctx context.Context) (ports.InputBuffer, error) {
	free, done, err := d.channels()
	if err != nil {
		return ports.InputBuffer{}, err
	}
	select {
	case i := <-free:
		return ports.InputBuffer{Index: i, Data: d.inputs[i]}, nil
	case <-done:
		return ports.InputBuffer{}, d.exited()
	case <-ctx.Done():
		return ports.InputBuffer{}, ports.ErrTryAgain
	}
}

// QueueInputBuffer submits size bytes of slot index. Empty buffers carry
// no data and are handed straight back.
func (d *Decoder) QueueInputBuffer(index, size int, ptsUs int64, flags ports.BufferFlags) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return ErrNotStarted
	}
	if index < 0 || index >= len(d.inputs) || size < 0 || size > len(d.inputs[index]) {
		return fmt.Errorf("%w: input %d size %d", ErrBadIndex, index, size)
	}
	eos := flags&ports.FlagEndOfStream != 0
	if size == 0 && !eos {
		select {
		case d.freeInputs <- index:
			return nil
		default:
			return fmt.Errorf("%w: input %d is not dequeued", ErrBadIndex, index)
		}
	}
	// Only this method sends on queued, under d.mu.
	if len(d.queued) == cap(d.queued) {
		return fmt.Errorf("%w: input %d is not dequeued", ErrBadIndex, index)
	}
	if size > 0 {
		d.pts.push(ptsUs)
	}
	d.queued <- queuedInput{index: index, size: size, eos: eos}
	return nil
}

// DequeueOutputBuffer returns a decoded frame, or a format change the
// first time it is called after Start.
func (d *Decoder) DequeueOutputBuffer(ctx context.Context) (ports.OutputBuffer, error) {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return ports.OutputBuffer{}, ErrNotStarted
	}
	if !d.formatSent {
		d.formatSent = true
		d.mu.Unlock()
		return ports.OutputBuffer{Index: -1, FormatChanged: true}, nil
	}
	ready, done := d.ready, d.done
	d.mu.Unlock()

	select {
	case i := <-ready:
		return d.output(i), nil
	default:
	}
	select {
	case i := <-ready:
		return d.output(i), nil
	case <-done:
		return ports.OutputBuffer{}, d.exited()
	case <-ctx.Done():
		return ports.OutputBuffer{}, ports.ErrTryAgain
	}
}

func (d *Decoder) output(i int) ports.OutputBuffer {
	return ports.OutputBuffer{
		Index:              i,
		Data:               d.outputs[i][:d.frameSize],
		PresentationTimeUs: d.outputPTS[i],
	}
}

// ReleaseOutputBuffer returns slot index to the reader goroutine.
func (d *Decoder) ReleaseOutputBuffer(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrNotStarted
	}
	if index < 0 || index >= len(d.outputs) {
		return fmt.Errorf("%w: output %d", ErrBadIndex, index)
	}
	select {
	case d.freeOutputs <- index:
		return nil
	default:
		return fmt.Errorf("%w: output %d released twice", ErrBadIndex, index)
	}
}

// OutputFormat returns the raw picture format.
func (d *Decoder) OutputFormat() ports.TrackFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format
}

// Stop kills ffmpeg and waits for the pipe goroutines. The decoder keeps
// its configuration and may be started again.
func (d *Decoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	return nil
}

func (d *Decoder) stopLocked() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	done := d.done
	d.mu.Unlock()
	<-done
	d.mu.Lock()
	d.cancel = nil
	d.cmd = nil
	d.stdin = nil
	d.started = false
}

// Release stops the decoder and drops its buffers.
func (d *Decoder) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.inputs = nil
	d.outputs = nil
	d.configured = false
}

func (d *Decoder) channels() (chan int, chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil, nil, ErrNotStarted
	}
	return d.freeInputs, d.done, nil
}

func (d *Decoder) exited() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.exitErr != nil {
		return fmt.Errorf("%w: %v", ErrProcessExited, d.exitErr)
	}
	return ErrProcessExited
}

var _ ports.Decoder = (*Decoder)(nil)
