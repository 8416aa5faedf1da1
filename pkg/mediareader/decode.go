package mediareader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/fakecam/pkg/ports"
)

// decodeLocked polls the decoder until one picture has been copied into
// r.frame. Every iteration makes one input attempt and one output attempt,
// each bounded by PollTimeout, so the loop waits instead of spinning.
// Timeouts are backpressure; the loop only stops early when ctx is done or
// the decoder reports a hard failure.
func (r *Reader) decodeLocked(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		produced, err := r.pollOnce(ctx)
		if err != nil {
			return err
		}
		if produced {
			return nil
		}
	}
}

func (r *Reader) pollOnce(ctx context.Context) (bool, error) {
	inCtx, cancel := context.WithTimeout(ctx, r.opts.PollTimeout)
	in, err := r.decoder.DequeueInputBuffer(inCtx)
	cancel()
	if err == nil {
		if err := r.fillInput(in); err != nil {
			return false, err
		}
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	} else if !isTimeout(err) {
		return false, fmt.Errorf("%w: dequeue input: %v", ports.ErrCodecFailure, err)
	}

	outCtx, cancel := context.WithTimeout(ctx, r.opts.PollTimeout)
	out, err := r.decoder.DequeueOutputBuffer(outCtx)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if isTimeout(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: dequeue output: %v", ports.ErrCodecFailure, err)
	}

	if out.FormatChanged {
		format := r.decoder.OutputFormat()
		if format.Width > 0 && format.Height > 0 {
			r.info.Width = format.Width
			r.info.Height = format.Height
		}
		r.log.Info("Output format changed: %dx%d color format %d", r.info.Width, r.info.Height, format.ColorFormat)
		return false, nil
	}

	produced := false
	if len(out.Data) > 0 {
		r.frame = append(r.frame[:0], out.Data...)
		r.position = out.PresentationTimeUs
		produced = true
	}
	if err := r.decoder.ReleaseOutputBuffer(out.Index); err != nil {
		return false, fmt.Errorf("%w: release output: %v", ports.ErrCodecFailure, err)
	}
	return produced, nil
}

// fillInput reads the next sample into in and queues it. At end of stream
// the demuxer is rewound and an empty marker is queued instead, so playback
// loops without draining the decoder.
func (r *Reader) fillInput(in ports.InputBuffer) error {
	n, pts, err := r.extractor.ReadSample(in.Data)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		r.log.Debug("End of stream, looping")
		if err := r.extractor.SeekTo(0); err != nil {
			return classify(err, ports.ErrIO)
		}
		n, pts = 0, 0
	case errors.Is(err, io.ErrShortBuffer):
		return fmt.Errorf("%w: sample exceeds the %d byte input buffer", ports.ErrCodecFailure, len(in.Data))
	default:
		return classify(err, ports.ErrIO)
	}

	if err := r.decoder.QueueInputBuffer(in.Index, n, pts, 0); err != nil {
		return fmt.Errorf("%w: queue input: %v", ports.ErrCodecFailure, err)
	}
	return nil
}

// isTimeout reports whether err only means the attempt's wait expired.
func isTimeout(err error) bool {
	return errors.Is(err, ports.ErrTryAgain) || errors.Is(err, context.DeadlineExceeded)
}
