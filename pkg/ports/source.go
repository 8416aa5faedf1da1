package ports

import "context"

// FrameSource produces frames on demand.
type FrameSource interface {
	// NextFrame returns the next frame. Video sources loop at end of
	// stream; still sources return the same picture every time.
	NextFrame(ctx context.Context) (Frame, error)

	// FrameRate returns the nominal rate at which frames should be pulled.
	FrameRate() float64
}

// FrameSink consumes transformed frames.
type FrameSink interface {
	// Deliver hands a frame to the consumer. The sink owns the frame.
	Deliver(ctx context.Context, frame Frame) error

	// Close flushes and releases the sink.
	Close() error
}
