package mocks

import (
	"context"
	"sync"

	"github.com/user/fakecam/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource that cycles
// through Frames, handing out copies.
type FrameSource struct {
	mu sync.Mutex

	Frames []ports.Frame
	Rate   float64

	NextFrameFunc func(ctx context.Context) (ports.Frame, error)

	next  int
	Calls int
}

func (m *FrameSource) NextFrame(ctx context.Context) (ports.Frame, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.NextFrameFunc != nil {
		return m.NextFrameFunc(ctx)
	}
	if err := ctx.Err(); err != nil {
		return ports.Frame{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Frames) == 0 {
		return ports.Frame{}, ports.ErrNotReady
	}
	f := m.Frames[m.next%len(m.Frames)]
	m.next++
	return f.Clone(), nil
}

func (m *FrameSource) FrameRate() float64 {
	return m.Rate
}

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.Mutex

	DeliverFunc func(ctx context.Context, frame ports.Frame) error

	Frames []ports.Frame
	Closed bool
}

func (m *FrameSink) Deliver(ctx context.Context, frame ports.Frame) error {
	if m.DeliverFunc != nil {
		return m.DeliverFunc(ctx, frame)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames = append(m.Frames, frame)
	return nil
}

func (m *FrameSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Delivered returns a snapshot of the delivered frames.
func (m *FrameSink) Delivered() []ports.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Frame(nil), m.Frames...)
}

var (
	_ ports.FrameSource = (*FrameSource)(nil)
	_ ports.FrameSink   = (*FrameSink)(nil)
)
