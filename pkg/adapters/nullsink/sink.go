// Package nullsink provides a FrameSink that discards frames.
package nullsink

import (
	"context"
	"sync/atomic"

	"github.com/user/fakecam/pkg/ports"
)

// Sink counts and discards every frame.
type Sink struct {
	count atomic.Int64
	bytes atomic.Int64
}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Deliver drops the frame.
func (s *Sink) Deliver(ctx context.Context, frame ports.Frame) error {
	s.count.Add(1)
	s.bytes.Add(int64(len(frame.Data)))
	return nil
}

// Count returns the number of frames delivered.
func (s *Sink) Count() int64 {
	return s.count.Load()
}

// Bytes returns the total payload size delivered.
func (s *Sink) Bytes() int64 {
	return s.bytes.Load()
}

// Close does nothing.
func (s *Sink) Close() error {
	return nil
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)
