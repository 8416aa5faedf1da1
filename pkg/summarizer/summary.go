package summarizer

import (
	"time"

	"github.com/user/fakecam/pkg/mediareader"
)

// Summary contains everything reported about one session.
type Summary struct {
	GeneratedAt time.Time

	Source SourceInfo
	Output OutputInfo

	// Run is nil for a probe.
	Run *RunInfo
}

// SourceInfo describes the opened media.
type SourceInfo struct {
	Path       string
	Kind       string
	Width      int
	Height     int
	FrameRate  float64
	DurationUs int64
	HasAudio   bool
	Format     string
}

// OutputInfo describes the consumer-side frame shape.
type OutputInfo struct {
	Width          int
	Height         int
	Format         string
	MaintainAspect bool
	FrontCamera    bool
	Rotation       int
	Mirror         bool
	Stages         []string
}

// RunInfo describes frames produced by a feed.
type RunInfo struct {
	Frames  int
	Elapsed time.Duration
	Files   []string
}

// FPS returns the achieved frame rate.
func (r RunInfo) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / r.Elapsed.Seconds()
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource copies the reader's view of the media.
func (b *Builder) WithSource(info mediareader.Info) *Builder {
	b.summary.Source = SourceInfo{
		Path:       info.Path,
		Kind:       info.Kind.String(),
		Width:      info.Width,
		Height:     info.Height,
		FrameRate:  info.FrameRate,
		DurationUs: info.DurationUs,
		HasAudio:   info.HasAudio,
		Format:     info.Format.String(),
	}
	return b
}

// WithOutput sets the output description.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithRun records a finished run.
func (b *Builder) WithRun(frames int, elapsed time.Duration, files []string) *Builder {
	b.summary.Run = &RunInfo{Frames: frames, Elapsed: elapsed, Files: files}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
