package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/user/fakecam/pkg/ports"
)

// Sample is one compressed access unit served by Extractor.
type Sample struct {
	Data  []byte
	PTSUs int64
	Sync  bool
}

// Extractor is a mock implementation of ports.Extractor over an in-memory
// sample list for a single selectable track.
type Extractor struct {
	mu sync.Mutex

	Tracks []ports.TrackFormat
	// Samples belong to the track selected by SelectTrack.
	Samples []Sample

	pos      int
	selected int

	TrackFormatFunc func(index int) (ports.TrackFormat, error)
	ReadSampleFunc  func(dst []byte) (int, int64, error)
	SeekToFunc      func(timeUs int64) error

	SeekCalls []int64
	Selected  []int
	Closed    bool
}

// NewExtractor creates an Extractor with the given tracks and samples.
func NewExtractor(tracks []ports.TrackFormat, samples []Sample) *Extractor {
	return &Extractor{Tracks: tracks, Samples: samples, selected: -1}
}

func (m *Extractor) TrackCount() int {
	return len(m.Tracks)
}

func (m *Extractor) TrackFormat(index int) (ports.TrackFormat, error) {
	if m.TrackFormatFunc != nil {
		return m.TrackFormatFunc(index)
	}
	if index < 0 || index >= len(m.Tracks) {
		return ports.TrackFormat{}, fmt.Errorf("track %d out of range", index)
	}
	return m.Tracks[index], nil
}

func (m *Extractor) SelectTrack(index int) error {
	if index < 0 || index >= len(m.Tracks) {
		return fmt.Errorf("track %d out of range", index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = index
	m.Selected = append(m.Selected, index)
	return nil
}

func (m *Extractor) ReadSample(dst []byte) (int, int64, error) {
	if m.ReadSampleFunc != nil {
		return m.ReadSampleFunc(dst)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.Samples) {
		return 0, 0, io.EOF
	}
	s := m.Samples[m.pos]
	if len(dst) < len(s.Data) {
		return 0, 0, io.ErrShortBuffer
	}
	m.pos++
	return copy(dst, s.Data), s.PTSUs, nil
}

func (m *Extractor) SeekTo(timeUs int64) error {
	m.mu.Lock()
	m.SeekCalls = append(m.SeekCalls, timeUs)
	m.mu.Unlock()
	if m.SeekToFunc != nil {
		return m.SeekToFunc(timeUs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = 0
	for i, s := range m.Samples {
		if s.PTSUs > timeUs {
			break
		}
		if s.Sync {
			m.pos = i
		}
	}
	return nil
}

func (m *Extractor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// QueuedInput records one QueueInputBuffer call.
type QueuedInput struct {
	Index int
	Size  int
	PTSUs int64
	Flags ports.BufferFlags
	Data  []byte
}

// Decoder is a mock implementation of ports.Decoder. Every non-empty input
// becomes one yuv420p output frame whose bytes all equal the first input
// byte, so tests can tell frames apart. Input buffers hold 64 KiB or the
// configured MaxInputSize, whichever is larger.
type Decoder struct {
	mu sync.Mutex

	// InputSlots is the number of input buffers; 0 means 2.
	InputSlots int
	// EmitFormatChange makes the first output event a format change.
	EmitFormatChange bool
	// ChangedWidth and ChangedHeight, when set, replace the configured size
	// on the format change.
	ChangedWidth  int
	ChangedHeight int
	// TryAgainInputs is the number of initial input dequeues that time out.
	TryAgainInputs int

	ConfigureErr     error
	StartErr         error
	DequeueOutputErr error

	DequeueInputFunc  func(ctx context.Context) (ports.InputBuffer, error)
	DequeueOutputFunc func(ctx context.Context) (ports.OutputBuffer, error)

	format        ports.TrackFormat
	inputs        [][]byte
	freeInputs    []int
	pending       []ports.OutputBuffer
	formatPending bool
	nextOut       int

	Configured  []ports.TrackFormat
	Queued      []QueuedInput
	ReleasedOut []int
	Started     bool
	Stopped     bool
	Released    bool
}

// NewDecoder creates a Decoder mock.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (m *Decoder) Configure(format ports.TrackFormat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Configured = append(m.Configured, format)
	if m.ConfigureErr != nil {
		return m.ConfigureErr
	}
	m.format = format
	m.format.ColorFormat = ports.ColorFormatYUV420Planar
	slots := m.InputSlots
	if slots == 0 {
		slots = 2
	}
	m.inputs = make([][]byte, slots)
	m.freeInputs = m.freeInputs[:0]
	size := max(1<<16, format.MaxInputSize)
	for i := range m.inputs {
		m.inputs[i] = make([]byte, size)
		m.freeInputs = append(m.freeInputs, i)
	}
	m.formatPending = m.EmitFormatChange
	return nil
}

func (m *Decoder) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.Started = true
	return nil
}

func (m *Decoder) DequeueInputBuffer(ctx context.Context) (ports.InputBuffer, error) {
	if m.DequeueInputFunc != nil {
		return m.DequeueInputFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TryAgainInputs > 0 {
		m.TryAgainInputs--
		return ports.InputBuffer{}, ports.ErrTryAgain
	}
	if len(m.freeInputs) == 0 {
		return ports.InputBuffer{}, ports.ErrTryAgain
	}
	idx := m.freeInputs[0]
	m.freeInputs = m.freeInputs[1:]
	return ports.InputBuffer{Index: idx, Data: m.inputs[idx]}, nil
}

func (m *Decoder) QueueInputBuffer(index, size int, ptsUs int64, flags ports.BufferFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.inputs) {
		return fmt.Errorf("input index %d out of range", index)
	}
	data := append([]byte(nil), m.inputs[index][:size]...)
	m.Queued = append(m.Queued, QueuedInput{Index: index, Size: size, PTSUs: ptsUs, Flags: flags, Data: data})
	m.freeInputs = append(m.freeInputs, index)

	if size > 0 {
		out := make([]byte, ports.FrameSize(ports.FormatYUV420Planar, m.format.Width, m.format.Height))
		for i := range out {
			out[i] = data[0]
		}
		m.pending = append(m.pending, ports.OutputBuffer{
			Index:              m.nextOut,
			Data:               out,
			PresentationTimeUs: ptsUs,
		})
		m.nextOut++
	}
	return nil
}

func (m *Decoder) DequeueOutputBuffer(ctx context.Context) (ports.OutputBuffer, error) {
	if m.DequeueOutputFunc != nil {
		return m.DequeueOutputFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DequeueOutputErr != nil {
		return ports.OutputBuffer{}, m.DequeueOutputErr
	}
	if m.formatPending && len(m.pending) > 0 {
		m.formatPending = false
		if m.ChangedWidth > 0 {
			m.format.Width = m.ChangedWidth
			m.format.Height = m.ChangedHeight
		}
		return ports.OutputBuffer{Index: -1, FormatChanged: true}, nil
	}
	if len(m.pending) == 0 {
		return ports.OutputBuffer{}, ports.ErrTryAgain
	}
	out := m.pending[0]
	m.pending = m.pending[1:]
	return out, nil
}

func (m *Decoder) ReleaseOutputBuffer(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleasedOut = append(m.ReleasedOut, index)
	return nil
}

func (m *Decoder) OutputFormat() ports.TrackFormat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

func (m *Decoder) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
	return nil
}

func (m *Decoder) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = true
}

// CodecService is a mock implementation of ports.CodecService.
type CodecService struct {
	mu sync.Mutex

	NewExtractorFunc func(path string) (ports.Extractor, error)
	NewDecoderFunc   func(mime string) (ports.Decoder, error)

	ExtractorPaths []string
	DecoderMIMEs   []string
}

func (m *CodecService) NewExtractor(path string) (ports.Extractor, error) {
	m.mu.Lock()
	m.ExtractorPaths = append(m.ExtractorPaths, path)
	m.mu.Unlock()
	if m.NewExtractorFunc == nil {
		return nil, fmt.Errorf("no extractor for %s", path)
	}
	return m.NewExtractorFunc(path)
}

func (m *CodecService) NewDecoder(mime string) (ports.Decoder, error) {
	m.mu.Lock()
	m.DecoderMIMEs = append(m.DecoderMIMEs, mime)
	m.mu.Unlock()
	if m.NewDecoderFunc == nil {
		return nil, fmt.Errorf("no decoder for %s", mime)
	}
	return m.NewDecoderFunc(mime)
}

var (
	_ ports.Extractor    = (*Extractor)(nil)
	_ ports.Decoder      = (*Decoder)(nil)
	_ ports.CodecService = (*CodecService)(nil)
)
