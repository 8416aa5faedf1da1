// Package mp4extractor implements ports.Extractor for ISO base media files
// (MP4, MOV, 3GP), progressive or fragmented, using mp4ff. H.264 and H.265
// samples are returned as Annex B with the parameter sets in front of every
// sync sample.
package mp4extractor

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/fakecam/pkg/ports"
)

type track struct {
	trak   *mp4.TrakBox
	format ports.TrackFormat
}

// Extractor demultiplexes one MP4 file.
type Extractor struct {
	mu sync.Mutex

	file       *os.File
	mp4        *mp4.File
	fragmented bool
	tracks     []track

	selected  int
	samples   []sampleEntry
	cursor    int
	paramSets []byte
	scratch   []byte
}

// Open parses the boxes of the file at path.
func Open(path string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	e, err := newExtractor(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return e, nil
}

func newExtractor(f *os.File) (*Extractor, error) {
	parsed, err := mp4.DecodeFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode mp4: %v", ports.ErrMalformedInput, err)
	}

	e := &Extractor{file: f, mp4: parsed, selected: -1, fragmented: parsed.IsFragmented()}

	var moov *mp4.MoovBox
	if e.fragmented && parsed.Init != nil {
		moov = parsed.Init.Moov
	} else {
		moov = parsed.Moov
	}
	if moov == nil {
		return nil, fmt.Errorf("%w: no moov box found", ports.ErrMalformedInput)
	}
	for _, trak := range moov.Traks {
		e.tracks = append(e.tracks, track{trak: trak, format: trackFormat(trak)})
	}
	return e, nil
}

func (e *Extractor) TrackCount() int {
	return len(e.tracks)
}

func (e *Extractor) TrackFormat(index int) (ports.TrackFormat, error) {
	if index < 0 || index >= len(e.tracks) {
		return ports.TrackFormat{}, fmt.Errorf("mp4extractor: track %d out of range", index)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	tf := e.tracks[index].format
	if index == e.selected {
		tf.MaxInputSize = e.maxInputSize()
	}
	return tf, nil
}

// SelectTrack indexes the samples of the track at index and rewinds.
func (e *Extractor) SelectTrack(index int) error {
	if index < 0 || index >= len(e.tracks) {
		return fmt.Errorf("mp4extractor: track %d out of range", index)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.tracks[index]
	var (
		samples []sampleEntry
		maxSize int
		err     error
	)
	if e.fragmented {
		var timescale uint32
		if t.trak.Mdia != nil && t.trak.Mdia.Mdhd != nil {
			timescale = t.trak.Mdia.Mdhd.Timescale
		}
		samples, maxSize, err = fragmentedSamples(e.mp4, t.trak.Tkhd.TrackID, timescale)
	} else {
		samples, maxSize, err = progressiveSamples(t.trak)
	}
	if err != nil {
		return fmt.Errorf("%w: track %d: %v", ports.ErrMalformedInput, index, err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("%w: track %d has no samples", ports.ErrMalformedInput, index)
	}

	e.selected = index
	e.samples = samples
	e.cursor = 0
	e.paramSets = nil
	if lengthPrefixed(t.format.MIME) {
		e.paramSets = parameterSets(t.trak)
	}
	e.scratch = make([]byte, maxSize)
	return nil
}

// maxInputSize is the largest sample ReadSample can produce.
func (e *Extractor) maxInputSize() int {
	return len(e.scratch) + len(e.paramSets)
}

// ReadSample copies the next sample of the selected track into dst.
func (e *Extractor) ReadSample(dst []byte) (int, int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selected < 0 {
		return 0, 0, fmt.Errorf("mp4extractor: no track selected")
	}
	if e.cursor >= len(e.samples) {
		return 0, 0, io.EOF
	}
	s := e.samples[e.cursor]

	raw := s.data
	if raw == nil {
		raw = e.scratch[:s.size]
		if _, err := e.file.ReadAt(raw, s.offset); err != nil {
			return 0, 0, fmt.Errorf("%w: read sample %d: %v", ports.ErrIO, e.cursor, err)
		}
	}

	var n int
	if lengthPrefixed(e.tracks[e.selected].format.MIME) {
		prefix := 0
		if s.sync {
			prefix = len(e.paramSets)
		}
		if len(dst) < prefix+len(raw) {
			return 0, 0, io.ErrShortBuffer
		}
		if s.sync {
			copy(dst, e.paramSets)
		}
		written, err := avccToAnnexB(dst[prefix:], raw)
		if err != nil {
			return 0, 0, err
		}
		n = prefix + written
	} else {
		if len(dst) < len(raw) {
			return 0, 0, io.ErrShortBuffer
		}
		n = copy(dst, raw)
	}

	e.cursor++
	return n, s.ptsUs, nil
}

// SeekTo moves to the last sync sample whose presentation time is at or
// before timeUs, or to the first sample.
func (e *Extractor) SeekTo(timeUs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.selected < 0 {
		return fmt.Errorf("mp4extractor: no track selected")
	}
	e.cursor = 0
	for i, s := range e.samples {
		if s.sync && s.ptsUs <= timeUs {
			e.cursor = i
		}
	}
	return nil
}

// SyncTimes returns the presentation times of the sync samples of the
// selected track in ascending order.
func (e *Extractor) SyncTimes() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []int64
	for _, s := range e.samples {
		if s.sync {
			out = append(out, s.ptsUs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close closes the underlying file.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}

var _ ports.Extractor = (*Extractor)(nil)
