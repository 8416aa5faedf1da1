// Package ivfextractor implements ports.Extractor for IVF files holding a
// single VP8, VP9 or AV1 stream.
package ivfextractor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pion/webrtc/v4/pkg/media/ivfreader"

	"github.com/user/fakecam/pkg/ports"
)

var fourccMIME = map[string]string{
	"VP80": ports.MIMEVideoVP8,
	"VP90": ports.MIMEVideoVP9,
	"AV01": ports.MIMEVideoAV1,
}

type frame struct {
	data  []byte
	ptsUs int64
	sync  bool
}

// Extractor holds every frame of an IVF file in memory.
type Extractor struct {
	mu       sync.Mutex
	format   ports.TrackFormat
	frames   []frame
	selected bool
	cursor   int
}

// Open reads the file at path.
func Open(path string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	defer f.Close()
	return Read(f)
}

// frameHeaderSize is the IVF per-frame header: a 4-byte payload size and
// an 8-byte pts in time base units.
const frameHeaderSize = 12

// Read parses an IVF stream from r until EOF.
func Read(r io.Reader) (*Extractor, error) {
	_, header, err := ivfreader.NewWith(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ivf header: %v", ports.ErrMalformedInput, err)
	}

	mime, ok := fourccMIME[header.FourCC]
	if !ok {
		mime = "video/unknown"
	}
	e := &Extractor{format: ports.TrackFormat{
		MIME:      mime,
		MediaType: ports.MediaTypeVideo,
		Width:     int(header.Width),
		Height:    int(header.Height),
	}}

	num, den := header.TimebaseNumerator, header.TimebaseDenominator
	if num == 0 || den == 0 {
		num, den = 1, 30
	}
	for {
		payload, pts, err := readFrame(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(e.frames) > 0 {
				// Truncated tail; keep what decoded cleanly.
				break
			}
			return nil, fmt.Errorf("%w: ivf frame: %v", ports.ErrMalformedInput, err)
		}
		e.frames = append(e.frames, frame{
			data:  payload,
			ptsUs: ptsToMicros(pts, num, den),
			sync:  isKeyFrame(mime, payload) || len(e.frames) == 0,
		})
		e.format.MaxInputSize = max(e.format.MaxInputSize, len(payload))
	}

	if n := len(e.frames); n > 0 {
		first, last := e.frames[0].ptsUs, e.frames[n-1].ptsUs
		if n > 1 && last > first {
			e.format.FrameRate = float64(n-1) * 1e6 / float64(last-first)
			e.format.DurationUs = last - first + (last-first)/int64(n-1)
		} else {
			e.format.FrameRate = float64(den) / float64(num)
		}
	}
	return e, nil
}

// readFrame reads one frame header and payload. ivfreader's ParseNextFrame
// reports timestamps already multiplied by the frame rate, which loses the
// raw pts, so frames are read here after the file header.
func readFrame(r io.Reader) ([]byte, uint64, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, err
	}
	size := binary.LittleEndian.Uint32(hdr[0:4])
	pts := binary.LittleEndian.Uint64(hdr[4:12])

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, 0, err
	}
	return payload, pts, nil
}

// ptsToMicros converts a pts in units of num/den seconds.
func ptsToMicros(pts uint64, num, den uint32) int64 {
	return int64(pts * uint64(num) * 1_000_000 / uint64(den))
}

// isKeyFrame reads the frame type from the codec's uncompressed header.
func isKeyFrame(mime string, payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	switch mime {
	case ports.MIMEVideoVP8:
		return payload[0]&0x01 == 0
	case ports.MIMEVideoVP9:
		return vp9KeyFrame(payload)
	}
	return false
}

// vp9KeyFrame parses frame_marker, profile, show_existing_frame and
// frame_type.
func vp9KeyFrame(payload []byte) bool {
	b := payload[0]
	if b>>6 != 0x2 {
		return false
	}
	profile := (b>>5)&1 | ((b>>4)&1)<<1
	bit := 3
	if profile == 3 {
		bit = 2
	}
	if (b>>bit)&1 == 1 {
		// show_existing_frame
		return false
	}
	return (b>>(bit-1))&1 == 0
}

func (e *Extractor) TrackCount() int {
	return 1
}

func (e *Extractor) TrackFormat(index int) (ports.TrackFormat, error) {
	if index != 0 {
		return ports.TrackFormat{}, fmt.Errorf("ivfextractor: track %d out of range", index)
	}
	return e.format, nil
}

func (e *Extractor) SelectTrack(index int) error {
	if index != 0 {
		return fmt.Errorf("ivfextractor: track %d out of range", index)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = true
	e.cursor = 0
	return nil
}

func (e *Extractor) ReadSample(dst []byte) (int, int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return 0, 0, fmt.Errorf("ivfextractor: no track selected")
	}
	if e.cursor >= len(e.frames) {
		return 0, 0, io.EOF
	}
	f := e.frames[e.cursor]
	if len(dst) < len(f.data) {
		return 0, 0, io.ErrShortBuffer
	}
	n := copy(dst, f.data)
	e.cursor++
	return n, f.ptsUs, nil
}

// SeekTo moves to the last key frame at or before timeUs.
func (e *Extractor) SeekTo(timeUs int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.selected {
		return fmt.Errorf("ivfextractor: no track selected")
	}
	e.cursor = 0
	for i, f := range e.frames {
		if f.sync && f.ptsUs <= timeUs {
			e.cursor = i
		}
	}
	return nil
}

// FrameCount returns the number of frames read.
func (e *Extractor) FrameCount() int {
	return len(e.frames)
}

func (e *Extractor) Close() error {
	return nil
}

var _ ports.Extractor = (*Extractor)(nil)
