package ports

import "context"

// MediaType classifies a container track.
type MediaType int

const (
	MediaTypeOther MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
)

// String returns the string representation of the media type.
func (t MediaType) String() string {
	switch t {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	default:
		return "other"
	}
}

// Codec identifiers used in TrackFormat.MIME.
const (
	MIMEVideoAVC  = "video/avc"
	MIMEVideoHEVC = "video/hevc"
	MIMEVideoVP8  = "video/x-vnd.on2.vp8"
	MIMEVideoVP9  = "video/x-vnd.on2.vp9"
	MIMEVideoAV1  = "video/av01"
	MIMEAudioAAC  = "audio/mp4a-latm"
	MIMEAudioOpus = "audio/opus"
)

// ColorFormatYUV420Planar tags decoder output laid out as I420.
const ColorFormatYUV420Planar = 19

// TrackFormat describes one track of a container, or the output of a decoder.
type TrackFormat struct {
	// MIME identifies the codec, e.g. "video/avc" or "audio/mp4a-latm".
	MIME      string
	MediaType MediaType
	Width     int
	Height    int
	// FrameRate is 0 when the container does not say.
	FrameRate float64
	// DurationUs is 0 when the container does not say.
	DurationUs int64
	// MaxInputSize is the largest compressed sample in bytes, 0 if unknown.
	MaxInputSize int
	// ColorFormat is only set on decoder output formats.
	ColorFormat int
}

// Extractor demultiplexes a container into compressed samples.
type Extractor interface {
	// TrackCount returns the number of tracks in the container.
	TrackCount() int

	// TrackFormat returns the format of the track at index.
	TrackFormat(index int) (TrackFormat, error)

	// SelectTrack restricts ReadSample to the track at index.
	SelectTrack(index int) error

	// ReadSample copies the current sample of the selected track into dst
	// and advances to the next one. It returns io.EOF at end of stream and
	// io.ErrShortBuffer, without advancing, when dst is too small.
	ReadSample(dst []byte) (n int, ptsUs int64, err error)

	// SeekTo repositions at the closest sync sample at or before timeUs.
	SeekTo(timeUs int64) error

	// Close releases the underlying file.
	Close() error
}

// BufferFlags annotate queued input buffers.
type BufferFlags uint32

const (
	// FlagEndOfStream marks the last input buffer of a stream.
	FlagEndOfStream BufferFlags = 1 << iota
)

// InputBuffer is a decoder-owned slot that the caller fills with one sample.
type InputBuffer struct {
	Index int
	Data  []byte
}

// OutputBuffer is either a decoded picture or a format-change notice.
type OutputBuffer struct {
	// Index identifies the slot to release. It is -1 for format changes.
	Index int
	// Data holds the decoded payload; len(Data) is the payload size.
	Data               []byte
	PresentationTimeUs int64
	// FormatChanged reports that OutputFormat has new values. No data is
	// attached and nothing needs releasing.
	FormatChanged bool
}

// Decoder is a buffer-slot video decoder. Dequeue calls block until a slot
// is available or ctx is done, in which case they return ErrTryAgain.
type Decoder interface {
	// Configure prepares the decoder for a track.
	Configure(format TrackFormat) error

	// Start begins decoding.
	Start() error

	// DequeueInputBuffer waits for a free input slot.
	DequeueInputBuffer(ctx context.Context) (InputBuffer, error)

	// QueueInputBuffer submits size bytes of a dequeued input slot.
	QueueInputBuffer(index, size int, ptsUs int64, flags BufferFlags) error

	// DequeueOutputBuffer waits for a decoded frame or a format change.
	DequeueOutputBuffer(ctx context.Context) (OutputBuffer, error)

	// ReleaseOutputBuffer hands a dequeued output slot back to the decoder.
	ReleaseOutputBuffer(index int) error

	// OutputFormat returns the current output format.
	OutputFormat() TrackFormat

	// Stop halts decoding. The decoder may be configured again.
	Stop() error

	// Release frees all decoder resources.
	Release()
}

// CodecService creates demuxers and decoders.
type CodecService interface {
	// NewExtractor opens a container file.
	NewExtractor(path string) (Extractor, error)

	// NewDecoder creates a decoder for the codec identified by mime.
	NewDecoder(mime string) (Decoder, error)
}
