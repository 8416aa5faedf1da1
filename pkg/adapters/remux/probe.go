package remux

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/user/fakecam/pkg/ports"
)

// Stream is one entry of ffprobe's -show_streams output.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Duration     string `json:"duration"`
}

// Probe is the subset of ffprobe output fakecam uses.
type Probe struct {
	Streams []Stream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

// codecMIME maps ffprobe codec names to decoder MIME types.
var codecMIME = map[string]string{
	"h264": ports.MIMEVideoAVC,
	"hevc": ports.MIMEVideoHEVC,
	"vp8":  ports.MIMEVideoVP8,
	"vp9":  ports.MIMEVideoVP9,
	"av1":  ports.MIMEVideoAV1,
	"aac":  ports.MIMEAudioAAC,
	"opus": ports.MIMEAudioOpus,
}

// MIME returns the decoder MIME type for the stream's codec.
func (s Stream) MIME() string {
	if m, ok := codecMIME[s.CodecName]; ok {
		return m
	}
	return s.CodecType + "/" + s.CodecName
}

// FrameRate parses avg_frame_rate, which ffprobe prints as "num/den".
func (s Stream) FrameRate() float64 {
	num, den, ok := strings.Cut(s.AvgFrameRate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s.AvgFrameRate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// TrackFormat describes the stream the way an extractor would.
func (s Stream) TrackFormat() ports.TrackFormat {
	tf := ports.TrackFormat{MIME: s.MIME(), Width: s.Width, Height: s.Height}
	switch s.CodecType {
	case "video":
		tf.MediaType = ports.MediaTypeVideo
		tf.FrameRate = s.FrameRate()
	case "audio":
		tf.MediaType = ports.MediaTypeAudio
	}
	if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
		tf.DurationUs = int64(math.Round(d * 1e6))
	}
	return tf
}

// FirstOf returns the first stream of the given codec type.
func (p *Probe) FirstOf(codecType string) (Stream, bool) {
	for _, s := range p.Streams {
		if s.CodecType == codecType {
			return s, true
		}
	}
	return Stream{}, false
}

// ParseProbe decodes ffprobe's JSON output.
func ParseProbe(data []byte) (*Probe, error) {
	var p Probe
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: ffprobe output: %v", ports.ErrMalformedInput, err)
	}
	return &p, nil
}

// ProbeFile runs ffprobe on path.
func (r *Remuxer) ProbeFile(ctx context.Context, path string) (*Probe, error) {
	r.log.Debug("Probing %s", path)
	out, err := r.run(ctx, r.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe %s: %v", ports.ErrMalformedInput, path, err)
	}
	return ParseProbe(out)
}
