// Package remux turns Matroska and WebM files into containers the native
// extractors read. ffprobe describes the streams and ffmpeg copies the
// first video stream, without re-encoding, into a temporary MP4 (H.264,
// HEVC) or IVF (VP8, VP9, AV1) file.
package remux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/user/fakecam/pkg/adapters/ffmpegcodec"
	"github.com/user/fakecam/pkg/ports"
)

// ErrNoVideoStream is returned when ffprobe reports no video stream.
var ErrNoVideoStream = errors.New("remux: no video stream")

// Options configures a Remuxer.
type Options struct {
	// FFmpegPath is an optional custom path to ffmpeg. ffprobe is looked
	// up next to it first.
	FFmpegPath string
	// FFprobePath overrides the ffprobe lookup.
	FFprobePath string
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Remuxer runs ffprobe and ffmpeg.
type Remuxer struct {
	ffmpeg  string
	ffprobe string
	fs      ports.FileSystem
	log     ports.Logger
	run     runFunc
}

// New locates ffmpeg and ffprobe.
func New(fs ports.FileSystem, log ports.Logger, opts Options) (*Remuxer, error) {
	ffmpeg, err := ffmpegcodec.FindFFmpeg(opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	ffprobe := opts.FFprobePath
	if ffprobe == "" {
		if ffprobe, err = ffmpegcodec.FindFFprobe(opts.FFmpegPath); err != nil {
			return nil, err
		}
	}
	return &Remuxer{
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		fs:      fs,
		log:     log.WithComponent("remux"),
		run:     runTool,
	}, nil
}

func runTool(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// target picks the output container for a video codec.
func target(codec string) (ext, muxer string, ok bool) {
	switch codec {
	case "h264", "hevc":
		return ".mp4", "mp4", true
	case "vp8", "vp9", "av1":
		return ".ivf", "ivf", true
	}
	return "", "", false
}

// Result describes a finished remux.
type Result struct {
	// Path is the temporary file holding the copied video stream.
	Path string
	// Ext is ".mp4" or ".ivf".
	Ext string
	// Probe is the ffprobe description of the source.
	Probe *Probe
}

// Remux copies the first video stream of path into a temporary file. The
// caller removes Result.Path when done, normally through Extractor.Close.
func (r *Remuxer) Remux(ctx context.Context, path string) (*Result, error) {
	probe, err := r.ProbeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	video, ok := probe.FirstOf("video")
	if !ok {
		return nil, fmt.Errorf("%w: %w in %s", ports.ErrNoTrackFound, ErrNoVideoStream, path)
	}
	ext, muxer, ok := target(video.CodecName)
	if !ok {
		return nil, fmt.Errorf("%w: %s video in %s", ports.ErrCodecFailure, video.CodecName, path)
	}

	out, err := r.fs.TempPath("fakecam-remux-*" + ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIO, err)
	}

	r.log.Info("Remuxing %s stream of %s to %s", video.CodecName, path, out)
	_, err = r.run(ctx, r.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", path,
		"-map", fmt.Sprintf("0:%d", video.Index),
		"-c", "copy",
		"-f", muxer,
		out,
	)
	if err != nil {
		r.remove(out)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: remux %s: %v", ports.ErrMalformedInput, path, err)
	}
	return &Result{Path: out, Ext: ext, Probe: probe}, nil
}

func (r *Remuxer) remove(path string) {
	if err := r.fs.Remove(path); err != nil {
		r.log.Warn("Failed to remove %s: %v", path, err)
	}
}
