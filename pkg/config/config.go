// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/fakecam/pkg/feed"
	"github.com/user/fakecam/pkg/mediareader"
	"github.com/user/fakecam/pkg/ports"
)

// Config represents the full configuration for fakecam.
type Config struct {
	Media   MediaConfig   `yaml:"media"`
	Output  OutputConfig  `yaml:"output"`
	Decoder DecoderConfig `yaml:"decoder"`
	Log     LogConfig     `yaml:"log"`
}

// MediaConfig names the replacement media.
type MediaConfig struct {
	// Video is played when present.
	Video string `yaml:"video"`
	// Photo is the still used when there is no video.
	Photo string `yaml:"photo"`
}

// OutputConfig describes the frames the consumer expects.
type OutputConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	Format         string  `yaml:"format"`
	MaintainAspect bool    `yaml:"maintain_aspect"`
	FrontCamera    bool    `yaml:"front_camera"`
	Rotation       int     `yaml:"rotation"`
	Mirror         bool    `yaml:"mirror"`
	FPS            float64 `yaml:"fps"`
}

// DecoderConfig tunes the decode loop and the ffmpeg backend.
type DecoderConfig struct {
	FFmpegPath    string `yaml:"ffmpeg_path"`
	FFprobePath   string `yaml:"ffprobe_path"`
	PollTimeoutMs int    `yaml:"poll_timeout_ms"`
	MaxDimension  int    `yaml:"max_dimension"`
}

// LogConfig selects the log adapter.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Media: MediaConfig{
			Video: "/sdcard/DCIM/Camera1/virtual.mp4",
			Photo: "/sdcard/DCIM/Camera1/1000.bmp",
		},
		Output: OutputConfig{
			Format:         ports.FormatNV21.String(),
			MaintainAspect: true,
		},
		Decoder: DecoderConfig{
			PollTimeoutMs: 10,
			MaxDimension:  4096,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a YAML file. Keys missing from the
// file keep their defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := ports.ParsePixelFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Width < 0 || c.Output.Height < 0 {
		return fmt.Errorf("output size %dx%d: %w", c.Output.Width, c.Output.Height, ports.ErrInvalidGeometry)
	}
	if (c.Output.Width == 0) != (c.Output.Height == 0) {
		return fmt.Errorf("output size %dx%d: width and height go together: %w", c.Output.Width, c.Output.Height, ports.ErrInvalidGeometry)
	}
	switch c.Output.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("output.rotation %d: must be 0, 90, 180 or 270: %w", c.Output.Rotation, ports.ErrInvalidGeometry)
	}
	if c.Decoder.PollTimeoutMs <= 0 {
		return fmt.Errorf("decoder.poll_timeout_ms must be positive, got %d", c.Decoder.PollTimeoutMs)
	}
	if c.Decoder.MaxDimension <= 0 {
		return fmt.Errorf("decoder.max_dimension must be positive, got %d", c.Decoder.MaxDimension)
	}
	switch c.Log.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be console, text or json", c.Log.Format)
	}
	return nil
}

// ReaderOptions converts the decoder section to media reader options.
func (c Config) ReaderOptions() mediareader.Options {
	opts := mediareader.DefaultOptions()
	if c.Decoder.PollTimeoutMs > 0 {
		opts.PollTimeout = time.Duration(c.Decoder.PollTimeoutMs) * time.Millisecond
	}
	if c.Decoder.MaxDimension > 0 {
		opts.MaxDimension = c.Decoder.MaxDimension
	}
	return opts
}

// FeedConfig converts the output section to a feed configuration.
func (c Config) FeedConfig() (feed.Config, error) {
	format, err := ports.ParsePixelFormat(c.Output.Format)
	if err != nil {
		return feed.Config{}, err
	}
	return feed.Config{
		Width:          c.Output.Width,
		Height:         c.Output.Height,
		Format:         format,
		MaintainAspect: c.Output.MaintainAspect,
		FrontCamera:    c.Output.FrontCamera,
		Rotation:       c.Output.Rotation,
		Mirror:         c.Output.Mirror,
		FPS:            c.Output.FPS,
	}, nil
}

// MediaPath returns the video when it exists, else the photo, else "".
func (c Config) MediaPath(fs ports.FileSystem) string {
	for _, p := range []string{c.Media.Video, c.Media.Photo} {
		if p == "" {
			continue
		}
		if ok, err := fs.Exists(p); err == nil && ok {
			return p
		}
	}
	return ""
}
