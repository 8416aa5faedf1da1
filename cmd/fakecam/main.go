// Package main provides the CLI entry point for fakecam.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/fakecam/pkg/adapters/codecservice"
	"github.com/user/fakecam/pkg/adapters/filesink"
	"github.com/user/fakecam/pkg/adapters/logger"
	"github.com/user/fakecam/pkg/adapters/nullsink"
	"github.com/user/fakecam/pkg/adapters/osfilesystem"
	"github.com/user/fakecam/pkg/adapters/testcard"
	"github.com/user/fakecam/pkg/config"
	"github.com/user/fakecam/pkg/feed"
	"github.com/user/fakecam/pkg/frameutil"
	"github.com/user/fakecam/pkg/mediareader"
	"github.com/user/fakecam/pkg/ports"
	"github.com/user/fakecam/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Globals

	Probe    ProbeCmd    `cmd:"" help:"Show what a media file looks like as a camera source."`
	Grab     GrabCmd     `cmd:"" help:"Pull frames through the camera feed and save them."`
	Testcard TestcardCmd `cmd:"" help:"Render the colour-bar test card to a BMP file."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Globals are flags shared by every subcommand.
type Globals struct {
	Config string `short:"c" type:"path" help:"YAML configuration file."`

	// Decoder options
	FFmpegPath   string        `help:"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH)."`
	RemuxTimeout time.Duration `default:"0s" help:"Time limit for probing and remuxing one file (0 = none)."`

	// Logging options
	LogLevel  string `short:"l" help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (console, text, json)."`
	Quiet     bool   `short:"Q" help:"Suppress all log output."`
}

// ProbeCmd defines the probe subcommand.
type ProbeCmd struct {
	Path     string `arg:"" optional:"" help:"Media file (default: configured video, then photo)."`
	Markdown bool   `short:"m" help:"Print the summary as Markdown."`
}

// GrabCmd defines the grab subcommand.
type GrabCmd struct {
	Path   string `arg:"" optional:"" help:"Media file (default: configured video, then photo)."`
	Output string `short:"o" help:"Directory for frame files (omit to discard frames)."`
	Frames int    `short:"n" default:"1" help:"Number of frames to grab (0 = until interrupted)."`
	Prefix string `default:"frame" help:"File name prefix for frame files."`

	// Output overrides
	Width   *int     `short:"W" help:"Output frame width."`
	Height  *int     `short:"H" help:"Output frame height."`
	Format  *string  `short:"f" help:"Output pixel format (nv21, yuv420p, rgb24, rgba32)."`
	Rotate  *int     `short:"r" help:"Clockwise rotation in degrees (0, 90, 180, 270)."`
	Front   *bool    `help:"Apply the front camera transform."`
	Mirror  *bool    `help:"Mirror frames horizontally."`
	Stretch bool     `help:"Stretch to the output size instead of letterboxing."`
	FPS     *float64 `help:"Delivery rate (0 = source rate, negative = unpaced)."`

	Summary string `short:"s" help:"Output execution summary to file (Markdown format)."`
}

// TestcardCmd defines the testcard subcommand.
type TestcardCmd struct {
	Output string `short:"o" required:"" help:"Output BMP file path."`
	Width  int    `short:"W" default:"640" help:"Card width."`
	Height int    `short:"H" default:"480" help:"Card height."`
	Label  string `default:"fakecam" help:"Text drawn under the bars."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("fakecam"),
		kong.Description(l10n.T("Replace a camera feed with frames decoded from a video or photo.")),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// env is what every media command needs.
type env struct {
	cfg    config.Config
	log    ports.Logger
	fs     ports.FileSystem
	reader *mediareader.Reader
}

func (g *Globals) setup() (*env, error) {
	cfg := config.Defaults()
	if g.Config != "" {
		loaded, err := config.LoadFromFile(g.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if g.FFmpegPath != "" {
		cfg.Decoder.FFmpegPath = g.FFmpegPath
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}

	log := g.logger(cfg.Log)
	fs := osfilesystem.New()
	codecs := codecservice.New(fs, log, codecservice.Options{
		FFmpegPath:   cfg.Decoder.FFmpegPath,
		FFprobePath:  cfg.Decoder.FFprobePath,
		RemuxTimeout: g.RemuxTimeout,
	})

	return &env{
		cfg:    cfg,
		log:    log,
		fs:     fs,
		reader: mediareader.New(codecs, fs, log, cfg.ReaderOptions()),
	}, nil
}

func (g *Globals) logger(lc config.LogConfig) ports.Logger {
	if g.Quiet {
		return logger.NewNoop()
	}
	level := ports.ParseLogLevel(lc.Level)
	if lc.Format == "text" || lc.Format == "json" {
		return logger.NewStructured(level, lc.Format, os.Stderr)
	}
	return logger.NewConsole(level)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func (e *env) open(ctx context.Context, path string) error {
	if path == "" {
		path = e.cfg.MediaPath(e.fs)
	}
	if path == "" {
		return fmt.Errorf("%s: %w", l10n.T("No media file given and none configured"), ports.ErrIO)
	}
	return e.reader.Open(ctx, path)
}

// source opens path, or the configured media, or falls back to the test
// card when neither is available.
func (e *env) source(ctx context.Context, path string) (ports.FrameSource, mediareader.Info, error) {
	if path != "" || e.cfg.MediaPath(e.fs) != "" {
		if err := e.open(ctx, path); err != nil {
			return nil, mediareader.Info{}, err
		}
		info, _ := e.reader.Info()
		return e.reader, info, nil
	}

	e.log.Warn("No media configured, using the test card")
	card, err := testcard.NewSource(testcard.BaseWidth, testcard.BaseHeight, "fakecam", 0)
	if err != nil {
		return nil, mediareader.Info{}, err
	}
	return card, mediareader.Info{
		Path:   "testcard",
		Kind:   mediareader.KindStillImage,
		Width:  testcard.BaseWidth,
		Height: testcard.BaseHeight,
		Format: ports.FormatRGB24,
	}, nil
}

// Run executes the probe command.
func (cmd *ProbeCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(e.log)
	defer cancel()

	if err := e.open(ctx, cmd.Path); err != nil {
		return err
	}
	defer e.reader.Close()

	info, _ := e.reader.Info()
	fc, err := e.cfg.FeedConfig()
	if err != nil {
		return err
	}
	f, err := feed.New(e.reader, fc, e.log)
	if err != nil {
		return err
	}

	summary := summarizer.NewBuilder().
		WithSource(info).
		WithOutput(outputInfo(fc, f.Stages())).
		Build()

	formatter := summarizer.NewTextFormatter()
	if cmd.Markdown {
		formatter = summarizer.NewMarkdownFormatter()
	}
	fmt.Print(formatter.Format(summary))
	return nil
}

// Run executes the grab command.
func (cmd *GrabCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(e.log)
	defer cancel()

	fc, err := cmd.feedConfig(e.cfg)
	if err != nil {
		return err
	}

	src, info, err := e.source(ctx, cmd.Path)
	if err != nil {
		return err
	}
	defer e.reader.Close()

	f, err := feed.New(src, fc, e.log)
	if err != nil {
		return err
	}

	var sink ports.FrameSink
	var files *filesink.Sink
	if cmd.Output != "" {
		files = filesink.New(cmd.Output, e.fs, e.log).WithPrefix(cmd.Prefix)
		sink = files
	} else {
		sink = nullsink.New()
	}
	defer sink.Close()

	start := time.Now()
	n, err := f.Run(ctx, sink, cmd.Frames)
	elapsed := time.Since(start)
	if err != nil && !(errors.Is(err, context.Canceled) && n > 0) {
		return err
	}

	var paths []string
	if files != nil {
		paths = files.Paths()
	}
	e.log.Info("Grabbed %d frames in %s", n, elapsed.Round(time.Millisecond))

	if cmd.Summary != "" {
		summary := summarizer.NewBuilder().
			WithSource(info).
			WithOutput(outputInfo(fc, f.Stages())).
			WithRun(n, elapsed, paths).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), e.fs)
		if err := writer.Write(cmd.Summary, summary); err != nil {
			e.log.Warn("Failed to write summary: %s", err.Error())
		} else {
			e.log.Info("Summary saved to %s", cmd.Summary)
		}
	}
	return nil
}

// feedConfig applies the command-line overrides to the configured output.
func (cmd *GrabCmd) feedConfig(cfg config.Config) (feed.Config, error) {
	out := &cfg.Output
	if cmd.Width != nil {
		out.Width = *cmd.Width
	}
	if cmd.Height != nil {
		out.Height = *cmd.Height
	}
	if cmd.Format != nil {
		out.Format = *cmd.Format
	}
	if cmd.Rotate != nil {
		out.Rotation = *cmd.Rotate
	}
	if cmd.Front != nil {
		out.FrontCamera = *cmd.Front
	}
	if cmd.Mirror != nil {
		out.Mirror = *cmd.Mirror
	}
	if cmd.Stretch {
		out.MaintainAspect = false
	}
	if cmd.FPS != nil {
		out.FPS = *cmd.FPS
	}
	if err := cfg.Validate(); err != nil {
		return feed.Config{}, err
	}
	return cfg.FeedConfig()
}

// Run executes the testcard command.
func (cmd *TestcardCmd) Run(g *Globals) error {
	log := g.logger(config.LogConfig{Level: g.LogLevel, Format: g.LogFormat})

	img, err := testcard.Render(cmd.Width, cmd.Height, cmd.Label)
	if err != nil {
		return err
	}
	data, err := filesink.EncodeBMP(frameutil.FromImage(img))
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	if err := fs.WriteFile(cmd.Output, data); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIO, err)
	}
	log.Info("Wrote %s", cmd.Output)
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("fakecam version %s", version))
	return nil
}

func outputInfo(fc feed.Config, stages []string) summarizer.OutputInfo {
	return summarizer.OutputInfo{
		Width:          fc.Width,
		Height:         fc.Height,
		Format:         fc.Format.String(),
		MaintainAspect: fc.MaintainAspect,
		FrontCamera:    fc.FrontCamera,
		Rotation:       fc.Rotation,
		Mirror:         fc.Mirror,
		Stages:         stages,
	}
}
