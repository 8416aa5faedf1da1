package summarizer

import (
	"strings"
	"testing"
	"time"

	"github.com/user/fakecam/pkg/mediareader"
	"github.com/user/fakecam/pkg/mocks"
	"github.com/user/fakecam/pkg/ports"
)

func sampleInfo() mediareader.Info {
	return mediareader.Info{
		Path:       "/sdcard/fakecam/virtual.mp4",
		Kind:       mediareader.KindVideo,
		Width:      1280,
		Height:     720,
		FrameRate:  25,
		DurationUs: 4_000_000,
		HasAudio:   true,
		Format:     ports.FormatNV21,
	}
}

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
	if summary.Run != nil {
		t.Error("new summary should have no run")
	}
}

func TestBuilder_WithSource(t *testing.T) {
	summary := NewBuilder().WithSource(sampleInfo()).Build()

	src := summary.Source
	if src.Kind != "video" {
		t.Errorf("expected kind 'video', got '%s'", src.Kind)
	}
	if src.Width != 1280 || src.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", src.Width, src.Height)
	}
	if src.Format != "nv21" {
		t.Errorf("expected format 'nv21', got '%s'", src.Format)
	}
	if !src.HasAudio {
		t.Error("expected HasAudio to be true")
	}
}

func TestBuilder_WithRun(t *testing.T) {
	files := []string{"out/frame-0000.nv21", "out/frame-0001.nv21"}
	summary := NewBuilder().WithRun(50, 2*time.Second, files).Build()

	if summary.Run == nil {
		t.Fatal("expected Run to be set")
	}
	if summary.Run.Frames != 50 {
		t.Errorf("expected 50 frames, got %d", summary.Run.Frames)
	}
	if got := summary.Run.FPS(); got != 25 {
		t.Errorf("expected 25 fps, got %v", got)
	}
	if len(summary.Run.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(summary.Run.Files))
	}
}

func TestRunInfo_FPSZeroElapsed(t *testing.T) {
	r := RunInfo{Frames: 10}
	if got := r.FPS(); got != 0 {
		t.Errorf("expected 0 fps, got %v", got)
	}
}

func TestFormatFunc(t *testing.T) {
	var f Formatter = FormatFunc(func(s *Summary) string {
		return s.Source.Path
	})
	summary := NewBuilder().WithSource(sampleInfo()).Build()

	if got := f.Format(summary); got != "/sdcard/fakecam/virtual.mp4" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestMarkdownFormatter(t *testing.T) {
	summary := NewBuilder().
		WithSource(sampleInfo()).
		WithOutput(OutputInfo{
			Width:          640,
			Height:         480,
			Format:         "nv21",
			MaintainAspect: true,
			Rotation:       90,
			Stages:         []string{"normalize", "orient", "resize", "output"},
		}).
		WithRun(3, time.Second, []string{"out/frame-0000.nv21"}).
		Build()

	md := NewMarkdownFormatter().Format(summary)

	for _, want := range []string{
		"# ",
		"|---|---|",
		"/sdcard/fakecam/virtual.mp4",
		"1280x720",
		"640x480",
		"25.00 fps",
		"4.000 s",
		"90°",
		"normalize → orient → resize → output",
		"`out/frame-0000.nv21`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown output missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdownFormatter_ProbeOnly(t *testing.T) {
	summary := NewBuilder().WithSource(sampleInfo()).Build()
	md := NewMarkdownFormatter().Format(summary)

	if strings.Contains(md, "`") {
		t.Errorf("probe summary should not list files:\n%s", md)
	}
}

func TestTextFormatter_StillImage(t *testing.T) {
	summary := NewBuilder().
		WithSource(mediareader.Info{
			Path:   "photo.bmp",
			Kind:   mediareader.KindStillImage,
			Width:  4,
			Height: 2,
			Format: ports.FormatRGB24,
		}).
		Build()

	text := NewTextFormatter().Format(summary)

	if !strings.Contains(text, "photo.bmp") || !strings.Contains(text, "4x2") {
		t.Errorf("text output missing source details:\n%s", text)
	}
	if strings.Contains(text, "fps") {
		t.Errorf("still image should not report a frame rate:\n%s", text)
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(*Summary) string { return "report" }), fs)

	if err := w.Write("reports/summary.md", NewSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := fs.GetFile("reports/summary.md")
	if !ok {
		t.Fatal("expected file to be written")
	}
	if string(data) != "report" {
		t.Errorf("expected 'report', got %q", data)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(string, []byte) error { return ports.ErrIO }
	w := NewWriter(NewTextFormatter(), fs)

	if err := w.Write("summary.txt", NewSummary()); err == nil {
		t.Error("expected error")
	}
}
