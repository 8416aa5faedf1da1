package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/user/fakecam/pkg/ports"
)

func TestConsoleLogger_LevelsAndStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	log := NewConsoleWriters(ports.LevelInfo, &stdout, &stderr).WithComponent("mediareader")

	log.Debug("Opening %s", "clip.mp4")
	log.Info("Seeked to %d us", 1000)
	log.Warn("Failed to stop decoder: %v", "boom")

	if strings.Contains(stdout.String(), "clip.mp4") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(stdout.String(), "[mediareader]") || !strings.Contains(stdout.String(), "1000") {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "boom") {
		t.Errorf("warning should go to stderr, got %q", stderr.String())
	}
}

func TestStructuredLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructured(ports.LevelDebug, "json", &buf).WithComponent("feed")

	log.Info("Delivered frame %d (%d us)", 3, 100000)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "feed" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["msg"] != "Delivered frame 3 (100000 us)" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("unexpected level %v", entry["level"])
	}
}

func TestStructuredLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log := NewStructured(ports.LevelQuiet, "text", &buf)

	log.Error("Failed to open %s: %v", "x", "y")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}
