package filesink

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/user/fakecam/pkg/adapters/logger"
	"github.com/user/fakecam/pkg/mocks"
	"github.com/user/fakecam/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("out", "frames")

func TestSink_DeliverRGBWritesBMP(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, logger.NewNoop())

	frame := ports.NewFrame(ports.FormatRGB24, 2, 1)
	copy(frame.Data, []byte{255, 0, 0, 0, 0, 255})
	if err := sink.Deliver(context.Background(), frame); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frame-0000.bmp")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	img, err := bmp.Decode(bytes.NewReader(saved))
	if err != nil {
		t.Fatalf("saved file is not a BMP: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("pixel 0 = %d,%d,%d, want red", r>>8, g>>8, b>>8)
	}
	if c := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA); c.B != 255 || c.R != 0 {
		t.Errorf("pixel 1 = %+v, want blue", c)
	}
	if exists, _ := fs.Exists(testBaseDir); !exists {
		t.Error("expected base directory to be created")
	}
}

func TestSink_DeliverRawFormats(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, logger.NewNoop()).WithPrefix("cam")

	nv21 := ports.NewFrame(ports.FormatNV21, 2, 2)
	for i := range nv21.Data {
		nv21.Data[i] = byte(i + 1)
	}
	yuv := ports.NewFrame(ports.FormatYUV420Planar, 2, 2)

	for _, f := range []ports.Frame{nv21, yuv} {
		if err := sink.Deliver(context.Background(), f); err != nil {
			t.Fatalf("Deliver %s failed: %v", f.Format, err)
		}
	}

	want := []string{
		filepath.Join(testBaseDir, "cam-0000.nv21"),
		filepath.Join(testBaseDir, "cam-0001.yuv"),
	}
	paths := sink.Paths()
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("Paths() = %v, want %v", paths, want)
	}
	saved, _ := fs.GetFile(want[0])
	if !bytes.Equal(saved, nv21.Data) {
		t.Errorf("raw nv21 = %v, want %v", saved, nv21.Data)
	}
}

func TestSink_Errors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return errors.New("disk full")
	}
	sink := New(testBaseDir, fs, logger.NewNoop())

	if err := sink.Deliver(context.Background(), ports.NewFrame(ports.FormatRGB24, 1, 1)); !errors.Is(err, ports.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
	if err := sink.Deliver(context.Background(), ports.Frame{}); !errors.Is(err, ports.ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry for empty frame, got %v", err)
	}
	if len(sink.Paths()) != 0 {
		t.Errorf("expected no paths, got %v", sink.Paths())
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestEncodeBMP_RejectsPlanar(t *testing.T) {
	if _, err := EncodeBMP(ports.NewFrame(ports.FormatNV21, 2, 2)); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestExtension(t *testing.T) {
	tests := map[ports.PixelFormat]string{
		ports.FormatNV21:         ".nv21",
		ports.FormatYUV420Planar: ".yuv",
		ports.FormatRGB24:        ".bmp",
		ports.FormatRGBA32:       ".bmp",
	}
	for format, want := range tests {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%s) = %q, want %q", format, got, want)
		}
	}
}
