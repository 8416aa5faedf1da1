package osfilesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystem_WriteCreatesParentsAndReads(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "frames", "0001", "frame.nv21")

	if err := fs.WriteFile(path, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "\x01\x02\x03" {
		t.Errorf("unexpected contents %v", data)
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "still.bmp")

	exists, err := fs.Exists(path)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected file to not exist yet")
	}

	if err := os.WriteFile(path, []byte("BM"), 0644); err != nil {
		t.Fatal(err)
	}
	if exists, _ := fs.Exists(path); !exists {
		t.Error("expected file to exist")
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected file to be removed")
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b")

	if err := fs.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestFileSystem_TempPath(t *testing.T) {
	fs := &FileSystem{TempDir: t.TempDir()}

	a, err := fs.TempPath("remux-*.mp4")
	if err != nil {
		t.Fatalf("TempPath failed: %v", err)
	}
	b, err := fs.TempPath("remux-*.mp4")
	if err != nil {
		t.Fatalf("TempPath failed: %v", err)
	}

	if a == b {
		t.Errorf("expected distinct paths, got %s twice", a)
	}
	if filepath.Dir(a) != fs.TempDir {
		t.Errorf("expected %s to be inside %s", a, fs.TempDir)
	}
	if !strings.HasSuffix(a, ".mp4") {
		t.Errorf("expected .mp4 suffix, got %s", a)
	}
	if exists, _ := fs.Exists(a); !exists {
		t.Error("expected the temp file to exist")
	}
}
