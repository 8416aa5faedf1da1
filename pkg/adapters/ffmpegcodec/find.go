package ffmpegcodec

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// FindFFmpeg locates the ffmpeg binary. Search order: custom, the
// FFMPEG_PATH environment variable, PATH, then common install locations.
func FindFFmpeg(custom string) (string, error) {
	return findTool("ffmpeg", custom, "FFMPEG_PATH")
}

// FindFFprobe locates ffprobe the same way as FindFFmpeg. When only a
// custom ffmpeg path is known, the ffprobe next to it is tried first.
func FindFFprobe(customFFmpeg string) (string, error) {
	if customFFmpeg != "" {
		sibling := filepath.Join(filepath.Dir(customFFmpeg), executable("ffprobe"))
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	return findTool("ffprobe", "", "FFPROBE_PATH")
}

// IsAvailable reports whether ffmpeg can be found.
func IsAvailable() bool {
	_, err := FindFFmpeg("")
	return err == nil
}

func executable(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func findTool(name, custom, env string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrToolNotFound, custom)
	}

	if envPath := os.Getenv(env); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", ErrToolNotFound, env, envPath)
	}

	execName := executable(name)
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		dirs = []string{`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`, `C:\Program Files (x86)\ffmpeg\bin`}
	case "darwin":
		dirs = []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"}
	default:
		dirs = []string{"/usr/bin", "/usr/local/bin", "/opt/homebrew/bin", "/snap/bin"}
	}
	for _, dir := range dirs {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}
