package ports

import "errors"

// Error taxonomy shared by frame sources and frame transforms. Failures
// wrap one of these with a diagnostic, so callers match with errors.Is.
var (
	// ErrUnsupportedFormat is returned for file types or pixel-format
	// conversions that are not implemented.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIO is returned when a file cannot be opened, read or stat'ed.
	ErrIO = errors.New("i/o failure")

	// ErrMalformedInput is returned for structurally invalid input such as
	// a bad BMP signature, bit depth or compression mode.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNoTrackFound is returned when a container holds no video track.
	ErrNoTrackFound = errors.New("no video track found")

	// ErrCodecFailure is returned when a decoder cannot be created,
	// configured, started or kept running.
	ErrCodecFailure = errors.New("codec failure")

	// ErrNotReady is returned for operations on a closed source.
	ErrNotReady = errors.New("source not ready")

	// ErrInvalidGeometry is returned when a transform receives an empty
	// buffer or a pixel format it does not handle.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrTryAgain is returned by decoder dequeue calls whose wait expired
	// before a buffer became available. It signals backpressure only.
	ErrTryAgain = errors.New("try again later")
)
