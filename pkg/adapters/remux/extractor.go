package remux

import (
	"fmt"

	"github.com/user/fakecam/pkg/ports"
)

// Extractor serves the remuxed video through inner and reports the
// source's first audio stream as an extra track so callers still see it.
// Close removes the temporary file.
type Extractor struct {
	ports.Extractor

	remuxer *Remuxer
	path    string
	audio   *ports.TrackFormat
}

// NewExtractor wraps inner, which reads res.Path.
func (r *Remuxer) NewExtractor(inner ports.Extractor, res *Result) *Extractor {
	e := &Extractor{Extractor: inner, remuxer: r, path: res.Path}
	if a, ok := res.Probe.FirstOf("audio"); ok {
		tf := a.TrackFormat()
		e.audio = &tf
	}
	return e
}

func (e *Extractor) TrackCount() int {
	n := e.Extractor.TrackCount()
	if e.audio != nil {
		n++
	}
	return n
}

func (e *Extractor) TrackFormat(index int) (ports.TrackFormat, error) {
	if e.audio != nil && index == e.Extractor.TrackCount() {
		return *e.audio, nil
	}
	return e.Extractor.TrackFormat(index)
}

func (e *Extractor) SelectTrack(index int) error {
	if e.audio != nil && index == e.Extractor.TrackCount() {
		return fmt.Errorf("remux: audio track %d is not extracted", index)
	}
	return e.Extractor.SelectTrack(index)
}

// Close closes inner and removes the temporary file.
func (e *Extractor) Close() error {
	err := e.Extractor.Close()
	if e.path != "" {
		e.remuxer.remove(e.path)
		e.path = ""
	}
	return err
}

var _ ports.Extractor = (*Extractor)(nil)
