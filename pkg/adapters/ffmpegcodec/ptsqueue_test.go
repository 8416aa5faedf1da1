package ffmpegcodec

import "testing"

func TestPTSQueue_ReordersWithinEpoch(t *testing.T) {
	var q ptsQueue
	// Decode order of an I P B B group.
	for _, pts := range []int64{0, 100, 33, 66} {
		q.push(pts)
	}

	want := []int64{0, 33, 66, 100}
	for i, w := range want {
		if got := q.pop(); got != w {
			t.Errorf("pop %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestPTSQueue_LoopStartsNewEpoch(t *testing.T) {
	var q ptsQueue
	for _, pts := range []int64{0, 33, 66} {
		q.push(pts)
	}
	// Playback looped before the decoder drained the first pass.
	q.push(0)
	q.push(33)

	want := []int64{0, 33, 66, 0, 33}
	for i, w := range want {
		if got := q.pop(); got != w {
			t.Errorf("pop %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestPTSQueue_EmptyRepeatsLast(t *testing.T) {
	var q ptsQueue
	if got := q.pop(); got != 0 {
		t.Errorf("expected 0 from an empty queue, got %d", got)
	}
	q.push(500)
	q.pop()
	if got := q.pop(); got != 500 {
		t.Errorf("expected last value 500, got %d", got)
	}

	q.reset()
	if got := q.pop(); got != 0 {
		t.Errorf("expected 0 after reset, got %d", got)
	}
}
