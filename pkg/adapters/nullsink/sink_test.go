package nullsink

import (
	"context"
	"testing"

	"github.com/user/fakecam/pkg/ports"
)

func TestSink_Counts(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		if err := s.Deliver(context.Background(), ports.NewFrame(ports.FormatNV21, 4, 2)); err != nil {
			t.Fatalf("Deliver failed: %v", err)
		}
	}
	if s.Count() != 3 {
		t.Errorf("expected 3 frames, got %d", s.Count())
	}
	if s.Bytes() != 3*12 {
		t.Errorf("expected 36 bytes, got %d", s.Bytes())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
