package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameValidate(t *testing.T) {
	withData := func(f Frame, n int) Frame {
		f.Data = make([]byte, n)
		return f
	}
	rgb := NewFrame(FormatRGB24, 4, 2)
	nv21 := NewFrame(FormatNV21, 4, 2)

	tests := []struct {
		name    string
		frame   Frame
		wantErr bool
	}{
		{name: "packed exact", frame: rgb},
		{name: "planar exact", frame: nv21},
		{name: "padded stride", frame: withData(Frame{Width: 2, Height: 2, Format: FormatRGB24, Stride: 8}, 16)},
		{name: "empty", frame: Frame{Width: 4, Height: 2, Format: FormatRGB24, Stride: 12}, wantErr: true},
		{name: "zero height", frame: withData(Frame{Width: 4, Format: FormatRGB24, Stride: 12}, 24), wantErr: true},
		{name: "narrow stride", frame: withData(Frame{Width: 4, Height: 2, Format: FormatRGB24, Stride: 8}, 16), wantErr: true},
		{name: "short buffer", frame: withData(rgb, len(rgb.Data)-1), wantErr: true},
		{name: "oversized buffer", frame: withData(rgb, len(rgb.Data)+1), wantErr: true},
		{name: "oversized planar buffer", frame: withData(nv21, len(nv21.Data)+4), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGeometry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
