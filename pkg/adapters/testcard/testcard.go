// Package testcard renders a colour-bar test card and serves it as a still
// FrameSource, for running without any configured media.
package testcard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/fakecam/pkg/frameutil"
	"github.com/user/fakecam/pkg/ports"
)

// The card is drawn at this size and then resized.
const (
	BaseWidth  = 640
	BaseHeight = 480
)

// Bars are the 75% colour bars, left to right.
var Bars = []color.RGBA{
	{R: 191, G: 191, B: 191, A: 255},
	{R: 191, G: 191, B: 0, A: 255},
	{R: 0, G: 191, B: 191, A: 255},
	{R: 0, G: 191, B: 0, A: 255},
	{R: 191, G: 0, B: 191, A: 255},
	{R: 191, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 191, A: 255},
}

// barsHeight is the fraction of the card covered by the colour bars.
const barsHeight = 0.75

// Render draws the card at width x height with label centred in the lower
// band.
func Render(width, height int, label string) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: test card %dx%d", ports.ErrInvalidGeometry, width, height)
	}

	dc := gg.NewContext(BaseWidth, BaseHeight)
	dc.SetColor(color.Black)
	dc.Clear()

	barW := float64(BaseWidth) / float64(len(Bars))
	barH := float64(BaseHeight) * barsHeight
	for i, c := range Bars {
		dc.SetColor(c)
		dc.DrawRectangle(float64(i)*barW, 0, barW, barH)
		dc.Fill()
	}

	// Grey ramp across the lower band, under the label.
	steps := 8
	stepW := float64(BaseWidth) / float64(steps)
	for i := 0; i < steps; i++ {
		v := uint8(i * 255 / (steps - 1))
		dc.SetColor(color.RGBA{R: v, G: v, B: v, A: 255})
		dc.DrawRectangle(float64(i)*stepW, barH, stepW, float64(BaseHeight)-barH)
		dc.Fill()
	}

	if label != "" {
		cx, cy := float64(BaseWidth)/2, barH+(float64(BaseHeight)-barH)/2
		tw, th := dc.MeasureString(label)
		dc.SetColor(color.Black)
		dc.DrawRoundedRectangle(cx-tw/2-8, cy-th/2-6, tw+16, th+12, 4)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(label, cx, cy, 0.5, 0.5)
	}

	img := dc.Image()
	if width == BaseWidth && height == BaseHeight {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// Source is a FrameSource that returns the card on every call, with the
// timestamp advancing at the nominal frame rate.
type Source struct {
	frame ports.Frame
	rate  float64

	mu sync.Mutex
	n  int64
}

// NewSource renders a card and wraps it as a FrameSource. A rate <= 0
// means 30 fps.
func NewSource(width, height int, label string, rate float64) (*Source, error) {
	img, err := Render(width, height, label)
	if err != nil {
		return nil, err
	}
	if rate <= 0 {
		rate = 30
	}
	return &Source{frame: frameutil.FromImage(img), rate: rate}, nil
}

// NextFrame returns a copy of the card as RGB24.
func (s *Source) NextFrame(ctx context.Context) (ports.Frame, error) {
	if err := ctx.Err(); err != nil {
		return ports.Frame{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frame.Clone()
	f.Timestamp = int64(math.Round(float64(s.n) * 1e6 / s.rate))
	s.n++
	return f, nil
}

func (s *Source) FrameRate() float64 {
	return s.rate
}

var _ ports.FrameSource = (*Source)(nil)
