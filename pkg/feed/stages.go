package feed

import (
	"context"
	"fmt"

	"github.com/user/fakecam/pkg/frameutil"
	"github.com/user/fakecam/pkg/pipeline"
	"github.com/user/fakecam/pkg/ports"
)

type frameStage = pipeline.Stage[ports.Frame, ports.Frame]

// normalizeStage brings any source format to RGB24, the working format of
// the geometric transforms.
func normalizeStage() frameStage {
	return pipeline.StageFunc[ports.Frame, ports.Frame](func(ctx context.Context, f ports.Frame) (ports.Frame, error) {
		switch f.Format {
		case ports.FormatRGB24:
			return f, nil
		case ports.FormatNV21:
			return frameutil.ConvertFormat(f, ports.FormatRGB24)
		case ports.FormatYUV420Planar:
			nv21, err := frameutil.I420ToNV21(f)
			if err != nil {
				return ports.Frame{}, err
			}
			return frameutil.ConvertFormat(nv21, ports.FormatRGB24)
		}
		return ports.Frame{}, fmt.Errorf("%w: cannot feed %s source frames", ports.ErrUnsupportedFormat, f.Format)
	})
}

// orientStage applies the front camera transform, then the rotation, then
// the mirror.
func orientStage(front bool, rotation int, mirror bool) frameStage {
	return pipeline.StageFunc[ports.Frame, ports.Frame](func(ctx context.Context, f ports.Frame) (ports.Frame, error) {
		var err error
		if front {
			if f, err = frameutil.ApplyFrontCameraTransform(f); err != nil {
				return ports.Frame{}, err
			}
		}
		if rotation != 0 {
			if f, err = frameutil.Rotate(f, rotation); err != nil {
				return ports.Frame{}, err
			}
		}
		if mirror {
			if !front && rotation == 0 {
				f = f.Clone()
			}
			if err := frameutil.FlipHorizontal(&f); err != nil {
				return ports.Frame{}, err
			}
		}
		return f, nil
	})
}

func resizeStage(width, height int, maintainAspect bool) frameStage {
	return pipeline.StageFunc[ports.Frame, ports.Frame](func(ctx context.Context, f ports.Frame) (ports.Frame, error) {
		return frameutil.MatchResolution(f, width, height, maintainAspect)
	})
}

// outputStage converts RGB24 to the consumer's format.
func outputStage(format ports.PixelFormat) frameStage {
	return pipeline.StageFunc[ports.Frame, ports.Frame](func(ctx context.Context, f ports.Frame) (ports.Frame, error) {
		if format == ports.FormatRGBA32 {
			return frameutil.RGBToRGBA(f)
		}
		return frameutil.ConvertFormat(f, format)
	})
}

// buildChain assembles the transform chain for cfg. Stages that would be
// no-ops are left out.
func buildChain(cfg Config) *pipeline.Chain[ports.Frame] {
	c := pipeline.NewChain[ports.Frame]().Then("normalize", normalizeStage())
	if cfg.FrontCamera || cfg.Rotation != 0 || cfg.Mirror {
		c.Then("orient", orientStage(cfg.FrontCamera, cfg.Rotation, cfg.Mirror))
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		c.Then("resize", resizeStage(cfg.Width, cfg.Height, cfg.MaintainAspect))
	}
	if cfg.Format != ports.FormatRGB24 {
		c.Then("output", outputStage(cfg.Format))
	}
	return c
}
