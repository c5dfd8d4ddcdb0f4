package media

import (
	"fmt"
	"math"

	"webmc/internal/model"
)

// Scale computes output dimensions from one target dimension, keeping the
// source aspect ratio. A non-zero target.Height wins over target.Width. The
// result is not snapped to any ladder.
func Scale(source, target model.Dimensions) (model.Dimensions, error) {
	if source.Width <= 0 || source.Height <= 0 {
		return model.Dimensions{}, fmt.Errorf("%w: source dimensions %dx%d", model.ErrInvalidArgument, source.Width, source.Height)
	}
	if target.Height > 0 {
		return model.Dimensions{
			Width:  int(math.Round(float64(target.Height) / float64(source.Height) * float64(source.Width))),
			Height: target.Height,
		}, nil
	}
	if target.Width > 0 {
		return model.Dimensions{
			Width:  target.Width,
			Height: int(math.Round(float64(target.Width) / float64(source.Width) * float64(source.Height))),
		}, nil
	}
	return model.Dimensions{}, fmt.Errorf("%w: target must have either width or height", model.ErrInvalidArgument)
}

// IsUpscale reports whether out is larger than source in either dimension.
func IsUpscale(source, out model.Dimensions) bool {
	return out.Width > source.Width || out.Height > source.Height
}
