package filter

import (
	"fmt"
	"math"
)

// Color rejects contours whose gray level at the centroid lies outside the
// bounds. Bounds are gray levels and must lie within [0, 255].
//
// On acceptance the candidate location becomes the centroid.
type Color struct {
	interval
}

// NewColor returns a color filter accepting gray levels in [min, max].
func NewColor(min, max float64) (*Color, error) {
	if min < 0 || max > 255 {
		return nil, fmt.Errorf("%s: bounds [%g,%g] outside [0,255]: %w", ColorName, min, max, ErrInvalidBounds)
	}
	iv, err := newInterval(ColorName, min, max)
	if err != nil {
		return nil, err
	}
	return &Color{interval: iv}, nil
}

// Name implements Filter.
func (f *Color) Name() string { return ColorName }

// Test implements Filter. Contours without area have no centroid and are
// rejected, as is any contour when no gray image is supplied.
func (f *Color) Test(in Input) Verdict {
	if in.Moments.M00 == 0 || in.Gray == nil {
		return reject(true)
	}

	centroid := in.Moments.Centroid()
	b := in.Gray.Bounds()
	if b.Empty() {
		return reject(true)
	}
	x := clamp(int(math.RoundToEven(centroid.X)), b.Min.X, b.Max.X-1)
	y := clamp(int(math.RoundToEven(centroid.Y)), b.Min.Y, b.Max.Y-1)

	if f.outside(float64(in.Gray.GrayAt(x, y).Y)) {
		return reject(true)
	}
	return Verdict{Location: &centroid}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
