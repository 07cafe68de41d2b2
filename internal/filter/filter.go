package filter

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

// Registered filter names. They double as the type tags of the persisted
// configuration.
const (
	AreaName        = "AreaFilter"
	CircularityName = "CircularityFilter"
	ConvexityName   = "ConvexityFilter"
	InertiaName     = "InertiaFilter"
	ColorName       = "ColorFilter"
	ExtentName      = "ExtentFilter"
)

// ErrInvalidBounds is returned by the filter constructors when the acceptance
// interval is empty or out of range for the filter.
var ErrInvalidBounds = errors.New("invalid filter bounds")

// Input is everything a filter may inspect about one candidate contour.
type Input struct {
	// Gray is the grayscale source image the binary image was derived from.
	Gray *image.Gray

	// Binary is the thresholded image the contour was traced in.
	Binary *image.Gray

	// Contour is the traced outline, in image coordinates.
	Contour geometry.Contour

	// Moments are the polygon moments of Contour.
	Moments geometry.Moments
}

// Verdict is the outcome of testing one contour against one filter.
//
// A nil override leaves the candidate's current value untouched. Overrides are
// only applied when the filter accepted the contour.
type Verdict struct {
	// Reject discards the contour.
	Reject bool

	// Location replaces the candidate location when set.
	Location *r2.Point

	// Confidence replaces the candidate confidence when set.
	Confidence *float64
}

// Filter accepts or rejects contours based on a single shape or intensity
// measure compared against an inclusive [min, max] interval.
type Filter interface {
	// Name returns the registered type name of the filter.
	Name() string

	// Bounds returns the inclusive acceptance interval.
	Bounds() (min, max float64)

	// Test measures the contour and reports whether it is rejected.
	Test(in Input) Verdict
}

// interval is the inclusive acceptance range shared by every filter.
type interval struct {
	min, max float64
}

func newInterval(name string, min, max float64) (interval, error) {
	if min > max {
		return interval{}, fmt.Errorf("%s: min %g exceeds max %g: %w", name, min, max, ErrInvalidBounds)
	}
	return interval{min: min, max: max}, nil
}

// Bounds returns the inclusive acceptance interval.
func (iv interval) Bounds() (float64, float64) {
	return iv.min, iv.max
}

func (iv interval) outside(v float64) bool {
	return v < iv.min || v > iv.max
}

// String renders a filter as "Name[min,max]".
func String(f Filter) string {
	min, max := f.Bounds()
	return fmt.Sprintf("%s[%g,%g]", f.Name(), min, max)
}

func reject(rejected bool) Verdict {
	return Verdict{Reject: rejected}
}
