package filter

import (
	"math"

	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

// inertiaEpsilon is the smallest eigenvalue spread treated as anisotropic.
const inertiaEpsilon = 1e-2

// Area rejects contours whose enclosed area m00 lies outside the bounds.
type Area struct {
	interval
}

// NewArea returns an area filter accepting m00 in [min, max].
func NewArea(min, max float64) (*Area, error) {
	iv, err := newInterval(AreaName, min, max)
	if err != nil {
		return nil, err
	}
	return &Area{interval: iv}, nil
}

// Name implements Filter.
func (f *Area) Name() string { return AreaName }

// Test implements Filter.
func (f *Area) Test(in Input) Verdict {
	return reject(f.outside(in.Moments.M00))
}

// Circularity rejects contours whose isoperimetric ratio 4π·area/perimeter²
// lies outside the bounds. A perfect disk scores 1.
type Circularity struct {
	interval
}

// NewCircularity returns a circularity filter accepting ratios in [min, max].
func NewCircularity(min, max float64) (*Circularity, error) {
	iv, err := newInterval(CircularityName, min, max)
	if err != nil {
		return nil, err
	}
	return &Circularity{interval: iv}, nil
}

// Name implements Filter.
func (f *Circularity) Name() string { return CircularityName }

// Test implements Filter. A contour without perimeter is rejected.
func (f *Circularity) Test(in Input) Verdict {
	perimeter := in.Contour.ArcLength()
	if perimeter == 0 {
		return reject(true)
	}
	ratio := 4 * math.Pi * in.Moments.M00 / (perimeter * perimeter)
	return reject(f.outside(ratio))
}

// Convexity rejects contours whose solidity, area over convex hull area, lies
// outside the bounds.
type Convexity struct {
	interval
}

// NewConvexity returns a convexity filter accepting ratios in [min, max].
func NewConvexity(min, max float64) (*Convexity, error) {
	iv, err := newInterval(ConvexityName, min, max)
	if err != nil {
		return nil, err
	}
	return &Convexity{interval: iv}, nil
}

// Name implements Filter.
func (f *Convexity) Name() string { return ConvexityName }

// Test implements Filter. A degenerate hull counts as fully convex.
func (f *Convexity) Test(in Input) Verdict {
	ratio := 1.0
	if hull := in.Contour.HullArea(); hull > 0 {
		ratio = in.Moments.M00 / hull
	}
	return reject(f.outside(ratio))
}

// Inertia rejects contours whose ratio of minimum to maximum second moment of
// area lies outside the bounds. Elongated shapes score near 0, round ones near 1.
//
// On acceptance the candidate confidence becomes the squared ratio.
type Inertia struct {
	interval
}

// NewInertia returns an inertia filter accepting ratios in [min, max].
func NewInertia(min, max float64) (*Inertia, error) {
	iv, err := newInterval(InertiaName, min, max)
	if err != nil {
		return nil, err
	}
	return &Inertia{interval: iv}, nil
}

// Name implements Filter.
func (f *Inertia) Name() string { return InertiaName }

// Test implements Filter.
func (f *Inertia) Test(in Input) Verdict {
	ratio := InertiaRatio(in.Moments)
	if f.outside(ratio) {
		return reject(true)
	}
	confidence := ratio * ratio
	return Verdict{Confidence: &confidence}
}

// InertiaRatio returns imin/imax, the eigenvalues of the central second moment
// matrix in closed form. Shapes too isotropic to define principal axes return 1.
func InertiaRatio(m geometry.Moments) float64 {
	diff := m.Mu20 - m.Mu02
	denominator := math.Sqrt(4*m.Mu11*m.Mu11 + diff*diff)
	if denominator <= inertiaEpsilon {
		return 1
	}

	cosmin := diff / denominator
	sinmin := 2 * m.Mu11 / denominator
	half := 0.5 * (m.Mu20 + m.Mu02)

	imin := half - 0.5*diff*cosmin - m.Mu11*sinmin
	imax := half + 0.5*diff*cosmin + m.Mu11*sinmin
	return imin / imax
}

// Extent rejects contours whose area over the area of the bounding rectangle
// of every foreground pixel in the binary image lies outside the bounds.
type Extent struct {
	interval
}

// NewExtent returns an extent filter accepting ratios in [min, max].
func NewExtent(min, max float64) (*Extent, error) {
	iv, err := newInterval(ExtentName, min, max)
	if err != nil {
		return nil, err
	}
	return &Extent{interval: iv}, nil
}

// Name implements Filter.
func (f *Extent) Name() string { return ExtentName }

// Test implements Filter. A binary image without foreground is rejected.
func (f *Extent) Test(in Input) Verdict {
	if in.Binary == nil {
		return reject(true)
	}
	r := geometry.NonzeroBounds(in.Binary)
	area := float64(r.Dx() * r.Dy())
	if area == 0 {
		return reject(true)
	}
	return reject(f.outside(in.Moments.M00 / area))
}
