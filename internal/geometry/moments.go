package geometry

import "github.com/golang/geo/r2"

// Moments holds the spatial moments of a contour polygon.
//
// The raw moments m_pq integrate x^p·y^q over the area enclosed by the contour;
// the central moments mu_pq do the same relative to the centroid.
type Moments struct {
	M00, M10, M01 float64
	M20, M11, M02 float64

	Mu20, Mu11, Mu02 float64
}

// Area returns m00, the area enclosed by the contour.
func (m Moments) Area() float64 {
	return m.M00
}

// Centroid returns (m10/m00, m01/m00). The caller must ensure m00 is not zero.
func (m Moments) Centroid() r2.Point {
	return r2.Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}
}

// ComputeMoments integrates the polygon described by the contour using Green's
// theorem over each edge. Contours with fewer than three points, or whose
// points are collinear, enclose no area and return zero moments.
func ComputeMoments(c Contour) Moments {
	var m Moments
	if len(c) < 3 {
		return m
	}

	var a00, a10, a01, a20, a11, a02 float64
	prev := c[len(c)-1]
	xp, yp := float64(prev.X), float64(prev.Y)
	for _, p := range c {
		x, y := float64(p.X), float64(p.Y)
		cross := xp*y - x*yp

		a00 += cross
		a10 += cross * (xp + x)
		a01 += cross * (yp + y)
		a20 += cross * (xp*xp + xp*x + x*x)
		a11 += cross * (xp*(2*yp+y) + x*(yp+2*y))
		a02 += cross * (yp*yp + yp*y + y*y)

		xp, yp = x, y
	}

	if a00 == 0 {
		return m
	}

	// A clockwise trace yields negative signed integrals.
	if a00 < 0 {
		a00, a10, a01 = -a00, -a10, -a01
		a20, a11, a02 = -a20, -a11, -a02
	}

	m.M00 = a00 / 2
	m.M10 = a10 / 6
	m.M01 = a01 / 6
	m.M20 = a20 / 12
	m.M11 = a11 / 24
	m.M02 = a02 / 12

	cx := m.M10 / m.M00
	cy := m.M01 / m.M00
	m.Mu20 = m.M20 - m.M10*cx
	m.Mu11 = m.M11 - m.M10*cy
	m.Mu02 = m.M02 - m.M01*cy

	return m
}
