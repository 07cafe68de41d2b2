package geometry

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// Contour is an ordered sequence of boundary points describing one closed outline.
// The last point connects back to the first.
type Contour []image.Point

// ArcLength returns the perimeter of the closed contour, including the segment
// from the last point back to the first.
func (c Contour) ArcLength() float64 {
	if len(c) < 2 {
		return 0
	}
	perimeter := 0.0
	prev := c[len(c)-1]
	for _, p := range c {
		dx := float64(p.X - prev.X)
		dy := float64(p.Y - prev.Y)
		perimeter += math.Hypot(dx, dy)
		prev = p
	}
	return perimeter
}

// BoundingBox returns the smallest rectangle containing every contour point.
// The rectangle's Max is exclusive, so a single point yields a 1x1 rectangle.
func (c Contour) BoundingBox() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Distances returns the Euclidean distance from origin to every contour point,
// in contour order.
func (c Contour) Distances(origin r2.Point) []float64 {
	dists := make([]float64, len(c))
	for i, p := range c {
		dists[i] = origin.Sub(ToR2(p)).Norm()
	}
	return dists
}

// ToR2 converts an integer pixel position to a floating-point point.
func ToR2(p image.Point) r2.Point {
	return r2.Point{X: float64(p.X), Y: float64(p.Y)}
}

// PolygonArea returns the unsigned area enclosed by pts using the shoelace formula.
func PolygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0
	prev := pts[len(pts)-1]
	for _, p := range pts {
		sum += prev.X*p.Y - p.X*prev.Y
		prev = p
	}
	return math.Abs(float64(sum)) / 2
}
