package geometry

import (
	"image"
	"sort"
)

// ConvexHull returns the convex hull of pts in counter-clockwise order (in a
// y-up frame) using Andrew's monotone chain. Collinear points on the hull edges
// are dropped. Inputs with fewer than three distinct points are returned
// deduplicated and sorted.
func ConvexHull(pts []image.Point) []image.Point {
	sorted := make([]image.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	unique := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			unique = append(unique, p)
		}
	}
	if len(unique) < 3 {
		return unique
	}

	hull := make([]image.Point, 0, 2*len(unique))
	for _, p := range unique {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(unique) - 2; i >= 0; i-- {
		p := unique[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// HullArea returns the area of the convex hull of the contour.
func (c Contour) HullArea() float64 {
	return PolygonArea(ConvexHull(c))
}

func cross(o, a, b image.Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
