// Package geometry provides the shape descriptors computed from a traced contour.
//
// A contour is the ordered list of boundary pixels of one connected region in a
// binary image. From it this package derives the quantities the filter pipeline
// works on:
//
//   - Moments: raw moments (m00, m10, m01, m20, m11, m02) and the central
//     moments mu20, mu11, mu02, computed by integrating over the polygon the
//     contour describes (Green's theorem), not over its pixels
//   - ArcLength: perimeter of the closed contour
//   - HullArea: area of the convex hull of the contour points
//   - NonzeroBounds: bounding rectangle of all foreground pixels of a mask
//
// # Coordinate System
//
// Points use the standard image convention: origin at the top-left, X grows
// rightward and Y grows downward. Moments are orientation independent: a
// clockwise and a counter-clockwise trace of the same outline yield the same
// positive area.
package geometry
