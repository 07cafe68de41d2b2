// Package filter decides which traced contours count as blob candidates.
//
// Each Filter measures one property of a contour (area, circularity,
// convexity, inertia ratio, centroid gray level or extent) and rejects it when
// the measure falls outside an inclusive interval. Filters hold nothing but
// their bounds, so one instance may be shared by concurrent pipelines.
//
// Some filters refine the candidate when they accept it: the inertia filter
// sets its confidence and the color filter sets its location. These refinements
// are returned in a Verdict rather than written into shared state, and a
// Pipeline folds them in order.
package filter
