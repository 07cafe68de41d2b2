// Package contour traces the outlines of foreground regions in binary images.
//
// The default Tracer is a pure-Go implementation of the Suzuki–Abe border
// following algorithm. It reports every border it finds, outer borders and
// hole borders alike, as a flat list without any hierarchy, and keeps every
// boundary pixel (no chain approximation). Any nonzero pixel is foreground.
//
// Building with the gocv tag adds GoCVTracer, which delegates tracing to
// OpenCV's findContours with the same retrieval settings.
package contour
