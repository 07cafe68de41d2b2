package detector

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/montanaflynn/stats"

	"github.com/ironsheep/blob-detector-mcp/internal/contour"
	"github.com/ironsheep/blob-detector-mcp/internal/filter"
	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

// Extractor finds the blob candidates of a single threshold level.
type Extractor struct {
	tracer   contour.Tracer
	pipeline filter.Pipeline
}

// NewExtractor returns an extractor tracing with tracer and accepting
// contours that pass every filter of pipeline.
func NewExtractor(tracer contour.Tracer, pipeline filter.Pipeline) *Extractor {
	return &Extractor{tracer: tracer, pipeline: pipeline}
}

// Extract traces binary and returns one Center per accepted contour, in the
// order the tracer reported them. Contours enclosing no area are skipped before
// any filter runs.
func (e *Extractor) Extract(gray, binary *image.Gray) []Center {
	var centers []Center
	for _, c := range e.tracer.Trace(binary) {
		m := geometry.ComputeMoments(c)
		if m.M00 == 0 {
			continue
		}

		outcome, ok := e.pipeline.Run(filter.Input{
			Gray:    gray,
			Binary:  binary,
			Contour: c,
			Moments: m,
		})
		if !ok {
			continue
		}

		loc := m.Centroid()
		if outcome.Location != nil {
			loc = *outcome.Location
		}
		radius, err := medianRadius(c, loc)
		if err != nil {
			continue
		}

		centers = append(centers, Center{
			Location:   loc,
			Radius:     radius,
			Confidence: outcome.Confidence,
		})
	}
	return centers
}

// medianRadius returns the median distance from loc to the contour points. An
// even number of points averages the two middle distances.
func medianRadius(c geometry.Contour, loc r2.Point) (float64, error) {
	return stats.Median(c.Distances(loc))
}
