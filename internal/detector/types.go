package detector

import (
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/stat"
)

// Center is one blob candidate accepted at a single threshold level.
type Center struct {
	// Location is the candidate position in image coordinates, the contour
	// centroid unless a filter relocated it.
	Location r2.Point `json:"location"`

	// Radius is the median distance from Location to the contour points.
	Radius float64 `json:"radius"`

	// Confidence weighs the candidate when its cluster is reduced to an
	// Object. It is 1 unless a filter measured it.
	Confidence float64 `json:"confidence"`
}

// Level holds the candidates accepted at one threshold.
type Level struct {
	// Threshold is the cutoff the binary image was produced with.
	Threshold uint8 `json:"threshold"`

	// Centers are the accepted candidates in contour order.
	Centers []Center `json:"centers"`
}

// Object is a blob found repeatedly across threshold levels.
type Object struct {
	// Location is the confidence-weighted mean of the member locations.
	Location r2.Point `json:"location"`

	// Size is the diameter of the median-radius member.
	Size float64 `json:"size"`

	// Repeatability is the number of member candidates.
	Repeatability int `json:"repeatability"`
}

// Cluster groups candidates from different levels that describe the same blob.
// Members are kept in ascending radius order.
type Cluster []Center

// Representative returns the member at the median index, used both for
// matching new candidates and for sizing the final object.
func (c Cluster) Representative() Center {
	return c[len(c)/2]
}

// insert adds m with one insertion-sort pass from the tail. Members with an
// equal radius keep their arrival order.
func (c Cluster) insert(m Center) Cluster {
	c = append(c, m)
	k := len(c) - 1
	for k > 0 && m.Radius < c[k-1].Radius {
		c[k] = c[k-1]
		k--
	}
	c[k] = m
	return c
}

// Object reduces the cluster to its final position and size. When every member
// has zero confidence the location falls back to the unweighted mean.
func (c Cluster) Object() Object {
	xs := make([]float64, len(c))
	ys := make([]float64, len(c))
	weights := make([]float64, len(c))
	total := 0.0
	for i, m := range c {
		xs[i] = m.Location.X
		ys[i] = m.Location.Y
		weights[i] = m.Confidence
		total += m.Confidence
	}
	if total == 0 {
		weights = nil
	}

	return Object{
		Location:      r2.Point{X: stat.Mean(xs, weights), Y: stat.Mean(ys, weights)},
		Size:          2 * c.Representative().Radius,
		Repeatability: len(c),
	}
}
