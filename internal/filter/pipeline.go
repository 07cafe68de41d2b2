package filter

import "github.com/golang/geo/r2"

// Outcome is the candidate state after a contour passed a whole pipeline.
type Outcome struct {
	// Location is set when some filter located the candidate.
	Location *r2.Point

	// Confidence starts at 1 and is replaced by filters that measure it.
	Confidence float64
}

// Pipeline is an ordered list of filters. The order matters: filters run in
// sequence and the first rejection ends evaluation.
type Pipeline []Filter

// Run tests in against every filter in order. It returns false as soon as a
// filter rejects; later filters are not consulted and overrides gathered so far
// are discarded. Overrides of accepting filters apply in pipeline order, so a
// later filter wins when two set the same field.
func (p Pipeline) Run(in Input) (Outcome, bool) {
	out := Outcome{Confidence: 1}
	for _, f := range p {
		v := f.Test(in)
		if v.Reject {
			return Outcome{}, false
		}
		if v.Location != nil {
			loc := *v.Location
			out.Location = &loc
		}
		if v.Confidence != nil {
			out.Confidence = *v.Confidence
		}
	}
	return out, true
}

// Names returns the filter names in pipeline order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, f := range p {
		names[i] = f.Name()
	}
	return names
}
