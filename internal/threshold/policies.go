package threshold

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/histogram"
	"go.uber.org/multierr"
)

// Fixed binarizes at a single cutoff.
type Fixed struct {
	threshold        int
	minRepeatability int
}

// NewFixed returns a single-level policy. The threshold must lie in [0, 255].
func NewFixed(threshold, minRepeatability int) (*Fixed, error) {
	err := multierr.Combine(
		validateLevel(FixedName, "threshold", threshold),
		validateRepeatability(FixedName, minRepeatability),
	)
	if err != nil {
		return nil, err
	}
	return &Fixed{threshold: threshold, minRepeatability: minRepeatability}, nil
}

// Name implements Policy.
func (p *Fixed) Name() string { return FixedName }

// Threshold returns the cutoff.
func (p *Fixed) Threshold() int { return p.threshold }

// MinRepeatability implements Policy.
func (p *Fixed) MinRepeatability() int { return p.minRepeatability }

// BinaryImages implements Policy.
func (p *Fixed) BinaryImages(gray *image.Gray) ([]Level, error) {
	t := uint8(p.threshold)
	return []Level{{Value: t, Image: Binarize(gray, t)}}, nil
}

// Range binarizes at min, min+step, ... up to and including max.
type Range struct {
	min, max, step   int
	minRepeatability int
}

// NewRange returns a multi-level policy. Bounds must lie in [0, 255] with
// min <= max, and step must be positive.
func NewRange(min, max, step, minRepeatability int) (*Range, error) {
	err := multierr.Combine(
		validateLevel(RangeName, "min", min),
		validateLevel(RangeName, "max", max),
		validateRepeatability(RangeName, minRepeatability),
	)
	if min > max {
		err = multierr.Append(err, fmt.Errorf("%s: min %d exceeds max %d: %w", RangeName, min, max, ErrInvalidPolicy))
	}
	if step <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s: step %d must be positive: %w", RangeName, step, ErrInvalidPolicy))
	}
	if err != nil {
		return nil, err
	}
	return &Range{min: min, max: max, step: step, minRepeatability: minRepeatability}, nil
}

// Name implements Policy.
func (p *Range) Name() string { return RangeName }

// Params returns min, max and step.
func (p *Range) Params() (min, max, step int) { return p.min, p.max, p.step }

// MinRepeatability implements Policy.
func (p *Range) MinRepeatability() int { return p.minRepeatability }

// Values returns the cutoffs in level order.
func (p *Range) Values() []uint8 {
	values := make([]uint8, 0, (p.max-p.min)/p.step+1)
	for t := p.min; t <= p.max; t += p.step {
		values = append(values, uint8(t))
	}
	return values
}

// BinaryImages implements Policy.
func (p *Range) BinaryImages(gray *image.Gray) ([]Level, error) {
	values := p.Values()
	levels := make([]Level, len(values))
	for i, t := range values {
		levels[i] = Level{Value: t, Image: Binarize(gray, t)}
	}
	return levels, nil
}

// Otsu binarizes at the single cutoff that maximizes the between-class
// variance of the gray histogram.
type Otsu struct {
	minRepeatability int
}

// NewOtsu returns an automatic single-level policy.
func NewOtsu(minRepeatability int) (*Otsu, error) {
	if err := validateRepeatability(OtsuName, minRepeatability); err != nil {
		return nil, err
	}
	return &Otsu{minRepeatability: minRepeatability}, nil
}

// Name implements Policy.
func (p *Otsu) Name() string { return OtsuName }

// MinRepeatability implements Policy.
func (p *Otsu) MinRepeatability() int { return p.minRepeatability }

// BinaryImages implements Policy.
func (p *Otsu) BinaryImages(gray *image.Gray) ([]Level, error) {
	t := OtsuLevel(gray)
	return []Level{{Value: t, Image: Binarize(gray, t)}}, nil
}

// OtsuLevel returns the cutoff t maximizing the between-class variance when
// pixels <= t form the background. The lowest such t wins ties. A uniform
// image yields 0.
func OtsuLevel(gray *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	total := 0
	sum := 0.0
	for i, n := range bins {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 0
	}

	var (
		weightB int
		sumB    float64
		best    float64
		level   int
	)
	for t, n := range bins {
		weightB += n
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}

		sumB += float64(t * n)
		meanB := sumB / float64(weightB)
		meanF := (sum - sumB) / float64(weightF)

		between := float64(weightB) * float64(weightF) * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}
