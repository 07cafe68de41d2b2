package threshold

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// Registered policy names. They double as the type tags of the persisted
// configuration.
const (
	FixedName = "Fixed"
	RangeName = "Range"
	OtsuName  = "Otsu"
)

// ErrInvalidPolicy is returned by the policy constructors for out-of-range
// parameters.
var ErrInvalidPolicy = errors.New("invalid threshold policy")

// Level is one binarization of the gray image.
type Level struct {
	// Value is the cutoff: pixels strictly brighter than Value are foreground.
	Value uint8

	// Image holds 255 for foreground and 0 for background, with the same
	// bounds as the source.
	Image *image.Gray
}

// Policy supplies the threshold levels a detector extracts candidates from.
type Policy interface {
	// Name returns the registered type name of the policy.
	Name() string

	// BinaryImages binarizes gray once per level, in level order.
	BinaryImages(gray *image.Gray) ([]Level, error)

	// MinRepeatability is the number of levels an object must appear in to
	// be reported.
	MinRepeatability() int
}

// Binarize returns a mask with 255 wherever gray is strictly greater than t
// and 0 elsewhere. Rows are processed in parallel.
func Binarize(gray *image.Gray, t uint8) *image.Gray {
	b := gray.Bounds()
	dst := image.NewGray(b)
	w := b.Dx()

	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+w]
			out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
			for x, v := range src {
				if v > t {
					out[x] = 0xFF
				}
			}
		}
	})

	return dst
}

func validateRepeatability(name string, n int) error {
	if n < 1 {
		return fmt.Errorf("%s: minRepeatability %d must be at least 1: %w", name, n, ErrInvalidPolicy)
	}
	return nil
}

func validateLevel(name, field string, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%s: %s %d outside [0,255]: %w", name, field, v, ErrInvalidPolicy)
	}
	return nil
}
