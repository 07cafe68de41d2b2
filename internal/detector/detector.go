package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/blob-detector-mcp/internal/contour"
	"github.com/ironsheep/blob-detector-mcp/internal/filter"
	"github.com/ironsheep/blob-detector-mcp/internal/imaging"
	"github.com/ironsheep/blob-detector-mcp/internal/threshold"
)

// DefaultMinDistBetweenObjects is the matching distance used until
// SetMinDistBetweenObjects is called.
const DefaultMinDistBetweenObjects = 10.0

// Precondition errors. Detect returns them before doing any work.
var (
	// ErrEmptyImage is returned for a nil image or one without pixels.
	ErrEmptyImage = errors.New("image has no pixel data")

	// ErrNoPolicy is returned when no threshold policy is configured.
	ErrNoPolicy = errors.New("no threshold policy configured")

	// ErrUnsupportedDepth is returned for images with more than 8 bits per
	// channel.
	ErrUnsupportedDepth = errors.New("unsupported image depth: only 8-bit images are supported")

	// ErrLevelSize is returned when a policy produces a binary image whose
	// bounds differ from the gray image.
	ErrLevelSize = errors.New("binary image bounds differ from the gray image")
)

// Detector finds blobs that recur across the threshold levels of a policy.
//
// Configure a Detector before use. Detect may be called concurrently as long
// as no setter runs at the same time; all clustering state is local to a call.
type Detector struct {
	filters     filter.Pipeline
	policy      threshold.Policy
	minDist     float64
	tracer      contour.Tracer
	grayscale   func(image.Image) *image.Gray
	concurrency int
	log         logrus.FieldLogger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger for per-level debug output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}

// WithTracer replaces the pure-Go contour tracer.
func WithTracer(t contour.Tracer) Option {
	return func(d *Detector) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithConcurrency sets how many levels are extracted in parallel. Values below
// 2 extract sequentially.
func WithConcurrency(n int) Option {
	return func(d *Detector) {
		d.concurrency = n
	}
}

// WithGrayscale replaces the conversion applied to non-gray input images.
func WithGrayscale(fn func(image.Image) *image.Gray) Option {
	return func(d *Detector) {
		if fn != nil {
			d.grayscale = fn
		}
	}
}

// WithFilters sets the initial filter pipeline.
func WithFilters(filters ...filter.Filter) Option {
	return func(d *Detector) {
		d.SetFilters(filters...)
	}
}

// WithPolicy sets the initial threshold policy.
func WithPolicy(p threshold.Policy) Option {
	return func(d *Detector) {
		d.SetPolicy(p)
	}
}

// WithMinDistBetweenObjects sets the initial matching distance.
func WithMinDistBetweenObjects(dist float64) Option {
	return func(d *Detector) {
		d.SetMinDistBetweenObjects(dist)
	}
}

// New returns a Detector with no filters and no policy. A policy must be set
// before Detect is called.
func New(opts ...Option) *Detector {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	d := &Detector{
		minDist:     DefaultMinDistBetweenObjects,
		tracer:      contour.NewSuzukiTracer(),
		grayscale:   imaging.ToGray,
		concurrency: 1,
		log:         silent,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetFilters replaces the filter pipeline. Filters run in the given order.
func (d *Detector) SetFilters(filters ...filter.Filter) {
	d.filters = append(filter.Pipeline(nil), filters...)
}

// Filters returns a copy of the filter pipeline.
func (d *Detector) Filters() filter.Pipeline {
	return append(filter.Pipeline(nil), d.filters...)
}

// SetPolicy replaces the threshold policy.
func (d *Detector) SetPolicy(p threshold.Policy) {
	d.policy = p
}

// Policy returns the threshold policy, nil if none is set.
func (d *Detector) Policy() threshold.Policy {
	return d.policy
}

// SetMinDistBetweenObjects sets the distance below which two candidates of
// different levels are always considered the same object.
func (d *Detector) SetMinDistBetweenObjects(dist float64) {
	d.minDist = dist
}

// MinDistBetweenObjects returns the matching distance.
func (d *Detector) MinDistBetweenObjects() float64 {
	return d.minDist
}

// Detect binarizes img at every level of the policy, extracts candidates per
// level and returns the objects that recur in at least MinRepeatability levels.
//
// Color images are converted to gray first. Objects are reported in the order
// their first candidate was seen. Precondition failures return one of the
// package errors and no objects.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]Object, error) {
	levels, err := d.Candidates(ctx, img)
	if err != nil {
		return nil, err
	}

	s := newClusterSet(d.minDist)
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.add(level.Centers)
		d.log.WithFields(logrus.Fields{
			"threshold":  level.Threshold,
			"candidates": len(level.Centers),
			"clusters":   len(s.clusters),
		}).Debug("Folded threshold level")
	}

	objects := s.objects(d.policy.MinRepeatability())
	d.log.WithFields(logrus.Fields{
		"clusters":          len(s.clusters),
		"objects":           len(objects),
		"min_repeatability": d.policy.MinRepeatability(),
	}).Debug("Detection complete")
	return objects, nil
}

// Candidates returns the accepted candidates of every threshold level without
// clustering them. It applies the same preconditions as Detect.
func (d *Detector) Candidates(ctx context.Context, img image.Image) ([]Level, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if d.policy == nil {
		return nil, ErrNoPolicy
	}
	if imaging.IsHighDepth(img) {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedDepth, img)
	}

	gray := d.grayscale(img)
	binaries, err := d.policy.BinaryImages(gray)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize image: %w", err)
	}
	for _, b := range binaries {
		if b.Image == nil || b.Image.Bounds() != gray.Bounds() {
			return nil, fmt.Errorf("%w: level %d", ErrLevelSize, b.Value)
		}
	}

	d.log.WithFields(logrus.Fields{
		"policy":  d.policy.Name(),
		"levels":  len(binaries),
		"filters": d.filters.Names(),
	}).Debug("Extracting candidates")

	return d.extract(ctx, gray, binaries)
}

// extract runs the extractor on every level, in parallel when configured. The
// result keeps level order regardless of completion order.
func (d *Detector) extract(ctx context.Context, gray *image.Gray, binaries []threshold.Level) ([]Level, error) {
	ex := NewExtractor(d.tracer, d.filters)
	levels := make([]Level, len(binaries))

	if d.concurrency < 2 {
		for i, b := range binaries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			levels[i] = Level{Threshold: b.Value, Centers: ex.Extract(gray, b.Image)}
		}
		return levels, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, b := range binaries {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			levels[i] = Level{Threshold: b.Value, Centers: ex.Extract(gray, b.Image)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return levels, nil
}
