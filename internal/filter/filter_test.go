package filter

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/golang/geo/r2"

	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

func rect(x, y, w, h int) geometry.Contour {
	return geometry.Contour{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

func inputFor(c geometry.Contour) Input {
	return Input{Contour: c, Moments: geometry.ComputeMoments(c)}
}

// uniformGray returns a w×h gray image filled with v.
func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestConstructors_InvalidBounds(t *testing.T) {
	tests := []struct {
		name string
		make func() error
	}{
		{"area", func() error { _, err := NewArea(10, 5); return err }},
		{"circularity", func() error { _, err := NewCircularity(1, 0.5); return err }},
		{"convexity", func() error { _, err := NewConvexity(0.9, 0.1); return err }},
		{"inertia", func() error { _, err := NewInertia(0.5, 0.4); return err }},
		{"extent", func() error { _, err := NewExtent(2, 1); return err }},
		{"color reversed", func() error { _, err := NewColor(200, 100); return err }},
		{"color negative", func() error { _, err := NewColor(-1, 100); return err }},
		{"color above 255", func() error { _, err := NewColor(0, 256); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.make(); !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestArea(t *testing.T) {
	in := inputFor(rect(0, 0, 10, 10))

	tests := []struct {
		name       string
		min, max   float64
		wantReject bool
	}{
		{"inside", 50, 150, false},
		{"exact bounds", 100, 100, false},
		{"too small", 101, 200, true},
		{"too large", 10, 99, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewArea(tt.min, tt.max)
			if err != nil {
				t.Fatalf("NewArea failed: %v", err)
			}
			if got := f.Test(in).Reject; got != tt.wantReject {
				t.Errorf("Reject: got %v, want %v", got, tt.wantReject)
			}
		})
	}
}

func TestArea_Idempotent(t *testing.T) {
	in := inputFor(rect(3, 4, 7, 9))
	f, err := NewArea(in.Moments.M00, in.Moments.M00)
	if err != nil {
		t.Fatalf("NewArea failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if f.Test(in).Reject {
			t.Fatalf("run %d: contour rejected by its own area", i)
		}
	}
}

func TestCircularity(t *testing.T) {
	// A square scores 4π·100/40² = π/4.
	in := inputFor(rect(0, 0, 10, 10))

	accept, _ := NewCircularity(0.78, 0.79)
	if accept.Test(in).Reject {
		t.Error("square rejected by [0.78, 0.79]")
	}
	strict, _ := NewCircularity(0.8, 1.0)
	if !strict.Test(in).Reject {
		t.Error("square accepted by [0.8, 1.0]")
	}

	point := Input{Contour: geometry.Contour{{X: 1, Y: 1}}}
	if !accept.Test(point).Reject {
		t.Error("contour without perimeter accepted")
	}
}

func TestConvexity(t *testing.T) {
	// An L shape of area 75 inside a hull of area 87.5.
	l := geometry.Contour{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5},
		{X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	}

	tests := []struct {
		name       string
		contour    geometry.Contour
		min, max   float64
		wantReject bool
	}{
		{"square is convex", rect(0, 0, 10, 10), 0.99, 1, false},
		{"L accepted", l, 0.85, 0.86, false},
		{"L rejected", l, 0.9, 1, true},
		{"degenerate hull counts as convex", geometry.Contour{{X: 0, Y: 0}, {X: 4, Y: 0}}, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewConvexity(tt.min, tt.max)
			if err != nil {
				t.Fatalf("NewConvexity failed: %v", err)
			}
			if got := f.Test(inputFor(tt.contour)).Reject; got != tt.wantReject {
				t.Errorf("Reject: got %v, want %v", got, tt.wantReject)
			}
		})
	}
}

func TestInertiaRatio(t *testing.T) {
	tests := []struct {
		name    string
		moments geometry.Moments
		want    float64
	}{
		{"square", geometry.ComputeMoments(rect(0, 0, 10, 10)), 1},
		{"two by one rectangle", geometry.ComputeMoments(rect(0, 0, 20, 10)), 0.25},
		{"degenerate", geometry.Moments{Mu20: 5, Mu02: 5, Mu11: 0.001}, 1},
		{"zero moments", geometry.Moments{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InertiaRatio(tt.moments); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("InertiaRatio: got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestInertia_SetsConfidence(t *testing.T) {
	f, _ := NewInertia(0.2, 1)
	v := f.Test(inputFor(rect(0, 0, 20, 10)))
	if v.Reject {
		t.Fatal("2:1 rectangle rejected by [0.2, 1]")
	}
	if v.Confidence == nil {
		t.Fatal("expected a confidence override")
	}
	if math.Abs(*v.Confidence-0.0625) > 1e-9 {
		t.Errorf("Confidence: got %f, want 0.0625", *v.Confidence)
	}

	tight, _ := NewInertia(0.5, 1)
	if v := tight.Test(inputFor(rect(0, 0, 20, 10))); !v.Reject || v.Confidence != nil {
		t.Errorf("expected rejection without overrides, got %+v", v)
	}
}

func TestColor(t *testing.T) {
	gray := uniformGray(20, 20, 30)
	gray.SetGray(5, 5, color.Gray{Y: 200})
	in := inputFor(rect(0, 0, 10, 10))
	in.Gray = gray

	bright, _ := NewColor(180, 255)
	v := bright.Test(in)
	if v.Reject {
		t.Fatal("bright centroid rejected by [180, 255]")
	}
	if v.Location == nil || *v.Location != (r2.Point{X: 5, Y: 5}) {
		t.Errorf("Location: got %v, want (5,5)", v.Location)
	}

	dark, _ := NewColor(0, 100)
	if !dark.Test(in).Reject {
		t.Error("bright centroid accepted by [0, 100]")
	}

	empty := Input{Gray: gray, Contour: geometry.Contour{{X: 1, Y: 1}}}
	all, _ := NewColor(0, 255)
	if !all.Test(empty).Reject {
		t.Error("contour without area accepted")
	}
}

func TestColor_CentroidOnImageEdge(t *testing.T) {
	gray := uniformGray(10, 10, 40)
	// Centroid (10, 5) lies one column past the image and is clamped to x=9.
	gray.SetGray(9, 5, color.Gray{Y: 250})
	in := inputFor(rect(8, 3, 4, 4))
	in.Gray = gray

	f, _ := NewColor(240, 255)
	if f.Test(in).Reject {
		t.Error("expected the clamped edge pixel to be sampled")
	}
}

func TestExtent(t *testing.T) {
	binary := image.NewGray(image.Rect(0, 0, 30, 30))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			binary.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	in := inputFor(rect(0, 0, 10, 10))
	in.Binary = binary

	full, _ := NewExtent(0.99, 1.01)
	if full.Test(in).Reject {
		t.Error("full extent rejected")
	}

	// Spreading foreground to (19,19) grows the rectangle to 20x20.
	binary.SetGray(19, 19, color.Gray{Y: 255})
	if !full.Test(in).Reject {
		t.Error("quarter extent accepted by [0.99, 1.01]")
	}
	quarter, _ := NewExtent(0.2, 0.3)
	if quarter.Test(in).Reject {
		t.Error("quarter extent rejected by [0.2, 0.3]")
	}

	in.Binary = image.NewGray(image.Rect(0, 0, 5, 5))
	if !quarter.Test(in).Reject {
		t.Error("empty binary image accepted")
	}
}

func TestString(t *testing.T) {
	f, _ := NewArea(20, 300.5)
	if got, want := String(f), "AreaFilter[20,300.5]"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}
