package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCropRegion(t *testing.T) {
	img := createPatternImage(100, 100)

	cropped, err := CropRegion(img, Region{X1: 50, Y1: 0, X2: 100, Y2: 50})
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}

	if diff := cmp.Diff(image.Rect(0, 0, 50, 50), cropped.Bounds()); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}

	// Top-right quadrant is green.
	r, g, b, _ := cropped.At(25, 25).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("cropped color: got (%d,%d,%d), want (0,255,0)", r>>8, g>>8, b>>8)
	}
}

func TestCropRegion_Invalid(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name string
		r    Region
	}{
		{"x1 negative", Region{-1, 0, 50, 50}},
		{"y1 negative", Region{0, -1, 50, 50}},
		{"x2 too large", Region{0, 0, 101, 50}},
		{"y2 too large", Region{0, 0, 50, 101}},
		{"x1 == x2", Region{50, 0, 50, 50}},
		{"y1 > y2", Region{0, 60, 50, 50}},
		{"zero area", Region{50, 50, 50, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CropRegion(img, tt.r); err == nil {
				t.Errorf("CropRegion should fail for %+v", tt.r)
			}
		})
	}
}

func TestNamedRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name string
		want Region
	}{
		{"top-left", Region{0, 0, 50, 50}},
		{"top-right", Region{50, 0, 100, 50}},
		{"bottom-left", Region{0, 50, 50, 100}},
		{"bottom-right", Region{50, 50, 100, 100}},
		{"top-half", Region{0, 0, 100, 50}},
		{"bottom-half", Region{0, 50, 100, 100}},
		{"left-half", Region{0, 0, 50, 100}},
		{"right-half", Region{50, 0, 100, 100}},
		{"center", Region{25, 25, 75, 75}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NamedRegion(bounds, tt.name)
			if err != nil {
				t.Fatalf("NamedRegion(%s) failed: %v", tt.name, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NamedRegion(%s) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestNamedRegion_OffsetAndOdd(t *testing.T) {
	got, err := NamedRegion(image.Rect(10, 20, 111, 121), "top-left")
	if err != nil {
		t.Fatalf("NamedRegion failed: %v", err)
	}
	// 101/2 = 50 (integer division)
	if diff := cmp.Diff(Region{10, 20, 60, 70}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNamedRegion_Invalid(t *testing.T) {
	for _, name := range []string{"invalid", "TOP-LEFT", "middle", "", "center-left"} {
		t.Run(name, func(t *testing.T) {
			if _, err := NamedRegion(image.Rect(0, 0, 100, 100), name); err == nil {
				t.Errorf("NamedRegion should fail for %q", name)
			}
		})
	}
}
