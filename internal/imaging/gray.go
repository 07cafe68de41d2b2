package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// GrayMode selects how color pixels are reduced to a single 8-bit intensity.
type GrayMode string

const (
	// GrayLuma weights R, G and B with the BT.601 coefficients
	// 0.299, 0.587 and 0.114.
	GrayLuma GrayMode = "luma"

	// GrayLightness uses CIE L* scaled to 0..255, which tracks perceived
	// brightness more closely for saturated colors.
	GrayLightness GrayMode = "lightness"
)

// ParseGrayMode converts a mode name to a GrayMode. The empty string selects
// GrayLuma.
func ParseGrayMode(s string) (GrayMode, error) {
	switch GrayMode(strings.ToLower(s)) {
	case "", GrayLuma:
		return GrayLuma, nil
	case GrayLightness:
		return GrayLightness, nil
	default:
		return "", fmt.Errorf("unknown gray mode: %s", s)
	}
}

// IsHighDepth reports whether img stores more than 8 bits per channel.
//
// Detection only works on 8-bit intensities, so callers reject these images
// instead of silently truncating them.
func IsHighDepth(img image.Image) bool {
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

// ToGray converts img to an 8-bit gray image using BT.601 luma.
//
// A *image.Gray is returned as is, keeping its bounds. Any other image is
// converted into a new image whose bounds start at (0,0).
func ToGray(img image.Image) *image.Gray {
	return GrayConverter(GrayLuma)(img)
}

// GrayConverter returns the conversion function for mode. Unknown modes fall
// back to GrayLuma.
func GrayConverter(mode GrayMode) func(image.Image) *image.Gray {
	if mode == GrayLightness {
		return lightness
	}
	return luma
}

func luma(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	// imaging returns images anchored at the origin; the result keeps the
	// input bounds.
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	gray := image.NewGray(img.Bounds())
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+b.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

func lightness(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	src := imaging.Clone(img)
	b := src.Bounds()
	gray := image.NewGray(img.Bounds())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c, ok := colorful.MakeColor(src.NRGBAAt(x, y))
			if !ok {
				// Fully transparent pixels carry no color.
				continue
			}
			l, _, _ := c.Lab()
			gray.Pix[y*gray.Stride+x] = uint8(math.Round(math.Min(math.Max(l, 0), 1) * 255))
		}
	}
	return gray
}
