//go:build gocv

package contour

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

// GoCVTracer traces contours with OpenCV's findContours in list retrieval mode
// with no chain approximation.
type GoCVTracer struct{}

// NewGoCVTracer returns a tracer backed by OpenCV.
func NewGoCVTracer() *GoCVTracer {
	return &GoCVTracer{}
}

// Trace implements Tracer. A mask that OpenCV cannot wrap yields no contours.
func (t *GoCVTracer) Trace(binary *image.Gray) []geometry.Contour {
	mat, err := grayToMat(binary)
	if err != nil {
		return nil
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalList, gocv.ChainApproxNone)
	defer found.Close()

	origin := binary.Bounds().Min
	contours := make([]geometry.Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pts := found.At(i).ToPoints()
		c := make(geometry.Contour, len(pts))
		for j, p := range pts {
			c[j] = p.Add(origin)
		}
		contours = append(contours, c)
	}
	return contours
}

func grayToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(data[y*w:(y+1)*w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to wrap mask: %w", err)
	}
	return mat, nil
}
