package contour

import (
	"image"

	"github.com/ironsheep/blob-detector-mcp/internal/geometry"
)

// Tracer extracts contours from a binary image.
type Tracer interface {
	Trace(binary *image.Gray) []geometry.Contour
}

// SuzukiTracer traces borders with the Suzuki–Abe border following algorithm.
type SuzukiTracer struct{}

// NewSuzukiTracer returns the pure-Go tracer.
func NewSuzukiTracer() *SuzukiTracer {
	return &SuzukiTracer{}
}

// neighbours lists the 8-neighbourhood in clockwise order on screen, starting east.
var neighbours = [8]image.Point{
	{X: 1, Y: 0},
	{X: 1, Y: 1},
	{X: 0, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: 0},
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
}

// labelGrid is the working copy of the binary image: 0 background, 1 unvisited
// foreground, ±NBD for pixels on a followed border. It carries a one-pixel
// background frame so neighbour lookups never leave the grid.
type labelGrid struct {
	w, h int
	f    []int32
}

func (g *labelGrid) at(x, y int) int32 {
	return g.f[y*g.w+x]
}

func (g *labelGrid) set(x, y int, v int32) {
	g.f[y*g.w+x] = v
}

func direction(from, to image.Point) int {
	d := to.Sub(from)
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}

// Trace returns every outer and hole border of the nonzero regions in binary, in
// raster order of their starting pixel. Points are in binary's coordinate space.
func (t *SuzukiTracer) Trace(binary *image.Gray) []geometry.Contour {
	b := binary.Bounds()
	g := &labelGrid{w: b.Dx() + 2, h: b.Dy() + 2}
	g.f = make([]int32, g.w*g.h)
	for y := 0; y < b.Dy(); y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+b.Dx()]
		for x, v := range row {
			if v != 0 {
				g.set(x+1, y+1, 1)
			}
		}
	}

	offset := b.Min.Sub(image.Pt(1, 1))
	var contours []geometry.Contour
	nbd := int32(1)

	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			v := g.at(x, y)
			if v == 0 {
				continue
			}

			var from image.Point
			switch {
			case v == 1 && g.at(x-1, y) == 0:
				from = image.Pt(x-1, y)
			case v >= 1 && g.at(x+1, y) == 0:
				from = image.Pt(x+1, y)
			default:
				continue
			}

			nbd++
			border := g.follow(image.Pt(x, y), from, nbd)
			for i := range border {
				border[i] = border[i].Add(offset)
			}
			contours = append(contours, border)
		}
	}

	return contours
}

// follow walks one border starting at start, entering from the background pixel
// from, and labels it with nbd. It returns the border pixels in walk order.
func (g *labelGrid) follow(start, from image.Point, nbd int32) geometry.Contour {
	// Clockwise search for the first foreground neighbour.
	d0 := direction(start, from)
	var first image.Point
	found := false
	for k := 0; k < 8; k++ {
		p := start.Add(neighbours[(d0+k)%8])
		if g.at(p.X, p.Y) != 0 {
			first = p
			found = true
			break
		}
	}
	if !found {
		g.set(start.X, start.Y, -nbd)
		return geometry.Contour{start}
	}

	border := geometry.Contour{}
	prev, cur := first, start
	for {
		// Counter-clockwise search around cur, starting after prev.
		dPrev := direction(cur, prev)
		eastZero := false
		var next image.Point
		for k := 1; k <= 8; k++ {
			d := (dPrev - k + 8) % 8
			p := cur.Add(neighbours[d])
			if g.at(p.X, p.Y) != 0 {
				next = p
				break
			}
			if d == 0 {
				eastZero = true
			}
		}

		if eastZero {
			g.set(cur.X, cur.Y, -nbd)
		} else if g.at(cur.X, cur.Y) == 1 {
			g.set(cur.X, cur.Y, nbd)
		}
		border = append(border, cur)

		if next == start && cur == first {
			break
		}
		prev, cur = cur, next
	}
	return border
}
