package detector

import (
	"image"

	"github.com/MeKo-Tech/plastiscan/internal/utils"
)

// Contour is the closed outer boundary of one foreground region, as pixel
// coordinates in clockwise order. Only the points where the boundary changes
// direction are kept.
type Contour struct {
	Points []image.Point
}

// Bounds returns the smallest rectangle containing every contour point.
func (c Contour) Bounds() image.Rectangle {
	if len(c.Points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c.Points[0], Max: c.Points[0].Add(image.Pt(1, 1))}
	for _, p := range c.Points[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// Polygon returns the contour points as float coordinates.
func (c Contour) Polygon() []utils.Point {
	return utils.FromImagePoints(c.Points)
}

// Pixels visits every pixel enclosed by the contour, boundary included.
func (c Contour) Pixels(visit func(x, y int)) {
	utils.FillPolygon(c.Points, c.Bounds(), visit)
}

// Area returns the number of pixels enclosed by the contour, boundary included.
func (c Contour) Area() float64 {
	n := 0
	c.Pixels(func(_, _ int) { n++ })
	return float64(n)
}

// ExtractContours traces the outer boundary of every external 8-connected
// foreground region of m. Regions nested inside another region's hole are
// skipped. Contours are returned in raster order of their top-left pixel.
func ExtractContours(m *Mask) []Contour {
	if m.Width == 0 || m.Height == 0 {
		return nil
	}
	comps, labels := connectedComponents(m)
	if len(comps) == 0 {
		return nil
	}
	outer := outerBackground(m)

	contours := make([]Contour, 0, len(comps))
	for _, st := range comps {
		if !isExternal(st, labels, outer, m.Width, m.Height) {
			continue
		}
		pts := traceContourMoore(labels, m.Width, m.Height, st)
		contours = append(contours, Contour{Points: approxSimple(pts)})
	}
	return contours
}

// traceContourMoore walks the boundary of one labelled component with
// Moore-neighbour tracing. It starts at the component's first raster pixel
// with the backtrack to its west and stops once the first move out of the
// start pixel is about to repeat.
func traceContourMoore(labels []int, w, h int, st compStats) []image.Point {
	isLabel := func(p image.Point) bool {
		if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
			return false
		}
		return labels[p.Y*w+p.X] == st.label
	}

	start := image.Pt(st.startX, st.startY)
	first, back, ok := mooreStep(isLabel, start, start.Add(image.Pt(-1, 0)))
	if !ok {
		return []image.Point{start}
	}

	pts := []image.Point{start}
	cur := first
	maxSteps := 4*st.count + 8
	for range maxSteps {
		if cur == start {
			next, _, _ := mooreStep(isLabel, cur, back)
			if next == first {
				break
			}
		}
		pts = append(pts, cur)
		cur, back, _ = mooreStep(isLabel, cur, back)
	}
	return pts
}

// mooreStep scans the 8 neighbours of c clockwise, beginning just after the
// backtrack pixel b, and returns the first component pixel together with the
// neighbour examined immediately before it (the new backtrack).
func mooreStep(isLabel func(image.Point) bool, c, b image.Point) (image.Point, image.Point, bool) {
	i := dirIndex(b.Sub(c))
	for k := 1; k <= 8; k++ {
		j := (i + k) % 8
		p := c.Add(image.Pt(dirs8[j][0], dirs8[j][1]))
		if isLabel(p) {
			prev := (j + 7) % 8
			return p, c.Add(image.Pt(dirs8[prev][0], dirs8[prev][1])), true
		}
	}
	return c, b, false
}

func dirIndex(d image.Point) int {
	for i, v := range dirs8 {
		if v[0] == d.X && v[1] == d.Y {
			return i
		}
	}
	return 0
}

// approxSimple drops every point whose incoming and outgoing steps point the
// same way, treating pts as a closed loop.
func approxSimple(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n)
	for i := range n {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if pts[i].Sub(prev) != next.Sub(pts[i]) {
			out = append(out, pts[i])
		}
	}
	return out
}
