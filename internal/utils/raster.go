package utils

import (
	"image"
	"math"
	"sort"
)

// FillPolygon visits every pixel covered by the closed integer polygon pts,
// clipped to clip. Coverage is the even-odd scanline interior of the polygon
// (pixel centres on integer coordinates, half-open edges) united with the
// polygon's own edges, so that boundary pixels always count. Each pixel is
// visited exactly once, in raster order.
func FillPolygon(pts []image.Point, clip image.Rectangle, visit func(x, y int)) {
	if len(pts) == 0 {
		return
	}
	bb := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		bb = bb.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	bb = bb.Intersect(clip)
	if bb.Empty() {
		return
	}

	w := bb.Dx()
	covered := make([]bool, w*bb.Dy())
	mark := func(x, y int) {
		if image.Pt(x, y).In(bb) {
			covered[(y-bb.Min.Y)*w+(x-bb.Min.X)] = true
		}
	}

	n := len(pts)
	xs := make([]float64, 0, 8)
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		xs = xs[:0]
		for i := range n {
			a, b := pts[i], pts[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			if a.Y > b.Y {
				a, b = b, a
			}
			if y < a.Y || y >= b.Y {
				continue
			}
			t := float64(y-a.Y) / float64(b.Y-a.Y)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				mark(x, y)
			}
		}
	}

	for i := range n {
		bresenham(pts[i], pts[(i+1)%n], mark)
	}

	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			if covered[(y-bb.Min.Y)*w+(x-bb.Min.X)] {
				visit(x, y)
			}
		}
	}
}

// bresenham calls plot for every pixel on the line from a to b, endpoints included.
func bresenham(a, b image.Point, plot func(x, y int)) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}
