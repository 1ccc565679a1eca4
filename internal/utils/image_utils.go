package utils

import (
	"image"
	"image/color"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// FromImagePoints converts integer pixel coordinates to float points.
func FromImagePoints(pts []image.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// FillRect fills rect (clipped to dst) with col.
func FillRect(dst *image.RGBA, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	c := color.RGBAModel.Convert(col).(color.RGBA) //nolint:forcetypeassert // RGBAModel always yields color.RGBA
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.SetRGBA(x, y, c)
		}
	}
}

// DrawPolygon draws connected line segments and closes the polygon.
// A single point is drawn as a dot.
func DrawPolygon(dst *image.RGBA, pts []Point, col color.Color, thickness int) {
	if len(pts) == 0 {
		return
	}
	ip := make([]image.Point, len(pts))
	for i, p := range pts {
		ip[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for i := range ip {
		DrawLine(dst, ip[i], ip[(i+1)%len(ip)], col, thickness)
	}
}

// DrawLine draws a line between two points with the given stroke thickness.
func DrawLine(dst *image.RGBA, a, b image.Point, col color.Color, thickness int) {
	bresenham(a, b, func(x, y int) {
		drawThickPoint(dst, x, y, col, thickness)
	})
}

// DrawCross draws a "+" marker centred on c whose arms span size pixels.
func DrawCross(dst *image.RGBA, c image.Point, size int, col color.Color, thickness int) {
	half := size / 2
	DrawLine(dst, image.Pt(c.X-half, c.Y), image.Pt(c.X+half, c.Y), col, thickness)
	DrawLine(dst, image.Pt(c.X, c.Y-half), image.Pt(c.X, c.Y+half), col, thickness)
}

// drawThickPoint paints a thickness x thickness square brush. Even sizes
// extend one pixel further right and down than left and up.
func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	lo := (thickness - 1) / 2
	hi := thickness / 2
	for yy := y - lo; yy <= y+hi; yy++ {
		for xx := x - lo; xx <= x+hi; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}
