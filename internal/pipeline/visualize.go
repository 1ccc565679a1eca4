package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/MeKo-Tech/plastiscan/internal/utils"
	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// AnnotationConfig controls how particles are drawn on the output image.
type AnnotationConfig struct {
	OutlineThickness int
	MarkerSize       int
	MarkerThickness  int
	Labels           bool
	Colors           map[detector.Shape]color.RGBA
}

var (
	labelBackground = color.RGBA{A: 255}
	labelForeground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// DefaultShapeColors returns bead blue, fiber red and fragment green.
func DefaultShapeColors() map[detector.Shape]color.RGBA {
	return map[detector.Shape]color.RGBA{
		detector.ShapeBead:     {B: 255, A: 255},
		detector.ShapeFiber:    {R: 255, A: 255},
		detector.ShapeFragment: {G: 255, A: 255},
	}
}

// DefaultAnnotationConfig returns the standard overlay settings.
func DefaultAnnotationConfig() AnnotationConfig {
	return AnnotationConfig{
		OutlineThickness: 2,
		MarkerSize:       10,
		MarkerThickness:  2,
		Labels:           true,
		Colors:           DefaultShapeColors(),
	}
}

// ParseShapeColors parses "#rrggbb" strings keyed by shape name and merges
// them over the default palette.
func ParseShapeColors(hex map[string]string) (map[detector.Shape]color.RGBA, error) {
	colors := DefaultShapeColors()
	for name, h := range hex {
		shape := detector.Shape(name)
		if _, ok := colors[shape]; !ok {
			return nil, fmt.Errorf("unknown shape %q in annotation colors", name)
		}
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("annotation color for %s: %w", name, err)
		}
		r, g, b := c.RGB255()
		colors[shape] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors, nil
}

func (c AnnotationConfig) shapeColor(s detector.Shape) color.RGBA {
	if col, ok := c.Colors[s]; ok {
		return col
	}
	return labelForeground
}

// Label returns the overlay text for a particle, e.g. "bead (314px)".
func Label(shape detector.Shape, area float64) string {
	return fmt.Sprintf("%s (%dpx)", shape, int(area))
}

// Annotate draws every particle onto a copy of img: the contour outline and
// a cross at the centroid in the shape colour, then the label on a black
// box just above the centroid. img must be anchored at the origin, as the
// particles' coordinates are. img itself is never modified.
func Annotate(img image.Image, particles []detector.Particle, cfg AnnotationConfig) *image.RGBA {
	if img == nil {
		return nil
	}
	dst := clone.AsRGBA(img)
	face := basicfont.Face7x13
	textH := face.Metrics().Ascent.Ceil()

	for _, p := range particles {
		col := cfg.shapeColor(p.Shape)
		c := p.Features.Centroid

		utils.DrawPolygon(dst, p.Contour.Polygon(), col, cfg.OutlineThickness)
		utils.DrawCross(dst, c, cfg.MarkerSize, col, cfg.MarkerThickness)

		if !cfg.Labels {
			continue
		}
		text := Label(p.Shape, p.Features.Area)
		textW := font.MeasureString(face, text).Ceil()
		utils.FillRect(dst, image.Rect(c.X-2, c.Y-textH-10, c.X+textW+3, c.Y-1), labelBackground)
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(labelForeground),
			Face: face,
			Dot:  fixed.P(c.X, c.Y-5),
		}
		d.DrawString(text)
	}
	return dst
}
