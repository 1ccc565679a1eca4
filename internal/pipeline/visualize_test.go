package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/MeKo-Tech/plastiscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gray = color.NRGBA{R: 100, G: 100, B: 100, A: 255}

func fiberParticle() detector.Particle {
	return detector.Particle{
		Contour: detector.Contour{Points: []image.Point{{10, 10}, {50, 10}, {50, 60}, {10, 60}}},
		Features: detector.Features{
			Centroid: image.Pt(30, 40),
			Area:     100,
			Color:    "#646464",
		},
		Shape: detector.ShapeFiber,
	}
}

func grayImage() *image.NRGBA {
	return testutil.GenerateScene(testutil.SceneConfig{Width: 80, Height: 80, Background: gray})
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func countColor(img *image.RGBA, r image.Rectangle, c color.RGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestAnnotate_OutlineMarkerAndLabel(t *testing.T) {
	src := grayImage()
	before := append([]uint8(nil), src.Pix...)

	out := Annotate(src, []detector.Particle{fiberParticle()}, DefaultAnnotationConfig())
	require.NotNil(t, out)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, before, src.Pix, "input must not be modified")

	red := color.RGBA{R: 255, A: 255}
	assert.Equal(t, red, rgbaAt(out, 10, 10), "outline corner")
	assert.Equal(t, red, rgbaAt(out, 10, 55), "outline edge")
	assert.Equal(t, red, rgbaAt(out, 30, 40), "marker centre")
	assert.Equal(t, red, rgbaAt(out, 35, 40), "marker arm")
	assert.Equal(t, red, rgbaAt(out, 30, 45), "marker arm")

	// the label box spans (cx-2, cy-21) to (cx+textW+2, cy-2)
	assert.Equal(t, labelBackground, rgbaAt(out, 28, 19))
	assert.Equal(t, labelBackground, rgbaAt(out, 28, 38))
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, rgbaAt(out, 28, 39))
	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, rgbaAt(out, 27, 30))
	assert.Positive(t, countColor(out, image.Rect(28, 19, 80, 39), labelForeground), "label text is drawn")
}

func TestAnnotate_LabelsDisabled(t *testing.T) {
	cfg := DefaultAnnotationConfig()
	cfg.Labels = false
	out := Annotate(grayImage(), []detector.Particle{fiberParticle()}, cfg)

	assert.Equal(t, color.RGBA{R: 100, G: 100, B: 100, A: 255}, rgbaAt(out, 28, 19))
	assert.Zero(t, countColor(out, out.Bounds(), labelForeground))
	assert.Zero(t, countColor(out, out.Bounds(), labelBackground))
}

func TestAnnotate_CustomColorsAndNoParticles(t *testing.T) {
	colors, err := ParseShapeColors(map[string]string{"fiber": "#ff00ff"})
	require.NoError(t, err)
	cfg := DefaultAnnotationConfig()
	cfg.Colors = colors

	out := Annotate(grayImage(), []detector.Particle{fiberParticle()}, cfg)
	assert.Equal(t, color.RGBA{R: 255, B: 255, A: 255}, rgbaAt(out, 10, 10))

	src := grayImage()
	plain := Annotate(src, nil, cfg)
	assert.True(t, testutil.CompareImages(src, plain, 0))

	assert.Nil(t, Annotate(nil, nil, cfg))
}

func TestAnnotate_DetectedParticles(t *testing.T) {
	p := newTestPipeline(t, colorOnly)
	a, err := p.Detector.Analyze(testutil.GenerateScene(testutil.BeadScene()))
	require.NoError(t, err)
	require.Len(t, a.Particles, 1)

	out := Annotate(a.Original, a.Particles, p.Config().Annotation)
	blue := color.RGBA{B: 255, A: 255}
	c := a.Particles[0].Features.Centroid
	assert.Equal(t, blue, out.RGBAAt(c.X, c.Y))

	// the lowest contour point lies below both the label box and the marker
	bottom := a.Particles[0].Contour.Points[0]
	for _, pt := range a.Particles[0].Contour.Points {
		if pt.Y > bottom.Y {
			bottom = pt
		}
	}
	assert.Equal(t, blue, out.RGBAAt(bottom.X, bottom.Y))
}

func TestParseShapeColors(t *testing.T) {
	colors, err := ParseShapeColors(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultShapeColors(), colors)

	colors, err = ParseShapeColors(map[string]string{"bead": "#102030"})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, colors[detector.ShapeBead])
	assert.Equal(t, DefaultShapeColors()[detector.ShapeFiber], colors[detector.ShapeFiber])

	_, err = ParseShapeColors(map[string]string{"pellet": "#000000"})
	assert.ErrorContains(t, err, "unknown shape")

	_, err = ParseShapeColors(map[string]string{"bead": "blue"})
	assert.ErrorContains(t, err, "annotation color for bead")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "bead (314px)", Label(detector.ShapeBead, 314.9))
	assert.Equal(t, "fiber (600px)", Label(detector.ShapeFiber, 600))
}
