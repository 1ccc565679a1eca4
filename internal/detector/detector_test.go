package detector

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T, mutate func(*Config)) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := NewDetector(cfg)
	require.NoError(t, err)
	return d
}

// colorOnly segments by colour ranges alone. With the adaptive mask a
// bright disk also picks up the dark ring just outside it, so a radius-10
// disk measures 837 px with mean colour #616161 instead of 317 px of white.
func colorOnly(c *Config) { c.AdaptiveEnabled = false }

func countShapes(particles []Particle) map[Shape]int {
	counts := make(map[Shape]int)
	for _, p := range particles {
		counts[p.Shape]++
	}
	return counts
}

func TestNewDetector_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptiveBlockSize = 4
	d, err := NewDetector(cfg)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "invalid detector config")
}

func TestDetector_GetConfigIsACopy(t *testing.T) {
	d := newTestDetector(t, nil)
	cfg := d.GetConfig()
	cfg.ColorRanges[0].VMin = 0
	cfg.MinArea = 1
	again := d.GetConfig()
	assert.Equal(t, 150, again.ColorRanges[0].VMin)
	assert.InDelta(t, 50.0, again.MinArea, 1e-9)
}

func TestAnalyze_WhiteDiskIsBead(t *testing.T) {
	img := uniformNRGBA(100, 100, black)
	paintDisk(img, 50, 50, 10, white)

	res, err := newTestDetector(t, colorOnly).Analyze(img)
	require.NoError(t, err)
	require.Len(t, res.Particles, 1)

	p := res.Particles[0]
	assert.Equal(t, ShapeBead, p.Shape)
	assert.InDelta(t, 314, p.Features.Area, 20)
	assert.True(t, strings.HasPrefix(p.Features.Color, "#f"), p.Features.Color)
	assert.InDelta(t, 50, p.Features.Centroid.X, 1)
	assert.InDelta(t, 50, p.Features.Centroid.Y, 1)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 100, res.Height)
}

func TestAnalyze_DefaultConfigBead(t *testing.T) {
	img := uniformNRGBA(100, 100, black)
	paintDisk(img, 50, 50, 10, white)

	res, err := newTestDetector(t, nil).Analyze(img)
	require.NoError(t, err)
	assert.Equal(t, map[Shape]int{ShapeBead: 1}, countShapes(res.Particles))

	// the dark ring picked up by the adaptive mask is measured with the disk
	f := res.Particles[0].Features
	assert.Equal(t, image.Pt(50, 50), f.Centroid)
	assert.InDelta(t, 837, f.Area, 1e-9)
	assert.Equal(t, "#616161", f.Color)
}

func TestAnalyze_ThinBarIsFiber(t *testing.T) {
	img := uniformNRGBA(100, 100, black)
	paintRect(img, image.Rect(49, 30, 51, 70), white)

	res, err := newTestDetector(t, nil).Analyze(img)
	require.NoError(t, err)
	require.Len(t, res.Particles, 1)
	p := res.Particles[0]
	assert.Equal(t, ShapeFiber, p.Shape)
	// the bar is grown by the adaptive halo of half a block on every side
	assert.InDelta(t, 600, p.Features.Area, 1e-9)
	assert.InDelta(t, 12.0/50.0, p.Features.AspectRatio, 1e-9)
}

func TestAnalyze_ThinBarVanishesWithoutAdaptive(t *testing.T) {
	img := uniformNRGBA(100, 100, black)
	paintRect(img, image.Rect(49, 30, 51, 70), white)

	res, err := newTestDetector(t, colorOnly).Analyze(img)
	require.NoError(t, err)
	assert.Empty(t, res.Particles)
	assert.Zero(t, res.Contours)
}

func TestAnalyze_RectangleIsFragment(t *testing.T) {
	img := uniformNRGBA(100, 100, black)
	paintRect(img, image.Rect(20, 30, 60, 45), color.NRGBA{R: 30, G: 200, B: 30, A: 255})

	res, err := newTestDetector(t, colorOnly).Analyze(img)
	require.NoError(t, err)
	require.Len(t, res.Particles, 1)
	p := res.Particles[0]
	assert.Equal(t, ShapeFragment, p.Shape)
	assert.InDelta(t, 600, p.Features.Area, 1e-9)
	assert.Equal(t, "#1ec81e", p.Features.Color)
	assert.Equal(t, image.Pt(39, 37), p.Features.Centroid)
}

func TestAnalyze_UniformBlackHasNoDetections(t *testing.T) {
	res, err := newTestDetector(t, nil).Analyze(uniformNRGBA(64, 48, black))
	require.NoError(t, err)
	assert.Empty(t, res.Particles)
	assert.Zero(t, res.Contours)
	assert.Zero(t, res.Rejected.Total())
	assert.Zero(t, res.Mask.Count())
}

func TestAnalyze_SmallSpotRejected(t *testing.T) {
	img := uniformNRGBA(60, 60, black)
	paintRect(img, image.Rect(20, 20, 25, 25), white)

	res, err := newTestDetector(t, colorOnly).Analyze(img)
	require.NoError(t, err)
	assert.Empty(t, res.Particles)
	assert.Equal(t, 1, res.Contours)
	assert.Equal(t, 1, res.Rejected[RejectArea])
}

func TestAnalyze_MultipleParticlesInRasterOrder(t *testing.T) {
	img := uniformNRGBA(120, 80, black)
	paintDisk(img, 90, 20, 10, white)
	paintRect(img, image.Rect(10, 50, 50, 65), white)

	res, err := newTestDetector(t, colorOnly).Analyze(img)
	require.NoError(t, err)
	require.Len(t, res.Particles, 2)
	assert.Equal(t, ShapeBead, res.Particles[0].Shape)
	assert.Equal(t, ShapeFragment, res.Particles[1].Shape)
}

func TestAnalyze_RecordsStageTimings(t *testing.T) {
	res, err := newTestDetector(t, nil).Analyze(uniformNRGBA(16, 16, white))
	require.NoError(t, err)
	durations := res.Timings.Durations()
	for _, stage := range []string{StagePreprocess, StageSegment, StageClean, StageContours, StageFilter, StageFeatures} {
		assert.Contains(t, durations, stage)
	}
}

func TestAnalyze_DoesNotModifyInput(t *testing.T) {
	img := uniformNRGBA(40, 40, black)
	paintDisk(img, 20, 20, 8, white)
	before := append([]uint8(nil), img.Pix...)

	res, err := newTestDetector(t, nil).Analyze(img)
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
	res.Original.Pix[0] = 7
	assert.Equal(t, before[0], img.Pix[0])
}

func TestAnalyze_NilImage(t *testing.T) {
	_, err := newTestDetector(t, nil).Analyze(nil)
	assert.Error(t, err)
}
