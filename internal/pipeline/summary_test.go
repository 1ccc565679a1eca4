package pipeline

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]Detection{
		{Size: 100, Shape: detector.ShapeBead, Color: "#ffffff"},
		{Size: 200, Shape: detector.ShapeBead, Color: "#ff0000"},
		{Size: 600, Shape: detector.ShapeFiber, Color: "#ffffff"},
	})

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, map[detector.Shape]int{
		detector.ShapeBead:     2,
		detector.ShapeFiber:    1,
		detector.ShapeFragment: 0,
	}, s.ByShape)
	assert.Equal(t, map[string]int{"#ffffff": 2, "#ff0000": 1}, s.ByColor)
	assert.InDelta(t, 100.0, s.MinSize, 1e-9)
	assert.InDelta(t, 600.0, s.MaxSize, 1e-9)
	assert.InDelta(t, 300.0, s.MeanSize, 1e-9)
	// sample deviation of {100, 200, 600}
	assert.InDelta(t, math.Sqrt(70000), s.StdDevSize, 1e-9)
}

func TestSummarize_EdgeCases(t *testing.T) {
	empty := Summarize(nil)
	assert.Zero(t, empty.Total)
	assert.Len(t, empty.ByShape, len(detector.Shapes))
	assert.Empty(t, empty.ByColor)
	assert.Zero(t, empty.MeanSize)

	one := Summarize([]Detection{{Size: 42, Shape: detector.ShapeFragment, Color: "#000000"}})
	assert.InDelta(t, 42.0, one.MeanSize, 1e-9)
	assert.Zero(t, one.StdDevSize)
	assert.Equal(t, 1, one.ByShape[detector.ShapeFragment])
}

func TestSummarizeResults_SkipsFailures(t *testing.T) {
	s := SummarizeResults(append(sampleResults(), nil))
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.ByShape[detector.ShapeBead])
	assert.Equal(t, 1, s.ByShape[detector.ShapeFiber])
}

func TestToPlainTextSummary(t *testing.T) {
	s := Summarize([]Detection{
		{Size: 100, Shape: detector.ShapeBead, Color: "#ff0000"},
		{Size: 300, Shape: detector.ShapeFiber, Color: "#ffffff"},
		{Size: 200, Shape: detector.ShapeBead, Color: "#ffffff"},
	})
	out := ToPlainTextSummary(s)
	assert.Equal(t, `particles: 3
  bead     2
  fiber    1
  fragment 0
size: min 100  max 300  mean 200.0  std dev 100.0
colors:
  #ffffff 2
  #ff0000 1
`, out)

	assert.Equal(t, "particles: 0\n  bead     0\n  fiber    0\n  fragment 0\n", ToPlainTextSummary(Summarize(nil)))
}
