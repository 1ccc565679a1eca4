package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResults() []*Result {
	return []*Result{
		{
			Image:  "a.png",
			Width:  100,
			Height: 80,
			Detections: []Detection{
				{X: 50, Y: 40, Size: 314, Shape: detector.ShapeBead, Color: "#ffffff"},
				{X: 10, Y: 12, Size: 600.5, Shape: detector.ShapeFiber, Color: "#1ec81e"},
			},
			OutputPath: "a_processed.png",
		},
		failedResult("missing.png", fmt.Errorf("%w: boom", ErrInputNotFound)),
		{Image: "empty.png", Width: 20, Height: 20, Detections: []Detection{}, OutputPath: "empty_processed.png"},
	}
}

func TestFormatResults_CSV(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"a.png", "50", "40", "314", "bead", "#ffffff"}, rows[1])
	assert.Equal(t, []string{"a.png", "10", "12", "600.5", "fiber", "#1ec81e"}, rows[2])
}

func TestFormatResults_JSON(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatJSON)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)

	dets := decoded[0]["detections"].([]any)
	first := dets[0].(map[string]any)
	assert.InDelta(t, 50.0, first["x_coordinate"], 1e-9)
	assert.InDelta(t, 40.0, first["y_coordinate"], 1e-9)
	assert.Equal(t, "bead", first["shape"])
	assert.Equal(t, "a_processed.png", decoded[0]["output_path"])
	assert.NotContains(t, decoded[0], "failure")

	assert.Contains(t, decoded[1]["failure"], "input image not found")
	assert.Empty(t, decoded[1]["detections"])
	assert.Empty(t, decoded[1]["output_path"])
}

func TestFormatResults_YAML(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "x_coordinate: 50")

	var decoded []Result
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, sampleResults()[0].Detections, decoded[0].Detections)
}

func TestFormatResults_Text(t *testing.T) {
	for _, format := range []string{FormatText, ""} {
		out, err := FormatResults(sampleResults(), format)
		require.NoError(t, err)
		assert.Contains(t, out, "# a.png\nsize: 100x80\ndetections: 2\n")
		assert.Contains(t, out, "bead")
		assert.Contains(t, out, "annotated: a_processed.png")
		assert.Contains(t, out, "# missing.png\nerror: input image not found: boom")
		assert.Contains(t, out, "# empty.png\nsize: 20x20\ndetections: 0\n")
	}
}

func TestFormatResults_Unsupported(t *testing.T) {
	_, err := FormatResults(sampleResults(), "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestToJSONResult(t *testing.T) {
	_, err := ToJSONResult(nil)
	require.Error(t, err)

	out, err := ToJSONResult(sampleResults()[0])
	require.NoError(t, err)
	assert.Contains(t, out, `"x_coordinate": 50`)
	assert.NotContains(t, out, "Annotated")
}

func TestSortDetectionsTopLeft(t *testing.T) {
	res := &Result{Detections: []Detection{
		{X: 5, Y: 20}, {X: 30, Y: 2}, {X: 1, Y: 20}, {X: 0, Y: 2},
	}}
	SortDetectionsTopLeft(res)
	assert.Equal(t, []Detection{{X: 0, Y: 2}, {X: 30, Y: 2}, {X: 1, Y: 20}, {X: 5, Y: 20}}, res.Detections)
}

func TestSortResults(t *testing.T) {
	dets := func() []Detection {
		return []Detection{{X: 40, Y: 30, Size: 1}, {X: 10, Y: 5, Size: 2}, {X: 3, Y: 30, Size: 3}}
	}
	results := func() []*Result {
		return []*Result{{Detections: dets()}, nil, failedResult("gone.png", ErrInputNotFound)}
	}

	kept := results()
	require.NoError(t, SortResults(kept, OrderExtraction))
	assert.Equal(t, dets(), kept[0].Detections)
	require.NoError(t, SortResults(kept, ""))
	assert.Equal(t, dets(), kept[0].Detections)

	sorted := results()
	require.NoError(t, SortResults(sorted, OrderPosition))
	assert.Equal(t, []float64{2, 3, 1}, []float64{
		sorted[0].Detections[0].Size, sorted[0].Detections[1].Size, sorted[0].Detections[2].Size,
	})
	assert.Empty(t, sorted[2].Detections)

	err := SortResults(results(), "size")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size")
}

func TestValidateResult(t *testing.T) {
	for _, res := range sampleResults() {
		require.NoError(t, ValidateResult(res), res.Image)
	}

	valid := func() *Result { return sampleResults()[0] }
	tests := []struct {
		name   string
		mutate func(*Result)
		want   string
	}{
		{"centroid outside", func(r *Result) { r.Detections[0].X = 100 }, "outside"},
		{"negative centroid", func(r *Result) { r.Detections[0].Y = -1 }, "outside"},
		{"zero size", func(r *Result) { r.Detections[1].Size = 0 }, "non-positive size"},
		{"unknown shape", func(r *Result) { r.Detections[0].Shape = "pellet" }, "unknown shape"},
		{"uppercase color", func(r *Result) { r.Detections[0].Color = "#FFFFFF" }, "malformed color"},
		{"bad size", func(r *Result) { r.Width = 0 }, "invalid image size"},
		{"failed with output", func(r *Result) {
			r.Reason = ErrDecodeFailure
			r.Detections = nil
		}, "no output path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			assert.ErrorContains(t, ValidateResult(r), tt.want)
		})
	}
	assert.Error(t, ValidateResult(nil))
}
