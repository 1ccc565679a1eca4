package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/MeKo-Tech/plastiscan/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteScene(t, dir, "bead.png", testutil.BeadScene())
	testutil.WriteScene(t, dir, "fiber.png", testutil.FiberScene())
	testutil.WriteScene(t, dir, "mixed.png", testutil.MixedScene())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o600))
	return dir
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	return cfg
}

func TestProcessBatch_NoImageFiles(t *testing.T) {
	result, err := ProcessBatch(context.Background(), []string{t.TempDir()}, testConfig())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no image files found")
}

func TestProcessBatch_InvalidImagePath(t *testing.T) {
	result, err := ProcessBatch(context.Background(), []string{"/nonexistent/file.png"}, testConfig())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestProcessBatch_Directory(t *testing.T) {
	dir := sampleDir(t)
	var progress bytes.Buffer
	cfg := testConfig()
	cfg.ShowProgress = true
	cfg.ProgressWriter = &progress
	cfg.MetricsFile = filepath.Join(t.TempDir(), "plastiscan.prom")

	result, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.WorkerCount)
	require.Equal(t, []string{
		filepath.Join(dir, "bead.png"),
		filepath.Join(dir, "broken.png"),
		filepath.Join(dir, "fiber.png"),
		filepath.Join(dir, "mixed.png"),
	}, result.ImagePaths)

	assert.ErrorIs(t, result.Results[1].Reason, pipeline.ErrDecodeFailure)
	for _, i := range []int{0, 2, 3} {
		assert.FileExists(t, result.Results[i].OutputPath)
	}

	stats := result.Stats()
	assert.Equal(t, 4, stats.TotalImages)
	assert.Equal(t, 3, stats.ProcessedImages)
	assert.Equal(t, 1, stats.FailedImages)

	summary := result.Summary()
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.ByShape[detector.ShapeBead])
	assert.Equal(t, 1, summary.ByShape[detector.ShapeFiber])
	assert.Equal(t, 1, summary.ByShape[detector.ShapeFragment])

	assert.Contains(t, progress.String(), "Processing: 0/4 images")

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `plastiscan_images_processed_total{status="decode_failure"} 1`)
	assert.Contains(t, string(prom), `plastiscan_images_processed_total{status="ok"} 3`)
}

func captureLogs(cfg *Config) *bytes.Buffer {
	var buf bytes.Buffer
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &buf
}

func TestProcessBatch_LogsProgress(t *testing.T) {
	dir := sampleDir(t)
	var bar bytes.Buffer
	cfg := testConfig()
	cfg.LogInterval = 2
	cfg.ShowProgress = true
	cfg.ProgressWriter = &bar
	logs := captureLogs(cfg)

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `level=INFO msg="Batch run started"`)
	assert.Contains(t, out, `level=INFO msg="Batch started" total=4`)
	assert.Contains(t, out, `level=INFO msg="Batch progress" current=2 total=4`)
	assert.Contains(t, out, `level=INFO msg="Batch progress" current=4 total=4`)
	assert.NotContains(t, out, "current=3 ")
	assert.Contains(t, out, `level=INFO msg="Batch completed"`)
	assert.Contains(t, out, `level=INFO msg="Batch run finished"`)

	// the console bar runs alongside the log reporter
	assert.Contains(t, bar.String(), "Processing: 0/4 images")
	assert.Contains(t, bar.String(), "4/4 (100.0%)")
}

func TestProcessBatch_QuietLogsAtDebug(t *testing.T) {
	dir := sampleDir(t)
	var bar bytes.Buffer
	cfg := testConfig()
	cfg.Quiet = true
	cfg.ShowProgress = true
	cfg.ProgressWriter = &bar
	logs := captureLogs(cfg)

	_, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)

	out := logs.String()
	assert.NotContains(t, out, "level=INFO")
	assert.Contains(t, out, `level=DEBUG msg="Batch run started"`)
	assert.Contains(t, out, `level=DEBUG msg="Batch progress" current=4 total=4`)
	assert.Contains(t, out, `level=DEBUG msg="Batch run finished"`)
	assert.Empty(t, bar.String())
}

func TestProcessBatch_SecondRunSkipsOutputs(t *testing.T) {
	dir := sampleDir(t)
	first, err := ProcessBatch(context.Background(), []string{dir}, testConfig())
	require.NoError(t, err)
	second, err := ProcessBatch(context.Background(), []string{dir}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, first.ImagePaths, second.ImagePaths)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestProcessBatch_WriteFailure(t *testing.T) {
	dir := sampleDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "fiber_processed.png"), 0o750))

	_, err := ProcessBatch(context.Background(), []string{dir}, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch processing failed")
}

func TestProcessBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ProcessBatch(ctx, []string{sampleDir(t)}, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func sampleResult() *Result {
	return &Result{
		RunID: "run-1",
		Results: []*pipeline.Result{
			{
				Image: "a.png", Width: 50, Height: 50, OutputPath: "a_processed.png",
				Detections: []pipeline.Detection{{X: 20, Y: 21, Size: 314, Shape: detector.ShapeBead, Color: "#ffffff"}},
			},
			{Image: "b.png", Detections: []pipeline.Detection{}, Failure: "input image not found", Reason: pipeline.ErrInputNotFound},
		},
		ImagePaths:  []string{"a.png", "b.png"},
		WorkerCount: 1,
	}
}

func TestFormatResults_JSONEnvelope(t *testing.T) {
	out, err := sampleResult().FormatResults(pipeline.FormatJSON)
	require.NoError(t, err)

	var decoded struct {
		RunID  string `json:"run_id"`
		Images []struct {
			Image      string `json:"image"`
			Detections []struct {
				X int `json:"x_coordinate"`
			} `json:"detections"`
		} `json:"images"`
		Stats struct {
			Failed int `json:"failed_images"`
		} `json:"stats"`
		Summary struct {
			Total   int            `json:"total"`
			ByShape map[string]int `json:"by_shape"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Images, 2)
	assert.Equal(t, 20, decoded.Images[0].Detections[0].X)
	assert.Equal(t, 1, decoded.Stats.Failed)
	assert.Equal(t, 1, decoded.Summary.Total)
	assert.Equal(t, 1, decoded.Summary.ByShape["bead"])
}

func TestFormatResults_YAMLEnvelope(t *testing.T) {
	out, err := sampleResult().FormatResults(pipeline.FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Len(t, decoded["images"], 2)
}

func TestFormatResults_CSVAndText(t *testing.T) {
	r := sampleResult()

	csvOut, err := r.FormatResults(pipeline.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "image,x_coordinate,y_coordinate,size,shape,color\na.png,20,21,314,bead,#ffffff\n", csvOut)

	text, err := r.FormatResults(pipeline.FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "# a.png")
	assert.Contains(t, text, "# b.png\nerror: input image not found")

	_, err = r.FormatResults("xml")
	assert.Error(t, err)
}

func TestSaveResults(t *testing.T) {
	r := sampleResult()

	var stdout bytes.Buffer
	require.NoError(t, r.SaveResults(&stdout, pipeline.FormatCSV, "", false))
	assert.True(t, strings.HasPrefix(stdout.String(), "image,"))

	stdout.Reset()
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, r.SaveResults(&stdout, pipeline.FormatJSON, path, false))
	assert.Equal(t, "Results written to "+path+"\n", stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	stdout.Reset()
	require.NoError(t, r.SaveResults(&stdout, pipeline.FormatJSON, path, true))
	assert.Empty(t, stdout.String())

	assert.Error(t, r.SaveResults(&stdout, pipeline.FormatCSV, filepath.Join(t.TempDir(), "missing", "out.csv"), true))
}

func TestPrintStatsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := sampleResult()
	r.PrintStats(&buf)
	r.PrintSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "Run: run-1")
	assert.Contains(t, out, "Total images: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Summary:\nparticles: 1")
}
