// Package batch discovers images and runs them through the detection
// pipeline in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/plastiscan/internal/metrics"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/google/uuid"
)

// ProcessBatch discovers the images named by paths and processes them with
// the given configuration. Unreadable images are reported in the result;
// an annotated image that cannot be written aborts the run.
func ProcessBatch(ctx context.Context, paths []string, config *Config) (*Result, error) {
	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	logger, level := config.logger()
	progress := pipeline.NewMultiProgressCallback(
		pipeline.NewLogProgressCallback(logger, level).WithInterval(config.LogInterval),
	)
	if config.ShowProgress && !config.Quiet {
		w := config.ProgressWriter
		if w == nil {
			w = os.Stderr
		}
		progress.Add(pipeline.NewConsoleProgressCallback(w, "Processing: ").
			WithUpdateInterval(config.ProgressInterval))
	}

	var recorder *metrics.Recorder
	if config.MetricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	pl, err := buildPipeline(config, progress, recorder)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	runID := uuid.NewString()
	logger.Log(ctx, level, "Batch run started", "run_id", runID, "images", len(files), "workers", config.Workers)

	startTime := time.Now()
	results, err := pl.DetectPaths(ctx, files, pl.Config().Parallel)
	duration := time.Since(startTime)

	if recorder != nil {
		for _, r := range results {
			if r == nil {
				recorder.RecordFailure()
			}
		}
		if werr := recorder.WriteToTextfile(config.MetricsFile); werr != nil {
			logger.Error("Failed to write metrics file", "path", config.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("batch processing failed: %w", err)
	}

	res := &Result{
		RunID:       runID,
		Results:     results,
		ImagePaths:  files,
		Duration:    duration,
		WorkerCount: pl.Config().Parallel.MaxWorkers,
	}
	logger.Log(ctx, level, "Batch run finished", "run_id", runID, "duration", duration.Round(time.Millisecond))
	return res, nil
}

// logger returns the run logger and the level of its routine records.
func (c *Config) logger() (*slog.Logger, slog.Level) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if c.Quiet {
		return logger, slog.LevelDebug
	}
	return logger, slog.LevelInfo
}
