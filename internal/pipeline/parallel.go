package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// ParallelConfig holds configuration for parallel processing.
type ParallelConfig struct {
	MaxWorkers       int                      // Number of parallel workers (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback         // Optional progress reporting
	ErrorHandler     func(int, string, error) // Optional per-path error handler
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers: runtime.NumCPU(),
	}
}

// pathJob represents a single image path to process.
type pathJob struct {
	index int
	path  string
}

// pathResult represents the outcome of processing a single path.
type pathResult struct {
	index  int
	result *Result
	err    error
}

// DetectPaths runs Detect for every path on a bounded worker pool.
// Results come back in input order. Unreadable inputs yield results with a
// Reason, not errors; the returned error is the first hard failure (such as
// an unwritable output), and its slot in the result slice is nil.
// Cancelling ctx stops new images from starting and returns ctx.Err().
func (p *Pipeline) DetectPaths(ctx context.Context, paths []string, config ParallelConfig) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, errors.New("no images provided")
	}
	if p == nil || p.Detector == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	workers := min(config.MaxWorkers, len(paths))

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(len(paths))
		defer config.ProgressCallback.OnComplete()
	}

	jobs := make(chan pathJob, len(paths))
	results := make(chan pathResult, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- pathJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*Result, len(paths))
	errs := make([]error, len(paths))
	processed := 0
	for r := range results {
		ordered[r.index] = r.result
		errs[r.index] = r.err
		processed++
		if config.ProgressCallback != nil {
			if r.err != nil {
				config.ProgressCallback.OnError(processed, r.err)
			}
			config.ProgressCallback.OnProgress(processed, len(paths))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var firstError error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if firstError == nil {
			firstError = fmt.Errorf("image %d (%s): %w", i, paths[i], err)
		}
		if config.ErrorHandler != nil {
			config.ErrorHandler(i, paths[i], err)
		}
	}
	return ordered, firstError
}

// worker processes paths from the jobs channel until it is drained or ctx
// is done.
func (p *Pipeline) worker(ctx context.Context, jobs <-chan pathJob, results chan<- pathResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			res, err := p.DetectContext(ctx, job.path)
			results <- pathResult{index: job.index, result: res, err: err}
		case <-ctx.Done():
			return
		}
	}
}

// ParallelStats holds statistics about a parallel run.
type ParallelStats struct {
	TotalImages      int           `json:"total_images"         yaml:"total_images"`
	ProcessedImages  int           `json:"processed_images"     yaml:"processed_images"`
	FailedImages     int           `json:"failed_images"        yaml:"failed_images"`
	WorkerCount      int           `json:"worker_count"         yaml:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns"    yaml:"total_duration_ns"`
	AveragePerImage  time.Duration `json:"average_per_image_ns" yaml:"average_per_image_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec"   yaml:"throughput_per_sec"`
}

// CalculateParallelStats summarises a run. A nil result or one with a
// Reason counts as failed.
func CalculateParallelStats(results []*Result, duration time.Duration, workerCount int) ParallelStats {
	processed, failed := 0, 0
	for _, r := range results {
		if r.OK() {
			processed++
		} else {
			failed++
		}
	}

	var avg time.Duration
	var throughput float64
	if processed > 0 {
		avg = duration / time.Duration(processed)
		if duration > 0 {
			throughput = float64(processed) / duration.Seconds()
		}
	}

	return ParallelStats{
		TotalImages:      len(results),
		ProcessedImages:  processed,
		FailedImages:     failed,
		WorkerCount:      workerCount,
		TotalDuration:    duration,
		AveragePerImage:  avg,
		ThroughputPerSec: throughput,
	}
}
