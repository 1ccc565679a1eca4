package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Detection and annotation settings
	Pipeline pipeline.Config

	// Output settings
	Format     string
	OutputFile string

	// Parallel processing settings
	Workers int

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ShowStats        bool
	ShowSummary      bool
	ProgressInterval time.Duration

	// MetricsFile, when set, receives the run's Prometheus metrics in
	// textfile-collector format.
	MetricsFile string

	// ProgressWriter receives the progress bar; nil means stderr.
	ProgressWriter io.Writer

	// Logger receives run and progress records; nil means slog.Default().
	// They are logged at info level, or at debug level when Quiet is set.
	Logger *slog.Logger
	// LogInterval is the number of images between progress records.
	LogInterval int
}

// DefaultConfig returns batch settings around the default pipeline.
func DefaultConfig() *Config {
	return &Config{
		Pipeline:         pipeline.DefaultConfig(),
		Format:           pipeline.FormatText,
		Workers:          4,
		ProgressInterval: 100 * time.Millisecond,
		LogInterval:      10,
	}
}

// Result holds the result of batch processing.
type Result struct {
	RunID       string
	Results     []*pipeline.Result
	ImagePaths  []string
	Duration    time.Duration
	WorkerCount int
}

// Stats returns the run statistics.
func (r *Result) Stats() pipeline.ParallelStats {
	return pipeline.CalculateParallelStats(r.Results, r.Duration, r.WorkerCount)
}

// Summary aggregates the detections of every readable image.
func (r *Result) Summary() pipeline.Summary {
	return pipeline.SummarizeResults(r.Results)
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r, format)
}

// SaveResults writes the formatted results to outputFile, or to w when no
// file is given.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(w, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	stats := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Run: %s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "  Total images: %d\n", stats.TotalImages)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", stats.ProcessedImages)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", stats.FailedImages)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", stats.WorkerCount)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", stats.TotalDuration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", stats.AveragePerImage.Round(time.Millisecond))
	_, _ = fmt.Fprintf(w, "  Throughput: %.1f images/sec\n", stats.ThroughputPerSec)
}

// PrintSummary prints the particle summary of the whole run.
func (r *Result) PrintSummary(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\nSummary:\n%s", pipeline.ToPlainTextSummary(r.Summary()))
}
