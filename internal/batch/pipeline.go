package batch

import (
	"github.com/MeKo-Tech/plastiscan/internal/metrics"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
)

// buildPipeline creates a detection pipeline from the batch configuration.
func buildPipeline(config *Config, progressCallback pipeline.ProgressCallback,
	recorder *metrics.Recorder) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithConfig(config.Pipeline).
		WithMaxWorkers(config.Workers).
		WithProgressCallback(progressCallback)

	if recorder != nil {
		b = b.WithObserver(recorder)
	}

	return b.Build()
}
