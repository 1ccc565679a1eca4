package batch

import (
	"encoding/json"

	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// report is the JSON and YAML envelope of a batch run.
type report struct {
	RunID   string                 `json:"run_id"  yaml:"run_id"`
	Images  []*pipeline.Result     `json:"images"  yaml:"images"`
	Stats   pipeline.ParallelStats `json:"stats"   yaml:"stats"`
	Summary pipeline.Summary       `json:"summary" yaml:"summary"`
}

// formatBatchResults formats the batch processing results in the specified
// format. CSV and text reuse the per-image renderers; JSON and YAML wrap the
// images with the run id, statistics and summary.
func formatBatchResults(r *Result, format string) (string, error) {
	switch format {
	case pipeline.FormatJSON:
		bts, err := json.MarshalIndent(newReport(r), "", "  ")
		return string(bts), err
	case pipeline.FormatYAML:
		bts, err := yaml.Marshal(newReport(r))
		return string(bts), err
	default:
		return pipeline.FormatResults(r.Results, format)
	}
}

func newReport(r *Result) report {
	images := make([]*pipeline.Result, 0, len(r.Results))
	for _, res := range r.Results {
		if res != nil {
			images = append(images, res)
		}
	}
	return report{
		RunID:   r.RunID,
		Images:  images,
		Stats:   r.Stats(),
		Summary: r.Summary(),
	}
}
