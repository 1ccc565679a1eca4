// Package metrics records pipeline activity as Prometheus metrics on a
// private registry, suitable for a node-exporter textfile.
package metrics

import (
	"errors"
	"time"

	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Image status label values.
const (
	StatusOK            = "ok"
	StatusNotFound      = "not_found"
	StatusDecodeFailure = "decode_failure"
	StatusError         = "error"
)

// Recorder owns a registry and the collectors registered on it. It
// implements pipeline.Observer and is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	imagesProcessed *prometheus.CounterVec
	detections      *prometheus.CounterVec
	duration        prometheus.Histogram
	stageDuration   *prometheus.HistogramVec
	particleArea    prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		imagesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plastiscan_images_processed_total",
				Help: "Total number of images run through the pipeline",
			},
			[]string{"status"}, // status: ok, not_found, decode_failure
		),
		detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plastiscan_detections_total",
				Help: "Total number of classified particles",
			},
			[]string{"shape"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plastiscan_processing_duration_seconds",
				Help:    "Per-image processing duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plastiscan_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, 1},
			},
			[]string{"stage"},
		),
		particleArea: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plastiscan_particle_area_pixels",
				Help:    "Enclosed pixel area of classified particles",
				Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
	}
}

// Registry exposes the private registry, e.g. for an HTTP handler or tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveResult records one finished invocation. Failed inputs only count
// towards images_processed_total.
func (r *Recorder) ObserveResult(res *pipeline.Result, elapsed time.Duration) {
	if res == nil {
		r.imagesProcessed.WithLabelValues(StatusError).Inc()
		return
	}
	r.imagesProcessed.WithLabelValues(Status(res)).Inc()
	if !res.OK() {
		return
	}
	r.duration.Observe(elapsed.Seconds())
	if res.Timings != nil {
		for stage, d := range res.Timings.Durations() {
			r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
		}
	}
	for _, d := range res.Detections {
		r.detections.WithLabelValues(string(d.Shape)).Inc()
		r.particleArea.Observe(d.Size)
	}
}

// RecordFailure counts an invocation that ended in a hard error.
func (r *Recorder) RecordFailure() {
	r.imagesProcessed.WithLabelValues(StatusError).Inc()
}

// WriteToTextfile writes every metric in the textfile-collector format.
// The file is replaced atomically.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Status maps a result onto its status label.
func Status(res *pipeline.Result) string {
	switch {
	case res.OK():
		return StatusOK
	case errors.Is(res.Reason, pipeline.ErrInputNotFound):
		return StatusNotFound
	case errors.Is(res.Reason, pipeline.ErrDecodeFailure):
		return StatusDecodeFailure
	default:
		return StatusError
	}
}
