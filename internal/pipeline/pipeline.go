package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
)

// Config holds configuration for the detection pipeline and its components.
type Config struct {
	Detector   detector.Config
	Annotation AnnotationConfig
	Parallel   ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Detector:   detector.DefaultConfig(),
		Annotation: DefaultAnnotationConfig(),
		Parallel:   DefaultParallelConfig(),
	}
}

// Observer is notified once per finished Detect call, failed inputs included.
type Observer interface {
	ObserveResult(res *Result, elapsed time.Duration)
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	observer Observer
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectorConfig replaces the detector configuration.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithAreaBounds sets the accepted enclosed-area range. Negative values keep
// the current bound.
func (b *Builder) WithAreaBounds(minArea, maxArea float64) *Builder {
	if minArea >= 0 {
		b.cfg.Detector.MinArea = minArea
	}
	if maxArea >= 0 {
		b.cfg.Detector.MaxArea = maxArea
	}
	return b
}

// WithMinSolidity sets the minimum solidity.
func (b *Builder) WithMinSolidity(s float64) *Builder {
	b.cfg.Detector.MinSolidity = s
	return b
}

// WithAdaptiveThreshold enables or disables the adaptive-threshold branch.
func (b *Builder) WithAdaptiveThreshold(enabled bool) *Builder {
	b.cfg.Detector.AdaptiveEnabled = enabled
	return b
}

// WithColorRanges replaces the HSV acceptance ranges.
func (b *Builder) WithColorRanges(ranges []detector.HSVRange) *Builder {
	b.cfg.Detector.ColorRanges = append([]detector.HSVRange(nil), ranges...)
	return b
}

// WithAnnotation replaces the overlay settings.
func (b *Builder) WithAnnotation(cfg AnnotationConfig) *Builder {
	b.cfg.Annotation = cfg
	return b
}

// WithLabels toggles the text labels on the annotated image.
func (b *Builder) WithLabels(enabled bool) *Builder {
	b.cfg.Annotation.Labels = enabled
	return b
}

// WithMaxWorkers sets the number of parallel workers used by DetectPaths.
func (b *Builder) WithMaxWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.Parallel.MaxWorkers = n
	}
	return b
}

// WithProgressCallback sets the progress callback for DetectPaths.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// WithObserver registers an observer for finished invocations.
func (b *Builder) WithObserver(o Observer) *Builder {
	b.observer = o
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if err := b.cfg.Detector.Validate(); err != nil {
		return err
	}
	a := b.cfg.Annotation
	if a.OutlineThickness < 1 || a.MarkerThickness < 1 {
		return errors.New("annotation thickness must be >= 1")
	}
	if a.MarkerSize < 0 {
		return errors.New("annotation marker size must be >= 0")
	}
	return nil
}

// Pipeline wires the detector and the annotator together. It is immutable
// after Build and safe for concurrent use.
type Pipeline struct {
	cfg      Config
	Detector *detector.Detector
	observer Observer
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	det, err := detector.NewDetector(b.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	return &Pipeline{cfg: b.cfg, Detector: det, observer: b.observer}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info returns a map with the key pipeline properties.
func (p *Pipeline) Info() map[string]any {
	d := p.cfg.Detector
	return map[string]any{
		"adaptive_enabled": d.AdaptiveEnabled,
		"adaptive_method":  string(d.AdaptiveMethod),
		"color_ranges":     len(d.ColorRanges),
		"min_area":         d.MinArea,
		"max_area":         d.MaxArea,
		"min_solidity":     d.MinSolidity,
		"labels":           p.cfg.Annotation.Labels,
		"max_workers":      p.cfg.Parallel.MaxWorkers,
	}
}

func (p *Pipeline) observe(res *Result, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveResult(res, elapsed)
	}
}
