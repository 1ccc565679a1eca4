package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
)

// Config represents the complete configuration for the plastiscan application.
// It covers both commands (image, batch) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose"   yaml:"verbose"   json:"verbose"`

	// Detection thresholds
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Overlay drawing
	Annotation AnnotationConfig `mapstructure:"annotation" yaml:"annotation" json:"annotation"`

	// Result output
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// DetectorConfig contains the particle detection settings.
type DetectorConfig struct {
	BilateralDiameter   int     `mapstructure:"bilateral_diameter"    yaml:"bilateral_diameter"    json:"bilateral_diameter"`
	BilateralSigmaColor float64 `mapstructure:"bilateral_sigma_color" yaml:"bilateral_sigma_color" json:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `mapstructure:"bilateral_sigma_space" yaml:"bilateral_sigma_space" json:"bilateral_sigma_space"`

	AdaptiveEnabled   bool                `mapstructure:"adaptive_enabled"    yaml:"adaptive_enabled"    json:"adaptive_enabled"`
	AdaptiveMethod    string              `mapstructure:"adaptive_method"     yaml:"adaptive_method"     json:"adaptive_method"`
	AdaptiveBlockSize int                 `mapstructure:"adaptive_block_size" yaml:"adaptive_block_size" json:"adaptive_block_size"`
	AdaptiveC         int                 `mapstructure:"adaptive_c"          yaml:"adaptive_c"          json:"adaptive_c"`
	ColorRanges       []detector.HSVRange `mapstructure:"color_ranges"        yaml:"color_ranges"        json:"color_ranges"`

	MorphKernelSize int `mapstructure:"morph_kernel_size" yaml:"morph_kernel_size" json:"morph_kernel_size"`

	MinArea     float64 `mapstructure:"min_area"     yaml:"min_area"     json:"min_area"`
	MaxArea     float64 `mapstructure:"max_area"     yaml:"max_area"     json:"max_area"`
	MinSolidity float64 `mapstructure:"min_solidity" yaml:"min_solidity" json:"min_solidity"`

	BeadCircularity float64 `mapstructure:"bead_circularity" yaml:"bead_circularity" json:"bead_circularity"`
	FiberMaxAspect  float64 `mapstructure:"fiber_max_aspect" yaml:"fiber_max_aspect" json:"fiber_max_aspect"`
	FiberMinAspect  float64 `mapstructure:"fiber_min_aspect" yaml:"fiber_min_aspect" json:"fiber_min_aspect"`
}

// AnnotationConfig contains the overlay settings. Colors maps a shape name
// to a "#rrggbb" colour and overrides the default palette.
type AnnotationConfig struct {
	OutlineThickness int               `mapstructure:"outline_thickness" yaml:"outline_thickness" json:"outline_thickness"`
	MarkerSize       int               `mapstructure:"marker_size"       yaml:"marker_size"       json:"marker_size"`
	MarkerThickness  int               `mapstructure:"marker_thickness"  yaml:"marker_thickness"  json:"marker_thickness"`
	Labels           bool              `mapstructure:"labels"            yaml:"labels"            json:"labels"`
	Colors           map[string]string `mapstructure:"colors"            yaml:"colors"            json:"colors"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format  string `mapstructure:"format"  yaml:"format"  json:"format"`
	File    string `mapstructure:"file"    yaml:"file"    json:"file"`
	Summary bool   `mapstructure:"summary" yaml:"summary" json:"summary"`
	// Sort orders the detections of each image: "extraction" or "position".
	Sort    string `mapstructure:"sort"    yaml:"sort"    json:"sort"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers     int      `mapstructure:"workers"      yaml:"workers"      json:"workers"`
	Recursive   bool     `mapstructure:"recursive"    yaml:"recursive"    json:"recursive"`
	Include     []string `mapstructure:"include"      yaml:"include"      json:"include"`
	Exclude     []string `mapstructure:"exclude"      yaml:"exclude"      json:"exclude"`
	Stats       bool     `mapstructure:"stats"        yaml:"stats"        json:"stats"`
	Progress    bool     `mapstructure:"progress"     yaml:"progress"     json:"progress"`
	Quiet       bool     `mapstructure:"quiet"        yaml:"quiet"        json:"quiet"`
	MetricsFile string   `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	p := pipeline.DefaultConfig()
	return Config{
		LogLevel:   "info",
		Verbose:    false,
		Detector:   fromDetectorConfig(p.Detector),
		Annotation: fromAnnotationConfig(p.Annotation),
		Output: OutputConfig{
			Format: pipeline.FormatText,
			Sort:   pipeline.OrderExtraction,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}

func fromDetectorConfig(cfg detector.Config) DetectorConfig {
	return DetectorConfig{
		BilateralDiameter:   cfg.BilateralDiameter,
		BilateralSigmaColor: cfg.BilateralSigmaColor,
		BilateralSigmaSpace: cfg.BilateralSigmaSpace,
		AdaptiveEnabled:     cfg.AdaptiveEnabled,
		AdaptiveMethod:      string(cfg.AdaptiveMethod),
		AdaptiveBlockSize:   cfg.AdaptiveBlockSize,
		AdaptiveC:           cfg.AdaptiveC,
		ColorRanges:         slices.Clone(cfg.ColorRanges),
		MorphKernelSize:     cfg.MorphKernelSize,
		MinArea:             cfg.MinArea,
		MaxArea:             cfg.MaxArea,
		MinSolidity:         cfg.MinSolidity,
		BeadCircularity:     cfg.BeadCircularity,
		FiberMaxAspect:      cfg.FiberMaxAspect,
		FiberMinAspect:      cfg.FiberMinAspect,
	}
}

func fromAnnotationConfig(cfg pipeline.AnnotationConfig) AnnotationConfig {
	return AnnotationConfig{
		OutlineThickness: cfg.OutlineThickness,
		MarkerSize:       cfg.MarkerSize,
		MarkerThickness:  cfg.MarkerThickness,
		Labels:           cfg.Labels,
		Colors:           map[string]string{},
	}
}

// Validate validates the configuration and returns the first problem found,
// naming the offending key.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(pipeline.Formats, c.Output.Format) {
		return fmt.Errorf("invalid output.format: %s (must be one of: %s)", c.Output.Format, strings.Join(pipeline.Formats, ", "))
	}

	if c.Output.Sort != "" && !slices.Contains(pipeline.Orders, c.Output.Sort) {
		return fmt.Errorf("invalid output.sort: %s (must be one of: %s)", c.Output.Sort, strings.Join(pipeline.Orders, ", "))
	}

	if err := c.Detector.validate(); err != nil {
		return err
	}

	if c.Annotation.OutlineThickness < 1 {
		return fmt.Errorf("invalid annotation.outline_thickness: %d (must be >= 1)", c.Annotation.OutlineThickness)
	}
	if c.Annotation.MarkerThickness < 1 {
		return fmt.Errorf("invalid annotation.marker_thickness: %d (must be >= 1)", c.Annotation.MarkerThickness)
	}
	if c.Annotation.MarkerSize < 0 {
		return fmt.Errorf("invalid annotation.marker_size: %d (must be >= 0)", c.Annotation.MarkerSize)
	}
	if _, err := pipeline.ParseShapeColors(c.Annotation.Colors); err != nil {
		return fmt.Errorf("invalid annotation.colors: %w", err)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch.workers: %d (must be positive)", c.Batch.Workers)
	}

	return nil
}

func (d *DetectorConfig) validate() error {
	if d.BilateralDiameter < 1 {
		return fmt.Errorf("invalid detector.bilateral_diameter: %d (must be >= 1)", d.BilateralDiameter)
	}
	if d.BilateralSigmaColor <= 0 || d.BilateralSigmaSpace <= 0 {
		return fmt.Errorf("invalid detector.bilateral_sigma_*: %g/%g (must be positive)", d.BilateralSigmaColor, d.BilateralSigmaSpace)
	}
	methods := []string{string(detector.AdaptiveMean), string(detector.AdaptiveGaussian)}
	if !slices.Contains(methods, d.AdaptiveMethod) {
		return fmt.Errorf("invalid detector.adaptive_method: %s (must be one of: %s)", d.AdaptiveMethod, strings.Join(methods, ", "))
	}
	if d.AdaptiveBlockSize < 3 || d.AdaptiveBlockSize%2 == 0 {
		return fmt.Errorf("invalid detector.adaptive_block_size: %d (must be odd and >= 3)", d.AdaptiveBlockSize)
	}
	if d.MorphKernelSize < 1 || d.MorphKernelSize%2 == 0 {
		return fmt.Errorf("invalid detector.morph_kernel_size: %d (must be odd and >= 1)", d.MorphKernelSize)
	}
	if d.MinArea < 0 {
		return fmt.Errorf("invalid detector.min_area: %g (must be >= 0)", d.MinArea)
	}
	if d.MaxArea < d.MinArea {
		return fmt.Errorf("invalid detector.max_area: %g (must be >= min_area %g)", d.MaxArea, d.MinArea)
	}
	if err := validateThreshold(d.MinSolidity, "detector.min_solidity"); err != nil {
		return err
	}
	if d.BeadCircularity < 0 {
		return fmt.Errorf("invalid detector.bead_circularity: %g (must be >= 0)", d.BeadCircularity)
	}
	if d.FiberMinAspect < 0 || d.FiberMaxAspect < d.FiberMinAspect {
		return fmt.Errorf("invalid detector.fiber_min_aspect/fiber_max_aspect: %g/%g", d.FiberMinAspect, d.FiberMaxAspect)
	}
	for i, r := range d.ColorRanges {
		if r.HMin > r.HMax || r.SMin > r.SMax || r.VMin > r.VMax {
			return fmt.Errorf("invalid detector.color_ranges[%d]: min above max", i)
		}
	}
	return nil
}

// ToDetectorConfig converts to detector.Config.
func (c *Config) ToDetectorConfig() detector.Config {
	d := c.Detector
	return detector.Config{
		BilateralDiameter:   d.BilateralDiameter,
		BilateralSigmaColor: d.BilateralSigmaColor,
		BilateralSigmaSpace: d.BilateralSigmaSpace,
		AdaptiveEnabled:     d.AdaptiveEnabled,
		AdaptiveMethod:      detector.AdaptiveMethod(d.AdaptiveMethod),
		AdaptiveBlockSize:   d.AdaptiveBlockSize,
		AdaptiveC:           d.AdaptiveC,
		ColorRanges:         slices.Clone(d.ColorRanges),
		MorphKernelSize:     d.MorphKernelSize,
		MinArea:             d.MinArea,
		MaxArea:             d.MaxArea,
		MinSolidity:         d.MinSolidity,
		BeadCircularity:     d.BeadCircularity,
		FiberMaxAspect:      d.FiberMaxAspect,
		FiberMinAspect:      d.FiberMinAspect,
	}
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() (pipeline.Config, error) {
	colors, err := pipeline.ParseShapeColors(c.Annotation.Colors)
	if err != nil {
		return pipeline.Config{}, err
	}
	parallel := pipeline.DefaultParallelConfig()
	if c.Batch.Workers > 0 {
		parallel.MaxWorkers = c.Batch.Workers
	}
	return pipeline.Config{
		Detector: c.ToDetectorConfig(),
		Annotation: pipeline.AnnotationConfig{
			OutlineThickness: c.Annotation.OutlineThickness,
			MarkerSize:       c.Annotation.MarkerSize,
			MarkerThickness:  c.Annotation.MarkerThickness,
			Labels:           c.Annotation.Labels,
			Colors:           colors,
		},
		Parallel: parallel,
	}, nil
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
