package detector

import (
	"errors"
	"fmt"
)

// HSVRange is an inclusive acceptance range in 8-bit HSV space
// (H 0..180, S 0..255, V 0..255).
type HSVRange struct {
	HMin int `mapstructure:"h_min" json:"h_min" yaml:"h_min"`
	HMax int `mapstructure:"h_max" json:"h_max" yaml:"h_max"`
	SMin int `mapstructure:"s_min" json:"s_min" yaml:"s_min"`
	SMax int `mapstructure:"s_max" json:"s_max" yaml:"s_max"`
	VMin int `mapstructure:"v_min" json:"v_min" yaml:"v_min"`
	VMax int `mapstructure:"v_max" json:"v_max" yaml:"v_max"`
}

// Contains reports whether (h, s, v) lies inside the range.
func (r HSVRange) Contains(h, s, v int) bool {
	return h >= r.HMin && h <= r.HMax &&
		s >= r.SMin && s <= r.SMax &&
		v >= r.VMin && v <= r.VMax
}

// AdaptiveMethod selects how the local reference level is computed.
type AdaptiveMethod string

const (
	AdaptiveMean     AdaptiveMethod = "mean"     // unweighted block mean
	AdaptiveGaussian AdaptiveMethod = "gaussian" // Gaussian-weighted block mean
)

// Config holds every numeric threshold used by the detection stages.
type Config struct {
	// Preprocessing
	BilateralDiameter   int     // Bilateral window diameter in pixels (default: 9)
	BilateralSigmaColor float64 // Range sigma (default: 75)
	BilateralSigmaSpace float64 // Spatial sigma (default: 75)

	// Segmentation
	AdaptiveEnabled   bool           // Union the adaptive-threshold mask into the working mask (default: true)
	AdaptiveMethod    AdaptiveMethod // Local reference level (default: mean)
	AdaptiveBlockSize int            // Neighbourhood size for the local mean (default: 11)
	AdaptiveC         int            // Offset subtracted from the local mean (default: 2)
	ColorRanges       []HSVRange     // HSV acceptance ranges, OR-ed together

	// Mask cleaning
	MorphKernelSize int // Square structuring element size (default: 3)

	// Contour filtering
	MinArea     float64 // Minimum enclosed pixel area (default: 50)
	MaxArea     float64 // Maximum enclosed pixel area (default: 10000)
	MinSolidity float64 // Minimum area / hull area (default: 0.1)

	// Classification
	BeadCircularity float64 // Circularity above which a particle is a bead (default: 0.8)
	FiberMaxAspect  float64 // Aspect ratio above which a particle is a fiber (default: 3.0)
	FiberMinAspect  float64 // Aspect ratio below which a particle is a fiber (default: 0.3)
}

// DefaultColorRanges returns the near-white and saturated-colour ranges.
func DefaultColorRanges() []HSVRange {
	return []HSVRange{
		{HMin: 0, HMax: 180, SMin: 0, SMax: 30, VMin: 150, VMax: 255},
		{HMin: 0, HMax: 180, SMin: 50, SMax: 255, VMin: 50, VMax: 255},
	}
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() Config {
	return Config{
		BilateralDiameter:   9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,

		AdaptiveEnabled:   true,
		AdaptiveMethod:    AdaptiveMean,
		AdaptiveBlockSize: 11,
		AdaptiveC:         2,
		ColorRanges:       DefaultColorRanges(),

		MorphKernelSize: 3,

		MinArea:     50,
		MaxArea:     10000,
		MinSolidity: 0.1,

		BeadCircularity: 0.8,
		FiberMaxAspect:  3.0,
		FiberMinAspect:  0.3,
	}
}

// Validate checks the configuration for values the stages cannot work with.
func (c Config) Validate() error {
	if c.BilateralDiameter < 1 {
		return fmt.Errorf("bilateral diameter must be >= 1, got %d", c.BilateralDiameter)
	}
	if c.BilateralSigmaColor <= 0 || c.BilateralSigmaSpace <= 0 {
		return errors.New("bilateral sigmas must be positive")
	}
	if c.AdaptiveMethod != AdaptiveMean && c.AdaptiveMethod != AdaptiveGaussian {
		return fmt.Errorf("unknown adaptive method %q", c.AdaptiveMethod)
	}
	if c.AdaptiveBlockSize < 3 || c.AdaptiveBlockSize%2 == 0 {
		return fmt.Errorf("adaptive block size must be odd and >= 3, got %d", c.AdaptiveBlockSize)
	}
	if c.MorphKernelSize < 1 || c.MorphKernelSize%2 == 0 {
		return fmt.Errorf("morphology kernel size must be odd and >= 1, got %d", c.MorphKernelSize)
	}
	if c.MinArea < 0 {
		return fmt.Errorf("min area must be >= 0, got %g", c.MinArea)
	}
	if c.MaxArea < c.MinArea {
		return fmt.Errorf("max area %g is below min area %g", c.MaxArea, c.MinArea)
	}
	if c.MinSolidity < 0 || c.MinSolidity > 1 {
		return fmt.Errorf("min solidity must be in [0,1], got %g", c.MinSolidity)
	}
	if c.BeadCircularity < 0 {
		return fmt.Errorf("bead circularity must be >= 0, got %g", c.BeadCircularity)
	}
	if c.FiberMinAspect < 0 || c.FiberMaxAspect < c.FiberMinAspect {
		return fmt.Errorf("fiber aspect bounds invalid: min %g, max %g", c.FiberMinAspect, c.FiberMaxAspect)
	}
	for i, r := range c.ColorRanges {
		if r.HMin > r.HMax || r.SMin > r.SMax || r.VMin > r.VMax {
			return fmt.Errorf("color range %d has min above max", i)
		}
	}
	return nil
}
