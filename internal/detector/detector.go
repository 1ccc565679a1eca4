package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/plastiscan/internal/common"
	"github.com/MeKo-Tech/plastiscan/internal/utils"
)

// Stage names used for timings.
const (
	StagePreprocess = "preprocess"
	StageSegment    = "segment"
	StageClean      = "clean"
	StageContours   = "contours"
	StageFilter     = "filter"
	StageFeatures   = "features"
)

// Particle is one contour that survived filtering, with its measurements.
type Particle struct {
	Contour  Contour
	Features Features
	Shape    Shape
}

// Analysis is the output of the detection stages for one image.
type Analysis struct {
	Width     int
	Height    int
	Original  *image.NRGBA // unsmoothed colour buffer, anchored at the origin
	Mask      *Mask        // cleaned working mask
	Contours  int          // contours extracted before filtering
	Rejected  FilterStats  // discarded contours per reason, degenerate ones included
	Particles []Particle
	Timings   *common.StageTimings
}

// Detector runs preprocessing, segmentation, mask cleaning, contour
// extraction, filtering, feature extraction and classification. It holds
// only its configuration and is safe for concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector with the given configuration.
func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}
	cfg := config
	cfg.ColorRanges = append([]HSVRange(nil), config.ColorRanges...)
	return &Detector{config: cfg}, nil
}

// GetConfig returns a copy of the detector's configuration.
func (d *Detector) GetConfig() Config {
	cfg := d.config
	cfg.ColorRanges = append([]HSVRange(nil), d.config.ColorRanges...)
	return cfg
}

// Analyze runs the detection stages over img. img is never modified.
func (d *Detector) Analyze(img image.Image) (*Analysis, error) {
	original, err := utils.ToNRGBA(img)
	if err != nil {
		return nil, err
	}
	b := original.Bounds()
	res := &Analysis{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Original: original,
		Rejected: make(FilterStats),
		Timings:  &common.StageTimings{},
	}

	t := res.Timings.Start(StagePreprocess)
	pre := Preprocess(original, d.config)
	t.Stop()

	t = res.Timings.Start(StageSegment)
	mask := Segment(original, pre, d.config)
	t.Stop()

	t = res.Timings.Start(StageClean)
	res.Mask = CleanMask(mask, d.config.MorphKernelSize)
	t.Stop()

	t = res.Timings.Start(StageContours)
	contours := ExtractContours(res.Mask)
	res.Contours = len(contours)
	t.Stop()

	t = res.Timings.Start(StageFilter)
	kept, stats := FilterContours(contours, d.config)
	for k, v := range stats {
		res.Rejected[k] += v
	}
	t.Stop()

	t = res.Timings.Start(StageFeatures)
	res.Particles = make([]Particle, 0, len(kept))
	for _, c := range kept {
		f, err := ExtractFeatures(c, original)
		if err != nil {
			var de *DegenerateError
			if errors.As(err, &de) {
				res.Rejected[de.Reason]++
				continue
			}
			return nil, err
		}
		res.Particles = append(res.Particles, Particle{
			Contour:  c,
			Features: f,
			Shape:    Classify(f.Circularity, f.AspectRatio, d.config),
		})
	}
	t.Stop()

	slog.Debug("Detection stages finished",
		"width", res.Width,
		"height", res.Height,
		"contours", res.Contours,
		"particles", len(res.Particles),
		"rejected", res.Rejected.Total(),
		"timings", res.Timings.String())
	return res, nil
}
