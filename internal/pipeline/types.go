package pipeline

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/plastiscan/internal/common"
	"github.com/MeKo-Tech/plastiscan/internal/detector"
)

var (
	// ErrInputNotFound is the Reason of a result whose input file does not exist.
	ErrInputNotFound = errors.New("input image not found")
	// ErrDecodeFailure is the Reason of a result whose input could not be decoded.
	ErrDecodeFailure = errors.New("input image could not be decoded")
)

// Detection is the public record of one classified particle.
type Detection struct {
	X     int            `json:"x_coordinate" yaml:"x_coordinate"`
	Y     int            `json:"y_coordinate" yaml:"y_coordinate"`
	Size  float64        `json:"size"         yaml:"size"`
	Shape detector.Shape `json:"shape"        yaml:"shape"`
	Color string         `json:"color"        yaml:"color"`
}

// Result is the outcome of one pipeline invocation.
type Result struct {
	Image      string      `json:"image"                 yaml:"image"`
	Width      int         `json:"width"                 yaml:"width"`
	Height     int         `json:"height"                yaml:"height"`
	Detections []Detection `json:"detections"            yaml:"detections"`
	OutputPath string      `json:"output_path"           yaml:"output_path"`

	// Reason is set when the input could not be read. It wraps
	// ErrInputNotFound or ErrDecodeFailure; Failure carries its message.
	Reason  error  `json:"-"                     yaml:"-"`
	Failure string `json:"failure,omitempty"     yaml:"failure,omitempty"`

	Rejected detector.FilterStats `json:"rejected,omitempty" yaml:"rejected,omitempty"`

	Annotated *image.RGBA          `json:"-" yaml:"-"`
	Timings   *common.StageTimings `json:"-" yaml:"-"`
}

// OK reports whether the input was read and analysed.
func (r *Result) OK() bool { return r != nil && r.Reason == nil }

func failedResult(path string, reason error) *Result {
	return &Result{
		Image:      path,
		Detections: []Detection{},
		Reason:     reason,
		Failure:    reason.Error(),
	}
}

// detectionsFrom converts classified particles into their public records.
func detectionsFrom(particles []detector.Particle) []Detection {
	out := make([]Detection, len(particles))
	for i, p := range particles {
		out[i] = Detection{
			X:     p.Features.Centroid.X,
			Y:     p.Features.Centroid.Y,
			Size:  p.Features.Area,
			Shape: p.Shape,
			Color: p.Features.Color,
		}
	}
	return out
}
