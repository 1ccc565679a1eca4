package detector

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/MeKo-Tech/plastiscan/internal/utils"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrDegenerateGeometry matches every DegenerateError.
var ErrDegenerateGeometry = errors.New("degenerate contour geometry")

// DegenerateError reports a contour whose shape descriptors cannot be computed.
type DegenerateError struct {
	Reason RejectReason
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDegenerateGeometry, e.Reason)
}

func (e *DegenerateError) Is(target error) bool { return target == ErrDegenerateGeometry }

// Features are the geometric and colour descriptors of one contour.
type Features struct {
	Centroid    image.Point
	Area        float64 // enclosed pixel count
	Perimeter   float64
	Circularity float64
	AspectRatio float64 // bounding box width / height
	Solidity    float64
	Color       string // mean colour, "#rrggbb"
}

// ExtractFeatures measures c against original, the unsmoothed colour buffer
// anchored at the origin. A contour with no enclosed pixels or zero perimeter
// yields a *DegenerateError.
func ExtractFeatures(c Contour, original *image.NRGBA) (Features, error) {
	var m00, m10, m01 float64
	var sr, sg, sb float64
	bounds := original.Bounds()
	c.Pixels(func(x, y int) {
		if !image.Pt(x, y).In(bounds) {
			return
		}
		m00++
		m10 += float64(x)
		m01 += float64(y)
		i := original.PixOffset(x, y)
		sr += float64(original.Pix[i])
		sg += float64(original.Pix[i+1])
		sb += float64(original.Pix[i+2])
	})
	if m00 == 0 {
		return Features{}, &DegenerateError{Reason: RejectMoment}
	}

	poly := c.Polygon()
	perimeter := utils.ArcLength(poly)
	if perimeter == 0 {
		return Features{}, &DegenerateError{Reason: RejectPerimeter}
	}

	bb := c.Bounds()
	return Features{
		Centroid:    image.Pt(int(m10/m00), int(m01/m00)),
		Area:        m00,
		Perimeter:   perimeter,
		Circularity: 4 * math.Pi * m00 / (perimeter * perimeter),
		AspectRatio: float64(bb.Dx()) / float64(bb.Dy()),
		Solidity:    Solidity(c),
		Color:       HexColor(sr/m00, sg/m00, sb/m00),
	}, nil
}

// HexColor formats 0..255 channel means as "#rrggbb", rounding each channel
// to the nearest integer and clamping to the valid range.
func HexColor(r, g, b float64) string {
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Clamped().Hex()
}
