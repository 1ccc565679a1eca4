package detector

import "github.com/MeKo-Tech/plastiscan/internal/utils"

// RejectReason names the filter that discarded a contour.
type RejectReason string

const (
	RejectNone      RejectReason = ""
	RejectArea      RejectReason = "area"
	RejectHullArea  RejectReason = "hull_area"
	RejectSolidity  RejectReason = "solidity"
	RejectMoment    RejectReason = "zero_moment"
	RejectPerimeter RejectReason = "zero_perimeter"
)

// FilterStats counts contours discarded per reason.
type FilterStats map[RejectReason]int

// Total returns the number of discarded contours.
func (s FilterStats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// HullArea returns the area of the convex hull of the contour points.
func HullArea(c Contour) float64 {
	return utils.PolygonArea(utils.ConvexHull(c.Polygon()))
}

// Solidity compares the contour polygon's area with its hull's area.
// The result is in [0, 1]; zero hull area yields zero.
func Solidity(c Contour) float64 {
	hull := HullArea(c)
	if hull == 0 {
		return 0
	}
	return utils.PolygonArea(c.Polygon()) / hull
}

// CheckContour applies the contour filters in order and returns the first
// that rejects c, or RejectNone. Area bounds are inclusive.
func CheckContour(c Contour, cfg Config) RejectReason {
	area := c.Area()
	if area < cfg.MinArea || area > cfg.MaxArea {
		return RejectArea
	}
	hull := HullArea(c)
	if hull == 0 {
		return RejectHullArea
	}
	if utils.PolygonArea(c.Polygon())/hull < cfg.MinSolidity {
		return RejectSolidity
	}
	return RejectNone
}

// FilterContours keeps the contours that pass CheckContour, preserving order.
func FilterContours(contours []Contour, cfg Config) ([]Contour, FilterStats) {
	stats := make(FilterStats)
	kept := make([]Contour, 0, len(contours))
	for _, c := range contours {
		if reason := CheckContour(c, cfg); reason != RejectNone {
			stats[reason]++
			continue
		}
		kept = append(kept, c)
	}
	return kept, stats
}
