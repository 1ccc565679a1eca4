package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the detections of one or more images.
type Summary struct {
	Total      int                    `json:"total"        yaml:"total"`
	ByShape    map[detector.Shape]int `json:"by_shape"     yaml:"by_shape"`
	ByColor    map[string]int         `json:"by_color"     yaml:"by_color"`
	MinSize    float64                `json:"min_size"     yaml:"min_size"`
	MaxSize    float64                `json:"max_size"     yaml:"max_size"`
	MeanSize   float64                `json:"mean_size"    yaml:"mean_size"`
	StdDevSize float64                `json:"std_dev_size" yaml:"std_dev_size"`
}

// Summarize counts detections per shape and colour and describes their size
// distribution. Every shape appears in ByShape, with zero when absent. The
// standard deviation is the sample one and is zero below two detections.
func Summarize(detections []Detection) Summary {
	s := Summary{
		Total:   len(detections),
		ByShape: make(map[detector.Shape]int, len(detector.Shapes)),
		ByColor: make(map[string]int),
	}
	for _, shape := range detector.Shapes {
		s.ByShape[shape] = 0
	}
	if len(detections) == 0 {
		return s
	}

	sizes := make([]float64, len(detections))
	for i, d := range detections {
		sizes[i] = d.Size
		s.ByShape[d.Shape]++
		s.ByColor[d.Color]++
	}
	s.MinSize = floats.Min(sizes)
	s.MaxSize = floats.Max(sizes)
	if len(sizes) < 2 {
		s.MeanSize = sizes[0]
		return s
	}
	s.MeanSize, s.StdDevSize = stat.MeanStdDev(sizes, nil)
	return s
}

// SummarizeResults merges the detections of every successful result.
func SummarizeResults(results []*Result) Summary {
	var all []Detection
	for _, r := range results {
		if r.OK() {
			all = append(all, r.Detections...)
		}
	}
	return Summarize(all)
}

// ToPlainTextSummary renders a summary as an indented text block. Colours
// are listed by descending count, ties by colour.
func ToPlainTextSummary(s Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "particles: %d\n", s.Total)
	for _, shape := range detector.Shapes {
		fmt.Fprintf(&sb, "  %-8s %d\n", shape, s.ByShape[shape])
	}
	if s.Total == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "size: min %g  max %g  mean %.1f  std dev %.1f\n", s.MinSize, s.MaxSize, s.MeanSize, s.StdDevSize)

	colors := make([]string, 0, len(s.ByColor))
	for c := range s.ByColor {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if s.ByColor[colors[i]] != s.ByColor[colors[j]] {
			return s.ByColor[colors[i]] > s.ByColor[colors[j]]
		}
		return colors[i] < colors[j]
	})
	sb.WriteString("colors:\n")
	for _, c := range colors {
		fmt.Fprintf(&sb, "  %s %d\n", c, s.ByColor[c])
	}
	return sb.String()
}
