package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/detector"
	"gopkg.in/yaml.v3"
)

// Output formats understood by FormatResults.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatYAML}

// CSVHeader is the header row written by ToCSVResults.
var CSVHeader = []string{"image", "x_coordinate", "y_coordinate", "size", "shape", "color"}

// Detection orders understood by SortResults. OrderExtraction keeps the
// order in which contours were extracted.
const (
	OrderExtraction = "extraction"
	OrderPosition   = "position"
)

// Orders lists every supported detection order.
var Orders = []string{OrderExtraction, OrderPosition}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// FormatResults renders results in one of Formats.
func FormatResults(results []*Result, format string) (string, error) {
	switch format {
	case FormatJSON:
		return ToJSONResults(results)
	case FormatCSV:
		return ToCSVResults(results)
	case FormatYAML:
		return ToYAMLResults(results)
	case FormatText, "":
		return ToPlainTextResults(results)
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

// ToJSONResult serializes a single Result to pretty JSON.
func ToJSONResult(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONResults serializes multiple results to pretty JSON.
func ToJSONResults(results []*Result) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAMLResults serializes multiple results to YAML.
func ToYAMLResults(results []*Result) (string, error) {
	b, err := yaml.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToCSVResults writes one row per detection, preceded by CSVHeader.
// Images without detections contribute no rows.
func ToCSVResults(results []*Result) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return "", err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, d := range res.Detections {
			row := []string{
				res.Image,
				strconv.Itoa(d.X),
				strconv.Itoa(d.Y),
				strconv.FormatFloat(d.Size, 'f', -1, 64),
				string(d.Shape),
				d.Color,
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// ToPlainTextResult renders one result as a human-readable block.
func ToPlainTextResult(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", res.Image)
	if !res.OK() {
		fmt.Fprintf(&sb, "error: %s\n", res.Failure)
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "size: %dx%d\n", res.Width, res.Height)
	fmt.Fprintf(&sb, "detections: %d\n", len(res.Detections))
	for i, d := range res.Detections {
		fmt.Fprintf(&sb, "%3d  %-8s at (%d, %d)  size %g  color %s\n", i+1, d.Shape, d.X, d.Y, d.Size, d.Color)
	}
	if res.OutputPath != "" {
		fmt.Fprintf(&sb, "annotated: %s\n", res.OutputPath)
	}
	return sb.String(), nil
}

// ToPlainTextResults renders every result, separated by blank lines.
func ToPlainTextResults(results []*Result) (string, error) {
	blocks := make([]string, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		s, err := ToPlainTextResult(res)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, s)
	}
	return strings.Join(blocks, "\n"), nil
}

// SortResults reorders the detections of every result in place.
func SortResults(results []*Result, order string) error {
	switch order {
	case "", OrderExtraction:
		return nil
	case OrderPosition:
		for _, res := range results {
			if res != nil {
				SortDetectionsTopLeft(res)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported detection order: %s", order)
	}
}

// SortDetectionsTopLeft sorts detections by centroid (y, then x). Ties keep
// their extraction order.
func SortDetectionsTopLeft(res *Result) {
	sort.SliceStable(res.Detections, func(i, j int) bool {
		if res.Detections[i].Y == res.Detections[j].Y {
			return res.Detections[i].X < res.Detections[j].X
		}
		return res.Detections[i].Y < res.Detections[j].Y
	})
}

// validateDetection checks one detection against the image bounds and the
// record format.
func validateDetection(d Detection, width, height, index int) error {
	if d.X < 0 || d.Y < 0 || d.X >= width || d.Y >= height {
		return fmt.Errorf("detection %d centroid (%d, %d) outside %dx%d image", index, d.X, d.Y, width, height)
	}
	if d.Size <= 0 {
		return fmt.Errorf("detection %d has non-positive size", index)
	}
	if !slices.Contains(detector.Shapes, d.Shape) {
		return fmt.Errorf("detection %d has unknown shape %q", index, d.Shape)
	}
	if !hexColorPattern.MatchString(d.Color) {
		return fmt.Errorf("detection %d has malformed color %q", index, d.Color)
	}
	return nil
}

// ValidateResult performs simple consistency checks.
func ValidateResult(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if !res.OK() {
		if len(res.Detections) != 0 || res.OutputPath != "" {
			return errors.New("failed result must have no detections and no output path")
		}
		return nil
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", res.Width, res.Height)
	}
	for i, d := range res.Detections {
		if err := validateDetection(d, res.Width, res.Height, i); err != nil {
			return err
		}
	}
	return nil
}
