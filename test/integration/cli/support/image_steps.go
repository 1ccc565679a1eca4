package support

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

// detectionRecord mirrors one detection of the JSON output.
type detectionRecord struct {
	X     int     `json:"x_coordinate"`
	Y     int     `json:"y_coordinate"`
	Size  float64 `json:"size"`
	Shape string  `json:"shape"`
	Color string  `json:"color"`
}

type imageRecord struct {
	Image      string            `json:"image"`
	Detections []detectionRecord `json:"detections"`
	Failure    string            `json:"failure"`
}

var scenes = map[string]func() testutil.SceneConfig{
	"bead":     testutil.BeadScene,
	"fiber":    testutil.FiberScene,
	"fragment": testutil.FragmentScene,
	"mixed":    testutil.MixedScene,
	"blank":    func() testutil.SceneConfig { return testutil.BlankScene(80, 60) },
}

// aSampleImage renders one of the synthetic scenes to name.
func (testCtx *TestContext) aSampleImage(kind, name string) error {
	scene, ok := scenes[kind]
	if !ok {
		return fmt.Errorf("unknown sample kind %q", kind)
	}
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return imaging.Save(testutil.GenerateScene(scene()), path)
}

func (testCtx *TestContext) aCorruptImage(name string) error {
	return os.WriteFile(testCtx.Path(name), []byte("this is not an image"), 0o600)
}

// jsonImages decodes stdout as either a list of image results or a batch
// report holding them under "images".
func (testCtx *TestContext) jsonImages() ([]imageRecord, error) {
	out := strings.TrimSpace(testCtx.LastStdout)
	var images []imageRecord
	if strings.HasPrefix(out, "[") {
		if err := json.Unmarshal([]byte(out), &images); err != nil {
			return nil, fmt.Errorf("failed to parse JSON output: %w", err)
		}
		return images, nil
	}
	var report struct {
		Images []imageRecord `json:"images"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON output: %w", err)
	}
	return report.Images, nil
}

// theJSONShouldReportDetections counts detections of one shape across all
// images of the JSON output.
func (testCtx *TestContext) theJSONShouldReportDetections(count int, shape string) error {
	images, err := testCtx.jsonImages()
	if err != nil {
		return err
	}
	got := 0
	for _, img := range images {
		for _, d := range img.Detections {
			if d.Shape == shape {
				got++
			}
		}
	}
	if got != count {
		return fmt.Errorf("expected %d %s detections, got %d\nOutput: %s", count, shape, got, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theJSONShouldListImages(count int) error {
	images, err := testCtx.jsonImages()
	if err != nil {
		return err
	}
	if len(images) != count {
		return fmt.Errorf("expected %d images, got %d", count, len(images))
	}
	return nil
}

// everyDetectionShouldHaveAHexColour checks the colour format of every
// detection in the JSON output.
func (testCtx *TestContext) everyDetectionShouldHaveAHexColour() error {
	images, err := testCtx.jsonImages()
	if err != nil {
		return err
	}
	for _, img := range images {
		for _, d := range img.Detections {
			if len(d.Color) != 7 || d.Color[0] != '#' || strings.ToLower(d.Color) != d.Color {
				return fmt.Errorf("detection in %s has colour %q", img.Image, d.Color)
			}
		}
	}
	return nil
}

// theAnnotatedImageShouldMatchTheInputSize compares the dimensions of an
// input and its annotated copy.
func (testCtx *TestContext) theAnnotatedImageShouldMatchTheInputSize(annotated, input string) error {
	a, err := decodeConfig(testCtx.Path(annotated))
	if err != nil {
		return err
	}
	in, err := decodeConfig(testCtx.Path(input))
	if err != nil {
		return err
	}
	if a.Width != in.Width || a.Height != in.Height {
		return fmt.Errorf("annotated image is %dx%d, input is %dx%d", a.Width, a.Height, in.Width, in.Height)
	}
	return nil
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path) //nolint:gosec // G304: scenario files
	if err != nil {
		return image.Config{}, err
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// RegisterImageSteps registers sample image and detection result steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a (bead|fiber|fragment|mixed|blank) sample "([^"]*)"$`, testCtx.aSampleImage)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)

	sc.Step(`^the JSON should report (\d+) "([^"]*)" detections?$`, testCtx.theJSONShouldReportDetections)
	sc.Step(`^the JSON should list (\d+) images?$`, testCtx.theJSONShouldListImages)
	sc.Step(`^every detection should have a hex colour$`, testCtx.everyDetectionShouldHaveAHexColour)
	sc.Step(`^the annotated image "([^"]*)" should match the size of "([^"]*)"$`,
		testCtx.theAnnotatedImageShouldMatchTheInputSize)
}
