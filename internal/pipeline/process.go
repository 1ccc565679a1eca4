package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/plastiscan/internal/utils"
)

// StageAnnotate names the annotation stage in result timings.
const StageAnnotate = "annotate"

// Detect runs one invocation on the image at path: decode, analyse, annotate
// and write the annotated copy next to the input as <name>_processed<ext>.
//
// An input that is missing or undecodable is not an error: the result then
// has no detections, an empty OutputPath and a Reason wrapping
// ErrInputNotFound or ErrDecodeFailure. Failing to write the annotated image
// is returned as an error.
func (p *Pipeline) Detect(path string) (*Result, error) {
	return p.DetectContext(context.Background(), path)
}

// DetectContext is like Detect but refuses to start once ctx is done.
// A started invocation always runs to completion.
func (p *Pipeline) DetectContext(ctx context.Context, path string) (*Result, error) {
	if p == nil || p.Detector == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		res := failedResult(path, loadFailure(path, err))
		slog.Warn("Skipping unreadable image", "path", path, "error", err)
		p.observe(res, time.Since(start))
		return res, nil
	}

	res, err := p.Process(img)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", path, err)
	}
	res.Image = path

	out := utils.ProcessedPath(path)
	if err := utils.SaveImage(out, res.Annotated, meta.Format); err != nil {
		return nil, fmt.Errorf("write annotated image: %w", err)
	}
	res.OutputPath = out

	elapsed := time.Since(start)
	p.observe(res, elapsed)
	slog.Debug("Image processed",
		"path", path,
		"detections", len(res.Detections),
		"output", out,
		"stages", res.Timings.Total(),
		"elapsed", elapsed)
	return res, nil
}

// loadFailure maps a LoadImage error onto the result taxonomy.
func loadFailure(path string, err error) error {
	if path == "" || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrDecodeFailure, err)
}

// Process analyses and annotates an in-memory image. No file is read or
// written; OutputPath stays empty and Annotated holds the overlay.
func (p *Pipeline) Process(img image.Image) (*Result, error) {
	if p == nil || p.Detector == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	a, err := p.Detector.Analyze(img)
	if err != nil {
		return nil, err
	}

	t := a.Timings.Start(StageAnnotate)
	annotated := Annotate(a.Original, a.Particles, p.cfg.Annotation)
	t.Stop()

	if n := a.Rejected.Total(); n > 0 {
		slog.Debug("Contours discarded", "count", n, "by_reason", a.Rejected)
	}
	return &Result{
		Width:      a.Width,
		Height:     a.Height,
		Detections: detectionsFrom(a.Particles),
		Rejected:   a.Rejected,
		Annotated:  annotated,
		Timings:    a.Timings,
	}, nil
}
