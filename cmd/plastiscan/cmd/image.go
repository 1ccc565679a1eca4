package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// errUnreadableInputs is returned when at least one input could not be read.
// The results of the readable inputs are still printed.
var errUnreadableInputs = errors.New("some images could not be read")

func newImageCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <file>...",
		Short: "Detect particles in one or more images",
		Long: `Detect microplastic particles in each image, one after the other.

Every readable image gets an annotated copy <name>_processed<ext> next to it.
Missing or undecodable images are reported and make the command exit non-zero.

Supported formats: JPEG, PNG, BMP, GIF, TIFF

Examples:
  plastiscan image sample.png
  plastiscan image *.jpg --format csv --output particles.csv
  plastiscan image sample.png --min-area 100 --no-adaptive`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(cmd, s, args)
		},
	}
	addDetectorFlags(cmd.Flags())
	addOutputFlags(cmd.Flags())
	return cmd
}

func runImage(cmd *cobra.Command, s *state, args []string) error {
	cfg, err := s.resolve(cmd)
	if err != nil {
		return err
	}
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return err
	}
	pl, err := pipeline.NewBuilder().WithConfig(pcfg).Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	slog.Debug("Pipeline ready", "info", pl.Info())

	results := make([]*pipeline.Result, 0, len(args))
	failed := 0
	for _, path := range args {
		res, err := pl.DetectContext(cmd.Context(), path)
		if err != nil {
			return err
		}
		if !res.OK() {
			failed++
		}
		results = append(results, res)
	}

	if err := pipeline.SortResults(results, cfg.Output.Sort); err != nil {
		return err
	}
	output, err := pipeline.FormatResults(results, cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), cfg.Output.File, output); err != nil {
		return err
	}

	if cfg.Output.Summary {
		w := reportWriter(cmd, cfg.Output.Format, cfg.Output.File)
		for _, res := range results {
			if !res.OK() {
				continue
			}
			_, _ = fmt.Fprintf(w, "\nSummary for %s:\n%s",
				res.Image, pipeline.ToPlainTextSummary(pipeline.Summarize(res.Detections)))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errUnreadableInputs, failed, len(results))
	}
	return nil
}

// writeOutput writes output to file, or to w when file is empty.
func writeOutput(w io.Writer, file, output string) error {
	if file == "" {
		_, err := fmt.Fprint(w, output)
		return err
	}
	if err := os.WriteFile(file, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
