package cmd

import (
	"errors"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/config"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func addDetectorFlags(fs *pflag.FlagSet) {
	d := config.DefaultConfig().Detector
	fs.Float64("min-area", d.MinArea, "minimum particle area in pixels")
	fs.Float64("max-area", d.MaxArea, "maximum particle area in pixels")
	fs.Float64("min-solidity", d.MinSolidity, "minimum area / convex hull area (0.0-1.0)")
	fs.Bool("no-adaptive", false, "segment by colour ranges only, without the adaptive threshold mask")
	fs.Bool("no-labels", false, "do not draw shape labels on annotated images")
}

func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringP("format", "f", pipeline.FormatText,
		"output format: "+strings.Join(pipeline.Formats, ", "))
	fs.StringP("output", "o", "", "output file (default: stdout)")
	fs.String("sort", pipeline.OrderExtraction,
		"detection order per image: "+strings.Join(pipeline.Orders, ", "))
	fs.Bool("summary", false, "print summary statistics (counts per shape and colour, size spread)")
}

// resolve returns the loaded configuration with the command's changed
// flags applied on top. Flags override config file and environment values.
func (s *state) resolve(cmd *cobra.Command) (*config.Config, error) {
	if s.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	cfg := *s.cfg
	f := cmd.Flags()

	if f.Changed("min-area") {
		cfg.Detector.MinArea, _ = f.GetFloat64("min-area")
	}
	if f.Changed("max-area") {
		cfg.Detector.MaxArea, _ = f.GetFloat64("max-area")
	}
	if f.Changed("min-solidity") {
		cfg.Detector.MinSolidity, _ = f.GetFloat64("min-solidity")
	}
	if f.Changed("no-adaptive") {
		off, _ := f.GetBool("no-adaptive")
		cfg.Detector.AdaptiveEnabled = !off
	}
	if f.Changed("no-labels") {
		off, _ := f.GetBool("no-labels")
		cfg.Annotation.Labels = !off
	}

	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
	if f.Changed("sort") {
		cfg.Output.Sort, _ = f.GetString("sort")
	}
	if f.Changed("summary") {
		cfg.Output.Summary, _ = f.GetBool("summary")
	}

	if f.Changed("workers") {
		cfg.Batch.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("recursive") {
		cfg.Batch.Recursive, _ = f.GetBool("recursive")
	}
	if f.Changed("include") {
		cfg.Batch.Include, _ = f.GetStringSlice("include")
	}
	if f.Changed("exclude") {
		cfg.Batch.Exclude, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("stats") {
		cfg.Batch.Stats, _ = f.GetBool("stats")
	}
	if f.Changed("progress") {
		cfg.Batch.Progress, _ = f.GetBool("progress")
	}
	if f.Changed("quiet") {
		cfg.Batch.Quiet, _ = f.GetBool("quiet")
	}
	if f.Changed("metrics-file") {
		cfg.Batch.MetricsFile, _ = f.GetString("metrics-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
