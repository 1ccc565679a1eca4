package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/MeKo-Tech/plastiscan/internal/batch"
	"github.com/MeKo-Tech/plastiscan/internal/config"
	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/spf13/cobra"
)

func newBatchCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <path>...",
		Short: "Detect particles in many images in parallel",
		Long: `Discover images in the given files and directories and process them with
a pool of workers. Annotated copies (*_processed.*) are never picked up as
inputs.

Examples:
  plastiscan batch samples/
  plastiscan batch samples/ --recursive --workers 8 --stats
  plastiscan batch a.png b.png --format json --output report.json
  plastiscan batch samples/ --metrics-file /var/lib/node_exporter/plastiscan.prom`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, s, args)
		},
	}

	f := cmd.Flags()
	addDetectorFlags(f)
	addOutputFlags(f)

	f.IntP("workers", "w", config.DefaultConfig().Batch.Workers,
		fmt.Sprintf("number of parallel workers (this machine has %d CPUs)", runtime.NumCPU()))
	f.BoolP("recursive", "r", false, "recursively scan directories")
	f.StringSlice("include", nil, "file name patterns to include, e.g. '*.png'")
	f.StringSlice("exclude", nil, "file name patterns to exclude")
	f.Bool("progress", false, "show a progress bar on stderr")
	f.Bool("quiet", false, "suppress the progress bar and status messages; run and progress logs drop to debug level")
	f.Bool("stats", false, "print processing statistics")
	f.String("metrics-file", "", "write Prometheus metrics in textfile-collector format to this path")
	return cmd
}

// configToBatchConfig maps the resolved configuration to batch.Config.
func configToBatchConfig(cmd *cobra.Command, cfg *config.Config) (*batch.Config, error) {
	pcfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return nil, err
	}

	bc := batch.DefaultConfig()
	bc.Pipeline = pcfg
	bc.Format = cfg.Output.Format
	bc.OutputFile = cfg.Output.File
	bc.ShowSummary = cfg.Output.Summary
	bc.Workers = cfg.Batch.Workers
	bc.Recursive = cfg.Batch.Recursive
	bc.IncludePatterns = cfg.Batch.Include
	bc.ExcludePatterns = cfg.Batch.Exclude
	bc.ShowProgress = cfg.Batch.Progress
	bc.ShowStats = cfg.Batch.Stats
	bc.MetricsFile = cfg.Batch.MetricsFile
	bc.Quiet = cfg.Batch.Quiet
	bc.ProgressWriter = cmd.ErrOrStderr()
	return bc, nil
}

func runBatch(cmd *cobra.Command, s *state, args []string) error {
	cfg, err := s.resolve(cmd)
	if err != nil {
		return err
	}
	bc, err := configToBatchConfig(cmd, cfg)
	if err != nil {
		return err
	}

	result, err := batch.ProcessBatch(cmd.Context(), args, bc)
	if err != nil {
		return err
	}

	if err := pipeline.SortResults(result.Results, cfg.Output.Sort); err != nil {
		return err
	}
	if err := result.SaveResults(cmd.OutOrStdout(), bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	w := reportWriter(cmd, bc.Format, bc.OutputFile)
	if bc.ShowSummary {
		result.PrintSummary(w)
	}
	if bc.ShowStats {
		result.PrintStats(w)
	}
	return nil
}

// reportWriter picks where human-readable extras go: stdout while it holds
// text or nothing, stderr while it carries JSON, CSV or YAML.
func reportWriter(cmd *cobra.Command, format, outputFile string) io.Writer {
	if outputFile != "" || format == pipeline.FormatText {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}
