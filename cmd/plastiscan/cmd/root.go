// Package cmd implements the plastiscan command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/plastiscan/internal/config"
	"github.com/MeKo-Tech/plastiscan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// state is the configuration shared by one command tree.
type state struct {
	v       *viper.Viper
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
}

// Execute builds the command tree and runs it. It is called by main.main
// and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCommand returns a fresh command tree with its own viper instance,
// so tests can execute commands without sharing flag or config state.
func NewRootCommand() *cobra.Command {
	s := &state{v: viper.New()}
	s.loader = config.NewLoaderWithViper(s.v)

	rootCmd := &cobra.Command{
		Use:   "plastiscan",
		Short: "Microplastic particle detection for microscope images",
		Long: `plastiscan finds microplastic particles in microscope images, measures
them and classifies each one as bead, fiber or fragment.

For every input image it reports the position, size, shape and mean colour
of each particle and writes an annotated copy next to the input as
<name>_processed<ext>.

Examples:
  plastiscan image sample.png
  plastiscan image a.jpg b.jpg --format json --summary
  plastiscan batch samples/ --recursive --workers 8 --stats`,
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				_, err := fmt.Fprint(cmd.OutOrStdout(), version.String())
				return err
			}
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&s.cfgFile, "config", "",
		"config file (default is search in ., $HOME, /etc/plastiscan, $HOME/.config/plastiscan)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version information and exit")

	_ = s.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = s.v.BindPFlag("log_level", pf.Lookup("log-level"))

	rootCmd.AddCommand(
		newImageCommand(s),
		newBatchCommand(s),
		newConfigCommand(s),
		newVersionCommand(),
	)
	return rootCmd
}

// setup loads the configuration and installs the structured logger. Logs go
// to stderr so stdout carries only results.
func (s *state) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := s.loader.LoadWithFile(s.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	s.cfg = cfg

	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
	slog.SetDefault(logger)
	if used := s.loader.GetConfigFileUsed(); used != "" {
		slog.Debug("Configuration loaded", "file", used)
	}
	return nil
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
