package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/plastiscan/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration that commands run with: defaults, overridden by
the config file, overridden by PLASTISCAN_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if used := s.loader.GetConfigFileUsed(); used != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", used)
			}
			return config.WriteYAML(cmd.OutOrStdout(), s.cfg)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration to a file",
		Long: `Write the default configuration to file, or to ./plastiscan.yaml when no
file is given. An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			written, err := config.GenerateDefaultConfigFile(name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", written)
			return err
		},
	}

	cmd.AddCommand(show, initCmd)
	return cmd
}
