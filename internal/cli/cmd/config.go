package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"webmc/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := config.Settings()
			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, fmt.Sprint(settings[k])})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("", []string{"Key", "Value"}, rows, nil))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "save [path]",
		Short:         "Persist the scale settings and parallelism limit",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if path, err = config.DefaultPath(); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if err := config.Save(path, cfg); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s\n", path)
			return nil
		},
	})
	return cmd
}
