package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webmc/internal/config"
	"webmc/internal/util"
	"webmc/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			ff, ferr := deps.FindFFmpeg(cfg.FFmpeg)
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			fp, perr := deps.FindFFprobe(cfg.FFprobe)
			if perr != nil {
				return &ExitError{Code: ExitMissingDep, Err: perr}
			}

			runner := util.NewDefaultRunner()
			for _, b := range []struct{ label, path string }{{"FFmpeg: ", ff}, {"FFprobe:", fp}} {
				v, err := deps.Version(cmd.Context(), runner, b.path)
				if err != nil {
					return &ExitError{Code: ExitMissingDep, Err: fmt.Errorf("%s -version: %w", b.path, err)}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", b.label, b.path, v)
			}
			return nil
		},
	}
}
