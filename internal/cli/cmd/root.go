package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"webmc/internal/config"
	"webmc/internal/model"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitMissingDep  = 2
	ExitProbeError  = 3
	ExitEncodeError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeFor maps a job or ingestion failure to the process exit code.
func exitCodeFor(err error) int {
	var ee *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ee):
		return ee.Code
	case errors.Is(err, model.ErrProbeFailed):
		return ExitProbeError
	case errors.Is(err, model.ErrEncodeFailed), errors.Is(err, model.ErrSpawnFailed):
		return ExitEncodeError
	}
	return ExitCLIError
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webmc [files...]",
		Short: "Two-pass VP9/Opus WebM compressor",
		Long: "webmc compresses video files into WebM (VP9 video, Opus audio) with a two-pass ffmpeg encode. " +
			"Encoder settings follow the effective resolution and frame rate of each file; files are queued and " +
			"processed under a configurable parallelism limit.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cmd.Root()); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.IntP(config.KeyJobs, "j", 1, "Max jobs encoding at the same time")
	pf.Bool(config.KeyScale, false, "Scale the output; set exactly one of --width or --height")
	pf.Int(config.KeyWidth, 0, "Target width in px when scaling (height follows the aspect ratio)")
	pf.Int(config.KeyHeight, 0, "Target height in px when scaling (width follows the aspect ratio)")
	pf.String(config.KeyFFmpeg, "", "Path to ffmpeg")
	pf.String(config.KeyFFprobe, "", "Path to ffprobe")
	pf.String(config.KeyLogLevel, "info", "Log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "console", "Log format: console, json")
	pf.String(config.KeyLogFile, "", "Write logs to this file (default: state dir while the TUI runs)")
	pf.String(config.KeyMetricsAddr, "", "Serve Prometheus metrics on this address, e.g. :9090")
	pf.BoolP(config.KeyVerbose, "v", false, "Echo ffmpeg command lines and output")

	// Run flags also live on root, so `webmc <file>` works.
	bindEncodeFlags(root.Flags())
	root.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")

	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}
