package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"webmc/internal/encoder"
	"webmc/internal/model"
	"webmc/internal/pipeline"
	"webmc/internal/probe"
	"webmc/internal/util/deps"
	"webmc/internal/util/format"
	"webmc/internal/util/media"
)

type planFlags struct {
	pass         string
	sourceWidth  int
	sourceHeight int
	fps          int
	durationSec  float64
}

func newPlanCmd() *cobra.Command {
	var pf planFlags
	cmd := &cobra.Command{
		Use:           "plan [files...]",
		Short:         "Show derived settings and ffmpeg commands without encoding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, pf)
		},
	}
	bindEncodeFlags(cmd.Flags())
	cmd.Flags().StringVar(&pf.pass, "pass", "both", "Commands to print: first, second, both")
	cmd.Flags().IntVar(&pf.sourceWidth, "source-width", 0, "Source width in px; with --source-height skips probing")
	cmd.Flags().IntVar(&pf.sourceHeight, "source-height", 0, "Source height in px; with --source-width skips probing")
	cmd.Flags().IntVar(&pf.fps, "fps", 30, "Source frame rate when probing is skipped")
	cmd.Flags().Float64Var(&pf.durationSec, "duration", 0, "Source duration in seconds when probing is skipped")
	return cmd
}

func (pf planFlags) skipProbe() bool {
	return pf.sourceWidth > 0 && pf.sourceHeight > 0
}

func (pf planFlags) validate() error {
	switch pf.pass {
	case "first", "second", "both":
	default:
		return fmt.Errorf("%w: --pass %q (valid: first|second|both)", model.ErrInvalidArgument, pf.pass)
	}
	if (pf.sourceWidth > 0) != (pf.sourceHeight > 0) {
		return fmt.Errorf("%w: --source-width and --source-height go together", model.ErrInvalidArgument)
	}
	if pf.skipProbe() && pf.fps <= 0 {
		return fmt.Errorf("%w: --fps must be positive", model.ErrInvalidArgument)
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string, pf planFlags) error {
	if err := pf.validate(); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	in, err := assembleRunInputs(cmd)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	var prober pipeline.Prober
	if !pf.skipProbe() {
		ffprobePath, err := deps.FindFFprobe(in.Config.FFprobe)
		if err != nil {
			return &ExitError{Code: ExitMissingDep, Err: err}
		}
		prober = probe.New(ffprobePath)
	}
	ffmpegName := in.Config.FFmpeg
	if ffmpegName == "" {
		ffmpegName = "ffmpeg"
	}

	var errs []error
	for _, f := range args {
		src, err := filepath.Abs(f)
		if err != nil {
			src = filepath.Clean(f)
		}
		md, err := planMetadata(cmd, prober, src, pf)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
			errs = append(errs, err)
			continue
		}
		out, err := media.AvailableOutputPath(src, encoder.OutputExt, nil)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
			errs = append(errs, err)
			continue
		}
		plan, err := pipeline.BuildPlan(model.Job{
			SourcePath: src,
			OutputPath: out,
			Scale:      in.Config.Scale,
			Extra:      in.Extra,
		}, md, pipeline.PlanOptions{Date: in.Date, Comment: in.Comment})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
			errs = append(errs, err)
			continue
		}
		printPlan(cmd.OutOrStdout(), ffmpegName, plan, pf.pass)
	}
	if len(errs) > 0 {
		return &ExitError{Code: worstCode(errs), Err: errors.Join(errs...)}
	}
	return nil
}

func planMetadata(cmd *cobra.Command, p pipeline.Prober, src string, pf planFlags) (model.Metadata, error) {
	if p != nil {
		return p.Probe(cmd.Context(), src)
	}
	md := model.Metadata{
		Width:      pf.sourceWidth,
		Height:     pf.sourceHeight,
		FPS:        pf.fps,
		DurationMs: int64(pf.durationSec * 1000),
	}
	if fi, err := os.Stat(src); err == nil {
		md.Size = fi.Size()
	}
	return md, nil
}

func printPlan(w io.Writer, ffmpegName string, p pipeline.Plan, pass string) {
	s := p.Settings
	target := fmt.Sprintf("%dx%d", p.Target.Width, p.Target.Height)
	if !p.Scaled {
		target += " (source)"
	} else if p.Upscale {
		target += " (upscale)"
	}
	rows := [][]string{
		{"Source", p.SourcePath},
		{"Output", p.OutputPath},
		{"Resolution", fmt.Sprintf("%dx%d @ %d fps", p.Source.Width, p.Source.Height, p.Source.FPS)},
		{"Duration", format.Duration(p.Source.DurationMs)},
		{"Size", format.HumanizeBytes(p.Source.Size)},
		{"Target", target},
		{"CRF", strconv.Itoa(s.CRF)},
		{"Bitrate (avg/min/max)", fmt.Sprintf("%dk / %dk / %dk", s.Bitrate.Avg, s.Bitrate.Min, s.Bitrate.Max)},
		{"Tile columns", strconv.Itoa(s.TileColumns)},
		{"Threads", strconv.Itoa(s.Threads)},
		{"Speed (pass 1/2)", fmt.Sprintf("%d / %d", s.FirstPassSpeed, s.SecondPassSpeed)},
		{"Frame rate bucket", strconv.Itoa(s.FrameRateBucket)},
	}
	fmt.Fprintln(w, renderTable(filepath.Base(p.SourcePath), []string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))

	if pass == "first" || pass == "both" {
		fmt.Fprintln(w, "# pass 1")
		fmt.Fprintln(w, ffmpegName+" "+encoder.CommandLine(p.Passes.First))
	}
	if pass == "second" || pass == "both" {
		fmt.Fprintln(w, "# pass 2")
		fmt.Fprintln(w, ffmpegName+" "+encoder.CommandLine(p.Passes.Second))
	}
}
