package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"webmc/internal/config"
	"webmc/internal/dirs"
	"webmc/internal/encoder"
	"webmc/internal/logging"
	"webmc/internal/metrics"
	"webmc/internal/model"
	"webmc/internal/pipeline"
	"webmc/internal/probe"
	"webmc/internal/progress"
	"webmc/internal/queue"
	"webmc/internal/ui"
	"webmc/internal/util/deps"
	"webmc/internal/util/format"
	"webmc/internal/util/media"
)

// drainTimeout bounds how long an interrupted run waits for ffmpeg to exit.
const drainTimeout = 10 * time.Second

type runMode struct {
	ForceTUI bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [files...]",
		Short:         "Queue files and compress them to WebM",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}
	bindEncodeFlags(cmd.Flags())
	cmd.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")
	return cmd
}

// bindEncodeFlags registers the per-invocation encoder flags shared by run,
// tui and plan.
func bindEncodeFlags(fs *pflag.FlagSet) {
	fs.StringArray("extra", nil, `Extra ffmpeg arguments for both passes, split on spaces (e.g. "-ss 00:00:17 -to 00:00:22")`)
	fs.StringArray("extra-first", nil, "Extra ffmpeg arguments for the first pass only")
	fs.StringArray("extra-second", nil, "Extra ffmpeg arguments for the second pass only")
	fs.String("date", "", "creation_time metadata as RFC 3339 (default: job start time)")
	fs.String("comment", encoder.DefaultComment, "comment metadata tag")
}

type runInputs struct {
	Config  config.Config
	Extra   model.ExtraArgs
	Date    time.Time
	Comment string
	NoUI    bool
}

func assembleRunInputs(cmd *cobra.Command) (runInputs, error) {
	cfg, err := config.Load()
	if err != nil {
		return runInputs{}, err
	}
	fs := cmd.Flags()

	var in runInputs
	in.Config = cfg
	in.Extra.Both = splitArgs(mustStringArray(fs, "extra"))
	in.Extra.First = splitArgs(mustStringArray(fs, "extra-first"))
	in.Extra.Second = splitArgs(mustStringArray(fs, "extra-second"))
	in.Comment, _ = fs.GetString("comment")
	in.NoUI, _ = fs.GetBool("no-ui")

	if raw, _ := fs.GetString("date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return runInputs{}, fmt.Errorf("%w: --date %q: %v", model.ErrInvalidArgument, raw, err)
		}
		in.Date = t
	}
	return in, nil
}

func mustStringArray(fs *pflag.FlagSet, name string) []string {
	v, _ := fs.GetStringArray(name)
	return v
}

// splitArgs turns repeated flag values into one argument list, splitting each
// value on whitespace.
func splitArgs(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	in, err := assembleRunInputs(cmd)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	cfg := in.Config

	ffmpegPath, err := deps.FindFFmpeg(cfg.FFmpeg)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}
	ffprobePath, err := deps.FindFFprobe(cfg.FFprobe)
	if err != nil {
		return &ExitError{Code: ExitMissingDep, Err: err}
	}

	useTUI := mode.ForceTUI || (!in.NoUI && isTerminal())
	log, closeLog, err := newLogger(cfg, useTUI)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	prober := probe.New(ffprobePath)
	dopts := []pipeline.Option{
		pipeline.WithFFmpegPath(ffmpegPath),
		pipeline.WithProber(prober),
		pipeline.WithLogger(log),
		pipeline.WithComment(in.Comment),
		pipeline.WithDate(in.Date),
	}
	if cfg.Verbose && !useTUI {
		dopts = append(dopts, pipeline.WithEcho(cmd.ErrOrStderr()))
	}
	driver := pipeline.New(dopts...)

	reporters := progress.Multi{metrics.NewReporter()}
	printer := newLinePrinter(cmd.OutOrStdout())
	if !useTUI {
		reporters = append(reporters, printer)
	}
	sched := queue.New(ctx, driver,
		queue.WithParallelism(cfg.Jobs),
		queue.WithLogger(log),
		queue.WithReporter(reporters),
	)
	defer shutdown(cancel, sched, log)

	if cfg.MetricsAddr != "" {
		if err := metrics.RegisterQueue(prometheus.DefaultRegisterer, sched); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	rejected := ingest(ctx, cmd.ErrOrStderr(), sched, prober, printer, args, in)
	if len(sched.Snapshot()) == 0 {
		return &ExitError{Code: worstCode(rejected), Err: errors.New("no files to compress")}
	}

	if useTUI {
		err := ui.Run(ctx, sched, ui.Options{ExitWhenDone: true})
		if errors.Is(err, ui.ErrAborted) {
			cancel()
			printSummary(cmd.OutOrStdout(), sched.Snapshot())
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	}
	if err := sched.Wait(ctx); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	jobs := sched.Snapshot()
	printSummary(cmd.OutOrStdout(), jobs)
	var failed []error
	for _, j := range jobs {
		if j.Err != nil {
			failed = append(failed, j.Err)
		}
	}
	failed = append(failed, rejected...)
	if len(failed) > 0 {
		return &ExitError{Code: worstCode(failed), Err: fmt.Errorf("%d file(s) failed", len(failed))}
	}
	return nil
}

// jobQueue is the part of the scheduler ingest needs.
type jobQueue interface {
	Add(job model.Job) (string, error)
}

// ingest probes every file before it enters the queue; files that fail are
// reported and skipped. Output paths are reserved so two sources sharing a
// stem never collide.
func ingest(ctx context.Context, errw io.Writer, q jobQueue, p pipeline.Prober, names *linePrinter, files []string, in runInputs) []error {
	var rejected []error
	seen := make(map[string]bool, len(files))
	reserved := make(map[string]bool, len(files))
	exists := func(path string) bool {
		if reserved[path] {
			return true
		}
		_, err := os.Stat(path)
		return err == nil
	}

	for _, f := range files {
		src, err := filepath.Abs(f)
		if err != nil {
			src = filepath.Clean(f)
		}
		if seen[src] {
			fmt.Fprintf(errw, "skipping duplicate: %s\n", f)
			continue
		}
		seen[src] = true

		if _, err := p.Probe(ctx, src); err != nil {
			fmt.Fprintf(errw, "skipping %s: %v\n", f, err)
			rejected = append(rejected, err)
			continue
		}
		out, err := media.AvailableOutputPath(src, encoder.OutputExt, exists)
		if err != nil {
			fmt.Fprintf(errw, "skipping %s: %v\n", f, err)
			rejected = append(rejected, err)
			continue
		}

		id := uuid.NewString()
		names.track(id, src)
		if _, err := q.Add(model.Job{
			ID:         id,
			SourcePath: src,
			OutputPath: out,
			Scale:      in.Config.Scale,
			Extra:      in.Extra,
		}); err != nil {
			fmt.Fprintf(errw, "skipping %s: %v\n", f, err)
			rejected = append(rejected, err)
			continue
		}
		reserved[out] = true
	}
	return rejected
}

// shutdown cancels the run and waits for running drivers to remove their
// pass-log files before the process exits.
func shutdown(cancel context.CancelFunc, q *queue.Scheduler, log zerolog.Logger) {
	cancel()
	ctx, stop := context.WithTimeout(context.Background(), drainTimeout)
	defer stop()
	if err := q.Drain(ctx); err != nil {
		log.Warn().Err(err).Msg("encoders still running at exit")
	}
}

func worstCode(errs []error) int {
	code := ExitCLIError
	for _, err := range errs {
		if c := exitCodeFor(err); c > code {
			code = c
		}
	}
	return code
}

func printSummary(w io.Writer, jobs []model.Job) {
	for _, j := range jobs {
		switch j.Status {
		case model.StatusComplete:
			size := ""
			if fi, err := os.Stat(j.OutputPath); err == nil {
				size = " (" + format.HumanizeBytes(fi.Size()) + ")"
			}
			fmt.Fprintf(w, "Saved: %s%s\n", j.OutputPath, size)
		case model.StatusError:
			fmt.Fprintf(w, "Failed: %s: %v\n", j.SourcePath, j.Err)
		}
	}
}

func newLogger(cfg config.Config, tui bool) (zerolog.Logger, func(), error) {
	path := cfg.LogFile
	if path == "" && tui {
		// The TUI owns the terminal, so logs go to the state dir.
		p, err := dirs.DefaultLogFile()
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
		path = p
	}

	opts := logging.Options{Level: cfg.LogLevel, Format: logging.Format(cfg.LogFormat)}
	closer := func() {}
	if path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		opts.Writer = f
		opts.NoColor = true
		closer = func() { _ = f.Close() }
	}
	log, err := logging.New(opts)
	if err != nil {
		closer()
		return zerolog.Nop(), func() {}, err
	}
	return log, closer, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
