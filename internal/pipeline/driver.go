// Package pipeline drives one compression job through probe, pass 1 and pass 2.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"webmc/internal/encoder"
	"webmc/internal/model"
	"webmc/internal/progress"
	"webmc/internal/util"
	"webmc/internal/util/format"
)

// passLogName is the file prefix ffmpeg writes its first-pass statistics under.
const passLogName = "ffmpeg2pass"

// Prober returns the metadata of a source file.
type Prober interface {
	Probe(ctx context.Context, path string) (model.Metadata, error)
}

// Driver runs jobs. It never mutates the job it is given; everything it learns
// is reported as events.
type Driver struct {
	ffmpegPath string
	prober     Prober
	runner     util.CmdRunner
	logger     zerolog.Logger
	now        func() time.Time
	date       time.Time
	comment    string
	echo       io.Writer
	workdir    func(jobID string) (string, error)
}

// Option configures a Driver.
type Option func(*Driver)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(d *Driver) {
		d.ffmpegPath = p
	}
}

// WithProber sets the metadata collaborator.
func WithProber(p Prober) Option {
	return func(d *Driver) {
		d.prober = p
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(d *Driver) {
		d.runner = r
	}
}

// WithLogger sets the logger; job loggers derive from it.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// WithDate pins the creation_time metadata instead of using the start time.
func WithDate(t time.Time) Option {
	return func(d *Driver) {
		d.date = t
	}
}

// WithComment overrides the comment metadata tag.
func WithComment(c string) Option {
	return func(d *Driver) {
		d.comment = c
	}
}

// WithEcho streams ffmpeg command lines and output to w.
func WithEcho(w io.Writer) Option {
	return func(d *Driver) {
		d.echo = w
	}
}

// WithWorkdir replaces the per-job pass-log directory factory.
func WithWorkdir(fn func(jobID string) (string, error)) Option {
	return func(d *Driver) {
		d.workdir = fn
	}
}

// New constructs a Driver with the provided options.
func New(opts ...Option) *Driver {
	d := &Driver{
		ffmpegPath: "ffmpeg",
		logger:     zerolog.Nop(),
		now:        time.Now,
		comment:    encoder.DefaultComment,
		workdir: func(jobID string) (string, error) {
			return util.MakeTempWorkdir("passlog-" + jobID)
		},
	}
	for _, o := range opts {
		o(d)
	}
	if d.runner == nil {
		d.runner = util.NewDefaultRunner()
	}
	return d
}

// Start runs job on its own goroutine and returns its event stream. The
// channel closes after the terminal event; callers must drain it.
func (d *Driver) Start(ctx context.Context, job model.Job) <-chan progress.Event {
	ch := make(chan progress.Event, 16)
	go func() {
		defer close(ch)
		_ = d.Run(ctx, job, func(e progress.Event) { ch <- e })
	}()
	return ch
}

// Plan probes the job's source and resolves its plan without running it.
func (d *Driver) Plan(ctx context.Context, job model.Job) (Plan, error) {
	if d.prober == nil {
		return Plan{}, errors.New("pipeline: no prober configured")
	}
	md, err := d.prober.Probe(ctx, job.SourcePath)
	if err != nil {
		return Plan{}, err
	}
	return BuildPlan(job, md, PlanOptions{Date: d.date, Comment: d.comment})
}

// Run executes job synchronously, delivering events to emit in order. The
// last event is always terminal. The returned error matches the one carried
// by a StepError event.
func (d *Driver) Run(ctx context.Context, job model.Job, emit func(progress.Event)) error {
	start := d.now()
	log := d.logger.With().Str("job", job.ID).Str("source", job.SourcePath).Logger()

	pass := 0
	fail := func(err error) error {
		elapsed := d.now().Sub(start)
		log.Error().Err(err).Int("pass", pass).Dur("elapsed", elapsed).Msg("job failed")
		emit(progress.Event{Result: &progress.Result{
			JobID:         job.ID,
			Step:          progress.StepError,
			Pass:          pass,
			OutputPath:    job.OutputPath,
			Err:           err,
			Duration:      elapsed,
			DurationHuman: format.Duration(elapsed.Milliseconds()),
		}})
		return err
	}

	if d.prober == nil {
		return fail(errors.New("pipeline: no prober configured"))
	}
	md, err := d.prober.Probe(ctx, job.SourcePath)
	if err != nil {
		return fail(err)
	}
	log.Debug().Int("width", md.Width).Int("height", md.Height).Int("fps", md.FPS).Int64("duration_ms", md.DurationMs).Msg("probed")

	dir, err := d.workdir(job.ID)
	if err != nil {
		return fail(fmt.Errorf("pass log dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("remove pass log dir")
		}
	}()

	date := d.date
	if date.IsZero() {
		date = start
	}
	plan, err := BuildPlan(job, md, PlanOptions{
		Date:          date,
		Comment:       d.comment,
		PassLogPrefix: filepath.Join(dir, passLogName),
	})
	if err != nil {
		return fail(err)
	}
	if err := util.EnsureDir(filepath.Dir(plan.OutputPath)); err != nil {
		return fail(fmt.Errorf("ensure output dir: %w", err))
	}
	log.Info().
		Str("output", plan.OutputPath).
		Int("width", plan.Target.Width).
		Int("height", plan.Target.Height).
		Int("crf", plan.Settings.CRF).
		Int("bitrate_kbps", plan.Settings.Bitrate.Avg).
		Msg("encoding")

	// Pass 1: analysis only, no progress channel.
	pass = 1
	passStart := d.now()
	res, err := d.runner.Run(ctx, util.CmdSpec{
		Path: d.ffmpegPath,
		Args: plan.Passes.First,
		Echo: d.echo,
	})
	if err != nil {
		return fail(passError(1, res, err))
	}
	firstPass := d.now().Sub(passStart)
	firstPassMs := firstPass.Milliseconds()
	log.Info().Dur("elapsed", firstPass).Msg("first pass done")
	emit(progress.Event{Result: &progress.Result{
		JobID:         job.ID,
		Step:          progress.StepFirst,
		OutputPath:    plan.OutputPath,
		Duration:      firstPass,
		DurationHuman: format.Duration(firstPassMs),
	}})

	// Pass 2: encode with -progress on stdout.
	pass = 2
	secondStart := d.now()
	ps := &encoder.ProgressState{DurationMs: md.DurationMs}
	res, err = d.runner.Run(ctx, util.CmdSpec{
		Path: d.ffmpegPath,
		Args: plan.Passes.Second,
		Echo: d.echo,
		StdoutLine: func(line string) {
			p, ok := ps.UpdateFromLine(line)
			if !ok {
				return
			}
			now := d.now()
			emit(progress.Event{Update: &progress.Update{
				JobID:  job.ID,
				Sample: encoder.NewSample(p, now.Sub(start).Milliseconds(), now.Sub(secondStart).Milliseconds(), firstPassMs),
			}})
		},
	})
	if err != nil {
		return fail(passError(2, res, err))
	}

	end := d.now()
	total := end.Sub(start)
	emit(progress.Event{Update: &progress.Update{
		JobID:  job.ID,
		Sample: encoder.NewSample(100, total.Milliseconds(), end.Sub(secondStart).Milliseconds(), firstPassMs),
	}})
	log.Info().Dur("elapsed", total).Str("output", plan.OutputPath).Msg("job complete")
	emit(progress.Event{Result: &progress.Result{
		JobID:         job.ID,
		Step:          progress.StepSecond,
		OutputPath:    plan.OutputPath,
		Duration:      total,
		DurationHuman: format.Duration(total.Milliseconds()),
	}})
	return nil
}

// passError classifies a failed ffmpeg run. Launch failures keep their
// ErrSpawnFailed identity; exits become *model.EncodeError.
func passError(pass int, res util.CmdResult, err error) error {
	if errors.Is(err, model.ErrSpawnFailed) {
		return fmt.Errorf("pass %d: %w", pass, err)
	}
	return &model.EncodeError{Pass: pass, Code: res.Code, Stderr: string(res.Stderr)}
}
