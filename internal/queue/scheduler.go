// Package queue owns compression jobs and admits them into the pipeline under
// a parallelism limit.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"webmc/internal/model"
	"webmc/internal/progress"
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")
	// ErrBusy is returned when an operation targets a processing job.
	ErrBusy = errors.New("job is processing")
	// ErrDuplicate is returned when a source is already waiting or running.
	ErrDuplicate = errors.New("source already queued")
)

// Driver runs one job and reports on the returned channel, which it closes
// after the terminal event.
type Driver interface {
	Start(ctx context.Context, job model.Job) <-chan progress.Event
}

// Scheduler is the sole owner of job state. Driver events are applied by a
// single loop goroutine; the public methods are safe for concurrent use.
type Scheduler struct {
	ctx      context.Context
	driver   Driver
	logger   zerolog.Logger
	reporter progress.Reporter
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	jobs    []*model.Job
	limit   int
	changed chan struct{}

	inbox   chan progress.Event
	done    chan struct{}
	drivers sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithParallelism sets the initial limit of concurrently processing jobs.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		s.limit = clampLimit(n)
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithReporter receives every driver event after it was applied.
func WithReporter(r progress.Reporter) Option {
	return func(s *Scheduler) {
		s.reporter = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithIDs replaces the job id generator.
func WithIDs(fn func() string) Option {
	return func(s *Scheduler) {
		s.newID = fn
	}
}

// New starts a Scheduler whose event loop lives until ctx is done. ctx is
// also handed to every driver run.
func New(ctx context.Context, d Driver, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:      ctx,
		driver:   d,
		logger:   zerolog.Nop(),
		reporter: progress.Nop{},
		now:      time.Now,
		newID:    uuid.NewString,
		limit:    1,
		changed:  make(chan struct{}),
		inbox:    make(chan progress.Event, 64),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.loop()
	return s
}

func clampLimit(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Add enqueues job and returns its id. The scale request is validated here so
// an invalid job never enters the table.
func (s *Scheduler) Add(job model.Job) (string, error) {
	if job.SourcePath == "" {
		return "", fmt.Errorf("%w: empty source path", model.ErrInvalidArgument)
	}
	if err := job.Scale.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	for _, j := range s.jobs {
		if j.SourcePath == job.SourcePath && !j.Terminal() {
			s.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrDuplicate, job.SourcePath)
		}
	}
	if job.ID == "" {
		job.ID = s.newID()
	}
	job.Status = model.StatusQueued
	job.CurrentPass = 0
	job.Percent = 0
	job.Err = nil
	job.QueuedAt = s.now()
	s.jobs = append(s.jobs, &job)
	s.logger.Debug().Str("job", job.ID).Str("source", job.SourcePath).Msg("queued")
	start := s.admitLocked()
	s.notifyLocked()
	s.mu.Unlock()

	s.launch(start)
	return job.ID, nil
}

// Remove deletes a job that is not processing.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, j := s.findLocked(id)
	if j == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status == model.StatusProcessing {
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	s.notifyLocked()
	return nil
}

// Move shifts a job that is not processing by delta positions, clamped to the
// table bounds. Queue order is admission order.
func (s *Scheduler) Move(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, j := s.findLocked(id)
	if j == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status == model.StatusProcessing {
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	to := min(max(i+delta, 0), len(s.jobs)-1)
	if to == i {
		return nil
	}
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	s.jobs = append(s.jobs[:to], append([]*model.Job{j}, s.jobs[to:]...)...)
	s.notifyLocked()
	return nil
}

// SetEditing toggles the editing flag. An editing job is never admitted.
func (s *Scheduler) SetEditing(id string, editing bool) error {
	s.mu.Lock()
	_, j := s.findLocked(id)
	if j == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status == model.StatusProcessing {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	j.Editing = editing
	start := s.admitLocked()
	s.notifyLocked()
	s.mu.Unlock()

	s.launch(start)
	return nil
}

// UpdateScale replaces the scale request of a job that is not processing.
// Settings are derived again when the job runs.
func (s *Scheduler) UpdateScale(id string, scale model.ScaleOptions) error {
	if err := scale.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, j := s.findLocked(id)
	if j == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if j.Status == model.StatusProcessing {
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	j.Scale = scale
	s.notifyLocked()
	return nil
}

// Requeue puts a finished or failed job back at the end of the queue.
func (s *Scheduler) Requeue(id string) error {
	s.mu.Lock()
	i, j := s.findLocked(id)
	if j == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !j.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	*j = model.Job{
		ID:         j.ID,
		SourcePath: j.SourcePath,
		OutputPath: j.OutputPath,
		Scale:      j.Scale,
		Extra:      j.Extra,
		Status:     model.StatusQueued,
		QueuedAt:   s.now(),
	}
	s.jobs = append(s.jobs, j)
	start := s.admitLocked()
	s.notifyLocked()
	s.mu.Unlock()

	s.launch(start)
	return nil
}

// SetParallelism changes the limit. Lowering it never stops running jobs.
func (s *Scheduler) SetParallelism(n int) {
	s.mu.Lock()
	s.limit = clampLimit(n)
	s.logger.Info().Int("parallelism", s.limit).Msg("parallelism changed")
	start := s.admitLocked()
	s.notifyLocked()
	s.mu.Unlock()

	s.launch(start)
}

// Parallelism returns the current limit.
func (s *Scheduler) Parallelism() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

// ActiveCount returns the number of processing jobs.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// Snapshot returns copies of all jobs in queue order.
func (s *Scheduler) Snapshot() []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Get returns a copy of one job.
func (s *Scheduler) Get(id string) (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, j := s.findLocked(id)
	if j == nil {
		return model.Job{}, false
	}
	return *j, true
}

// Changed returns a channel closed on the next state change.
func (s *Scheduler) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// Wait blocks until nothing is processing and no queued job is admissible.
// Editing jobs do not keep Wait blocked.
func (s *Scheduler) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle := s.idleLocked()
		ch := s.changed
		s.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return s.ctx.Err()
		}
	}
}

// Drain blocks until every launched driver has closed its stream, which a
// driver does after releasing its pass-log files. Call it after cancelling the
// scheduler's context; running jobs otherwise keep it blocked.
func (s *Scheduler) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.drivers.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) idleLocked() bool {
	for _, j := range s.jobs {
		if j.Status == model.StatusProcessing || j.Eligible() {
			return false
		}
	}
	return true
}

func (s *Scheduler) activeLocked() int {
	n := 0
	for _, j := range s.jobs {
		if j.Status == model.StatusProcessing {
			n++
		}
	}
	return n
}

func (s *Scheduler) findLocked(id string) (int, *model.Job) {
	for i, j := range s.jobs {
		if j.ID == id {
			return i, j
		}
	}
	return -1, nil
}

func (s *Scheduler) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// admitLocked promotes the earliest eligible queued jobs while the limit
// allows and returns read-only copies for launching outside the lock.
func (s *Scheduler) admitLocked() []model.Job {
	select {
	case <-s.done:
		return nil
	default:
	}
	var start []model.Job
	active := s.activeLocked()
	for _, j := range s.jobs {
		if active >= s.limit {
			break
		}
		if !j.Eligible() {
			continue
		}
		j.Status = model.StatusProcessing
		j.CurrentPass = 1
		j.StartedAt = s.now()
		active++
		start = append(start, *j)
		s.logger.Info().Str("job", j.ID).Str("source", j.SourcePath).Int("active", active).Int("limit", s.limit).Msg("admitted")
	}
	return start
}

func (s *Scheduler) launch(jobs []model.Job) {
	for _, job := range jobs {
		ch := s.driver.Start(s.ctx, job)
		s.drivers.Add(1)
		go s.forward(job.ID, ch)
	}
}

// forward relays one job's events to the loop. A stream that closes without
// a terminal event is turned into a failure so the job cannot stay
// processing forever. Once the loop is gone the stream is still drained so
// the driver can finish its cleanup and close it.
func (s *Scheduler) forward(id string, ch <-chan progress.Event) {
	defer s.drivers.Done()
	terminal := false
	for e := range ch {
		if terminal {
			continue
		}
		terminal = e.Terminal()
		select {
		case s.inbox <- e:
		case <-s.done:
			for range ch {
			}
			return
		}
	}
	if terminal {
		return
	}
	e := progress.Event{Result: &progress.Result{
		JobID: id,
		Step:  progress.StepError,
		Err:   errors.New("driver stopped without a result"),
	}}
	select {
	case s.inbox <- e:
	case <-s.done:
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case e := <-s.inbox:
			s.mu.Lock()
			ok := s.applyLocked(e)
			var start []model.Job
			if ok {
				start = s.admitLocked()
				s.notifyLocked()
			}
			s.mu.Unlock()

			if ok {
				progress.Dispatch(s.reporter, e)
			}
			s.launch(start)
		}
	}
}

// applyLocked folds one driver event into the job table. Events for jobs that
// are not processing are dropped.
func (s *Scheduler) applyLocked(e progress.Event) bool {
	_, j := s.findLocked(e.JobID())
	if j == nil || j.Status != model.StatusProcessing {
		return false
	}
	switch {
	case e.Update != nil:
		u := e.Update
		if u.Percent < j.Percent {
			return false
		}
		j.Percent = u.Percent
		j.ElapsedMs = u.ElapsedMs
		j.RemainingMs = u.EstimatedRemainingMs
		j.FirstPassMs = u.FirstPassMs
	case e.Result != nil:
		r := e.Result
		switch r.Step {
		case progress.StepFirst:
			j.CurrentPass = 2
			j.FirstPassMs = r.Duration.Milliseconds()
		case progress.StepSecond:
			j.Status = model.StatusComplete
			j.CurrentPass = 0
			j.Percent = 100
			j.RemainingMs = 0
			j.ElapsedMs = r.Duration.Milliseconds()
			j.FinishedAt = s.now()
			if r.OutputPath != "" {
				j.OutputPath = r.OutputPath
			}
			s.logger.Info().Str("job", j.ID).Str("took", r.DurationHuman).Msg("complete")
		default:
			j.Status = model.StatusError
			j.CurrentPass = 0
			j.Err = r.Err
			j.FinishedAt = s.now()
			s.logger.Warn().Str("job", j.ID).Err(r.Err).Msg("failed")
		}
	default:
		return false
	}
	return true
}
