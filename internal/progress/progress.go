package progress

import "time"

// Step names a pass boundary or failure reported for a job.
type Step string

const (
	StepFirst  Step = "first"
	StepSecond Step = "second"
	StepError  Step = "error"
)

// Sample is one progress tick of the second pass. Estimates are zero until
// the encoder reports a non-zero percent.
type Sample struct {
	Percent              float64 // 0..100, rounded to two decimals
	ElapsedMs            int64   // since the job started, both passes
	EstimatedTotalMs     int64
	EstimatedRemainingMs int64
	FirstPassMs          int64 // 0 until pass 1 finished
}

// Update conveys a progress sample for a job.
type Update struct {
	JobID string
	Sample
}

// Result is emitted when a pass finishes or the job fails. StepSecond and
// StepError are terminal; StepFirst marks the pass boundary.
type Result struct {
	JobID         string
	Step          Step
	Pass          int // pass that failed, for StepError
	OutputPath    string
	Err           error
	Duration      time.Duration
	DurationHuman string
}

// Terminal reports whether no further events follow for the job.
func (r Result) Terminal() bool { return r.Step != StepFirst }

// Event is the single type carried on a job's event channel. Exactly one of
// Update or Result is set.
type Event struct {
	Update *Update
	Result *Result
}

// JobID returns the id of the job the event belongs to.
func (e Event) JobID() string {
	switch {
	case e.Update != nil:
		return e.Update.JobID
	case e.Result != nil:
		return e.Result.JobID
	}
	return ""
}

// Terminal reports whether e ends the job's event stream.
func (e Event) Terminal() bool { return e.Result != nil && e.Result.Terminal() }

// Reporter is implemented by UI or any observer interested in progress events.
type Reporter interface {
	Update(u Update)
	Result(r Result)
}

// Dispatch delivers e to the matching Reporter method.
func Dispatch(r Reporter, e Event) {
	if r == nil {
		return
	}
	switch {
	case e.Update != nil:
		r.Update(*e.Update)
	case e.Result != nil:
		r.Result(*e.Result)
	}
}

// Multi fans events out to several reporters in order.
type Multi []Reporter

func (m Multi) Update(u Update) {
	for _, r := range m {
		if r != nil {
			r.Update(u)
		}
	}
}

func (m Multi) Result(res Result) {
	for _, r := range m {
		if r != nil {
			r.Result(res)
		}
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Update(Update) {}
func (Nop) Result(Result) {}
