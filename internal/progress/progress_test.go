package progress

import (
	"errors"
	"testing"
)

type recorder struct {
	updates []Update
	results []Result
}

func (r *recorder) Update(u Update) { r.updates = append(r.updates, u) }
func (r *recorder) Result(res Result) { r.results = append(r.results, res) }

func TestEventTerminal(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{name: "update", ev: Event{Update: &Update{JobID: "a"}}, want: false},
		{name: "first pass", ev: Event{Result: &Result{JobID: "a", Step: StepFirst}}, want: false},
		{name: "second pass", ev: Event{Result: &Result{JobID: "a", Step: StepSecond}}, want: true},
		{name: "error", ev: Event{Result: &Result{JobID: "a", Step: StepError, Err: errors.New("boom")}}, want: true},
		{name: "empty", ev: Event{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispatchMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}

	Dispatch(m, Event{Update: &Update{JobID: "j", Sample: Sample{Percent: 12.5}}})
	Dispatch(m, Event{Result: &Result{JobID: "j", Step: StepSecond}})
	Dispatch(m, Event{})
	Dispatch(nil, Event{Update: &Update{}})

	for i, r := range []*recorder{a, b} {
		if len(r.updates) != 1 || r.updates[0].Percent != 12.5 {
			t.Errorf("reporter %d updates = %+v", i, r.updates)
		}
		if len(r.results) != 1 || r.results[0].Step != StepSecond {
			t.Errorf("reporter %d results = %+v", i, r.results)
		}
	}
	if got := (Event{Result: &Result{JobID: "x"}}).JobID(); got != "x" {
		t.Errorf("JobID() = %q", got)
	}
}
