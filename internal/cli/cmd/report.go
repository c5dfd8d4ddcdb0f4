package cmd

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sync"

	"webmc/internal/progress"
	"webmc/internal/util/format"
)

// linePrinter is the plain-text progress reporter used when the TUI is off.
// Second-pass samples are printed every 10%.
type linePrinter struct {
	w io.Writer

	mu    sync.Mutex
	names map[string]string
	last  map[string]int
}

func newLinePrinter(w io.Writer) *linePrinter {
	return &linePrinter{w: w, names: map[string]string{}, last: map[string]int{}}
}

func (p *linePrinter) track(id, source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names[id] = filepath.Base(source)
}

func (p *linePrinter) name(id string) string {
	if n, ok := p.names[id]; ok {
		return n
	}
	return id
}

func (p *linePrinter) Update(u progress.Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step := int(math.Floor(u.Percent / 10))
	if prev, ok := p.last[u.JobID]; ok && step <= prev {
		return
	}
	p.last[u.JobID] = step
	line := fmt.Sprintf("%s: pass 2/2 %6.2f%%", p.name(u.JobID), u.Percent)
	if u.EstimatedRemainingMs > 0 && u.Percent < 100 {
		line += " ETA " + format.Duration(u.EstimatedRemainingMs)
	}
	fmt.Fprintln(p.w, line)
}

func (p *linePrinter) Result(r progress.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name := p.name(r.JobID)
	if r.Terminal() {
		delete(p.last, r.JobID)
	}
	switch r.Step {
	case progress.StepFirst:
		fmt.Fprintf(p.w, "%s: first pass done in %s\n", name, r.DurationHuman)
	case progress.StepSecond:
		fmt.Fprintf(p.w, "%s: done in %s -> %s\n", name, r.DurationHuman, r.OutputPath)
	default:
		fmt.Fprintf(p.w, "%s: failed: %v\n", name, r.Err)
	}
}
