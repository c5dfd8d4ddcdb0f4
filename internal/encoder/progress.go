package encoder

import (
	"math"
	"strconv"
	"strings"

	"webmc/internal/progress"
)

// ProgressState tracks ffmpeg's -progress stream for one pass. Both
// out_time_ms and out_time_us carry microseconds.
type ProgressState struct {
	DurationMs int64

	lastUs  int64
	seen    bool
	percent float64
}

// UpdateFromLine consumes one line and returns the new percent when the line
// carried a time marker that advanced. Malformed values, including N/A and
// negative times, are ignored. Percent never decreases.
func (ps *ProgressState) UpdateFromLine(line string) (percent float64, ok bool) {
	key, val, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	switch strings.TrimSpace(key) {
	case "out_time_ms", "out_time_us":
	default:
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	if ps.seen && us <= ps.lastUs {
		return 0, false
	}
	ps.seen = true
	ps.lastUs = us

	if ps.DurationMs <= 0 {
		return 0, false
	}
	p := Percent(us/1000, ps.DurationMs)
	if p < ps.percent {
		return 0, false
	}
	ps.percent = p
	return p, true
}

// Percent returns current/duration as a percentage clamped to [0,100] and
// rounded to two decimals.
func Percent(currentMs, durationMs int64) float64 {
	if durationMs <= 0 || currentMs <= 0 {
		return 0
	}
	p := float64(currentMs) / float64(durationMs) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// Estimate extrapolates the remaining time linearly from second-pass
// throughput. overallMs covers both passes and feeds the total. At zero
// percent both estimates are zero.
func Estimate(percent float64, overallMs, secondPassMs int64) (totalMs, remainingMs int64) {
	if percent <= 0 {
		return 0, 0
	}
	if percent >= 100 {
		return overallMs, 0
	}
	remainingMs = int64(math.Round((100 - percent) * float64(secondPassMs) / percent))
	if remainingMs < 0 {
		remainingMs = 0
	}
	return overallMs + remainingMs, remainingMs
}

// NewSample builds the progress sample reported for a tick.
func NewSample(percent float64, overallMs, secondPassMs, firstPassMs int64) progress.Sample {
	total, remaining := Estimate(percent, overallMs, secondPassMs)
	return progress.Sample{
		Percent:              percent,
		ElapsedMs:            overallMs,
		EstimatedTotalMs:     total,
		EstimatedRemainingMs: remaining,
		FirstPassMs:          firstPassMs,
	}
}
