package encoder

import "testing"

func TestProgressState_UpdateFromLine(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		durationMs int64
		want       []float64
	}{
		{
			name: "typical block",
			lines: []string{
				"frame=120",
				"out_time_us=30000000",
				"out_time_ms=30000000",
				"out_time=00:00:30.000000",
				"speed=1.5x",
				"progress=continue",
			},
			durationMs: 60_000,
			want:       []float64{50},
		},
		{
			name:       "advancing ticks",
			lines:      []string{"out_time_ms=0", "out_time_ms=15000000", "out_time_ms=45000000", "out_time_ms=60000000"},
			durationMs: 60_000,
			want:       []float64{0, 25, 75, 100},
		},
		{
			name:       "clamped past duration",
			lines:      []string{"out_time_us=90000000"},
			durationMs: 60_000,
			want:       []float64{100},
		},
		{
			name:       "malformed lines ignored",
			lines:      []string{"out_time_ms=N/A", "out_time_us=-9223372036854775807", "garbage", "out_time_ms=", "out_time_ms=6000000"},
			durationMs: 60_000,
			want:       []float64{10},
		},
		{
			name:       "regressions dropped",
			lines:      []string{"out_time_ms=30000000", "out_time_ms=20000000", "out_time_ms=40000000"},
			durationMs: 60_000,
			want:       []float64{50, 66.67},
		},
		{
			name:       "unknown duration",
			lines:      []string{"out_time_ms=30000000"},
			durationMs: 0,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := &ProgressState{DurationMs: tt.durationMs}
			var got []float64
			for _, line := range tt.lines {
				if p, ok := ps.UpdateFromLine(line); ok {
					got = append(got, p)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("samples = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		cur, dur int64
		want     float64
	}{
		{0, 1000, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{5000, 1000, 100},
		{100, 0, 0},
		{-5, 100, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.cur, tt.dur); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.cur, tt.dur, got, tt.want)
		}
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		name          string
		percent       float64
		overall, pass int64
		wantTotal     int64
		wantRemaining int64
	}{
		{name: "zero percent", percent: 0, overall: 5000, pass: 1000, wantTotal: 0, wantRemaining: 0},
		{name: "quarter", percent: 25, overall: 15_000, pass: 10_000, wantTotal: 45_000, wantRemaining: 30_000},
		{name: "half", percent: 50, overall: 30_000, pass: 20_000, wantTotal: 50_000, wantRemaining: 20_000},
		{name: "done", percent: 100, overall: 42_000, pass: 30_000, wantTotal: 42_000, wantRemaining: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, remaining := Estimate(tt.percent, tt.overall, tt.pass)
			if total != tt.wantTotal || remaining != tt.wantRemaining {
				t.Errorf("Estimate() = (%d, %d), want (%d, %d)", total, remaining, tt.wantTotal, tt.wantRemaining)
			}
		})
	}
}

func TestEstimate_TrendsToZero(t *testing.T) {
	// Constant throughput: 100ms per percent.
	prev := int64(-1)
	for p := 1.0; p <= 100; p++ {
		_, remaining := Estimate(p, int64(p*100)+5000, int64(p*100))
		if remaining < 0 {
			t.Fatalf("negative remaining at %v%%", p)
		}
		if prev >= 0 && remaining > prev {
			t.Fatalf("remaining grew at %v%%: %d > %d", p, remaining, prev)
		}
		prev = remaining
	}
	if prev != 0 {
		t.Errorf("remaining at 100%% = %d", prev)
	}
}

func TestNewSample(t *testing.T) {
	s := NewSample(50, 30_000, 20_000, 8_000)
	if s.Percent != 50 || s.ElapsedMs != 30_000 || s.EstimatedRemainingMs != 20_000 || s.EstimatedTotalMs != 50_000 || s.FirstPassMs != 8_000 {
		t.Errorf("NewSample() = %+v", s)
	}
}
