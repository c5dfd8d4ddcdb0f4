package bitrate

import (
	"math"
	"testing"

	"webmc/internal/ladder"
)

func TestForHeight(t *testing.T) {
	tests := []struct {
		name   string
		height int
		bucket int
		want   Triple
	}{
		{name: "1080p24", height: 1080, bucket: FPS24, want: Triple{Avg: 1800, Min: 900, Max: 2610}},
		{name: "1080p60", height: 1080, bucket: FPS60, want: Triple{Avg: 3000, Min: 1500, Max: 4350}},
		{name: "720p24", height: 720, bucket: FPS24, want: Triple{Avg: 1024, Min: 512, Max: 1485}},
		{name: "720p60", height: 720, bucket: FPS60, want: Triple{Avg: 1800, Min: 900, Max: 2610}},
		{name: "240p60 reuses 24 row", height: 240, bucket: FPS60, want: Triple{Avg: 150, Min: 75, Max: 218}},
		{name: "2160p60", height: 2160, bucket: FPS60, want: Triple{Avg: 18000, Min: 9000, Max: 26100}},
		{name: "snaps 1088 to 1080", height: 1088, bucket: FPS24, want: Triple{Avg: 1800, Min: 900, Max: 2610}},
		{name: "unknown bucket treated as 24", height: 1440, bucket: 30, want: Triple{Avg: 6000, Min: 3000, Max: 8700}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForHeight(tt.height, tt.bucket); got != tt.want {
				t.Errorf("ForHeight(%d, %d) = %+v, want %+v", tt.height, tt.bucket, got, tt.want)
			}
		})
	}
}

func TestTableIsTotal(t *testing.T) {
	for _, h := range ladder.Heights {
		for _, b := range []int{FPS24, FPS60} {
			tr := ForHeight(h, b)
			if tr.Avg == 0 || tr.Min == 0 || tr.Max == 0 {
				t.Errorf("missing row for %dp@%d", h, b)
			}
			if tr.Min >= tr.Avg || tr.Max <= tr.Avg {
				t.Errorf("%dp@%d: min/avg/max out of order: %+v", h, b, tr)
			}
		}
	}
}

// The published min/max stay within one kbps of the 50%/145% rule.
func TestTableNearFormula(t *testing.T) {
	for k, tr := range vod {
		if d := math.Abs(float64(tr.Min) - float64(tr.Avg)*0.5); d > 1 {
			t.Errorf("%v: min %d drifts %.1f from rule", k, tr.Min, d)
		}
		if d := math.Abs(float64(tr.Max) - float64(tr.Avg)*1.45); d > 1 {
			t.Errorf("%v: max %d drifts %.1f from rule", k, tr.Max, d)
		}
	}
}

func TestBucket(t *testing.T) {
	tests := []struct {
		fps  int
		want int
	}{
		{fps: 0, want: FPS24},
		{fps: 24, want: FPS24},
		{fps: 30, want: FPS24},
		{fps: 35, want: FPS24},
		{fps: 36, want: FPS60},
		{fps: 60, want: FPS60},
		{fps: 240, want: FPS60},
	}

	for _, tt := range tests {
		if got := Bucket(tt.fps); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.fps, got, tt.want)
		}
	}
}
