package quality

import (
	"testing"

	"webmc/internal/ladder"
	"webmc/internal/util/bitrate"
)

func TestCRF(t *testing.T) {
	tests := []struct {
		height int
		want   int
	}{
		{height: 240, want: 37},
		{height: 360, want: 36},
		{height: 480, want: 33},
		{height: 720, want: 32},
		{height: 1080, want: 31},
		{height: 1440, want: 24},
		{height: 2160, want: 15},
		{height: 0, want: 37},
		{height: 1000, want: 31},
		{height: 8000, want: 15},
	}

	for _, tt := range tests {
		if got := CRF(tt.height); got != tt.want {
			t.Errorf("CRF(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

func TestTilingAndThreading(t *testing.T) {
	tests := []struct {
		width int
		want  Tiling
	}{
		{width: 320, want: Tiling{0, 1}},
		{width: 640, want: Tiling{1, 2}},
		{width: 1280, want: Tiling{2, 4}},
		{width: 1920, want: Tiling{2, 4}},
		{width: 2560, want: Tiling{3, 8}},
		{width: 3840, want: Tiling{3, 8}},
		{width: 100, want: Tiling{0, 1}},
		{width: 7680, want: Tiling{3, 8}},
	}

	for _, tt := range tests {
		if got := TilingAndThreading(tt.width); got != tt.want {
			t.Errorf("TilingAndThreading(%d) = %+v, want %+v", tt.width, got, tt.want)
		}
	}
}

func TestMultipassSpeed(t *testing.T) {
	for _, h := range ladder.Heights {
		got := MultipassSpeed(h)
		if got.FirstPass != 4 {
			t.Errorf("MultipassSpeed(%d).FirstPass = %d, want 4", h, got.FirstPass)
		}
		want := 2
		if h <= 480 {
			want = 1
		}
		if got.SecondPass != want {
			t.Errorf("MultipassSpeed(%d).SecondPass = %d, want %d", h, got.SecondPass, want)
		}
	}
}

func TestFrameRateBucket(t *testing.T) {
	if got := FrameRateBucket(35); got != 24 {
		t.Errorf("FrameRateBucket(35) = %d, want 24", got)
	}
	if got := FrameRateBucket(50); got != 60 {
		t.Errorf("FrameRateBucket(50) = %d, want 60", got)
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name   string
		height int
		width  int
		fps    int
		want   Settings
	}{
		{
			name:   "1080p30",
			height: 1080, width: 1920, fps: 30,
			want: Settings{
				CRF:             31,
				Bitrate:         bitrate.Triple{Avg: 1800, Min: 900, Max: 2610},
				TileColumns:     2,
				Threads:         4,
				FirstPassSpeed:  4,
				SecondPassSpeed: 2,
				FrameRateBucket: 24,
			},
		},
		{
			name:   "1080p60",
			height: 1080, width: 1920, fps: 60,
			want: Settings{
				CRF:             31,
				Bitrate:         bitrate.Triple{Avg: 3000, Min: 1500, Max: 4350},
				TileColumns:     2,
				Threads:         4,
				FirstPassSpeed:  4,
				SecondPassSpeed: 2,
				FrameRateBucket: 60,
			},
		},
		{
			name:   "vertical 480x854 keys height and width independently",
			height: 854, width: 480, fps: 30,
			want: Settings{
				CRF:             32,
				Bitrate:         bitrate.Triple{Avg: 1024, Min: 512, Max: 1485},
				TileColumns:     0,
				Threads:         1,
				FirstPassSpeed:  4,
				SecondPassSpeed: 2,
				FrameRateBucket: 24,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.height, tt.width, tt.fps); got != tt.want {
				t.Errorf("Derive() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
