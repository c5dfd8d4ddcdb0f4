// Package bitrate holds the VP9 VOD target bitrate table.
package bitrate

import "webmc/internal/ladder"

// Frame-rate buckets used as the second table key.
const (
	FPS24 = 24
	FPS60 = 60
)

// Triple is a target/min/max bitrate in kbps.
type Triple struct {
	Avg int
	Min int
	Max int
}

type key struct {
	height int
	fps    int
}

// vod is the published VP9 VOD table. Min/max are roughly 50%/145% of the
// target but the published numbers are kept verbatim. 240p/360p/480p only
// publish a 24fps row; the 60fps bucket reuses it.
var vod = map[key]Triple{
	{240, FPS24}:  {Avg: 150, Min: 75, Max: 218},
	{240, FPS60}:  {Avg: 150, Min: 75, Max: 218},
	{360, FPS24}:  {Avg: 276, Min: 138, Max: 400},
	{360, FPS60}:  {Avg: 276, Min: 138, Max: 400},
	{480, FPS24}:  {Avg: 750, Min: 375, Max: 1088},
	{480, FPS60}:  {Avg: 750, Min: 375, Max: 1088},
	{720, FPS24}:  {Avg: 1024, Min: 512, Max: 1485},
	{720, FPS60}:  {Avg: 1800, Min: 900, Max: 2610},
	{1080, FPS24}: {Avg: 1800, Min: 900, Max: 2610},
	{1080, FPS60}: {Avg: 3000, Min: 1500, Max: 4350},
	{1440, FPS24}: {Avg: 6000, Min: 3000, Max: 8700},
	{1440, FPS60}: {Avg: 9000, Min: 4500, Max: 13050},
	{2160, FPS24}: {Avg: 12000, Min: 6000, Max: 17400},
	{2160, FPS60}: {Avg: 18000, Min: 9000, Max: 26100},
}

// Bucket maps a frame rate onto FPS24 (<= 35) or FPS60.
func Bucket(fps int) int {
	if fps <= 35 {
		return FPS24
	}
	return FPS60
}

// ForHeight looks up the triple for the nearest standard height and the
// given frame-rate bucket. Any bucket other than FPS60 is treated as FPS24.
func ForHeight(height, bucket int) Triple {
	if bucket != FPS60 {
		bucket = FPS24
	}
	return vod[key{ladder.Height(height), bucket}]
}
