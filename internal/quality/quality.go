// Package quality derives VP9 encoder settings from output dimensions and
// source frame rate. Every lookup snaps to the standard ladder first and then
// reads a fixed table; nothing is interpolated.
package quality

import (
	"webmc/internal/ladder"
	"webmc/internal/util/bitrate"
)

// GOP is the keyframe interval used for every encode.
const GOP = 240

var crfByHeight = map[int]int{
	240:  37,
	360:  36,
	480:  33,
	720:  32,
	1080: 31,
	1440: 24,
	2160: 15,
}

// Tiling is the tile-columns/threads pair for a width.
type Tiling struct {
	TileColumns int
	Threads     int
}

var tilingByWidth = map[int]Tiling{
	320:  {TileColumns: 0, Threads: 1},
	640:  {TileColumns: 1, Threads: 2},
	1280: {TileColumns: 2, Threads: 4},
	1920: {TileColumns: 2, Threads: 4},
	2560: {TileColumns: 3, Threads: 8},
	3840: {TileColumns: 3, Threads: 8},
}

// Speed is the -speed value for each of the two passes.
type Speed struct {
	FirstPass  int
	SecondPass int
}

var speedByHeight = map[int]Speed{
	240:  {FirstPass: 4, SecondPass: 1},
	360:  {FirstPass: 4, SecondPass: 1},
	480:  {FirstPass: 4, SecondPass: 1},
	720:  {FirstPass: 4, SecondPass: 2},
	1080: {FirstPass: 4, SecondPass: 2},
	1440: {FirstPass: 4, SecondPass: 2},
	2160: {FirstPass: 4, SecondPass: 2},
}

// FrameRateBucket returns 24 for fps <= 35 and 60 otherwise.
func FrameRateBucket(fps int) int {
	return bitrate.Bucket(fps)
}

// CRF returns the constant rate factor for the nearest standard height.
func CRF(height int) int {
	return crfByHeight[ladder.Height(height)]
}

// TilingAndThreading returns tile columns and threads for the nearest standard width.
func TilingAndThreading(width int) Tiling {
	return tilingByWidth[ladder.Width(width)]
}

// MultipassSpeed returns the per-pass speed for the nearest standard height.
func MultipassSpeed(height int) Speed {
	return speedByHeight[ladder.Height(height)]
}

// Settings is the full set of derived encoder parameters for one job.
// Values are computed once and replaced, never edited.
type Settings struct {
	CRF             int
	Bitrate         bitrate.Triple
	TileColumns     int
	Threads         int
	FirstPassSpeed  int
	SecondPassSpeed int
	FrameRateBucket int
}

// Derive computes Settings for the effective output dimensions and the
// source frame rate.
func Derive(height, width, fps int) Settings {
	bucket := FrameRateBucket(fps)
	tiling := TilingAndThreading(width)
	speed := MultipassSpeed(height)
	return Settings{
		CRF:             CRF(height),
		Bitrate:         bitrate.ForHeight(height, bucket),
		TileColumns:     tiling.TileColumns,
		Threads:         tiling.Threads,
		FirstPassSpeed:  speed.FirstPass,
		SecondPassSpeed: speed.SecondPass,
		FrameRateBucket: bucket,
	}
}
