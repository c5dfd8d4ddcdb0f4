// Package probe reads the dimensions, frame rate and duration of a media file
// through ffprobe.
package probe

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"webmc/internal/model"
	"webmc/internal/util"
)

var (
	frameRate     = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)(?:/([0-9]+))?$`)
	unsignedInt   = regexp.MustCompile(`^\d+$`)
	seconds       = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

// Prober runs ffprobe against source files.
type Prober struct {
	path   string
	runner util.CmdRunner
	stat   func(string) (os.FileInfo, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithRunner overrides the subprocess runner.
func WithRunner(r util.CmdRunner) Option { return func(p *Prober) { p.runner = r } }

// WithStat overrides the file stat used for existence and size.
func WithStat(fn func(string) (os.FileInfo, error)) Option {
	return func(p *Prober) { p.stat = fn }
}

// New returns a Prober for the ffprobe binary at path.
func New(path string, opts ...Option) *Prober {
	p := &Prober{path: path, runner: util.NewDefaultRunner(), stat: os.Stat}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Args returns the ffprobe arguments used for file.
func Args(file string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	}
}

// Probe returns the metadata of file. Every failure wraps model.ErrProbeFailed.
func (p *Prober) Probe(ctx context.Context, file string) (model.Metadata, error) {
	fi, err := p.stat(file)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: %v", model.ErrProbeFailed, err)
	}
	if fi.IsDir() {
		return model.Metadata{}, fmt.Errorf("%w: %s is a directory", model.ErrProbeFailed, file)
	}

	res, err := p.runner.Run(ctx, util.CmdSpec{
		Path:          p.path,
		Args:          Args(file),
		CaptureStdout: true,
	})
	if err != nil {
		if msg := strings.TrimSpace(string(res.Stderr)); msg != "" {
			return model.Metadata{}, fmt.Errorf("%w: ffprobe exit %d: %s", model.ErrProbeFailed, res.Code, model.StderrTail(msg))
		}
		return model.Metadata{}, fmt.Errorf("%w: %v", model.ErrProbeFailed, err)
	}

	md, err := Parse(string(res.Stdout))
	if err != nil {
		return model.Metadata{}, err
	}
	md.Size = fi.Size()
	return md, nil
}

// Parse decodes ffprobe's value-only output: width, height, frame rate and
// duration in seconds, separated by whitespace. The frame rate is a rational
// "num/den" rounded to whole frames, so "30000/1001" reads as 30.
func Parse(out string) (model.Metadata, error) {
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return model.Metadata{}, fmt.Errorf("%w: expected 4 values from ffprobe, got %d: %q", model.ErrProbeFailed, len(fields), strings.TrimSpace(out))
	}
	wStr, hStr, fpsRaw, durStr := fields[0], fields[1], fields[2], fields[3]

	if !unsignedInt.MatchString(wStr) {
		return model.Metadata{}, fmt.Errorf("%w: invalid width %q", model.ErrProbeFailed, wStr)
	}
	if !unsignedInt.MatchString(hStr) {
		return model.Metadata{}, fmt.Errorf("%w: invalid height %q", model.ErrProbeFailed, hStr)
	}
	fps, err := parseRate(fpsRaw)
	if err != nil {
		return model.Metadata{}, err
	}
	if !seconds.MatchString(durStr) {
		return model.Metadata{}, fmt.Errorf("%w: invalid duration %q", model.ErrProbeFailed, durStr)
	}

	w, err := strconv.Atoi(wStr)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: width: %v", model.ErrProbeFailed, err)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: height: %v", model.ErrProbeFailed, err)
	}
	sec, err := strconv.ParseFloat(durStr, 64)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%w: duration: %v", model.ErrProbeFailed, err)
	}

	return model.Metadata{
		Width:      w,
		Height:     h,
		FPS:        fps,
		DurationMs: int64(math.Floor(sec * 1000)),
	}, nil
}

// parseRate rounds an r_frame_rate value. A missing or zero denominator
// counts as 1.
func parseRate(raw string) (int, error) {
	m := frameRate.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: invalid frame rate %q", model.ErrProbeFailed, raw)
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: frame rate: %v", model.ErrProbeFailed, err)
	}
	den := 1.0
	if m[2] != "" {
		d, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: frame rate: %v", model.ErrProbeFailed, err)
		}
		if d != 0 {
			den = d
		}
	}
	return int(math.Round(num / den)), nil
}
