package model

import "time"

// Status is the base state of a compression job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Dimensions is a frame size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// ScaleOptions controls optional output scaling. When Enabled, exactly one of
// Width or Height must be non-zero; the other is derived from the source
// aspect ratio.
type ScaleOptions struct {
	Enabled bool
	Width   int
	Height  int
}

// Validate reports ErrInvalidArgument when an enabled scale request names
// neither or both target dimensions.
func (s ScaleOptions) Validate() error {
	if !s.Enabled {
		return nil
	}
	hasW, hasH := s.Width > 0, s.Height > 0
	switch {
	case !hasW && !hasH:
		return invalid("scale needs a target width or height")
	case hasW && hasH:
		return invalid("scale takes a target width or height, not both")
	}
	return nil
}

// Metadata is what the probe reports about a source file.
type Metadata struct {
	Width      int
	Height     int
	FPS        int
	DurationMs int64
	Size       int64
}

// ExtraArgs are caller-supplied encoder arguments injected after the core
// parameter block. Both applies to both passes.
type ExtraArgs struct {
	Both   []string
	First  []string
	Second []string
}

// Job is one file moving through the compression queue. The scheduler owns
// every Job; drivers only ever see copies.
type Job struct {
	ID         string
	SourcePath string
	OutputPath string
	Scale      ScaleOptions
	Extra      ExtraArgs

	Status      Status
	Editing     bool
	CurrentPass int // 1 or 2 while processing, 0 otherwise

	Percent     float64
	ElapsedMs   int64
	RemainingMs int64
	FirstPassMs int64
	QueuedAt    time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

// Terminal reports whether the job has finished, successfully or not.
func (j Job) Terminal() bool {
	return j.Status == StatusComplete || j.Status == StatusError
}

// Eligible reports whether the job may be admitted for processing.
func (j Job) Eligible() bool {
	return j.Status == StatusQueued && !j.Editing
}
