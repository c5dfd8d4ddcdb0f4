package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks bad caller input, such as a malformed scale request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrProbeFailed marks a source that could not be read as media.
	ErrProbeFailed = errors.New("probe failed")
	// ErrSpawnFailed marks an encoder binary that could not be started.
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrEncodeFailed marks a non-zero encoder exit.
	ErrEncodeFailed = errors.New("encode failed")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// stderrTailBytes caps how much encoder stderr ends up in an error message.
const stderrTailBytes = 2048

// EncodeError is returned when an encoder pass exits non-zero.
type EncodeError struct {
	Pass   int
	Code   int
	Stderr string
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg pass %d failed with exit code %d", e.Pass, e.Code)
	if tail := StderrTail(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return ErrEncodeFailed }

// StderrTail trims s and keeps at most the last 2 KiB.
func StderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTailBytes {
		return s
	}
	return "…" + s[len(s)-stderrTailBytes:]
}
