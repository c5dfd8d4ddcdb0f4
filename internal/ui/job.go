package ui

import (
	"fmt"
	"strconv"
	"strings"

	"webmc/internal/model"
)

// formatScale renders a scale request the way parseScale reads it back.
func formatScale(s model.ScaleOptions) string {
	switch {
	case !s.Enabled:
		return "off"
	case s.Height > 0:
		return "h" + strconv.Itoa(s.Height)
	case s.Width > 0:
		return "w" + strconv.Itoa(s.Width)
	}
	return "off"
}

// parseScale reads "off", "h720", "720p" or "w1280".
func parseScale(in string) (model.ScaleOptions, error) {
	s := strings.ToLower(strings.TrimSpace(in))
	switch s {
	case "", "off", "none", "source":
		return model.ScaleOptions{}, nil
	}

	var (
		digits string
		height bool
	)
	switch {
	case strings.HasPrefix(s, "h"):
		digits, height = s[1:], true
	case strings.HasSuffix(s, "p"):
		digits, height = strings.TrimSuffix(s, "p"), true
	case strings.HasPrefix(s, "w"):
		digits = s[1:]
	default:
		return model.ScaleOptions{}, fmt.Errorf("%w: scale %q: use off, h<px>, <px>p or w<px>", model.ErrInvalidArgument, in)
	}

	n, err := strconv.Atoi(strings.TrimPrefix(digits, "="))
	if err != nil || n <= 0 {
		return model.ScaleOptions{}, fmt.Errorf("%w: scale %q: size must be a positive integer", model.ErrInvalidArgument, in)
	}
	if height {
		return model.ScaleOptions{Enabled: true, Height: n}, nil
	}
	return model.ScaleOptions{Enabled: true, Width: n}, nil
}

func statusLabel(j model.Job) string {
	if j.Editing {
		return "editing"
	}
	switch j.Status {
	case model.StatusProcessing:
		return fmt.Sprintf("pass %d/2", j.CurrentPass)
	case model.StatusComplete:
		return "done"
	}
	return string(j.Status)
}
