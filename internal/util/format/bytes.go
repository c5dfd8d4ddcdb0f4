package format

import humanize "github.com/dustin/go-humanize"

// HumanizeBytes converts a byte count into a human-readable IEC string (e.g., "1.5 MiB").
func HumanizeBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}
