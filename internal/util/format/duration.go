package format

import (
	"strconv"
	"strings"
)

// Duration renders milliseconds as "1h 2m 3.5s". Minutes appear once there is
// at least a minute or an hour; seconds always appear, with one decimal
// unless they are whole.
func Duration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	rem := ms % 60_000

	parts := make([]string, 0, 3)
	if h > 0 {
		parts = append(parts, strconv.FormatInt(h, 10)+"h")
	}
	if m > 0 || h > 0 {
		parts = append(parts, strconv.FormatInt(m, 10)+"m")
	}
	if ms%1000 == 0 {
		parts = append(parts, strconv.FormatInt(rem/1000, 10)+"s")
	} else {
		parts = append(parts, strconv.FormatFloat(float64(rem)/1000, 'f', 1, 64)+"s")
	}
	return strings.Join(parts, " ")
}
