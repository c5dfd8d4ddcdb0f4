// Package ladder holds the standard VOD resolution ladders and snaps
// arbitrary dimensions onto them.
package ladder

// Heights are the standard frame heights, ascending.
var Heights = []int{240, 360, 480, 720, 1080, 1440, 2160}

// Widths are the standard frame widths, ascending.
var Widths = []int{320, 640, 1280, 1920, 2560, 3840}

// Nearest returns the rung closest to value. Ties go to the rung seen first,
// so with an ascending ladder the lower neighbour wins. Values outside the
// ladder clamp to its extremes. An empty ladder yields 0.
func Nearest(value int, rungs []int) int {
	if len(rungs) == 0 {
		return 0
	}
	best := rungs[0]
	for _, r := range rungs[1:] {
		if abs(r-value) < abs(best-value) {
			best = r
		}
	}
	return best
}

// Height snaps a frame height onto Heights.
func Height(h int) int {
	return Nearest(h, Heights)
}

// Width snaps a frame width onto Widths.
func Width(w int) int {
	return Nearest(w, Widths)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
