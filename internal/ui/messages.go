package ui

// changedMsg is sent whenever the queue reports a state change.
type changedMsg struct{}

// stoppedMsg is sent when the run context ends.
type stoppedMsg struct{}
