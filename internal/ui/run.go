package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the queue until every job is done (with ExitWhenDone) or the
// user quits. It returns ErrAborted when the user quit while jobs were still
// processing; cancelling them is left to the caller.
func Run(ctx context.Context, q Queue, opts Options) error {
	m := NewModel(ctx, q, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if fm, ok := final.(Model); ok && fm.Aborted() {
		return ErrAborted
	}
	return nil
}
