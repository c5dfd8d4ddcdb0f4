package ui

import (
	"context"
	"errors"
	"fmt"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"webmc/internal/model"
)

// ErrAborted is returned by Run when the user quits while jobs are still
// processing.
var ErrAborted = errors.New("aborted with jobs still processing")

// Queue is the part of the scheduler the view drives.
type Queue interface {
	Snapshot() []model.Job
	Changed() <-chan struct{}
	ActiveCount() int
	Parallelism() int
	SetParallelism(n int)
	SetEditing(id string, editing bool) error
	UpdateScale(id string, scale model.ScaleOptions) error
	Remove(id string) error
	Move(id string, delta int) error
	Requeue(id string) error
}

// Options tunes the view.
type Options struct {
	// ExitWhenDone quits once every job has finished.
	ExitWhenDone bool
}

type Model struct {
	ctx  context.Context
	q    Queue
	opts Options

	jobs     []model.Job
	selected int
	limit    int
	active   int

	// editID is the job whose scale is being edited in input.
	editID string
	input  textinput.Model

	confirmQuit bool
	aborted     bool
	flash       string
	flashErr    bool

	width   int
	styles  Styles
	spinner spinner.Model
	bar     bubblesprogress.Model
}

func NewModel(ctx context.Context, q Queue, opts Options) Model {
	sty := defaultStyles()
	sp := spinner.New()
	sp.Style = sty.Spinner

	in := textinput.New()
	in.Prompt = "scale> "
	in.PromptStyle = sty.Prompt
	in.Placeholder = "off | h720 | 720p | w1280"
	in.CharLimit = 16

	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(30),
	)

	m := Model{
		ctx:     ctx,
		q:       q,
		opts:    opts,
		styles:  sty,
		spinner: sp,
		input:   in,
		bar:     bar,
	}
	m.refresh()
	return m
}

// Aborted reports whether the user quit while jobs were processing.
func (m Model) Aborted() bool { return m.aborted }

func (m Model) Init() tea.Cmd {
	// The first changedMsg covers a queue that finished before the view started.
	return tea.Batch(m.spinner.Tick, func() tea.Msg { return changedMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editID != "" {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case changedMsg:
		// Take the next channel before reading state so no change is missed.
		ch := m.q.Changed()
		m.refresh()
		if m.done() {
			return m, tea.Quit
		}
		return m, m.waitChanged(ch)

	case stoppedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmQuit {
		switch msg.String() {
		case "y", "Y", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		default:
			m.confirmQuit = false
			m.setFlash("", false)
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.aborted = m.q.ActiveCount() > 0
		return m, tea.Quit
	case "q", "esc":
		if m.q.ActiveCount() > 0 {
			m.confirmQuit = true
			m.setFlash("jobs are still processing; quit and cancel them? (y/n)", true)
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.jobs)-1 {
			m.selected++
		}

	case "K", "shift+up":
		m.move(-1)
	case "J", "shift+down":
		m.move(1)

	case "+", "=":
		m.q.SetParallelism(m.q.Parallelism() + 1)
		m.refresh()
		m.setFlash(fmt.Sprintf("parallel jobs: %d", m.limit), false)
	case "-", "_":
		m.q.SetParallelism(m.q.Parallelism() - 1)
		m.refresh()
		m.setFlash(fmt.Sprintf("parallel jobs: %d", m.limit), false)

	case "e":
		return m.beginEdit()
	case "x", "delete":
		if j, ok := m.current(); ok {
			m.apply(m.q.Remove(j.ID), "removed "+baseName(j.SourcePath))
		}
	case "r":
		if j, ok := m.current(); ok {
			m.apply(m.q.Requeue(j.ID), "requeued "+baseName(j.SourcePath))
		}
	}
	return m, nil
}

func (m Model) beginEdit() (tea.Model, tea.Cmd) {
	j, ok := m.current()
	if !ok {
		return m, nil
	}
	if err := m.q.SetEditing(j.ID, true); err != nil {
		m.setFlash(err.Error(), true)
		return m, nil
	}
	m.editID = j.ID
	m.input.SetValue(formatScale(j.Scale))
	m.input.CursorEnd()
	m.setFlash("enter to apply, esc to cancel", false)
	m.refresh()
	return m, m.input.Focus()
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		scale, err := parseScale(m.input.Value())
		if err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		if err := m.q.UpdateScale(m.editID, scale); err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.endEdit()
		m.setFlash("scale set to "+formatScale(scale), false)
		return m, nil
	case "esc", "ctrl+c":
		m.endEdit()
		m.setFlash("", false)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endEdit() {
	if err := m.q.SetEditing(m.editID, false); err != nil {
		m.setFlash(err.Error(), true)
	}
	m.editID = ""
	m.input.Blur()
	m.input.Reset()
	m.refresh()
}

func (m *Model) move(delta int) {
	j, ok := m.current()
	if !ok {
		return
	}
	if err := m.q.Move(j.ID, delta); err != nil {
		m.setFlash(err.Error(), true)
		return
	}
	m.refresh()
	for i := range m.jobs {
		if m.jobs[i].ID == j.ID {
			m.selected = i
		}
	}
}

func (m *Model) apply(err error, ok string) {
	if err != nil {
		m.setFlash(err.Error(), true)
		return
	}
	m.setFlash(ok, false)
	m.refresh()
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash, m.flashErr = text, isErr
}

func (m *Model) refresh() {
	m.jobs = m.q.Snapshot()
	m.limit = m.q.Parallelism()
	m.active = m.q.ActiveCount()
	if m.selected >= len(m.jobs) {
		m.selected = len(m.jobs) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) current() (model.Job, bool) {
	if m.selected < 0 || m.selected >= len(m.jobs) {
		return model.Job{}, false
	}
	return m.jobs[m.selected], true
}

// done reports whether the view should close on its own.
func (m Model) done() bool {
	if !m.opts.ExitWhenDone || m.editID != "" || len(m.jobs) == 0 {
		return false
	}
	for _, j := range m.jobs {
		if !j.Terminal() {
			return false
		}
	}
	return true
}

func (m Model) waitChanged(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return stoppedMsg{}
		case <-ch:
			return changedMsg{}
		}
	}
}
