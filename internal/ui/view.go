package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"webmc/internal/model"
	"webmc/internal/util/format"
)

const keyHelp = "↑/↓ select • e scale • x remove • K/J move • +/- parallel • r retry • q quit"

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewJobs())
	if m.editID != "" {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString("\n")
		if m.flashErr {
			b.WriteString(m.styles.Error.Render(m.flash))
		} else {
			b.WriteString(m.styles.Faint.Render(m.flash))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewHeader() string {
	done := 0
	for _, j := range m.jobs {
		if j.Terminal() {
			done++
		}
	}
	title := m.styles.Title.Render("webmc · VP9/Opus WebM compressor")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • processing %d/%d", done, len(m.jobs), m.active, m.limit))
	help := m.styles.Faint.Render(keyHelp)
	return title + "\n" + sub + "\n" + help
}

func (m Model) viewJobs() string {
	if len(m.jobs) == 0 {
		return m.styles.Faint.Render("  queue is empty") + "\n"
	}
	var b strings.Builder
	for i, j := range m.jobs {
		b.WriteString(m.viewJob(j, i == m.selected))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(j model.Job, selected bool) string {
	cursor := "  "
	name := m.styles.JobTitle.Render(truncate(baseName(j.SourcePath), 48))
	if selected {
		cursor = m.styles.Prompt.Render("▸ ")
		name = m.styles.Selected.Render(truncate(baseName(j.SourcePath), 48))
	}

	statusStyle := m.styles.Faint
	switch {
	case j.Editing:
		statusStyle = m.styles.Warning
	case j.Status == model.StatusProcessing && j.CurrentPass == 1:
		statusStyle = m.styles.PassFirst
	case j.Status == model.StatusProcessing:
		statusStyle = m.styles.PassSecond
	case j.Status == model.StatusComplete:
		statusStyle = m.styles.Success
	case j.Status == model.StatusError:
		statusStyle = m.styles.Error
	}
	line1 := fmt.Sprintf("%s%s  %s  %s", cursor, name, statusStyle.Render(statusLabel(j)), m.styles.Faint.Render("scale "+formatScale(j.Scale)))

	var line2 string
	switch j.Status {
	case model.StatusProcessing:
		if j.CurrentPass < 2 {
			line2 = m.styles.Spinner.Render(m.spinner.View()) + " " + m.styles.Faint.Render("analysing (first pass)")
			if j.ElapsedMs > 0 {
				line2 += m.styles.Faint.Render(" • " + format.Duration(j.ElapsedMs))
			}
			break
		}
		line2 = fmt.Sprintf("%s %6.2f%%", m.bar.ViewAs(j.Percent/100.0), j.Percent)
		if j.RemainingMs > 0 {
			line2 += m.styles.JobInfo.Render(" • ETA " + format.Duration(j.RemainingMs))
		}
	case model.StatusComplete:
		line2 = m.styles.Success.Render("✓ " + j.OutputPath)
		if d := j.FinishedAt.Sub(j.StartedAt).Milliseconds(); d > 0 {
			line2 += m.styles.Faint.Render(" • " + format.Duration(d))
		}
	case model.StatusError:
		msg := "failed"
		if j.Err != nil {
			msg = firstLine(j.Err.Error())
		}
		line2 = m.styles.Error.Render("✗ " + truncate(msg, m.lineWidth()))
	default:
		line2 = m.styles.Faint.Render("→ " + truncate(j.OutputPath, m.lineWidth()))
	}
	return m.styles.Box.Render(line1 + "\n  " + line2)
}

func (m Model) lineWidth() int {
	if m.width > 8 {
		return m.width - 8
	}
	return 72
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
