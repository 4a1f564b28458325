package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ripple/playback"
	"ripple/timeline"
	"ripple/widgets"
)

func (m Model) updateRecordings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recs := m.lib.List()
	switch {
	case matches(msg, keys.Quit):
		return m.quit()
	case matches(msg, keys.Back):
		m.screen = screenPlay
	case matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case matches(msg, keys.Down):
		if m.cursor < len(recs)-1 {
			m.cursor++
		}
	case matches(msg, keys.Play):
		if m.cursor < len(recs) {
			m.fail(m.ctrl.TogglePlayback(recs[m.cursor]))
		}
	case matches(msg, keys.Edit):
		if m.cursor < len(recs) {
			m.fail(m.ctrl.Playback.Stop())
			m.editor = timeline.NewEditor(recs[m.cursor], m.scale)
			m.scroll = 0
			m.dragging = ""
			m.screen = screenEditor
		}
	case matches(msg, keys.Delete):
		if m.cursor < len(recs) {
			id := recs[m.cursor].ID
			if m.ctrl.Playback.Playing(id) {
				m.fail(m.ctrl.Playback.Stop())
			}
			m.fail(m.lib.Delete(id))
			if m.cursor >= len(recs)-1 && m.cursor > 0 {
				m.cursor--
			}
		}
	}
	return m, nil
}

func (m Model) viewRecordings() string {
	recs := m.lib.List()
	status := m.ctrl.Playback.Status()

	lines := []string{m.header("recordings"), ""}
	if len(recs) == 0 {
		lines = append(lines, m.dim("No recordings yet. Press r on the play screen to record."))
	}

	cur := lipgloss.NewStyle().Foreground(m.th.Cursor()).Bold(true)
	for i, rec := range recs {
		mark := " "
		if status.State == playback.Playing && status.RecordingID == rec.ID {
			mark = string(m.th.Symbols.Play)
		}
		line := fmt.Sprintf("%s %-24s %6.1fs  %3d events  %s", mark, rec.Name, rec.Duration, len(rec.Events), rec.PresetOrDefault())
		if i == m.cursor {
			line = cur.Render(line)
		}
		lines = append(lines, line)
		if mark != " " {
			lines = append(lines, "  "+widgets.RenderProgress(m.th, status.Progress(), 40)+
				m.dim(fmt.Sprintf(" %.1f/%.1fs", status.Elapsed, status.Duration)))
		}
	}

	lines = append(lines, "", m.dim(helpLine(keys.Up, keys.Down, keys.Play, keys.Edit, keys.Delete, keys.Back, keys.Quit)))
	return joinLines(lines...)
}
