package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ripple/recording"
	"ripple/sound"
	"ripple/timeline"
	"ripple/widgets"
)

// editorLaneTop is the screen row of the thumb lane
const editorLaneTop = 3

const hitTolerance = 1.0

func (m Model) laneWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	return max(w-widgets.LaneLabelWidth-1, 10)
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.editor
	sel, hasSel := ed.Selected()

	switch {
	case matches(msg, keys.Quit, keys.Back):
		m.leaveEditor()
		return m, nil
	case matches(msg, keys.Play):
		m.fail(m.ctrl.TogglePlayback(ed.Recording()))
	case matches(msg, keys.Prev):
		ed.SelectNext(-1)
	case matches(msg, keys.Next):
		ed.SelectNext(1)
	case matches(msg, keys.NudgeLeft) && hasSel:
		ed.Nudge(sel.ID, -0.1)
	case matches(msg, keys.NudgeRight) && hasSel:
		ed.Nudge(sel.ID, 0.1)
	case matches(msg, keys.NudgeLeftBig) && hasSel:
		ed.Nudge(sel.ID, -1)
	case matches(msg, keys.NudgeRightBig) && hasSel:
		ed.Nudge(sel.ID, 1)
	case matches(msg, keys.Delete):
		ed.DeleteSelected()
	case matches(msg, keys.Rename):
		m.openSaveEdit()
	case matches(msg, keys.Save):
		if err := m.saveEditor(ed.Recording().Name); err != nil {
			m.openSaveEdit()
		}
	}
	m.follow()
	return m, nil
}

// leaveEditor stops playback and drops the edit session
func (m *Model) leaveEditor() {
	if m.ctrl.Playback.Playing(m.editor.Recording().ID) {
		m.fail(m.ctrl.Playback.Stop())
	}
	m.editor = nil
	m.dragging = ""
	m.screen = screenRecordings
}

// saveEditor writes the edited recording back under name
func (m *Model) saveEditor(name string) error {
	rec, err := m.editor.Result(name)
	if err != nil {
		return err
	}
	saved, err := m.lib.Update(rec)
	if err != nil {
		return err
	}
	m.editor = newEditorFrom(m.editor, saved)
	return nil
}

// newEditorFrom reopens a saved recording keeping the selection
func newEditorFrom(old *timeline.Editor, rec recording.Recording) *timeline.Editor {
	ed := timeline.NewEditor(rec, old.Scale())
	if sel, ok := old.Selected(); ok {
		ed.Select(sel.ID)
	}
	return ed
}

// follow scrolls so the selected event stays visible
func (m *Model) follow() {
	sel, ok := m.editor.Selected()
	if !ok {
		return
	}
	x := int(math.Round(m.editor.Scale().TimeToX(sel.Time)))
	w := m.laneWidth()
	switch {
	case x < m.scroll:
		m.scroll = x
	case x >= m.scroll+w:
		m.scroll = x - w + 1
	}
}

func (m *Model) editorMouse(msg tea.MouseMsg) {
	ed := m.editor
	x := float64(msg.X - widgets.LaneLabelWidth + m.scroll)
	lane := msg.Y - editorLaneTop

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || lane < 0 || lane >= len(recording.Fingers) {
			return
		}
		id, ok := ed.Hit(recording.Fingers[lane], x, hitTolerance)
		if !ok {
			ed.ClearSelection()
			return
		}
		if cur, has := ed.Selected(); !has || cur.ID != id {
			ed.Select(id)
		}
		m.dragging = id
	case tea.MouseActionMotion:
		if m.dragging != "" {
			ed.Drag(m.dragging, x)
		}
	case tea.MouseActionRelease:
		m.dragging = ""
	}
}

func (m Model) viewEditor() string {
	ed := m.editor
	rec := ed.Recording()
	w := m.laneWidth()

	title := fmt.Sprintf("editing %q  %.1fs", rec.Name, ed.Duration())
	if ed.Dirty() {
		title += " *"
	}

	playhead := -1
	if status := m.ctrl.Playback.Status(); m.ctrl.Playback.Playing(rec.ID) {
		playhead = int(math.Round(ed.Scale().TimeToX(status.Elapsed))) - m.scroll
	}

	var grid []float64
	for _, g := range ed.GridLines() {
		grid = append(grid, g-float64(m.scroll))
	}

	lines := []string{m.header(title), "", m.ruler(w)}
	for _, f := range recording.Fingers {
		var visible []timeline.Placement
		for _, p := range ed.Lane(f) {
			p.X -= float64(m.scroll)
			if p.X >= -0.5 {
				visible = append(visible, p)
			}
		}
		lines = append(lines, widgets.RenderLane(m.th, f, visible, grid, w, playhead))
	}

	lines = append(lines, "")
	if sel, ok := ed.Selected(); ok {
		var sounds []string
		for _, f := range sel.Fingers {
			sounds = append(sounds, fmt.Sprintf("%s=%s", f, sound.Parse(sel.Sound(f)).Label()))
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(m.th.Cursor()).Render(
			fmt.Sprintf("event %d/%d at %.2fs  %s", ed.SelectedIndex()+1, len(rec.Events), sel.Time, strings.Join(sounds, " "))))
	} else {
		lines = append(lines, m.dim(fmt.Sprintf("%d events, nothing selected (click or ←/→)", len(rec.Events))))
	}

	lines = append(lines, "", m.dim(helpLine(
		keys.Prev, keys.Next, keys.NudgeLeft, keys.NudgeRight, keys.NudgeLeftBig, keys.NudgeRightBig,
		keys.Delete, keys.Play, keys.Rename, keys.Save, keys.Back,
	)))
	return joinLines(lines...)
}

// ruler labels every whole second above the lanes
func (m Model) ruler(width int) string {
	cells := []rune(strings.Repeat(" ", width))
	scale := m.editor.Scale()
	for s := 0; ; s++ {
		x := int(math.Round(scale.TimeToX(float64(s)))) - m.scroll
		if x >= width {
			break
		}
		if x < 0 {
			continue
		}
		for i, r := range fmt.Sprintf("%ds", s) {
			if x+i < width {
				cells[x+i] = r
			}
		}
	}
	return strings.Repeat(" ", widgets.LaneLabelWidth) + m.dim(string(cells))
}
