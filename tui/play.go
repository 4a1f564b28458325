package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ripple/recording"
	"ripple/session"
	"ripple/widgets"
)

const thresholdStep = 0.05

func (m Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ctrl.State
	switch {
	case matches(msg, keys.Quit):
		return m.quit()

	case matches(msg, keys.Reconnect):
		if m.client != nil {
			return m, nil
		}
		m.serverErr = "connecting..."
		return m, dial(m.ctx, m.url)

	case matches(msg, keys.Connect):
		m.fail(m.ctrl.Connect())
	case matches(msg, keys.Disconnect):
		m.fail(m.ctrl.Disconnect())
	case matches(msg, keys.Calibrate):
		m.fail(m.ctrl.Calibrate())

	case matches(msg, keys.NextPreset):
		m.fail(m.ctrl.SelectPreset(m.presetAfter(1)))
	case matches(msg, keys.PrevPreset):
		m.fail(m.ctrl.SelectPreset(m.presetAfter(-1)))

	case matches(msg, keys.ThresholdUp):
		m.ctrl.SetThreshold(st.Threshold + thresholdStep)
	case matches(msg, keys.ThresholdDown):
		m.ctrl.SetThreshold(st.Threshold - thresholdStep)

	case matches(msg, keys.Record):
		m.toggleRecording()

	case matches(msg, keys.Tutorial):
		m.fail(m.ctrl.StartTutorial(m.tutorialAfter(st.Tutorial.Current)))
	case matches(msg, keys.ExitTutorial):
		if st.Mode == session.ModeTutorial {
			m.fail(m.ctrl.ExitTutorial())
		}
	case matches(msg, keys.ResetTutorial):
		if st.Mode == session.ModeTutorial {
			m.fail(m.ctrl.ResetTutorial())
		}

	case matches(msg, keys.Audition):
		f := recording.Fingers[msg.String()[0]-'1']
		if m.client != nil {
			m.fail(m.ctrl.Audition(f))
		} else if m.output != nil {
			m.fail(m.output.Audition(st.Mapping()[f]))
		} else {
			m.fail(m.ctrl.Audition(f))
		}

	case matches(msg, keys.Picker):
		m.picker = newPicker(st.Presets[session.CustomPreset].Mapping, 0)
		m.screen = screenPicker

	case matches(msg, keys.Recordings):
		m.cursor = 0
		m.screen = screenRecordings
	}
	return m, nil
}

// toggleRecording records on the server when it is reachable and from the
// MIDI keyboard otherwise
func (m *Model) toggleRecording() {
	st := m.ctrl.State
	switch {
	case st.Recording:
		m.fail(m.ctrl.StopRecording())
	case m.capture.Running():
		rec := m.capture.End()
		m.ctrl.Stopwatch.Stop()
		accepted, err := recording.Accept(rec)
		if err != nil {
			m.notice = "Nothing was played, recording discarded"
			return
		}
		accepted.Preset = st.CurrentPreset
		m.openSaveNew(accepted)
	case m.client == nil && m.keyboard != nil:
		m.capture.Begin()
		m.ctrl.Stopwatch.Start()
	default:
		m.fail(m.ctrl.StartRecording())
	}
}

func (m Model) presetOrder() []string {
	order := slices.Clone(session.PresetOrder)
	var extra []string
	for name := range m.ctrl.State.Presets {
		if !slices.Contains(order, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

func (m Model) presetAfter(delta int) string {
	order := m.presetOrder()
	i := slices.Index(order, m.ctrl.State.CurrentPreset)
	n := len(order)
	return order[((i+delta)%n+n)%n]
}

func (m Model) tutorialAfter(current string) string {
	ids := make([]string, 0, len(m.ctrl.State.Tutorials))
	for id := range m.ctrl.State.Tutorials {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		la, lb := m.ctrl.State.Tutorials[a].Length, m.ctrl.State.Tutorials[b].Length
		if la != lb {
			return la - lb
		}
		return strings.Compare(a, b)
	})
	if len(ids) == 0 {
		return ""
	}
	i := slices.Index(ids, current)
	return ids[(i+1)%len(ids)]
}

func (m Model) viewPlay() string {
	st := m.ctrl.State
	on := lipgloss.NewStyle().Foreground(m.th.Accent())
	warn := lipgloss.NewStyle().Foreground(m.th.Warning())

	glove := warn.Render("○ glove offline")
	if st.Connected {
		glove = on.Render("● glove connected")
	}
	calibrated := m.dim("not calibrated")
	if st.Calibrated {
		calibrated = on.Render("calibrated")
	}
	status := fmt.Sprintf("%s  %s  threshold %.2f", glove, calibrated, st.Threshold)

	active := st.Active
	if m.client == nil && m.keyboard != nil {
		active = m.localActive
	}
	var next recording.Finger
	if st.Mode == session.ModeTutorial {
		next = st.Tutorial.NextFinger
	}
	hand := widgets.RenderHand(m.th, active, st.Mapping(), next)

	var presets []string
	for _, name := range m.presetOrder() {
		label := st.Presets[name].Name
		if label == "" {
			label = name
		}
		if name == st.CurrentPreset {
			presets = append(presets, lipgloss.NewStyle().Foreground(m.th.Cursor()).Bold(true).Render("["+label+"]"))
		} else {
			presets = append(presets, m.dim(" "+label+" "))
		}
	}

	lines := []string{
		m.header("play"),
		"",
		status,
		"",
		hand,
		"",
		strings.Join(presets, " "),
		"",
	}

	if st.Mode == session.ModeTutorial {
		t := st.Tutorial
		line := fmt.Sprintf("Tutorial: %s  %d/%d", t.Name, t.Step, t.Total)
		if t.Completed {
			line += on.Render("  complete!")
		} else if t.NextFinger != "" {
			line += "  next: " + on.Render(string(t.NextFinger))
		}
		lines = append(lines, line, widgets.RenderProgress(m.th, float64(t.Step)/float64(max(t.Total, 1)), 30), "")
	}

	if st.Recording || m.capture.Running() {
		rec := lipgloss.NewStyle().Foreground(m.th.Warning()).Bold(true)
		lines = append(lines, rec.Render(fmt.Sprintf("%c REC %.1fs", m.th.Symbols.Record, m.ctrl.Stopwatch.Elapsed())), "")
	}
	if m.serverErr != "" {
		lines = append(lines, warn.Render(m.serverErr))
	}
	if st.LastError != "" {
		lines = append(lines, warn.Render("server: "+st.LastError))
	}

	lines = append(lines, m.dim(helpLine(
		keys.Connect, keys.Calibrate, keys.Record, keys.NextPreset, keys.Audition,
		keys.Picker, keys.Recordings, keys.Help, keys.Quit,
	)))
	return joinLines(lines...)
}
