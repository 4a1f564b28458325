package tui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ripple/protocol"
	"ripple/recording"
	"ripple/session"
	"ripple/sound"
	"ripple/widgets"
)

// picker edits one finger of the custom preset: kind tab, then base,
// then octave and inversion where the kind has them
type picker struct {
	finger    int
	kind      int
	choice    int
	octave    int
	inversion int
	status    string
}

func newPicker(mapping map[recording.Finger]string, finger int) picker {
	p := picker{finger: finger, octave: sound.DefaultOctave}
	s := sound.Parse(mapping[recording.Fingers[finger]])
	if mapping[recording.Fingers[finger]] == "" {
		return p
	}
	p.kind = max(slices.Index(sound.Kinds, s.Kind), 0)
	p.choice = max(slices.Index(sound.Choices(s.Kind), s.Base), 0)
	if s.Octave != sound.NoOctave {
		p.octave = s.Octave
	}
	p.inversion = max(s.Inversion, 0)
	return p
}

func (p picker) Finger() recording.Finger {
	return recording.Fingers[p.finger]
}

func (p picker) Kind() sound.Kind {
	return sound.Kinds[p.kind]
}

// Sound is the sound the picker currently describes
func (p picker) Sound() sound.Sound {
	kind := p.Kind()
	choices := sound.Choices(kind)
	s := sound.Sound{Kind: kind, Base: choices[min(p.choice, len(choices)-1)], Octave: sound.NoOctave, Inversion: sound.NoInversion}
	switch kind {
	case sound.KindNote:
		s.Octave = p.octave
	case sound.KindChord:
		s.Octave = p.octave
		s.Inversion = p.inversion
	}
	return s
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.picker
	choices := sound.Choices(p.Kind())
	switch {
	case matches(msg, keys.Quit, keys.Back):
		m.screen = screenPlay
	case matches(msg, keys.FingerLeft):
		m.picker = newPicker(m.customMapping(), (p.finger+len(recording.Fingers)-1)%len(recording.Fingers))
	case matches(msg, keys.FingerRight):
		m.picker = newPicker(m.customMapping(), (p.finger+1)%len(recording.Fingers))
	case matches(msg, keys.Kind):
		p.kind = (p.kind + 1) % len(sound.Kinds)
		p.choice = 0
	case matches(msg, keys.Up):
		if p.choice > 0 {
			p.choice--
		}
	case matches(msg, keys.Down):
		if p.choice < len(choices)-1 {
			p.choice++
		}
	case matches(msg, keys.OctaveUp):
		p.octave = min(p.octave+1, sound.MaxOctave)
	case matches(msg, keys.OctaveDown):
		p.octave = max(p.octave-1, sound.MinOctave)
	case matches(msg, keys.Inversion):
		p.inversion = (p.inversion + 1) % (sound.MaxInversion + 1)
	case matches(msg, keys.Preview):
		if m.output == nil {
			m.notice = "No MIDI output configured for previews"
			break
		}
		m.fail(m.output.Audition(p.Sound().String()))
	case matches(msg, keys.Apply):
		s := p.Sound()
		switch err := m.ctrl.SetSound(p.Finger(), s); {
		case errors.Is(err, protocol.ErrClosed):
			p.status = fmt.Sprintf("%s → %s (server offline, kept locally)", p.Finger(), s)
		case err != nil:
			m.fail(err)
		default:
			p.status = fmt.Sprintf("%s → %s", p.Finger(), s)
		}
	}
	return m, nil
}

func (m Model) customMapping() map[recording.Finger]string {
	return m.ctrl.State.Presets[session.CustomPreset].Mapping
}

var kindHelp = map[sound.Kind]string{
	sound.KindNote:  "one pitch, octave selectable",
	sound.KindChord: "triad or seventh, octave and inversion",
	sound.KindDrum:  "percussion hit",
	sound.KindNone:  "finger stays silent",
}

func (m Model) viewPicker() string {
	p := m.picker
	sel := lipgloss.NewStyle().Foreground(m.th.Cursor()).Bold(true)

	var fingers []string
	for i, f := range recording.Fingers {
		if i == p.finger {
			fingers = append(fingers, lipgloss.NewStyle().Foreground(m.th.Finger(f)).Bold(true).Render("["+string(f)+"]"))
		} else {
			fingers = append(fingers, m.dim(" "+string(f)+" "))
		}
	}

	var tabs []string
	for i, k := range sound.Kinds {
		style := lipgloss.NewStyle().Foreground(m.th.Kind(k))
		if i == p.kind {
			tabs = append(tabs, style.Bold(true).Underline(true).Render(string(k)))
		} else {
			tabs = append(tabs, style.Render(string(k)))
		}
	}

	choices := sound.Choices(p.Kind())
	const visible = 8
	start := min(max(p.choice-visible/2, 0), max(len(choices)-visible, 0))
	var list []string
	for i := start; i < min(start+visible, len(choices)); i++ {
		line := "  " + sound.Describe(choices[i])
		if i == p.choice {
			line = sel.Render("> " + sound.Describe(choices[i]))
		}
		list = append(list, line)
	}

	var voicing []string
	switch p.Kind() {
	case sound.KindChord:
		voicing = append(voicing, fmt.Sprintf("octave %d", p.octave), fmt.Sprintf("inversion %d", p.inversion))
	case sound.KindNote:
		voicing = append(voicing, fmt.Sprintf("octave %d", p.octave))
	}

	lines := []string{
		m.header("sounds (custom preset)"),
		"",
		strings.Join(fingers, " "),
		"",
		strings.Join(tabs, "  "),
		widgets.RenderLegendItem(m.th.Kind(p.Kind()), string(p.Kind()), kindHelp[p.Kind()]),
		"",
	}
	lines = append(lines, list...)
	lines = append(lines,
		"",
		strings.Join(voicing, "  "),
		"current: "+sel.Render(sound.Describe(sound.Display(m.customMapping()[p.Finger()])))+"  new: "+sel.Render(p.Sound().String()),
	)
	if p.status != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.th.Accent()).Render(p.status))
	}
	lines = append(lines, "", m.dim(helpLine(
		keys.FingerLeft, keys.Kind, keys.Up, keys.Down, keys.OctaveDown, keys.OctaveUp, keys.Inversion,
		keys.Preview, keys.Apply, keys.Back,
	)))
	return joinLines(lines...)
}
