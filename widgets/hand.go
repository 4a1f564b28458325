package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ripple/recording"
	"ripple/sound"
	"ripple/theme"
)

const fingerWidth = 8

// RenderHand draws the five fingers side by side: a held/released glyph,
// the finger name and the sound it is mapped to. next is highlighted
// (the finger a tutorial expects); pass "" for none.
func RenderHand(th *theme.Theme, active []recording.Finger, mapping map[recording.Finger]string, next recording.Finger) string {
	cols := make([]string, 0, len(recording.Fingers))
	for _, f := range recording.Fingers {
		held := false
		for _, a := range active {
			if a == f {
				held = true
				break
			}
		}

		glyph := th.Symbols.Released
		style := lipgloss.NewStyle().Foreground(th.Muted())
		if held {
			glyph = th.Symbols.Held
			style = lipgloss.NewStyle().Foreground(th.Finger(f)).Bold(true)
		}
		nameStyle := lipgloss.NewStyle().Foreground(th.FG())
		if f == next {
			nameStyle = nameStyle.Underline(true).Foreground(th.Cursor())
		}

		label := sound.Display(mapping[f])
		if label == "" {
			label = "-"
		}

		col := lipgloss.JoinVertical(lipgloss.Center,
			style.Render(string(glyph)),
			nameStyle.Render(string(f)),
			lipgloss.NewStyle().Foreground(th.Finger(f)).Render(truncate(label, fingerWidth-1)),
		)
		cols = append(cols, lipgloss.NewStyle().Width(fingerWidth).Align(lipgloss.Center).Render(col))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderProgress draws a bar of width cells filled to frac
func RenderProgress(th *theme.Theme, frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	filled := int(frac * float64(width))
	return lipgloss.NewStyle().Foreground(th.Accent()).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(th.Muted()).Render(strings.Repeat("─", width-filled))
}
