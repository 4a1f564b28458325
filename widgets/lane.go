package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ripple/recording"
	"ripple/theme"
	"ripple/timeline"
)

// LaneLabelWidth is the gutter in front of every lane
const LaneLabelWidth = 8

// RenderLane draws one finger's events across width cells. Positions are
// timeline X values in cells; grid marks whole seconds and playhead < 0
// hides the progress cursor.
func RenderLane(th *theme.Theme, f recording.Finger, placements []timeline.Placement, grid []float64, width, playhead int) string {
	if width <= 0 {
		return ""
	}
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = th.Symbols.Empty
	}
	for _, g := range grid {
		if c := cell(g); c < width {
			cells[c] = th.Symbols.Grid
		}
	}

	kinds := make([]int, width) // 0 background, 1 event, 2 selected
	for _, p := range placements {
		c := cell(p.X)
		if c >= width {
			continue
		}
		if p.Selected {
			cells[c], kinds[c] = th.Symbols.Selected, 2
		} else if kinds[c] == 0 {
			cells[c], kinds[c] = th.Symbols.Event, 1
		}
	}
	if playhead >= 0 && playhead < width && kinds[playhead] == 0 {
		cells[playhead] = th.Symbols.Playhead
	}

	bg := lipgloss.NewStyle().Foreground(th.Muted())
	ev := lipgloss.NewStyle().Foreground(th.Finger(f))
	sel := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	head := lipgloss.NewStyle().Foreground(th.Active())

	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Width(LaneLabelWidth).Foreground(th.Finger(f)).Render(string(f)))
	for i, r := range cells {
		switch {
		case kinds[i] == 2:
			out.WriteString(sel.Render(string(r)))
		case kinds[i] == 1:
			out.WriteString(ev.Render(string(r)))
		case i == playhead:
			out.WriteString(head.Render(string(r)))
		default:
			out.WriteString(bg.Render(string(r)))
		}
	}
	return out.String()
}

func cell(x float64) int {
	return max(int(math.Round(x)), 0)
}
