package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// RenderPad renders a single colored glyph
func RenderPad(color lipgloss.TerminalColor, glyph rune) string {
	return lipgloss.NewStyle().Foreground(color).Render(string(glyph))
}

// RenderLegendItem renders a single legend item: "■ name - description"
func RenderLegendItem(color lipgloss.TerminalColor, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color, '■'), name, desc)
}
