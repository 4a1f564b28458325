package theme

import (
	"github.com/charmbracelet/lipgloss"

	"ripple/recording"
	"ripple/sound"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Hand
	Held     rune // ● finger bent
	Released rune // ○ finger straight

	// Timeline lanes
	Event    rune // ◆ event on this finger
	Selected rune // ◈ selected event
	Playhead rune // │ progress cursor
	Grid     rune // ┊ whole second
	Empty    rune // · nothing here

	// Transport
	Record rune // ⏺
	Play   rune // ▶
	Stop   rune // ■
}

// New builds a theme on palette (the built-in one when nil)
func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Held:     '●',
			Released: '○',

			Event:    '◆',
			Selected: '◈',
			Playhead: '│',
			Grid:     '┊',
			Empty:    '·',

			Record: '⏺',
			Play:   '▶',
			Stop:   '■',
		},
	}
}

// Load builds a theme from a GPL file, or the built-in palette when path is empty
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep navy
	RoleSurface = 0.1 // navy
	RoleMuted   = 0.3 // steel
	RoleFG      = 0.5 // sea
	RoleAccent  = 0.6 // mint
	RoleCursor  = 0.8 // sand
	RoleActive  = 0.9 // apricot
	RoleWarning = 1.0 // coral
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color  { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// FingerNorm spreads the five fingers over the bright half of the palette
func FingerNorm(f recording.Finger) float64 {
	for i, ff := range recording.Fingers {
		if ff == f {
			return 0.45 + 0.55*float64(i)/float64(len(recording.Fingers)-1)
		}
	}
	return RoleMuted
}

// Finger is the lane colour for f
func (t *Theme) Finger(f recording.Finger) lipgloss.Color {
	return t.Color(FingerNorm(f))
}

// Kind colours the sound picker tabs
func (t *Theme) Kind(k sound.Kind) lipgloss.Color {
	switch k {
	case sound.KindNote:
		return t.Color(0.5)
	case sound.KindChord:
		return t.Color(0.7)
	case sound.KindDrum:
		return t.Color(0.9)
	}
	return t.Muted()
}
