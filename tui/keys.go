package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ripple/widgets"
)

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Quit key.Binding
	Back key.Binding
	Help key.Binding

	// play
	Connect       key.Binding
	Disconnect    key.Binding
	Calibrate     key.Binding
	Reconnect     key.Binding
	NextPreset    key.Binding
	PrevPreset    key.Binding
	ThresholdUp   key.Binding
	ThresholdDown key.Binding
	Record        key.Binding
	Tutorial      key.Binding
	ExitTutorial  key.Binding
	ResetTutorial key.Binding
	Audition      key.Binding
	Picker        key.Binding
	Recordings    key.Binding

	// lists
	Up     key.Binding
	Down   key.Binding
	Play   key.Binding
	Edit   key.Binding
	Delete key.Binding

	// editor
	Prev          key.Binding
	Next          key.Binding
	NudgeLeft     key.Binding
	NudgeRight    key.Binding
	NudgeLeftBig  key.Binding
	NudgeRightBig key.Binding
	Rename        key.Binding
	Save          key.Binding

	// picker
	FingerLeft  key.Binding
	FingerRight key.Binding
	Kind        key.Binding
	OctaveUp    key.Binding
	OctaveDown  key.Binding
	Inversion   key.Binding
	Preview     key.Binding
	Apply       key.Binding
}

var keys = keyMap{
	Quit: Key("quit", "q", "ctrl+c"),
	Back: Key("back", "esc"),
	Help: Key("help", "?"),

	Connect:       Key("connect glove", "c"),
	Disconnect:    Key("disconnect", "x"),
	Calibrate:     Key("calibrate", "k"),
	Reconnect:     Key("reconnect server", "w"),
	NextPreset:    Key("next preset", "]", "tab"),
	PrevPreset:    Key("prev preset", "[", "shift+tab"),
	ThresholdUp:   Key("threshold+", "+", "="),
	ThresholdDown: Key("threshold-", "-", "_"),
	Record:        Key("record", "r"),
	Tutorial:      Key("tutorial", "t"),
	ExitTutorial:  Key("exit tutorial", "T"),
	ResetTutorial: Key("restart tutorial", "0"),
	Audition:      Key("test finger", "1", "2", "3", "4", "5"),
	Picker:        Key("sounds", "s"),
	Recordings:    Key("recordings", "l"),

	Up:     Key("up", "up", "k"),
	Down:   Key("down", "down", "j"),
	Play:   Key("play/stop", " ", "enter"),
	Edit:   Key("edit", "e"),
	Delete: Key("delete", "x", "delete"),

	Prev:          Key("prev event", "left"),
	Next:          Key("next event", "right"),
	NudgeLeft:     Key("-0.1s", "h"),
	NudgeRight:    Key("+0.1s", "l"),
	NudgeLeftBig:  Key("-1s", "H"),
	NudgeRightBig: Key("+1s", "L"),
	Rename:        Key("rename", "n"),
	Save:          Key("save", "s"),

	FingerLeft:  Key("finger", "left"),
	FingerRight: Key("finger", "right"),
	Kind:        Key("kind", "tab"),
	OctaveUp:    Key("octave+", "O"),
	OctaveDown:  Key("octave-", "o"),
	Inversion:   Key("inversion", "i"),
	Preview:     Key("preview", "p"),
	Apply:       Key("assign", "enter"),
}

func matches(msg tea.KeyMsg, k ...key.Binding) bool {
	return key.Matches(msg, k...)
}

func toWidget(bindings []key.Binding) []widgets.KeyBinding {
	out := make([]widgets.KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, widgets.KeyBinding{Key: h.Key, Desc: h.Desc})
	}
	return out
}

func helpLine(bindings ...key.Binding) string {
	return widgets.RenderKeyLine(toWidget(bindings))
}

func section(title string, bindings ...key.Binding) widgets.KeySection {
	return widgets.KeySection{Title: title, Keys: toWidget(bindings)}
}

// helpSections lists every binding of a screen for the ? overlay
func helpSections(s screen) []widgets.KeySection {
	switch s {
	case screenRecordings:
		return []widgets.KeySection{
			section("Recordings", keys.Up, keys.Down, keys.Play, keys.Edit, keys.Delete, keys.Back),
		}
	case screenEditor:
		return []widgets.KeySection{
			section("Select", keys.Prev, keys.Next),
			section("Move", keys.NudgeLeft, keys.NudgeRight, keys.NudgeLeftBig, keys.NudgeRightBig),
			section("Edit", keys.Delete, keys.Play, keys.Rename, keys.Save, keys.Back),
		}
	case screenPicker:
		return []widgets.KeySection{
			section("Sounds", keys.FingerLeft, keys.FingerRight, keys.Kind, keys.Up, keys.Down),
			section("Voicing", keys.OctaveDown, keys.OctaveUp, keys.Inversion),
			section("", keys.Preview, keys.Apply, keys.Back),
		}
	}
	return []widgets.KeySection{
		section("Glove", keys.Connect, keys.Disconnect, keys.Calibrate, keys.Reconnect, keys.ThresholdUp, keys.ThresholdDown),
		section("Play", keys.NextPreset, keys.PrevPreset, keys.Audition, keys.Record, keys.Picker, keys.Recordings),
		section("Tutorial", keys.Tutorial, keys.ExitTutorial, keys.ResetTutorial),
		section("", keys.Help, keys.Quit),
	}
}
