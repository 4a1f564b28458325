package session

import (
	"maps"

	"ripple/protocol"
	"ripple/recording"
	"ripple/sound"
)

// CustomPreset is the user-editable preset that mapping edits land in
const CustomPreset = "custom"

// DefaultThreshold is the bend threshold before the server reports its own
const DefaultThreshold = 0.15

// Modes
const (
	ModePlay     = "play"
	ModeTutorial = "tutorial"
)

func fiveFingers(thumb, index, middle, ring, pinky string) map[recording.Finger]string {
	return map[recording.Finger]string{
		recording.Thumb:  thumb,
		recording.Index:  index,
		recording.Middle: middle,
		recording.Ring:   ring,
		recording.Pinky:  pinky,
	}
}

// DefaultPresets are used until the server sends its own
func DefaultPresets() map[string]protocol.Preset {
	return map[string]protocol.Preset{
		"therapy": {Name: "Therapy", Instrument: "pad", Mapping: fiveFingers("C_maj", "F_maj", "G_maj", "Am", "Em")},
		"piano":   {Name: "Piano", Instrument: "bell", Mapping: fiveFingers("C", "D", "E", "F", "G")},
		"chords":  {Name: "Chords", Instrument: "soft", Mapping: fiveFingers("C_maj", "D_maj", "E_maj", "G_maj", "A_maj")},
		"drums":   {Name: "Drums", Instrument: "drums", Mapping: fiveFingers("kick", "snare", "hihat", "tom", "clap")},
		"custom":  {Name: "Custom", Instrument: "sine", Mapping: fiveFingers("C", "D", "E", "F", "G")},
	}
}

// PresetOrder is the display order of the built-in presets
var PresetOrder = []string{"therapy", "piano", "chords", "drums", "custom"}

// DefaultTutorials are used until the server sends its own
func DefaultTutorials() map[string]protocol.TutorialInfo {
	return map[string]protocol.TutorialInfo{
		"scale":    {Name: "Simple Scale", Difficulty: "Beginner", Length: 10},
		"hotcross": {Name: "Hot Cross Buns", Difficulty: "Beginner", Length: 17},
		"mary":     {Name: "Mary Had a Little Lamb", Difficulty: "Easy", Length: 26},
		"twinkle":  {Name: "Twinkle Twinkle Little Star", Difficulty: "Easy", Length: 42},
		"ode":      {Name: "Ode to Joy", Difficulty: "Medium", Length: 30},
		"furelise": {Name: "Für Elise (Theme)", Difficulty: "Hard", Length: 29},
	}
}

func defaultCustomTypes() map[recording.Finger]sound.Kind {
	out := make(map[recording.Finger]sound.Kind, len(recording.Fingers))
	for _, f := range recording.Fingers {
		out[f] = sound.KindNote
	}
	return out
}

func clonePresets(in map[string]protocol.Preset) map[string]protocol.Preset {
	out := make(map[string]protocol.Preset, len(in))
	for k, p := range in {
		p.Mapping = maps.Clone(p.Mapping)
		out[k] = p
	}
	return out
}
