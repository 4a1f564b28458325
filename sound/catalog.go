package sound

import "strings"

// Notes offered by the sound picker, enharmonics included
var Notes = []string{"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb", "G", "G#", "Ab", "A", "A#", "Bb", "B"}

// Chord groups offered by the sound picker
var (
	MajorChords   = []string{"C_maj", "C#_maj", "Db_maj", "D_maj", "D#_maj", "Eb_maj", "E_maj", "F_maj", "F#_maj", "Gb_maj", "G_maj", "G#_maj", "Ab_maj", "A_maj", "A#_maj", "Bb_maj", "B_maj"}
	MinorChords   = []string{"Am", "A#m", "Bbm", "Bm", "Cm", "C#m", "Dbm", "Dm", "D#m", "Ebm", "Em", "Fm", "F#m", "Gbm", "Gm", "G#m", "Abm"}
	SeventhChords = []string{"C7", "D7", "E7", "F7", "G7", "A7", "B7"}
)

// Drums lists the drum sounds the server can synthesise
var Drums = []string{"kick", "snare", "hihat", "tom", "clap", "cymbal"}

// Kinds in picker tab order
var Kinds = []Kind{KindNote, KindChord, KindDrum, KindNone}

// Chords returns every chord symbol in picker order
func Chords() []string {
	out := make([]string, 0, len(MajorChords)+len(MinorChords)+len(SeventhChords))
	out = append(out, MajorChords...)
	out = append(out, MinorChords...)
	out = append(out, SeventhChords...)
	return out
}

// Choices returns the bases offered for a kind
func Choices(kind Kind) []string {
	switch kind {
	case KindNote:
		return Notes
	case KindChord:
		return Chords()
	case KindDrum:
		return Drums
	case KindNone:
		return []string{None}
	}
	return nil
}

// Classify works out the kind of a base name
func Classify(base string) Kind {
	if base == None {
		return KindNone
	}
	if IsDrum(base) {
		return KindDrum
	}
	if _, _, ok := parseChord(base); ok {
		return KindChord
	}
	return KindNote
}

// IsDrum reports whether base is a known drum name
func IsDrum(base string) bool {
	for _, d := range Drums {
		if d == base {
			return true
		}
	}
	return false
}

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5,
	"F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

var chordIntervals = map[string][]int{
	"_maj": {0, 4, 7},
	"m":    {0, 3, 7},
	"7":    {0, 4, 7, 10},
}

// splitRoot separates a leading note name ("C", "F#", "Bb") from the rest
func splitRoot(s string) (root, rest string, ok bool) {
	if s == "" || s[0] < 'A' || s[0] > 'G' {
		return "", "", false
	}
	n := 1
	if len(s) > 1 && (s[1] == '#' || s[1] == 'b') {
		n = 2
	}
	root = s[:n]
	if _, known := pitchClasses[root]; !known {
		return "", "", false
	}
	return root, s[n:], true
}

func parseChord(base string) (root string, intervals []int, ok bool) {
	root, rest, ok := splitRoot(base)
	if !ok || rest == "" {
		return "", nil, false
	}
	iv, ok := chordIntervals[rest]
	if !ok {
		return "", nil, false
	}
	return root, iv, true
}

// Describe renders a long-form name such as "C Major" or "A minor"
func Describe(base string) string {
	root, rest, ok := splitRoot(base)
	if !ok {
		return base
	}
	switch rest {
	case "_maj":
		return root + " Major"
	case "m":
		return root + " minor"
	case "7":
		return root + " 7th"
	}
	return strings.TrimSpace(base)
}
