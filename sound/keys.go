package sound

import "sort"

// DrumKeys maps drum names to General MIDI percussion keys (channel 10)
var DrumKeys = map[string]uint8{
	"kick":   36,
	"snare":  38,
	"hihat":  42,
	"tom":    45,
	"clap":   39,
	"cymbal": 49,
}

// Keys resolves the sound to MIDI key numbers.
// Notes and chords without an octave sound at DefaultOctave; None yields nil.
func (s Sound) Keys() []uint8 {
	switch s.Kind {
	case KindDrum:
		if k, ok := DrumKeys[s.Base]; ok {
			return []uint8{k}
		}
		return nil
	case KindNone:
		return nil
	}

	octave := s.Octave
	if octave == NoOctave {
		octave = DefaultOctave
	}

	if s.Kind == KindChord {
		root, intervals, ok := parseChord(s.Base)
		if !ok {
			return nil
		}
		base := 12*(octave+1) + pitchClasses[root]
		keys := make([]int, len(intervals))
		for i, iv := range intervals {
			keys[i] = base + iv
		}
		inv := s.Inversion
		if inv < 0 {
			inv = 0
		}
		// each inversion lifts the current lowest tone an octave
		for i := 0; i < inv; i++ {
			sort.Ints(keys)
			keys[0] += 12
		}
		sort.Ints(keys)
		return clampKeys(keys)
	}

	root, rest, ok := splitRoot(s.Base)
	if !ok || rest != "" {
		return nil
	}
	return clampKeys([]int{12*(octave+1) + pitchClasses[root]})
}

func clampKeys(keys []int) []uint8 {
	out := make([]uint8, 0, len(keys))
	for _, k := range keys {
		if k >= 0 && k <= 127 {
			out = append(out, uint8(k))
		}
	}
	return out
}
