package sound

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind classifies what a finger triggers
type Kind string

const (
	KindNote  Kind = "note"
	KindChord Kind = "chord"
	KindDrum  Kind = "drum"
	KindNone  Kind = "none"
)

// None is the sentinel identifier for a disabled finger
const None = "none"

// Absent markers for the optional voicing fields
const (
	NoOctave    = 0
	NoInversion = -1
)

// Octave and inversion ranges offered by the sound picker
const (
	MinOctave     = 2
	MaxOctave     = 6
	DefaultOctave = 4
	MaxInversion  = 2
)

// Sound is the typed form of a sound identifier.
// Octave is NoOctave and Inversion is NoInversion when not set.
type Sound struct {
	Kind      Kind
	Base      string
	Octave    int
	Inversion int
}

// Parts is the result of decoding an identifier string
type Parts struct {
	Base      string
	Octave    int
	Inversion int
}

var (
	octSuffix = regexp.MustCompile(`_oct([0-9])$`)
	invSuffix = regexp.MustCompile(`_inv([0-9])$`)
)

// Encode builds the wire identifier for base with the given voicing.
func Encode(base string, kind Kind, octave, inversion int) string {
	switch kind {
	case KindNone:
		return None
	case KindDrum:
		return base
	case KindChord:
		if inversion < 0 {
			inversion = 0
		}
		id := fmt.Sprintf("%s_inv%d", base, inversion)
		if octave != NoOctave {
			id += fmt.Sprintf("_oct%d", octave)
		}
		return id
	default:
		if octave != NoOctave {
			return fmt.Sprintf("%s_oct%d", base, octave)
		}
		return base
	}
}

// Decode splits an identifier into base, octave and inversion.
// Unrecognised suffixes stay part of the base; Decode never fails.
func Decode(id string) Parts {
	p := Parts{Base: id, Octave: NoOctave, Inversion: NoInversion}

	if m := octSuffix.FindStringSubmatchIndex(p.Base); m != nil {
		p.Octave, _ = strconv.Atoi(p.Base[m[2]:m[3]])
		p.Base = p.Base[:m[0]]
	}
	if m := invSuffix.FindStringSubmatchIndex(p.Base); m != nil {
		p.Inversion, _ = strconv.Atoi(p.Base[m[2]:m[3]])
		p.Base = p.Base[:m[0]]
	}
	return p
}

// Display returns the root label shown on fingers and timeline notes
func Display(id string) string {
	return Decode(id).Base
}

// Parse decodes id and classifies its base against the catalog.
func Parse(id string) Sound {
	p := Decode(id)
	kind := Classify(p.Base)
	s := Sound{Kind: kind, Base: p.Base, Octave: p.Octave, Inversion: p.Inversion}
	switch kind {
	case KindDrum, KindNone:
		s.Octave = NoOctave
		s.Inversion = NoInversion
	case KindNote:
		s.Inversion = NoInversion
	}
	return s
}

// String encodes the sound to its wire identifier
func (s Sound) String() string {
	return Encode(s.Base, s.Kind, s.Octave, s.Inversion)
}

// Label is the human-readable root label
func (s Sound) Label() string {
	if s.Kind == KindNone {
		return None
	}
	return s.Base
}

// Valid reports whether the voicing fields are in range for the kind
func (s Sound) Valid() error {
	if s.Kind != KindNone && s.Base == "" {
		return fmt.Errorf("empty sound base")
	}
	switch s.Kind {
	case KindNote, KindChord:
		if s.Octave != NoOctave && (s.Octave < MinOctave || s.Octave > MaxOctave) {
			return fmt.Errorf("octave %d out of range %d-%d", s.Octave, MinOctave, MaxOctave)
		}
		if s.Kind == KindNote && s.Inversion != NoInversion {
			return fmt.Errorf("inversion set on note %s", s.Base)
		}
		if s.Kind == KindChord && s.Inversion > MaxInversion {
			return fmt.Errorf("inversion %d out of range 0-%d", s.Inversion, MaxInversion)
		}
	case KindDrum, KindNone:
		if s.Octave != NoOctave || s.Inversion != NoInversion {
			return fmt.Errorf("%s sounds take no octave or inversion", s.Kind)
		}
	default:
		return fmt.Errorf("unknown sound kind %q", s.Kind)
	}
	return nil
}
