package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"ripple/sound"
)

var (
	ErrInvalidEvent   = errors.New("invalid event")
	ErrEmptyRecording = errors.New("recording has no events")
	ErrEmptyName      = errors.New("recording name is empty")
)

// Finger identifies one sensor on the glove
type Finger string

const (
	Thumb  Finger = "thumb"
	Index  Finger = "index"
	Middle Finger = "middle"
	Ring   Finger = "ring"
	Pinky  Finger = "pinky"
)

// Fingers is the fixed vocabulary in hand order
var Fingers = []Finger{Thumb, Index, Middle, Ring, Pinky}

// ParseFinger validates a finger name
func ParseFinger(s string) (Finger, error) {
	for _, f := range Fingers {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown finger %q", s)
}

// Event is one captured frame: the fingers pressed together and what each one sounded.
// Sounds always has exactly one entry per finger in Fingers.
type Event struct {
	ID      string
	Time    float64
	Fingers []Finger
	Sounds  map[Finger]string
}

// NewEvent builds an event from a finger → sound identifier map.
// Negative times clamp to zero.
func NewEvent(t float64, sounds map[Finger]string) (Event, error) {
	if len(sounds) == 0 {
		return Event{}, fmt.Errorf("%w: no fingers pressed", ErrInvalidEvent)
	}
	e := Event{
		ID:     uuid.NewString(),
		Time:   clampTime(t),
		Sounds: make(map[Finger]string, len(sounds)),
	}
	for _, f := range Fingers {
		id, ok := sounds[f]
		if !ok {
			continue
		}
		e.Fingers = append(e.Fingers, f)
		e.Sounds[f] = id
	}
	if len(e.Fingers) != len(sounds) {
		return Event{}, fmt.Errorf("%w: unknown finger in %v", ErrInvalidEvent, sounds)
	}
	return e, nil
}

// Has reports whether f was pressed in this event
func (e Event) Has(f Finger) bool {
	_, ok := e.Sounds[f]
	return ok
}

// Sound returns the identifier f sounded, or "" if f was not pressed
func (e Event) Sound(f Finger) string {
	return e.Sounds[f]
}

// WithTime returns a copy of e at time t (clamped to zero)
func (e Event) WithTime(t float64) Event {
	e.Time = clampTime(t)
	return e
}

// Validate checks the fingers/sounds invariant
func (e Event) Validate() error {
	if len(e.Fingers) == 0 {
		return fmt.Errorf("%w: no fingers", ErrInvalidEvent)
	}
	if e.Time < 0 || math.IsNaN(e.Time) {
		return fmt.Errorf("%w: time %v", ErrInvalidEvent, e.Time)
	}
	if len(e.Sounds) != len(e.Fingers) {
		return fmt.Errorf("%w: %d fingers but %d sounds", ErrInvalidEvent, len(e.Fingers), len(e.Sounds))
	}
	seen := make(map[Finger]bool, len(e.Fingers))
	for _, f := range e.Fingers {
		if seen[f] {
			return fmt.Errorf("%w: duplicate finger %s", ErrInvalidEvent, f)
		}
		seen[f] = true
		if _, ok := e.Sounds[f]; !ok {
			return fmt.Errorf("%w: no sound for %s", ErrInvalidEvent, f)
		}
	}
	return nil
}

// FingerSound is one entry of the wire "sounds" list
type FingerSound struct {
	Finger Finger `json:"finger"`
	Sound  string `json:"sound"`
}

type wireEvent struct {
	ID      string        `json:"id,omitempty"`
	Time    float64       `json:"time"`
	Fingers []Finger      `json:"fingers"`
	Sounds  []FingerSound `json:"sounds"`
}

// MarshalJSON writes the event in the layout the server produces
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{ID: e.ID, Time: e.Time, Fingers: e.Fingers, Sounds: make([]FingerSound, 0, len(e.Fingers))}
	if w.Fingers == nil {
		w.Fingers = []Finger{}
	}
	for _, f := range e.Fingers {
		w.Sounds = append(w.Sounds, FingerSound{Finger: f, Sound: e.Sounds[f]})
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the server layout, normalising it so the invariant holds:
// unknown and duplicate fingers are dropped, fingers without a sound get "none",
// sounds for fingers not pressed are ignored.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	given := make(map[Finger]string, len(w.Sounds))
	for _, fs := range w.Sounds {
		if _, dup := given[fs.Finger]; !dup {
			given[fs.Finger] = fs.Sound
		}
	}
	pressed := make(map[Finger]bool, len(w.Fingers))
	for _, f := range w.Fingers {
		pressed[f] = true
	}

	*e = Event{ID: w.ID, Time: clampTime(w.Time), Sounds: make(map[Finger]string, len(pressed))}
	for _, f := range Fingers {
		if !pressed[f] {
			continue
		}
		id, ok := given[f]
		if !ok {
			id = sound.None
		}
		e.Fingers = append(e.Fingers, f)
		e.Sounds[f] = id
	}
	return nil
}

func clampTime(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	return t
}
