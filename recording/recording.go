package recording

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// MinDuration is the shortest a recording ever reports, in seconds
const MinDuration = 5.0

// DefaultPreset is sent with playback when a recording carries none
const DefaultPreset = "piano"

// Recording is a captured performance. Events stay sorted by time (stable)
// and Duration never drops below max(MaxTime()+1, MinDuration).
//
// The mutators below are the only way events change; each one either fully
// applies (edit + resort + duration) or leaves the recording untouched.
type Recording struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Events   []Event `json:"events"`
	Duration float64 `json:"duration"`
	Preset   string  `json:"preset,omitempty"`
}

// New wraps captured events into a recording, sorting them and assigning ids
func New(events []Event, duration float64) Recording {
	r := Recording{Events: slices.Clone(events), Duration: duration}
	r.Normalize()
	return r
}

// Normalize restores the invariants on a recording read from outside:
// ids assigned, events sorted, duration recomputed. It reports whether any
// event was missing an id.
func (r *Recording) Normalize() bool {
	assigned := false
	for i := range r.Events {
		if r.Events[i].ID == "" {
			r.Events[i].ID = uuid.NewString()
			assigned = true
		}
	}
	r.sort()
	r.RecomputeDuration()
	return assigned
}

// Insert appends e and resorts. Events sharing a time are kept separate.
func (r *Recording) Insert(e Event) []Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Time = clampTime(e.Time)
	r.Events = append(r.Events, e)
	r.sort()
	r.RecomputeDuration()
	return r.Snapshot()
}

// MoveAt sets the time of the event at index and resorts.
// Indexes are invalid after this call; re-resolve selection by id.
func (r *Recording) MoveAt(index int, t float64) []Event {
	if index < 0 || index >= len(r.Events) {
		return r.Snapshot()
	}
	r.Events[index] = r.Events[index].WithTime(t)
	r.sort()
	r.RecomputeDuration()
	return r.Snapshot()
}

// Move sets the time of the event with the given id and resorts
func (r *Recording) Move(id string, t float64) []Event {
	return r.MoveAt(r.Index(id), t)
}

// DeleteAt removes the event at index; out of range is a no-op
func (r *Recording) DeleteAt(index int) []Event {
	if index < 0 || index >= len(r.Events) {
		return r.Snapshot()
	}
	r.Events = slices.Delete(slices.Clone(r.Events), index, index+1)
	r.RecomputeDuration()
	return r.Snapshot()
}

// Delete removes the event with the given id
func (r *Recording) Delete(id string) []Event {
	return r.DeleteAt(r.Index(id))
}

// RecomputeDuration stores and returns max(stored, MaxTime()+1, MinDuration)
func (r *Recording) RecomputeDuration() float64 {
	d := max(r.Duration, MinDuration)
	if len(r.Events) > 0 {
		d = max(d, r.MaxTime()+1)
	}
	r.Duration = d
	return d
}

// MaxTime returns the time of the last event, 0 if empty
func (r *Recording) MaxTime() float64 {
	var t float64
	for _, e := range r.Events {
		t = max(t, e.Time)
	}
	return t
}

// Index returns the position of the event with id, or -1
func (r *Recording) Index(id string) int {
	for i, e := range r.Events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Event looks up an event by id
func (r *Recording) Event(id string) (Event, bool) {
	if i := r.Index(id); i >= 0 {
		return r.Events[i], true
	}
	return Event{}, false
}

// Snapshot returns a copy of the event slice
func (r *Recording) Snapshot() []Event {
	return slices.Clone(r.Events)
}

// Clone returns an independent copy for editing
func (r Recording) Clone() Recording {
	r.Events = slices.Clone(r.Events)
	return r
}

// PresetOrDefault returns the preset used for playback
func (r *Recording) PresetOrDefault() string {
	if r.Preset == "" {
		return DefaultPreset
	}
	return r.Preset
}

// Validate checks every invariant, for payloads that skipped Normalize
func (r *Recording) Validate() error {
	ids := make(map[string]bool, len(r.Events))
	for i, e := range r.Events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if e.ID != "" {
			if ids[e.ID] {
				return fmt.Errorf("event %d: %w: duplicate id %s", i, ErrInvalidEvent, e.ID)
			}
			ids[e.ID] = true
		}
		if i > 0 && r.Events[i-1].Time > e.Time {
			return fmt.Errorf("event %d: out of order (%.3f after %.3f)", i, e.Time, r.Events[i-1].Time)
		}
	}
	if r.Duration < MinDuration || (len(r.Events) > 0 && r.Duration < r.MaxTime()+1) {
		return fmt.Errorf("duration %.3f too short", r.Duration)
	}
	return nil
}

// HasName reports whether the recording has a usable label
func (r *Recording) HasName() bool {
	return strings.TrimSpace(r.Name) != ""
}

func (r *Recording) sort() {
	slices.SortStableFunc(r.Events, func(a, b Event) int {
		return cmp.Compare(a.Time, b.Time)
	})
}
