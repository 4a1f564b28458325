package timeline

import (
	"math"
	"strings"

	"ripple/recording"
	"ripple/sound"
)

// PixelsPerSecond is the horizontal scale of the timeline track
const PixelsPerSecond = 100

// ErrEmptyName is returned by Result when saving without a name
var ErrEmptyName = recording.ErrEmptyName

// Scale converts between track offsets and seconds. The same value must be used
// for rendering and for dragging or notes drift away from where they are drawn.
type Scale float64

// DefaultScale is the track scale used by the editor
const DefaultScale Scale = PixelsPerSecond

// TimeToX returns the offset at which time t is drawn
func (s Scale) TimeToX(t float64) float64 {
	return t * float64(s)
}

// XToTime converts a drag offset back to seconds, never negative
func (s Scale) XToTime(x float64) float64 {
	if s <= 0 {
		return 0
	}
	return math.Max(0, x/float64(s))
}

// Placement is where one finger's note of an event is drawn
type Placement struct {
	ID       string
	Finger   recording.Finger
	Time     float64
	X        float64
	Label    string
	Selected bool
}

// Editor edits a private copy of a recording. Selection is tracked by event id
// so it survives the resort that follows every move.
type Editor struct {
	rec      recording.Recording
	scale    Scale
	selected string
	dirty    bool
}

// NewEditor opens rec for editing at the given scale (DefaultScale if zero)
func NewEditor(rec recording.Recording, scale Scale) *Editor {
	if scale <= 0 {
		scale = DefaultScale
	}
	e := &Editor{rec: rec.Clone(), scale: scale}
	e.rec.Normalize()
	return e
}

// Recording returns the recording as currently edited
func (e *Editor) Recording() recording.Recording {
	return e.rec.Clone()
}

// Events returns the current sorted events
func (e *Editor) Events() []recording.Event {
	return e.rec.Snapshot()
}

// Scale returns the editor's track scale
func (e *Editor) Scale() Scale {
	return e.scale
}

// Duration returns the recomputed duration
func (e *Editor) Duration() float64 {
	return e.rec.RecomputeDuration()
}

// Dirty reports whether anything changed since the editor was opened
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Drag moves the event to where it was dropped on the track
func (e *Editor) Drag(id string, x float64) []recording.Event {
	return e.SetTime(id, e.scale.XToTime(x))
}

// SetTime moves the event to time t (clamped to zero)
func (e *Editor) SetTime(id string, t float64) []recording.Event {
	if e.rec.Index(id) < 0 {
		return e.rec.Snapshot()
	}
	e.dirty = true
	return e.rec.Move(id, t)
}

// Nudge shifts the event by delta seconds
func (e *Editor) Nudge(id string, delta float64) []recording.Event {
	ev, ok := e.rec.Event(id)
	if !ok {
		return e.rec.Snapshot()
	}
	return e.SetTime(id, ev.Time+delta)
}

// Delete removes the event and clears the selection
func (e *Editor) Delete(id string) []recording.Event {
	e.selected = ""
	if e.rec.Index(id) < 0 {
		return e.rec.Snapshot()
	}
	e.dirty = true
	return e.rec.Delete(id)
}

// DeleteSelected removes the selected event, if any
func (e *Editor) DeleteSelected() []recording.Event {
	return e.Delete(e.selected)
}

// Select toggles selection of the event with id
func (e *Editor) Select(id string) {
	if id == e.selected || e.rec.Index(id) < 0 {
		e.selected = ""
		return
	}
	e.selected = id
}

// SelectAt toggles selection of the event at index
func (e *Editor) SelectAt(index int) {
	if index < 0 || index >= len(e.rec.Events) {
		return
	}
	e.Select(e.rec.Events[index].ID)
}

// ClearSelection drops any selection
func (e *Editor) ClearSelection() {
	e.selected = ""
}

// Selected returns the selected event
func (e *Editor) Selected() (recording.Event, bool) {
	if e.selected == "" {
		return recording.Event{}, false
	}
	return e.rec.Event(e.selected)
}

// SelectedIndex returns the current position of the selected event, or -1
func (e *Editor) SelectedIndex() int {
	if e.selected == "" {
		return -1
	}
	return e.rec.Index(e.selected)
}

// SelectNext moves the selection by delta in time order, wrapping around
func (e *Editor) SelectNext(delta int) {
	n := len(e.rec.Events)
	if n == 0 {
		return
	}
	i := e.SelectedIndex()
	if i < 0 {
		if delta < 0 {
			i = n - 1
		} else {
			i = 0
		}
	} else {
		i = ((i+delta)%n + n) % n
	}
	e.selected = e.rec.Events[i].ID
}

// Rename sets the recording name
func (e *Editor) Rename(name string) {
	if name != e.rec.Name {
		e.rec.Name = name
		e.dirty = true
	}
}

// Result finalises the edit for saving under name. A blank name is a
// precondition failure and leaves the editor untouched.
func (e *Editor) Result(name string) (recording.Recording, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return recording.Recording{}, ErrEmptyName
	}
	e.Rename(name)
	out := e.rec.Clone()
	out.RecomputeDuration()
	return out, nil
}

// Lane returns the placements on one finger's track in time order
func (e *Editor) Lane(f recording.Finger) []Placement {
	var out []Placement
	for _, ev := range e.rec.Events {
		if !ev.Has(f) {
			continue
		}
		label := sound.Display(ev.Sound(f))
		if label == "" {
			label = "♪"
		}
		out = append(out, Placement{
			ID:       ev.ID,
			Finger:   f,
			Time:     ev.Time,
			X:        e.scale.TimeToX(ev.Time),
			Label:    label,
			Selected: ev.ID == e.selected,
		})
	}
	return out
}

// Lanes returns every finger's placements keyed by finger
func (e *Editor) Lanes() map[recording.Finger][]Placement {
	out := make(map[recording.Finger][]Placement, len(recording.Fingers))
	for _, f := range recording.Fingers {
		out[f] = e.Lane(f)
	}
	return out
}

// Hit returns the event on finger f's lane nearest to x within tolerance
func (e *Editor) Hit(f recording.Finger, x, tolerance float64) (string, bool) {
	best, bestDist := "", math.Inf(1)
	for _, p := range e.Lane(f) {
		if d := math.Abs(p.X - x); d <= tolerance && d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	return best, best != ""
}

// GridLines returns the offsets of the whole-second markers
func (e *Editor) GridLines() []float64 {
	n := int(math.Ceil(e.Duration()))
	out := make([]float64, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, e.scale.TimeToX(float64(i)))
	}
	return out
}

// Width returns the track width needed to show the whole recording
func (e *Editor) Width() float64 {
	return e.scale.TimeToX(math.Max(e.Duration(), recording.MinDuration))
}
