package recording

import (
	"math"
	"slices"
	"time"

	"ripple/sound"
)

// Capture builds a recording from finger frames reported by a local source
// (a MIDI keyboard standing in for the glove). Frames are only recorded when the
// pressed set changes and is not empty, matching when the glove triggers sound.
type Capture struct {
	now     func() time.Time
	start   time.Time
	last    []Finger
	rec     Recording
	running bool
}

// NewCapture returns an idle capture using now as its clock (time.Now if nil)
func NewCapture(now func() time.Time) *Capture {
	if now == nil {
		now = time.Now
	}
	return &Capture{now: now}
}

// Begin starts a fresh capture, discarding anything collected before
func (c *Capture) Begin() {
	c.start = c.now()
	c.last = nil
	c.rec = Recording{}
	c.running = true
}

// Running reports whether frames are being collected
func (c *Capture) Running() bool {
	return c.running
}

// Elapsed returns seconds since Begin
func (c *Capture) Elapsed() float64 {
	if !c.running {
		return 0
	}
	return c.now().Sub(c.start).Seconds()
}

// Frame reports the currently pressed fingers. mapping resolves each finger to its
// sound identifier; fingers missing from mapping sound as "none".
func (c *Capture) Frame(pressed []Finger, mapping map[Finger]string) (Event, bool) {
	if !c.running {
		return Event{}, false
	}
	current := normalizeFingers(pressed)
	if slices.Equal(current, c.last) {
		return Event{}, false
	}
	c.last = current
	if len(current) == 0 {
		return Event{}, false
	}

	sounds := make(map[Finger]string, len(current))
	for _, f := range current {
		id, ok := mapping[f]
		if !ok {
			id = sound.None
		}
		sounds[f] = id
	}
	e, err := NewEvent(roundMillis(c.Elapsed()), sounds)
	if err != nil {
		return Event{}, false
	}
	c.rec.Insert(e)
	return e, true
}

// End stops the capture and returns the collected payload
func (c *Capture) End() Recording {
	if !c.running {
		return Recording{}
	}
	c.running = false
	c.rec.Duration = roundMillis(c.now().Sub(c.start).Seconds())
	c.rec.RecomputeDuration()
	out := c.rec.Clone()
	c.rec = Recording{}
	c.last = nil
	return out
}

// Accept applies the capture policy to a stopped-recording payload:
// payloads without events are discarded.
func Accept(payload Recording) (Recording, error) {
	if len(payload.Events) == 0 {
		return Recording{}, ErrEmptyRecording
	}
	out := payload.Clone()
	out.Normalize()
	return out, nil
}

func normalizeFingers(in []Finger) []Finger {
	var out []Finger
	for _, f := range Fingers {
		if slices.Contains(in, f) {
			out = append(out, f)
		}
	}
	return out
}

func roundMillis(s float64) float64 {
	return math.Round(s*1000) / 1000
}
