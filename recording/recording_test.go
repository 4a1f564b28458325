package recording

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, at float64, f Finger, id string) Event {
	t.Helper()
	e, err := NewEvent(at, map[Finger]string{f: id})
	require.NoError(t, err)
	return e
}

func times(events []Event) []float64 {
	out := make([]float64, len(events))
	for i, e := range events {
		out[i] = e.Time
	}
	return out
}

func threeEvents(t *testing.T) Recording {
	var r Recording
	r.Insert(mustEvent(t, 1.0, Thumb, "C"))
	r.Insert(mustEvent(t, 2.0, Index, "D"))
	r.Insert(mustEvent(t, 3.0, Middle, "E"))
	return r
}

func TestNewEventKeepsHandOrder(t *testing.T) {
	e, err := NewEvent(1.5, map[Finger]string{Pinky: "G", Thumb: "C_oct4"})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]Finger{Thumb, Pinky}, e.Fingers)
	assert.Equal("C_oct4", e.Sound(Thumb))
	assert.True(e.Has(Pinky))
	assert.False(e.Has(Ring))
	assert.NotEmpty(e.ID)
	assert.NoError(e.Validate())
}

func TestNewEventRejectsEmptyAndUnknownFingers(t *testing.T) {
	_, err := NewEvent(0, map[Finger]string{})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = NewEvent(0, map[Finger]string{"toe": "C"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestNewEventClampsNegativeTime(t *testing.T) {
	e := mustEvent(t, -2, Ring, "F")
	assert.Equal(t, 0.0, e.Time)
}

func TestInsertSortsAndKeepsSimultaneousEvents(t *testing.T) {
	var r Recording
	first := mustEvent(t, 2, Thumb, "C")
	second := mustEvent(t, 2, Index, "D")
	r.Insert(first)
	r.Insert(mustEvent(t, 1, Middle, "E"))
	r.Insert(second)
	events := r.Insert(mustEvent(t, 0, Ring, "F"))

	assert := assert.New(t)
	assert.Equal([]float64{0, 1, 2, 2}, times(events))
	assert.Equal(first.ID, events[2].ID)
	assert.Equal(second.ID, events[3].ID)
}

func TestSortInvariantAfterRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var r Recording
	for i := 0; i < 300; i++ {
		if len(r.Events) == 0 || rng.Intn(2) == 0 {
			r.Insert(mustEvent(t, rng.Float64()*20-2, Fingers[rng.Intn(len(Fingers))], "C"))
		} else {
			r.MoveAt(rng.Intn(len(r.Events)), rng.Float64()*20-5)
		}
		for j := 1; j < len(r.Events); j++ {
			if r.Events[j-1].Time > r.Events[j].Time {
				t.Fatalf("events out of order after op %d: %v", i, times(r.Events))
			}
		}
	}
	assert.NoError(t, r.Validate())
}

func TestNormalizeReportsAssignedIDs(t *testing.T) {
	a := mustEvent(t, 3, Thumb, "C")
	b := mustEvent(t, 1, Index, "D")
	c := mustEvent(t, 3, Pinky, "G")
	a.ID, c.ID = "", ""
	r := Recording{Events: []Event{a, b, c}}

	assert.True(t, r.Normalize())
	assert.Equal(t, []float64{1, 3, 3}, times(r.Events))
	assert.Equal(t, Thumb, r.Events[1].Fingers[0], "equal times keep their order")
	assert.NotEmpty(t, r.Events[1].ID)
	assert.NotEmpty(t, r.Events[2].ID)

	ids := []string{r.Events[0].ID, r.Events[1].ID, r.Events[2].ID}
	assert.False(t, r.Normalize())
	assert.Equal(t, ids, []string{r.Events[0].ID, r.Events[1].ID, r.Events[2].ID})
}

func TestMoveClampsNegativeTime(t *testing.T) {
	r := threeEvents(t)
	id := r.Events[1].ID
	r.MoveAt(1, -5)

	e, ok := r.Event(id)
	assert.True(t, ok)
	assert.Equal(t, 0.0, e.Time)
	assert.Equal(t, 0, r.Index(id))
}

func TestMoveReordersEvents(t *testing.T) {
	r := threeEvents(t)
	moved := r.Events[2].ID
	events := r.MoveAt(2, 0.5)

	assert := assert.New(t)
	assert.Equal([]float64{0.5, 1.0, 2.0}, times(events))
	assert.Equal(moved, events[0].ID)
	assert.Equal(Middle, events[0].Fingers[0])
}

func TestMoveByID(t *testing.T) {
	r := threeEvents(t)
	id := r.Events[0].ID
	events := r.Move(id, 10)

	assert.Equal(t, []float64{2, 3, 10}, times(events))
	assert.Equal(t, id, events[2].ID)
	assert.Equal(t, 11.0, r.Duration)
}

func TestMoveOutOfRangeIsNoop(t *testing.T) {
	r := threeEvents(t)
	before := r.Snapshot()

	assert.Equal(t, before, r.MoveAt(5, 0))
	assert.Equal(t, before, r.MoveAt(-1, 0))
	assert.Equal(t, before, r.Move("missing", 0))
}

func TestDeleteInvalidIndexLeavesEventsUnchanged(t *testing.T) {
	r := threeEvents(t)
	before := r.Snapshot()

	assert := assert.New(t)
	assert.Equal(before, r.DeleteAt(999))
	assert.Equal(before, r.DeleteAt(-1))
	assert.Equal(before, r.Delete("missing"))
	assert.Len(r.Events, 3)
}

func TestDelete(t *testing.T) {
	r := threeEvents(t)
	gone := r.Events[1].ID
	events := r.Delete(gone)

	assert.Equal(t, []float64{1, 3}, times(events))
	assert.Equal(t, -1, r.Index(gone))
}

func TestDurationFloorAndMonotonic(t *testing.T) {
	assert := assert.New(t)

	var r Recording
	assert.Equal(MinDuration, r.RecomputeDuration())

	r.Insert(mustEvent(t, 7, Thumb, "C"))
	assert.Equal(8.0, r.Duration)

	prev := r.Duration
	r.MoveAt(0, 1)
	assert.GreaterOrEqual(r.RecomputeDuration(), prev)

	r.DeleteAt(0)
	assert.Equal(8.0, r.RecomputeDuration())

	long := Recording{Duration: 12}
	long.Insert(mustEvent(t, 3, Index, "D"))
	assert.Equal(12.0, long.Duration)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := threeEvents(t)
	snap := r.Snapshot()
	snap[0].Time = 99

	assert.Equal(t, 1.0, r.Events[0].Time)
}

func TestEventJSONUsesSoundList(t *testing.T) {
	e := mustEvent(t, 1.25, Thumb, "C_oct4")
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{map[string]any{"finger": "thumb", "sound": "C_oct4"}}, raw["sounds"])
	assert.Equal(t, []any{"thumb"}, raw["fingers"])
}

func TestEventUnmarshalNormalizes(t *testing.T) {
	payload := `{"time": -1, "fingers": ["index", "thumb", "thumb", "toe"], "sounds": [{"finger": "thumb", "sound": "C"}, {"finger": "ring", "sound": "F"}]}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))

	assert := assert.New(t)
	assert.Equal(0.0, e.Time)
	assert.Equal([]Finger{Thumb, Index}, e.Fingers)
	assert.Equal(map[Finger]string{Thumb: "C", Index: "none"}, e.Sounds)
	assert.NoError(e.Validate())
}

func TestAcceptServerPayload(t *testing.T) {
	payload := `{"events": [{"time": 2.2, "fingers": ["ring"], "sounds": [{"finger": "ring", "sound": "Am_inv0_oct4"}]},
		{"time": 1.2, "fingers": ["thumb"], "sounds": [{"finger": "thumb", "sound": "C_oct4"}]}], "duration": 3.4}`

	var rec Recording
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	got, err := Accept(rec)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]float64{1.2, 2.2}, times(got.Events))
	assert.Equal(MinDuration, got.Duration)
	for _, e := range got.Events {
		assert.NotEmpty(e.ID)
	}
	assert.NoError(got.Validate())
}

func TestAcceptRejectsEmptyPayload(t *testing.T) {
	_, err := Accept(Recording{Duration: 3})
	assert.ErrorIs(t, err, ErrEmptyRecording)
}

func TestValidateCatchesDisorder(t *testing.T) {
	r := Recording{Duration: 10, Events: []Event{
		mustEvent(t, 3, Thumb, "C"),
		mustEvent(t, 1, Index, "D"),
	}}
	assert.Error(t, r.Validate())
}

func TestCaptureRecordsChangedFrames(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCapture(func() time.Time { return now })
	mapping := map[Finger]string{Thumb: "C_oct4", Index: "D_oct4"}

	_, ok := c.Frame([]Finger{Thumb}, mapping)
	assert.False(t, ok, "frames before Begin are ignored")

	c.Begin()
	now = now.Add(500 * time.Millisecond)
	e, ok := c.Frame([]Finger{Thumb}, mapping)
	require.True(t, ok)
	assert.Equal(t, 0.5, e.Time)

	_, ok = c.Frame([]Finger{Thumb}, mapping)
	assert.False(t, ok, "unchanged frame")

	_, ok = c.Frame(nil, mapping)
	assert.False(t, ok, "release produces no event")

	now = now.Add(750 * time.Millisecond)
	e, ok = c.Frame([]Finger{Middle, Thumb}, mapping)
	require.True(t, ok)
	assert.Equal(t, 1.25, e.Time)
	assert.Equal(t, []Finger{Thumb, Middle}, e.Fingers)
	assert.Equal(t, "none", e.Sound(Middle))

	now = now.Add(750 * time.Millisecond)
	rec := c.End()
	assert.False(t, c.Running())
	assert.Len(t, rec.Events, 2)
	assert.Equal(t, MinDuration, rec.Duration)
	assert.NoError(t, rec.Validate())
}
