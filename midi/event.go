package midi

import (
	"cmp"
	"slices"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"ripple/recording"
	"ripple/sound"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// DrumChannel is the General MIDI percussion channel (10, zero based)
const DrumChannel uint8 = 9

// Velocity every note is struck with
const Velocity uint8 = 100

// Gate is how long each sound is held
const Gate = 400 * time.Millisecond

// Event is a MIDI message placed on a recording's timeline
type Event struct {
	At       time.Duration
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Message converts the event to a wire message
func (e Event) Message() gomidi.Message {
	if e.Type == NoteOn {
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	}
	return gomidi.NoteOff(e.Channel, e.Note)
}

// Schedule expands a recording into note on/off pairs ordered by time.
// Drums go to DrumChannel, everything else to channel. A note off that
// falls on the same instant as a note on is ordered first so a repeated
// key is retriggered.
func Schedule(rec recording.Recording, channel uint8) []Event {
	return schedule(rec, channel, Gate)
}

func schedule(rec recording.Recording, channel uint8, gate time.Duration) []Event {
	var out []Event
	for _, e := range rec.Events {
		at := time.Duration(e.Time * float64(time.Second))
		for _, f := range e.Fingers {
			s := sound.Parse(e.Sound(f))
			ch := channel
			if s.Kind == sound.KindDrum {
				ch = DrumChannel
			}
			for _, key := range s.Keys() {
				out = append(out,
					Event{At: at, Type: NoteOn, Channel: ch, Note: key, Velocity: Velocity},
					Event{At: at + gate, Type: NoteOff, Channel: ch, Note: key},
				)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Event) int {
		if c := cmp.Compare(a.At, b.At); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}
