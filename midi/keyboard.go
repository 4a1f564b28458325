package midi

import (
	"fmt"
	"slices"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"ripple/recording"
)

// white keys C D E F G, in finger order
var fingerPitches = map[uint8]recording.Finger{
	0: recording.Thumb,
	2: recording.Index,
	4: recording.Middle,
	5: recording.Ring,
	7: recording.Pinky,
}

// FingerForKey maps a key to the finger it stands in for.
// C D E F G of any octave are thumb to pinky.
func FingerForKey(key uint8) (recording.Finger, bool) {
	f, ok := fingerPitches[key%12]
	return f, ok
}

// Keyboard turns a MIDI keyboard into a glove stand-in: every change to the
// set of held finger keys is reported as a frame.
type Keyboard struct {
	mu       sync.Mutex
	held     map[uint8]recording.Finger
	frames   chan []recording.Finger
	closed   bool
	stopFunc func()
}

// NewKeyboard returns a keyboard with no port attached
func NewKeyboard() *Keyboard {
	return &Keyboard{
		held:   make(map[uint8]recording.Finger),
		frames: make(chan []recording.Finger, 32),
	}
}

// ListenKeyboard opens the named input port, or the first one when name is empty
func ListenKeyboard(name string) (*Keyboard, error) {
	var (
		in  drivers.In
		err error
	)
	if name == "" {
		in, err = gomidi.InPort(0)
	} else {
		in, err = gomidi.FindInPort(name)
	}
	if err != nil {
		return nil, fmt.Errorf("find input %q: %w", name, err)
	}

	kb := NewKeyboard()
	stop, err := gomidi.ListenTo(in, kb.handle)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	kb.stopFunc = stop
	return kb, nil
}

// Frames delivers the held fingers after every change
func (kb *Keyboard) Frames() <-chan []recording.Finger {
	return kb.frames
}

// Held returns the fingers currently down
func (kb *Keyboard) Held() []recording.Finger {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return kb.heldLocked()
}

func (kb *Keyboard) heldLocked() []recording.Finger {
	var out []recording.Finger
	for _, f := range recording.Fingers {
		for _, h := range kb.held {
			if h == f {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func (kb *Keyboard) handle(msg gomidi.Message, timestampms int32) {
	var ch, key, vel uint8
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return
	}

	before := kb.heldLocked()
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if f, ok := FingerForKey(key); ok {
			kb.held[key] = f
		}
	case msg.GetNoteEnd(&ch, &key):
		delete(kb.held, key)
	default:
		return
	}

	after := kb.heldLocked()
	if slices.Equal(before, after) {
		return
	}
	select {
	case kb.frames <- after:
	default:
		// drop frames if nobody is reading
	}
}

// Close stops listening and closes Frames
func (kb *Keyboard) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if !kb.closed {
		kb.closed = true
		close(kb.frames)
	}
	return nil
}
