package midi

import (
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"ripple/debug"
	"ripple/recording"
	"ripple/sound"
)

// SendFunc writes one message to a port
type SendFunc func(msg gomidi.Message) error

type voice struct {
	channel, note uint8
}

// Output plays recordings on a local MIDI port. It satisfies playback.Sink,
// so the scheduler can drive it exactly like the glove server.
type Output struct {
	mu       sync.Mutex
	name     string
	port     drivers.Out
	send     SendFunc
	channel  uint8
	gate     time.Duration
	stopChan chan struct{}
	sounding map[voice]struct{}
}

// NewOutput wraps send. Notes other than drums go to channel.
func NewOutput(name string, send SendFunc, channel uint8) *Output {
	return &Output{
		name:     name,
		send:     send,
		channel:  channel,
		gate:     Gate,
		sounding: make(map[voice]struct{}),
	}
}

// OpenOutput opens the named output port, or the first one when name is empty
func OpenOutput(name string, channel uint8) (*Output, error) {
	var (
		port drivers.Out
		err  error
	)
	if name == "" {
		port, err = gomidi.OutPort(0)
	} else {
		port, err = gomidi.FindOutPort(name)
	}
	if err != nil {
		return nil, fmt.Errorf("find output %q: %w", name, err)
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	o := NewOutput(port.String(), send, channel)
	o.port = port
	return o, nil
}

// Name of the port
func (o *Output) Name() string {
	return o.name
}

// Connected reports whether the port is open
func (o *Output) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send != nil
}

// Play schedules rec from now, replacing anything already playing
func (o *Output) Play(rec recording.Recording) error {
	o.mu.Lock()
	if o.send == nil {
		o.mu.Unlock()
		return fmt.Errorf("output %s is closed", o.name)
	}
	o.silenceLocked()
	stop := make(chan struct{})
	o.stopChan = stop
	o.mu.Unlock()

	events := schedule(rec, o.channel, o.gate)
	debug.Log("midi", "playing %d messages on %s", len(events), o.name)
	go o.run(events, stop)
	return nil
}

// Audition sounds a single identifier for one gate length
func (o *Output) Audition(id string) error {
	e, err := recording.NewEvent(0, map[recording.Finger]string{recording.Thumb: id})
	if err != nil {
		return err
	}
	if len(sound.Parse(id).Keys()) == 0 {
		return nil
	}
	return o.Play(recording.New([]recording.Event{e}, 0))
}

// StopPlayback cancels the running schedule and releases held notes
func (o *Output) StopPlayback() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.silenceLocked()
}

// Close silences the port and closes it
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.silenceLocked()
	o.send = nil
	if o.port != nil {
		return o.port.Close()
	}
	return nil
}

func (o *Output) silenceLocked() error {
	if o.stopChan != nil {
		close(o.stopChan)
		o.stopChan = nil
	}
	var firstErr error
	for v := range o.sounding {
		if err := o.send(gomidi.NoteOff(v.channel, v.note)); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(o.sounding, v)
	}
	return firstErr
}

func (o *Output) run(events []Event, stop chan struct{}) {
	start := time.Now()
	for _, ev := range events {
		if wait := ev.At - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if !o.emit(ev, stop) {
			return
		}
	}

	o.mu.Lock()
	if o.stopChan == stop {
		o.stopChan = nil
	}
	o.mu.Unlock()
}

// emit sends ev unless its schedule was cancelled
func (o *Output) emit(ev Event, stop chan struct{}) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopChan != stop || o.send == nil {
		return false
	}
	if err := o.send(ev.Message()); err != nil {
		debug.Log("midi", "send: %v", err)
		return true
	}
	v := voice{ev.Channel, ev.Note}
	if ev.Type == NoteOn {
		o.sounding[v] = struct{}{}
	} else {
		delete(o.sounding, v)
	}
	return true
}
