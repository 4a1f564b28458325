package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"ripple/debug"
	"ripple/playback"
	"ripple/protocol"
	"ripple/recording"
	"ripple/sound"
)

// ThresholdDebounce is how long threshold edits settle before being sent
const ThresholdDebounce = 150 * time.Millisecond

// Sender delivers commands to the glove server
type Sender interface {
	Send(cmd protocol.Command) error
}

// Controller owns the session state and turns user actions into server
// commands. It is the playback sink for the scheduler it owns: playback is
// only possible while the server reports the glove connected.
//
// State is only touched from the caller's goroutine (the UI loop).
type Controller struct {
	State     *State
	Playback  *playback.Scheduler
	Stopwatch *playback.Stopwatch

	mu        sync.Mutex
	sender    Sender
	debounced func(func())
}

// NewController wires a controller to sender (which may be nil until a
// connection is made). A zero wait uses ThresholdDebounce.
func NewController(sender Sender, wait time.Duration) *Controller {
	if wait <= 0 {
		wait = ThresholdDebounce
	}
	c := &Controller{
		State:     NewState(),
		Stopwatch: playback.NewStopwatch(),
		sender:    sender,
		debounced: debounce.New(wait),
	}
	c.Playback = playback.NewScheduler(c, nil)
	return c
}

// SetSender swaps the transport, e.g. after reconnecting
func (c *Controller) SetSender(s Sender) {
	c.mu.Lock()
	c.sender = s
	c.mu.Unlock()
}

func (c *Controller) send(cmd protocol.Command) error {
	c.mu.Lock()
	s := c.sender
	c.mu.Unlock()
	if s == nil {
		return protocol.ErrClosed
	}
	return s.Send(cmd)
}

// Connected reports whether playback can reach the glove
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sender != nil && c.State.Connected
}

// Play sends the playback command
func (c *Controller) Play(rec recording.Recording) error {
	return c.send(protocol.Playback(rec))
}

// StopPlayback sends the stop command
func (c *Controller) StopPlayback() error {
	return c.send(protocol.StopPlayback())
}

// Handle applies a server message and runs its side effects
func (c *Controller) Handle(msg protocol.Inbound) {
	c.mu.Lock()
	c.State.Apply(msg)
	connected := c.State.Connected
	c.mu.Unlock()

	switch m := msg.(type) {
	case protocol.RecordingStarted:
		c.Stopwatch.Start()
	case protocol.RecordingStopped:
		c.Stopwatch.Stop()
	case protocol.PlaybackStopped:
		c.Playback.ServerStopped()
	case protocol.Status:
		if !connected {
			c.Playback.ServerStopped()
		}
	case protocol.Error:
		debug.L().Warn("server error", zap.String("message", m.Message))
	case protocol.Unknown:
		debug.Log("session", "ignoring message type %q", m.Type)
	}
}

// SocketClosed resets everything the connection carried
func (c *Controller) SocketClosed() {
	c.mu.Lock()
	c.sender = nil
	c.State.Disconnected()
	c.mu.Unlock()

	c.Playback.ServerStopped()
	c.Stopwatch.Stop()
}

func (c *Controller) Connect() error    { return c.send(protocol.Connect()) }
func (c *Controller) Disconnect() error { return c.send(protocol.Disconnect()) }
func (c *Controller) Calibrate() error  { return c.send(protocol.Calibrate()) }

// SelectPreset switches preset locally and on the server
func (c *Controller) SelectPreset(name string) error {
	c.mu.Lock()
	c.State.CurrentPreset = name
	c.mu.Unlock()
	return c.send(protocol.SetPreset(name))
}

func (c *Controller) StartTutorial(id string) error { return c.send(protocol.StartTutorial(id)) }
func (c *Controller) ResetTutorial() error          { return c.send(protocol.ResetTutorial()) }

// ExitTutorial goes back to play mode
func (c *Controller) ExitTutorial() error {
	c.mu.Lock()
	c.State.ExitTutorial()
	c.mu.Unlock()
	return c.send(protocol.SetMode(ModePlay))
}

// Audition plays one finger's sound on the server
func (c *Controller) Audition(f recording.Finger) error {
	return c.send(protocol.Audition(f))
}

// SetSound assigns s to finger f in the custom preset and emits the
// mapping-edit command with the encoded identifier and its kind.
func (c *Controller) SetSound(f recording.Finger, s sound.Sound) error {
	if err := s.Valid(); err != nil {
		return err
	}
	if _, err := recording.ParseFinger(string(f)); err != nil {
		return err
	}

	c.mu.Lock()
	c.State.setCustom(f, s.String())
	c.State.CustomTypes[f] = s.Kind
	c.mu.Unlock()

	debug.Log("session", "mapping %s -> %s (%s)", f, s, s.Kind)
	return c.send(protocol.SetMapping(f, s))
}

// SetThreshold applies v now and sends it once edits settle
func (c *Controller) SetThreshold(v float64) {
	v = min(max(v, 0), 1)
	c.mu.Lock()
	c.State.Threshold = v
	c.mu.Unlock()

	c.debounced(func() {
		if err := c.send(protocol.SetThreshold(v)); err != nil {
			debug.Log("session", "set threshold: %v", err)
		}
	})
}

func (c *Controller) StartRecording() error { return c.send(protocol.StartRecording()) }
func (c *Controller) StopRecording() error  { return c.send(protocol.StopRecording()) }

// TogglePlayback plays rec, or stops it if it is already playing
func (c *Controller) TogglePlayback(rec recording.Recording) error {
	if err := c.Playback.Toggle(rec); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}

// Close cancels timers
func (c *Controller) Close() {
	c.Playback.Close()
	c.Stopwatch.Stop()
}
