package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ripple/debug"
	"ripple/recording"
)

// TickInterval is how often progress is recomputed while playing
const TickInterval = 100 * time.Millisecond

// ErrNotConnected is returned when playback is requested without a reachable sink
var ErrNotConnected = errors.New("not connected")

// State of the scheduler
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Clock supplies wall-clock time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real clock
var SystemClock Clock = systemClock{}

// Sink is whatever actually produces sound: the glove server or a local MIDI port.
// The scheduler only tells it when to start and stop.
type Sink interface {
	Connected() bool
	Play(rec recording.Recording) error
	StopPlayback() error
}

// Status is a snapshot of the playback session
type Status struct {
	State       State
	RecordingID int64
	Elapsed     float64
	Duration    float64
}

// Progress returns elapsed/duration in [0,1]
func (s Status) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(1, s.Elapsed/s.Duration)
}

// Scheduler tracks playback progress for the UI. It owns a ticker goroutine
// while Playing; every transition to Idle cancels it.
type Scheduler struct {
	mu       sync.Mutex
	sink     Sink
	clock    Clock
	interval time.Duration

	state    State
	recID    int64
	duration float64
	started  time.Time
	elapsed  float64
	stopChan chan struct{}

	updates chan struct{}
}

// NewScheduler creates an idle scheduler. A nil clock uses SystemClock.
func NewScheduler(sink Sink, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{
		sink:     sink,
		clock:    clock,
		interval: TickInterval,
		updates:  make(chan struct{}, 1),
	}
}

// Updates signals whenever Status changes
func (s *Scheduler) Updates() <-chan struct{} {
	return s.updates
}

// Status returns the current snapshot
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Playing reports whether recording id is the one currently playing
func (s *Scheduler) Playing(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Playing && s.recID == id
}

// Start begins playback of rec. Without a connected sink it fails with
// ErrNotConnected and nothing changes. Starting while playing restarts.
func (s *Scheduler) Start(rec recording.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sink == nil || !s.sink.Connected() {
		return ErrNotConnected
	}
	if err := s.sink.Play(rec); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	s.cancelLocked()
	s.state = Playing
	s.recID = rec.ID
	clone := rec.Clone()
	s.duration = clone.RecomputeDuration()
	s.started = s.clock.Now()
	s.elapsed = 0
	s.stopChan = make(chan struct{})
	go s.loop(s.stopChan)

	debug.Log("playback", "start id=%d duration=%.2f events=%d", rec.ID, s.duration, len(rec.Events))
	s.notify()
	return nil
}

// Stop ends playback immediately and asks the sink to stop
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return nil
	}
	s.idleLocked()
	debug.Log("playback", "stop id=%d", s.recID)
	if s.sink == nil || !s.sink.Connected() {
		return nil
	}
	if err := s.sink.StopPlayback(); err != nil {
		return fmt.Errorf("stop playback: %w", err)
	}
	return nil
}

// Toggle stops rec if it is the one playing, otherwise starts it
func (s *Scheduler) Toggle(rec recording.Recording) error {
	if s.Playing(rec.ID) {
		return s.Stop()
	}
	return s.Start(rec)
}

// ServerStopped handles the sink reporting that playback ended on its side
func (s *Scheduler) ServerStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		s.idleLocked()
	}
}

// Tick recomputes elapsed from the clock and auto-stops once the recording's
// duration is reached. It is called by the ticker goroutine.
func (s *Scheduler) Tick() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked(s.stopChan)
}

func (s *Scheduler) tickLocked(from chan struct{}) Status {
	if s.state != Playing || s.stopChan != from {
		return s.statusLocked()
	}
	s.elapsed = s.clock.Now().Sub(s.started).Seconds()
	if s.elapsed >= s.duration {
		debug.Log("playback", "finished id=%d", s.recID)
		s.idleLocked()
		return s.statusLocked()
	}
	s.notify()
	return s.statusLocked()
}

// Close cancels the ticker without talking to the sink
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.state = Idle
	s.elapsed = 0
}

func (s *Scheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.tickLocked(stop)
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) idleLocked() {
	s.cancelLocked()
	s.state = Idle
	s.elapsed = 0
	s.notify()
}

func (s *Scheduler) cancelLocked() {
	if s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
}

func (s *Scheduler) statusLocked() Status {
	return Status{State: s.state, RecordingID: s.recID, Elapsed: s.elapsed, Duration: s.duration}
}

func (s *Scheduler) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
