package playback

import (
	"sync"
	"time"
)

// Stopwatch counts recording time in ticks. Each Start gets a fresh ticker and
// Stop cancels it before returning.
type Stopwatch struct {
	mu       sync.Mutex
	interval time.Duration
	elapsed  time.Duration
	stopChan chan struct{}
	updates  chan struct{}
}

// NewStopwatch returns a stopped stopwatch ticking every TickInterval
func NewStopwatch() *Stopwatch {
	return &Stopwatch{interval: TickInterval, updates: make(chan struct{}, 1)}
}

// Start resets the counter and starts ticking
func (w *Stopwatch) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	w.elapsed = 0
	w.stopChan = make(chan struct{})
	go w.loop(w.stopChan)
}

// Stop cancels the ticker and returns the final count in seconds
func (w *Stopwatch) Stop() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked()
	return w.elapsed.Seconds()
}

// Running reports whether the ticker is live
func (w *Stopwatch) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopChan != nil
}

// Elapsed returns counted seconds
func (w *Stopwatch) Elapsed() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed.Seconds()
}

// Updates signals on every tick
func (w *Stopwatch) Updates() <-chan struct{} {
	return w.updates
}

// Tick advances the count by one interval if running
func (w *Stopwatch) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tickLocked(w.stopChan)
}

// tickLocked ignores ticks from a ticker that has since been cancelled
func (w *Stopwatch) tickLocked(from chan struct{}) {
	if w.stopChan == nil || w.stopChan != from {
		return
	}
	w.elapsed += w.interval
	select {
	case w.updates <- struct{}{}:
	default:
	}
}

func (w *Stopwatch) loop(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.tickLocked(stop)
			w.mu.Unlock()
		}
	}
}

func (w *Stopwatch) cancelLocked() {
	if w.stopChan != nil {
		close(w.stopChan)
		w.stopChan = nil
	}
}
