package midi

import (
	"context"
	"slices"
	"time"

	"ripple/debug"
)

// PortEvent is emitted when a port appears or disappears
type PortEvent struct {
	Type   PortEventType
	Name   string
	Output bool
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortDisconnected {
		return "disconnected"
	}
	return "connected"
}

// Watcher polls the driver for hot-plugged ports
type Watcher struct {
	events   chan PortEvent
	pollRate time.Duration
	list     func() PortList
	timeout  time.Duration
	seen     PortList
}

// NewWatcher creates a watcher on the system driver
func NewWatcher() *Watcher {
	return &Watcher{
		events:   make(chan PortEvent, 16),
		pollRate: time.Second,
		list:     driverPorts,
		timeout:  PortsTimeout,
	}
}

// Events returns port connect/disconnect events. Closed when Run returns.
func (w *Watcher) Events() <-chan PortEvent {
	return w.events
}

// Run polls until ctx is done (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	pl, err := scanPorts(w.list, w.timeout)
	if err != nil {
		// driver is hung - skip this scan
		debug.Log("midi", "port scan: %v", err)
		return
	}
	if pl.Equal(w.seen) {
		return
	}

	var events []PortEvent
	events = appendDiff(events, w.seen.In, pl.In, false)
	events = appendDiff(events, w.seen.Out, pl.Out, true)
	w.seen = pl

	for _, ev := range events {
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func appendDiff(events []PortEvent, before, after []string, output bool) []PortEvent {
	for _, name := range after {
		if !slices.Contains(before, name) {
			events = append(events, PortEvent{Type: PortConnected, Name: name, Output: output})
		}
	}
	for _, name := range before {
		if !slices.Contains(after, name) {
			events = append(events, PortEvent{Type: PortDisconnected, Name: name, Output: output})
		}
	}
	return events
}
