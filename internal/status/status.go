// Package status provides a thread-safe status tracker for the gpio-mirror daemon.
// It is written by the edge handler and read by the shutdown log and -print-state.
package status

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	StartTime time.Time
	Now       time.Time
	Chip      string

	// Edges counts handler invocations, including failed ones.
	Edges  uint64
	Errors uint64
	// LastError is the most recent handler error, empty if none.
	LastError string

	// Input is the last sampled switch bits (0-3).
	Input uint32
	// Output is the last value written to the output bank.
	Output uint32
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and chip name.
func NewTracker(startTime time.Time, chip string) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Chip:      chip,
		},
	}
}

// SetOutput records a write to the output bank made outside the handler,
// such as the startup pattern.
func (t *Tracker) SetOutput(output uint32) {
	t.mu.Lock()
	t.snap.Output = output
	t.mu.Unlock()
}

// RecordEdge records a handled edge that sampled input and wrote output.
func (t *Tracker) RecordEdge(input, output uint32) {
	t.mu.Lock()
	t.snap.Edges++
	t.snap.Input = input
	t.snap.Output = output
	t.mu.Unlock()
}

// RecordError records a handled edge that failed.
func (t *Tracker) RecordError(err error) {
	t.mu.Lock()
	t.snap.Edges++
	t.snap.Errors++
	t.snap.LastError = err.Error()
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
