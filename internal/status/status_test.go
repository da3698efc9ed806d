package status

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, "gpiochip0")

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Chip != "gpiochip0" {
		t.Errorf("Chip: got %q, want gpiochip0", snap.Chip)
	}
	if snap.Edges != 0 || snap.Errors != 0 {
		t.Errorf("expected zero counts initially, got edges=%d errors=%d", snap.Edges, snap.Errors)
	}
	if snap.LastError != "" {
		t.Errorf("expected no LastError initially, got %q", snap.LastError)
	}
}

func TestRecordEdge(t *testing.T) {
	tr := NewTracker(time.Now(), "")
	tr.SetOutput(3)
	if got := tr.Snapshot().Output; got != 3 {
		t.Errorf("Output after SetOutput: got %d, want 3", got)
	}

	tr.RecordEdge(2, 2)
	tr.RecordEdge(0, 0)

	snap := tr.Snapshot()
	if snap.Edges != 2 {
		t.Errorf("Edges: got %d, want 2", snap.Edges)
	}
	if snap.Input != 0 || snap.Output != 0 {
		t.Errorf("expected last input/output 0/0, got %d/%d", snap.Input, snap.Output)
	}
	if snap.Errors != 0 {
		t.Errorf("Errors: got %d, want 0", snap.Errors)
	}
}

func TestRecordError(t *testing.T) {
	tr := NewTracker(time.Now(), "")
	tr.RecordEdge(1, 1)
	tr.RecordError(errors.New("read bank: gpio fault"))

	snap := tr.Snapshot()
	if snap.Edges != 2 {
		t.Errorf("Edges: got %d, want 2", snap.Edges)
	}
	if snap.Errors != 1 {
		t.Errorf("Errors: got %d, want 1", snap.Errors)
	}
	if snap.LastError != "read bank: gpio fault" {
		t.Errorf("LastError: got %q", snap.LastError)
	}
	// A failed edge leaves the last good sample in place.
	if snap.Input != 1 || snap.Output != 1 {
		t.Errorf("expected last input/output 1/1, got %d/%d", snap.Input, snap.Output)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "")

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), "")
	tr.RecordEdge(3, 3)

	snap1 := tr.Snapshot()

	tr.RecordEdge(0, 0)

	if snap1.Input != 3 || snap1.Edges != 1 {
		t.Error("snapshot should be a copy; state was modified")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), "")
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := uint32(i % 4)
			tr.RecordEdge(v, v)
			if i%100 == 0 {
				tr.RecordError(errors.New("fault"))
			}
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()

	if got := tr.Snapshot().Edges; got != 1010 {
		t.Errorf("Edges: got %d, want 1010", got)
	}
}
