package watcher

import (
	"sync"
	"time"
)

// Change is one coalesced file system change.
type Change struct {
	Path string
	Kind ChangeKind
}

// ChangeKind is the type of file system operation.
type ChangeKind int

const (
	Created ChangeKind = iota
	Written
	Removed
	Renamed
)

// IsRemoval reports whether the path no longer exists under its old name.
func (k ChangeKind) IsRemoval() bool {
	return k == Removed || k == Renamed
}

// Debouncer collects changes and emits them as one batch after a quiet period.
// Repeated changes to the same path within the window collapse into the latest.
type Debouncer struct {
	interval time.Duration
	pending  map[string]Change
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []Change
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]Change),
		output:   make(chan []Change, 16),
	}
}

// Output returns the channel that receives batches.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Add records a change and restarts the quiet period.
func (d *Debouncer) Add(path string, kind ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = Change{Path: path, Kind: kind}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels a pending flush. Changes not yet flushed are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[string]Change)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return
	}

	batch := make([]Change, 0, len(d.pending))
	for _, change := range d.pending {
		batch = append(batch, change)
	}

	d.pending = make(map[string]Change)
	d.output <- batch
}
