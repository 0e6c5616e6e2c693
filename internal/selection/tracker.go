// Package selection tracks which projected waypoints are selected for bulk
// actions. The flag lives on the record itself (Enabled); the tracker mirrors
// it for the rows currently shown and writes every change back.
package selection

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/five82/wayfinder/internal/view"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Writer persists a selection change on the underlying record.
type Writer interface {
	SetEnabled(ctx context.Context, id waypoint.ID, enabled bool) error
}

// Tracker holds per-row selection flags.
type Tracker struct {
	writer Writer

	mu    sync.Mutex
	order []waypoint.ID
	flags map[waypoint.ID]bool
}

// NewTracker returns an empty tracker that writes changes through w.
func NewTracker(w Writer) *Tracker {
	return &Tracker{writer: w, flags: make(map[waypoint.ID]bool)}
}

// Seed rebuilds the flags from the entries' Enabled attribute. IDs that are
// not in entries are dropped.
func (t *Tracker) Seed(entries []view.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = t.order[:0]
	t.flags = make(map[waypoint.ID]bool, len(entries))
	for _, e := range entries {
		t.order = append(t.order, e.ID)
		t.flags[e.ID] = e.Enabled
	}
}

// Toggle flips the flag for id and writes the new value back. If the write
// fails the flag is restored and the error returned.
func (t *Tracker) Toggle(ctx context.Context, id waypoint.ID) (bool, error) {
	t.mu.Lock()
	prev, ok := t.flags[id]
	if !ok {
		t.mu.Unlock()
		return false, fmt.Errorf("toggle %d: %w", id, waypoint.ErrNotFound)
	}
	next := !prev
	t.flags[id] = next
	t.mu.Unlock()

	if t.writer == nil {
		return next, nil
	}
	if err := t.writer.SetEnabled(ctx, id, next); err != nil {
		t.mu.Lock()
		if cur, ok := t.flags[id]; ok && cur == next {
			t.flags[id] = prev
		}
		t.mu.Unlock()
		return prev, fmt.Errorf("toggle %d: %w", id, err)
	}
	return next, nil
}

// Count returns the number of selected rows.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, on := range t.flags {
		if on {
			n++
		}
	}
	return n
}

// IsSelected reports whether id is selected.
func (t *Tracker) IsSelected(id waypoint.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flags[id]
}

// Selected returns the selected IDs in seed order.
func (t *Tracker) Selected() []waypoint.ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]waypoint.ID, 0, len(t.order))
	for _, id := range t.order {
		if t.flags[id] {
			out = append(out, id)
		}
	}
	return slices.Clip(out)
}
