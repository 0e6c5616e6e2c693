package dialog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/five82/wayfinder/internal/selection"
	"github.com/five82/wayfinder/internal/view"
	"github.com/five82/wayfinder/internal/waypoint"
)

// ErrClosed is returned by operations on an instance after Close.
var ErrClosed = errors.New("dialog closed")

// Recenterer moves the map view onto a waypoint.
type Recenterer interface {
	Recenter(ctx context.Context, rec waypoint.Record) error
}

// EditForm carries a record into the edit form. Draft starts as a copy of
// Original and is what the form mutates.
type EditForm struct {
	Original waypoint.Record
	Draft    waypoint.Record
}

// Changed reports whether the draft differs from the original.
func (f EditForm) Changed() bool {
	return !f.Original.SameContent(f.Draft)
}

// Instance is a live selection dialog.
type Instance struct {
	tracker  *selection.Tracker
	recenter Recenterer

	refresh chan struct{}

	mu         sync.Mutex
	closed     bool
	records    []waypoint.Record
	criteria   view.Criteria
	entries    []view.Entry
	lastReport waypoint.Report
}

func newInstance(records []waypoint.Record, opts Options) *Instance {
	inst := &Instance{
		tracker:  selection.NewTracker(opts.Writer),
		recenter: opts.Recenter,
		refresh:  make(chan struct{}, 1),
		records:  slices.Clone(records),
		criteria: view.DefaultCriteria(),
	}
	inst.reprojectLocked()
	return inst
}

// Refresh is signalled whenever the projection changes. It is closed when
// the instance is closed.
func (i *Instance) Refresh() <-chan struct{} { return i.refresh }

// Entries returns the current projection.
func (i *Instance) Entries() []view.Entry {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.entries)
}

// Criteria returns the active filter and sort.
func (i *Instance) Criteria() view.Criteria {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.criteria
}

// SetFilter changes the filter text.
func (i *Instance) SetFilter(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.criteria.Filter = text
	i.reprojectLocked()
}

// SetSort changes the sort order.
func (i *Instance) SetSort(order view.SortOrder) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.criteria.Sort = order
	i.reprojectLocked()
}

// CycleSort advances to the next sort order and returns it.
func (i *Instance) CycleSort() view.SortOrder {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.criteria.Sort = i.criteria.Sort.Next()
	i.reprojectLocked()
	return i.criteria.Sort
}

// SelectedCount returns how many projected rows are selected.
func (i *Instance) SelectedCount() int { return i.tracker.Count() }

// IsSelected reports whether id is selected.
func (i *Instance) IsSelected(id waypoint.ID) bool { return i.tracker.IsSelected(id) }

// Selected returns the selected records in projection order.
func (i *Instance) Selected() []waypoint.Record {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]waypoint.Record, 0)
	for _, e := range i.entries {
		if i.tracker.IsSelected(e.ID) {
			rec := e.Record
			rec.Enabled = true
			out = append(out, rec)
		}
	}
	return out
}

// LastReport returns the report of the most recent change seen by the
// instance.
func (i *Instance) LastReport() waypoint.Report {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastReport
}

// Toggle flips the selection of id.
func (i *Instance) Toggle(ctx context.Context, id waypoint.ID) (bool, error) {
	if i.isClosed() {
		return false, ErrClosed
	}
	on, err := i.tracker.Toggle(ctx, id)
	if err != nil {
		return on, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if idx := i.recordIndexLocked(id); idx >= 0 {
		i.records[idx].Enabled = on
	}
	for k := range i.entries {
		if i.entries[k].ID == id {
			i.entries[k].Enabled = on
		}
	}
	i.signalLocked()
	return on, nil
}

// Recenter asks the map to focus on id.
func (i *Instance) Recenter(ctx context.Context, id waypoint.ID) error {
	rec, err := i.lookup(id)
	if err != nil {
		return err
	}
	if i.recenter == nil {
		return nil
	}
	if err := i.recenter.Recenter(ctx, rec); err != nil {
		return fmt.Errorf("recenter %d: %w", id, err)
	}
	return nil
}

// EditForm returns a form pre-filled with the record for id.
func (i *Instance) EditForm(id waypoint.ID) (EditForm, error) {
	rec, err := i.lookup(id)
	if err != nil {
		return EditForm{}, err
	}
	return EditForm{Original: rec, Draft: rec}, nil
}

func (i *Instance) lookup(id waypoint.ID) (waypoint.Record, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return waypoint.Record{}, ErrClosed
	}
	for _, e := range i.entries {
		if e.ID == id {
			return e.Record, nil
		}
	}
	return waypoint.Record{}, fmt.Errorf("dialog entry %d: %w", id, waypoint.ErrNotFound)
}

func (i *Instance) update(records []waypoint.Record, report waypoint.Report) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.records = slices.Clone(records)
	i.lastReport = report
	i.reprojectLocked()
}

func (i *Instance) close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	close(i.refresh)
}

func (i *Instance) isClosed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed
}

func (i *Instance) reprojectLocked() {
	i.entries = view.Project(i.records, i.criteria)
	i.tracker.Seed(i.entries)
	i.signalLocked()
}

// signalLocked must not run after close.
func (i *Instance) signalLocked() {
	if i.closed {
		return
	}
	select {
	case i.refresh <- struct{}{}:
	default:
	}
}

func (i *Instance) recordIndexLocked(id waypoint.ID) int {
	for k, rec := range i.records {
		if rec.ID == id {
			return k
		}
	}
	return -1
}
