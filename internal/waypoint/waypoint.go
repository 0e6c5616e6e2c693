package waypoint

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ID identifies a waypoint within a single world.
type ID int

// Position is a point in world space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Finite reports whether every coordinate is a real number.
func (p Position) Finite() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Position) String() string {
	return fmt.Sprintf("%.0f, %.0f, %.0f", p.X, p.Y, p.Z)
}

// Record is a named, positioned marker in the game world.
type Record struct {
	ID       ID     `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Position `yaml:",inline"`
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color    string `json:"color,omitempty" yaml:"color,omitempty"`
	Pinned   bool   `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
}

// String shadows the promoted Position.String so a record prints as itself.
func (r Record) String() string {
	return fmt.Sprintf("#%d %q at %s", r.ID, r.Title, r.Position)
}

// Validate checks the record for the attributes every consumer relies on.
func (r Record) Validate() error {
	switch {
	case r.ID < 0:
		return fmt.Errorf("%w: negative id %d", ErrInvalidRecord, r.ID)
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: id %d has a blank title", ErrInvalidRecord, r.ID)
	case !r.Position.Finite():
		return fmt.Errorf("%w: id %d has a non-finite position", ErrInvalidRecord, r.ID)
	}
	return nil
}

// SameContent reports whether r and other agree on every game-owned
// attribute. Enabled is ignored.
func (r Record) SameContent(other Record) bool {
	return r.ID == other.ID &&
		r.Title == other.Title &&
		r.Position == other.Position &&
		r.Icon == other.Icon &&
		r.Color == other.Color &&
		r.Pinned == other.Pinned
}

var (
	// ErrNotFound is returned when an operation targets an ID that is not in
	// the store.
	ErrNotFound = errors.New("waypoint not found")
	// ErrInvalidRecord marks a record that is missing required attributes.
	ErrInvalidRecord = errors.New("invalid waypoint")
	// ErrDuplicateOpen is returned when the selection dialog is already open.
	ErrDuplicateOpen = errors.New("dialog already open")
	// ErrExternalWrite wraps a failure reported by an upstream collaborator.
	ErrExternalWrite = errors.New("external write failed")
)

// RecordError is a failure tied to a single record of a batch.
type RecordError struct {
	ID    ID
	Index int // position in the incoming batch, -1 when unknown
	Err   error
}

func (e RecordError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("waypoint %d (entry %d): %v", e.ID, e.Index, e.Err)
	}
	return fmt.Sprintf("waypoint %d: %v", e.ID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// Report summarises the outcome of a batch.
type Report struct {
	Applied int
	Removed int
	Skipped []RecordError
}

// Failed returns the number of records that could not be processed.
func (r Report) Failed() int { return len(r.Skipped) }

// Skip records a per-record failure.
func (r *Report) Skip(id ID, index int, err error) {
	r.Skipped = append(r.Skipped, RecordError{ID: id, Index: index, Err: err})
}

// Merge folds other into r.
func (r *Report) Merge(other Report) {
	r.Applied += other.Applied
	r.Removed += other.Removed
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Err joins the per-record failures, or returns nil when there are none.
func (r Report) Err() error {
	if len(r.Skipped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Skipped))
	for i, s := range r.Skipped {
		errs[i] = s
	}
	return errors.Join(errs...)
}

func (r Report) String() string {
	parts := []string{fmt.Sprintf("%d applied", r.Applied)}
	if r.Removed > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", r.Removed))
	}
	if n := r.Failed(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return strings.Join(parts, ", ")
}
