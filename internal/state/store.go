package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/wayfinder/internal/waypoint"
)

// Snapshot represents the waypoint list and feed health at a point in time.
type Snapshot struct {
	Records             []waypoint.Record // insertion order
	LastSync            time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive feed failures
}

// IsOffline returns true when the feed has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Find returns the record with the given ID.
func (s Snapshot) Find(id waypoint.ID) (waypoint.Record, bool) {
	for _, rec := range s.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return waypoint.Record{}, false
}

// Store holds the canonical waypoint list. Records keep the slot they were
// first inserted into; an upsert of an existing ID replaces it in place.
type Store struct {
	mu      sync.RWMutex
	records []waypoint.Record
	index   map[waypoint.ID]int

	lastSync            time.Time
	lastError           error
	consecutiveFailures int
}

// Upsert inserts rec or replaces the record with the same ID.
func (s *Store) Upsert(rec waypoint.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		s.index = make(map[waypoint.ID]int)
	}
	if i, ok := s.index[rec.ID]; ok {
		s.records[i] = rec
		return
	}
	s.index[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
}

// Remove deletes the record with the given ID.
func (s *Store) Remove(id waypoint.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("remove %d: %w", id, waypoint.ErrNotFound)
	}
	s.records = slices.Delete(s.records, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].ID] = j
	}
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id waypoint.ID) (waypoint.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return waypoint.Record{}, false
	}
	return s.records[i], true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MaxID returns the largest stored ID, or zero when empty.
func (s *Store) MaxID() waypoint.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxID waypoint.ID
	for _, rec := range s.records {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	return maxID
}

// RecordFeedSuccess clears the feed error state.
func (s *Store) RecordFeedSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = nil
	s.lastSync = time.Now()
	s.consecutiveFailures = 0
}

// RecordFeedError records a failed feed attempt. Stored records are kept.
func (s *Store) RecordFeedError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.consecutiveFailures++
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Records:             slices.Clone(s.records),
		LastSync:            s.lastSync,
		ConsecutiveFailures: s.consecutiveFailures,
	}
	if s.lastError != nil {
		snap.LastError = fmt.Errorf("%w", s.lastError)
	}
	return snap
}
