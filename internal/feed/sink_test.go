package feed

import (
	"sync"

	"github.com/five82/wayfinder/internal/dispatcher"
)

// recordingSink collects dispatched events.
type recordingSink struct {
	mu     sync.Mutex
	events []dispatcher.Event
	ch     chan dispatcher.Event
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan dispatcher.Event, 64)}
}

func (s *recordingSink) Dispatch(e dispatcher.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	select {
	case s.ch <- e:
	default:
	}
	return nil
}

type recordingHealth struct {
	mu   sync.Mutex
	errs []error
}

func (h *recordingHealth) RecordFeedError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *recordingHealth) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.errs)
}
