package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/waypoint"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 100; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type scriptedFetcher struct {
	calls atomic.Int32
	fail  int32 // number of leading calls that fail
}

func (f *scriptedFetcher) FetchWaypoints(context.Context) ([]waypoint.Record, waypoint.Report, error) {
	n := f.calls.Add(1)
	if n <= f.fail {
		return nil, waypoint.Report{}, errors.New("game not running")
	}
	return []waypoint.Record{{ID: 1, Title: "Base"}}, waypoint.Report{Applied: 1}, nil
}

func TestPollerDispatchesBatches(t *testing.T) {
	fetcher := &scriptedFetcher{fail: 1}
	sink := newRecordingSink()
	health := &recordingHealth{}
	p := NewPoller(fetcher, sink, health, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case e := <-sink.ch:
		assert.Equal(t, dispatcher.CommandWaypointsPush, e.Command)
		assert.Equal(t, "http", e.Source)
		require.Len(t, e.Waypoints, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("poller never dispatched a batch")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, health.count())
}

func TestNewPollerDefaultInterval(t *testing.T) {
	p := NewPoller(&scriptedFetcher{}, newRecordingSink(), nil, 0, nil)
	assert.Equal(t, defaultPollInterval, p.interval)
}
