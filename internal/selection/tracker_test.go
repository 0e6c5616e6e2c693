package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wayfinder/internal/view"
	"github.com/five82/wayfinder/internal/waypoint"
)

type fakeWriter struct {
	calls map[waypoint.ID]bool
	err   error
}

func (f *fakeWriter) SetEnabled(_ context.Context, id waypoint.ID, enabled bool) error {
	if f.err != nil {
		return f.err
	}
	if f.calls == nil {
		f.calls = make(map[waypoint.ID]bool)
	}
	f.calls[id] = enabled
	return nil
}

func entries(recs ...waypoint.Record) []view.Entry {
	return view.Project(recs, view.DefaultCriteria())
}

func TestSeedFromEnabled(t *testing.T) {
	tr := NewTracker(nil)
	tr.Seed(entries(
		waypoint.Record{ID: 1, Title: "Base", Enabled: true},
		waypoint.Record{ID: 2, Title: "Mine"},
		waypoint.Record{ID: 3, Title: "Lake", Enabled: true},
	))

	assert.Equal(t, 2, tr.Count())
	assert.True(t, tr.IsSelected(1))
	assert.False(t, tr.IsSelected(2))
	assert.Equal(t, []waypoint.ID{1, 3}, tr.Selected())

	tr.Seed(entries(waypoint.Record{ID: 2, Title: "Mine"}))
	assert.Equal(t, 0, tr.Count())
	assert.False(t, tr.IsSelected(1))
}

func TestToggleWritesBack(t *testing.T) {
	w := &fakeWriter{}
	tr := NewTracker(w)
	tr.Seed(entries(waypoint.Record{ID: 2, Title: "Mine"}))

	on, err := tr.Toggle(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, tr.Count())
	assert.True(t, w.calls[2])

	on, err = tr.Toggle(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, w.calls[2])
}

func TestToggleRevertsOnWriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	tr := NewTracker(w)
	tr.Seed(entries(waypoint.Record{ID: 2, Title: "Mine"}))

	on, err := tr.Toggle(context.Background(), 2)
	require.Error(t, err)
	assert.False(t, on)
	assert.False(t, tr.IsSelected(2))
	assert.Equal(t, 0, tr.Count())
}

func TestToggleUnknownID(t *testing.T) {
	tr := NewTracker(nil)
	_, err := tr.Toggle(context.Background(), 99)
	assert.ErrorIs(t, err, waypoint.ErrNotFound)
}
