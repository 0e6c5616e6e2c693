package bulk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/wayfinder/internal/archive"
	"github.com/five82/wayfinder/internal/dialog"
	"github.com/five82/wayfinder/internal/reconcile"
	"github.com/five82/wayfinder/internal/state"
	"github.com/five82/wayfinder/internal/waypoint"
)

func startController(t *testing.T) (*reconcile.Controller, *state.Store) {
	t.Helper()
	store := &state.Store{}
	c, err := reconcile.New(store)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = c.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, store
}

type recordingExporter struct {
	got []waypoint.Record
	err error
}

func (e *recordingExporter) Export(_ context.Context, records []waypoint.Record) (waypoint.Report, error) {
	e.got = append(e.got, records...)
	if e.err != nil {
		var r waypoint.Report
		for i, rec := range records {
			r.Skip(rec.ID, i, e.err)
		}
		return r, e.err
	}
	return waypoint.Report{Applied: len(records)}, nil
}

func TestExportSelectedOnlyExportsSelection(t *testing.T) {
	ctrl, store := startController(t)
	ctx := context.Background()
	_, err := ctrl.ApplyPush(ctx, []waypoint.Record{
		{ID: 1, Title: "Base"}, {ID: 2, Title: "Mine"}, {ID: 3, Title: "Lake"},
	})
	require.NoError(t, err)

	reg := dialog.NewRegistry(dialog.Options{Writer: ctrl})
	ctrl.Subscribe(reg)
	inst, err := reg.Open(store.Snapshot())
	require.NoError(t, err)
	_, err = inst.Toggle(ctx, 1)
	require.NoError(t, err)
	_, err = inst.Toggle(ctx, 3)
	require.NoError(t, err)

	exp := &recordingExporter{}
	report, err := New(exp, ctrl, nil).ExportSelected(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	require.Len(t, exp.got, 2)
	assert.Equal(t, waypoint.ID(1), exp.got[0].ID)
	assert.Equal(t, waypoint.ID(3), exp.got[1].ID)
}

func TestExportFailureIsReported(t *testing.T) {
	exp := &recordingExporter{err: waypoint.ErrExternalWrite}
	report, err := New(exp, nil, nil).Export(context.Background(), []waypoint.Record{{ID: 1, Title: "Base"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, waypoint.ErrExternalWrite)
	assert.Equal(t, 1, report.Failed())
}

func TestExportWithoutExporter(t *testing.T) {
	_, err := New(nil, nil, nil).Export(context.Background(), nil)
	assert.Error(t, err)
}

type flakyImporter struct{ fail map[waypoint.ID]bool }

func (f flakyImporter) Import(_ context.Context, rec waypoint.Record) (waypoint.Record, error) {
	if f.fail[rec.ID] {
		return waypoint.Record{}, errors.New("rejected")
	}
	return rec, nil
}

func TestImportFromContinuesPastFailures(t *testing.T) {
	o := New(nil, flakyImporter{fail: map[waypoint.ID]bool{2: true}}, nil)
	report := o.ImportFrom(context.Background(), []waypoint.Record{
		{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"},
	})
	assert.Equal(t, 2, report.Applied)
	require.Equal(t, 1, report.Failed())
	assert.Equal(t, waypoint.ID(2), report.Skipped[0].ID)
	assert.Equal(t, 1, report.Skipped[0].Index)
}

func TestImportFileThroughController(t *testing.T) {
	ctrl, store := startController(t)
	ctx := context.Background()
	_, err := ctrl.ApplyPush(ctx, []waypoint.Record{{ID: 1, Title: "Base"}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "in.json")
	content := `{"waypoints":[
		{"id": 1, "title": "Base copy", "enabled": true},
		{"id": "bad"},
		{"id": 9, "title": "Tower"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := archive.NewFileArchive(archive.FormatJSON, t.TempDir(), "w")
	report, err := New(nil, ctrl, nil).ImportFile(ctx, src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)
	assert.Equal(t, 1, report.Failed())

	snap := store.Snapshot()
	require.Len(t, snap.Records, 3)
	// id 1 was taken, so the copy got a fresh id
	assert.Equal(t, "Base copy", snap.Records[1].Title)
	assert.Equal(t, waypoint.ID(2), snap.Records[1].ID)
	assert.True(t, snap.Records[1].Enabled)
	assert.Equal(t, waypoint.ID(9), snap.Records[2].ID)
}

func TestImportFileMissing(t *testing.T) {
	src := archive.NewFileArchive(archive.FormatJSON, t.TempDir(), "w")
	_, err := New(nil, flakyImporter{}, nil).ImportFile(context.Background(), src, filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
