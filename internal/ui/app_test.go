package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wayfinder/internal/archive"
	"github.com/five82/wayfinder/internal/bulk"
	"github.com/five82/wayfinder/internal/dialog"
	"github.com/five82/wayfinder/internal/prefs"
	"github.com/five82/wayfinder/internal/reconcile"
	"github.com/five82/wayfinder/internal/state"
	"github.com/five82/wayfinder/internal/waypoint"
)

type fakeBulk struct {
	exported []waypoint.Record
	imported string
	report   waypoint.Report
}

func (f *fakeBulk) ExportSelected(_ context.Context, sel bulk.Selection) (waypoint.Report, error) {
	f.exported = sel.Selected()
	return f.report, nil
}

func (f *fakeBulk) ImportFile(_ context.Context, _ archive.Importer, source string) (waypoint.Report, error) {
	f.imported = source
	return f.report, nil
}

type fakeImporter struct{}

func (fakeImporter) Import(context.Context, string) ([]waypoint.Record, waypoint.Report, error) {
	return nil, waypoint.Report{}, nil
}

type testEnv struct {
	ctrl     *reconcile.Controller
	store    *state.Store
	registry *dialog.Registry
	bulk     *fakeBulk
	prefs    string
}

func newTestEnv(t *testing.T, recs ...waypoint.Record) *testEnv {
	t.Helper()
	store := &state.Store{}
	ctrl, err := reconcile.New(store)
	if err != nil {
		t.Fatalf("reconcile.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	reg := dialog.NewRegistry(dialog.Options{Writer: ctrl})
	ctrl.Subscribe(reg)

	if len(recs) > 0 {
		if _, err := ctrl.ApplyPush(context.Background(), recs); err != nil {
			t.Fatalf("ApplyPush: %v", err)
		}
	}
	return &testEnv{
		ctrl:     ctrl,
		store:    store,
		registry: reg,
		bulk:     &fakeBulk{},
		prefs:    filepath.Join(t.TempDir(), "prefs.toml"),
	}
}

func (e *testEnv) model(opts Options) Model {
	opts.Store = e.store
	opts.Registry = e.registry
	opts.Editor = e.ctrl
	opts.Bulk = e.bulk
	opts.Importer = fakeImporter{}
	opts.PrefsPath = e.prefs
	m := New(opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func rec(id int, title string) waypoint.Record {
	return waypoint.Record{ID: waypoint.ID(id), Title: title}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd and feeds its message back, as the Bubble Tea runtime would.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func titles(m Model) []string {
	var out []string
	for _, e := range m.dialog.Entries() {
		out = append(out, e.Title)
	}
	return out
}

func TestOpenDialogOnce(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"), rec(2, "Camp"))
	m := env.model(Options{})

	m, cmd := press(t, m, runes("w"))
	if m.dialog == nil || cmd == nil {
		t.Fatalf("dialog not opened")
	}
	first := m.dialog

	m, _ = press(t, m, runes("w"))
	if m.dialog != first {
		t.Fatalf("second w replaced the dialog")
	}
	if !env.registry.IsOpen() {
		t.Fatalf("registry should be open")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.dialog != nil || env.registry.IsOpen() {
		t.Fatalf("esc should close the dialog")
	}
}

func TestFilterSortAndToggle(t *testing.T) {
	env := newTestEnv(t, rec(1, "Bravo"), rec(2, "alpha"), rec(3, "Base camp"))
	m := env.model(Options{})
	m, _ = press(t, m, runes("w"))

	m, _ = press(t, m, runes("s"))
	if got := strings.Join(titles(m), ","); got != "Base camp,alpha,Bravo" {
		t.Fatalf("order after sort = %s, want index descending", got)
	}

	m, _ = press(t, m, runes("/"))
	if !m.filtering {
		t.Fatalf("filter input not focused")
	}
	m, _ = press(t, m, runes("b"))
	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Fatalf("enter should leave filter mode")
	}
	if got := len(m.dialog.Entries()); got != 1 {
		t.Fatalf("filtered entries = %v, want only Base camp", titles(m))
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = run(t, m, cmd)
	if !m.dialog.IsSelected(3) {
		t.Fatalf("Base camp should be selected")
	}
	if stored, _ := env.store.Get(3); !stored.Enabled {
		t.Fatalf("toggle did not reach the store")
	}
	if !strings.Contains(m.View(), "1 selected") {
		t.Fatalf("footer should show the selected count")
	}
}

func TestAddThroughForm(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"))
	m := env.model(Options{})
	m, _ = press(t, m, runes("w"))

	m, _ = press(t, m, runes("a"))
	if m.modal == nil {
		t.Fatalf("add should open the form")
	}
	for _, r := range "Ridge" {
		m, _ = press(t, m, runes(string(r)))
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != nil {
		t.Fatalf("form should close on submit")
	}
	m, cmd = press(t, m, cmd())
	m = run(t, m, cmd)
	if m.flashErr {
		t.Fatalf("add failed: %s", m.flash)
	}

	snap := env.store.Snapshot()
	if len(snap.Records) != 2 || snap.Records[1].Title != "Ridge" || snap.Records[1].ID != 2 {
		t.Fatalf("records = %+v, want Ridge as #2", snap.Records)
	}
}

func TestFormRejectsBlankTitle(t *testing.T) {
	env := newTestEnv(t)
	m := env.model(Options{})
	m, _ = press(t, m, runes("w"))
	m, _ = press(t, m, runes("a"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.modal == nil {
		t.Fatalf("blank title should keep the form open")
	}
	form, ok := m.modal.(*formModal)
	if !ok || !strings.Contains(form.err, "blank title") {
		t.Fatalf("form should carry the validation error, got %#v", m.modal)
	}
}

func TestDeleteWithConfirmation(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"), rec(2, "Camp"))
	m := env.model(Options{})
	m, _ = press(t, m, runes("w"))

	m, _ = press(t, m, runes("d"))
	if m.modal == nil {
		t.Fatalf("delete should ask for confirmation")
	}
	m, cmd := press(t, m, runes("y"))
	m, cmd = press(t, m, cmd())
	m = run(t, m, cmd)
	if m.flashErr {
		t.Fatalf("delete failed: %s", m.flash)
	}
	if _, ok := env.store.Get(1); ok {
		t.Fatalf("record 1 should be gone")
	}
	if got := len(m.dialog.Entries()); got != 1 {
		t.Fatalf("entries = %v, want only Camp", titles(m))
	}
}

func TestExportAndImport(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"), rec(2, "Camp"))
	env.bulk.report = waypoint.Report{Applied: 1}
	env.bulk.report.Skip(2, 1, waypoint.ErrInvalidRecord)

	m := env.model(Options{ImportPath: "/tmp/seed.json"})
	m, _ = press(t, m, runes("w"))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	m = run(t, m, cmd)

	m, cmd = press(t, m, runes("x"))
	m = run(t, m, cmd)
	if len(env.bulk.exported) != 1 || env.bulk.exported[0].ID != 1 {
		t.Fatalf("exported = %+v, want record 1", env.bulk.exported)
	}
	if !strings.Contains(m.View(), "1 failed") {
		t.Fatalf("footer should show the failure count")
	}

	m, cmd = press(t, m, runes("i"))
	_ = run(t, m, cmd)
	if env.bulk.imported != "/tmp/seed.json" {
		t.Fatalf("imported = %q, want /tmp/seed.json", env.bulk.imported)
	}
}

func TestImportPromptsWithoutConfiguredPath(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"))
	m := env.model(Options{})
	m, _ = press(t, m, runes("w"))

	m, _ = press(t, m, runes("i"))
	if m.modal == nil {
		t.Fatalf("import should prompt for a source")
	}
	for _, r := range "/tmp/in.yaml" {
		m, _ = press(t, m, runes(string(r)))
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd = press(t, m, cmd())
	_ = run(t, m, cmd)
	if env.bulk.imported != "/tmp/in.yaml" {
		t.Fatalf("imported = %q, want /tmp/in.yaml", env.bulk.imported)
	}
	p, _ := prefs.Load(env.prefs)
	if p.LastImport != "/tmp/in.yaml" {
		t.Fatalf("LastImport = %q, want /tmp/in.yaml", p.LastImport)
	}
}

func TestRefreshFollowsPushes(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"))
	m := env.model(Options{})
	m, wait := press(t, m, runes("w"))

	if _, err := env.ctrl.ApplyPush(context.Background(), []waypoint.Record{rec(1, "Base"), rec(2, "Camp")}); err != nil {
		t.Fatalf("ApplyPush: %v", err)
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()
	select {
	case msg := <-done:
		m, next := press(t, m, msg)
		if next == nil {
			t.Fatalf("refresh should be re-armed")
		}
		if len(m.dialog.Entries()) != 2 {
			t.Fatalf("entries = %v, want 2", titles(m))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no refresh after push")
	}

	// A refresh from a closed instance is dropped.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, next := press(t, m, dialogRefreshMsg{closed: true})
	if next != nil {
		t.Fatalf("closed refresh should not re-arm")
	}
}

func TestThemeCyclePersists(t *testing.T) {
	env := newTestEnv(t)
	m := env.model(Options{ThemeName: "Nightfox"})

	m, _ = press(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	p, _ := prefs.Load(env.prefs)
	if p.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", p.Theme)
	}
}

func TestHeaderShowsFeedState(t *testing.T) {
	env := newTestEnv(t, rec(1, "Base"))
	m := env.model(Options{FeedLabel: "http", World: "altis"})
	m, _ = press(t, m, snapshotMsg(env.store.Snapshot()))

	view := m.View()
	if !strings.Contains(view, "altis") || !strings.Contains(view, "Waypoints: 1") {
		t.Fatalf("header missing world or count:\n%s", view)
	}

	env.store.RecordFeedError(context.DeadlineExceeded)
	env.store.RecordFeedError(context.DeadlineExceeded)
	m, _ = press(t, m, snapshotMsg(env.store.Snapshot()))
	if !strings.Contains(m.View(), "Retrying") {
		t.Fatalf("offline feed should show retrying:\n%s", m.View())
	}
}
