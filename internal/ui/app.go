package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wayfinder/internal/archive"
	"github.com/five82/wayfinder/internal/bulk"
	"github.com/five82/wayfinder/internal/dialog"
	"github.com/five82/wayfinder/internal/logtail"
	"github.com/five82/wayfinder/internal/prefs"
	"github.com/five82/wayfinder/internal/state"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Editor applies local edits to the waypoint collection.
type Editor interface {
	Add(ctx context.Context, draft waypoint.Record) (waypoint.Record, error)
	Edit(ctx context.Context, rec waypoint.Record) error
	Delete(ctx context.Context, id waypoint.ID) error
}

// Bulk runs export and import over many waypoints.
type Bulk interface {
	ExportSelected(ctx context.Context, sel bulk.Selection) (waypoint.Report, error)
	ImportFile(ctx context.Context, src archive.Importer, source string) (waypoint.Report, error)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Registry   *dialog.Registry
	Editor     Editor
	Bulk       Bulk
	Importer   archive.Importer
	ImportPath string
	World      string
	FeedLabel  string
	LogPath    string
	PollTick   time.Duration
	ThemeName  string
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	registry   *dialog.Registry
	editor     Editor
	bulk       Bulk
	importer   archive.Importer
	importPath string
	world      string
	feedLabel  string
	logPath    string
	prefsPath  string
	pollTick   time.Duration
	keys       keyMap

	// UI state
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	activity    []logtail.Entry

	// Dialog state
	dialog      *dialog.Instance
	cursor      int
	filtering   bool
	filterInput textinput.Model
	bulkReport  *bulkOutcome

	// Transient status line
	flash    string
	flashErr bool
}

type bulkOutcome struct {
	action string
	report waypoint.Report
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter by title"
	filter.CharLimit = 64

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		registry:    opts.Registry,
		editor:      opts.Editor,
		bulk:        opts.Bulk,
		importer:    opts.Importer,
		importPath:  opts.ImportPath,
		world:       opts.World,
		feedLabel:   opts.FeedLabel,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		filterInput: filter,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logPath != "" {
		cmds = append(cmds, fetchActivityCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case activityMsg:
		m.activity = msg
		return m, nil

	case dialogRefreshMsg:
		if msg.inst != m.dialog || msg.closed {
			return m, nil
		}
		m.clampCursor()
		return m, waitRefreshCmd(msg.inst)

	case toggleResultMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("toggle #%d", msg.id), msg.err)
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.setError(msg.action, msg.err)
		} else if msg.done != "" {
			m.setFlash(msg.done)
		}
		m.clampCursor()
		return m, nil

	case bulkResultMsg:
		m.bulkReport = &bulkOutcome{action: msg.action, report: msg.report}
		if msg.err != nil {
			m.setError(msg.action, msg.err)
			return m, nil
		}
		m.setFlash(fmt.Sprintf("%s: %s", msg.action, msg.report))
		return m, nil

	case formSubmitMsg:
		m.modal = nil
		return m, m.submitForm(msg)

	case confirmDeleteMsg:
		m.modal = nil
		return m, deleteCmd(m.ctx, m.editor, msg.rec)

	case importSourceMsg:
		m.modal = nil
		source := strings.TrimSpace(msg.source)
		if source == "" {
			return m, nil
		}
		if m.prefsPath != "" {
			_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.LastImport = source })
		}
		return m, importCmd(m.ctx, m.bulk, m.importer, source)
	}

	// Cursor blink and similar messages belong to whichever input has focus.
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.filtering {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		done bool
	)
	m.modal, cmd, done = m.modal.Update(msg, m.keys)
	if done {
		m.modal = nil
	}
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		m.closeDialog()
		return m, tea.Quit
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeDialog()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			name := m.theme.Name
			_ = prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name })
		}
		return m, nil
	}

	if m.dialog == nil {
		if key.Matches(msg, m.keys.OpenDialog) {
			return m.openDialog()
		}
		return m, nil
	}
	return m.handleDialogKey(msg)
}

func (m Model) openDialog() (tea.Model, tea.Cmd) {
	if m.registry == nil || m.store == nil {
		return m, nil
	}
	inst, err := m.registry.OpenFrom(m.store)
	if errors.Is(err, waypoint.ErrDuplicateOpen) {
		return m, nil
	}
	if err != nil {
		m.setError("open", err)
		return m, nil
	}
	m.dialog = inst
	m.cursor = 0
	m.filterInput.SetValue("")
	m.bulkReport = nil
	m.flash = ""
	return m, waitRefreshCmd(inst)
}

func (m *Model) closeDialog() {
	if m.dialog == nil {
		return
	}
	m.dialog = nil
	m.filtering = false
	m.filterInput.Blur()
	if m.registry != nil {
		m.registry.Close()
	}
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if m.dialog != nil {
		m.dialog.SetFilter(m.filterInput.Value())
		m.clampCursor()
	}
	return m, cmd
}

func (m Model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inst := m.dialog
	entries := inst.Entries()

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeDialog()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Sort):
		order := inst.CycleSort()
		m.setFlash("sort: " + order.String())
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(entries)-1, 0)
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.modal = newFormModal(formAdd, waypoint.Record{})
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if m.bulk == nil {
			return m, nil
		}
		return m, exportCmd(m.ctx, m.bulk, inst)

	case key.Matches(msg, m.keys.Import):
		if m.bulk == nil || m.importer == nil {
			return m, nil
		}
		if m.importPath != "" {
			return m, importCmd(m.ctx, m.bulk, m.importer, m.importPath)
		}
		m.modal = newPromptModal("Import from", m.lastImport())
		return m, nil
	}

	if m.cursor >= len(entries) {
		return m, nil
	}
	current := entries[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, toggleCmd(m.ctx, inst, current.ID)

	case key.Matches(msg, m.keys.Recenter):
		return m, recenterCmd(m.ctx, inst, current.ID)

	case key.Matches(msg, m.keys.Edit):
		form, err := inst.EditForm(current.ID)
		if err != nil {
			m.setError("edit", err)
			return m, nil
		}
		m.modal = newFormModal(formEdit, form.Draft)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		m.modal = newConfirmModal(current.Record)
		return m, nil
	}
	return m, nil
}

func (m Model) submitForm(msg formSubmitMsg) tea.Cmd {
	if m.editor == nil {
		return nil
	}
	ctx, editor, draft := m.ctx, m.editor, msg.draft
	if msg.mode == formAdd {
		return func() tea.Msg {
			rec, err := editor.Add(ctx, draft)
			if err != nil {
				return actionResultMsg{action: "add", err: err}
			}
			return actionResultMsg{action: "add", done: fmt.Sprintf("added %q as #%d", rec.Title, rec.ID)}
		}
	}
	return func() tea.Msg {
		if err := editor.Edit(ctx, draft); err != nil {
			return actionResultMsg{action: "edit", err: err}
		}
		return actionResultMsg{action: "edit", done: fmt.Sprintf("saved %q", draft.Title)}
	}
}

func (m Model) lastImport() string {
	p, _ := prefs.Load(m.prefsPath)
	return p.LastImport
}

func (m *Model) clampCursor() {
	if m.dialog == nil {
		m.cursor = 0
		return
	}
	n := len(m.dialog.Entries())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashErr = false
}

func (m *Model) setError(action string, err error) {
	m.flash = fmt.Sprintf("%s failed: %v", action, err)
	m.flashErr = true
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logPath != "" {
		cmds = append(cmds, fetchActivityCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type activityMsg []logtail.Entry

type dialogRefreshMsg struct {
	inst   *dialog.Instance
	closed bool
}

type toggleResultMsg struct {
	id       waypoint.ID
	selected bool
	err      error
}

type actionResultMsg struct {
	action string
	done   string
	err    error
}

type bulkResultMsg struct {
	action string
	report waypoint.Report
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func fetchActivityCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Tail(path, ActivityLines)
		if err != nil {
			return activityMsg{{Raw: err.Error()}}
		}
		return activityMsg(entries)
	}
}

// waitRefreshCmd blocks until the instance signals a change or is closed.
func waitRefreshCmd(inst *dialog.Instance) tea.Cmd {
	ch := inst.Refresh()
	return func() tea.Msg {
		_, ok := <-ch
		return dialogRefreshMsg{inst: inst, closed: !ok}
	}
}

func toggleCmd(ctx context.Context, inst *dialog.Instance, id waypoint.ID) tea.Cmd {
	return func() tea.Msg {
		on, err := inst.Toggle(ctx, id)
		return toggleResultMsg{id: id, selected: on, err: err}
	}
}

func recenterCmd(ctx context.Context, inst *dialog.Instance, id waypoint.ID) tea.Cmd {
	return func() tea.Msg {
		err := inst.Recenter(ctx, id)
		return actionResultMsg{action: "recenter", err: err}
	}
}

func deleteCmd(ctx context.Context, editor Editor, rec waypoint.Record) tea.Cmd {
	if editor == nil {
		return nil
	}
	return func() tea.Msg {
		if err := editor.Delete(ctx, rec.ID); err != nil {
			return actionResultMsg{action: "delete", err: err}
		}
		return actionResultMsg{action: "delete", done: fmt.Sprintf("deleted %q", rec.Title)}
	}
}

func exportCmd(ctx context.Context, b Bulk, sel bulk.Selection) tea.Cmd {
	return func() tea.Msg {
		report, err := b.ExportSelected(ctx, sel)
		return bulkResultMsg{action: "export", report: report, err: err}
	}
}

func importCmd(ctx context.Context, b Bulk, src archive.Importer, source string) tea.Cmd {
	return func() tea.Msg {
		report, err := b.ImportFile(ctx, src, source)
		return bulkResultMsg{action: "import", report: report, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeDialog()
	}
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
