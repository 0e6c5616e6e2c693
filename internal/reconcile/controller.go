package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/five82/wayfinder/internal/state"
	"github.com/five82/wayfinder/internal/waypoint"
)

// ErrStopped is returned by operations submitted after Run has returned.
var ErrStopped = errors.New("controller stopped")

// Source identifies what caused a change.
type Source int

const (
	SourcePush Source = iota
	SourceLocal
	SourceImport
)

func (s Source) String() string {
	switch s {
	case SourcePush:
		return "push"
	case SourceLocal:
		return "local"
	case SourceImport:
		return "import"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Change describes an accepted mutation.
type Change struct {
	Source   Source
	Snapshot state.Snapshot
	Report   waypoint.Report
}

// Observer is notified after every accepted mutation. OnChange runs on the
// controller loop and must not call back into the Controller synchronously.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

func (f ObserverFunc) OnChange(c Change) { f(c) }

// Upstream receives local edits that must reach the game.
type Upstream interface {
	Save(ctx context.Context, rec waypoint.Record) error
	Delete(ctx context.Context, id waypoint.ID) error
}

type pendingKind int

const (
	pendingUpsert pendingKind = iota + 1
	pendingDelete
)

// maxPendingMisses is how many pushes may omit a settled local upsert before
// the mark is dropped and the feed wins.
const maxPendingMisses = 5

// pendingEdit marks a local change the feed has not echoed back yet.
type pendingEdit struct {
	kind     pendingKind
	seq      uint64
	inflight bool // upstream write not finished
	misses   int  // pushes that omitted the id since the write finished
}

type op struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Controller serialises all writes to a state.Store.
type Controller struct {
	store    *state.Store
	upstream Upstream
	logger   *slog.Logger

	ops     chan op
	stopped chan struct{}
	once    sync.Once

	// owned by the loop goroutine
	pending map[waypoint.ID]pendingEdit
	seq     uint64

	obsMu     sync.RWMutex
	observers []Observer

	pushes     metric.Int64Counter
	skipped    metric.Int64Counter
	localEdits metric.Int64Counter
}

// Option configures a Controller.
type Option func(*Controller)

// WithUpstream forwards local edits to u.
func WithUpstream(u Upstream) Option {
	return func(c *Controller) { c.upstream = u }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller for store. Metrics use the global OTel meter.
func New(store *state.Store, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	c := &Controller{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		ops:     make(chan op),
		stopped: make(chan struct{}),
		pending: make(map[waypoint.ID]pendingEdit),
	}
	for _, opt := range opts {
		opt(c)
	}

	m := meter()
	var err error
	c.pushes, err = m.Int64Counter(
		"reconcile.pushes.applied",
		metric.WithDescription("Push batches applied to the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pushes counter: %w", err)
	}
	c.skipped, err = m.Int64Counter(
		"reconcile.records.skipped",
		metric.WithDescription("Records rejected from a batch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	c.localEdits, err = m.Int64Counter(
		"reconcile.local.edits",
		metric.WithDescription("Local edits applied to the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating local edits counter: %w", err)
	}
	return c, nil
}

// Store returns the store the controller writes to.
func (c *Controller) Store() *state.Store { return c.store }

// Subscribe registers o for change notifications.
func (c *Controller) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// Run executes queued operations until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.stopped) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-c.ops:
			o.run(o.ctx)
			close(o.done)
		}
	}
}

// submit queues fn and waits for it to finish.
func (c *Controller) submit(ctx context.Context, fn func(ctx context.Context)) error {
	o := op{ctx: ctx, run: fn, done: make(chan struct{})}
	select {
	case c.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyPush reconciles the store with a full batch from the feed. rejected
// lists entries the feed adapter could not decode; they are reported, and a
// known id among them keeps its stored record.
func (c *Controller) ApplyPush(ctx context.Context, batch []waypoint.Record, rejected ...waypoint.RecordError) (waypoint.Report, error) {
	var report waypoint.Report
	err := c.submit(ctx, func(context.Context) {
		report = c.applyPush(batch, rejected)
	})
	return report, err
}

func (c *Controller) applyPush(batch []waypoint.Record, rejected []waypoint.RecordError) waypoint.Report {
	var report waypoint.Report

	// seen also holds ids of rejected entries so their stored version is kept
	seen := make(map[waypoint.ID]bool, len(batch)+len(rejected))
	for _, r := range rejected {
		report.Skipped = append(report.Skipped, r)
		if r.ID >= 0 {
			seen[r.ID] = true
		}
	}

	accepted := make(map[waypoint.ID]bool, len(batch))
	valid := make([]waypoint.Record, 0, len(batch))
	for i, rec := range batch {
		if err := rec.Validate(); err != nil {
			report.Skip(rec.ID, i, err)
			if rec.ID >= 0 {
				seen[rec.ID] = true
			}
			continue
		}
		if accepted[rec.ID] {
			report.Skip(rec.ID, i, fmt.Errorf("%w: duplicate id %d in batch", waypoint.ErrInvalidRecord, rec.ID))
			continue
		}
		seen[rec.ID] = true
		accepted[rec.ID] = true
		valid = append(valid, rec)
	}

	for _, existing := range c.store.Snapshot().Records {
		if seen[existing.ID] {
			continue
		}
		if p, ok := c.pending[existing.ID]; ok && p.kind == pendingUpsert {
			if !p.inflight {
				p.misses++
			}
			if p.inflight || p.misses <= maxPendingMisses {
				c.pending[existing.ID] = p
				continue
			}
			delete(c.pending, existing.ID)
			c.logger.Warn("local waypoint never confirmed by feed", "id", existing.ID, "pushes", p.misses)
		}
		if err := c.store.Remove(existing.ID); err == nil {
			report.Removed++
		}
	}
	for id, p := range c.pending {
		if p.kind == pendingDelete && !seen[id] {
			delete(c.pending, id)
		}
	}

	for _, rec := range valid {
		if cur, ok := c.store.Get(rec.ID); ok {
			rec.Enabled = cur.Enabled
		} else {
			rec.Enabled = false
		}
		delete(c.pending, rec.ID)
		c.store.Upsert(rec)
		report.Applied++
	}

	c.store.RecordFeedSuccess()

	for _, s := range report.Skipped {
		c.logger.Warn("skipped pushed waypoint", "id", s.ID, "entry", s.Index, "error", s.Err)
	}
	bg := context.Background()
	c.pushes.Add(bg, 1)
	if n := report.Failed(); n > 0 {
		c.skipped.Add(bg, int64(n), metric.WithAttributes(attribute.String("source", SourcePush.String())))
	}
	c.logger.Debug("push applied", "applied", report.Applied, "removed", report.Removed, "skipped", report.Failed())

	c.notify(SourcePush, report)
	return report
}

// ApplyCreated records a waypoint the game created on its own. The record
// keeps its ID and is not written back upstream. It reports false when the ID
// is already known, e.g. because a push delivered it first.
func (c *Controller) ApplyCreated(ctx context.Context, rec waypoint.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	var added bool
	err := c.submit(ctx, func(context.Context) {
		if _, known := c.store.Get(rec.ID); known {
			return
		}
		rec.Enabled = false
		delete(c.pending, rec.ID)
		c.store.Upsert(rec)
		added = true
		c.logger.Info("host created waypoint", "id", rec.ID, "title", rec.Title)
		c.notify(SourcePush, waypoint.Report{Applied: 1})
	})
	return added, err
}

// Add inserts a new waypoint. When draft.ID is zero or already taken the
// next free ID is assigned.
func (c *Controller) Add(ctx context.Context, draft waypoint.Record) (waypoint.Record, error) {
	return c.add(ctx, draft, SourceLocal)
}

// Import inserts a waypoint read from an archive. It behaves like Add but
// keeps the record's Enabled flag and reports the change as an import.
func (c *Controller) Import(ctx context.Context, rec waypoint.Record) (waypoint.Record, error) {
	return c.add(ctx, rec, SourceImport)
}

func (c *Controller) add(ctx context.Context, draft waypoint.Record, src Source) (waypoint.Record, error) {
	if err := draft.Validate(); err != nil {
		return waypoint.Record{}, err
	}
	var (
		added waypoint.Record
		seq   uint64
	)
	err := c.submit(ctx, func(context.Context) {
		rec := draft
		if _, taken := c.store.Get(rec.ID); rec.ID == 0 || taken {
			rec.ID = c.store.MaxID() + 1
		}
		if src == SourceLocal {
			rec.Enabled = false
		}
		c.store.Upsert(rec)
		seq = c.mark(rec.ID, pendingUpsert)
		added = rec

		c.localEdits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", "add")))
		c.logger.Info("waypoint added", "id", rec.ID, "title", rec.Title, "source", src.String())
		c.notify(src, waypoint.Report{Applied: 1})
	})
	if err != nil {
		return waypoint.Record{}, err
	}
	return added, c.forwardSave(ctx, added, seq)
}

// Edit replaces the game-owned attributes of an existing waypoint. The local
// Enabled flag is kept.
func (c *Controller) Edit(ctx context.Context, rec waypoint.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	var (
		opErr error
		seq   uint64
	)
	err := c.submit(ctx, func(context.Context) {
		cur, ok := c.store.Get(rec.ID)
		if !ok {
			opErr = fmt.Errorf("edit %d: %w", rec.ID, waypoint.ErrNotFound)
			return
		}
		rec.Enabled = cur.Enabled
		c.store.Upsert(rec)
		seq = c.mark(rec.ID, pendingUpsert)

		c.localEdits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", "edit")))
		c.logger.Info("waypoint edited", "id", rec.ID, "title", rec.Title)
		c.notify(SourceLocal, waypoint.Report{Applied: 1})
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}
	return c.forwardSave(ctx, rec, seq)
}

// Delete removes a waypoint.
func (c *Controller) Delete(ctx context.Context, id waypoint.ID) error {
	var (
		opErr error
		seq   uint64
	)
	err := c.submit(ctx, func(context.Context) {
		if err := c.store.Remove(id); err != nil {
			opErr = err
			return
		}
		seq = c.mark(id, pendingDelete)

		c.localEdits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", "delete")))
		c.logger.Info("waypoint deleted", "id", id)
		c.notify(SourceLocal, waypoint.Report{Removed: 1})
	})
	if err != nil {
		return err
	}
	if opErr != nil || c.upstream == nil {
		return opErr
	}
	upErr := c.upstream.Delete(ctx, id)
	c.settle(id, seq, upErr)
	if upErr != nil {
		return fmt.Errorf("delete %d: %w: %w", id, waypoint.ErrExternalWrite, upErr)
	}
	return nil
}

// SetEnabled updates the local selection flag of a waypoint.
func (c *Controller) SetEnabled(ctx context.Context, id waypoint.ID, enabled bool) error {
	var opErr error
	err := c.submit(ctx, func(context.Context) {
		cur, ok := c.store.Get(id)
		if !ok {
			opErr = fmt.Errorf("set enabled %d: %w", id, waypoint.ErrNotFound)
			return
		}
		if cur.Enabled == enabled {
			return
		}
		cur.Enabled = enabled
		c.store.Upsert(cur)
		c.notify(SourceLocal, waypoint.Report{Applied: 1})
	})
	if err != nil {
		return err
	}
	return opErr
}

// mark records a pending local change. Runs on the loop goroutine.
func (c *Controller) mark(id waypoint.ID, kind pendingKind) uint64 {
	c.seq++
	c.pending[id] = pendingEdit{kind: kind, seq: c.seq, inflight: c.upstream != nil}
	return c.seq
}

// forwardSave writes rec upstream from the caller's goroutine, then settles
// the pending mark on the loop.
func (c *Controller) forwardSave(ctx context.Context, rec waypoint.Record, seq uint64) error {
	if c.upstream == nil {
		return nil
	}
	err := c.upstream.Save(ctx, rec)
	c.settle(rec.ID, seq, err)
	if err != nil {
		return fmt.Errorf("save %d: %w: %w", rec.ID, waypoint.ErrExternalWrite, err)
	}
	return nil
}

// settle applies the outcome of an upstream write. A mark replaced by a later
// edit, or already cleared by a push, is left alone. A failed write drops the
// mark so the next push converges.
func (c *Controller) settle(id waypoint.ID, seq uint64, upErr error) {
	err := c.submit(context.Background(), func(context.Context) {
		p, ok := c.pending[id]
		if !ok || p.seq != seq {
			return
		}
		if upErr == nil {
			p.inflight = false
			c.pending[id] = p
			return
		}
		delete(c.pending, id)
		c.logger.Error("upstream write failed", "id", id, "error", upErr)
		var report waypoint.Report
		report.Skip(id, 0, fmt.Errorf("%w: %w", waypoint.ErrExternalWrite, upErr))
		c.notify(SourceLocal, report)
	})
	if err != nil {
		c.logger.Debug("upstream result dropped", "id", id, "error", err)
	}
}

func (c *Controller) notify(src Source, report waypoint.Report) {
	c.obsMu.RLock()
	observers := append([]Observer(nil), c.observers...)
	c.obsMu.RUnlock()
	if len(observers) == 0 {
		return
	}
	change := Change{Source: src, Snapshot: c.store.Snapshot(), Report: report}
	for _, o := range observers {
		o.OnChange(change)
	}
}
