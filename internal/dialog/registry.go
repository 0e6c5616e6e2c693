package dialog

import (
	"log/slog"
	"sync"

	"github.com/five82/wayfinder/internal/reconcile"
	"github.com/five82/wayfinder/internal/selection"
	"github.com/five82/wayfinder/internal/state"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Options configures a Registry.
type Options struct {
	Writer   selection.Writer // receives selection changes
	Recenter Recenterer       // optional
	Logger   *slog.Logger
}

// Registry owns the single dialog slot.
type Registry struct {
	opts Options

	mu      sync.Mutex
	current *Instance
}

var _ reconcile.Observer = (*Registry)(nil)

// NewRegistry returns a Registry in the Closed state.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{opts: opts}
}

// Open creates the dialog instance. When a dialog is already open the live
// instance is returned together with ErrDuplicateOpen.
func (r *Registry) Open(snap state.Snapshot) (*Instance, error) {
	return r.OpenFrom(fixedSnapshot(snap))
}

// SnapshotSource yields the current store contents.
type SnapshotSource interface {
	Snapshot() state.Snapshot
}

// OpenFrom is Open with the snapshot taken under the registry lock, so a
// change the controller applies concurrently is either in the snapshot or
// delivered to the new instance through OnChange.
func (r *Registry) OpenFrom(src SnapshotSource) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return r.current, waypoint.ErrDuplicateOpen
	}
	snap := src.Snapshot()
	inst := newInstance(snap.Records, r.opts)
	r.current = inst
	r.opts.Logger.Debug("dialog opened", "records", len(snap.Records))
	return inst, nil
}

// Close releases the live instance. Closing a closed registry does nothing.
func (r *Registry) Close() {
	r.mu.Lock()
	inst := r.current
	r.current = nil
	r.mu.Unlock()

	if inst == nil {
		return
	}
	inst.close()
	r.opts.Logger.Debug("dialog closed")
}

// Current returns the live instance, if any.
func (r *Registry) Current() (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

// IsOpen reports whether a dialog is live.
func (r *Registry) IsOpen() bool {
	_, ok := r.Current()
	return ok
}

type fixedSnapshot state.Snapshot

func (f fixedSnapshot) Snapshot() state.Snapshot { return state.Snapshot(f) }

// OnChange re-projects the live instance.
func (r *Registry) OnChange(ch reconcile.Change) {
	inst, ok := r.Current()
	if !ok {
		return
	}
	inst.update(ch.Snapshot.Records, ch.Report)
}
