package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/waypoint"
)

// Applier is the part of the controller host events are applied through.
type Applier interface {
	ApplyPush(ctx context.Context, batch []waypoint.Record, rejected ...waypoint.RecordError) (waypoint.Report, error)
	ApplyCreated(ctx context.Context, rec waypoint.Record) (bool, error)
}

// registerHandlers routes host events into the controller. Pushes go
// through a single worker so batches apply in arrival order.
func registerHandlers(d *dispatcher.Dispatcher, ctrl Applier, logger *slog.Logger) {
	d.Register(dispatcher.CommandWaypointsPush, func(ctx context.Context, e dispatcher.Event) error {
		report, err := ctrl.ApplyPush(ctx, e.Waypoints, e.Skipped...)
		if err != nil {
			return fmt.Errorf("apply push from %s: %w", e.Source, err)
		}
		logger.Debug("push applied", "source", e.Source, "applied", report.Applied,
			"removed", report.Removed, "skipped", report.Failed())
		return nil
	}, dispatcher.Buffered(16), dispatcher.Blocking(), dispatcher.Logged())

	d.Register(dispatcher.CommandWaypointCreated, func(ctx context.Context, e dispatcher.Event) error {
		var report waypoint.Report
		for i, rec := range e.Waypoints {
			added, err := ctrl.ApplyCreated(ctx, rec)
			if err != nil {
				report.Skip(rec.ID, i, err)
				continue
			}
			if !added {
				logger.Debug("host created waypoint already known", "id", rec.ID)
				continue
			}
			report.Applied++
		}
		return report.Err()
	}, dispatcher.Buffered(64), dispatcher.Logged())
}
