package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/five82/wayfinder/internal/config"
	"github.com/five82/wayfinder/internal/feed"
	"github.com/five82/wayfinder/internal/waypoint"
)

// ErrNoUpstream is returned by Import when the feed has no write endpoint.
var ErrNoUpstream = errors.New("import needs an http or websocket feed")

// ExportOptions narrows a headless export.
type ExportOptions struct {
	PinnedOnly bool
}

// Export reads the current waypoint list from the feed once and writes it
// to the configured archive.
func Export(ctx context.Context, opts Options, eo ExportOptions) (waypoint.Report, error) {
	cfg, logger, closeLog, err := bootstrap(opts)
	if err != nil {
		return waypoint.Report{}, err
	}
	defer func() { _ = closeLog() }()

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return waypoint.Report{}, err
	}
	defer func() { _ = rt.close() }()

	records, readReport, err := rt.fetchOnce(ctx)
	if err != nil {
		return readReport, err
	}
	if eo.PinnedOnly {
		pinned := records[:0]
		for _, rec := range records {
			if rec.Pinned {
				pinned = append(pinned, rec)
			}
		}
		records = pinned
	}

	report, err := rt.bulk.Export(ctx, records)
	report.Skipped = append(readReport.Skipped, report.Skipped...)
	return report, err
}

// Import applies the waypoints in source as local edits and forwards them to
// the game. The store is seeded from the feed first so imported records get
// free IDs.
func Import(ctx context.Context, opts Options, source string) (waypoint.Report, error) {
	cfg, logger, closeLog, err := bootstrap(opts)
	if err != nil {
		return waypoint.Report{}, err
	}
	defer func() { _ = closeLog() }()

	if cfg.Feed.Mode == config.FeedFile {
		return waypoint.Report{}, ErrNoUpstream
	}
	if source == "" {
		source = cfg.ImportPath
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return waypoint.Report{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx, err := rt.start(runCtx, false)
	if err != nil {
		cancel()
		_ = rt.close()
		return waypoint.Report{}, err
	}

	report, err := rt.seedAndImport(gctx, source)
	cancel()
	if waitErr := g.Wait(); err == nil {
		err = waitErr
	}
	if closeErr := rt.close(); err == nil {
		err = closeErr
	}
	return report, err
}

func (rt *runtime) seedAndImport(ctx context.Context, source string) (waypoint.Report, error) {
	records, read, err := rt.fetchOnce(ctx)
	if err != nil {
		return waypoint.Report{}, fmt.Errorf("seed from feed: %w", err)
	}
	if _, err := rt.ctrl.ApplyPush(ctx, records, read.Skipped...); err != nil {
		return waypoint.Report{}, fmt.Errorf("seed from feed: %w", err)
	}
	return rt.bulk.ImportFile(ctx, rt.archive, source)
}

// fetchOnce reads the full waypoint list from the configured feed.
func (rt *runtime) fetchOnce(ctx context.Context) ([]waypoint.Record, waypoint.Report, error) {
	if rt.client != nil {
		records, report, err := rt.client.FetchWaypoints(ctx)
		if err != nil {
			return nil, report, fmt.Errorf("fetch waypoints: %w", err)
		}
		return records, report, nil
	}
	raw, err := os.ReadFile(rt.cfg.Feed.Path)
	if err != nil {
		return nil, waypoint.Report{}, fmt.Errorf("read feed file: %w", err)
	}
	records, report, err := feed.DecodeBatch(raw)
	if err != nil {
		return nil, report, fmt.Errorf("decode feed file: %w", err)
	}
	return records, report, nil
}
