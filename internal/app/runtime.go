package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/five82/wayfinder/internal/archive"
	"github.com/five82/wayfinder/internal/bulk"
	"github.com/five82/wayfinder/internal/config"
	"github.com/five82/wayfinder/internal/dialog"
	"github.com/five82/wayfinder/internal/dispatcher"
	"github.com/five82/wayfinder/internal/feed"
	"github.com/five82/wayfinder/internal/reconcile"
	"github.com/five82/wayfinder/internal/state"
)

// runner is a long-lived component supervised by the errgroup.
type runner interface {
	Run(ctx context.Context) error
}

// runtime holds every component of a running wayfinder process.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *state.Store
	client   *feed.Client // nil in file mode
	ctrl     *reconcile.Controller
	disp     *dispatcher.Dispatcher
	registry *dialog.Registry
	archive  archive.Archive
	bulk     *bulk.Orchestrator
}

func newRuntime(cfg config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, store: &state.Store{}}

	ctrlOpts := []reconcile.Option{reconcile.WithLogger(logger.With("component", "reconcile"))}
	if cfg.Feed.Mode != config.FeedFile {
		client, err := feed.NewClient(cfg.Feed.URL)
		if err != nil {
			return nil, fmt.Errorf("init feed client: %w", err)
		}
		rt.client = client
		ctrlOpts = append(ctrlOpts, reconcile.WithUpstream(client))
	}

	ctrl, err := reconcile.New(rt.store, ctrlOpts...)
	if err != nil {
		return nil, fmt.Errorf("init controller: %w", err)
	}
	rt.ctrl = ctrl

	disp, err := dispatcher.New(logger.With("component", "dispatcher"))
	if err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}
	rt.disp = disp
	registerHandlers(disp, ctrl, logger)

	regOpts := dialog.Options{Writer: ctrl, Logger: logger.With("component", "dialog")}
	if rt.client != nil {
		regOpts.Recenter = rt.client
	}
	rt.registry = dialog.NewRegistry(regOpts)
	ctrl.Subscribe(rt.registry)

	archCfg, err := archiveConfig(cfg)
	if err != nil {
		disp.Close()
		return nil, err
	}
	arch, err := archive.New(archCfg)
	if err != nil {
		disp.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}
	rt.archive = arch
	rt.bulk = bulk.New(arch, ctrl, logger.With("component", "bulk"))
	return rt, nil
}

func archiveConfig(cfg config.Config) (archive.Config, error) {
	format, err := archive.ParseFormat(cfg.Export.Format)
	if err != nil {
		return archive.Config{}, fmt.Errorf("export.format: %w", err)
	}
	return archive.Config{
		Format:   format,
		Dir:      cfg.Export.Dir,
		World:    cfg.World,
		DSN:      cfg.Export.DSN,
		Compress: cfg.Export.Compress,
	}, nil
}

// feedRunner returns the adapter selected by feed.mode.
func (rt *runtime) feedRunner() (runner, error) {
	logger := rt.logger.With("component", "feed", "mode", rt.cfg.Feed.Mode)
	switch rt.cfg.Feed.Mode {
	case config.FeedHTTP:
		return feed.NewPoller(rt.client, rt.disp, rt.store, rt.cfg.Feed.PollInterval, logger), nil
	case config.FeedWebsocket:
		return feed.NewSubscriber(rt.cfg.Feed.URL, rt.disp, rt.store, logger)
	case config.FeedFile:
		return feed.NewFileWatcher(rt.cfg.Feed.Path, rt.disp, rt.store, logger), nil
	default:
		return nil, fmt.Errorf("unknown feed mode %q", rt.cfg.Feed.Mode)
	}
}

// start launches the controller and, when withFeed is set, the feed adapter.
func (rt *runtime) start(ctx context.Context, withFeed bool) (*errgroup.Group, context.Context, error) {
	var fr runner
	if withFeed {
		var err error
		if fr, err = rt.feedRunner(); err != nil {
			return nil, nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.ctrl.Run(gctx) })
	if fr != nil {
		g.Go(func() error { return fr.Run(gctx) })
	}
	return g, gctx, nil
}

func (rt *runtime) close() error {
	rt.registry.Close()
	rt.disp.Close()
	var errs []error
	if rt.archive != nil {
		if err := rt.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}
	return errors.Join(errs...)
}
