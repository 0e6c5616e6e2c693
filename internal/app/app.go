package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/five82/wayfinder/internal/config"
	"github.com/five82/wayfinder/internal/logging"
	"github.com/five82/wayfinder/internal/prefs"
	"github.com/five82/wayfinder/internal/ui"
)

// Options configures the application.
type Options struct {
	ConfigPath string
	PrefsPath  string
	LogLevel   string    // overrides log.level when set
	Console    io.Writer // extra log output for headless commands
}

// Run starts the feed, the controller and the TUI, and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, logger, closeLog, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	p, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs", "error", err)
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx, err := rt.start(runCtx, true)
	if err != nil {
		_ = rt.close()
		return err
	}

	logger.Info("wayfinder started", "world", cfg.World, "feed", cfg.Feed.Mode, "export", cfg.Export.Format)

	uiErr := ui.Run(ui.Options{
		Context:    gctx,
		Store:      rt.store,
		Registry:   rt.registry,
		Editor:     rt.ctrl,
		Bulk:       rt.bulk,
		Importer:   rt.archive,
		ImportPath: cfg.ImportPath,
		World:      cfg.World,
		FeedLabel:  cfg.Feed.Mode,
		LogPath:    cfg.LogPath(),
		PollTick:   ui.DefaultUIInterval,
		ThemeName:  p.Theme,
		PrefsPath:  opts.PrefsPath,
	})

	cancel()
	runErr := g.Wait()
	closeErr := rt.close()
	logger.Info("wayfinder stopped")

	if uiErr != nil {
		return fmt.Errorf("ui: %w", uiErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return closeErr
}

// bootstrap loads the config and sets up logging.
func bootstrap(opts Options) (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Level:       level,
		File:        cfg.LogPath(),
		Console:     opts.Console,
		GraylogAddr: cfg.Log.Graylog,
	})
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, logger, closeLog, nil
}
