package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/marquee/internal/assets"
	"github.com/mmcdole/marquee/internal/catalog"
	"github.com/mmcdole/marquee/internal/config"
	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/filter"
	"github.com/mmcdole/marquee/internal/history"
	"github.com/mmcdole/marquee/internal/log"
	"github.com/mmcdole/marquee/internal/source"
	"github.com/mmcdole/marquee/internal/store"
)

// app is the wired object graph shared by every command
type app struct {
	cfg      *config.Config
	loader   *config.Loader
	logger   *slog.Logger
	store    *store.HistoryStore
	history  *history.Service
	filters  *filter.Settings
	client   domain.CatalogClient
	covers   *assets.CoverCache
	engine   *catalog.Engine
	closers  []io.Closer
	closeFns []func()
}

// newApp loads the configuration, sets up logging and builds the services.
// The engine is only created by openEngine.
func newApp(configPath string) (*app, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, loader: loader}

	logger, closer, err := log.SetupLogger(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		a.closers = append(a.closers, closer)
	}
	slog.SetDefault(logger)
	a.logger = logger

	a.store, err = store.NewHistoryStore(cfg.Cache.Dir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.closers = append(a.closers, a.store)
	a.history = history.NewService(a.store, logger)

	a.filters = filter.NewSettings(cfg.Filter.Criteria(), logger)

	srcCfg := source.Config{URL: cfg.Catalog.URL, Timeout: cfg.Catalog.Timeout, Retries: cfg.Catalog.Retries}
	httpClient := source.NewHTTPClient(srcCfg, logger)
	a.client, err = source.NewClient(srcCfg, httpClient, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	a.covers, err = assets.NewCoverCache(cfg.Cache.CoversDir(), httpClient, logger)
	if err != nil {
		// Covers are optional; browsing works without them
		logger.Warn("cover cache disabled", "error", err)
		a.covers = nil
	}

	return a, nil
}

// openEngine builds and opens the catalog engine over the app's services
func (a *app) openEngine(ctx context.Context) (*catalog.Engine, error) {
	deps := catalog.Deps{
		Client:          a.client,
		History:         a.history,
		Filters:         a.filters,
		Logger:          a.logger,
		PageSize:        a.cfg.Browse.PageSize(),
		PrefetchWorkers: a.cfg.Browse.PrefetchWorkers,
	}
	if a.covers != nil {
		deps.Prefetcher = a.covers
	}

	engine, err := catalog.New(deps)
	if err != nil {
		return nil, err
	}
	if err := engine.Open(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	a.engine = engine
	a.closeFns = append(a.closeFns, engine.Close)
	return engine, nil
}

// watchConfig applies edits of the filter section while the app runs
func (a *app) watchConfig() {
	watching := a.loader.WatchFilters(func(fc config.FilterConfig) {
		if err := a.filters.Apply(fc.Criteria()); err != nil {
			a.logger.Warn("ignoring invalid filter settings", "error", err)
		}
	}, a.logger)
	a.logger.Debug("config watch", "enabled", watching, "file", a.loader.File())
}

// defaultView returns the configured startup view, or the first one
func (a *app) defaultView() domain.ViewID {
	if a.cfg.Browse.DefaultView != "" {
		return domain.ViewID(a.cfg.Browse.DefaultView)
	}
	return domain.ViewRecent
}

// Close releases everything in reverse order of creation
func (a *app) Close() error {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
