package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/calc-portal/internal/cache"
	"github.com/bobmcallan/calc-portal/internal/calculators"
	"github.com/bobmcallan/calc-portal/internal/common"
	"github.com/bobmcallan/calc-portal/internal/config"
	"github.com/bobmcallan/calc-portal/internal/dispatch"
	"github.com/bobmcallan/calc-portal/internal/handlers"
	"github.com/bobmcallan/calc-portal/internal/interfaces"
	"github.com/bobmcallan/calc-portal/internal/mcp"
	"github.com/bobmcallan/calc-portal/internal/registry"
	"github.com/bobmcallan/calc-portal/internal/schema"
	"github.com/bobmcallan/calc-portal/internal/seed"
	"github.com/bobmcallan/calc-portal/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Storage    interfaces.StorageManager
	Curves     interfaces.PerformanceCurveStorage
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher

	// HTTP handlers
	PageHandler      *handlers.PageHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
	CalculateHandler *handlers.CalculateHandler
	ToolsHandler     *handlers.ToolsHandler
	FansHandler      *handlers.FansHandler
	MCPHandler       *mcp.Handler
}

// New initializes the application with all dependencies. A tool definition
// problem is returned as an error; the portal does not start without a
// valid registry.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	store, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = store

	if cfg.Storage.Badger.SeedCurves {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := seed.Curves(ctx, store.PerformanceCurveStorage(), logger)
		cancel()
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed performance curves: %w", err)
		}
		logger.Debug().Int("curves", n).Msg("Performance curves seeded")
	}

	a.Curves = cache.Wrap(store.PerformanceCurveStorage(),
		time.Duration(cfg.Storage.Cache.TTLSeconds)*time.Second, cfg.Storage.Cache.MaxEntries)

	factories, err := calculators.NewFactories(calculators.Deps{Curves: a.Curves})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register calculators: %w", err)
	}

	a.Registry = registry.New(cfg.Tools.Dir, factories, schema.Validator, logger)
	if err := a.Registry.Reload(); err != nil {
		store.Close()
		return nil, err
	}
	a.Dispatcher = dispatch.New(a.Registry, logger)

	a.initHandlers()

	logger.Info().
		Int("tools", a.Registry.Current().Len()).
		Str("tools_dir", cfg.Tools.Dir).
		Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, a.Registry, a.Config.MCP.Enabled)
	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Registry)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.CalculateHandler = handlers.NewCalculateHandler(a.Logger, a.Dispatcher)
	a.ToolsHandler = handlers.NewToolsHandler(a.Logger, a.Registry)
	a.FansHandler = handlers.NewFansHandler(a.Logger, a.Curves)

	if a.Config.MCP.Enabled {
		a.MCPHandler = mcp.NewHandler(a.Registry, a.Dispatcher, a.Logger)
	}

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Reload re-reads the tool definitions. On failure the running registry is
// left untouched.
func (a *App) Reload() error {
	return a.Registry.Reload()
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage == nil {
		return nil
	}
	return a.Storage.Close()
}
