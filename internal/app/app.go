// Package app is the application-level orchestration: load config,
// build the stores and engine, run until cancelled.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"signalcore/internal/config"
	"signalcore/internal/engine"
	"signalcore/internal/logger"
	"signalcore/internal/store/gormstore"
	"signalcore/internal/store/outcomedb"
)

type App struct {
	cfg      *config.Config
	engine   *engine.Engine
	gorm     *gormstore.GormStore
	outcomes *outcomedb.Repo
	watcher  *config.Watcher
}

// NewApp builds the application from configuration without starting it.
// configPath enables hot reload when non-empty.
func NewApp(cfg *config.Config, configPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(cfg, configPath)
}

// Run starts the engine loops and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.engine == nil {
		return fmt.Errorf("app not initialized")
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer a.Close()
		return a.engine.Run(ctx)
	})
	return group.Wait()
}

// Engine exposes the signal engine for embedding callers and tests.
func (a *App) Engine() *engine.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// Close releases database handles. Idempotent.
func (a *App) Close() {
	if a.outcomes != nil {
		if err := a.outcomes.Close(); err != nil {
			logger.Warnf("app: closing outcome database: %v", err)
		}
		a.outcomes = nil
	}
	if a.gorm != nil {
		if err := a.gorm.Close(); err != nil {
			logger.Warnf("app: closing engine store: %v", err)
		}
		a.gorm = nil
	}
}
