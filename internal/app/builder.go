package app

import (
	"fmt"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/engine"
	"signalcore/internal/logger"
	"signalcore/internal/store"
	"signalcore/internal/store/gormstore"
	"signalcore/internal/store/outcomedb"
)

// AppBuilder assembles the engine's stores from configuration. Each
// build step can be overridden, mainly for tests.
type AppBuilder struct {
	cfg *config.Config

	gormStoreFn  func(path string) (*gormstore.GormStore, error)
	outcomeDBFn  func(path string) (*outcomedb.Repo, error)
	configWatch  func(path string) (*config.Watcher, error)
	outcomesOver store.TradeOutcomeRepository
	weightsOver  store.FeatureWeightStore
	statesOver   store.EngineStateStore
}

type AppBuilderOption func(*AppBuilder)

// WithOutcomeRepository replaces the sqlite outcome feed.
func WithOutcomeRepository(repo store.TradeOutcomeRepository) AppBuilderOption {
	return func(b *AppBuilder) { b.outcomesOver = repo }
}

// WithStores replaces the persistence layer wholesale.
func WithStores(weights store.FeatureWeightStore, states store.EngineStateStore) AppBuilderOption {
	return func(b *AppBuilder) {
		b.weightsOver = weights
		b.statesOver = states
	}
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:         cfg,
		gormStoreFn: gormstore.NewGormStore,
		outcomeDBFn: outcomedb.Open,
		configWatch: config.Watch,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build wires stores and engine. A missing outcome database degrades
// to an empty in-memory feed so the engine can still serve signals
// from cold-start heuristics.
func (b *AppBuilder) Build(configPath string) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	a := &App{cfg: b.cfg}

	weights := b.weightsOver
	states := b.statesOver
	if weights == nil || states == nil {
		gs, err := b.gormStoreFn(b.cfg.Store.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open engine store: %w", err)
		}
		a.gorm = gs
		if weights == nil {
			weights = gs
		}
		if states == nil {
			states = gs.StateStore()
		}
	}

	outcomes := b.outcomesOver
	if outcomes == nil {
		if b.cfg.Store.OutcomeDBPath == "" {
			logger.Warnf("app: no outcome database configured, training will idle on an empty feed")
			outcomes = store.NewMemoryStore()
		} else {
			repo, err := b.outcomeDBFn(b.cfg.Store.OutcomeDBPath)
			if err != nil {
				return nil, fmt.Errorf("open outcome database: %w", err)
			}
			a.outcomes = repo
			outcomes = store.NewResilientOutcomes(repo, 3, 2*time.Minute)
		}
	}

	if configPath != "" {
		watcher, err := b.configWatch(configPath)
		if err != nil {
			logger.Warnf("app: config hot reload disabled: %v", err)
		} else {
			a.watcher = watcher
			watcher.Subscribe(func(updated *config.Config) {
				logger.SetLevel(updated.App.LogLevel)
				logger.Infof("app: configuration reloaded, log level now %q", updated.App.LogLevel)
			})
		}
	}

	a.engine = engine.New(b.cfg, engine.Deps{
		Outcomes: outcomes,
		Weights:  weights,
		States:   states,
	})
	return a, nil
}
