// Package engine wires the learners and calibration stages into the
// adaptive signal engine: one explicit context constructed at startup,
// no module-level globals.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"signalcore/internal/calibrate"
	"signalcore/internal/config"
	"signalcore/internal/filter"
	"signalcore/internal/horizon"
	"signalcore/internal/learner"
	"signalcore/internal/logger"
	"signalcore/internal/optimizer"
	"signalcore/internal/overfit"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/scheduler"
	"signalcore/internal/stabilize"
	"signalcore/internal/store"
	"signalcore/internal/types"
)

// Default weight assigned to an indicator never seen before.
const defaultIndicatorWeight = 1.0

// Deps carries the external collaborators. Outcomes is required;
// everything else degrades gracefully when nil.
type Deps struct {
	Outcomes  store.TradeOutcomeRepository
	Weights   store.FeatureWeightStore
	States    store.EngineStateStore
	Forecasts store.ForecastAccuracyProvider

	// Rand seeds every stochastic component; inject a fixed seed for
	// reproducible runs.
	Rand *rand.Rand
}

// Engine is the adaptive ensemble signal-calibration core.
type Engine struct {
	cfg  *config.Config
	deps Deps

	vectorizer *learner.Vectorizer
	ensemble   *learner.BaseEnsemble
	meta       *learner.MetaLearner
	opt        *optimizer.Optimizer
	calibrator *calibrate.Calibrator
	filter     *filter.Filter
	stabilizer *stabilize.Stabilizer
	monitor    *overfit.Monitor
	horizons   *horizon.Adapter
	dispatcher *scheduler.Dispatcher

	// mu guards the weight map, cycle counters, experiment log, and
	// the per-symbol caches. Held only for in-memory mutation, never
	// across I/O.
	mu            sync.RWMutex
	weights       map[string]float64
	weightsPrev   map[string]float64
	weightUpdated map[string]time.Time
	trainingCycle int
	experiments   []optimizer.Experiment
	lastFeatures  map[string]types.FeatureVector
	lastResults   map[string]types.SignalResult
	lastOutcomeAt time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New constructs the engine and restores persisted state. A missing or
// unreadable snapshot is not an error; the engine boots from defaults.
func New(cfg *config.Config, deps Deps) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		cfg:           cfg,
		deps:          deps,
		vectorizer:    learner.NewVectorizer(),
		calibrator:    calibrate.New(cfg.Calibrate),
		filter:        filter.New(cfg.Filter),
		stabilizer:    stabilize.New(cfg.Stabilize),
		horizons:      horizon.New(cfg.Horizon),
		dispatcher:    scheduler.NewDispatcher(8),
		weights:       make(map[string]float64),
		weightsPrev:   make(map[string]float64),
		weightUpdated: make(map[string]time.Time),
		lastFeatures:  make(map[string]types.FeatureVector),
		lastResults:   make(map[string]types.SignalResult),
		rng:           rng,
	}
	e.ensemble = learner.NewBaseEnsemble(cfg.Learner, e.childRNG())
	e.meta = learner.NewMetaLearner(cfg.Learner, e.childRNG())
	e.monitor = overfit.New(cfg.Overfit, e.childRNG())
	e.opt = optimizer.New(cfg.Optimizer, e.childRNG(), e.featureSnapshot)

	for _, key := range e.vectorizer.Keys() {
		e.weights[key] = defaultIndicatorWeight
	}
	e.restore()
	return e
}

func (e *Engine) childRNG() *rand.Rand {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return rand.New(rand.NewSource(e.rng.Int63()))
}

// featureSnapshot hands the optimizer the last feature vector seen for
// a symbol, for vote attribution.
func (e *Engine) featureSnapshot(symbol string) (types.FeatureVector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fv, ok := e.lastFeatures[symbol]
	return fv, ok
}

// ioCtx bounds store I/O so a slow disk or database can never wedge
// the signal path.
func (e *Engine) ioCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, time.Duration(e.cfg.Store.IOTimeoutSeconds)*time.Second)
}

// restore seeds weights from the seed profile, overlays the persisted
// weight store, and finally applies the engine snapshot. Every step is
// optional and non-fatal.
func (e *Engine) restore() {
	if path := e.cfg.Store.SeedProfilePath; path != "" {
		if seeded, err := store.LoadSeedWeights(path); err != nil {
			logger.Warnf("engine: seed profile unavailable: %v", err)
		} else {
			e.mu.Lock()
			for k, v := range seeded {
				e.weights[k] = v
			}
			e.mu.Unlock()
		}
	}

	if e.deps.Weights != nil {
		ctx, cancel := e.ioCtx(context.Background())
		persisted, err := e.deps.Weights.Load(ctx)
		cancel()
		if err != nil {
			logger.Warnf("engine: weight store unavailable, using defaults: %v", err)
		} else {
			e.mu.Lock()
			for k, v := range persisted {
				e.weights[k] = mathx.Clamp(v, optimizer.GlobalWeightFloor, optimizer.GlobalWeightCeil)
			}
			e.mu.Unlock()
		}
	}

	if e.deps.States == nil {
		return
	}
	ctx, cancel := e.ioCtx(context.Background())
	state, err := e.deps.States.Load(ctx)
	cancel()
	if err != nil {
		logger.Warnf("engine: state snapshot unreadable, booting fresh: %v", err)
		return
	}
	if state == nil {
		logger.Infof("engine: no snapshot found, booting from defaults")
		return
	}

	e.mu.Lock()
	for k, v := range state.Weights {
		e.weights[k] = mathx.Clamp(v, optimizer.GlobalWeightFloor, optimizer.GlobalWeightCeil)
	}
	e.trainingCycle = state.TrainingCycle
	e.experiments = append(e.experiments, state.Experiments...)
	e.mu.Unlock()

	e.calibrator.SetCompletedTrades(state.CompletedTrades)
	e.filter.Restore(state.Predictions, filter.Thresholds{
		MinConfidence: state.MinConfidence,
		MinProfit:     state.MinProfit,
	})
	logger.Infof("engine: restored snapshot (cycle=%d, %d weights, %d predictions)",
		state.TrainingCycle, len(state.Weights), len(state.Predictions))
}

// weightsSnapshot returns a copy-on-write view of the live weights.
func (e *Engine) weightsSnapshot() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

// indicatorKeys returns the weight map's keys.
func (e *Engine) indicatorKeys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.weights))
	for k := range e.weights {
		keys = append(keys, k)
	}
	return keys
}

// mutateWeights applies fn to the live weight map under the write
// lock, clamps every entry, stamps update times, and schedules an
// asynchronous persist.
func (e *Engine) mutateWeights(fn func(weights map[string]float64)) {
	now := time.Now().UTC()
	e.mu.Lock()
	before := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		before[k] = v
	}
	fn(e.weights)
	for k, v := range e.weights {
		clamped := mathx.Clamp(mathx.Sanitize(v, defaultIndicatorWeight),
			optimizer.GlobalWeightFloor, optimizer.GlobalWeightCeil)
		e.weights[k] = clamped
		if before[k] != clamped {
			e.weightUpdated[k] = now
		}
	}
	e.mu.Unlock()
	e.persistWeightsAsync()
}

func (e *Engine) persistWeightsAsync() {
	if e.deps.Weights == nil {
		return
	}
	snapshot := e.weightsSnapshot()
	go func() {
		ctx, cancel := e.ioCtx(context.Background())
		defer cancel()
		if err := e.deps.Weights.Save(ctx, snapshot); err != nil {
			logger.Warnf("engine: persisting weights failed (state kept in memory): %v", err)
		}
	}()
}
