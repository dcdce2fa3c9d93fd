package engine

import (
	"context"
	"time"

	"signalcore/internal/logger"
	"signalcore/internal/optimizer"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/scheduler"
)

// Run starts the scheduler loops and consumes ticks until ctx is
// cancelled. Training runs serially on this goroutine so two cycles can
// never overlap; signal generation stays concurrent.
func (e *Engine) Run(ctx context.Context) error {
	retrain := time.Duration(e.cfg.Engine.RetrainIntervalSeconds) * time.Second
	refresh := time.Duration(e.cfg.Engine.WeightRefreshIntervalSeconds) * time.Second
	recompute := time.Duration(e.cfg.Engine.ThresholdRecomputeIntervalSeconds) * time.Second
	startupDelay := time.Duration(e.cfg.Engine.StartupDelaySeconds) * time.Second
	if e.cfg.Engine.RunImmediately {
		startupDelay = 0
	}

	e.dispatcher.Every(ctx, scheduler.TickRetrain, retrain, startupDelay)
	e.dispatcher.Every(ctx, scheduler.TickRefreshWeights, refresh, refresh)
	// The filter recomputes on record cadence; this slow loop covers
	// quiet periods where too few predictions arrive to hit it.
	e.dispatcher.Every(ctx, scheduler.TickRecomputeThresholds, recompute, recompute)

	logger.Infof("engine: running (retrain=%s, weight refresh=%s, threshold recompute=%s, first cycle in %s)",
		retrain, refresh, recompute, startupDelay)

	for {
		select {
		case <-ctx.Done():
			logger.Infof("engine: shutting down, saving final snapshot")
			e.saveSnapshot(context.Background())
			return ctx.Err()
		case tick := <-e.dispatcher.Ticks():
			e.handleTick(ctx, tick)
		}
	}
}

func (e *Engine) handleTick(ctx context.Context, tick scheduler.Tick) {
	switch tick.Kind {
	case scheduler.TickRetrain:
		e.trainCycle(ctx)
	case scheduler.TickRefreshWeights:
		e.refreshWeights(ctx)
	case scheduler.TickRecomputeThresholds:
		e.filter.Recompute()
	default:
		logger.Warnf("engine: unknown tick kind %q", tick.Kind)
	}
}

// refreshWeights reloads the persisted weight map so an external edit
// (or a second process) takes effect without a restart, then persists
// the merged view. Persisted values pass through the same global clamp
// as every other mutation path; a hand-edited row cannot smuggle an
// out-of-range or non-finite weight into the live map.
func (e *Engine) refreshWeights(ctx context.Context) {
	if e.deps.Weights == nil {
		return
	}
	ioCtx, cancel := e.ioCtx(ctx)
	persisted, err := e.deps.Weights.Load(ioCtx)
	cancel()
	if err != nil {
		logger.Warnf("engine: weight refresh failed, keeping in-memory weights: %v", err)
		return
	}
	if len(persisted) == 0 {
		e.persistWeightsAsync()
		return
	}
	e.mu.Lock()
	changed := 0
	for k, v := range persisted {
		clamped := mathx.Clamp(mathx.Sanitize(v, defaultIndicatorWeight),
			optimizer.GlobalWeightFloor, optimizer.GlobalWeightCeil)
		if cur, ok := e.weights[k]; !ok || cur != clamped {
			changed++
		}
		e.weights[k] = clamped
	}
	e.mu.Unlock()
	if changed > 0 {
		logger.Debugf("engine: weight refresh merged %d changed entries", changed)
	}
}
