package engine

import (
	"context"
	"time"

	"signalcore/internal/learner"
	"signalcore/internal/logger"
	"signalcore/internal/optimizer"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/scheduler"
	"signalcore/internal/store"
	"signalcore/internal/types"
)

const maxRetainedExperiments = 50

// ForceRetrain queues an immediate training cycle. The cycle runs on
// the coordinator goroutine; callers never block on training.
func (e *Engine) ForceRetrain() {
	e.dispatcher.Trigger(scheduler.TickRetrain)
}

// trainCycle is the retraining loop body: fetch recent outcomes,
// retrain the base ensemble and meta-learner, rebalance weights from
// votes, optionally run an exploration experiment, assess overfitting,
// and snapshot state. Any failure leaves the previous models serving.
func (e *Engine) trainCycle(ctx context.Context) {
	start := time.Now()

	ioCtx, cancel := e.ioCtx(ctx)
	outcomes, err := e.deps.Outcomes.GetRecentCompleted(ioCtx, e.cfg.Store.OutcomeLimit, e.cfg.Store.OutcomeSinceDays)
	cancel()
	if err != nil {
		logger.Errorf("engine: training skipped, outcome fetch failed: %v", err)
		return
	}
	if len(outcomes) < e.cfg.Engine.MinCompletedTrades {
		logger.Infof("engine: training skipped, %d outcomes < %d required",
			len(outcomes), e.cfg.Engine.MinCompletedTrades)
		return
	}

	e.observeNewOutcomes(outcomes)

	weights := e.weightsSnapshot()
	bySymbol, inputs, targets := e.buildTrainingData(outcomes, weights)

	report := e.ensemble.Train(ctx, bySymbol)
	for symbol, ferr := range report.Failures {
		logger.Warnf("engine: base training failed for %s: %v", symbol, ferr)
	}

	if len(inputs) >= e.cfg.Engine.MinCompletedTrades {
		e.meta.Fit(inputs, targets)
	}

	inAcc := e.inSampleAccuracy(inputs, targets)
	outAcc := liveAccuracy(outcomes)
	e.monitor.RecordCycle(inAcc, outAcc)

	if assessment := e.monitor.Assess(); assessment.Triggered {
		e.counterOverfit()
	}

	e.rebalanceWeights(outcomes)

	if _, rising, alert := e.monitor.Uncertainty(); alert && rising {
		logger.Warnf("engine: confidence dispersion rising, predictions may be degrading")
	}

	e.mu.Lock()
	e.trainingCycle++
	cycle := e.trainingCycle
	prev := make(map[string]float64, len(e.weights))
	for k, v := range e.weights {
		prev[k] = v
	}
	e.weightsPrev = prev
	e.mu.Unlock()

	e.saveSnapshot(ctx)

	logger.Infof("engine: training cycle %d done in %s (symbols=%d skipped=%d inAcc=%.2f outAcc=%.2f)",
		cycle, time.Since(start).Round(time.Millisecond),
		report.SymbolsTrained, report.SymbolsSkipped, inAcc, outAcc)
}

// observeNewOutcomes feeds the calibrator only outcomes it has not seen
// yet, keyed by creation time.
func (e *Engine) observeNewOutcomes(outcomes []types.TradeOutcome) {
	e.mu.Lock()
	since := e.lastOutcomeAt
	latest := since
	e.mu.Unlock()

	for _, o := range outcomes {
		if !o.CreatedAt.After(since) {
			continue
		}
		e.calibrator.Observe(o)
		if o.CreatedAt.After(latest) {
			latest = o.CreatedAt
		}
	}

	e.mu.Lock()
	e.lastOutcomeAt = latest
	e.mu.Unlock()
}

// buildTrainingData turns outcomes into per-symbol base-learner samples
// and the stacked meta inputs. The last live feature vector per symbol
// stands in for the features at trade entry; symbols never seen get a
// flat vector so they still contribute to the general model.
func (e *Engine) buildTrainingData(outcomes []types.TradeOutcome, weights map[string]float64) (map[string][]learner.Sample, [][]float64, []float64) {
	bySymbol := make(map[string][]learner.Sample)
	inputs := make([][]float64, 0, len(outcomes))
	targets := make([]float64, 0, len(outcomes))

	for _, o := range outcomes {
		fv, ok := e.featureSnapshot(o.Symbol)
		if !ok {
			fv = flatFeatures(o)
		}
		vec := e.vectorizer.Transform(fv, weights)
		target := optimizer.DirectionalTarget(o)

		bySymbol[o.Symbol] = append(bySymbol[o.Symbol], learner.Sample{
			Symbol:   o.Symbol,
			Features: vec,
			Target:   target,
		})

		preds := e.ensemble.Predict(o.Symbol, vec)
		inputs = append(inputs, learner.BuildMetaInput(preds, fv))
		targets = append(targets, target)
	}
	return bySymbol, inputs, targets
}

// flatFeatures synthesizes a neutral vector from the outcome itself for
// symbols with no cached live features.
func flatFeatures(o types.TradeOutcome) types.FeatureVector {
	return types.FeatureVector{
		Symbol: o.Symbol,
		Close:  o.EntryPrice,
		Indicators: map[string]float64{
			types.IndicatorRSI:        50,
			types.IndicatorMACD:       0,
			types.IndicatorVolatility: 1,
			types.IndicatorStochastic: 50,
			types.IndicatorVolume:     0,
		},
		Timestamp: o.CreatedAt,
	}
}

// inSampleAccuracy scores the freshly fitted meta-learner against its
// own training rows.
func (e *Engine) inSampleAccuracy(inputs [][]float64, targets []float64) float64 {
	if len(inputs) == 0 || !e.meta.Trained() {
		return 0.5
	}
	hits := 0
	for i, input := range inputs {
		p := e.meta.PredictProb(input, nil)
		if (p >= 0.5) == (targets[i] >= 0.5) {
			hits++
		}
	}
	return float64(hits) / float64(len(inputs))
}

// liveAccuracy is the out-of-sample proxy: the profitable share of the
// fetched outcome batch.
func liveAccuracy(outcomes []types.TradeOutcome) float64 {
	if len(outcomes) == 0 {
		return 0.5
	}
	wins := 0
	for _, o := range outcomes {
		if o.ActualOutcome.Profitable() {
			wins++
		}
	}
	return float64(wins) / float64(len(outcomes))
}

// counterOverfit applies the divergence countermeasures: tighten the
// confidence gate and decay weights that spiked since the last cycle.
func (e *Engine) counterOverfit() {
	raised := e.filter.RaiseMinConfidence(e.cfg.Overfit.ConfidenceStep, e.cfg.Overfit.ConfidenceCap)
	logger.Warnf("engine: overfitting countermeasures active, min confidence now %.1f", raised)

	e.mu.RLock()
	prev := e.weightsPrev
	e.mu.RUnlock()
	if len(prev) == 0 {
		return
	}
	e.mutateWeights(func(weights map[string]float64) {
		for k, v := range weights {
			base, ok := prev[k]
			if !ok || base <= 0 {
				continue
			}
			if v/base > e.cfg.Overfit.SpikeRatio {
				weights[k] = v * (1 - e.cfg.Overfit.SpikeDecay)
				logger.Warnf("engine: decaying spiked weight %s %.3f -> %.3f", k, v, weights[k])
			}
		}
	})
}

// rebalanceWeights applies reward-vote tallies and, occasionally, an
// exploration experiment. Both tallies are computed up front: vote
// attribution reads the feature snapshots, which take the engine read
// lock, so it must never run inside the mutateWeights critical section.
func (e *Engine) rebalanceWeights(outcomes []types.TradeOutcome) {
	indicators := e.indicatorKeys()
	tallies := e.opt.TallyVotes(outcomes, indicators)
	expTallies := e.opt.TallyVotes(e.opt.EvaluationSlice(outcomes), indicators)

	var experiment *optimizer.Experiment
	e.mutateWeights(func(weights map[string]float64) {
		changed := e.opt.ApplyTally(weights, tallies)
		if len(changed) > 0 {
			logger.Infof("engine: adjusted weights for %v", changed)
		}
		experiment = e.opt.MaybeExperiment(weights, expTallies)
	})

	if experiment != nil {
		e.mu.Lock()
		e.experiments = append(e.experiments, *experiment)
		if len(e.experiments) > maxRetainedExperiments {
			e.experiments = e.experiments[len(e.experiments)-maxRetainedExperiments:]
		}
		e.mu.Unlock()
		logger.Infof("engine: experiment %s accepted=%v (profit %.3f vs %.3f)",
			experiment.ID, experiment.Accepted, experiment.SimProfit, experiment.BaseProfit)
	}
}

// saveSnapshot persists the resumable engine state. Failures are logged
// and the in-memory state keeps serving.
func (e *Engine) saveSnapshot(ctx context.Context) {
	if e.deps.States == nil {
		return
	}

	predictions, thresholds, _ := e.filter.Snapshot()

	e.mu.RLock()
	state := &store.EngineState{
		Weights:         make(map[string]float64, len(e.weights)),
		WeightMeta:      make([]types.FeatureWeight, 0, len(e.weights)),
		MinConfidence:   thresholds.MinConfidence,
		MinProfit:       thresholds.MinProfit,
		TrainingCycle:   e.trainingCycle,
		CompletedTrades: e.calibrator.CompletedTrades(),
		Predictions:     predictions,
		Experiments:     append([]optimizer.Experiment(nil), e.experiments...),
		SavedAt:         time.Now().UTC(),
	}
	for k, v := range e.weights {
		state.Weights[k] = mathx.Sanitize(v, defaultIndicatorWeight)
		state.WeightMeta = append(state.WeightMeta, types.FeatureWeight{
			Indicator:   k,
			Weight:      state.Weights[k],
			LastUpdated: e.weightUpdated[k],
		})
	}
	e.mu.RUnlock()

	state.InSampleAcc, state.OutSampleAcc = e.monitor.AccuracyWindows()

	ioCtx, cancel := e.ioCtx(ctx)
	defer cancel()
	if err := e.deps.States.Save(ioCtx, state); err != nil {
		logger.Errorf("engine: snapshot save failed: %v", err)
		return
	}
	logger.Debugf("engine: snapshot saved (cycle=%d)", state.TrainingCycle)
}
