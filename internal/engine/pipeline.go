package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"signalcore/internal/calibrate"
	"signalcore/internal/horizon"
	"signalcore/internal/learner"
	"signalcore/internal/logger"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// Risk-level sizing off the current bar. Offsets scale with the
// volatility indicator before horizon adjustment.
const (
	baseOffsetPctMin  = 0.5
	baseOffsetPctMax  = 3.0
	takeProfitRatio   = 1.5
	volatilityToOffst = 0.5
)

// GenerateSignal runs the full pipeline for one symbol: base ensemble,
// meta stacking, confidence calibration, adaptive filtering,
// stabilization, and the horizon boost. Output values are clamped after
// every stage; a non-finite result falls back to the last valid output
// for the symbol.
func (e *Engine) GenerateSignal(symbol string, features types.FeatureVector) types.SignalResult {
	res, _, _ := e.generate(symbol, features)
	return res
}

// GenerateSignalWithRiskLevels runs GenerateSignal and adds sized
// entry, take-profit, and stop-loss levels plus the filter verdict.
func (e *Engine) GenerateSignalWithRiskLevels(symbol string, features types.FeatureVector) types.RiskSignalResult {
	res, filtered, reason := e.generate(symbol, features)
	out := types.RiskSignalResult{
		SignalResult: res,
		WasFiltered:  filtered,
		FilterReason: reason,
	}
	if res.Signal == types.SignalWait || features.Close <= 0 {
		return out
	}

	entry := features.Close
	offsetPct := mathx.Clamp(features.IndicatorOr(types.IndicatorVolatility, 1)*volatilityToOffst,
		baseOffsetPctMin, baseOffsetPctMax)

	ent := decimal.NewFromFloat(entry)
	offset := ent.Mul(decimal.NewFromFloat(offsetPct / 100))
	var tp, sl decimal.Decimal
	if res.Signal == types.SignalLong {
		tp = ent.Add(offset.Mul(decimal.NewFromFloat(takeProfitRatio)))
		sl = ent.Sub(offset)
	} else {
		tp = ent.Sub(offset.Mul(decimal.NewFromFloat(takeProfitRatio)))
		sl = ent.Add(offset)
	}
	tpF, _ := tp.Float64()
	slF, _ := sl.Float64()

	adj := horizon.RiskAdjustment{TakeProfitFactor: 1, StopLossFactor: 1, Profile: "neutral"}
	if e.deps.Forecasts != nil {
		ctx, cancel := e.ioCtx(nil)
		accs, err := e.deps.Forecasts.GetHorizonAccuracies(ctx, symbol)
		cancel()
		if err != nil {
			logger.Debugf("engine: horizon accuracies unavailable for %s: %v", symbol, err)
		} else {
			adj = e.horizons.Risk(accs)
		}
	}
	tpF, slF = horizon.ApplyRisk(entry, tpF, slF, adj)

	out.EntryPrice = entry
	out.TakeProfit = tpF
	out.StopLoss = slF
	if risk := math.Abs(entry - slF); risk > 0 {
		out.RiskRewardRatio = math.Abs(tpF-entry) / risk
	}
	return out
}

func (e *Engine) generate(symbol string, features types.FeatureVector) (types.SignalResult, bool, string) {
	now := time.Now().UTC()
	if symbol == "" {
		symbol = features.Symbol
	}

	if len(features.Indicators) == 0 {
		logger.Warnf("engine: %s features carry no indicators, using heuristic fallback", symbol)
		res := e.heuristic(symbol, features, now)
		// Fallback emissions still count toward the prediction buffer so
		// threshold recomputes and accuracy tracking see every output.
		e.filter.Record(types.PredictionRecord{
			Symbol:           symbol,
			Signal:           res.Signal,
			Confidence:       res.Confidence,
			ProfitLikelihood: res.ProfitLikelihood,
			Timestamp:        now,
		})
		return res, false, ""
	}

	e.mu.Lock()
	e.lastFeatures[symbol] = features
	e.mu.Unlock()

	weights := e.weightsSnapshot()
	vec := e.vectorizer.Transform(features, weights)
	basePreds := e.ensemble.Predict(symbol, vec)

	metaInput := learner.BuildMetaInput(basePreds, features)
	prob := mathx.Clamp(mathx.Sanitize(e.meta.PredictProb(metaInput, basePreds), 0.5), 0, 1)
	dir := e.meta.Direction(prob)

	rawConfidence := mathx.Clamp(math.Abs(prob-0.5)*200, 0, 100)
	profit := profitLikelihoodFor(dir, prob)

	calibrated := mathx.Clamp(e.calibrator.Calibrate(rawConfidence, dir), 0, 100)

	verdict := e.filter.Evaluate(calibrated, profit)
	filtered := !verdict.Passed
	if filtered {
		dir = types.SignalWait
		calibrated = mathx.Clamp(e.cfg.Filter.RejectConfidence, 0, 100)
		profit = mathx.Clamp(e.cfg.Filter.RejectProfit, 0, 100)
	}

	stab := e.stabilizer.Apply(symbol, dir, calibrated, profit, features.Close)

	confidence := mathx.Clamp(stab.Confidence, 0, 100)
	profit = mathx.Clamp(stab.ProfitLikelihood, 0, 100)
	dir = stab.Signal

	if e.deps.Forecasts != nil && dir != types.SignalWait {
		ctx, cancel := e.ioCtx(nil)
		accs, err := e.deps.Forecasts.GetHorizonAccuracies(ctx, symbol)
		cancel()
		if err != nil {
			logger.Debugf("engine: horizon accuracies unavailable for %s: %v", symbol, err)
		} else if boost := e.horizons.ConfidenceBoost(accs); boost > 0 {
			confidence = mathx.Clamp(confidence+boost, 0, e.cfg.Calibrate.MaxConfidence)
		}
	}

	result := types.SignalResult{
		Symbol:            symbol,
		Signal:            dir,
		Confidence:        confidence,
		ProfitLikelihood:  profit,
		ModelExplanation:  e.explain(basePreds, prob, filtered, verdict.Reason, stab.Stabilized),
		FeatureImportance: e.importance(weights),
		Stabilized:        stab.Stabilized,
		GeneratedAt:       now,
	}

	if !mathx.Finite(result.Confidence) || !mathx.Finite(result.ProfitLikelihood) || !result.Signal.Valid() {
		e.mu.RLock()
		last, ok := e.lastResults[symbol]
		e.mu.RUnlock()
		if ok {
			logger.Errorf("engine: %s produced a non-finite result, reusing last valid output", symbol)
			return last, filtered, verdict.Reason
		}
		result.Signal = types.SignalWait
		result.Confidence = e.cfg.Filter.RejectConfidence
		result.ProfitLikelihood = e.cfg.Filter.RejectProfit
	}

	record := types.PredictionRecord{
		Symbol:           symbol,
		Signal:           result.Signal,
		Confidence:       result.Confidence,
		ProfitLikelihood: result.ProfitLikelihood,
		Timestamp:        now,
		WasFiltered:      filtered,
		FilterReason:     verdict.Reason,
	}
	e.filter.Record(record)
	e.monitor.RecordPrediction(result.Signal, result.Confidence, result.ProfitLikelihood)

	e.applyFeedback(e.calibrator.Track(symbol, result.Confidence))

	e.mu.Lock()
	e.lastResults[symbol] = result
	e.mu.Unlock()

	return result, filtered, verdict.Reason
}

// profitLikelihoodFor maps the meta probability onto the direction's
// side: how likely the chosen side is to be right.
func profitLikelihoodFor(dir types.Signal, prob float64) float64 {
	switch dir {
	case types.SignalLong:
		return mathx.Clamp(prob*100, 0, 100)
	case types.SignalShort:
		return mathx.Clamp((1-prob)*100, 0, 100)
	default:
		return 50
	}
}

// heuristic is the degraded path for malformed features: a plain
// RSI/MACD threshold rule with low fixed confidence.
func (e *Engine) heuristic(symbol string, features types.FeatureVector, now time.Time) types.SignalResult {
	dir := types.SignalWait
	rsi, hasRSI := features.Indicator(types.IndicatorRSI)
	macd, hasMACD := features.Indicator(types.IndicatorMACD)
	switch {
	case hasRSI && rsi < 30:
		dir = types.SignalLong
	case hasRSI && rsi > 70:
		dir = types.SignalShort
	case hasMACD && macd > 0:
		dir = types.SignalLong
	case hasMACD && macd < 0:
		dir = types.SignalShort
	}
	conf := e.cfg.Calibrate.MinConfidence
	if dir == types.SignalWait {
		conf = e.cfg.Filter.RejectConfidence
	}
	return types.SignalResult{
		Symbol:           symbol,
		Signal:           dir,
		Confidence:       conf,
		ProfitLikelihood: 50,
		ModelExplanation: "heuristic fallback (incomplete features)",
		GeneratedAt:      now,
	}
}

// applyFeedback mutates weights per the calibrator's verdict.
func (e *Engine) applyFeedback(fb calibrate.Feedback) {
	switch {
	case fb.NudgeUp:
		logger.Infof("engine: confidence improving, raising all weights 5%%")
		e.mutateWeights(func(weights map[string]float64) {
			for k, v := range weights {
				weights[k] = v * 1.05
			}
		})
	case fb.NudgeDown:
		logger.Infof("engine: confidence declining, nudging half the weights down 2%%")
		e.mutateWeights(func(weights map[string]float64) {
			for k, v := range weights {
				if e.roll() < 0.5 {
					weights[k] = v * 0.98
				}
			}
		})
	case fb.Stagnant:
		logger.Warnf("engine: confidence stagnant, perturbing weights and resetting thresholds")
		e.mutateWeights(func(weights map[string]float64) {
			for k, v := range weights {
				weights[k] = v * (0.9 + e.roll()*0.2)
			}
		})
		e.filter.ResetToFloors()
	}
}

func (e *Engine) roll() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

// importance blends the meta-learner's split-gain importance with the
// live weight shares so callers always get a populated map.
func (e *Engine) importance(weights map[string]float64) map[string]float64 {
	if e.meta.Trained() {
		if imp := e.meta.Importance(); len(imp) > 0 {
			return imp
		}
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil
	}
	out := make(map[string]float64, len(weights))
	for k, w := range weights {
		out[k] = w / total
	}
	return out
}

func (e *Engine) explain(preds []learner.BasePrediction, prob float64, filtered bool, reason string, stabilized bool) string {
	parts := make([]string, 0, len(preds)+3)
	for _, p := range preds {
		parts = append(parts, fmt.Sprintf("%s=%s(%.2f)", p.Learner, p.Signal, p.Probability))
	}
	sort.Strings(parts)
	parts = append(parts, fmt.Sprintf("meta=%.3f", prob))
	if filtered {
		parts = append(parts, "filtered: "+reason)
	}
	if stabilized {
		parts = append(parts, "stabilized")
	}
	return strings.Join(parts, ", ")
}
