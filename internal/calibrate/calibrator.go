// Package calibrate maps raw model confidence onto the displayed range
// using rolling realized performance, with an early-learning bonus
// while the outcome history is still thin.
package calibrate

import (
	"sync"
	"time"

	"signalcore/internal/config"
	"signalcore/internal/pkg/mathx"
	"signalcore/internal/types"
)

// Feedback tells the engine what corrective action the rolling
// confidence history asks for. Corrective, not exceptional: the engine
// applies these silently.
type Feedback struct {
	// NudgeUp: recent confidence improved sharply, raise all weights 5%.
	NudgeUp bool
	// NudgeDown: confidence declined, nudge roughly half the weights down 2%.
	NudgeDown bool
	// Stagnant: confidence flatlined long enough to warrant a
	// perturbation of all weights and a threshold floor reset.
	Stagnant bool
}

type symbolTrack struct {
	confidences    []float64
	lastConfidence float64
	hasLast        bool
	stagnantCycles int
	stagnantSince  time.Time
}

// Calibrator keeps EMA-smoothed rolling success rates overall and per
// direction, and per-symbol confidence history for stagnation checks.
type Calibrator struct {
	cfg config.CalibrateConfig

	mu        sync.Mutex
	overall   emaRate
	longRate  emaRate
	shortRate emaRate
	completed int
	perSymbol map[string]*symbolTrack
	nowFn     func() time.Time
}

type emaRate struct {
	value  float64
	window []float64
	primed bool
}

func (r *emaRate) observe(success bool, alpha float64, limit int) {
	v := 0.0
	if success {
		v = 1.0
	}
	r.window = append(r.window, v)
	if len(r.window) > limit {
		r.window = r.window[len(r.window)-limit:]
	}
	if !r.primed {
		r.value = v
		r.primed = true
		return
	}
	r.value = mathx.EMA(r.value, v, alpha)
}

// rate returns the smoothed value, capped at the windowed mean so a
// streak-chasing EMA can never report a better record than the window
// actually holds. 0.5 before any data.
func (r *emaRate) rate() float64 {
	if !r.primed {
		return 0.5
	}
	if len(r.window) == 0 {
		return r.value
	}
	sum := 0.0
	for _, v := range r.window {
		sum += v
	}
	if m := sum / float64(len(r.window)); r.value > m {
		return m
	}
	return r.value
}

func New(cfg config.CalibrateConfig) *Calibrator {
	return &Calibrator{
		cfg:       cfg,
		perSymbol: make(map[string]*symbolTrack),
		nowFn:     time.Now,
	}
}

// Observe folds one completed trade into the rolling success rates.
func (c *Calibrator) Observe(o types.TradeOutcome) {
	success := o.ActualOutcome.Profitable()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	c.overall.observe(success, c.cfg.Alpha, c.cfg.Window)
	switch o.SignalType {
	case types.SignalLong:
		c.longRate.observe(success, c.cfg.Alpha, c.cfg.Window)
	case types.SignalShort:
		c.shortRate.observe(success, c.cfg.Alpha, c.cfg.Window)
	}
}

// SuccessRate returns the smoothed overall rate, 0.5 before any data.
func (c *Calibrator) SuccessRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overall.rate()
}

// DirectionalRate returns the smoothed rate for one direction, falling
// back to the overall rate when that direction has no history yet.
func (c *Calibrator) DirectionalRate(dir types.Signal) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r emaRate
	switch dir {
	case types.SignalLong:
		r = c.longRate
	case types.SignalShort:
		r = c.shortRate
	}
	if r.primed {
		return r.rate()
	}
	return c.overall.rate()
}

// CompletedTrades returns the number of observed outcomes.
func (c *Calibrator) CompletedTrades() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// SetCompletedTrades seeds the counter from a restored snapshot.
func (c *Calibrator) SetCompletedTrades(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.completed = n
	c.mu.Unlock()
}

// Calibrate applies the rolling-performance multiplier and the decaying
// early-learning bonus to a raw confidence, clamping to the display
// range.
func (c *Calibrator) Calibrate(raw float64, dir types.Signal) float64 {
	raw = mathx.Sanitize(raw, c.cfg.MinConfidence)
	rate := c.DirectionalRate(dir)
	multiplier := mathx.Clamp(rate*2.2, c.cfg.MultiplierMin, c.cfg.MultiplierMax)

	bonus := 0.0
	c.mu.Lock()
	count := c.completed
	c.mu.Unlock()
	if count < c.cfg.EarlyLearningTrades {
		bonus = float64(c.cfg.EarlyLearningTrades-count) / float64(c.cfg.EarlyLearningTrades) * c.cfg.EarlyLearningBonus
	}

	out := raw*multiplier + bonus*100
	return mathx.Clamp(mathx.Sanitize(out, c.cfg.MinConfidence), c.cfg.MinConfidence, c.cfg.MaxConfidence)
}

// Track records a symbol's calibrated confidence and reports the
// corrective feedback derived from its rolling history: improvement and
// decline nudges from the last-5 vs prior-5 averages, and stagnation
// when the value barely moves across enough cycles spanning the
// configured wall-clock window.
func (c *Calibrator) Track(symbol string, confidence float64) Feedback {
	now := c.nowFn()
	c.mu.Lock()
	defer c.mu.Unlock()

	track := c.perSymbol[symbol]
	if track == nil {
		track = &symbolTrack{}
		c.perSymbol[symbol] = track
	}

	var fb Feedback

	// Stagnation bookkeeping first, against the previous value.
	if track.hasLast {
		delta := confidence - track.lastConfidence
		if delta < 0 {
			delta = -delta
		}
		if delta < c.cfg.StagnationDeltaLimit {
			if track.stagnantCycles == 0 {
				track.stagnantSince = now
			}
			track.stagnantCycles++
			span := now.Sub(track.stagnantSince)
			if track.stagnantCycles >= c.cfg.StagnationCycles &&
				span > time.Duration(c.cfg.StagnationMinutes)*time.Minute {
				fb.Stagnant = true
				track.stagnantCycles = 0
			}
		} else {
			track.stagnantCycles = 0
		}
	}
	track.lastConfidence = confidence
	track.hasLast = true

	track.confidences = append(track.confidences, confidence)
	if len(track.confidences) > 10 {
		track.confidences = track.confidences[len(track.confidences)-10:]
	}
	if len(track.confidences) == 10 {
		recent := mean(track.confidences[5:])
		prior := mean(track.confidences[:5])
		switch {
		case recent-prior > 5:
			fb.NudgeUp = true
		case prior-recent > 2:
			fb.NudgeDown = true
		}
	}
	return fb
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
