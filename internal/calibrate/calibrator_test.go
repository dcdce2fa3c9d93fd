package calibrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
	"signalcore/internal/types"
)

func newTestCalibrator() *Calibrator {
	return New(config.Default().Calibrate)
}

func outcome(dir types.Signal, win bool) types.TradeOutcome {
	o := types.TradeOutcome{SignalType: dir, ActualOutcome: types.OutcomeSLHit}
	if win {
		o.ActualOutcome = types.OutcomeTPHit
	}
	return o
}

func TestSuccessRateImprovesWithGoodStream(t *testing.T) {
	c := newTestCalibrator()

	for i := 0; i < 10; i++ {
		// roughly 20-45% accuracy: 3 of 10 wins
		c.Observe(outcome(types.SignalLong, i%3 == 0))
	}
	poor := c.SuccessRate()

	for i := 0; i < 10; i++ {
		c.Observe(outcome(types.SignalLong, i != 0)) // 90%
	}
	good := c.SuccessRate()

	assert.Greater(t, good, poor)
}

func TestCalibrateAppliesMultiplierAndBonus(t *testing.T) {
	c := newTestCalibrator()
	cfg := config.Default().Calibrate

	// No history yet: directional rate 0.5 maps to multiplier 1.1, and
	// with zero completed trades the early bonus is at its full 0.15.
	got := c.Calibrate(50, types.SignalLong)
	want := 50*1.1 + 0.15*100
	assert.InDelta(t, want, got, 1e-9)
	assert.LessOrEqual(t, got, cfg.MaxConfidence)
}

func TestCalibrateClampsToDisplayRange(t *testing.T) {
	c := newTestCalibrator()
	cfg := config.Default().Calibrate

	assert.InDelta(t, cfg.MinConfidence, c.Calibrate(0, types.SignalWait), 1e-9)
	assert.InDelta(t, cfg.MaxConfidence, c.Calibrate(100, types.SignalWait), 1e-9)
}

func TestCalibrateBonusDecays(t *testing.T) {
	c := newTestCalibrator()

	fresh := c.Calibrate(50, types.SignalWait)
	c.SetCompletedTrades(149)
	late := c.Calibrate(50, types.SignalWait)
	c.SetCompletedTrades(150)
	none := c.Calibrate(50, types.SignalWait)

	assert.Greater(t, fresh, late)
	assert.Greater(t, late, none)
}

func TestTrackNudgeUpOnImprovement(t *testing.T) {
	c := newTestCalibrator()

	var fb Feedback
	series := []float64{50, 50, 50, 50, 50, 70, 71, 72, 73, 74}
	for _, conf := range series {
		fb = c.Track("BTCUSDT", conf)
	}
	assert.True(t, fb.NudgeUp)
	assert.False(t, fb.NudgeDown)
}

func TestTrackNudgeDownOnDecline(t *testing.T) {
	c := newTestCalibrator()

	var fb Feedback
	series := []float64{70, 70, 70, 70, 70, 64, 64, 64, 64, 64}
	for _, conf := range series {
		fb = c.Track("BTCUSDT", conf)
	}
	assert.True(t, fb.NudgeDown)
}

func TestTrackStagnation(t *testing.T) {
	c := newTestCalibrator()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.nowFn = func() time.Time { return clock }

	sawStagnant := false
	for i := 0; i < 8; i++ {
		if c.Track("ETHUSDT", 60.5).Stagnant {
			sawStagnant = true
		}
		clock = clock.Add(3 * time.Minute)
	}
	assert.True(t, sawStagnant)

	// A real move never reads as stagnation.
	assert.False(t, c.Track("ETHUSDT", 75).Stagnant)
}

func TestSuccessRateCappedByWindowedMean(t *testing.T) {
	c := newTestCalibrator()

	// A losing start followed by a hot streak pushes the EMA toward 1
	// while the window still records a 50% hit rate; the reported rate
	// must not exceed what the window holds.
	for i := 0; i < 10; i++ {
		c.Observe(outcome(types.SignalLong, false))
	}
	for i := 0; i < 10; i++ {
		c.Observe(outcome(types.SignalLong, true))
	}
	assert.InDelta(t, 0.5, c.SuccessRate(), 1e-9)
}

func TestSuccessRateBelowWindowedMeanPassesThrough(t *testing.T) {
	c := newTestCalibrator()

	// The mirrored stream leaves the EMA pessimistic; below the
	// windowed mean the smoothed value is reported unchanged.
	for i := 0; i < 10; i++ {
		c.Observe(outcome(types.SignalLong, true))
	}
	for i := 0; i < 10; i++ {
		c.Observe(outcome(types.SignalLong, false))
	}
	assert.Less(t, c.SuccessRate(), 0.1)
}
