package overfit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
	"signalcore/internal/types"
)

func newTestMonitor() *Monitor {
	return New(config.Default().Overfit, rand.New(rand.NewSource(7)))
}

// feedDivergence pushes one cycle's worth of accuracy history whose last
// 5 points slope +0.08 in-sample and -0.05 out-of-sample.
func feedDivergence(m *Monitor, base float64) {
	for i := 0; i < 5; i++ {
		m.RecordCycle(base+0.08*float64(i), base-0.05*float64(i))
	}
}

func TestAssessTriggersAfterConsecutiveDivergences(t *testing.T) {
	m := newTestMonitor()

	feedDivergence(m, 0.5)
	first := m.Assess()
	assert.True(t, first.Divergent)
	assert.False(t, first.Triggered, "first divergence only advances the counter")
	assert.True(t, m.Flagged())

	// Divergence persists into the next cycle: counter hits the limit.
	m.RecordCycle(0.5+0.08*5, 0.5-0.05*5)
	second := m.Assess()
	assert.True(t, second.Divergent)
	assert.True(t, second.Triggered)

	// Counter was reset by the trigger: the next divergent cycle starts
	// the count over instead of triggering again.
	m.RecordCycle(0.5+0.08*6, 0.5-0.05*6)
	third := m.Assess()
	assert.True(t, third.Divergent)
	assert.False(t, third.Triggered)
}

func TestAssessResetsCounterOnHealthyCycle(t *testing.T) {
	m := newTestMonitor()

	feedDivergence(m, 0.5)
	assert.True(t, m.Assess().Divergent)

	// Flat history: divergence gone, counter and flag reset.
	for i := 0; i < 5; i++ {
		m.RecordCycle(0.6, 0.6)
	}
	healthy := m.Assess()
	assert.False(t, healthy.Divergent)
	assert.False(t, m.Flagged())
}

func TestTrendSlopeNeedsEnoughPoints(t *testing.T) {
	m := newTestMonitor()
	m.RecordCycle(0.9, 0.1)
	a := m.Assess()
	assert.Zero(t, a.InTrend)
	assert.Zero(t, a.OutTrend)
	assert.False(t, a.Divergent)
}

func TestBootstrapIntervalsOrderedAndBracketing(t *testing.T) {
	m := newTestMonitor()

	for i := 0; i < 40; i++ {
		p := 50 + float64(i%21) // 50..70
		m.RecordPrediction(types.SignalLong, 60, p)
	}
	intervals := m.BootstrapIntervals()

	overall := intervals["overall"]
	assert.Less(t, overall.Low, overall.High)
	assert.Greater(t, overall.Low, 50.0)
	assert.Less(t, overall.High, 70.0)

	// No short predictions recorded: empty interval.
	assert.Equal(t, Interval{}, intervals["short"])
}

func TestUncertaintyAlertOnRisingDispersion(t *testing.T) {
	m := newTestMonitor()

	// Tight cluster first, then increasingly dispersed confidences.
	for i := 0; i < 10; i++ {
		m.RecordPrediction(types.SignalLong, 60+float64(i%2), 50)
		m.Uncertainty()
	}
	var alert bool
	for i := 0; i < 30; i++ {
		m.RecordPrediction(types.SignalLong, 60+float64(i%2)*60, 50)
		_, _, a := m.Uncertainty()
		alert = alert || a
	}
	assert.True(t, alert)
}

func TestRecordCycleSanitizesInput(t *testing.T) {
	m := newTestMonitor()
	m.RecordCycle(5, -3) // clamped into [0,1]
	inAcc, outAcc := m.AccuracyWindows()
	assert.Equal(t, []float64{1}, inAcc)
	assert.Equal(t, []float64{0}, outAcc)
}
