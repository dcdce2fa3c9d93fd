package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signalcore/internal/config"
	"signalcore/internal/types"
)

func record(conf, profit float64) types.PredictionRecord {
	return types.PredictionRecord{
		Symbol:           "BTCUSDT",
		Signal:           types.SignalLong,
		Confidence:       conf,
		ProfitLikelihood: profit,
		Timestamp:        time.Now(),
	}
}

func TestEvaluatePassesWhileBufferUnderfilled(t *testing.T) {
	f := New(config.Default().Filter)

	for i := 0; i < 9; i++ {
		f.Record(record(1, 1))
	}
	res := f.Evaluate(1, 1)
	assert.True(t, res.Passed)
	assert.Empty(t, res.Reason)
}

func TestRecomputeSetsMeanMinusStd(t *testing.T) {
	f := New(config.Default().Filter)

	// Six at 50 and six at 70: mean 60, sample std ~10.44.
	for i := 0; i < 6; i++ {
		f.Record(record(50, 50))
		f.Record(record(70, 70))
	}
	f.Recompute()

	th := f.Thresholds()
	assert.InDelta(t, 49.555, th.MinConfidence, 0.01)
	assert.InDelta(t, 49.555, th.MinProfit, 0.01)

	// No new records: repeated reads and recomputes are stable.
	f.Recompute()
	assert.Equal(t, th, f.Thresholds())
}

func TestRecomputeNeverDropsBelowFloors(t *testing.T) {
	cfg := config.Default().Filter
	f := New(cfg)

	for i := 0; i < 20; i++ {
		f.Record(record(10, 5))
	}
	f.Recompute()

	th := f.Thresholds()
	assert.InDelta(t, cfg.ConfidenceFloor, th.MinConfidence, 1e-9)
	assert.InDelta(t, cfg.ProfitFloor, th.MinProfit, 1e-9)
}

func TestEvaluateRejectsOnlyWhenBothBelow(t *testing.T) {
	f := New(config.Default().Filter)
	for i := 0; i < 6; i++ {
		f.Record(record(50, 50))
		f.Record(record(70, 70))
	}
	f.Recompute()

	// Both below the ~49.56 thresholds: rejected with a reason.
	res := f.Evaluate(40, 40)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Reason, "below")

	// One side above rescues the signal.
	assert.True(t, f.Evaluate(40, 60).Passed)
	assert.True(t, f.Evaluate(60, 40).Passed)
	assert.True(t, f.Evaluate(60, 60).Passed)
}

func TestRaiseMinConfidenceCapped(t *testing.T) {
	f := New(config.Default().Filter)

	got := f.RaiseMinConfidence(10, 85)
	assert.InDelta(t, 45, got, 1e-9)
	for i := 0; i < 10; i++ {
		got = f.RaiseMinConfidence(10, 85)
	}
	assert.InDelta(t, 85, got, 1e-9)
	assert.InDelta(t, 85, f.Thresholds().MinConfidence, 1e-9)
}

func TestResetToFloors(t *testing.T) {
	cfg := config.Default().Filter
	f := New(cfg)

	f.RaiseMinConfidence(20, 85)
	f.ResetToFloors()

	th := f.Thresholds()
	assert.InDelta(t, cfg.ConfidenceFloor, th.MinConfidence, 1e-9)
	assert.InDelta(t, cfg.ProfitFloor, th.MinProfit, 1e-9)
}

func TestBufferEvictsOldestAtCapacity(t *testing.T) {
	cfg := config.Default().Filter
	cfg.BufferCapacity = 5
	cfg.RecomputeEvery = 1000
	f := New(cfg)

	for i := 0; i < 8; i++ {
		f.Record(record(float64(i), 50))
	}
	assert.Equal(t, 5, f.BufferLen())

	buf, _, _ := f.Snapshot()
	assert.InDelta(t, 3, buf[0].Confidence, 1e-9)
	assert.InDelta(t, 7, buf[len(buf)-1].Confidence, 1e-9)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := New(config.Default().Filter)
	for i := 0; i < 12; i++ {
		f.Record(record(55, 45))
	}
	f.Recompute()
	buf, th, _ := f.Snapshot()

	g := New(config.Default().Filter)
	g.Restore(buf, th)
	assert.Equal(t, f.BufferLen(), g.BufferLen())
	assert.Equal(t, th, g.Thresholds())
}
