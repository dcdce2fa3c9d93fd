package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultPopulatesEveryTunable(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 300, cfg.Engine.RetrainIntervalSeconds)
	assert.Equal(t, 5, cfg.Engine.MinCompletedTrades)
	assert.Equal(t, 600, cfg.Engine.ThresholdRecomputeIntervalSeconds)
	assert.Equal(t, 0.004, cfg.Learner.NeutralBand)
	assert.Equal(t, 1.0, cfg.Optimizer.WeightFloor)
	assert.Equal(t, 5.0, cfg.Optimizer.WeightCeil)
	assert.Equal(t, 0.2, cfg.Optimizer.MinAdjustDelta)
	assert.Equal(t, 0.25, cfg.Calibrate.Alpha)
	assert.Equal(t, 50, cfg.Calibrate.Window)
	assert.Equal(t, 20.0, cfg.Calibrate.MinConfidence)
	assert.Equal(t, 95.0, cfg.Calibrate.MaxConfidence)
	assert.Equal(t, 100, cfg.Filter.BufferCapacity)
	assert.Equal(t, 35.0, cfg.Filter.ConfidenceFloor)
	assert.Equal(t, 30.0, cfg.Filter.ProfitFloor)
	assert.Equal(t, 0.05, cfg.Stabilize.PriceEpsilonPct)
	assert.Equal(t, 6.0, cfg.Stabilize.BaseMaxDelta)
	assert.Equal(t, 12.0, cfg.Stabilize.DirectionFlipDelta)
	assert.Equal(t, -0.03, cfg.Overfit.OutSampleTrendMin)
	assert.Equal(t, 1.5, cfg.Overfit.SpikeRatio)
	assert.Equal(t, 1000, cfg.Overfit.BootstrapResamples)
	assert.Equal(t, 0.40, cfg.Horizon.ShortWeight)
	assert.Equal(t, 0.35, cfg.Horizon.MidWeight)
	assert.Equal(t, 0.25, cfg.Horizon.LongWeight)
	assert.Equal(t, 5, cfg.Store.IOTimeoutSeconds)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  log_level: warn
engine:
  retrain_interval_seconds: 60
  run_immediately: true
filter:
  buffer_capacity: 200
store:
  outcome_db_path: /var/lib/trades.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, 60, cfg.Engine.RetrainIntervalSeconds)
	assert.True(t, cfg.Engine.RunImmediately)
	assert.Equal(t, 200, cfg.Filter.BufferCapacity)
	assert.Equal(t, "/var/lib/trades.db", cfg.Store.OutcomeDBPath)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.25, cfg.Calibrate.Alpha)
	assert.Equal(t, 10, cfg.Learner.TreeCount)
}

func TestLoadCoercesStringNumerics(t *testing.T) {
	path := writeConfig(t, `
engine:
  min_completed_trades: "8"
calibrate:
  alpha: "0.3"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.MinCompletedTrades)
	assert.Equal(t, 0.3, cfg.Calibrate.Alpha)
}

func TestLoadRejectsInvertedWeightBounds(t *testing.T) {
	path := writeConfig(t, `
optimizer:
  weight_floor: 6.0
  weight_ceil: 5.0
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight_floor")
}

func TestLoadRejectsBadHorizonWeights(t *testing.T) {
	path := writeConfig(t, `
horizon:
  short_weight: 0.5
  mid_weight: 0.5
  long_weight: 0.5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestLoadRejectsMinConfidenceAboveMax(t *testing.T) {
	path := writeConfig(t, `
calibrate:
  min_confidence: 96
  max_confidence: 95
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathFails(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
