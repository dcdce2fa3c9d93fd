package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalcore/internal/types"
)

func TestStateSchemaAcceptsValidSnapshot(t *testing.T) {
	schema, err := CompileStateSchema()
	require.NoError(t, err)

	state := EngineState{
		Weights:         map[string]float64{"rsi": 2.5},
		MinConfidence:   42,
		MinProfit:       35,
		TrainingCycle:   7,
		CompletedTrades: 120,
		SavedAt:         time.Now().UTC(),
	}
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	var doc any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.NoError(t, schema.Validate(doc))
}

func TestStateSchemaRejectsBadPayloads(t *testing.T) {
	schema, err := CompileStateSchema()
	require.NoError(t, err)

	cases := []string{
		`{}`,
		`{"weights": {"rsi": -1}, "training_cycle": 0, "saved_at": "x"}`,
		`{"weights": {}, "training_cycle": -2, "saved_at": "x"}`,
		`{"weights": {"rsi": "high"}, "training_cycle": 0, "saved_at": "x"}`,
	}
	for _, raw := range cases {
		var doc any
		require.NoError(t, json.Unmarshal([]byte(raw), &doc))
		assert.Error(t, schema.Validate(doc), raw)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, map[string]float64{"rsi": 3.3}))
	weights, err := m.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 3.3, weights["rsi"], 1e-9)

	states := m.States()
	got, err := states.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "no snapshot yet reads as nil without error")

	want := &EngineState{
		Weights:       map[string]float64{"rsi": 3.3},
		TrainingCycle: 4,
		SavedAt:       time.Now().UTC(),
	}
	require.NoError(t, states.Save(ctx, want))
	got, err = states.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.TrainingCycle)
}

func TestMemoryStoreOutcomeLimit(t *testing.T) {
	m := NewMemoryStore()
	for i := 0; i < 5; i++ {
		m.AddOutcomes(types.TradeOutcome{Symbol: "BTCUSDT", ActualOutcome: types.OutcomeTPHit})
	}
	got, err := m.GetRecentCompleted(context.Background(), 3, 30)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestLoadSeedWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights:\n  rsi: 1.5\n  macd: 99\n  volume: 0.001\n"), 0o644))

	weights, err := LoadSeedWeights(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, weights["rsi"], 1e-9)
	assert.InDelta(t, 10, weights["macd"], 1e-9, "clamped to global ceiling")
	assert.InDelta(t, 0.1, weights["volume"], 1e-9, "clamped to global floor")
}

func TestLoadSeedWeightsMissingFile(t *testing.T) {
	_, err := LoadSeedWeights(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
