package store

import (
	"time"

	"signalcore/internal/optimizer"
	"signalcore/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// EngineState is the unit of persistence: everything the engine needs
// to resume after a restart. Snapshotted after each training cycle.
type EngineState struct {
	Weights         map[string]float64       `json:"weights"`
	WeightMeta      []types.FeatureWeight    `json:"weight_meta,omitempty"`
	MinConfidence   float64                  `json:"min_confidence"`
	MinProfit       float64                  `json:"min_profit"`
	TrainingCycle   int                      `json:"training_cycle"`
	CompletedTrades int                      `json:"completed_trades"`
	Predictions     []types.PredictionRecord `json:"predictions,omitempty"`
	Experiments     []optimizer.Experiment   `json:"experiments,omitempty"`
	InSampleAcc     []float64                `json:"in_sample_accuracy,omitempty"`
	OutSampleAcc    []float64                `json:"out_sample_accuracy,omitempty"`
	SavedAt         time.Time                `json:"saved_at"`
}

// stateSchema validates a snapshot payload before restore; a payload
// that fails the schema is treated the same as a missing snapshot.
const stateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["weights", "training_cycle", "saved_at"],
  "properties": {
    "weights": {
      "type": "object",
      "additionalProperties": {"type": "number", "minimum": 0}
    },
    "min_confidence": {"type": "number", "minimum": 0, "maximum": 100},
    "min_profit": {"type": "number", "minimum": 0, "maximum": 100},
    "training_cycle": {"type": "integer", "minimum": 0},
    "completed_trades": {"type": "integer", "minimum": 0},
    "saved_at": {"type": "string"}
  }
}`

// CompileStateSchema compiles the snapshot schema once per store.
func CompileStateSchema() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("engine_state.json", stateSchema)
}
