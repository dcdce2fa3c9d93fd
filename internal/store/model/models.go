// Package model holds the gorm row models for the engine's owned
// tables.
package model

import "gorm.io/datatypes"

// FeatureWeightModel is one persisted indicator weight.
type FeatureWeightModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Indicator     string  `gorm:"column:indicator;uniqueIndex"`
	Weight        float64 `gorm:"column:weight"`
	UpdatedAtUnix int64   `gorm:"column:updated_at"`
}

func (FeatureWeightModel) TableName() string { return "feature_weights" }

// EngineStateModel is one engine snapshot. Only the newest row is ever
// read; older rows are pruned on save.
type EngineStateModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	TrainingCycle int            `gorm:"column:training_cycle"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (EngineStateModel) TableName() string { return "engine_state" }
