// Package gormstore implements the weight and engine-state stores on
// Gorm + SQLite.
package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"signalcore/internal/logger"
	"signalcore/internal/store"
	storemodel "signalcore/internal/store/model"

	"github.com/glebarez/sqlite"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore persists feature weights and engine snapshots.
type GormStore struct {
	db     *gorm.DB
	schema *jsonschema.Schema
}

// NewGormStore opens (or creates) the SQLite database at path and
// migrates the owned tables.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&storemodel.FeatureWeightModel{}, &storemodel.EngineStateModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep contention low, snapshots and weight saves are
	// small and infrequent.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)

	schema, err := store.CompileStateSchema()
	if err != nil {
		return nil, err
	}
	return &GormStore{db: db, schema: schema}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Load reads all persisted indicator weights.
func (s *GormStore) Load(ctx context.Context) (map[string]float64, error) {
	var rows []storemodel.FeatureWeightModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading feature weights: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Indicator] = row.Weight
	}
	return out, nil
}

// Save upserts every weight row.
func (s *GormStore) Save(ctx context.Context, weights map[string]float64) error {
	if len(weights) == 0 {
		return nil
	}
	now := time.Now().Unix()
	rows := make([]storemodel.FeatureWeightModel, 0, len(weights))
	for indicator, weight := range weights {
		rows = append(rows, storemodel.FeatureWeightModel{
			Indicator:     indicator,
			Weight:        weight,
			UpdatedAtUnix: now,
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "indicator"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("saving feature weights: %w", err)
	}
	return nil
}

// LoadState reads the newest snapshot. A missing, unparseable, or
// schema-invalid snapshot yields (nil, nil): the engine boots from
// defaults rather than failing.
func (s *GormStore) LoadState(ctx context.Context) (*store.EngineState, error) {
	var row storemodel.EngineStateModel
	err := s.db.WithContext(ctx).Order("id DESC").First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading engine state: %w", err)
	}
	if s.schema != nil {
		var doc any
		if err := json.Unmarshal(row.Payload, &doc); err != nil {
			logger.Warnf("gorm store: snapshot %d unparseable, ignoring: %v", row.ID, err)
			return nil, nil
		}
		if err := s.schema.Validate(doc); err != nil {
			logger.Warnf("gorm store: snapshot %d failed validation, ignoring: %v", row.ID, err)
			return nil, nil
		}
	}
	var state store.EngineState
	if err := json.Unmarshal(row.Payload, &state); err != nil {
		logger.Warnf("gorm store: snapshot %d undecodable, ignoring: %v", row.ID, err)
		return nil, nil
	}
	return &state, nil
}

// SaveState appends a snapshot row and prunes everything older so the
// table never grows unbounded.
func (s *GormStore) SaveState(ctx context.Context, state *store.EngineState) error {
	if state == nil {
		return nil
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding engine state: %w", err)
	}
	row := storemodel.EngineStateModel{
		Payload:       payload,
		TrainingCycle: state.TrainingCycle,
		CreatedAtUnix: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("saving engine state: %w", err)
		}
		return tx.Where("id < ?", row.ID).Delete(&storemodel.EngineStateModel{}).Error
	})
}

// stateStore adapts GormStore onto the EngineStateStore contract so
// the same handle serves both stores without method-name collisions.
type stateStore struct {
	s *GormStore
}

func (st stateStore) Load(ctx context.Context) (*store.EngineState, error) {
	return st.s.LoadState(ctx)
}

func (st stateStore) Save(ctx context.Context, state *store.EngineState) error {
	return st.s.SaveState(ctx, state)
}

// StateStore returns the EngineStateStore view of this store.
func (s *GormStore) StateStore() store.EngineStateStore {
	return stateStore{s: s}
}
