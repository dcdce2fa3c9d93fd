package store

import (
	"context"
	"sync"

	"signalcore/internal/types"
)

// MemoryStore is an in-memory implementation of the weight, state, and
// outcome stores. It backs tests and the degraded mode the engine
// falls into when persistence is unavailable.
type MemoryStore struct {
	mu       sync.RWMutex
	weights  map[string]float64
	state    *EngineState
	outcomes []types.TradeOutcome
}

var (
	_ FeatureWeightStore     = (*MemoryStore)(nil)
	_ TradeOutcomeRepository = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{weights: make(map[string]float64)}
}

func (m *MemoryStore) Load(_ context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, weights map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range weights {
		m.weights[k] = v
	}
	return nil
}

// States returns the EngineStateStore view.
func (m *MemoryStore) States() EngineStateStore {
	return memoryStateStore{m}
}

type memoryStateStore struct {
	m *MemoryStore
}

func (s memoryStateStore) Load(_ context.Context) (*EngineState, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if s.m.state == nil {
		return nil, nil
	}
	cp := *s.m.state
	return &cp, nil
}

func (s memoryStateStore) Save(_ context.Context, state *EngineState) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if state == nil {
		return nil
	}
	cp := *state
	s.m.state = &cp
	return nil
}

// AddOutcomes appends rows to the simulated outcome feed.
func (m *MemoryStore) AddOutcomes(outcomes ...types.TradeOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcomes...)
}

func (m *MemoryStore) GetRecentCompleted(_ context.Context, limit, _ int) ([]types.TradeOutcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.outcomes)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]types.TradeOutcome, n)
	copy(out, m.outcomes[len(m.outcomes)-n:])
	return out, nil
}
