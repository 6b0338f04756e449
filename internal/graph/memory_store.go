package graph

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory analysis store for demo/development mode.
type MemoryStore struct {
	analyses map[string]*Analysis
	order    []string
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory analysis store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{analyses: make(map[string]*Analysis)}
}

func (m *MemoryStore) Create(ctx context.Context, analysis *Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyses[analysis.ID] = analysis
	m.order = append(m.order, analysis.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	analysis, ok := m.analyses[id]
	if !ok {
		return nil, ErrAnalysisNotFound
	}
	return analysis, nil
}

func (m *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Analysis
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, m.analyses[m.order[i]])
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}
