package underwriting

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory decision store for demo/development mode.
type MemoryStore struct {
	decisions map[string]*Decision
	byUser    map[string][]string
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory decision store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decisions: make(map[string]*Decision),
		byUser:    make(map[string][]string),
	}
}

func (m *MemoryStore) Create(ctx context.Context, decision *Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decisions[decision.ID] = decision
	m.byUser[decision.UserID] = append(m.byUser[decision.UserID], decision.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	decision, ok := m.decisions[id]
	if !ok {
		return nil, ErrDecisionNotFound
	}
	return decision, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	var result []*Decision
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, m.decisions[ids[i]])
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}
