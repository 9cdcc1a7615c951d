package repository

import (
	"context"
	"sync"
)

// Memory is an in-process repository. Used when no persistence backend is
// configured, and in tests.
type Memory struct {
	mu    sync.RWMutex
	kinds map[string][]Record
}

// NewMemory builds an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{kinds: make(map[string][]Record)}
}

func (m *Memory) LoadAll(_ context.Context, kind string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.kinds[kind]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

func (m *Memory) SaveAll(_ context.Context, kind string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]Record, len(records))
	copy(stored, records)
	m.kinds[kind] = stored
	return nil
}

func (m *Memory) Close() {}
