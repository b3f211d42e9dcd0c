package cache

import (
	"context"
	"sync"
)

// Marks is the set of suppressed keys. A marked key is a miss in every tier
// until the next successful Set clears it.
type Marks interface {
	Mark(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
	IsMarked(ctx context.Context, key string) (bool, error)
	Len(ctx context.Context) (int, error)
}

// MemoryMarks keeps the suppression set in process.
type MemoryMarks struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewMemoryMarks() *MemoryMarks {
	return &MemoryMarks{keys: make(map[string]struct{})}
}

func (m *MemoryMarks) Mark(_ context.Context, key string) error {
	m.mu.Lock()
	m.keys[key] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryMarks) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryMarks) IsMarked(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.keys[key]
	m.mu.RUnlock()
	return ok, nil
}

func (m *MemoryMarks) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys), nil
}
