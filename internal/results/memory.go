package results

import (
	"context"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	sets map[string]Set
}

func NewMemory() *Memory {
	return &Memory{sets: make(map[string]Set)}
}

func (m *Memory) Replace(_ context.Context, session string, set Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[session] = NewSet(set)
	return nil
}

func (m *Memory) Get(_ context.Context, session string) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[session]
	if !ok {
		return nil, ErrNotFound
	}
	return NewSet(set), nil
}

func (m *Memory) Close() error { return nil }
