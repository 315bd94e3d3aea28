package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps encoded sessions in a map, so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte), now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	b, ok := m.items[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(b)
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, b, err := apply(id, m.items[id], fn, m.now())
	if err != nil {
		return nil, err
	}
	m.items[id] = b
	return s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
