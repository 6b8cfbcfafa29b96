package repository

import (
	"context"
	"sync"
)

type MemorySnapshotRepository struct {
	mu     sync.RWMutex
	scopes map[string]map[string][]byte
}

// NewMemorySnapshotRepository создает in-memory хранилище снимков.
func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{scopes: make(map[string]map[string][]byte)}
}

// Put сохраняет копию значения под ключом.
func (r *MemorySnapshotRepository) Put(ctx context.Context, scope, key string, value []byte) error {
	if err := validateSnapshotKey(scope, key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.scopes[scope]
	if !ok {
		entries = make(map[string][]byte)
		r.scopes[scope] = entries
	}
	entries[key] = append([]byte(nil), value...)

	return nil
}

// Get возвращает копию сохраненного значения.
func (r *MemorySnapshotRepository) Get(ctx context.Context, scope, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.scopes[scope][key]
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), value...), nil
}

// DeleteScope удаляет все снимки сессии.
func (r *MemorySnapshotRepository) DeleteScope(ctx context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.scopes, scope)
	return nil
}

func (r *MemorySnapshotRepository) Close() error {
	return nil
}
