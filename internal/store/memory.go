package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps documents in process memory. Updates are serialized per
// id through a keyed mutex, so different ids mutate in parallel.
type MemoryBackend struct {
	mu    sync.Mutex
	kinds map[Kind]*memKind
	locks *KeyedMutex
}

type memKind struct {
	mu    sync.RWMutex
	items map[string][]byte
	order []string // insertion order for deterministic listing
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		kinds: make(map[Kind]*memKind),
		locks: NewKeyedMutex(),
	}
}

func (m *MemoryBackend) kind(k Kind) *memKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.kinds[k]
	if !ok {
		mk = &memKind{items: make(map[string][]byte)}
		m.kinds[k] = mk
	}
	return mk
}

func (m *MemoryBackend) Exists(_ context.Context, k Kind, id string) (bool, error) {
	mk := m.kind(k)
	mk.mu.RLock()
	defer mk.mu.RUnlock()
	_, ok := mk.items[id]
	return ok, nil
}

func (m *MemoryBackend) Get(_ context.Context, k Kind, id string) ([]byte, error) {
	mk := m.kind(k)
	mk.mu.RLock()
	defer mk.mu.RUnlock()
	data, ok := mk.items[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", k.Entity, id, ErrNotFound)
	}
	return clone(data), nil
}

func (m *MemoryBackend) Insert(_ context.Context, k Kind, id string, data []byte) error {
	mk := m.kind(k)
	mk.mu.Lock()
	defer mk.mu.Unlock()
	if _, ok := mk.items[id]; ok {
		return fmt.Errorf("%s %s: %w", k.Entity, id, ErrConflict)
	}
	mk.items[id] = clone(data)
	mk.order = append(mk.order, id)
	return nil
}

func (m *MemoryBackend) Update(ctx context.Context, k Kind, id string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	unlock := m.locks.Lock(k.Entity + "/" + id)
	defer unlock()

	cur, err := m.Get(ctx, k, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}

	mk := m.kind(k)
	mk.mu.Lock()
	defer mk.mu.Unlock()
	if _, ok := mk.items[id]; !ok {
		// deleted while the transform ran
		return nil, fmt.Errorf("%s %s: %w", k.Entity, id, ErrNotFound)
	}
	mk.items[id] = clone(next)
	return clone(next), nil
}

func (m *MemoryBackend) Delete(_ context.Context, k Kind, id string) (bool, error) {
	mk := m.kind(k)
	mk.mu.Lock()
	defer mk.mu.Unlock()
	if _, ok := mk.items[id]; !ok {
		return false, nil
	}
	delete(mk.items, id)
	for i, oid := range mk.order {
		if oid == id {
			mk.order = append(mk.order[:i], mk.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryBackend) List(_ context.Context, k Kind) ([][]byte, error) {
	mk := m.kind(k)
	mk.mu.RLock()
	defer mk.mu.RUnlock()
	out := make([][]byte, 0, len(mk.order))
	for _, id := range mk.order {
		out = append(out, clone(mk.items[id]))
	}
	return out, nil
}

func (m *MemoryBackend) Count(_ context.Context, k Kind) (int, error) {
	mk := m.kind(k)
	mk.mu.RLock()
	defer mk.mu.RUnlock()
	return len(mk.order), nil
}

func (m *MemoryBackend) SeedIfEmpty(_ context.Context, k Kind, records []Record) (bool, error) {
	mk := m.kind(k)
	mk.mu.Lock()
	defer mk.mu.Unlock()
	if len(mk.order) > 0 {
		return false, nil
	}
	for _, r := range records {
		if _, ok := mk.items[r.ID]; ok {
			continue
		}
		mk.items[r.ID] = clone(r.Data)
		mk.order = append(mk.order, r.ID)
	}
	return true, nil
}

func (m *MemoryBackend) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
