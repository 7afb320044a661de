package recocache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// MemStore is an in-process Store: the default when Redis is not
// configured, and the harness for cache tests. Values round-trip through
// JSON so it honors the same serialization contract as the Redis client.
type MemStore struct {
	mu    sync.Mutex
	items map[string]memItem
}

type memItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]memItem)}
}

func (m *MemStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	it, ok := m.items[key]
	if ok && !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(it.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemStore) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = memItem{data: data, expiresAt: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *MemStore) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
	return nil
}
