package storage

import (
	"sort"
	"sync"
)

// memoryKV keeps buckets in maps (for testing and single-process use)
type memoryKV struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *DocumentStore {
	return newDocumentStore(BackendMemory, &memoryKV{
		buckets: make(map[string]map[string][]byte),
	})
}

func (m *memoryKV) put(bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) get(bucket, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.buckets[bucket][key]
	return v, ok, nil
}

func (m *memoryKV) each(bucket string, fn func(string, []byte) error) error {
	m.mu.RLock()
	b := m.buckets[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	values := make(map[string][]byte, len(b))
	for k, v := range b {
		values[k] = v
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryKV) remove(bucket, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucket][key]; !ok {
		return false, nil
	}
	delete(m.buckets[bucket], key)
	return true, nil
}

func (m *memoryKV) Close() error {
	return nil
}
