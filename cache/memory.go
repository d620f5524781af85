package cache

import (
	"errors"
	"sync"
)

var errNotFound = errors.New("cache: key not found")

// DefaultMemoryQuota bounds the in-memory backend at 5 MiB, roughly the
// budget browsers give a single origin's local storage.
const DefaultMemoryQuota = 5 << 20

// MemoryBackend is a size-bounded in-memory Backend. Safe for concurrent use.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	size    int
	quota   int
}

// NewMemoryBackend creates a memory backend bounded at quota bytes.
// A non-positive quota uses DefaultMemoryQuota.
func NewMemoryBackend(quota int) *MemoryBackend {
	if quota <= 0 {
		quota = DefaultMemoryQuota
	}
	return &MemoryBackend{
		entries: make(map[string][]byte),
		quota:   quota,
	}
}

func (m *MemoryBackend) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, errNotFound
	}
	return data, nil
}

func (m *MemoryBackend) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.entries[key]
	delta := len(data) - len(old)
	if !exists {
		delta += len(key)
	}
	if m.size+delta > m.quota {
		return ErrQuotaExceeded
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.entries[key] = buf
	m.size += delta
	return nil
}

func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.entries[key]; ok {
		m.size -= len(key) + len(data)
		delete(m.entries, key)
	}
	return nil
}

func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ Backend = (*MemoryBackend)(nil)
