package media

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in a map. It backs tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
	baseURL string
}

// NewMemoryStore creates an empty MemoryStore serving URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
	}
}

// Put stores a copy of data.
func (m *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return nil
}

// URL returns the public URL of key.
func (m *MemoryStore) URL(key string) string {
	return JoinURL(m.baseURL, key)
}

// Get returns a stored object and its content type.
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ ObjectStore = (*MemoryStore)(nil)
