// Package storage persists the client session: the bearer token and the
// cached identity, kept under two keys that are always written together.
package storage

import (
	"errors"
	"sync"
)

// Keys of the persisted session entries.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// KV is a durable string map with atomic multi-key writes.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	// SetMany writes every pair or none of them.
	SetMany(values map[string]string) error
	// Delete removes keys in one write. Missing keys are ignored.
	Delete(keys ...string) error
}

// MemoryStore is an in-process KV, used by tests and when no state file
// is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
	// FailWrites, when set, makes every write fail without side effects.
	FailWrites error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get implements KV.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// SetMany implements KV.
func (m *MemoryStore) SetMany(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

// Delete implements KV.
func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Token returns the stored bearer token, or "".
func (m *MemoryStore) Token() string {
	return token(m)
}

func token(kv KV) string {
	v, ok, err := kv.Get(KeyToken)
	if err != nil || !ok {
		return ""
	}
	return v
}
