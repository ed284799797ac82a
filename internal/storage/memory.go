package storage

import (
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Backend. It is used for tests and for the
// "memory" storage backend, which loses its contents on exit.
type Memory struct {
	mu    sync.Mutex
	data  map[string][]byte
	used  int64
	quota quota
}

// NewMemory returns an empty in-memory backend capped at quotaBytes (0 disables the cap).
func NewMemory(quotaBytes int64) *Memory {
	return &Memory{data: make(map[string][]byte), quota: quota(quotaBytes)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	replaced := int64(len(m.data[key]))
	if err := m.quota.admit(m.used, replaced, int64(len(value))); err != nil {
		return err
	}
	m.data[key] = append([]byte(nil), value...)
	m.used += int64(len(value)) - replaced
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.data[key]; ok {
		m.used -= int64(len(value))
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
