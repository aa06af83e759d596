package repositories

import "sync"

// MemoryStore is a process-local [Store] used for ephemeral sessions and tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	subs   subscribers
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	m.values[key] = append([]byte{}, value...)
	fns := m.subs.snapshot()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
	return nil
}

func (m *MemoryStore) Subscribe(fn func(key string)) func() {
	m.mu.Lock()
	id := m.subs.add(fn)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs.fns, id)
		m.mu.Unlock()
	}
}
