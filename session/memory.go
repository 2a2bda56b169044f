package session

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps a single session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore creates an empty store, optionally seeded with an initial session
func NewMemoryStore(initial ...Session) *MemoryStore {
	m := &MemoryStore{}
	if len(initial) > 0 {
		m.session = initial[0]
	}
	return m
}

func (m *MemoryStore) Get() (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *MemoryStore) Set(session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}
