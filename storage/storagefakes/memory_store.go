package storagefakes

import (
	"sync"

	"github.com/jrsteele09/pgportal/storage"
)

var _ storage.Store = (*MemoryStore)(nil)

type MemoryStore struct {
	items map[string][]byte
	lock  sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.items, key)
	return nil
}

// Has reports whether key is present, for assertions in tests.
func (s *MemoryStore) Has(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.items[key]
	return ok
}
