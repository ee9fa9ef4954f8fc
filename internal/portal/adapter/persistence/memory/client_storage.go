package memory

import (
	"context"
	"sync"

	"afi-portal/internal/portal/domain/repository"
)

// ClientStorage keeps client items in process memory.
type ClientStorage struct {
	mu    sync.RWMutex
	items map[string]map[string][]byte
}

var _ repository.ClientStorage = (*ClientStorage)(nil)

// NewClientStorage creates an empty in-memory client storage
func NewClientStorage() *ClientStorage {
	return &ClientStorage{items: make(map[string]map[string][]byte)}
}

func (s *ClientStorage) GetItem(_ context.Context, clientID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[clientID][key]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *ClientStorage) SetItem(_ context.Context, clientID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.items[clientID]
	if !ok {
		bucket = make(map[string][]byte)
		s.items[clientID] = bucket
	}
	bucket[key] = append([]byte(nil), value...)
	return nil
}

func (s *ClientStorage) RemoveItem(_ context.Context, clientID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.items[clientID]
	if !ok {
		return nil
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(s.items, clientID)
	}
	return nil
}

func (s *ClientStorage) Ping(context.Context) error { return nil }
