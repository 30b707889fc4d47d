package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryStore is an in-memory BlobStore for tests and sessions without a
// database file.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Put(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	s.blobs[key] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.blobs[key]
	if !ok {
		return nil, keyNotFound(key)
	}
	cp := make(json.RawMessage, len(value))
	copy(cp, value)
	return cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return keyNotFound(key)
	}
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error { return nil }
