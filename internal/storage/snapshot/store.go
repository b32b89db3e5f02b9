// Package snapshot keeps the latest collection pass in memory and writes
// it to a local text file.
package snapshot

import (
	"sync"

	"mqtt-monitor/internal/domain"
)

type Store[T any] struct {
	mu   sync.RWMutex
	data T
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.data = v
	s.mu.Unlock()
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Latest holds the most recent snapshot, nil until the first pass.
type Latest struct {
	Store[*domain.Snapshot]
}

func NewLatest() *Latest {
	return &Latest{}
}
