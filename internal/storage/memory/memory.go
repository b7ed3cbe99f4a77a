// Package memory keeps snapshots in process memory. It backs development runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/tinoosan/microfin/internal/errs"
)

// Store maps snapshot keys to payloads. It is guarded by an RWMutex for concurrent
// reads and writes.
type Store struct {
	mu        sync.RWMutex
	blobs     map[string][]byte
	failSaves error
	saves     int
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Load returns a copy of the payload stored under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Save replaces the payload stored under key.
func (s *Store) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSaves != nil {
		return s.failSaves
	}
	s.blobs[key] = append([]byte(nil), payload...)
	return nil
}

// Ready always succeeds.
func (s *Store) Ready(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FailSaves makes subsequent saves fail with err; nil restores normal behaviour.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	s.failSaves = err
	s.mu.Unlock()
}

// Saves reports how many Save calls were attempted.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Reset drops every stored snapshot.
func (s *Store) Reset() {
	s.mu.Lock()
	s.blobs = map[string][]byte{}
	s.saves = 0
	s.failSaves = nil
	s.mu.Unlock()
}
