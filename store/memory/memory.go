// Package memory is an in-memory handshake record store.
// It is useful for tests, examples and embedding in applications, and keeps
// ephemeral private keys inside the process boundary.
package memory

import (
	"context"
	"sync"

	"keygate/store"
)

// Store is a mutex-guarded map implementation of store.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]store.Record
}

func New() *Store {
	return &Store{records: map[string]store.Record{}}
}

func (s *Store) Create(_ context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return store.ErrExists
	}
	rec.Version = 1
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return store.Record{}, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) Update(_ context.Context, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[rec.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Version != rec.Version {
		return store.ErrVersionConflict
	}
	next := rec.Clone()
	next.Version = cur.Version + 1
	s.records[rec.ID] = next
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ store.Store = (*Store)(nil)
