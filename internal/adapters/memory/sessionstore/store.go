package sessionstore

import (
	"context"
	"sync"

	"github.com/techsum/newsletter-api/internal/ports/out/sessionstore"
)

// Store is an in-memory implementation of sessionstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	m  map[sessionstore.ID]sessionstore.Record
}

func NewStore() *Store {
	return &Store{
		m: make(map[sessionstore.ID]sessionstore.Record),
	}
}

func (s *Store) Get(ctx context.Context, id sessionstore.ID) (sessionstore.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[id]
	return rec, ok, nil
}

func (s *Store) Put(ctx context.Context, id sessionstore.ID, rec sessionstore.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = rec
	return nil
}

func (s *Store) Delete(ctx context.Context, id sessionstore.ID) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}
