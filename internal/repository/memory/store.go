// Package memory is an in-process DescriptorRepository, used by tests and dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/creamcroissant/v2mng/internal/outbound"
	"github.com/creamcroissant/v2mng/internal/repository"
)

type Store struct {
	mu        sync.RWMutex
	snapshot  *repository.Snapshot
	selection string
	writes    int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Replace(_ context.Context, snapshot *repository.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = cloneSnapshot(snapshot)
	s.writes++
	return nil
}

func (s *Store) Latest(_ context.Context) (*repository.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, repository.ErrNoSnapshot
	}
	return cloneSnapshot(s.snapshot), nil
}

func (s *Store) SaveSelection(_ context.Context, qualifiedName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = qualifiedName
	return nil
}

func (s *Store) Selection(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection, nil
}

// Writes reports how many times Replace was called.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Close() error { return nil }

func cloneSnapshot(in *repository.Snapshot) *repository.Snapshot {
	out := *in
	out.Entries = append([]outbound.Named{}, in.Entries...)
	return &out
}
