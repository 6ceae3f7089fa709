package history

import (
	"context"
	"sync"
)

// MemoryStore keeps versions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	versions []Version
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Commit(_ context.Context, v Version) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v = stamp(v, s.versions)
	s.versions = append(s.versions, v)
	return v, nil
}

func (s *MemoryStore) Latest(_ context.Context, week string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return latestOf(s.versions, week)
}

func (s *MemoryStore) List(_ context.Context, week string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectVersions(s.versions, week), nil
}

func (s *MemoryStore) Close() error { return nil }
