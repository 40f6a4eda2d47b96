package storage

import (
	"context"
	"sort"
	"sync"

	"phoenix/internal/model"
)

// MemoryStore keeps snapshots in process memory. Populations are deep-copied
// on the way in and on the way out.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]model.Organism
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]model.Organism)}
}

func (s *MemoryStore) Store(_ context.Context, checkpointID string, population []model.Organism) error {
	key, err := checkpointKey(OpStore, checkpointID)
	if err != nil {
		return err
	}

	copied := model.ClonePopulation(population)
	if copied == nil {
		copied = []model.Organism{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key] = copied
	return nil
}

func (s *MemoryStore) Load(_ context.Context, checkpointID string) ([]model.Organism, error) {
	key, err := checkpointKey(OpLoad, checkpointID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.snapshots[key]
	if !ok {
		return nil, notFound(checkpointID)
	}
	return model.ClonePopulation(population), nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
