package storage

import (
	"context"
	"sync"
)

// InMemoryDataStore keeps data sets in process memory. It intentionally
// favors clarity over performance; single-instance deployments and tests use
// it directly.
type InMemoryDataStore struct {
	mu       sync.RWMutex
	dataSets map[string]*DataSet
}

func NewInMemoryDataStore() *InMemoryDataStore {
	return &InMemoryDataStore{dataSets: make(map[string]*DataSet)}
}

func (s *InMemoryDataStore) Save(_ context.Context, clientID string, dataSet *DataSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataSets[clientID] = dataSet
	return nil
}

func (s *InMemoryDataStore) FindByClientID(_ context.Context, clientID string) (*DataSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if dataSet, ok := s.dataSets[clientID]; ok {
		return dataSet, nil
	}
	return nil, ErrNotFound
}
