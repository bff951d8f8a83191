package store

import (
	"context"
	"sync"

	"attest/internal/record/models"
	"attest/pkg/domain"
	"attest/pkg/platform/sentinel"
)

// InMemoryRecordStore keeps records in a mutex-guarded map. It favors clarity
// over performance and backs unit tests and single-node deployments.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]*models.EntityRecord
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[string]*models.EntityRecord)}
}

func (s *InMemoryRecordStore) Load(_ context.Context, key domain.EntityKey) (*models.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[key.Canonical()]; ok {
		return record.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryRecordStore) Save(_ context.Context, record *models.EntityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := record.Key.Canonical()
	current, exists := s.records[key]
	if exists && current.Version != record.Version {
		return sentinel.ErrConflict
	}
	if !exists && record.Version != 0 {
		return sentinel.ErrConflict
	}
	record.Version++
	s.records[key] = record.Clone()
	return nil
}

func (s *InMemoryRecordStore) ListByClient(_ context.Context, clientID domain.ClientID) ([]*models.EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.EntityRecord
	for _, record := range s.records {
		if record.Key.ClientID == clientID {
			out = append(out, record.Clone())
		}
	}
	return out, nil
}

// InMemoryOfficerStore is the officer-row counterpart of InMemoryRecordStore.
type InMemoryOfficerStore struct {
	mu       sync.RWMutex
	officers map[string]*models.Officer
}

func NewInMemoryOfficerStore() *InMemoryOfficerStore {
	return &InMemoryOfficerStore{officers: make(map[string]*models.Officer)}
}

func (s *InMemoryOfficerStore) Load(_ context.Context, key domain.EntityKey) (*models.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if officer, ok := s.officers[key.Canonical()]; ok {
		return officer.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryOfficerStore) Save(_ context.Context, officer *models.Officer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := officer.Key.Canonical()
	current, exists := s.officers[key]
	if exists && current.Version != officer.Version {
		return sentinel.ErrConflict
	}
	if !exists && officer.Version != 0 {
		return sentinel.ErrConflict
	}
	officer.Version++
	s.officers[key] = officer.Clone()
	return nil
}

func (s *InMemoryOfficerStore) ListByClient(_ context.Context, clientID domain.ClientID) ([]*models.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Officer
	for _, officer := range s.officers {
		if officer.Key.ClientID == clientID {
			out = append(out, officer.Clone())
		}
	}
	return out, nil
}
