package store

import (
	"context"
	"sync"
	"time"

	"idproof/internal/proofing/models"
	"idproof/pkg/domain"
	"idproof/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.ResultID]*ProofingRecord
	now     func() time.Time
}

// NewInMemoryStore creates an empty in-memory result store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.ResultID]*ProofingRecord),
		now:     time.Now,
	}
}

func (s *InMemoryStore) record(id domain.ResultID) *ProofingRecord {
	rec, ok := s.records[id]
	if !ok {
		rec = &ProofingRecord{
			ResultID: id,
			Stages:   make(map[models.Stage]models.VendorResult),
		}
		s.records[id] = rec
	}
	return rec
}

func (s *InMemoryStore) StoreStageResult(_ context.Context, id domain.ResultID, stage models.Stage, result models.VendorResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(id).Stages[stage] = result
	return nil
}

func (s *InMemoryStore) StoreComponents(_ context.Context, id domain.ResultID, components models.ProofingComponents) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(id)
	rec.Components = rec.Components.Merge(components)
	return nil
}

func (s *InMemoryStore) MarkCompleted(_ context.Context, id domain.ResultID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(id)
	if rec.CompletedAt == nil {
		completed := s.now()
		rec.CompletedAt = &completed
	}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.ResultID) (*ProofingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Copy so callers cannot mutate stored state.
	copied := *rec
	copied.Stages = make(map[models.Stage]models.VendorResult, len(rec.Stages))
	for stage, result := range rec.Stages {
		copied.Stages[stage] = result
	}
	return &copied, nil
}
