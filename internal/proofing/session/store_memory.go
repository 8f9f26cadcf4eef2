package session

import (
	"context"
	"sync"

	"idproof/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]CaptureSession
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]CaptureSession)}
}

func (s *InMemoryStore) Save(_ context.Context, sess *CaptureSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UUID] = *sess
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, uuid string) (*CaptureSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[uuid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := sess
	return &copied, nil
}
