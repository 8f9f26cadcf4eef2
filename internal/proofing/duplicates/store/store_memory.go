package store

import (
	"context"
	"sort"
	"sync"

	"idproof/pkg/domain"
)

// InMemoryStore backs unit tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	profiles   []Profile
	identities []Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

// AddProfile inserts a profile, assigning the next ordered id.
func (s *InMemoryStore) AddProfile(p Profile) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.profiles = append(s.profiles, p)
	return p
}

// AddIdentity records a user/issuer association.
func (s *InMemoryStore) AddIdentity(ident Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, ident)
}

func (s *InMemoryStore) FindByFingerprints(_ context.Context, fps []string) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fpSet := toSet(fps)
	var out []Profile
	for _, p := range s.profiles {
		if _, ok := fpSet[p.SsnFingerprint]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindActiveFacialMatchByFingerprints(_ context.Context, fps []string, issuers []string, excludeUser domain.UserID) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fpSet := toSet(fps)
	issuerSet := toSet(issuers)

	eligible := map[domain.UserID]bool{}
	for _, ident := range s.identities {
		if _, ok := issuerSet[ident.Issuer]; ok {
			eligible[ident.UserID] = true
		}
	}

	var out []Profile
	for _, p := range s.profiles {
		if !p.Active || p.UserID == excludeUser {
			continue
		}
		if _, ok := fpSet[p.SsnFingerprint]; !ok {
			continue
		}
		if !eligible[p.UserID] {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
