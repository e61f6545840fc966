// Package store provides the case record stores: an in-memory map for
// tests and single-node deployments, and a Postgres twin.
package store

import (
	"context"
	"sync"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
)

// InMemoryLocStore implements ports.LocStore with a mutex-guarded map.
// Records are deep-copied on the way in and out so callers can never
// mutate stored state without going through Update.
type InMemoryLocStore struct {
	mu   sync.RWMutex
	locs map[id.LocID]*models.LegalOfficerCase
}

func NewInMemory() *InMemoryLocStore {
	return &InMemoryLocStore{locs: make(map[id.LocID]*models.LegalOfficerCase)}
}

func (s *InMemoryLocStore) Get(_ context.Context, locID id.LocID) (*models.LegalOfficerCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if loc, ok := s.locs[locID]; ok {
		return loc.Clone(), nil
	}
	return nil, nil
}

func (s *InMemoryLocStore) Create(_ context.Context, loc *models.LegalOfficerCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locs[loc.ID]; ok {
		return sentinel.ErrConflict
	}
	s.locs[loc.ID] = loc.Clone()
	return nil
}

func (s *InMemoryLocStore) Update(_ context.Context, loc *models.LegalOfficerCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locs[loc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.locs[loc.ID] = loc.Clone()
	return nil
}

func (s *InMemoryLocStore) HasClosedIdentityLoc(_ context.Context, requester models.Requester, owner id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, loc := range s.locs {
		if loc.LocType != models.LocTypeIdentity || !loc.Closed || loc.IsVoid() {
			continue
		}
		if loc.Owner != owner {
			continue
		}
		if loc.Requester == requester {
			return true, nil
		}
	}
	return false, nil
}
