// Package store keeps the delegation records: issuer nominations,
// per-case issuer and invited-contributor selections, and sponsorships.
package store

import (
	"context"
	"sync"

	"locregistry/internal/delegation/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
)

type nominationKey struct {
	officer id.AccountID
	issuer  id.AccountID
}

type selectionKey struct {
	loc     id.LocID
	account id.AccountID
}

// InMemoryDelegationStore implements the delegation service's store
// interface plus the loc/collection-facing selection lookups
// (ports.IssuerSelections, ports.ContributorSelections,
// ports.SponsorshipLookup).
type InMemoryDelegationStore struct {
	mu           sync.RWMutex
	nominations  map[nominationKey]*models.VerifiedIssuer
	issuerLocs   map[selectionKey]struct{}
	selectionIdx map[nominationKey]map[id.LocID]struct{}
	contributors map[selectionKey]struct{}
	sponsorships map[id.SponsorshipID]*models.Sponsorship
}

func NewInMemory() *InMemoryDelegationStore {
	return &InMemoryDelegationStore{
		nominations:  make(map[nominationKey]*models.VerifiedIssuer),
		issuerLocs:   make(map[selectionKey]struct{}),
		selectionIdx: make(map[nominationKey]map[id.LocID]struct{}),
		contributors: make(map[selectionKey]struct{}),
		sponsorships: make(map[id.SponsorshipID]*models.Sponsorship),
	}
}

// ---------------------------------------------------------------------
// Verified issuer nominations
// ---------------------------------------------------------------------

func (s *InMemoryDelegationStore) GetNomination(_ context.Context, officer, issuer id.AccountID) (*models.VerifiedIssuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nominations[nominationKey{officer, issuer}]; ok {
		out := *n
		return &out, nil
	}
	return nil, nil
}

func (s *InMemoryDelegationStore) CreateNomination(_ context.Context, nomination *models.VerifiedIssuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nominationKey{nomination.LegalOfficer, nomination.Account}
	if _, ok := s.nominations[key]; ok {
		return sentinel.ErrConflict
	}
	clone := *nomination
	s.nominations[key] = &clone
	return nil
}

// RemoveNomination drops the nomination and cascades removal of every
// per-case selection of that issuer under that officer.
func (s *InMemoryDelegationStore) RemoveNomination(_ context.Context, officer, issuer id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nominationKey{officer, issuer}
	if _, ok := s.nominations[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.nominations, key)
	for locID := range s.selectionIdx[key] {
		delete(s.issuerLocs, selectionKey{locID, issuer})
	}
	delete(s.selectionIdx, key)
	return nil
}

// ---------------------------------------------------------------------
// Per-case issuer selections
// ---------------------------------------------------------------------

func (s *InMemoryDelegationStore) IsSelected(_ context.Context, locID id.LocID, issuer id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.issuerLocs[selectionKey{locID, issuer}]
	return ok, nil
}

func (s *InMemoryDelegationStore) SetSelected(_ context.Context, locID id.LocID, officer, issuer id.AccountID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	selKey := selectionKey{locID, issuer}
	nomKey := nominationKey{officer, issuer}
	if selected {
		s.issuerLocs[selKey] = struct{}{}
		if s.selectionIdx[nomKey] == nil {
			s.selectionIdx[nomKey] = make(map[id.LocID]struct{})
		}
		s.selectionIdx[nomKey][locID] = struct{}{}
		return nil
	}
	delete(s.issuerLocs, selKey)
	if idx, ok := s.selectionIdx[nomKey]; ok {
		delete(idx, locID)
	}
	return nil
}

// ---------------------------------------------------------------------
// Invited contributor selections
// ---------------------------------------------------------------------

func (s *InMemoryDelegationStore) IsContributorSelected(_ context.Context, locID id.LocID, account id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contributors[selectionKey{locID, account}]
	return ok, nil
}

// ContributorView adapts the store to ports.ContributorSelections.
// IsSelected on the store itself answers issuer selections, so the
// contributor lookup needs its own receiver.
type ContributorView struct {
	store *InMemoryDelegationStore
}

// Contributors returns the contributor-selection view of the store.
func (s *InMemoryDelegationStore) Contributors() *ContributorView {
	return &ContributorView{store: s}
}

func (v *ContributorView) IsSelected(ctx context.Context, locID id.LocID, account id.AccountID) (bool, error) {
	return v.store.IsContributorSelected(ctx, locID, account)
}

func (s *InMemoryDelegationStore) SetContributorSelected(_ context.Context, locID id.LocID, account id.AccountID, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := selectionKey{locID, account}
	if selected {
		s.contributors[key] = struct{}{}
	} else {
		delete(s.contributors, key)
	}
	return nil
}

// ---------------------------------------------------------------------
// Sponsorships
// ---------------------------------------------------------------------

func (s *InMemoryDelegationStore) Get(_ context.Context, sponsorshipID id.SponsorshipID) (*models.Sponsorship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sp, ok := s.sponsorships[sponsorshipID]; ok {
		return sp.Clone(), nil
	}
	return nil, nil
}

func (s *InMemoryDelegationStore) CreateSponsorship(_ context.Context, sponsorship *models.Sponsorship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sponsorships[sponsorship.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sponsorships[sponsorship.ID] = sponsorship.Clone()
	return nil
}

func (s *InMemoryDelegationStore) Save(_ context.Context, sponsorship *models.Sponsorship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sponsorships[sponsorship.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.sponsorships[sponsorship.ID] = sponsorship.Clone()
	return nil
}

func (s *InMemoryDelegationStore) RemoveSponsorship(_ context.Context, sponsorshipID id.SponsorshipID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sponsorships[sponsorshipID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sponsorships, sponsorshipID)
	return nil
}
