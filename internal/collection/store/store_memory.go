// Package store keeps collection items, tokens records and the per-case
// size counters.
package store

import (
	"context"
	"sync"

	"locregistry/internal/collection/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/sentinel"
)

type itemKey struct {
	loc  id.LocID
	item id.CollectionItemID
}

type recordKey struct {
	loc    id.LocID
	record id.TokensRecordID
}

// InMemoryCollectionStore implements the collection service's store
// interface. The size counter is maintained explicitly, never derived
// from iterating items.
type InMemoryCollectionStore struct {
	mu      sync.RWMutex
	items   map[itemKey]*models.CollectionItem
	records map[recordKey]*models.TokensRecord
	sizes   map[id.LocID]uint32
}

func NewInMemory() *InMemoryCollectionStore {
	return &InMemoryCollectionStore{
		items:   make(map[itemKey]*models.CollectionItem),
		records: make(map[recordKey]*models.TokensRecord),
		sizes:   make(map[id.LocID]uint32),
	}
}

func (s *InMemoryCollectionStore) GetItem(_ context.Context, locID id.LocID, itemID id.CollectionItemID) (*models.CollectionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if item, ok := s.items[itemKey{locID, itemID}]; ok {
		out := *item
		return &out, nil
	}
	return nil, nil
}

// CreateItem inserts the item and bumps the collection size counter in
// one critical section.
func (s *InMemoryCollectionStore) CreateItem(_ context.Context, item *models.CollectionItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := itemKey{item.LocID, item.ItemID}
	if _, ok := s.items[key]; ok {
		return sentinel.ErrConflict
	}
	clone := *item
	s.items[key] = &clone
	s.sizes[item.LocID]++
	return nil
}

func (s *InMemoryCollectionStore) Size(_ context.Context, locID id.LocID) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sizes[locID], nil
}

func (s *InMemoryCollectionStore) GetRecord(_ context.Context, locID id.LocID, recordID id.TokensRecordID) (*models.TokensRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[recordKey{locID, recordID}]; ok {
		out := *record
		return &out, nil
	}
	return nil, nil
}

func (s *InMemoryCollectionStore) CreateRecord(_ context.Context, record *models.TokensRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{record.LocID, record.RecordID}
	if _, ok := s.records[key]; ok {
		return sentinel.ErrConflict
	}
	clone := *record
	s.records[key] = &clone
	return nil
}
