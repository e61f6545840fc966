// Package ports defines the collection service's store interface.
package ports

import (
	"context"

	"locregistry/internal/collection/models"
	id "locregistry/pkg/domain"
)

// CollectionStore holds collection items, tokens records and the
// per-case size counter. The counter is maintained on insertion, never
// derived by iterating items.
type CollectionStore interface {
	// GetItem returns the item or nil when absent.
	GetItem(ctx context.Context, locID id.LocID, itemID id.CollectionItemID) (*models.CollectionItem, error)

	// CreateItem inserts the item and bumps the size counter, failing
	// with sentinel.ErrConflict when the (loc, item) key is taken.
	CreateItem(ctx context.Context, item *models.CollectionItem) error

	// Size returns the current collection size counter.
	Size(ctx context.Context, locID id.LocID) (uint32, error)

	// GetRecord returns the tokens record or nil when absent.
	GetRecord(ctx context.Context, locID id.LocID, recordID id.TokensRecordID) (*models.TokensRecord, error)

	// CreateRecord inserts a tokens record, failing with
	// sentinel.ErrConflict when the (loc, record) key is taken.
	CreateRecord(ctx context.Context, record *models.TokensRecord) error
}
