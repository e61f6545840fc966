// Package ports defines the delegation service's store interface.
package ports

import (
	"context"

	"locregistry/internal/delegation/models"
	id "locregistry/pkg/domain"
)

// Store holds nominations, per-case selections and sponsorships. The
// in-memory implementation also backs the loc-facing selection lookups.
type Store interface {
	// GetNomination returns the nomination or nil when absent.
	GetNomination(ctx context.Context, officer, issuer id.AccountID) (*models.VerifiedIssuer, error)

	// CreateNomination inserts a nomination, failing with
	// sentinel.ErrConflict when the (officer, issuer) pair is taken.
	CreateNomination(ctx context.Context, nomination *models.VerifiedIssuer) error

	// RemoveNomination drops the nomination and every per-case selection
	// of that issuer under that officer, failing with sentinel.ErrNotFound
	// when absent.
	RemoveNomination(ctx context.Context, officer, issuer id.AccountID) error

	IsSelected(ctx context.Context, locID id.LocID, issuer id.AccountID) (bool, error)
	SetSelected(ctx context.Context, locID id.LocID, officer, issuer id.AccountID, selected bool) error

	IsContributorSelected(ctx context.Context, locID id.LocID, account id.AccountID) (bool, error)
	SetContributorSelected(ctx context.Context, locID id.LocID, account id.AccountID, selected bool) error

	// Get returns the sponsorship or nil when absent.
	Get(ctx context.Context, sponsorshipID id.SponsorshipID) (*models.Sponsorship, error)

	// CreateSponsorship inserts a sponsorship, failing with
	// sentinel.ErrConflict when the id is taken.
	CreateSponsorship(ctx context.Context, sponsorship *models.Sponsorship) error

	// Save overwrites an existing sponsorship.
	Save(ctx context.Context, sponsorship *models.Sponsorship) error

	// RemoveSponsorship deletes a sponsorship, failing with
	// sentinel.ErrNotFound when absent.
	RemoveSponsorship(ctx context.Context, sponsorshipID id.SponsorshipID) error
}
