// Package ports defines shared interfaces for the loc module.
// Interfaces are placed here when consumed by multiple services to avoid
// duplication.
package ports

import (
	"context"

	delegation "locregistry/internal/delegation/models"
	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	"locregistry/pkg/platform/audit"
)

// LocStore is the keyed store of case records. Implementations return
// sentinel errors for factual conflicts; services translate them into
// coded domain errors.
type LocStore interface {
	// Get returns the case or nil when absent.
	Get(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error)

	// Create inserts a new case, failing with sentinel.ErrConflict when
	// the id is taken.
	Create(ctx context.Context, loc *models.LegalOfficerCase) error

	// Update overwrites an existing case, failing with
	// sentinel.ErrNotFound when absent.
	Update(ctx context.Context, loc *models.LegalOfficerCase) error

	// HasClosedIdentityLoc reports whether a closed, non-void identity
	// case exists for the requester under the given owner.
	HasClosedIdentityLoc(ctx context.Context, requester models.Requester, owner id.AccountID) (bool, error)
}

// AuthorityDirectory is the externally managed legal-officer set.
type AuthorityDirectory interface {
	IsLegalOfficer(ctx context.Context, account id.AccountID) (bool, error)
	LegalOfficers(ctx context.Context) ([]id.AccountID, error)
}

// Ledger is the balance collaborator. Amounts are exact; a failed debit
// never leaves a partial write.
type Ledger interface {
	Free(ctx context.Context, account id.AccountID) (id.Balance, error)
	Reserved(ctx context.Context, account id.AccountID) (id.Balance, error)

	// CanSlash reports whether the free balance covers the amount.
	CanSlash(ctx context.Context, account id.AccountID, amount id.Balance) (bool, error)

	// Slash debits the free balance, failing with
	// sentinel.ErrInsufficientFunds when it does not cover the amount.
	Slash(ctx context.Context, account id.AccountID, amount id.Balance) error

	// Reserve moves free balance into the reserved bucket.
	Reserve(ctx context.Context, account id.AccountID, amount id.Balance) error

	// Unreserve moves reserved balance back to the free bucket.
	Unreserve(ctx context.Context, account id.AccountID, amount id.Balance) error

	// SlashReserved debits the reserved bucket.
	SlashReserved(ctx context.Context, account id.AccountID, amount id.Balance) error

	// Deposit credits the free balance.
	Deposit(ctx context.Context, account id.AccountID, amount id.Balance) error
}

// ChainTime supplies the monotonic block counter used for collection
// expiry comparisons. The core never reads wall-clock time directly.
type ChainTime interface {
	CurrentBlock(ctx context.Context) (id.BlockNumber, error)
}

// IssuerSelections answers per-case verified-issuer questions for the
// loc and collection services. The delegation store implements it.
type IssuerSelections interface {
	// IsSelected reports whether the issuer is currently selected on the
	// case.
	IsSelected(ctx context.Context, locID id.LocID, issuer id.AccountID) (bool, error)
}

// ContributorSelections answers per-case invited-contributor questions.
type ContributorSelections interface {
	IsSelected(ctx context.Context, locID id.LocID, account id.AccountID) (bool, error)
}

// SponsorshipLookup resolves sponsorships during case creation and marks
// them consumed. The delegation store implements it.
type SponsorshipLookup interface {
	// Get returns the sponsorship or nil when absent.
	Get(ctx context.Context, sponsorshipID id.SponsorshipID) (*delegation.Sponsorship, error)

	// Save overwrites an existing sponsorship.
	Save(ctx context.Context, sponsorship *delegation.Sponsorship) error
}

// AuditPublisher emits audit events for lifecycle and fee operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
