package fees

import (
	"context"
	"fmt"

	"locregistry/internal/loc/ports"
	id "locregistry/pkg/domain"
)

// RewardDistributor splits a credited amount across the beneficiaries of
// a distribution key. The loc owner beneficiary varies per call; the
// treasury and the legal-officers pool are fixed accounts.
type RewardDistributor interface {
	Distribute(ctx context.Context, amount id.Balance, key DistributionKey, locOwner *id.AccountID) error
}

// Distributor is the default RewardDistributor. Shares are floored;
// the division remainder is credited to the community treasury so the
// distributed total always equals the slashed amount exactly.
type Distributor struct {
	ledger            ports.Ledger
	communityTreasury id.AccountID
	legalOfficersPool id.AccountID
}

func NewDistributor(ledger ports.Ledger, communityTreasury, legalOfficersPool id.AccountID) (*Distributor, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if communityTreasury.IsNil() {
		return nil, fmt.Errorf("community treasury account is required")
	}
	if legalOfficersPool.IsNil() {
		return nil, fmt.Errorf("legal officers pool account is required")
	}
	return &Distributor{
		ledger:            ledger,
		communityTreasury: communityTreasury,
		legalOfficersPool: legalOfficersPool,
	}, nil
}

func (d *Distributor) Distribute(ctx context.Context, amount id.Balance, key DistributionKey, locOwner *id.AccountID) error {
	if amount == 0 {
		return nil
	}
	if key.RequiresLocOwner() && locOwner == nil {
		return fmt.Errorf("distribution key carries a loc owner share but no owner was supplied")
	}

	ownerShare := percentOf(amount, key.LocOwnerPercent)
	officersShare := percentOf(amount, key.LegalOfficersPercent)
	treasuryShare := amount - ownerShare - officersShare

	if ownerShare > 0 {
		if err := d.ledger.Deposit(ctx, *locOwner, ownerShare); err != nil {
			return fmt.Errorf("deposit loc owner share: %w", err)
		}
	}
	if officersShare > 0 {
		if err := d.ledger.Deposit(ctx, d.legalOfficersPool, officersShare); err != nil {
			return fmt.Errorf("deposit legal officers share: %w", err)
		}
	}
	if treasuryShare > 0 {
		if err := d.ledger.Deposit(ctx, d.communityTreasury, treasuryShare); err != nil {
			return fmt.Errorf("deposit treasury share: %w", err)
		}
	}
	return nil
}
