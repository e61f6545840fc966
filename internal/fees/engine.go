package fees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"locregistry/internal/loc/models"
	"locregistry/internal/loc/ports"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/sentinel"
)

// Engine applies fees: it slashes the payer and hands the proceeds to
// the distributor. Every charge is all-or-nothing; an insufficient
// balance aborts before any debit.
type Engine struct {
	ledger      ports.Ledger
	distributor RewardDistributor
	schedule    Schedule
	logger      *slog.Logger
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(ledger ports.Ledger, distributor RewardDistributor, schedule Schedule, opts ...Option) (*Engine, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if distributor == nil {
		return nil, fmt.Errorf("distributor is required")
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("fee schedule: %w", err)
	}

	e := &Engine{ledger: ledger, distributor: distributor, schedule: schedule}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Schedule exposes the validated schedule for pure computations.
func (e *Engine) Schedule() Schedule { return e.schedule }

// CanCover reports whether the payer's free balance covers the amount.
// Callers charging several fees in one operation pre-check the sum here
// so the first debit never lands without the rest.
func (e *Engine) CanCover(ctx context.Context, payer id.AccountID, amount id.Balance) error {
	if amount == 0 {
		return nil
	}
	ok, err := e.ledger.CanSlash(ctx, payer, amount)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query payer balance")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeInsufficientFunds, "payer cannot cover fees of %d", amount)
	}
	return nil
}

// ChargeStorageFee debits entries×entry_fee + bytes×byte_fee from the
// payer and distributes it under the file-storage key.
func (e *Engine) ChargeStorageFee(ctx context.Context, payer id.AccountID, entries uint32, totalBytes uint64, locOwner id.AccountID) (id.Balance, error) {
	amount := e.schedule.StorageFee(entries, totalBytes)
	return amount, e.slashAndDistribute(ctx, payer, amount, e.schedule.FileStorageKey, &locOwner, "storage")
}

// ChargeCertificateFee debits issuance×per_token_fee under the
// certificate key.
func (e *Engine) ChargeCertificateFee(ctx context.Context, payer id.AccountID, issuance uint64, locOwner id.AccountID) (id.Balance, error) {
	amount := e.schedule.TokenCertificateFee(issuance)
	return amount, e.slashAndDistribute(ctx, payer, amount, e.schedule.CertificateKey, &locOwner, "certificate")
}

// ChargeLegalFee debits the fixed amount chosen by the legal officer at
// case creation, under the legal-fee key of the case type.
func (e *Engine) ChargeLegalFee(ctx context.Context, payer id.AccountID, amount id.Balance, locType models.LocType, locOwner id.AccountID) error {
	return e.slashAndDistribute(ctx, payer, amount, e.schedule.LegalFeeKey(locType), &locOwner, "legal")
}

// ChargeCollectionItemFee debits the per-case collection item fee.
func (e *Engine) ChargeCollectionItemFee(ctx context.Context, payer id.AccountID, amount id.Balance, locOwner id.AccountID) error {
	return e.slashAndDistribute(ctx, payer, amount, e.schedule.CollectionItemFeeKey, &locOwner, "collection_item")
}

// ChargeTokensRecordFee debits the per-case tokens record fee.
func (e *Engine) ChargeTokensRecordFee(ctx context.Context, payer id.AccountID, amount id.Balance, locOwner id.AccountID) error {
	return e.slashAndDistribute(ctx, payer, amount, e.schedule.TokensRecordFeeKey, &locOwner, "tokens_record")
}

// ReserveValueFee moves the value fee to the payer's reserved bucket at
// collection creation.
func (e *Engine) ReserveValueFee(ctx context.Context, payer id.AccountID, amount id.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := e.ledger.Reserve(ctx, payer, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "cannot reserve value fee")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "reserve value fee")
	}
	return nil
}

// ReleaseValueFee slashes the previously reserved value fee and
// distributes it under the value-fee key. Called when a collection case
// closes.
func (e *Engine) ReleaseValueFee(ctx context.Context, payer id.AccountID, amount id.Balance, locOwner id.AccountID) error {
	if amount == 0 {
		return nil
	}
	if err := e.ledger.SlashReserved(ctx, payer, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "reserved value fee missing")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "slash reserved value fee")
	}
	if err := e.distributor.Distribute(ctx, amount, e.schedule.ValueFeeKey, &locOwner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "distribute value fee")
	}
	e.logCharge(ctx, payer, amount, "value")
	return nil
}

// UnreserveValueFee returns the reserved value fee to the payer. Called
// when a not-yet-closed collection case is voided.
func (e *Engine) UnreserveValueFee(ctx context.Context, payer id.AccountID, amount id.Balance) error {
	if amount == 0 {
		return nil
	}
	if err := e.ledger.Unreserve(ctx, payer, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "unreserve value fee")
	}
	return nil
}

func (e *Engine) slashAndDistribute(ctx context.Context, payer id.AccountID, amount id.Balance, key DistributionKey, locOwner *id.AccountID, kind string) error {
	if amount == 0 {
		return nil
	}

	ok, err := e.ledger.CanSlash(ctx, payer, amount)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query payer balance")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeInsufficientFunds, "payer cannot cover %s fee of %d", kind, amount)
	}

	if err := e.ledger.Slash(ctx, payer, amount); err != nil {
		if errors.Is(err, sentinel.ErrInsufficientFunds) {
			return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "payer cannot cover fee")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "slash payer")
	}
	if err := e.distributor.Distribute(ctx, amount, key, locOwner); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "distribute fee")
	}

	e.logCharge(ctx, payer, amount, kind)
	return nil
}

func (e *Engine) logCharge(ctx context.Context, payer id.AccountID, amount id.Balance, kind string) {
	if e.logger == nil {
		return
	}
	e.logger.InfoContext(ctx, "fee distributed",
		"fee_kind", kind,
		"payer", payer.String(),
		"amount", uint64(amount),
	)
}
