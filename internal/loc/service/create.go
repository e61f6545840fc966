package service

import (
	"context"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
)

// CreateIdentityLoc opens an identity case requested by the calling
// account under the given legal officer.
func (s *Service) CreateIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateIdentityLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requester, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, params.LegalOfficer); err != nil {
		return err
	}

	loc := &models.LegalOfficerCase{
		ID:        params.LocID,
		Owner:     params.LegalOfficer,
		Requester: models.AccountRequester(requester),
		LocType:   models.LocTypeIdentity,
		LegalFee:  params.LegalFee,
	}
	return s.create(ctx, loc, requester, &requester, params.Items)
}

// CreateOtherIdentityLoc opens an identity case for a foreign-chain
// address, funded by a sponsorship. The caller is the legal officer; the
// sponsor pays the legal fee.
func (s *Service) CreateOtherIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateOtherIdentityLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	officer, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, officer); err != nil {
		return err
	}

	sponsorship, err := s.sponsorships.Get(ctx, params.SponsorshipID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load sponsorship")
	}
	if sponsorship == nil {
		return dErrors.New(dErrors.CodeNotFound, "sponsorship not found")
	}
	if sponsorship.Consumed() {
		return dErrors.New(dErrors.CodeAlreadyUsed, "sponsorship already funded a loc")
	}
	if sponsorship.LegalOfficer != officer {
		return dErrors.New(dErrors.CodeUnauthorized, "sponsorship designates another legal officer")
	}
	if !sponsorship.SponsoredAccount.IsOtherAccount(params.Requester) {
		return dErrors.New(dErrors.CodeUnauthorized, "sponsorship covers another account")
	}

	sponsorshipID := params.SponsorshipID
	loc := &models.LegalOfficerCase{
		ID:            params.LocID,
		Owner:         officer,
		Requester:     models.OtherAccountRequester(params.Requester),
		LocType:       models.LocTypeIdentity,
		LegalFee:      params.LegalFee,
		SponsorshipID: &sponsorshipID,
	}
	if err := s.create(ctx, loc, officer, &sponsorship.Sponsor, models.ItemsParams{}); err != nil {
		return err
	}

	// Consume after the case is written; the mutex keeps the pair atomic.
	sponsorship.LocID = &params.LocID
	if err := s.sponsorships.Save(ctx, sponsorship); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "consume sponsorship")
	}
	return nil
}

// CreateLogionIdentityLoc opens an officer-owned identity case with no
// requester. No fee applies.
func (s *Service) CreateLogionIdentityLoc(ctx context.Context, origin id.Origin, params models.CreateLogionIdentityLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	officer, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, officer); err != nil {
		return err
	}

	loc := &models.LegalOfficerCase{
		ID:        params.LocID,
		Owner:     officer,
		Requester: models.NoneRequester(),
		LocType:   models.LocTypeIdentity,
	}
	return s.create(ctx, loc, officer, nil, models.ItemsParams{})
}

// CreateTransactionLoc opens a transaction case. The caller must
// already hold a closed identity case with the same legal officer.
func (s *Service) CreateTransactionLoc(ctx context.Context, origin id.Origin, params models.CreateTransactionLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requester, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, params.LegalOfficer); err != nil {
		return err
	}
	if err := s.requireIdentified(ctx, requester, params.LegalOfficer); err != nil {
		return err
	}

	loc := &models.LegalOfficerCase{
		ID:        params.LocID,
		Owner:     params.LegalOfficer,
		Requester: models.AccountRequester(requester),
		LocType:   models.LocTypeTransaction,
		LegalFee:  params.LegalFee,
	}
	return s.create(ctx, loc, requester, &requester, params.Items)
}

// CreateLogionTransactionLoc opens a transaction case whose requester is
// a closed logion identity case. The caller is the legal officer; no fee
// applies.
func (s *Service) CreateLogionTransactionLoc(ctx context.Context, origin id.Origin, params models.CreateLogionTransactionLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	officer, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, officer); err != nil {
		return err
	}

	requesterLoc, err := s.loadLoc(ctx, params.RequesterLoc)
	if err != nil {
		return err
	}
	if requesterLoc.LocType != models.LocTypeIdentity ||
		requesterLoc.Requester.Kind != models.RequesterNone ||
		!requesterLoc.Closed || requesterLoc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "requester loc must be a closed logion identity loc")
	}

	loc := &models.LegalOfficerCase{
		ID:        params.LocID,
		Owner:     officer,
		Requester: models.LocRequester(params.RequesterLoc),
		LocType:   models.LocTypeTransaction,
	}
	return s.create(ctx, loc, officer, nil, models.ItemsParams{})
}

// CreateCollectionLoc opens a collection case. At least one of the two
// limits is required; the value fee is reserved on the requester until
// the case closes or is voided.
func (s *Service) CreateCollectionLoc(ctx context.Context, origin id.Origin, params models.CreateCollectionLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requester, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, params.LegalOfficer); err != nil {
		return err
	}
	if err := s.requireIdentified(ctx, requester, params.LegalOfficer); err != nil {
		return err
	}
	if params.CollectionLastBlockSubmission == nil && params.CollectionMaxSize == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "collection requires a size limit or a last block")
	}

	loc := &models.LegalOfficerCase{
		ID:                            params.LocID,
		Owner:                         params.LegalOfficer,
		Requester:                     models.AccountRequester(requester),
		LocType:                       models.LocTypeCollection,
		CollectionLastBlockSubmission: params.CollectionLastBlockSubmission,
		CollectionMaxSize:             params.CollectionMaxSize,
		CollectionCanUpload:           params.CanUpload,
		LegalFee:                      params.LegalFee,
		ValueFee:                      params.ValueFee,
		CollectionItemFee:             params.CollectionItemFee,
		TokensRecordFee:               params.TokensRecordFee,
	}
	// The reservation goes first so any later failure is compensable
	// with a plain unreserve; the charges inside create then run against
	// the free balance left after the reservation.
	if err := s.fees.ReserveValueFee(ctx, requester, params.ValueFee); err != nil {
		return err
	}
	if err := s.create(ctx, loc, requester, &requester, params.Items); err != nil {
		if uerr := s.fees.UnreserveValueFee(ctx, requester, params.ValueFee); uerr != nil {
			s.logger.ErrorContext(ctx, "unreserve value fee after failed create",
				"loc_id", loc.ID.String(), "error", uerr)
		}
		return err
	}
	if params.ValueFee > 0 {
		s.emit(ctx, audit.EventValueFeeReserved, audit.Event{
			LocID:   loc.ID.String(),
			Actor:   requester.String(),
			FeeKind: "value",
			Amount:  params.ValueFee,
		})
	}
	return nil
}

// requireIdentified checks the account holds a closed identity case with
// the officer.
func (s *Service) requireIdentified(ctx context.Context, account, officer id.AccountID) error {
	ok, err := s.locs.HasClosedIdentityLoc(ctx, models.AccountRequester(account), officer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query identity locs")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "requester has no closed identity loc with this legal officer")
	}
	return nil
}

// create runs the shared tail of every creation operation: key check,
// initial item validation, fee application, write, notification. The
// legal fee is charged to feePayer when set; nil means no fee applies
// (officer-opened logion cases). The full fee sum is pre-checked against
// the free balance so a failed create never leaves a partial charge.
func (s *Service) create(ctx context.Context, loc *models.LegalOfficerCase, caller id.AccountID, feePayer *id.AccountID, items models.ItemsParams) error {
	if !loc.LocType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown loc type")
	}

	existing, err := s.locs.Get(ctx, loc.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check loc id")
	}
	if existing != nil {
		return dErrors.New(dErrors.CodeAlreadyExists, "loc id already used")
	}

	if err := s.applyItems(ctx, loc, caller, items); err != nil {
		return err
	}

	if feePayer != nil {
		var totalBytes uint64
		for i := range loc.Files {
			totalBytes += uint64(loc.Files[i].Size)
		}
		storage := s.fees.Schedule().StorageFee(uint32(len(loc.Files)), totalBytes)
		if err := s.fees.CanCover(ctx, *feePayer, loc.LegalFee+storage); err != nil {
			return err
		}
		if err := s.fees.ChargeLegalFee(ctx, *feePayer, loc.LegalFee, loc.LocType, loc.Owner); err != nil {
			return err
		}
		if loc.LegalFee > 0 {
			s.recordFee(ctx, loc.ID, *feePayer, "legal", loc.LegalFee)
		}
		if len(loc.Files) > 0 {
			if err := s.chargeStorage(ctx, loc, *feePayer, loc.Files); err != nil {
				return err
			}
		}
	}

	if err := s.locs.Create(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementLocsCreated(string(loc.LocType))
	}
	s.emit(ctx, audit.EventLocCreated, audit.Event{
		LocID: loc.ID.String(),
		Actor: caller.String(),
	})
	s.logger.InfoContext(ctx, "loc created",
		"loc_id", loc.ID.String(),
		"loc_type", string(loc.LocType),
		"owner", loc.Owner.String(),
	)
	return nil
}

// chargeStorage applies the storage fee for the given files and records
// the settled amount.
func (s *Service) chargeStorage(ctx context.Context, loc *models.LegalOfficerCase, payer id.AccountID, files []models.FileItem) error {
	var totalBytes uint64
	for i := range files {
		totalBytes += uint64(files[i].Size)
	}
	amount, err := s.fees.ChargeStorageFee(ctx, payer, uint32(len(files)), totalBytes, loc.Owner)
	if err != nil {
		return err
	}
	if amount > 0 {
		s.recordFee(ctx, loc.ID, payer, "storage", amount)
	}
	return nil
}

func (s *Service) recordFee(ctx context.Context, locID id.LocID, payer id.AccountID, kind string, amount id.Balance) {
	if s.metrics != nil {
		s.metrics.AddFeeDistributed(kind, amount)
	}
	s.emit(ctx, audit.EventFeeDistributed, audit.Event{
		LocID:   locID.String(),
		Actor:   payer.String(),
		FeeKind: kind,
		Amount:  amount,
	})
}
