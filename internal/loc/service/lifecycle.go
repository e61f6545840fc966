package service

import (
	"context"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
)

// Close moves an open case to the closed state. Outstanding owner
// acknowledgements fail the close unless AutoAck stamps them; an item
// submitted by a selected issuer must carry the issuer acknowledgement
// regardless.
func (s *Service) Close(ctx context.Context, origin id.Origin, locID id.LocID, params models.CloseParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadLoc(ctx, locID)
	if err != nil {
		return err
	}
	if !loc.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the case owner closes")
	}
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}
	if loc.Closed {
		return dErrors.New(dErrors.CodeInvalidState, "loc is already closed")
	}

	for i := range loc.Metadata {
		if err := s.settleAcknowledgements(ctx, loc, loc.Metadata[i].Submitter, &loc.Metadata[i].AcknowledgedByOwner, loc.Metadata[i].AcknowledgedByVerifiedIssuer, params.AutoAck); err != nil {
			return err
		}
	}
	for i := range loc.Files {
		if err := s.settleAcknowledgements(ctx, loc, loc.Files[i].Submitter, &loc.Files[i].AcknowledgedByOwner, loc.Files[i].AcknowledgedByVerifiedIssuer, params.AutoAck); err != nil {
			return err
		}
	}
	for i := range loc.Links {
		if err := s.settleAcknowledgements(ctx, loc, loc.Links[i].Submitter, &loc.Links[i].AcknowledgedByOwner, loc.Links[i].AcknowledgedByVerifiedIssuer, params.AutoAck); err != nil {
			return err
		}
	}

	loc.Closed = true
	loc.Seal = params.Seal

	// Only an account requester holds a reservation; imported collection
	// cases may carry other requester kinds.
	if loc.LocType == models.LocTypeCollection && loc.ValueFee > 0 && loc.Requester.Kind == models.RequesterAccount {
		payer := loc.Requester.Account
		if err := s.fees.ReleaseValueFee(ctx, payer, loc.ValueFee, loc.Owner); err != nil {
			return err
		}
		s.recordFee(ctx, loc.ID, payer, "value", loc.ValueFee)
		s.emit(ctx, audit.EventValueFeeReleased, audit.Event{
			LocID:   loc.ID.String(),
			Actor:   payer.String(),
			FeeKind: "value",
			Amount:  loc.ValueFee,
		})
	}

	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementLocsClosed()
	}
	s.emit(ctx, audit.EventLocClosed, audit.Event{
		LocID: locID.String(),
		Actor: caller.String(),
	})
	s.logger.InfoContext(ctx, "loc closed", "loc_id", locID.String())
	return nil
}

// settleAcknowledgements enforces the close-time acknowledgement rules
// for one item, stamping the owner flag when autoAck is requested.
func (s *Service) settleAcknowledgements(ctx context.Context, loc *models.LegalOfficerCase, submitter models.Submitter, byOwner *bool, byIssuer, autoAck bool) error {
	if !*byOwner {
		if !autoAck {
			return dErrors.New(dErrors.CodeInvalidState, "item not acknowledged by owner")
		}
		*byOwner = true
	}
	if byIssuer || submitter.Kind != models.SubmitterAccount {
		return nil
	}
	selected, err := s.isSelectedIssuer(ctx, loc.ID, submitter.Account)
	if err != nil {
		return err
	}
	if selected {
		return dErrors.New(dErrors.CodeInvalidState, "item not acknowledged by its verified issuer")
	}
	return nil
}

// MakeVoid moves a case to the terminal void state.
func (s *Service) MakeVoid(ctx context.Context, origin id.Origin, locID id.LocID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.void(ctx, origin, locID, nil)
}

// MakeVoidAndReplace voids a case and records its replacement. The
// replacer must exist, be non-void, not already replace another case,
// and share the voided case's type.
func (s *Service) MakeVoidAndReplace(ctx context.Context, origin id.Origin, locID, replacerID id.LocID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.void(ctx, origin, locID, &replacerID)
}

func (s *Service) void(ctx context.Context, origin id.Origin, locID id.LocID, replacerID *id.LocID) error {
	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadLoc(ctx, locID)
	if err != nil {
		return err
	}
	if !loc.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the case owner voids")
	}
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is already void")
	}

	var replacer *models.LegalOfficerCase
	if replacerID != nil {
		replacer, err = s.locs.Get(ctx, *replacerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load replacer")
		}
		if replacer == nil {
			return dErrors.New(dErrors.CodeNotFound, "replacer loc not found")
		}
		if replacer.IsVoid() {
			return dErrors.New(dErrors.CodeInvalidState, "replacer loc is void")
		}
		if replacer.ReplacerOf != nil {
			return dErrors.New(dErrors.CodeInvalidState, "replacer already replaces another loc")
		}
		if replacer.LocType != loc.LocType {
			return dErrors.New(dErrors.CodeStructuralMismatch, "replacer loc type differs")
		}
	}

	// The value fee reserved at collection creation goes back to the
	// requester when the case never closed. Only an account requester
	// holds a reservation.
	if loc.LocType == models.LocTypeCollection && !loc.Closed && loc.ValueFee > 0 &&
		loc.Requester.Kind == models.RequesterAccount {
		if err := s.fees.UnreserveValueFee(ctx, loc.Requester.Account, loc.ValueFee); err != nil {
			return err
		}
	}

	loc.VoidInfo = &models.VoidInfo{Replacer: replacerID}
	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}
	if replacer != nil {
		replacer.ReplacerOf = &locID
		if err := s.locs.Update(ctx, replacer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "store replacer")
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementLocsVoided()
	}
	event := audit.Event{
		LocID: locID.String(),
		Actor: caller.String(),
	}
	if replacerID != nil {
		event.Subject = replacerID.String()
	}
	s.emit(ctx, audit.EventLocVoided, event)
	s.logger.InfoContext(ctx, "loc voided", "loc_id", locID.String())
	return nil
}
