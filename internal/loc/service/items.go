package service

import (
	"context"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
)

// AddMetadata appends a metadata item to an open case.
func (s *Service) AddMetadata(ctx context.Context, origin id.Origin, locID id.LocID, input models.MetadataInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadOpenLoc(ctx, locID)
	if err != nil {
		return err
	}
	if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
		return err
	}
	if err := appendMetadata(loc, input, loc.IsOwner(caller), s.limits); err != nil {
		return err
	}

	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementItemsAdded("metadata")
	}
	s.emit(ctx, audit.EventMetadataAdded, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: input.Name,
	})
	return nil
}

// AddFile appends a file item to an open case and charges the storage
// fee to the caller.
func (s *Service) AddFile(ctx context.Context, origin id.Origin, locID id.LocID, input models.FileInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadOpenLoc(ctx, locID)
	if err != nil {
		return err
	}
	if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
		return err
	}
	if err := appendFile(loc, input, loc.IsOwner(caller), s.limits); err != nil {
		return err
	}

	if err := s.chargeStorage(ctx, loc, caller, loc.Files[len(loc.Files)-1:]); err != nil {
		return err
	}
	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementItemsAdded("file")
	}
	s.emit(ctx, audit.EventFileAdded, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: input.Hash.String(),
	})
	return nil
}

// AddLink appends a link to another case.
func (s *Service) AddLink(ctx context.Context, origin id.Origin, locID id.LocID, input models.LinkInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := origin.Signer()
	if err != nil {
		return err
	}
	loc, err := s.loadOpenLoc(ctx, locID)
	if err != nil {
		return err
	}
	if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
		return err
	}

	target, err := s.locs.Get(ctx, input.Target)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load link target")
	}
	if target == nil {
		return dErrors.New(dErrors.CodeNotFound, "link target not found")
	}

	if err := appendLink(loc, input, loc.IsOwner(caller), s.limits); err != nil {
		return err
	}
	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementItemsAdded("link")
	}
	s.emit(ctx, audit.EventLinkAdded, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: input.Target.String(),
	})
	return nil
}

// AcknowledgeMetadata stamps the caller's acknowledgement on a metadata
// item.
func (s *Service) AcknowledgeMetadata(ctx context.Context, origin id.Origin, locID id.LocID, name string) error {
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
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}

	item := loc.MetadataAt(name)
	if item == nil {
		return dErrors.New(dErrors.CodeNotFound, "metadata item not found")
	}
	if err := s.acknowledge(ctx, loc, caller, item.Submitter, &item.AcknowledgedByOwner, &item.AcknowledgedByVerifiedIssuer); err != nil {
		return err
	}

	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}
	s.emit(ctx, audit.EventItemAcknowledged, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: name,
	})
	return nil
}

// AcknowledgeFile stamps the caller's acknowledgement on a file item.
func (s *Service) AcknowledgeFile(ctx context.Context, origin id.Origin, locID id.LocID, hash id.Hash) error {
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
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}

	item := loc.FileAt(hash)
	if item == nil {
		return dErrors.New(dErrors.CodeNotFound, "file not found")
	}
	if err := s.acknowledge(ctx, loc, caller, item.Submitter, &item.AcknowledgedByOwner, &item.AcknowledgedByVerifiedIssuer); err != nil {
		return err
	}

	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}
	s.emit(ctx, audit.EventItemAcknowledged, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: hash.String(),
	})
	return nil
}

// AcknowledgeLink stamps the caller's acknowledgement on a link.
func (s *Service) AcknowledgeLink(ctx context.Context, origin id.Origin, locID id.LocID, target id.LocID) error {
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
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}

	item := loc.LinkAt(target)
	if item == nil {
		return dErrors.New(dErrors.CodeNotFound, "link not found")
	}
	if err := s.acknowledge(ctx, loc, caller, item.Submitter, &item.AcknowledgedByOwner, &item.AcknowledgedByVerifiedIssuer); err != nil {
		return err
	}

	if err := s.locs.Update(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}
	s.emit(ctx, audit.EventItemAcknowledged, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: target.String(),
	})
	return nil
}

// loadOpenLoc loads a case and rejects closed or void ones.
func (s *Service) loadOpenLoc(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error) {
	loc, err := s.loadLoc(ctx, locID)
	if err != nil {
		return nil, err
	}
	if loc.IsVoid() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}
	if loc.Closed {
		return nil, dErrors.New(dErrors.CodeInvalidState, "loc is closed")
	}
	return loc, nil
}

// validateSubmitter enforces the two publish regimes. Published by the
// owner, the submitter must be the owner itself or the other-chain
// requester address. Published by the requester or a selected issuer,
// the submitter must be the caller or, for the requester, any issuer
// currently selected on the case.
func (s *Service) validateSubmitter(ctx context.Context, loc *models.LegalOfficerCase, caller id.AccountID, submitter models.Submitter) error {
	switch {
	case loc.IsOwner(caller):
		if submitter.IsAccount(caller) {
			return nil
		}
		if loc.Requester.Kind == models.RequesterOtherAccount && submitter.IsOtherAccount(loc.Requester.OtherAccount) {
			return nil
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid submitter for owner-published item")

	case loc.IsRequester(caller):
		if submitter.IsAccount(caller) {
			return nil
		}
		if submitter.Kind == models.SubmitterAccount {
			selected, err := s.isSelectedIssuer(ctx, loc.ID, submitter.Account)
			if err != nil {
				return err
			}
			if selected {
				return nil
			}
		}
		return dErrors.New(dErrors.CodeUnauthorized, "invalid submitter for requester-published item")

	default:
		selected, err := s.isSelectedIssuer(ctx, loc.ID, caller)
		if err != nil {
			return err
		}
		if selected && submitter.IsAccount(caller) {
			return nil
		}
		return dErrors.New(dErrors.CodeUnauthorized, "caller may not publish items on this loc")
	}
}

// acknowledge applies the single-shot acknowledgement rules: the owner
// may acknowledge any item once; a selected issuer only items it
// submitted itself, once.
func (s *Service) acknowledge(ctx context.Context, loc *models.LegalOfficerCase, caller id.AccountID, submitter models.Submitter, byOwner, byIssuer *bool) error {
	if loc.IsOwner(caller) {
		if *byOwner {
			return dErrors.New(dErrors.CodeInvalidState, "item already acknowledged by owner")
		}
		*byOwner = true
		return nil
	}

	selected, err := s.isSelectedIssuer(ctx, loc.ID, caller)
	if err != nil {
		return err
	}
	if !selected {
		return dErrors.New(dErrors.CodeUnauthorized, "caller may not acknowledge items on this loc")
	}
	if !submitter.IsAccount(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "issuers acknowledge only their own submissions")
	}
	if *byIssuer {
		return dErrors.New(dErrors.CodeInvalidState, "item already acknowledged by issuer")
	}
	*byIssuer = true
	return nil
}

// applyItems validates and appends the initial items of a create
// operation. Acknowledgement presets follow the same rule as later
// additions.
func (s *Service) applyItems(ctx context.Context, loc *models.LegalOfficerCase, caller id.AccountID, items models.ItemsParams) error {
	ackByOwner := loc.IsOwner(caller)
	for _, input := range items.Metadata {
		if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
			return err
		}
		if err := appendMetadata(loc, input, ackByOwner, s.limits); err != nil {
			return err
		}
	}
	for _, input := range items.Files {
		if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
			return err
		}
		if err := appendFile(loc, input, ackByOwner, s.limits); err != nil {
			return err
		}
	}
	for _, input := range items.Links {
		if err := s.validateSubmitter(ctx, loc, caller, input.Submitter); err != nil {
			return err
		}
		target, err := s.locs.Get(ctx, input.Target)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load link target")
		}
		if target == nil {
			return dErrors.New(dErrors.CodeNotFound, "link target not found")
		}
		if err := appendLink(loc, input, ackByOwner, s.limits); err != nil {
			return err
		}
	}
	return nil
}

func appendMetadata(loc *models.LegalOfficerCase, input models.MetadataInput, ackByOwner bool, limits Limits) error {
	if input.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata name is required")
	}
	if loc.HasMetadata(input.Name) {
		return dErrors.New(dErrors.CodeDuplicateData, "metadata name already used")
	}
	if len(loc.Metadata) >= limits.MaxMetadataItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "metadata list is full")
	}
	loc.Metadata = append(loc.Metadata, models.MetadataItem{
		Name:                input.Name,
		Value:               input.Value,
		Submitter:           input.Submitter,
		AcknowledgedByOwner: ackByOwner,
	})
	return nil
}

func appendFile(loc *models.LegalOfficerCase, input models.FileInput, ackByOwner bool, limits Limits) error {
	if loc.HasFile(input.Hash) {
		return dErrors.New(dErrors.CodeDuplicateData, "file hash already used")
	}
	if len(loc.Files) >= limits.MaxFileItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "file list is full")
	}
	loc.Files = append(loc.Files, models.FileItem{
		Hash:                input.Hash,
		Nature:              input.Nature,
		Size:                input.Size,
		Submitter:           input.Submitter,
		AcknowledgedByOwner: ackByOwner,
	})
	return nil
}

func appendLink(loc *models.LegalOfficerCase, input models.LinkInput, ackByOwner bool, limits Limits) error {
	if loc.HasLink(input.Target) {
		return dErrors.New(dErrors.CodeDuplicateData, "link target already used")
	}
	if len(loc.Links) >= limits.MaxLinkItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "link list is full")
	}
	loc.Links = append(loc.Links, models.LocLink{
		Target:              input.Target,
		Nature:              input.Nature,
		Submitter:           input.Submitter,
		AcknowledgedByOwner: ackByOwner,
	})
	return nil
}
