package service

import (
	"context"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
)

// ImportLoc reconstructs a case exactly as given. Root only. No fee is
// applied and no submitter or lifecycle validation runs; key uniqueness
// and list capacities are still enforced. The record carries the
// imported marker so post-migration checks can tell it apart.
func (s *Service) ImportLoc(ctx context.Context, origin id.Origin, params models.ImportLocParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := origin.RequireRoot(); err != nil {
		return err
	}
	if !params.LocType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown loc type")
	}
	if len(params.Metadata) > s.limits.MaxMetadataItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "metadata list is full")
	}
	if len(params.Files) > s.limits.MaxFileItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "file list is full")
	}
	if len(params.Links) > s.limits.MaxLinkItems {
		return dErrors.New(dErrors.CodeCapacityExceeded, "link list is full")
	}

	existing, err := s.locs.Get(ctx, params.LocID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check loc id")
	}
	if existing != nil {
		return dErrors.New(dErrors.CodeAlreadyExists, "loc id already used")
	}

	loc := &models.LegalOfficerCase{
		ID:        params.LocID,
		Owner:     params.Owner,
		Requester: params.Requester,
		LocType:   params.LocType,

		Metadata: params.Metadata,
		Files:    params.Files,
		Links:    params.Links,

		Closed:     params.Closed,
		VoidInfo:   params.VoidInfo,
		ReplacerOf: params.ReplacerOf,

		CollectionLastBlockSubmission: params.CollectionLastBlockSubmission,
		CollectionMaxSize:             params.CollectionMaxSize,
		CollectionCanUpload:           params.CollectionCanUpload,

		Seal:          params.Seal,
		SponsorshipID: params.SponsorshipID,

		LegalFee:          params.LegalFee,
		ValueFee:          params.ValueFee,
		CollectionItemFee: params.CollectionItemFee,
		TokensRecordFee:   params.TokensRecordFee,

		Imported: true,
	}
	if err := s.locs.Create(ctx, loc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store loc")
	}

	if s.metrics != nil {
		s.metrics.IncrementLocsImported()
	}
	s.emit(ctx, audit.EventLocImported, audit.Event{
		LocID: params.LocID.String(),
	})
	return nil
}
