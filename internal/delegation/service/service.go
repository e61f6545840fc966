// Package service implements verified-issuer nomination and selection,
// invited-contributor selection, and sponsorships.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"locregistry/internal/delegation/models"
	"locregistry/internal/delegation/ports"
	locmodels "locregistry/internal/loc/models"
	locports "locregistry/internal/loc/ports"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
	"locregistry/pkg/platform/audit"
	"locregistry/pkg/platform/sentinel"
	"locregistry/pkg/requestcontext"
)

// Service carries the delegation operations. All writes run under one
// mutex-free path because the stores themselves serialize; validation
// reads then a single write keeps each call atomic enough for the
// sequential host model.
type Service struct {
	store     ports.Store
	locs      locports.LocStore
	directory locports.AuthorityDirectory
	logger    *slog.Logger
	audit     locports.AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher locports.AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func New(store ports.Store, locs locports.LocStore, directory locports.AuthorityDirectory, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("delegation store is required")
	}
	if locs == nil {
		return nil, fmt.Errorf("loc store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("authority directory is required")
	}

	s := &Service{
		store:     store,
		locs:      locs,
		directory: directory,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NominateIssuer registers an issuer under the calling legal officer.
// The nominee must hold a closed, non-void identity case owned by the
// caller whose requester is exactly the nominee.
func (s *Service) NominateIssuer(ctx context.Context, origin id.Origin, issuer id.AccountID, identityLocID id.LocID) error {
	officer, err := origin.Signer()
	if err != nil {
		return err
	}
	if err := s.requireLegalOfficer(ctx, officer); err != nil {
		return err
	}

	loc, err := s.locs.Get(ctx, identityLocID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load identity loc")
	}
	if loc == nil {
		return dErrors.New(dErrors.CodeNotFound, "identity loc not found")
	}
	if loc.LocType != locmodels.LocTypeIdentity || !loc.Closed || loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "nomination requires a closed identity loc")
	}
	if !loc.IsOwner(officer) {
		return dErrors.New(dErrors.CodeUnauthorized, "identity loc is owned by another legal officer")
	}
	if !loc.IsRequester(issuer) {
		return dErrors.New(dErrors.CodeUnauthorized, "identity loc requester is not the nominee")
	}

	nomination := &models.VerifiedIssuer{
		LegalOfficer: officer,
		Account:      issuer,
		IdentityLoc:  identityLocID,
	}
	if err := s.store.CreateNomination(ctx, nomination); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "issuer already nominated")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store nomination")
	}

	s.emit(ctx, audit.EventIssuerNominated, audit.Event{
		Actor:   officer.String(),
		Subject: issuer.String(),
	})
	return nil
}

// DismissIssuer removes the nomination and every per-case selection of
// that issuer under the calling legal officer.
func (s *Service) DismissIssuer(ctx context.Context, origin id.Origin, issuer id.AccountID) error {
	officer, err := origin.Signer()
	if err != nil {
		return err
	}

	if err := s.store.RemoveNomination(ctx, officer, issuer); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "issuer is not nominated")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "remove nomination")
	}

	s.emit(ctx, audit.EventIssuerDismissed, audit.Event{
		Actor:   officer.String(),
		Subject: issuer.String(),
	})
	return nil
}

// SetIssuerSelection toggles an issuer's active status on one case. The
// toggle is idempotent; selecting requires a current nomination under
// the case owner.
func (s *Service) SetIssuerSelection(ctx context.Context, origin id.Origin, locID id.LocID, issuer id.AccountID, selected bool) error {
	caller, err := origin.Signer()
	if err != nil {
		return err
	}

	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	if loc == nil {
		return dErrors.New(dErrors.CodeNotFound, "loc not found")
	}
	if !loc.IsOwner(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the case owner selects issuers")
	}
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}

	nomination, err := s.store.GetNomination(ctx, caller, issuer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load nomination")
	}
	if nomination == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "issuer is not nominated")
	}

	if err := s.store.SetSelected(ctx, locID, caller, issuer, selected); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store selection")
	}

	s.emit(ctx, audit.EventIssuerSelectionUpdated, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: issuer.String(),
	})
	return nil
}

// SetInvitedContributorSelection toggles an invited contributor on a
// case. Only the case's native-account requester may call it, and the
// contributor must hold a closed identity case with the same legal
// officer. The toggle is idempotent.
func (s *Service) SetInvitedContributorSelection(ctx context.Context, origin id.Origin, locID id.LocID, account id.AccountID, selected bool) error {
	caller, err := origin.Signer()
	if err != nil {
		return err
	}

	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	if loc == nil {
		return dErrors.New(dErrors.CodeNotFound, "loc not found")
	}
	if !loc.IsRequester(caller) {
		return dErrors.New(dErrors.CodeUnauthorized, "only the case requester selects invited contributors")
	}
	if loc.IsVoid() {
		return dErrors.New(dErrors.CodeInvalidState, "loc is void")
	}

	if selected {
		identified, err := s.locs.HasClosedIdentityLoc(ctx, locmodels.AccountRequester(account), loc.Owner)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "query identity locs")
		}
		if !identified {
			return dErrors.New(dErrors.CodeUnauthorized, "contributor has no closed identity loc with this legal officer")
		}
	}

	if err := s.store.SetContributorSelected(ctx, locID, account, selected); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store contributor selection")
	}

	s.emit(ctx, audit.EventContributorSelectionUpdated, audit.Event{
		LocID:   locID.String(),
		Actor:   caller.String(),
		Subject: account.String(),
	})
	return nil
}

// Sponsor records a prepaid delegation toward a future case under the
// given legal officer. Anyone may sponsor.
func (s *Service) Sponsor(ctx context.Context, origin id.Origin, sponsorshipID id.SponsorshipID, sponsoredAccount locmodels.Submitter, legalOfficer id.AccountID) error {
	sponsor, err := origin.Signer()
	if err != nil {
		return err
	}
	if sponsoredAccount.Kind == locmodels.SubmitterNone {
		return dErrors.New(dErrors.CodeInvalidInput, "sponsored account is required")
	}
	if err := s.requireLegalOfficer(ctx, legalOfficer); err != nil {
		return err
	}

	sponsorship := &models.Sponsorship{
		ID:               sponsorshipID,
		Sponsor:          sponsor,
		SponsoredAccount: sponsoredAccount,
		LegalOfficer:     legalOfficer,
	}
	if err := s.store.CreateSponsorship(ctx, sponsorship); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "sponsorship id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store sponsorship")
	}

	s.emit(ctx, audit.EventSponsorshipCreated, audit.Event{
		Actor:   sponsor.String(),
		Subject: sponsorshipID.String(),
	})
	return nil
}

// WithdrawSponsorship removes an unconsumed sponsorship. Once a case
// consumed it, withdrawal fails.
func (s *Service) WithdrawSponsorship(ctx context.Context, origin id.Origin, sponsorshipID id.SponsorshipID) error {
	caller, err := origin.Signer()
	if err != nil {
		return err
	}

	sponsorship, err := s.store.Get(ctx, sponsorshipID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load sponsorship")
	}
	if sponsorship == nil {
		return dErrors.New(dErrors.CodeNotFound, "sponsorship not found")
	}
	if sponsorship.Sponsor != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "only the sponsor may withdraw")
	}
	if sponsorship.Consumed() {
		return dErrors.New(dErrors.CodeAlreadyUsed, "sponsorship already funded a loc")
	}

	if err := s.store.RemoveSponsorship(ctx, sponsorshipID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "remove sponsorship")
	}

	s.emit(ctx, audit.EventSponsorshipWithdrawn, audit.Event{
		Actor:   caller.String(),
		Subject: sponsorshipID.String(),
	})
	return nil
}

// ImportIssuer reconstructs a nomination and its per-case selections.
// Root only; skips the identity-loc checks.
func (s *Service) ImportIssuer(ctx context.Context, origin id.Origin, params models.ImportIssuerParams) error {
	if err := origin.RequireRoot(); err != nil {
		return err
	}

	nomination := &models.VerifiedIssuer{
		LegalOfficer: params.LegalOfficer,
		Account:      params.Account,
		IdentityLoc:  params.IdentityLoc,
		Imported:     true,
	}
	if err := s.store.CreateNomination(ctx, nomination); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "issuer already nominated")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store nomination")
	}
	for _, locID := range params.SelectedLocs {
		if err := s.store.SetSelected(ctx, locID, params.LegalOfficer, params.Account, true); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "store selection")
		}
	}
	return nil
}

// ImportSponsorship reconstructs a sponsorship, consumed or not. Root
// only.
func (s *Service) ImportSponsorship(ctx context.Context, origin id.Origin, params models.ImportSponsorshipParams) error {
	if err := origin.RequireRoot(); err != nil {
		return err
	}

	sponsorship := &models.Sponsorship{
		ID:               params.ID,
		Sponsor:          params.Sponsor,
		SponsoredAccount: params.SponsoredAccount,
		LegalOfficer:     params.LegalOfficer,
		LocID:            params.LocID,
		Imported:         true,
	}
	if err := s.store.CreateSponsorship(ctx, sponsorship); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeAlreadyExists, "sponsorship id already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "store sponsorship")
	}
	return nil
}

// ImportInvitedContributorSelection reconstructs one contributor
// selection. Root only.
func (s *Service) ImportInvitedContributorSelection(ctx context.Context, origin id.Origin, locID id.LocID, account id.AccountID) error {
	if err := origin.RequireRoot(); err != nil {
		return err
	}
	if err := s.store.SetContributorSelected(ctx, locID, account, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store contributor selection")
	}
	return nil
}

func (s *Service) requireLegalOfficer(ctx context.Context, account id.AccountID) error {
	ok, err := s.directory.IsLegalOfficer(ctx, account)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "query authority directory")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "account is not a legal officer")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.Category = action.Category()
	event.Timestamp = time.Now().UTC()
	event.Action = string(action)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
