package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// GetLoc returns the case record, or nil when absent.
func (s *Service) GetLoc(ctx context.Context, locID id.LocID) (*models.LegalOfficerCase, error) {
	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	return loc, nil
}

// LocValidWithOwner reports whether the case is closed, non-void, and
// owned by the given legal officer.
func (s *Service) LocValidWithOwner(ctx context.Context, locID id.LocID, legalOfficer id.AccountID) (bool, error) {
	loc, err := s.locs.Get(ctx, locID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "load loc")
	}
	if loc == nil {
		return false, nil
	}
	return loc.Closed && !loc.IsVoid() && loc.IsOwner(legalOfficer), nil
}

// HasClosedIdentityLocs reports whether the account holds a closed
// identity case with every listed legal officer. An empty officer list
// yields false.
func (s *Service) HasClosedIdentityLocs(ctx context.Context, account id.AccountID, legalOfficers []id.AccountID) (bool, error) {
	if len(legalOfficers) == 0 {
		return false, nil
	}
	requester := models.AccountRequester(account)

	// One lookup per officer, fanned out; all must hold.
	g, ctx := errgroup.WithContext(ctx)
	results := make([]bool, len(legalOfficers))
	for i, officer := range legalOfficers {
		g.Go(func() error {
			ok, err := s.locs.HasClosedIdentityLoc(ctx, requester, officer)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "query identity locs")
			}
			results[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
