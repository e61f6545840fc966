package models

import (
	locmodels "locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
)

// ImportIssuerParams reconstructs a nomination and its per-case
// selections in one call.
type ImportIssuerParams struct {
	LegalOfficer id.AccountID
	Account      id.AccountID
	IdentityLoc  id.LocID
	SelectedLocs []id.LocID
}

// ImportSponsorshipParams reconstructs a sponsorship, consumed or not.
type ImportSponsorshipParams struct {
	ID               id.SponsorshipID
	Sponsor          id.AccountID
	SponsoredAccount locmodels.Submitter
	LegalOfficer     id.AccountID
	LocID            *id.LocID
}
