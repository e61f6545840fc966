package handler

import (
	"locregistry/internal/delegation/models"
	locmodels "locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// NominateRequest is the body of POST /issuers/nominate.
type NominateRequest struct {
	Issuer      string `json:"issuer"`
	IdentityLoc string `json:"identity_loc"`

	parsedIssuer id.AccountID
	parsedLoc    id.LocID
}

func (r *NominateRequest) Validate() error {
	issuer, err := id.ParseAccountID(r.Issuer)
	if err != nil {
		return err
	}
	identityLoc, err := id.ParseLocID(r.IdentityLoc)
	if err != nil {
		return err
	}
	r.parsedIssuer = issuer
	r.parsedLoc = identityLoc
	return nil
}

func (r *NominateRequest) ParsedIssuer() id.AccountID { return r.parsedIssuer }
func (r *NominateRequest) ParsedLoc() id.LocID        { return r.parsedLoc }

// DismissRequest is the body of POST /issuers/dismiss.
type DismissRequest struct {
	Issuer string `json:"issuer"`

	parsedIssuer id.AccountID
}

func (r *DismissRequest) Validate() error {
	issuer, err := id.ParseAccountID(r.Issuer)
	if err != nil {
		return err
	}
	r.parsedIssuer = issuer
	return nil
}

func (r *DismissRequest) ParsedIssuer() id.AccountID { return r.parsedIssuer }

// SelectionRequest toggles an issuer or contributor selection on a case.
type SelectionRequest struct {
	Selected bool `json:"selected"`
}

func (r *SelectionRequest) Validate() error { return nil }

// SponsorRequest is the body of POST /sponsorships.
type SponsorRequest struct {
	SponsorshipID    string `json:"sponsorship_id"`
	SponsoredKind    string `json:"sponsored_kind"`
	SponsoredAccount string `json:"sponsored_account"`
	LegalOfficer     string `json:"legal_officer"`

	parsedID        id.SponsorshipID
	parsedSponsored locmodels.Submitter
	parsedOfficer   id.AccountID
}

func (r *SponsorRequest) Validate() error {
	sponsorshipID, err := id.ParseSponsorshipID(r.SponsorshipID)
	if err != nil {
		return err
	}
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	var sponsored locmodels.Submitter
	switch locmodels.SubmitterKind(r.SponsoredKind) {
	case locmodels.SubmitterAccount:
		account, err := id.ParseAccountID(r.SponsoredAccount)
		if err != nil {
			return err
		}
		sponsored = locmodels.AccountSubmitter(account)
	case locmodels.SubmitterOtherAccount:
		addr, err := id.ParseOtherAccountID(r.SponsoredAccount)
		if err != nil {
			return err
		}
		sponsored = locmodels.OtherAccountSubmitter(addr)
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown sponsored account kind %q", r.SponsoredKind)
	}
	r.parsedID = sponsorshipID
	r.parsedSponsored = sponsored
	r.parsedOfficer = officer
	return nil
}

func (r *SponsorRequest) ParsedID() id.SponsorshipID           { return r.parsedID }
func (r *SponsorRequest) ParsedSponsored() locmodels.Submitter { return r.parsedSponsored }
func (r *SponsorRequest) ParsedOfficer() id.AccountID          { return r.parsedOfficer }

// ImportIssuerRequest is the body of POST /imports/issuers.
type ImportIssuerRequest struct {
	LegalOfficer string   `json:"legal_officer"`
	Account      string   `json:"account"`
	IdentityLoc  string   `json:"identity_loc"`
	SelectedLocs []string `json:"selected_locs,omitempty"`

	parsed models.ImportIssuerParams
}

func (r *ImportIssuerRequest) Validate() error {
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	identityLoc, err := id.ParseLocID(r.IdentityLoc)
	if err != nil {
		return err
	}
	var selected []id.LocID
	for _, raw := range r.SelectedLocs {
		locID, err := id.ParseLocID(raw)
		if err != nil {
			return err
		}
		selected = append(selected, locID)
	}
	r.parsed = models.ImportIssuerParams{
		LegalOfficer: officer,
		Account:      account,
		IdentityLoc:  identityLoc,
		SelectedLocs: selected,
	}
	return nil
}

func (r *ImportIssuerRequest) Parsed() models.ImportIssuerParams { return r.parsed }

// ImportSponsorshipRequest is the body of POST /imports/sponsorships.
type ImportSponsorshipRequest struct {
	SponsorshipID    string  `json:"sponsorship_id"`
	Sponsor          string  `json:"sponsor"`
	SponsoredKind    string  `json:"sponsored_kind"`
	SponsoredAccount string  `json:"sponsored_account"`
	LegalOfficer     string  `json:"legal_officer"`
	LocID            *string `json:"loc_id,omitempty"`

	parsed models.ImportSponsorshipParams
}

func (r *ImportSponsorshipRequest) Validate() error {
	sponsorshipID, err := id.ParseSponsorshipID(r.SponsorshipID)
	if err != nil {
		return err
	}
	sponsor, err := id.ParseAccountID(r.Sponsor)
	if err != nil {
		return err
	}
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	var sponsored locmodels.Submitter
	switch locmodels.SubmitterKind(r.SponsoredKind) {
	case locmodels.SubmitterAccount:
		account, err := id.ParseAccountID(r.SponsoredAccount)
		if err != nil {
			return err
		}
		sponsored = locmodels.AccountSubmitter(account)
	case locmodels.SubmitterOtherAccount:
		addr, err := id.ParseOtherAccountID(r.SponsoredAccount)
		if err != nil {
			return err
		}
		sponsored = locmodels.OtherAccountSubmitter(addr)
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown sponsored account kind %q", r.SponsoredKind)
	}
	params := models.ImportSponsorshipParams{
		ID:               sponsorshipID,
		Sponsor:          sponsor,
		SponsoredAccount: sponsored,
		LegalOfficer:     officer,
	}
	if r.LocID != nil {
		locID, err := id.ParseLocID(*r.LocID)
		if err != nil {
			return err
		}
		params.LocID = &locID
	}
	r.parsed = params
	return nil
}

func (r *ImportSponsorshipRequest) Parsed() models.ImportSponsorshipParams { return r.parsed }

// ImportContributorRequest is the body of POST
// /imports/contributor-selections.
type ImportContributorRequest struct {
	LocID   string `json:"loc_id"`
	Account string `json:"account"`

	parsedLoc     id.LocID
	parsedAccount id.AccountID
}

func (r *ImportContributorRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	account, err := id.ParseAccountID(r.Account)
	if err != nil {
		return err
	}
	r.parsedLoc = locID
	r.parsedAccount = account
	return nil
}

func (r *ImportContributorRequest) ParsedLoc() id.LocID         { return r.parsedLoc }
func (r *ImportContributorRequest) ParsedAccount() id.AccountID { return r.parsedAccount }
