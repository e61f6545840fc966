// Package models defines the delegation records: verified-issuer
// nominations, per-case selections, and sponsorships. They are
// independent top-level stores cross-referenced by id, never embedded in
// case records.
package models

import (
	locmodels "locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
)

// VerifiedIssuer is a per (legal officer, issuer) nomination pointing at
// the issuer's closed identity case. Nomination alone grants nothing; a
// separate per-case selection makes an issuer active on a case.
type VerifiedIssuer struct {
	LegalOfficer id.AccountID `json:"legal_officer"`
	Account      id.AccountID `json:"account"`
	IdentityLoc  id.LocID     `json:"identity_loc"`
	Imported     bool         `json:"imported"`
}

// Sponsorship links a sponsor to a sponsored account under a designated
// legal officer. LocID is set once the sponsorship funds a created case;
// a consumed sponsorship cannot be withdrawn.
type Sponsorship struct {
	ID               id.SponsorshipID    `json:"id"`
	Sponsor          id.AccountID        `json:"sponsor"`
	SponsoredAccount locmodels.Submitter `json:"sponsored_account"`
	LegalOfficer     id.AccountID        `json:"legal_officer"`
	LocID            *id.LocID           `json:"loc_id,omitempty"`
	Imported         bool                `json:"imported"`
}

// Consumed reports whether the sponsorship already funded a case.
func (s *Sponsorship) Consumed() bool { return s.LocID != nil }

// Clone returns a copy safe to mutate before writing back.
func (s *Sponsorship) Clone() *Sponsorship {
	if s == nil {
		return nil
	}
	out := *s
	if s.LocID != nil {
		l := *s.LocID
		out.LocID = &l
	}
	return &out
}
