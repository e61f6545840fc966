package handler

import (
	"locregistry/internal/loc/models"
)

// LocResponse is the HTTP shape of a case. The model already carries
// json tags, so the response embeds it and adds derived flags.
type LocResponse struct {
	*models.LegalOfficerCase
	Void bool `json:"void"`
}

// FromLoc converts a case record to its HTTP response.
func FromLoc(loc *models.LegalOfficerCase) *LocResponse {
	return &LocResponse{LegalOfficerCase: loc, Void: loc.IsVoid()}
}

// ValidityResponse is the response of the validity query.
type ValidityResponse struct {
	Valid bool `json:"valid"`
}

// IdentifiedResponse is the response of the closed-identity query.
type IdentifiedResponse struct {
	Identified bool `json:"identified"`
}
