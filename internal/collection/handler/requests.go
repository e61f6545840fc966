package handler

import (
	"strings"

	"locregistry/internal/collection/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// ItemFilePayload is the wire shape of a collection item file.
type ItemFilePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        uint32 `json:"size"`
	Hash        string `json:"hash"`
}

func (p ItemFilePayload) parse() (models.ItemFile, error) {
	hash, err := id.ParseHash(p.Hash)
	if err != nil {
		return models.ItemFile{}, err
	}
	return models.ItemFile{Name: p.Name, ContentType: p.ContentType, Size: p.Size, Hash: hash}, nil
}

// TokenPayload is the wire shape of a collection item token.
type TokenPayload struct {
	TokenType string `json:"token_type"`
	TokenID   string `json:"token_id"`
	Issuance  uint64 `json:"issuance"`
}

func (p TokenPayload) parse() (*models.ItemToken, error) {
	if strings.TrimSpace(p.TokenType) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token type is required")
	}
	if strings.TrimSpace(p.TokenID) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token id is required")
	}
	return &models.ItemToken{TokenType: p.TokenType, TokenID: p.TokenID, Issuance: p.Issuance}, nil
}

// TermsPayload is the wire shape of a terms-and-conditions reference.
type TermsPayload struct {
	TCType  string `json:"tc_type"`
	TCLoc   string `json:"tc_loc"`
	Details string `json:"details"`
}

func (p TermsPayload) parse() (models.TermsAndConditions, error) {
	tcLoc, err := id.ParseLocID(p.TCLoc)
	if err != nil {
		return models.TermsAndConditions{}, err
	}
	return models.TermsAndConditions{TCType: p.TCType, TCLoc: tcLoc, Details: p.Details}, nil
}

func parseItemFiles(payloads []ItemFilePayload) ([]models.ItemFile, error) {
	var out []models.ItemFile
	for _, p := range payloads {
		file, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, file)
	}
	return out, nil
}

func parseTerms(payloads []TermsPayload) ([]models.TermsAndConditions, error) {
	var out []models.TermsAndConditions
	for _, p := range payloads {
		tc, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

// AddItemRequest is the body of POST /locs/{locID}/items.
type AddItemRequest struct {
	ItemID             string            `json:"item_id"`
	Description        string            `json:"description"`
	Files              []ItemFilePayload `json:"files,omitempty"`
	Token              *TokenPayload     `json:"token,omitempty"`
	RestrictedDelivery bool              `json:"restricted_delivery"`
	TermsAndConditions []TermsPayload    `json:"terms_and_conditions,omitempty"`

	parsed models.AddCollectionItemParams
}

func (r *AddItemRequest) Validate() error {
	itemID, err := id.ParseCollectionItemID(r.ItemID)
	if err != nil {
		return err
	}
	files, err := parseItemFiles(r.Files)
	if err != nil {
		return err
	}
	terms, err := parseTerms(r.TermsAndConditions)
	if err != nil {
		return err
	}
	params := models.AddCollectionItemParams{
		ItemID:             itemID,
		Description:        r.Description,
		Files:              files,
		RestrictedDelivery: r.RestrictedDelivery,
		TermsAndConditions: terms,
	}
	if r.Token != nil {
		token, err := r.Token.parse()
		if err != nil {
			return err
		}
		params.Token = token
	}
	r.parsed = params
	return nil
}

func (r *AddItemRequest) Parsed() models.AddCollectionItemParams { return r.parsed }

// RecordFilePayload is the wire shape of a tokens record file.
type RecordFilePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        uint32 `json:"size"`
	Hash        string `json:"hash"`
}

func (p RecordFilePayload) parse() (models.TokensRecordFile, error) {
	hash, err := id.ParseHash(p.Hash)
	if err != nil {
		return models.TokensRecordFile{}, err
	}
	return models.TokensRecordFile{Name: p.Name, ContentType: p.ContentType, Size: p.Size, Hash: hash}, nil
}

// AddRecordRequest is the body of POST /locs/{locID}/records.
type AddRecordRequest struct {
	RecordID        string              `json:"record_id"`
	Description     string              `json:"description"`
	Files           []RecordFilePayload `json:"files"`
	ChargeSubmitter bool                `json:"charge_submitter"`

	parsed models.AddTokensRecordParams
}

func (r *AddRecordRequest) Validate() error {
	recordID, err := id.ParseTokensRecordID(r.RecordID)
	if err != nil {
		return err
	}
	var files []models.TokensRecordFile
	for _, p := range r.Files {
		file, err := p.parse()
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	r.parsed = models.AddTokensRecordParams{
		RecordID:        recordID,
		Description:     r.Description,
		Files:           files,
		ChargeSubmitter: r.ChargeSubmitter,
	}
	return nil
}

func (r *AddRecordRequest) Parsed() models.AddTokensRecordParams { return r.parsed }

// ImportItemRequest is the body of POST /imports/collection-items.
type ImportItemRequest struct {
	LocID              string            `json:"loc_id"`
	ItemID             string            `json:"item_id"`
	Description        string            `json:"description"`
	Files              []ItemFilePayload `json:"files,omitempty"`
	Token              *TokenPayload     `json:"token,omitempty"`
	RestrictedDelivery bool              `json:"restricted_delivery"`
	TermsAndConditions []TermsPayload    `json:"terms_and_conditions,omitempty"`

	parsedLocID id.LocID
	parsed      models.ImportCollectionItemParams
}

func (r *ImportItemRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	itemID, err := id.ParseCollectionItemID(r.ItemID)
	if err != nil {
		return err
	}
	files, err := parseItemFiles(r.Files)
	if err != nil {
		return err
	}
	terms, err := parseTerms(r.TermsAndConditions)
	if err != nil {
		return err
	}
	params := models.ImportCollectionItemParams{
		ItemID:             itemID,
		Description:        r.Description,
		Files:              files,
		RestrictedDelivery: r.RestrictedDelivery,
		TermsAndConditions: terms,
	}
	if r.Token != nil {
		token, err := r.Token.parse()
		if err != nil {
			return err
		}
		params.Token = token
	}
	r.parsedLocID = locID
	r.parsed = params
	return nil
}

func (r *ImportItemRequest) ParsedLocID() id.LocID                     { return r.parsedLocID }
func (r *ImportItemRequest) Parsed() models.ImportCollectionItemParams { return r.parsed }

// ImportRecordRequest is the body of POST /imports/tokens-records.
type ImportRecordRequest struct {
	LocID       string              `json:"loc_id"`
	RecordID    string              `json:"record_id"`
	Description string              `json:"description"`
	Files       []RecordFilePayload `json:"files"`
	Submitter   string              `json:"submitter"`

	parsedLocID id.LocID
	parsed      models.ImportTokensRecordParams
}

func (r *ImportRecordRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	recordID, err := id.ParseTokensRecordID(r.RecordID)
	if err != nil {
		return err
	}
	submitter, err := id.ParseAccountID(r.Submitter)
	if err != nil {
		return err
	}
	var files []models.TokensRecordFile
	for _, p := range r.Files {
		file, err := p.parse()
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	r.parsedLocID = locID
	r.parsed = models.ImportTokensRecordParams{
		RecordID:    recordID,
		Description: r.Description,
		Files:       files,
		Submitter:   submitter,
	}
	return nil
}

func (r *ImportRecordRequest) ParsedLocID() id.LocID                   { return r.parsedLocID }
func (r *ImportRecordRequest) Parsed() models.ImportTokensRecordParams { return r.parsed }
