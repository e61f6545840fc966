package handler

import (
	"strings"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// SubmitterPayload is the wire shape of an item submitter.
type SubmitterPayload struct {
	Kind         string `json:"kind"`
	Account      string `json:"account,omitempty"`
	OtherAccount string `json:"other_account,omitempty"`
}

func (p SubmitterPayload) parse() (models.Submitter, error) {
	switch models.SubmitterKind(p.Kind) {
	case models.SubmitterAccount:
		account, err := id.ParseAccountID(p.Account)
		if err != nil {
			return models.Submitter{}, err
		}
		return models.AccountSubmitter(account), nil
	case models.SubmitterOtherAccount:
		addr, err := id.ParseOtherAccountID(p.OtherAccount)
		if err != nil {
			return models.Submitter{}, err
		}
		return models.OtherAccountSubmitter(addr), nil
	default:
		return models.Submitter{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown submitter kind %q", p.Kind)
	}
}

// MetadataPayload, FilePayload and LinkPayload are the wire shapes of
// item submissions.
type MetadataPayload struct {
	Name      string           `json:"name"`
	Value     string           `json:"value"`
	Submitter SubmitterPayload `json:"submitter"`
}

func (p MetadataPayload) parse() (models.MetadataInput, error) {
	if strings.TrimSpace(p.Name) == "" {
		return models.MetadataInput{}, dErrors.New(dErrors.CodeInvalidInput, "metadata name is required")
	}
	submitter, err := p.Submitter.parse()
	if err != nil {
		return models.MetadataInput{}, err
	}
	return models.MetadataInput{Name: p.Name, Value: p.Value, Submitter: submitter}, nil
}

type FilePayload struct {
	Hash      string           `json:"hash"`
	Nature    string           `json:"nature"`
	Size      uint32           `json:"size"`
	Submitter SubmitterPayload `json:"submitter"`
}

func (p FilePayload) parse() (models.FileInput, error) {
	hash, err := id.ParseHash(p.Hash)
	if err != nil {
		return models.FileInput{}, err
	}
	submitter, err := p.Submitter.parse()
	if err != nil {
		return models.FileInput{}, err
	}
	return models.FileInput{Hash: hash, Nature: p.Nature, Size: p.Size, Submitter: submitter}, nil
}

type LinkPayload struct {
	Target    string           `json:"target"`
	Nature    string           `json:"nature"`
	Submitter SubmitterPayload `json:"submitter"`
}

func (p LinkPayload) parse() (models.LinkInput, error) {
	target, err := id.ParseLocID(p.Target)
	if err != nil {
		return models.LinkInput{}, err
	}
	submitter, err := p.Submitter.parse()
	if err != nil {
		return models.LinkInput{}, err
	}
	return models.LinkInput{Target: target, Nature: p.Nature, Submitter: submitter}, nil
}

// ItemsPayload carries the optional initial items of a create request.
type ItemsPayload struct {
	Metadata []MetadataPayload `json:"metadata,omitempty"`
	Files    []FilePayload     `json:"files,omitempty"`
	Links    []LinkPayload     `json:"links,omitempty"`
}

func (p ItemsPayload) parse() (models.ItemsParams, error) {
	var out models.ItemsParams
	for _, m := range p.Metadata {
		item, err := m.parse()
		if err != nil {
			return models.ItemsParams{}, err
		}
		out.Metadata = append(out.Metadata, item)
	}
	for _, f := range p.Files {
		item, err := f.parse()
		if err != nil {
			return models.ItemsParams{}, err
		}
		out.Files = append(out.Files, item)
	}
	for _, l := range p.Links {
		item, err := l.parse()
		if err != nil {
			return models.ItemsParams{}, err
		}
		out.Links = append(out.Links, item)
	}
	return out, nil
}

// CreateIdentityRequest is the body of POST /locs/identity.
type CreateIdentityRequest struct {
	LocID        string       `json:"loc_id"`
	LegalOfficer string       `json:"legal_officer"`
	LegalFee     id.Balance   `json:"legal_fee"`
	Items        ItemsPayload `json:"items"`

	parsed models.CreateIdentityLocParams
}

func (r *CreateIdentityRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	items, err := r.Items.parse()
	if err != nil {
		return err
	}
	r.parsed = models.CreateIdentityLocParams{
		LocID:        locID,
		LegalOfficer: officer,
		LegalFee:     r.LegalFee,
		Items:        items,
	}
	return nil
}

func (r *CreateIdentityRequest) Parsed() models.CreateIdentityLocParams { return r.parsed }

// CreateOtherIdentityRequest is the body of POST /locs/identity/other.
type CreateOtherIdentityRequest struct {
	LocID         string     `json:"loc_id"`
	Requester     string     `json:"requester"`
	SponsorshipID string     `json:"sponsorship_id"`
	LegalFee      id.Balance `json:"legal_fee"`

	parsed models.CreateOtherIdentityLocParams
}

func (r *CreateOtherIdentityRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	requester, err := id.ParseOtherAccountID(r.Requester)
	if err != nil {
		return err
	}
	sponsorshipID, err := id.ParseSponsorshipID(r.SponsorshipID)
	if err != nil {
		return err
	}
	r.parsed = models.CreateOtherIdentityLocParams{
		LocID:         locID,
		Requester:     requester,
		SponsorshipID: sponsorshipID,
		LegalFee:      r.LegalFee,
	}
	return nil
}

func (r *CreateOtherIdentityRequest) Parsed() models.CreateOtherIdentityLocParams { return r.parsed }

// CreateLogionIdentityRequest is the body of POST /locs/identity/logion.
type CreateLogionIdentityRequest struct {
	LocID string `json:"loc_id"`

	parsed models.CreateLogionIdentityLocParams
}

func (r *CreateLogionIdentityRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	r.parsed = models.CreateLogionIdentityLocParams{LocID: locID}
	return nil
}

func (r *CreateLogionIdentityRequest) Parsed() models.CreateLogionIdentityLocParams { return r.parsed }

// CreateTransactionRequest is the body of POST /locs/transaction.
type CreateTransactionRequest struct {
	LocID        string       `json:"loc_id"`
	LegalOfficer string       `json:"legal_officer"`
	LegalFee     id.Balance   `json:"legal_fee"`
	Items        ItemsPayload `json:"items"`

	parsed models.CreateTransactionLocParams
}

func (r *CreateTransactionRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	items, err := r.Items.parse()
	if err != nil {
		return err
	}
	r.parsed = models.CreateTransactionLocParams{
		LocID:        locID,
		LegalOfficer: officer,
		LegalFee:     r.LegalFee,
		Items:        items,
	}
	return nil
}

func (r *CreateTransactionRequest) Parsed() models.CreateTransactionLocParams { return r.parsed }

// CreateLogionTransactionRequest is the body of POST
// /locs/transaction/logion.
type CreateLogionTransactionRequest struct {
	LocID        string `json:"loc_id"`
	RequesterLoc string `json:"requester_loc"`

	parsed models.CreateLogionTransactionLocParams
}

func (r *CreateLogionTransactionRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	requesterLoc, err := id.ParseLocID(r.RequesterLoc)
	if err != nil {
		return err
	}
	r.parsed = models.CreateLogionTransactionLocParams{LocID: locID, RequesterLoc: requesterLoc}
	return nil
}

func (r *CreateLogionTransactionRequest) Parsed() models.CreateLogionTransactionLocParams {
	return r.parsed
}

// CreateCollectionRequest is the body of POST /locs/collection.
type CreateCollectionRequest struct {
	LocID               string       `json:"loc_id"`
	LegalOfficer        string       `json:"legal_officer"`
	LastBlockSubmission *uint64      `json:"last_block_submission,omitempty"`
	MaxSize             *uint32      `json:"max_size,omitempty"`
	CanUpload           bool         `json:"can_upload"`
	LegalFee            id.Balance   `json:"legal_fee"`
	ValueFee            id.Balance   `json:"value_fee"`
	CollectionItemFee   id.Balance   `json:"collection_item_fee"`
	TokensRecordFee     id.Balance   `json:"tokens_record_fee"`
	Items               ItemsPayload `json:"items"`

	parsed models.CreateCollectionLocParams
}

func (r *CreateCollectionRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	officer, err := id.ParseAccountID(r.LegalOfficer)
	if err != nil {
		return err
	}
	items, err := r.Items.parse()
	if err != nil {
		return err
	}
	var lastBlock *id.BlockNumber
	if r.LastBlockSubmission != nil {
		b := id.BlockNumber(*r.LastBlockSubmission)
		lastBlock = &b
	}
	r.parsed = models.CreateCollectionLocParams{
		LocID:                         locID,
		LegalOfficer:                  officer,
		CollectionLastBlockSubmission: lastBlock,
		CollectionMaxSize:             r.MaxSize,
		CanUpload:                     r.CanUpload,
		LegalFee:                      r.LegalFee,
		ValueFee:                      r.ValueFee,
		CollectionItemFee:             r.CollectionItemFee,
		TokensRecordFee:               r.TokensRecordFee,
		Items:                         items,
	}
	return nil
}

func (r *CreateCollectionRequest) Parsed() models.CreateCollectionLocParams { return r.parsed }

// AddMetadataRequest is the body of POST /locs/{locID}/metadata.
type AddMetadataRequest struct {
	MetadataPayload

	parsed models.MetadataInput
}

func (r *AddMetadataRequest) Validate() error {
	input, err := r.MetadataPayload.parse()
	if err != nil {
		return err
	}
	r.parsed = input
	return nil
}

func (r *AddMetadataRequest) Parsed() models.MetadataInput { return r.parsed }

// AddFileRequest is the body of POST /locs/{locID}/files.
type AddFileRequest struct {
	FilePayload

	parsed models.FileInput
}

func (r *AddFileRequest) Validate() error {
	input, err := r.FilePayload.parse()
	if err != nil {
		return err
	}
	r.parsed = input
	return nil
}

func (r *AddFileRequest) Parsed() models.FileInput { return r.parsed }

// AddLinkRequest is the body of POST /locs/{locID}/links.
type AddLinkRequest struct {
	LinkPayload

	parsed models.LinkInput
}

func (r *AddLinkRequest) Validate() error {
	input, err := r.LinkPayload.parse()
	if err != nil {
		return err
	}
	r.parsed = input
	return nil
}

func (r *AddLinkRequest) Parsed() models.LinkInput { return r.parsed }

// AcknowledgeMetadataRequest identifies a metadata item by name.
type AcknowledgeMetadataRequest struct {
	Name string `json:"name"`
}

func (r *AcknowledgeMetadataRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "metadata name is required")
	}
	return nil
}

// AcknowledgeFileRequest identifies a file by content hash.
type AcknowledgeFileRequest struct {
	Hash string `json:"hash"`

	parsedHash id.Hash
}

func (r *AcknowledgeFileRequest) Validate() error {
	hash, err := id.ParseHash(r.Hash)
	if err != nil {
		return err
	}
	r.parsedHash = hash
	return nil
}

func (r *AcknowledgeFileRequest) ParsedHash() id.Hash { return r.parsedHash }

// AcknowledgeLinkRequest identifies a link by target case.
type AcknowledgeLinkRequest struct {
	Target string `json:"target"`

	parsedTarget id.LocID
}

func (r *AcknowledgeLinkRequest) Validate() error {
	target, err := id.ParseLocID(r.Target)
	if err != nil {
		return err
	}
	r.parsedTarget = target
	return nil
}

func (r *AcknowledgeLinkRequest) ParsedTarget() id.LocID { return r.parsedTarget }

// CloseRequest is the body of POST /locs/{locID}/close.
type CloseRequest struct {
	Seal    string `json:"seal,omitempty"`
	AutoAck bool   `json:"auto_ack"`

	parsed models.CloseParams
}

func (r *CloseRequest) Validate() error {
	params := models.CloseParams{AutoAck: r.AutoAck}
	if r.Seal != "" {
		seal, err := id.ParseHash(r.Seal)
		if err != nil {
			return err
		}
		params.Seal = &seal
	}
	r.parsed = params
	return nil
}

func (r *CloseRequest) Parsed() models.CloseParams { return r.parsed }

// VoidRequest is the body of POST /locs/{locID}/void. A replacer turns
// the operation into void-and-replace.
type VoidRequest struct {
	Replacer string `json:"replacer,omitempty"`

	parsedReplacer *id.LocID
}

func (r *VoidRequest) Validate() error {
	if r.Replacer == "" {
		return nil
	}
	replacer, err := id.ParseLocID(r.Replacer)
	if err != nil {
		return err
	}
	r.parsedReplacer = &replacer
	return nil
}

func (r *VoidRequest) ParsedReplacer() *id.LocID { return r.parsedReplacer }
