package handler

import (
	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
	dErrors "locregistry/pkg/domain-errors"
)

// ImportedItemPayload is the wire shape of an already-notarized item:
// unlike submissions, acknowledgement flags are restored verbatim.
type ImportedItemPayload struct {
	Name                         string           `json:"name,omitempty"`
	Value                        string           `json:"value,omitempty"`
	Hash                         string           `json:"hash,omitempty"`
	Target                       string           `json:"target,omitempty"`
	Nature                       string           `json:"nature,omitempty"`
	Size                         uint32           `json:"size,omitempty"`
	Submitter                    SubmitterPayload `json:"submitter"`
	AcknowledgedByOwner          bool             `json:"acknowledged_by_owner"`
	AcknowledgedByVerifiedIssuer bool             `json:"acknowledged_by_verified_issuer"`
}

// ImportLocRequest is the body of POST /imports/locs. Every field is
// restored as given; the service checks only key uniqueness and list
// capacities.
type ImportLocRequest struct {
	LocID         string `json:"loc_id"`
	Owner         string `json:"owner"`
	RequesterKind string `json:"requester_kind"`
	Requester     string `json:"requester,omitempty"`
	LocType       string `json:"loc_type"`

	Metadata []ImportedItemPayload `json:"metadata,omitempty"`
	Files    []ImportedItemPayload `json:"files,omitempty"`
	Links    []ImportedItemPayload `json:"links,omitempty"`

	Closed     bool    `json:"closed"`
	Void       bool    `json:"void"`
	Replacer   *string `json:"replacer,omitempty"`
	ReplacerOf *string `json:"replacer_of,omitempty"`

	LastBlockSubmission *uint64 `json:"last_block_submission,omitempty"`
	MaxSize             *uint32 `json:"max_size,omitempty"`
	CanUpload           bool    `json:"can_upload"`

	Seal          string `json:"seal,omitempty"`
	SponsorshipID string `json:"sponsorship_id,omitempty"`

	LegalFee          id.Balance `json:"legal_fee"`
	ValueFee          id.Balance `json:"value_fee"`
	CollectionItemFee id.Balance `json:"collection_item_fee"`
	TokensRecordFee   id.Balance `json:"tokens_record_fee"`

	parsed models.ImportLocParams
}

func (r *ImportLocRequest) Validate() error {
	locID, err := id.ParseLocID(r.LocID)
	if err != nil {
		return err
	}
	owner, err := id.ParseAccountID(r.Owner)
	if err != nil {
		return err
	}
	requester, err := r.parseRequester()
	if err != nil {
		return err
	}

	params := models.ImportLocParams{
		LocID:               locID,
		Owner:               owner,
		Requester:           requester,
		LocType:             models.LocType(r.LocType),
		Closed:              r.Closed,
		CollectionMaxSize:   r.MaxSize,
		CollectionCanUpload: r.CanUpload,
		LegalFee:            r.LegalFee,
		ValueFee:            r.ValueFee,
		CollectionItemFee:   r.CollectionItemFee,
		TokensRecordFee:     r.TokensRecordFee,
	}
	if r.LastBlockSubmission != nil {
		b := id.BlockNumber(*r.LastBlockSubmission)
		params.CollectionLastBlockSubmission = &b
	}
	if r.Void {
		info := &models.VoidInfo{}
		if r.Replacer != nil {
			replacer, err := id.ParseLocID(*r.Replacer)
			if err != nil {
				return err
			}
			info.Replacer = &replacer
		}
		params.VoidInfo = info
	}
	if r.ReplacerOf != nil {
		replaced, err := id.ParseLocID(*r.ReplacerOf)
		if err != nil {
			return err
		}
		params.ReplacerOf = &replaced
	}
	if r.Seal != "" {
		seal, err := id.ParseHash(r.Seal)
		if err != nil {
			return err
		}
		params.Seal = &seal
	}
	if r.SponsorshipID != "" {
		sponsorshipID, err := id.ParseSponsorshipID(r.SponsorshipID)
		if err != nil {
			return err
		}
		params.SponsorshipID = &sponsorshipID
	}

	for _, m := range r.Metadata {
		submitter, err := m.Submitter.parse()
		if err != nil {
			return err
		}
		params.Metadata = append(params.Metadata, models.MetadataItem{
			Name:                         m.Name,
			Value:                        m.Value,
			Submitter:                    submitter,
			AcknowledgedByOwner:          m.AcknowledgedByOwner,
			AcknowledgedByVerifiedIssuer: m.AcknowledgedByVerifiedIssuer,
		})
	}
	for _, f := range r.Files {
		hash, err := id.ParseHash(f.Hash)
		if err != nil {
			return err
		}
		submitter, err := f.Submitter.parse()
		if err != nil {
			return err
		}
		params.Files = append(params.Files, models.FileItem{
			Hash:                         hash,
			Nature:                       f.Nature,
			Size:                         f.Size,
			Submitter:                    submitter,
			AcknowledgedByOwner:          f.AcknowledgedByOwner,
			AcknowledgedByVerifiedIssuer: f.AcknowledgedByVerifiedIssuer,
		})
	}
	for _, l := range r.Links {
		target, err := id.ParseLocID(l.Target)
		if err != nil {
			return err
		}
		submitter, err := l.Submitter.parse()
		if err != nil {
			return err
		}
		params.Links = append(params.Links, models.LocLink{
			Target:                       target,
			Nature:                       l.Nature,
			Submitter:                    submitter,
			AcknowledgedByOwner:          l.AcknowledgedByOwner,
			AcknowledgedByVerifiedIssuer: l.AcknowledgedByVerifiedIssuer,
		})
	}

	r.parsed = params
	return nil
}

func (r *ImportLocRequest) parseRequester() (models.Requester, error) {
	switch models.RequesterKind(r.RequesterKind) {
	case models.RequesterNone:
		return models.NoneRequester(), nil
	case models.RequesterAccount:
		account, err := id.ParseAccountID(r.Requester)
		if err != nil {
			return models.Requester{}, err
		}
		return models.AccountRequester(account), nil
	case models.RequesterLoc:
		loc, err := id.ParseLocID(r.Requester)
		if err != nil {
			return models.Requester{}, err
		}
		return models.LocRequester(loc), nil
	case models.RequesterOtherAccount:
		addr, err := id.ParseOtherAccountID(r.Requester)
		if err != nil {
			return models.Requester{}, err
		}
		return models.OtherAccountRequester(addr), nil
	default:
		return models.Requester{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown requester kind %q", r.RequesterKind)
	}
}

func (r *ImportLocRequest) Parsed() models.ImportLocParams { return r.parsed }
