package models

import (
	id "locregistry/pkg/domain"
)

// MetadataInput, FileInput and LinkInput are the submission shapes for
// items. The service validates the submitter against the caller before
// any insertion.
type MetadataInput struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Submitter Submitter `json:"submitter"`
}

type FileInput struct {
	Hash      id.Hash   `json:"hash"`
	Nature    string    `json:"nature"`
	Size      uint32    `json:"size"`
	Submitter Submitter `json:"submitter"`
}

type LinkInput struct {
	Target    id.LocID  `json:"target"`
	Nature    string    `json:"nature"`
	Submitter Submitter `json:"submitter"`
}

// ItemsParams carries the initial items of a create operation. They run
// through the same validation as later additions.
type ItemsParams struct {
	Metadata []MetadataInput `json:"metadata,omitempty"`
	Files    []FileInput     `json:"files,omitempty"`
	Links    []LinkInput     `json:"links,omitempty"`
}

// CreateIdentityLocParams opens an identity case requested by the
// calling account.
type CreateIdentityLocParams struct {
	LocID        id.LocID
	LegalOfficer id.AccountID
	LegalFee     id.Balance
	Items        ItemsParams
}

// CreateOtherIdentityLocParams opens an identity case for a
// foreign-chain address, funded by a sponsorship. The caller is the
// legal officer.
type CreateOtherIdentityLocParams struct {
	LocID         id.LocID
	Requester     id.OtherAccountID
	SponsorshipID id.SponsorshipID
	LegalFee      id.Balance
}

// CreateLogionIdentityLocParams opens an officer-owned identity case
// with no requester.
type CreateLogionIdentityLocParams struct {
	LocID id.LocID
}

// CreateTransactionLocParams opens a transaction case requested by the
// calling account, which must already hold a closed identity case with
// the same legal officer.
type CreateTransactionLocParams struct {
	LocID        id.LocID
	LegalOfficer id.AccountID
	LegalFee     id.Balance
	Items        ItemsParams
}

// CreateLogionTransactionLocParams opens a transaction case whose
// requester is a closed logion identity case.
type CreateLogionTransactionLocParams struct {
	LocID        id.LocID
	RequesterLoc id.LocID
}

// CreateCollectionLocParams opens a collection case. At least one of
// CollectionLastBlockSubmission and CollectionMaxSize is required.
type CreateCollectionLocParams struct {
	LocID                         id.LocID
	LegalOfficer                  id.AccountID
	CollectionLastBlockSubmission *id.BlockNumber
	CollectionMaxSize             *uint32
	CanUpload                     bool
	LegalFee                      id.Balance
	ValueFee                      id.Balance
	CollectionItemFee             id.Balance
	TokensRecordFee               id.Balance
	Items                         ItemsParams
}

// CloseParams closes a case. AutoAck stamps every outstanding owner
// acknowledgement at close time; issuer acknowledgements are never
// stamped implicitly.
type CloseParams struct {
	Seal    *id.Hash
	AutoAck bool
}

// ImportLocParams reconstructs a case exactly as given. Only key
// uniqueness and list capacities are checked; fees are never applied.
type ImportLocParams struct {
	LocID     id.LocID
	Owner     id.AccountID
	Requester Requester
	LocType   LocType

	Metadata []MetadataItem
	Files    []FileItem
	Links    []LocLink

	Closed     bool
	VoidInfo   *VoidInfo
	ReplacerOf *id.LocID

	CollectionLastBlockSubmission *id.BlockNumber
	CollectionMaxSize             *uint32
	CollectionCanUpload           bool

	Seal          *id.Hash
	SponsorshipID *id.SponsorshipID

	LegalFee          id.Balance
	ValueFee          id.Balance
	CollectionItemFee id.Balance
	TokensRecordFee   id.Balance
}
