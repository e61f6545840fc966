// Package models defines the collection subsystem records: collection
// items and tokens records, both keyed by (case id, record id) and
// stored outside the case aggregate.
package models

import (
	id "locregistry/pkg/domain"
)

// ItemFile is a file attached to a collection item. Hashes must be
// mutually distinct within the item.
type ItemFile struct {
	Name        string  `json:"name"`
	ContentType string  `json:"content_type"`
	Size        uint32  `json:"size"`
	Hash        id.Hash `json:"hash"`
}

// ItemToken describes the tokenized asset a collection item certifies.
// Issuance is at least 1 when a token is present.
type ItemToken struct {
	TokenType string `json:"token_type"`
	TokenID   string `json:"token_id"`
	Issuance  uint64 `json:"issuance"`
}

// TermsAndConditions references another closed, non-void case holding
// the applicable terms.
type TermsAndConditions struct {
	TCType  string   `json:"tc_type"`
	TCLoc   id.LocID `json:"tc_loc"`
	Details string   `json:"details"`
}

// CollectionItem is one entry of a collection case.
type CollectionItem struct {
	LocID              id.LocID             `json:"loc_id"`
	ItemID             id.CollectionItemID  `json:"item_id"`
	Description        string               `json:"description"`
	Files              []ItemFile           `json:"files,omitempty"`
	Token              *ItemToken           `json:"token,omitempty"`
	RestrictedDelivery bool                 `json:"restricted_delivery"`
	TermsAndConditions []TermsAndConditions `json:"terms_and_conditions,omitempty"`
	Imported           bool                 `json:"imported"`
}

// TokensRecordFile is a file attached to a tokens record.
type TokensRecordFile struct {
	Name        string  `json:"name"`
	ContentType string  `json:"content_type"`
	Size        uint32  `json:"size"`
	Hash        id.Hash `json:"hash"`
}

// TokensRecord documents an issuance event on a collection case. At
// least one file is mandatory.
type TokensRecord struct {
	LocID       id.LocID           `json:"loc_id"`
	RecordID    id.TokensRecordID  `json:"record_id"`
	Description string             `json:"description"`
	Files       []TokensRecordFile `json:"files"`
	Submitter   id.AccountID       `json:"submitter"`
	Imported    bool               `json:"imported"`
}

// AddCollectionItemParams is the input of the add-collection-item
// operation.
type AddCollectionItemParams struct {
	ItemID             id.CollectionItemID
	Description        string
	Files              []ItemFile
	Token              *ItemToken
	RestrictedDelivery bool
	TermsAndConditions []TermsAndConditions
}

// AddTokensRecordParams is the input of the add-tokens-record
// operation. ChargeSubmitter directs the tokens-record fee at the
// caller instead of the collection requester.
type AddTokensRecordParams struct {
	RecordID        id.TokensRecordID
	Description     string
	Files           []TokensRecordFile
	ChargeSubmitter bool
}

// ImportCollectionItemParams reconstructs a collection item as given.
type ImportCollectionItemParams struct {
	ItemID             id.CollectionItemID
	Description        string
	Files              []ItemFile
	Token              *ItemToken
	RestrictedDelivery bool
	TermsAndConditions []TermsAndConditions
}

// ImportTokensRecordParams reconstructs a tokens record as given.
type ImportTokensRecordParams struct {
	RecordID    id.TokensRecordID
	Description string
	Files       []TokensRecordFile
	Submitter   id.AccountID
}
