// Package models defines the Legal Officer Case record and its item
// types. The case is the aggregate: item and lifecycle mutations go
// through the loc service, which loads a copy, validates, and writes the
// whole record back.
package models

import (
	id "locregistry/pkg/domain"
)

// LocType partitions cases by what they notarize.
type LocType string

const (
	LocTypeIdentity    LocType = "identity"
	LocTypeTransaction LocType = "transaction"
	LocTypeCollection  LocType = "collection"
)

// IsValid reports whether the type is one of the three known kinds.
func (t LocType) IsValid() bool {
	switch t {
	case LocTypeIdentity, LocTypeTransaction, LocTypeCollection:
		return true
	}
	return false
}

// RequesterKind discriminates the requester variant of a case.
type RequesterKind string

const (
	// RequesterNone marks cases opened by a legal officer for their own
	// records (logion identity cases).
	RequesterNone RequesterKind = "none"
	// RequesterAccount is a native account requester.
	RequesterAccount RequesterKind = "account"
	// RequesterLoc points at a closed logion identity case acting as
	// requester.
	RequesterLoc RequesterKind = "loc"
	// RequesterOtherAccount is a foreign-chain address requester, always
	// backed by a sponsorship.
	RequesterOtherAccount RequesterKind = "other_account"
)

// Requester is the party a case was opened for.
type Requester struct {
	Kind         RequesterKind      `json:"kind"`
	Account      id.AccountID       `json:"account,omitempty"`
	Loc          id.LocID           `json:"loc,omitempty"`
	OtherAccount id.OtherAccountID  `json:"other_account,omitempty"`
}

func NoneRequester() Requester { return Requester{Kind: RequesterNone} }

func AccountRequester(account id.AccountID) Requester {
	return Requester{Kind: RequesterAccount, Account: account}
}

func LocRequester(loc id.LocID) Requester {
	return Requester{Kind: RequesterLoc, Loc: loc}
}

func OtherAccountRequester(addr id.OtherAccountID) Requester {
	return Requester{Kind: RequesterOtherAccount, OtherAccount: addr}
}

// Is reports whether the given native account is the requester.
func (r Requester) Is(account id.AccountID) bool {
	return r.Kind == RequesterAccount && r.Account == account
}

// SubmitterKind discriminates who supplied an item.
type SubmitterKind string

const (
	SubmitterNone         SubmitterKind = "none"
	SubmitterAccount      SubmitterKind = "account"
	SubmitterOtherAccount SubmitterKind = "other_account"
)

// Submitter identifies the party that supplied a metadata item, file or
// link. Foreign-chain submitters appear on cases with other-chain
// requesters.
type Submitter struct {
	Kind         SubmitterKind     `json:"kind"`
	Account      id.AccountID      `json:"account,omitempty"`
	OtherAccount id.OtherAccountID `json:"other_account,omitempty"`
}

func NoSubmitter() Submitter { return Submitter{Kind: SubmitterNone} }

func AccountSubmitter(account id.AccountID) Submitter {
	return Submitter{Kind: SubmitterAccount, Account: account}
}

func OtherAccountSubmitter(addr id.OtherAccountID) Submitter {
	return Submitter{Kind: SubmitterOtherAccount, OtherAccount: addr}
}

// IsAccount reports whether the submitter is exactly the given native
// account.
func (s Submitter) IsAccount(account id.AccountID) bool {
	return s.Kind == SubmitterAccount && s.Account == account
}

// IsOtherAccount reports whether the submitter is exactly the given
// foreign-chain address.
func (s Submitter) IsOtherAccount(addr id.OtherAccountID) bool {
	return s.Kind == SubmitterOtherAccount && s.OtherAccount == addr
}

// MetadataItem is a named value notarized on a case. Names are unique
// within a case.
type MetadataItem struct {
	Name                         string    `json:"name"`
	Value                        string    `json:"value"`
	Submitter                    Submitter `json:"submitter"`
	AcknowledgedByOwner          bool      `json:"acknowledged_by_owner"`
	AcknowledgedByVerifiedIssuer bool      `json:"acknowledged_by_verified_issuer"`
}

// FileItem references a file by content hash. Hashes are unique within a
// case; the registry never stores the bytes.
type FileItem struct {
	Hash                         id.Hash   `json:"hash"`
	Nature                       string    `json:"nature"`
	Size                         uint32    `json:"size"`
	Submitter                    Submitter `json:"submitter"`
	AcknowledgedByOwner          bool      `json:"acknowledged_by_owner"`
	AcknowledgedByVerifiedIssuer bool      `json:"acknowledged_by_verified_issuer"`
}

// LocLink ties a case to another case. Targets are unique within a case.
type LocLink struct {
	Target                       id.LocID  `json:"target"`
	Nature                       string    `json:"nature"`
	Submitter                    Submitter `json:"submitter"`
	AcknowledgedByOwner          bool      `json:"acknowledged_by_owner"`
	AcknowledgedByVerifiedIssuer bool      `json:"acknowledged_by_verified_issuer"`
}

// VoidInfo records the terminal void status and the optional replacement
// case.
type VoidInfo struct {
	Replacer *id.LocID `json:"replacer,omitempty"`
}

// LegalOfficerCase is the central record. Owner and requester are fixed
// at creation; lifecycle flags only move forward (open, closed, void).
type LegalOfficerCase struct {
	ID        id.LocID     `json:"id"`
	Owner     id.AccountID `json:"owner"`
	Requester Requester    `json:"requester"`
	LocType   LocType      `json:"loc_type"`

	Metadata []MetadataItem `json:"metadata"`
	Files    []FileItem     `json:"files"`
	Links    []LocLink      `json:"links"`

	Closed     bool      `json:"closed"`
	VoidInfo   *VoidInfo `json:"void_info,omitempty"`
	ReplacerOf *id.LocID `json:"replacer_of,omitempty"`

	CollectionLastBlockSubmission *id.BlockNumber `json:"collection_last_block_submission,omitempty"`
	CollectionMaxSize             *uint32         `json:"collection_max_size,omitempty"`
	CollectionCanUpload           bool            `json:"collection_can_upload"`

	Seal          *id.Hash          `json:"seal,omitempty"`
	SponsorshipID *id.SponsorshipID `json:"sponsorship_id,omitempty"`

	LegalFee          id.Balance `json:"legal_fee"`
	ValueFee          id.Balance `json:"value_fee"`
	CollectionItemFee id.Balance `json:"collection_item_fee"`
	TokensRecordFee   id.Balance `json:"tokens_record_fee"`

	Imported bool `json:"imported"`
}

// IsVoid reports whether the case reached its terminal state.
func (c *LegalOfficerCase) IsVoid() bool {
	return c.VoidInfo != nil
}

// IsOwner reports whether the account is the case's legal officer.
func (c *LegalOfficerCase) IsOwner(account id.AccountID) bool {
	return c.Owner == account
}

// IsRequester reports whether the account is the case's native-account
// requester.
func (c *LegalOfficerCase) IsRequester(account id.AccountID) bool {
	return c.Requester.Is(account)
}

// HasMetadata reports whether a metadata item with the name exists.
func (c *LegalOfficerCase) HasMetadata(name string) bool {
	for i := range c.Metadata {
		if c.Metadata[i].Name == name {
			return true
		}
	}
	return false
}

// MetadataAt returns the metadata item with the name, or nil.
func (c *LegalOfficerCase) MetadataAt(name string) *MetadataItem {
	for i := range c.Metadata {
		if c.Metadata[i].Name == name {
			return &c.Metadata[i]
		}
	}
	return nil
}

// HasFile reports whether a file with the content hash exists.
func (c *LegalOfficerCase) HasFile(hash id.Hash) bool {
	for i := range c.Files {
		if c.Files[i].Hash == hash {
			return true
		}
	}
	return false
}

// FileAt returns the file with the content hash, or nil.
func (c *LegalOfficerCase) FileAt(hash id.Hash) *FileItem {
	for i := range c.Files {
		if c.Files[i].Hash == hash {
			return &c.Files[i]
		}
	}
	return nil
}

// HasLink reports whether a link to the target case exists.
func (c *LegalOfficerCase) HasLink(target id.LocID) bool {
	for i := range c.Links {
		if c.Links[i].Target == target {
			return true
		}
	}
	return false
}

// LinkAt returns the link to the target case, or nil.
func (c *LegalOfficerCase) LinkAt(target id.LocID) *LocLink {
	for i := range c.Links {
		if c.Links[i].Target == target {
			return &c.Links[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Services mutate clones and write them back
// only after every validation step passed, which is what keeps failed
// operations side-effect free.
func (c *LegalOfficerCase) Clone() *LegalOfficerCase {
	if c == nil {
		return nil
	}
	out := *c
	out.Metadata = append([]MetadataItem(nil), c.Metadata...)
	out.Files = append([]FileItem(nil), c.Files...)
	out.Links = append([]LocLink(nil), c.Links...)
	if c.VoidInfo != nil {
		vi := *c.VoidInfo
		if c.VoidInfo.Replacer != nil {
			r := *c.VoidInfo.Replacer
			vi.Replacer = &r
		}
		out.VoidInfo = &vi
	}
	out.ReplacerOf = clonePtr(c.ReplacerOf)
	out.CollectionLastBlockSubmission = clonePtr(c.CollectionLastBlockSubmission)
	out.CollectionMaxSize = clonePtr(c.CollectionMaxSize)
	out.Seal = clonePtr(c.Seal)
	out.SponsorshipID = clonePtr(c.SponsorshipID)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
