// Package domain holds the identifier and value types shared across the
// registry. IDs are distinct uuid wrappers so a LocID can never be passed
// where an AccountID is expected; parsing enforces validity at trust
// boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "locregistry/pkg/domain-errors"
)

// LocID identifies a Legal Officer Case.
type LocID uuid.UUID

// AccountID identifies a native account (legal officers, requesters,
// issuers, sponsors all share the same account space).
type AccountID uuid.UUID

// SponsorshipID identifies a sponsorship record.
type SponsorshipID uuid.UUID

// CollectionItemID identifies an item inside a collection LOC.
type CollectionItemID uuid.UUID

// TokensRecordID identifies a tokens record inside a collection LOC.
type TokensRecordID uuid.UUID

func (id LocID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id AccountID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SponsorshipID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CollectionItemID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TokensRecordID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id LocID) String() string            { return uuid.UUID(id).String() }
func (id AccountID) String() string        { return uuid.UUID(id).String() }
func (id SponsorshipID) String() string    { return uuid.UUID(id).String() }
func (id CollectionItemID) String() string { return uuid.UUID(id).String() }
func (id TokensRecordID) String() string   { return uuid.UUID(id).String() }

// The typed wrappers implement encoding.TextMarshaler so json renders
// them in the canonical string form instead of raw byte arrays.
// UnmarshalText accepts the nil uuid to restore stored records verbatim;
// the Parse functions keep rejecting nil ids at the API boundary.

func (id LocID) MarshalText() ([]byte, error)            { return uuid.UUID(id).MarshalText() }
func (id AccountID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id SponsorshipID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id CollectionItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id TokensRecordID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *LocID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = LocID(u)
	return nil
}

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AccountID(u)
	return nil
}

func (id *SponsorshipID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SponsorshipID(u)
	return nil
}

func (id *CollectionItemID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = CollectionItemID(u)
	return nil
}

func (id *TokensRecordID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TokensRecordID(u)
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "nil id is not allowed")
	}
	return u, nil
}

// ParseLocID validates and returns a LocID.
func ParseLocID(s string) (LocID, error) {
	u, err := parseUUID(s)
	return LocID(u), err
}

// ParseAccountID validates and returns an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	return AccountID(u), err
}

// ParseSponsorshipID validates and returns a SponsorshipID.
func ParseSponsorshipID(s string) (SponsorshipID, error) {
	u, err := parseUUID(s)
	return SponsorshipID(u), err
}

// ParseCollectionItemID validates and returns a CollectionItemID.
func ParseCollectionItemID(s string) (CollectionItemID, error) {
	u, err := parseUUID(s)
	return CollectionItemID(u), err
}

// ParseTokensRecordID validates and returns a TokensRecordID.
func ParseTokensRecordID(s string) (TokensRecordID, error) {
	u, err := parseUUID(s)
	return TokensRecordID(u), err
}

// NewLocID returns a fresh random LocID. Production callers supply their
// own ids; this is mostly for tests and tooling.
func NewLocID() LocID { return LocID(uuid.New()) }

// NewAccountID returns a fresh random AccountID.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewSponsorshipID returns a fresh random SponsorshipID.
func NewSponsorshipID() SponsorshipID { return SponsorshipID(uuid.New()) }

// NewCollectionItemID returns a fresh random CollectionItemID.
func NewCollectionItemID() CollectionItemID { return CollectionItemID(uuid.New()) }

// NewTokensRecordID returns a fresh random TokensRecordID.
func NewTokensRecordID() TokensRecordID { return TokensRecordID(uuid.New()) }
