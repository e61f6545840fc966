package domain

import (
	"strings"

	dErrors "locregistry/pkg/domain-errors"
)

// Hash is a lowercase 0x-prefixed 32-byte hex digest. File contents,
// seals and metadata values are referenced by hash only; the registry
// never stores the underlying bytes.
type Hash string

const hashHexLen = 64

// ParseHash validates and normalizes a hash string.
func ParseHash(s string) (Hash, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "hash is required")
	}
	h := strings.ToLower(s)
	if !strings.HasPrefix(h, "0x") || len(h) != 2+hashHexLen || !isHex(h[2:]) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "malformed hash %q", s)
	}
	return Hash(h), nil
}

func (h Hash) IsNil() bool    { return h == "" }
func (h Hash) String() string { return string(h) }

// OtherAccountID is an address on a foreign chain, currently a
// 0x-prefixed 20-byte Ethereum address. Comparison is case-insensitive
// so the parsed form is always lowercase.
type OtherAccountID string

const otherAccountHexLen = 40

// ParseOtherAccountID validates and normalizes a foreign-chain address.
func ParseOtherAccountID(s string) (OtherAccountID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	a := strings.ToLower(s)
	if !strings.HasPrefix(a, "0x") || len(a) != 2+otherAccountHexLen || !isHex(a[2:]) {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "malformed address %q", s)
	}
	return OtherAccountID(a), nil
}

func (a OtherAccountID) IsNil() bool    { return a == "" }
func (a OtherAccountID) String() string { return string(a) }

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// Balance is an amount of currency units. All fee arithmetic is exact
// integer arithmetic on this type.
type Balance uint64

// BlockNumber is the externally supplied monotonic counter used for
// collection expiry comparisons.
type BlockNumber uint64
