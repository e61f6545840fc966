// Package fees implements the fee engine: pure fee computations, the
// distribution-key validator, and the slash-and-distribute primitive on
// top of the Ledger collaborator. Fee categories are independent; each
// charge is one ledger debit followed by one distribution.
package fees

import (
	"fmt"

	"locregistry/internal/loc/models"
	id "locregistry/pkg/domain"
)

// DistributionKey names the percentage shares a fee's proceeds are split
// into. Percents must sum to exactly 100; this is checked once at
// startup, not at call time.
type DistributionKey struct {
	LocOwnerPercent          uint8 `json:"loc_owner_percent"`
	CommunityTreasuryPercent uint8 `json:"community_treasury_percent"`
	LegalOfficersPercent     uint8 `json:"legal_officers_percent"`
}

// Validate rejects keys whose shares do not sum to 100%.
func (k DistributionKey) Validate() error {
	sum := int(k.LocOwnerPercent) + int(k.CommunityTreasuryPercent) + int(k.LegalOfficersPercent)
	if sum != 100 {
		return fmt.Errorf("distribution key shares sum to %d%%, want 100%%", sum)
	}
	return nil
}

// RequiresLocOwner reports whether distributing under this key needs a
// case-owner beneficiary.
func (k DistributionKey) RequiresLocOwner() bool {
	return k.LocOwnerPercent > 0
}

// Schedule is the full fee configuration: unit rates plus one
// distribution key per fee category.
type Schedule struct {
	// FileStorageEntryFee is charged once per stored file entry.
	FileStorageEntryFee id.Balance `json:"file_storage_entry_fee"`
	// FileStorageByteFee is charged per declared byte of file content.
	FileStorageByteFee id.Balance `json:"file_storage_byte_fee"`
	// CertificateFee is charged per unit of token issuance.
	CertificateFee id.Balance `json:"certificate_fee"`

	FileStorageKey         DistributionKey `json:"file_storage_key"`
	CertificateKey         DistributionKey `json:"certificate_key"`
	IdentityLegalFeeKey    DistributionKey `json:"identity_legal_fee_key"`
	TransactionLegalFeeKey DistributionKey `json:"transaction_legal_fee_key"`
	CollectionLegalFeeKey  DistributionKey `json:"collection_legal_fee_key"`
	ValueFeeKey            DistributionKey `json:"value_fee_key"`
	CollectionItemFeeKey   DistributionKey `json:"collection_item_fee_key"`
	TokensRecordFeeKey     DistributionKey `json:"tokens_record_fee_key"`
}

// Validate checks every distribution key. A schedule that fails here is
// a deployment misconfiguration; the server refuses to start.
func (s Schedule) Validate() error {
	keys := map[string]DistributionKey{
		"file_storage":          s.FileStorageKey,
		"certificate":           s.CertificateKey,
		"identity_legal_fee":    s.IdentityLegalFeeKey,
		"transaction_legal_fee": s.TransactionLegalFeeKey,
		"collection_legal_fee":  s.CollectionLegalFeeKey,
		"value_fee":             s.ValueFeeKey,
		"collection_item_fee":   s.CollectionItemFeeKey,
		"tokens_record_fee":     s.TokensRecordFeeKey,
	}
	for name, key := range keys {
		if err := key.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LegalFeeKey resolves the legal-fee distribution key for a case type.
// Each type carries its own key; the identity key doubles as the
// fallback for unknown types.
func (s Schedule) LegalFeeKey(locType models.LocType) DistributionKey {
	switch locType {
	case models.LocTypeTransaction:
		return s.TransactionLegalFeeKey
	case models.LocTypeCollection:
		return s.CollectionLegalFeeKey
	default:
		return s.IdentityLegalFeeKey
	}
}

// StorageFee computes entries×entry_fee + total_bytes×byte_fee.
func (s Schedule) StorageFee(entries uint32, totalBytes uint64) id.Balance {
	return id.Balance(uint64(entries))*s.FileStorageEntryFee + id.Balance(totalBytes)*s.FileStorageByteFee
}

// TokenCertificateFee computes issuance×per_token_fee.
func (s Schedule) TokenCertificateFee(issuance uint64) id.Balance {
	return id.Balance(issuance) * s.CertificateFee
}

// percentOf computes floor(amount×percent/100) without overflowing.
func percentOf(amount id.Balance, percent uint8) id.Balance {
	q := amount / 100
	r := amount % 100
	return q*id.Balance(percent) + r*id.Balance(percent)/100
}
