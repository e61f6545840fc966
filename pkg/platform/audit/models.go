// Package audit defines the events emitted by registry operations. Keep
// the event transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"

	id "locregistry/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: case
	// lifecycle transitions and fee settlements. These require long
	// retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging
	// and operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	LocID     string        `json:"loc_id,omitempty"`
	Actor     string        `json:"actor,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	FeeKind   string        `json:"fee_kind,omitempty"`
	Amount    id.Balance    `json:"amount,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

type AuditEvent string

const (
	// Lifecycle events
	EventLocCreated  AuditEvent = "loc_created"
	EventLocClosed   AuditEvent = "loc_closed"
	EventLocVoided   AuditEvent = "loc_voided"
	EventLocImported AuditEvent = "loc_imported"

	// Item events
	EventMetadataAdded       AuditEvent = "metadata_added"
	EventFileAdded           AuditEvent = "file_added"
	EventLinkAdded           AuditEvent = "link_added"
	EventItemAcknowledged    AuditEvent = "item_acknowledged"
	EventCollectionItemAdded AuditEvent = "collection_item_added"
	EventTokensRecordAdded   AuditEvent = "tokens_record_added"

	// Fee events
	EventFeeDistributed   AuditEvent = "fee_distributed"
	EventValueFeeReserved AuditEvent = "value_fee_reserved"
	EventValueFeeReleased AuditEvent = "value_fee_released"

	// Delegation events
	EventIssuerNominated             AuditEvent = "issuer_nominated"
	EventIssuerDismissed             AuditEvent = "issuer_dismissed"
	EventIssuerSelectionUpdated      AuditEvent = "issuer_selection_updated"
	EventContributorSelectionUpdated AuditEvent = "contributor_selection_updated"
	EventSponsorshipCreated          AuditEvent = "sponsorship_created"
	EventSponsorshipWithdrawn        AuditEvent = "sponsorship_withdrawn"
)

// eventCategories maps each audit event to its category. Lifecycle and
// money movements are compliance; the rest is operations.
var eventCategories = map[AuditEvent]EventCategory{
	EventLocCreated:  CategoryCompliance,
	EventLocClosed:   CategoryCompliance,
	EventLocVoided:   CategoryCompliance,
	EventLocImported: CategoryCompliance,

	EventFeeDistributed:   CategoryCompliance,
	EventValueFeeReserved: CategoryCompliance,
	EventValueFeeReleased: CategoryCompliance,

	EventMetadataAdded:       CategoryOperations,
	EventFileAdded:           CategoryOperations,
	EventLinkAdded:           CategoryOperations,
	EventItemAcknowledged:    CategoryOperations,
	EventCollectionItemAdded: CategoryOperations,
	EventTokensRecordAdded:   CategoryOperations,

	EventIssuerNominated:             CategoryOperations,
	EventIssuerDismissed:             CategoryOperations,
	EventIssuerSelectionUpdated:      CategoryOperations,
	EventContributorSelectionUpdated: CategoryOperations,
	EventSponsorshipCreated:          CategoryOperations,
	EventSponsorshipWithdrawn:        CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher emits audit events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}
