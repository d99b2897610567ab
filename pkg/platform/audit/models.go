package audit

import (
	"context"
	"time"

	id "cipherledger/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers ledger state transitions. These are the
	// trust log itself and must never be sampled.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected proofs and replay attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine reads and short-circuits.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventRecordCreated      AuditEvent = "record_created"
	EventRecordVerified     AuditEvent = "record_verified"
	EventDisclosureReplayed AuditEvent = "disclosure_replayed"
	EventProofRejected      AuditEvent = "proof_rejected"
	EventSubmissionRejected AuditEvent = "submission_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRecordCreated:      CategoryCompliance,
	EventRecordVerified:     CategoryCompliance,
	EventProofRejected:      CategorySecurity,
	EventSubmissionRejected: CategorySecurity,
	EventDisclosureReplayed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    string
	RecordID  id.RecordID
	// Actor is the caller identity that performed the action.
	Actor     id.Identity
	RequestID string
	Reason    string
	// Set only for EventRecordVerified.
	DisclosedValue     *uint64
	ClassificationFlag *bool
}

// Category derives the category from the action.
func (e Event) Category() EventCategory {
	return AuditEvent(e.Action).Category()
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]Event, error)
}

// Emitter is what services depend on. Publishers and sinks implement it.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
