package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "cipherledger/pkg/domain"
)

// Envelope is the JSON form of an Event on the wire (Kafka, outbox rows).
// ID makes redelivered envelopes idempotent at the consumer.
type Envelope struct {
	ID                 string  `json:"id"`
	Category           string  `json:"category"`
	Timestamp          string  `json:"timestamp"`
	Action             string  `json:"action"`
	RecordID           string  `json:"record_id"`
	Actor              string  `json:"actor,omitempty"`
	RequestID          string  `json:"request_id,omitempty"`
	Reason             string  `json:"reason,omitempty"`
	DisclosedValue     *uint64 `json:"disclosed_value,omitempty"`
	ClassificationFlag *bool   `json:"classification_flag,omitempty"`
}

// Encode wraps event in a fresh envelope.
func Encode(event Event) (uuid.UUID, []byte, error) {
	eventID := uuid.New()
	b, err := json.Marshal(Envelope{
		ID:                 eventID.String(),
		Category:           string(event.Category()),
		Timestamp:          event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:             event.Action,
		RecordID:           event.RecordID.String(),
		Actor:              event.Actor.String(),
		RequestID:          event.RequestID,
		Reason:             event.Reason,
		DisclosedValue:     event.DisclosedValue,
		ClassificationFlag: event.ClassificationFlag,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("marshal audit envelope: %w", err)
	}
	return eventID, b, nil
}

// Decode parses an envelope back into its id and event.
func Decode(payload []byte) (uuid.UUID, Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return uuid.Nil, Event{}, fmt.Errorf("unmarshal audit envelope: %w", err)
	}
	eventID, err := uuid.Parse(env.ID)
	if err != nil {
		return uuid.Nil, Event{}, fmt.Errorf("parse audit event id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	if err != nil {
		return uuid.Nil, Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	return eventID, Event{
		Timestamp:          ts,
		Action:             env.Action,
		RecordID:           id.RecordID(env.RecordID),
		Actor:              id.Identity(env.Actor),
		RequestID:          env.RequestID,
		Reason:             env.Reason,
		DisclosedValue:     env.DisclosedValue,
		ClassificationFlag: env.ClassificationFlag,
	}, nil
}
