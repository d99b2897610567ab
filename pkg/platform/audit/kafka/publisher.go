// Package kafka publishes audit events to a Kafka topic, keyed by record id so
// every event of one record lands on the same partition in order.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "cipherledger/pkg/platform/audit"
)

// Producer is the slice of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	eventID, payload, err := audit.Encode(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.RecordID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(eventID.String())},
			{Key: "category", Value: []byte(event.Category())},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
