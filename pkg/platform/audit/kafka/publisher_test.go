package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "cipherledger/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestPublisher_Emit(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewPublisher(producer, "ledger.audit")

	value := uint64(73)
	flag := true
	err := pub.Emit(context.Background(), audit.Event{
		Action:             string(audit.EventRecordVerified),
		RecordID:           "email-1",
		Actor:              "0xabc",
		DisclosedValue:     &value,
		ClassificationFlag: &flag,
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "ledger.audit", rec.Topic)
	assert.Equal(t, []byte("email-1"), rec.Key)

	_, decoded, err := audit.Decode(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, string(audit.EventRecordVerified), decoded.Action)
	require.NotNil(t, decoded.DisclosedValue)
	assert.Equal(t, uint64(73), *decoded.DisclosedValue)
	require.NotNil(t, decoded.ClassificationFlag)
	assert.True(t, *decoded.ClassificationFlag)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestPublisher_EmitPropagatesProduceError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker gone")}
	pub := NewPublisher(producer, "ledger.audit")

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventRecordCreated), RecordID: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
}
