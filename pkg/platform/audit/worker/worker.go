package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "cipherledger/pkg/platform/audit"
)

// Sink materializes audit events under their wire id so redelivery is harmless.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Consumer is the slice of *kgo.Client the worker polls.
type Consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// Worker consumes audit envelopes from Kafka and persists them into a Sink.
// Offsets are committed only after a whole fetch has been persisted.
type Worker struct {
	consumer Consumer
	sink     Sink
	logger   *slog.Logger
}

func NewWorker(consumer Consumer, sink Sink, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{consumer: consumer, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches := w.consumer.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := w.processFetches(ctx, fetches); err != nil {
			return err
		}
	}
}

func (w *Worker) processFetches(ctx context.Context, fetches kgo.Fetches) error {
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
			return ctx.Err()
		}
		w.logger.WarnContext(ctx, "audit fetch error",
			"topic", fe.Topic,
			"partition", fe.Partition,
			"error", fe.Err,
		)
	}

	var persistErr error
	fetches.EachRecord(func(r *kgo.Record) {
		if persistErr != nil {
			return
		}
		eventID, event, err := audit.Decode(r.Value)
		if err != nil {
			// Poison messages are logged and skipped so the partition keeps moving.
			w.logger.ErrorContext(ctx, "skipping undecodable audit envelope",
				"topic", r.Topic,
				"offset", r.Offset,
				"error", err,
			)
			return
		}
		if err := w.sink.AppendWithID(ctx, eventID, event); err != nil {
			persistErr = err
		}
	})
	if persistErr != nil {
		return persistErr
	}
	if fetches.NumRecords() == 0 {
		return nil
	}
	return w.consumer.CommitUncommittedOffsets(ctx)
}
