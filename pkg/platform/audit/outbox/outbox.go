// Package outbox redelivers audit events whose first emit failed. It sits in
// front of a sink that is not part of the ledger's transaction (the Kafka
// stream for memory and redis ledgers), so a committed mutation never waits
// on, or fails because of, that sink.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	audit "cipherledger/pkg/platform/audit"
)

const attemptTimeout = 10 * time.Second

var (
	ErrFull   = errors.New("audit outbox full")
	ErrClosed = errors.New("audit outbox closed")
)

type Outbox struct {
	next       audit.Emitter
	logger     *slog.Logger
	newBackOff func() backoff.BackOff

	mu     sync.RWMutex
	closed bool
	queue  chan audit.Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Outbox)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Outbox) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCapacity bounds the number of events awaiting redelivery.
func WithCapacity(n int) Option {
	return func(o *Outbox) {
		if n > 0 {
			o.queue = make(chan audit.Event, n)
		}
	}
}

// WithBackOff sets the redelivery schedule for each queued event.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(o *Outbox) {
		if f != nil {
			o.newBackOff = f
		}
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

func New(next audit.Emitter, opts ...Option) *Outbox {
	o := &Outbox{
		next:       next,
		logger:     slog.Default(),
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.queue == nil {
		o.queue = make(chan audit.Event, 1024)
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.wg.Add(1)
	go o.run()
	return o
}

// Emit tries the sink once. A failed event is queued for redelivery and Emit
// returns nil; only a full or closed outbox reports an error.
func (o *Outbox) Emit(ctx context.Context, event audit.Event) error {
	err := o.next.Emit(ctx, event)
	if err == nil {
		return nil
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return errors.Join(ErrClosed, err)
	}
	select {
	case o.queue <- event:
		o.logger.WarnContext(ctx, "audit emit failed, queued for redelivery",
			"action", event.Action,
			"record_id", event.RecordID,
			"error", err,
		)
		return nil
	default:
		return errors.Join(ErrFull, err)
	}
}

// Pending reports how many events await redelivery.
func (o *Outbox) Pending() int {
	return len(o.queue)
}

// Close stops redelivery. Queued events get one last attempt.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.cancel()
	close(o.queue)
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Outbox) run() {
	defer o.wg.Done()
	for event := range o.queue {
		op := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
			defer cancel()
			return o.next.Emit(ctx, event)
		}
		notify := func(err error, wait time.Duration) {
			o.logger.Warn("audit redelivery failed",
				"action", event.Action,
				"record_id", event.RecordID,
				"retry_in", wait,
				"error", err,
			)
		}
		if err := backoff.RetryNotify(op, backoff.WithContext(o.newBackOff(), o.ctx), notify); err != nil {
			o.logger.Error("audit event dropped",
				"action", event.Action,
				"record_id", event.RecordID,
				"error", err,
			)
		}
	}
}
