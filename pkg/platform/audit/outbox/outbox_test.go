package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "cipherledger/pkg/platform/audit"
)

var errBroker = errors.New("kafka: broker unreachable")

type sink struct {
	mu       sync.Mutex
	failures int
	attempts int
	events   []audit.Event
}

func (s *sink) Emit(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures != 0 {
		s.failures--
		return errBroker
	}
	s.events = append(s.events, event)
	return nil
}

func (s *sink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func zero() Option {
	return WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func event(action string) audit.Event {
	return audit.Event{Action: action, RecordID: "email-1"}
}

func TestEmitDeliversDirectly(t *testing.T) {
	s := &sink{}
	box := New(s, quiet(), zero())
	defer box.Close()

	require.NoError(t, box.Emit(context.Background(), event(string(audit.EventRecordCreated))))
	assert.Equal(t, 1, s.delivered())
	assert.Zero(t, box.Pending())
}

func TestFailedEmitIsRedelivered(t *testing.T) {
	s := &sink{failures: 3}
	box := New(s, quiet(), zero())
	defer box.Close()

	require.NoError(t, box.Emit(context.Background(), event(string(audit.EventRecordVerified))))
	assert.Eventually(t, func() bool { return s.delivered() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 4, s.attempts)
	assert.Equal(t, string(audit.EventRecordVerified), s.events[0].Action)
}

func TestFullOutboxReportsTheFailure(t *testing.T) {
	s := &sink{failures: -1}
	box := New(s, quiet(), WithCapacity(1),
		WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Hour) }),
	)

	// the worker holds the first event while it waits to retry
	require.NoError(t, box.Emit(context.Background(), event("first")))
	require.Eventually(t, func() bool { return box.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, box.Emit(context.Background(), event("second")))

	err := box.Emit(context.Background(), event("third"))
	assert.ErrorIs(t, err, ErrFull)
	assert.ErrorIs(t, err, errBroker)

	box.Close()
	err = box.Emit(context.Background(), event("fourth"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, s.delivered())
}

func TestCloseIsIdempotent(t *testing.T) {
	box := New(&sink{}, quiet())
	box.Close()
	box.Close()
}
