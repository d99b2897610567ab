package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trip records n consecutive failures and returns the last result.
func trip(b *Breaker, n int) (bool, Change) {
	var (
		fallback bool
		change   Change
	)
	for range n {
		fallback, change = b.RecordFailure()
	}
	return fallback, change
}

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("gateway-relayer")
	assert.Equal(t, "gateway-relayer", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.True(t, b.Allow())
}

func TestBreakerOpening(t *testing.T) {
	t.Run("opens on the threshold failure only", func(t *testing.T) {
		b := New("gateway-relayer", WithFailureThreshold(3))

		fallback, change := trip(b, 2)
		assert.False(t, fallback)
		assert.Equal(t, Change{}, change)

		fallback, change = b.RecordFailure()
		assert.True(t, fallback)
		assert.True(t, change.Opened)
		assert.Equal(t, "open", b.State().String())
	})

	t.Run("interleaved success clears the failure streak", func(t *testing.T) {
		b := New("gateway-relayer", WithFailureThreshold(3))
		trip(b, 2)
		usePrimary, _ := b.RecordSuccess()
		assert.True(t, usePrimary)

		trip(b, 2)
		assert.False(t, b.IsOpen())
		trip(b, 1)
		assert.True(t, b.IsOpen())
	})

	t.Run("failures while open report no new transition", func(t *testing.T) {
		b := New("gateway-relayer", WithFailureThreshold(1))
		trip(b, 1)
		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened)
	})
}

func TestBreakerClosing(t *testing.T) {
	t.Run("needs consecutive successes", func(t *testing.T) {
		b := New("gateway-relayer", WithFailureThreshold(1), WithSuccessThreshold(3))
		trip(b, 1)
		require.True(t, b.IsOpen())

		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		assert.True(t, b.IsOpen(), "a failure restarts the success streak")

		for i := range 3 {
			usePrimary, change := b.RecordSuccess()
			last := i == 2
			assert.Equal(t, last, usePrimary)
			assert.Equal(t, last, change.Closed)
		}
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes immediately", func(t *testing.T) {
		b := New("gateway-relayer", WithFailureThreshold(1))
		trip(b, 1)
		b.Reset()
		assert.Equal(t, StateClosed, b.State())
		assert.True(t, b.Allow())
	})
}

func TestBreakerHalfOpensAfterCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("gateway-relayer",
		WithFailureThreshold(1),
		WithCooldown(time.Second),
		WithClock(func() time.Time { return now }),
	)

	trip(b, 1)
	assert.False(t, b.Allow(), "open breaker rejects during cooldown")

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow(), "first call after cooldown is a trial call")
	assert.False(t, b.Allow(), "only one trial call at a time")

	b.RecordFailure()
	assert.False(t, b.Allow(), "failed trial restarts cooldown")

	now = now.Add(2 * time.Second)
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.True(t, b.Allow(), "a successful trial frees the next trial")
}
