package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	t.Run("ClosedAllowsCalls", func(t *testing.T) {
		b := NewCircuitBreaker(30 * time.Second)
		assert.True(t, b.Allow())
		assert.True(t, b.Allow())
	})

	t.Run("TripBlocksUntilCooldownElapses", func(t *testing.T) {
		current := time.Unix(1000, 0)
		b := NewCircuitBreaker(30 * time.Second)
		b.now = func() time.Time { return current }

		b.Trip()
		assert.False(t, b.Allow())

		current = current.Add(29 * time.Second)
		assert.False(t, b.Allow())

		current = current.Add(2 * time.Second)
		assert.True(t, b.Allow(), "cooldown elapsed, half-open retry allowed")
	})

	t.Run("HalfOpenRetryClosesBreaker", func(t *testing.T) {
		current := time.Unix(1000, 0)
		b := NewCircuitBreaker(time.Second)
		b.now = func() time.Time { return current }

		b.Trip()
		current = current.Add(2 * time.Second)

		assert.True(t, b.Allow())
		// Closed again: subsequent calls pass without waiting.
		assert.True(t, b.Allow())
	})

	t.Run("RetripRestartsCooldown", func(t *testing.T) {
		current := time.Unix(1000, 0)
		b := NewCircuitBreaker(10 * time.Second)
		b.now = func() time.Time { return current }

		b.Trip()
		current = current.Add(6 * time.Second)
		b.Trip()
		current = current.Add(6 * time.Second)

		assert.False(t, b.Allow(), "second trip restarted the cooldown window")
	})

	t.Run("ResetClosesImmediately", func(t *testing.T) {
		b := NewCircuitBreaker(time.Hour)
		b.Trip()
		assert.False(t, b.Allow())

		b.Reset()
		assert.True(t, b.Allow())
	})
}
