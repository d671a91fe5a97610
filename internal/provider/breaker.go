package provider

import (
	"sync"
	"time"
)

// CircuitBreaker stops outbound provider calls for a cooldown period after a
// call exhausts its retry budget. State is owned by the instance, not a
// package variable, so tests and multiple clients can hold independent
// breakers.
type CircuitBreaker struct {
	mu       sync.Mutex
	cooldown time.Duration
	open     bool
	openedAt time.Time
	now      func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given cooldown
func NewCircuitBreaker(cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Allow reports whether a call may proceed. While the breaker is open and the
// cooldown has not elapsed it returns false. Once the cooldown elapses the
// breaker closes optimistically and the call proceeds as a half-open retry.
// Check and state change happen under one lock acquisition.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}

	// Cooldown elapsed: half-open retry.
	b.open = false
	return true
}

// Trip opens the breaker, recording the current time
func (b *CircuitBreaker) Trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	b.openedAt = b.now()
}

// Reset closes the breaker regardless of state. Intended for tests.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.openedAt = time.Time{}
}
