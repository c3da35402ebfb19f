package orderclient

import (
	"sync"
	"time"
)

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

const (
	defaultFailureThreshold         = 5                // Consecutive failures to open the circuit
	defaultOpenStateTimeout         = 30 * time.Second // Time before transitioning from Open to HalfOpen
	defaultHalfOpenSuccessThreshold = 2                // Successes in HalfOpen needed to close the circuit
)

// Breaker guards the single order-creation endpoint. When the backend
// keeps failing order creation, further attempts are rejected locally
// until the open window expires, instead of hammering a dead endpoint.
type Breaker struct {
	mu sync.Mutex

	state                BreakerState
	consecutiveFailures  int
	consecutiveSuccesses int // Used in HalfOpen state
	openUntil            time.Time

	failureThreshold         int
	openStateTimeout         time.Duration
	halfOpenSuccessThreshold int
}

// NewBreaker creates a Breaker with default settings.
func NewBreaker() *Breaker {
	return &Breaker{
		failureThreshold:         defaultFailureThreshold,
		openStateTimeout:         defaultOpenStateTimeout,
		halfOpenSuccessThreshold: defaultHalfOpenSuccessThreshold,
	}
}

// NewBreakerWithSettings creates a Breaker with custom settings.
func NewBreakerWithSettings(failThreshold int, openTimeout time.Duration, halfOpenSuccess int) *Breaker {
	return &Breaker{
		failureThreshold:         failThreshold,
		openStateTimeout:         openTimeout,
		halfOpenSuccessThreshold: halfOpenSuccess,
	}
}

// Allow reports whether a request may go out. It also performs the
// Open -> HalfOpen transition once the open window has expired.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Now().After(b.openUntil) {
			b.state = BreakerHalfOpen
			b.consecutiveSuccesses = 0
			return true
		}
		return false
	case BreakerHalfOpen:
		// Allow probe requests; Record* decides whether the circuit
		// closes or re-opens.
		return true
	default:
		b.state = BreakerClosed
		return true
	}
}

// RecordFailure records a failed order-creation call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.state = BreakerOpen
			b.openUntil = time.Now().Add(b.openStateTimeout)
		}
	case BreakerHalfOpen:
		// A failed probe re-opens the circuit immediately.
		b.state = BreakerOpen
		b.openUntil = time.Now().Add(b.openStateTimeout)
		b.consecutiveFailures = 0
		b.consecutiveSuccesses = 0
	case BreakerOpen:
		// Already open; the window is not extended.
	}
}

// RecordSuccess records a successful order-creation call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.consecutiveFailures = 0
	case BreakerHalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.halfOpenSuccessThreshold {
			b.state = BreakerClosed
			b.consecutiveFailures = 0
			b.consecutiveSuccesses = 0
		}
	case BreakerOpen:
		// Success only matters in Closed or HalfOpen.
	}
}

// State returns the current breaker state for monitoring or tests. It
// does not trigger the Open -> HalfOpen transition; Allow does.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
