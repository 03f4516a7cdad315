package portal

import (
	"errors"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CIRCUIT BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// The gateway trips a breaker over consecutive transport failures so a dead
// portal does not cost every caller a full timeout. An open breaker resolves
// to the same synthetic 502 as any other transport failure, so callers still
// see exactly one failure shape.

// breakerState represents the current state of the breaker.
type breakerState int

const (
	// breakerClosed is the normal state - requests are allowed through.
	breakerClosed breakerState = iota
	// breakerOpen is the failure state - requests are blocked.
	breakerOpen
	// breakerHalfOpen allows one probe request to test recovery.
	breakerHalfOpen
)

// errBreakerOpen is returned by allow while the breaker blocks requests.
var errBreakerOpen = errors.New("portal: circuit breaker is open")

// breaker is a minimal consecutive-failure circuit breaker.
type breaker struct {
	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu           sync.Mutex
	state        breakerState
	failures     int
	lastFailure  time.Time
	probeInFlight bool
}

func newBreaker(failureThreshold int, cooldown time.Duration) *breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// allow reports whether a request may proceed, transitioning open → half-open
// once the cooldown has elapsed.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return nil
	case breakerOpen:
		if b.now().Sub(b.lastFailure) < b.cooldown {
			return errBreakerOpen
		}
		b.state = breakerHalfOpen
		b.probeInFlight = true
		return nil
	default: // half-open
		if b.probeInFlight {
			return errBreakerOpen
		}
		b.probeInFlight = true
		return nil
	}
}

// recordSuccess resets the breaker to closed.
func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.failures = 0
	b.probeInFlight = false
}

// recordFailure counts a transport failure and opens the breaker at the
// threshold.
func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	b.probeInFlight = false
	if b.state == breakerHalfOpen || b.failures >= b.failureThreshold {
		b.state = breakerOpen
	}
}
