// Package resilience keeps Parley's external provider calls (speech-to-text,
// LLM completion) from cascading failures. A [CircuitBreaker] trips after
// repeated consecutive failures and rejects calls until a cooldown passes;
// [FallbackGroup] chains several providers of one kind, each behind its own
// breaker, so an unhealthy primary is bypassed in favour of the next backend.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrCircuitOpen] until the reset
	// timeout elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Enough
	// successes close the breaker; any failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a [CircuitBreaker]. Zero fields take defaults.
type CircuitBreakerConfig struct {
	// Name labels the breaker in log output, typically the provider name.
	Name string

	// MaxFailures is how many consecutive failures trip the breaker.
	// Default: 5.
	MaxFailures int

	// ResetTimeout is the cooldown before an open breaker starts probing.
	// Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is how many probe calls the half-open state admits, and how
	// many must succeed for the breaker to close. Default: 3.
	HalfOpenMax int
}

// CircuitBreaker is a three-state breaker guarding one provider backend.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int

	mu         sync.Mutex
	state      State
	failures   int
	lastFail   time.Time
	probes     int
	probeFails int
}

// NewCircuitBreaker creates a closed breaker from cfg, applying defaults for
// zero-valued fields.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
	}
}

// Execute runs fn unless the breaker is rejecting calls, and feeds fn's
// outcome back into the breaker's accounting. The error from fn is returned
// unchanged; a rejected call returns [ErrCircuitOpen] without running fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probing, err := cb.allow()
	if err != nil {
		return err
	}

	err = fn()
	cb.record(err, probing)
	return err
}

// allow decides whether a call may proceed, performing the open→half-open
// transition when the cooldown has passed. It reports whether the admitted
// call is a half-open probe.
func (cb *CircuitBreaker) allow() (probing bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFail) < cb.resetTimeout {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeFails = 0
		slog.Info("circuit breaker half-open, probing", "breaker", cb.name)

	case StateHalfOpen:
		if cb.probes >= cb.halfOpenMax {
			return false, ErrCircuitOpen
		}
	}

	if cb.state == StateHalfOpen {
		cb.probes++
		return true, nil
	}
	return false, nil
}

// record updates the failure accounting after a call finished.
func (cb *CircuitBreaker) record(err error, probing bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if probing && cb.probes-cb.probeFails >= cb.halfOpenMax {
			cb.state = StateClosed
			cb.failures = 0
			slog.Info("circuit breaker closed", "breaker", cb.name)
		}
		if !probing {
			cb.failures = 0
		}
		return
	}

	cb.lastFail = time.Now()
	if probing {
		cb.probeFails++
		cb.state = StateOpen
		cb.failures = cb.maxFailures
		slog.Warn("circuit breaker re-opened after failed probe", "breaker", cb.name)
		return
	}

	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
		slog.Warn("circuit breaker opened",
			"breaker", cb.name, "consecutive_failures", cb.failures)
	}
}

// State returns the breaker's effective state: an open breaker whose cooldown
// has elapsed reports [StateHalfOpen] even though the transition itself
// happens on the next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.lastFail) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed] and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.probeFails = 0
	slog.Info("circuit breaker reset", "breaker", cb.name)
}
