package biz

import (
	"sync"
	"time"

	"SignalGate/internal/conf"
	"SignalGate/internal/model"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// CircuitBreakerUseCase is a classic three-state circuit breaker guarding
// the messaging endpoint. State is endpoint-wide and shared across all
// alert keys; all reads and updates happen under one mutex.
//
//	CLOSED    - all calls permitted; consecutive failures are counted
//	OPEN      - calls rejected; after RecoveryTimeout the next CanExecute
//	            lazily transitions to HALF_OPEN
//	HALF_OPEN - exactly one trial call permitted; success closes the
//	            circuit, failure reopens it
type CircuitBreakerUseCase struct {
	mu          sync.Mutex
	state       model.CircuitStateName
	failures    int
	lastFailure time.Time

	failureThreshold int
	recoveryTimeout  time.Duration

	clock  Clock
	logger *pkglog.LogHelper
}

// NewCircuitBreakerUseCase creates a circuit breaker in the CLOSED state.
func NewCircuitBreakerUseCase(cfg *conf.Dispatch, logger log.Logger) *CircuitBreakerUseCase {
	return newCircuitBreaker(cfg, systemClock{}, logger)
}

// newCircuitBreaker allows tests to inject a fake clock.
func newCircuitBreaker(cfg *conf.Dispatch, clock Clock, logger log.Logger) *CircuitBreakerUseCase {
	return &CircuitBreakerUseCase{
		state:            model.CircuitClosed,
		failureThreshold: cfg.FailureThreshold,
		recoveryTimeout:  cfg.RecoveryTimeout,
		clock:            clock,
		logger:           pkglog.NewLogHelper(logger),
	}
}

// CanExecute reports whether a delivery may be attempted.
//
// Note: this check is deliberately side-effecting. When the circuit is
// OPEN and the recovery timeout has elapsed, the check itself transitions
// the breaker to HALF_OPEN and admits the caller as the single trial call.
// While a trial is in flight, further callers are rejected.
func (uc *CircuitBreakerUseCase) CanExecute() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	switch uc.state {
	case model.CircuitClosed:
		return true
	case model.CircuitOpen:
		if uc.clock.Now().Sub(uc.lastFailure) >= uc.recoveryTimeout {
			uc.state = model.CircuitHalfOpen
			uc.logger.Circuit("circuit breaker half-open, admitting trial call",
				"failures", uc.failures)
			return true
		}
		return false
	case model.CircuitHalfOpen:
		// Trial call already in flight
		return false
	}
	return false
}

// RecordSuccess resets the failure counter and closes the circuit.
// Safe to call in any state.
func (uc *CircuitBreakerUseCase) RecordSuccess() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.state == model.CircuitHalfOpen {
		uc.logger.Circuit("circuit breaker recovered, closing circuit")
	}
	uc.state = model.CircuitClosed
	uc.failures = 0
	uc.lastFailure = time.Time{}
}

// RecordFailure counts one failed delivery sequence. Callers must record
// at most one failure per retry sequence, not one per attempt - the
// breaker tracks systemic outages, not transient blips.
func (uc *CircuitBreakerUseCase) RecordFailure() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.lastFailure = uc.clock.Now()

	switch uc.state {
	case model.CircuitHalfOpen:
		// Trial failed: reopen and restart the recovery window
		uc.state = model.CircuitOpen
		uc.failures++
		uc.logger.Circuit("circuit breaker trial failed, reopening circuit",
			"failures", uc.failures)
	case model.CircuitClosed:
		uc.failures++
		if uc.failures >= uc.failureThreshold {
			uc.state = model.CircuitOpen
			uc.logger.Circuit("circuit breaker tripped",
				"failures", uc.failures,
				"threshold", uc.failureThreshold,
				"recovery_timeout", uc.recoveryTimeout)
		}
	case model.CircuitOpen:
		uc.failures++
	}
}

// Snapshot returns a point-in-time view of the breaker for diagnostics.
func (uc *CircuitBreakerUseCase) Snapshot() model.CircuitSnapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	snap := model.CircuitSnapshot{
		State:    uc.state,
		Failures: uc.failures,
	}
	if !uc.lastFailure.IsZero() {
		t := uc.lastFailure
		snap.LastFailure = &t
	}
	return snap
}
