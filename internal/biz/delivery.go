package biz

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"SignalGate/internal/conf"
	"SignalGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// CircuitOpenError is returned when the breaker rejects a delivery without
// attempting the network call. Callers should treat it as a delivery
// failure but must not retry immediately: the breaker already encodes
// backoff at the system level.
type CircuitOpenError struct{}

func (e *CircuitOpenError) Error() string {
	return "circuit breaker open: delivery rejected"
}

// NonRetryableDeliveryError is surfaced immediately without retry, e.g. a
// 404 from a misconfigured endpoint URL.
type NonRetryableDeliveryError struct {
	StatusCode int
}

func (e *NonRetryableDeliveryError) Error() string {
	return fmt.Sprintf("non-retryable delivery error: status %d", e.StatusCode)
}

// DeliveryExhaustedError is surfaced after all retry attempts failed.
type DeliveryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *DeliveryExhaustedError) Error() string {
	return fmt.Sprintf("delivery failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *DeliveryExhaustedError) Unwrap() error { return e.Last }

// WebhookSender performs one HTTP call to the messaging endpoint.
// A non-nil error means the call never produced an HTTP status
// (transport failure, timeout, connection refused).
type WebhookSender interface {
	Send(ctx context.Context, payload *model.WebhookPayload) (*model.DeliveryResponse, error)
}

// AttemptRecorder receives the ephemeral record of each HTTP call.
type AttemptRecorder interface {
	Record(attempt *model.DeliveryAttempt)
}

// DeliveryUseCase performs webhook delivery with bounded retries and
// exponential backoff, consulting the circuit breaker before the sequence
// and reporting the sequence outcome back to it.
//
// Per-call retry recovers from transient blips; the breaker detects
// systemic outages across calls. The breaker is therefore charged once
// per exhausted sequence, never once per attempt.
type DeliveryUseCase struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	breaker *CircuitBreakerUseCase
	sender  WebhookSender
	history AttemptRecorder
	clock   Clock
	sleeper Sleeper
	logger  *log.Helper
}

// NewDeliveryUseCase creates a new delivery use case.
func NewDeliveryUseCase(cfg *conf.Dispatch, breaker *CircuitBreakerUseCase, sender WebhookSender, history AttemptRecorder, logger log.Logger) *DeliveryUseCase {
	return &DeliveryUseCase{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		breaker:    breaker,
		sender:     sender,
		history:    history,
		clock:      systemClock{},
		sleeper:    systemSleeper{},
		logger:     log.NewHelper(logger),
	}
}

// Send delivers the payload, retrying retryable failures up to the
// configured limit. Returns the number of attempts made and nil on
// success, or one of the typed delivery errors.
func (uc *DeliveryUseCase) Send(ctx context.Context, payload *model.WebhookPayload) (int, error) {
	if !uc.breaker.CanExecute() {
		return 0, &CircuitOpenError{}
	}

	var lastErr error
	var retryAfter time.Duration

	for attempt := 1; attempt <= uc.maxRetries; attempt++ {
		if attempt > 1 {
			delay := uc.backoffDelay(attempt - 1)
			if retryAfter > 0 {
				// Endpoint told us when to come back; trust it over backoff
				delay = retryAfter
				if delay > uc.maxDelay {
					delay = uc.maxDelay
				}
				retryAfter = 0
			}
			if err := uc.sleeper.Sleep(ctx, delay); err != nil {
				uc.breaker.RecordFailure()
				return attempt - 1, &DeliveryExhaustedError{Attempts: attempt - 1, Last: err}
			}
		}

		start := uc.clock.Now()
		resp, err := uc.sender.Send(ctx, payload)
		uc.recordAttempt(attempt, resp, err, start)

		if err != nil {
			// Transport/timeout/connect error: retryable
			uc.logger.Warnw("msg", "webhook delivery attempt failed",
				"attempt", attempt, "error", err.Error())
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			uc.breaker.RecordSuccess()
			return attempt, nil

		case resp.StatusCode == http.StatusNotFound:
			// Configuration/routing error, not transient: stop immediately
			uc.logger.Errorw("msg", "webhook endpoint not found, check endpoint URL",
				"status", resp.StatusCode)
			uc.breaker.RecordFailure()
			return attempt, &NonRetryableDeliveryError{StatusCode: resp.StatusCode}

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter = resp.RetryAfter
			lastErr = fmt.Errorf("endpoint rate limited (status 429)")
			uc.logger.Warnw("msg", "webhook endpoint rate limited",
				"attempt", attempt, "retry_after", retryAfter)

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("endpoint server error (status %d)", resp.StatusCode)
			uc.logger.Warnw("msg", "webhook delivery attempt failed",
				"attempt", attempt, "status", resp.StatusCode)

		default:
			// Other 4xx: likely a payload or schema defect on our side.
			// Still retried, but logged distinctly so it stands out.
			lastErr = fmt.Errorf("endpoint client error (status %d)", resp.StatusCode)
			uc.logger.Errorw("msg", "webhook rejected payload, possible schema defect",
				"attempt", attempt, "status", resp.StatusCode)
		}
	}

	// One failure record per exhausted sequence, not one per attempt
	uc.breaker.RecordFailure()
	return uc.maxRetries, &DeliveryExhaustedError{Attempts: uc.maxRetries, Last: lastErr}
}

// backoffDelay computes the delay before the (retry+1)-th attempt:
// min(base * 2^(retry-1), max). The first retry waits the base delay.
func (uc *DeliveryUseCase) backoffDelay(retry int) time.Duration {
	d := uc.baseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= uc.maxDelay {
			return uc.maxDelay
		}
	}
	if d > uc.maxDelay {
		d = uc.maxDelay
	}
	return d
}

// recordAttempt pushes the ephemeral attempt record into the bounded
// diagnostics history.
func (uc *DeliveryUseCase) recordAttempt(attempt int, resp *model.DeliveryResponse, err error, start time.Time) {
	rec := &model.DeliveryAttempt{
		Attempt:   attempt,
		Duration:  uc.clock.Now().Sub(start),
		Timestamp: start,
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		rec.StatusCode = resp.StatusCode
		rec.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	uc.history.Record(rec)
}
