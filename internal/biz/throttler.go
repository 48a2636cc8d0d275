package biz

import (
	"context"
	"fmt"
	"time"

	"SignalGate/internal/conf"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// Throttle suppression reasons carried by ThrottledError.
const (
	ThrottleReasonCooldown  = "cooldown"
	ThrottleReasonDuplicate = "duplicate"
	ThrottleReasonPending   = "pending"
)

// ThrottledError reports a deliberate suppression. It is not a failure:
// it is never retried and never escalated.
type ThrottledError struct {
	Key        string
	Reason     string // "cooldown", "duplicate" or "pending"
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *ThrottledError) Error() string {
	return fmt.Sprintf("alert throttled: key=%s reason=%s retry_after=%s",
		e.Key, e.Reason, e.RetryAfter.Round(time.Second))
}

// ThrottleRepo defines the storage interface for throttle records.
// Implementations must be safe for concurrent use. TryReserve is the
// atomicity point for admission: it must verify the cooldown and place
// the pending reservation under a single critical section.
type ThrottleRepo interface {
	// LastKeySend returns when the key was last sent, if recorded.
	LastKeySend(ctx context.Context, key string) (time.Time, bool, error)

	// LastFingerprintSend returns when the fingerprint was last sent, if recorded.
	LastFingerprintSend(ctx context.Context, fp string) (time.Time, bool, error)

	// TryReserve atomically checks the key's cooldown and marks it pending.
	// Returns false when the key is cooling down or already reserved.
	TryReserve(ctx context.Context, key string, cooldown time.Duration) (bool, error)

	// Release drops a pending reservation after a failed delivery.
	Release(ctx context.Context, key string) error

	// MarkSent records send timestamps for key and fingerprint with their
	// respective retention windows, clearing any pending reservation.
	MarkSent(ctx context.Context, key, fp string, keyTTL, fpTTL time.Duration) error

	// CleanupExpired removes stale records and returns how many were evicted.
	CleanupExpired(ctx context.Context) (int, error)

	// EntryCount returns the number of stored throttle records.
	EntryCount(ctx context.Context) (int, error)
}

// ThrottlerUseCase decides, per alert key and per content fingerprint,
// whether an alert may proceed to delivery. Cooldowns are per alert type;
// deduplication uses one global window across all keys.
//
// Store degradation: on store failure, checks log a warning and admit the
// alert (graceful degradation) - a duplicate notification is preferable to
// a silently dropped one.
type ThrottlerUseCase struct {
	cfg        *conf.Dispatch
	repo       ThrottleRepo
	classifier *Classifier
	clock      Clock
	logger     *pkglog.LogHelper
}

// NewThrottlerUseCase creates a new throttler use case.
func NewThrottlerUseCase(cfg *conf.Dispatch, repo ThrottleRepo, classifier *Classifier, logger log.Logger) *ThrottlerUseCase {
	return &ThrottlerUseCase{
		cfg:        cfg,
		repo:       repo,
		classifier: classifier,
		clock:      systemClock{},
		logger:     pkglog.NewLogHelper(logger),
	}
}

// ShouldSend reports whether an alert for key/content would currently be
// admitted. It has no side effects; concurrent callers that need admission
// must use Admit, which reserves the key atomically.
func (uc *ThrottlerUseCase) ShouldSend(ctx context.Context, key, alertType, content string) bool {
	return uc.check(ctx, key, alertType, content) == nil
}

// Admit checks cooldown and deduplication, then atomically reserves the
// key so concurrent callers racing on the same key cannot both be
// admitted. Returns nil when the alert may proceed, or a *ThrottledError
// describing the suppression.
//
// The caller must follow up with MarkSent after a confirmed delivery or
// Release after a failed one - a leaked reservation suppresses the key
// until the reservation expires.
func (uc *ThrottlerUseCase) Admit(ctx context.Context, key, alertType, content string) error {
	if err := uc.check(ctx, key, alertType, content); err != nil {
		return err
	}

	cooldown := uc.cfg.CooldownFor(alertType)
	ok, err := uc.repo.TryReserve(ctx, key, cooldown)
	if err != nil {
		// Store failure: log warning and admit (graceful degradation)
		uc.logger.Warnf("throttle reserve failed for key %s: %v (alert admitted)", key, err)
		return nil
	}
	if !ok {
		uc.logger.Throttle("alert suppressed by pending reservation", "key", key)
		return &ThrottledError{Key: key, Reason: ThrottleReasonPending, RetryAfter: cooldown}
	}

	return nil
}

// check runs the cooldown and dedup lookups without reserving anything.
func (uc *ThrottlerUseCase) check(ctx context.Context, key, alertType, content string) error {
	now := uc.clock.Now()
	cooldown := uc.cfg.CooldownFor(alertType)

	last, found, err := uc.repo.LastKeySend(ctx, key)
	if err != nil {
		uc.logger.Warnf("throttle key lookup failed for %s: %v (alert admitted)", key, err)
	} else if found {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return &ThrottledError{
				Key:        key,
				Reason:     ThrottleReasonCooldown,
				RetryAfter: cooldown - elapsed,
			}
		}
	}

	fp := uc.classifier.Fingerprint(content)
	last, found, err = uc.repo.LastFingerprintSend(ctx, fp)
	if err != nil {
		uc.logger.Warnf("throttle fingerprint lookup failed for %s: %v (alert admitted)", key, err)
	} else if found {
		if elapsed := now.Sub(last); elapsed < uc.cfg.DedupWindow {
			return &ThrottledError{
				Key:        key,
				Reason:     ThrottleReasonDuplicate,
				RetryAfter: uc.cfg.DedupWindow - elapsed,
			}
		}
	}

	return nil
}

// MarkSent records the current time against both the alert key and the
// content fingerprint. Call only after a confirmed successful delivery:
// marking throttled-and-skipped attempts degrades throttling into
// permanent suppression.
func (uc *ThrottlerUseCase) MarkSent(ctx context.Context, key, alertType, content string) {
	cooldown := uc.cfg.CooldownFor(alertType)
	fp := uc.classifier.Fingerprint(content)

	if err := uc.repo.MarkSent(ctx, key, fp, cooldown, uc.cfg.DedupWindow); err != nil {
		// Best-effort: a lost record means one possible early duplicate
		uc.logger.Warnf("failed to mark key %s as sent: %v", key, err)
	}
}

// Release drops the pending reservation for a key after a failed delivery,
// so the next admitted attempt can still try.
func (uc *ThrottlerUseCase) Release(ctx context.Context, key string) {
	if err := uc.repo.Release(ctx, key); err != nil {
		uc.logger.Warnf("failed to release reservation for key %s: %v", key, err)
	}
}

// CleanupExpired removes throttle records older than their retention
// window. Invoked hourly by the cron job; the stores additionally evict
// lazily on lookup.
func (uc *ThrottlerUseCase) CleanupExpired(ctx context.Context) int {
	removed, err := uc.repo.CleanupExpired(ctx)
	if err != nil {
		uc.logger.Warnf("throttle cleanup failed: %v", err)
		return 0
	}
	if removed > 0 {
		uc.logger.Throttle("throttle cleanup completed", "removed", removed)
	}
	return removed
}

// EntryCount returns the number of stored throttle records, for the
// stats endpoint.
func (uc *ThrottlerUseCase) EntryCount(ctx context.Context) int {
	n, err := uc.repo.EntryCount(ctx)
	if err != nil {
		uc.logger.Warnf("throttle entry count failed: %v", err)
		return 0
	}
	return n
}
