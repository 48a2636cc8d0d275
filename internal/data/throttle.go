package data

import (
	"context"
	"time"

	"SignalGate/internal/conf"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

// reservationTTL bounds how long a pending admission may block a key.
// A delivery sequence that crashes without MarkSent or Release must not
// pin its key forever.
const reservationTTL = 2 * time.Minute

// ThrottleRepo implements the throttle record store (interface defined in
// biz layer). It delegates to the Redis-backed store when Redis is
// configured, letting multiple replicas share cooldown and dedup state;
// otherwise it uses the process-local in-memory store.
type ThrottleRepo struct {
	mem *memoryThrottle
	rds *redisThrottle
}

// NewThrottleRepo creates a throttle repository backed by Redis when
// available, in-memory otherwise.
func NewThrottleRepo(cfg *conf.Dispatch, d *Data, logger log.Logger) *ThrottleRepo {
	helper := pkglog.NewLogHelper(logger)

	r := &ThrottleRepo{}
	if rdb := d.RedisClient(); rdb != nil {
		helper.Startup("using shared Redis throttle store")
		r.rds = newRedisThrottle(rdb, logger)
	} else {
		r.mem = newMemoryThrottle(cfg.MaxEntries)
	}
	return r
}

// LastKeySend returns when the key was last sent, if recorded.
func (r *ThrottleRepo) LastKeySend(ctx context.Context, key string) (time.Time, bool, error) {
	if r.rds != nil {
		return r.rds.LastKeySend(ctx, key)
	}
	return r.mem.LastKeySend(key)
}

// LastFingerprintSend returns when the fingerprint was last sent, if recorded.
func (r *ThrottleRepo) LastFingerprintSend(ctx context.Context, fp string) (time.Time, bool, error) {
	if r.rds != nil {
		return r.rds.LastFingerprintSend(ctx, fp)
	}
	return r.mem.LastFingerprintSend(fp)
}

// TryReserve atomically checks the key's cooldown and marks it pending.
func (r *ThrottleRepo) TryReserve(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	if r.rds != nil {
		return r.rds.TryReserve(ctx, key, cooldown)
	}
	return r.mem.TryReserve(key, cooldown)
}

// Release drops a pending reservation.
func (r *ThrottleRepo) Release(ctx context.Context, key string) error {
	if r.rds != nil {
		return r.rds.Release(ctx, key)
	}
	return r.mem.Release(key)
}

// MarkSent records send timestamps for key and fingerprint.
func (r *ThrottleRepo) MarkSent(ctx context.Context, key, fp string, keyTTL, fpTTL time.Duration) error {
	if r.rds != nil {
		return r.rds.MarkSent(ctx, key, fp, keyTTL, fpTTL)
	}
	return r.mem.MarkSent(key, fp, keyTTL, fpTTL)
}

// CleanupExpired removes stale records.
func (r *ThrottleRepo) CleanupExpired(ctx context.Context) (int, error) {
	if r.rds != nil {
		return r.rds.CleanupExpired(ctx)
	}
	return r.mem.CleanupExpired()
}

// EntryCount returns the number of stored throttle records.
func (r *ThrottleRepo) EntryCount(ctx context.Context) (int, error) {
	if r.rds != nil {
		return r.rds.EntryCount(ctx)
	}
	return r.mem.EntryCount()
}
