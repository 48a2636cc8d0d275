package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Key prefixes for the shared throttle store.
const (
	redisKeyPrefix     = "signalgate:throttle:key:"
	redisFpPrefix      = "signalgate:throttle:fp:"
	redisPendingPrefix = "signalgate:throttle:pending:"
)

// redisThrottle is the Redis-backed throttle store. Retention is
// TTL-native: cooldown and dedup windows are expressed as key TTLs, so
// Redis evicts stale records itself and CleanupExpired is a no-op.
type redisThrottle struct {
	rdb    *redis.Client
	logger *log.Helper
}

func newRedisThrottle(rdb *redis.Client, logger log.Logger) *redisThrottle {
	return &redisThrottle{
		rdb:    rdb,
		logger: log.NewHelper(logger),
	}
}

// LastKeySend returns the key's last send time. A live record implies the
// cooldown window is still open, since the record's TTL is the cooldown.
func (r *redisThrottle) LastKeySend(ctx context.Context, key string) (time.Time, bool, error) {
	return r.getTimestamp(ctx, redisKeyPrefix+key)
}

// LastFingerprintSend returns the fingerprint's last send time.
func (r *redisThrottle) LastFingerprintSend(ctx context.Context, fp string) (time.Time, bool, error) {
	return r.getTimestamp(ctx, redisFpPrefix+fp)
}

func (r *redisThrottle) getTimestamp(ctx context.Context, redisKey string) (time.Time, bool, error) {
	ts, err := r.rdb.Get(ctx, redisKey).Int64()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get throttle record %s: %w", redisKey, err)
	}
	return time.Unix(ts, 0), true, nil
}

// TryReserve checks the cooldown record and places the reservation with
// SETNX. The two steps are not one transaction; SETNX alone guarantees a
// single winner among racing callers, which is the invariant that matters.
func (r *redisThrottle) TryReserve(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	exists, err := r.rdb.Exists(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cooldown for %s: %w", key, err)
	}
	if exists > 0 {
		return false, nil
	}

	ok, err := r.rdb.SetNX(ctx, redisPendingPrefix+key, time.Now().Unix(), reservationTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve key %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a pending reservation.
func (r *redisThrottle) Release(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, redisPendingPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release reservation for %s: %w", key, err)
	}
	return nil
}

// MarkSent records send timestamps with their retention windows as TTLs
// and clears the reservation.
func (r *redisThrottle) MarkSent(ctx context.Context, key, fp string, keyTTL, fpTTL time.Duration) error {
	now := time.Now().Unix()

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+key, now, keyTTL)
		pipe.Set(ctx, redisFpPrefix+fp, now, fpTTL)
		pipe.Del(ctx, redisPendingPrefix+key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark %s as sent: %w", key, err)
	}
	return nil
}

// CleanupExpired is a no-op: Redis expires records via TTL.
func (r *redisThrottle) CleanupExpired(_ context.Context) (int, error) {
	return 0, nil
}

// EntryCount approximates the stored record count with DBSIZE. The
// service owns its Redis database, so the approximation only drifts by
// the handful of pending reservations.
func (r *redisThrottle) EntryCount(ctx context.Context) (int, error) {
	n, err := r.rdb.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count throttle records: %w", err)
	}
	return int(n), nil
}
