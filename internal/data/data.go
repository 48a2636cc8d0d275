// Package data provides data access layer implementations: throttle
// record stores, the outbound webhook client and the attempt history.
package data

import (
	"SignalGate/internal/conf"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewThrottleRepo,
	NewWebhookClient,
	NewAttemptHistory,
)

// Data contains data layer dependencies.
type Data struct {
	// redisClient is nil when no Redis address is configured; the
	// in-memory throttle store is used instead.
	redisClient *redis.Client
}

// NewData creates a new Data instance. Redis absence does not prevent
// application startup (graceful degradation to the in-memory store).
func NewData(_ *conf.Data, logger log.Logger, rdb *redis.Client) (*Data, func(), error) {
	helper := pkglog.NewLogHelper(logger)

	if rdb == nil {
		helper.Startup("Redis not configured, throttle state is process-local")
	}

	d := &Data{redisClient: rdb}

	cleanup := func() {
		helper.Info("closing the data resources")
		// Redis cleanup is handled by NewRedisClient's cleanup function
	}

	return d, cleanup, nil
}

// RedisClient returns the Redis client, or nil when Redis is not configured.
func (d *Data) RedisClient() *redis.Client {
	return d.redisClient
}
