package main

import (
	"context"
	"time"

	"SignalGate/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// StartCleanupCron starts the hourly sweep that purges expired throttle
// records. Expiry is also checked lazily on every lookup; the sweep only
// keeps memory bounded during long quiet periods.
func StartCleanupCron(throttler *biz.ThrottlerUseCase, logger log.Logger) (*cron.Cron, func()) {
	helper := log.NewHelper(logger)

	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed := throttler.CleanupExpired(ctx)
		helper.Infow("msg", "throttle cleanup sweep completed", "removed", removed)
	})

	if err != nil {
		helper.Errorw("msg", "failed to register cleanup cron job", "error", err)
		return c, func() {}
	}

	c.Start()
	helper.Info("throttle cleanup cron job started: runs hourly")

	return c, func() {
		c.Stop()
	}
}
