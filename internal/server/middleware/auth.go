package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"SignalGate/internal/conf"
	pkglog "SignalGate/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// Auth returns a middleware enforcing the optional static bearer token.
// When no token is configured the middleware is a pass-through, so local
// development needs no credentials.
func Auth(ac *conf.Auth, logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if ac == nil || ac.Token == "" {
				return handler(ctx, req)
			}

			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			token := strings.TrimPrefix(tr.RequestHeader().Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(ac.Token)) != 1 {
				logger.Warnw("msg", "rejected request with invalid bearer token",
					"token", token,
					"operation", tr.Operation())
				return nil, errors.Unauthorized("UNAUTHORIZED", "invalid or missing bearer token")
			}

			return handler(ctx, req)
		}
	}
}
