package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/miguelsandoval/storefront-backend/api/responses"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

// RateLimiter is the throttle surface the middleware needs; pkg/redis
// satisfies it with a fixed-window counter.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (allowed bool, count int64, err error)
}

// RateLimit throttles requests per caller. It runs behind Identity so the
// scope is the user id or guest session token; anonymous probes fall back to
// the peer address. A limiter outage fails open: dropping traffic because
// redis blinked would be worse than briefly not throttling.
func RateLimit(limiter RateLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			allowed, count, err := limiter.FixedWindowAllow(ctx, limitScope(r), cfg.Requests, cfg.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate limiter unavailable, failing open")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					ctx = logg.WithField(ctx, "count", count)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimited, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitScope(r *http.Request) string {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID
	}
	if token := SessionTokenFromContext(r.Context()); token != "" {
		return "session:" + token
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "addr:" + r.RemoteAddr
	}
	return "addr:" + host
}
