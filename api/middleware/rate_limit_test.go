package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miguelsandoval/storefront-backend/pkg/config"
)

type fakeLimiter struct {
	allowed bool
	err     error
	scopes  []string
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, error) {
	f.scopes = append(f.scopes, scope)
	return f.allowed, 1, f.err
}

func rateLimitedProbe(limiter RateLimiter, enabled bool) (http.Handler, *bool) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	cfg := config.RateLimitConfig{Enabled: enabled, Requests: 10, Window: time.Minute}
	return RateLimit(limiter, cfg, nil)(next), &called
}

func TestRateLimitScopesByCaller(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	handler, _ := rateLimitedProbe(limiter, true)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(WithUserID(req.Context(), "11111111-1111-1111-1111-111111111111"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(WithSessionToken(req.Context(), "guest-token"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, limiter.scopes, 3)
	assert.Equal(t, "user:11111111-1111-1111-1111-111111111111", limiter.scopes[0])
	assert.Equal(t, "session:guest-token", limiter.scopes[1])
	assert.Equal(t, "addr:10.0.0.9", limiter.scopes[2])
}

func TestRateLimitRejectsWhenExhausted(t *testing.T) {
	handler, called := rateLimitedProbe(&fakeLimiter{allowed: false}, true)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, *called)
}

func TestRateLimitFailsOpenOnLimiterError(t *testing.T) {
	handler, called := rateLimitedProbe(&fakeLimiter{err: assert.AnError}, true)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, *called)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	handler, called := rateLimitedProbe(limiter, false)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, *called)
	assert.Empty(t, limiter.scopes)
}
