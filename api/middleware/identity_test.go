package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/miguelsandoval/storefront-backend/pkg/auth"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

func identityProbe(t *testing.T) (http.Handler, *struct {
	userID  string
	role    string
	session string
	called  bool
}) {
	t.Helper()
	seen := &struct {
		userID  string
		role    string
		session string
		called  bool
	}{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.called = true
		seen.userID = UserIDFromContext(r.Context())
		seen.role = RoleFromContext(r.Context())
		seen.session = SessionTokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return Identity(testJWTConfig, nil)(next), seen
}

func TestIdentityMintsAndEchoesSessionToken(t *testing.T) {
	handler, seen := identityProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.True(t, seen.called)
	echoed := w.Header().Get("X-Session-Id")
	require.NotEmpty(t, echoed)
	_, err := uuid.Parse(echoed)
	require.NoError(t, err)
	assert.Equal(t, echoed, seen.session)
	assert.Empty(t, seen.userID)
}

func TestIdentityReusesProvidedSessionToken(t *testing.T) {
	handler, seen := identityProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("X-Session-Id", "existing-session")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "existing-session", w.Header().Get("X-Session-Id"))
	assert.Equal(t, "existing-session", seen.session)
}

func TestIdentitySeedsUserFromBearerToken(t *testing.T) {
	handler, seen := identityProbe(t)
	userID := uuid.New()

	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleCustomer,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.True(t, seen.called)
	assert.Equal(t, userID.String(), seen.userID)
	assert.Equal(t, string(enums.UserRoleCustomer), seen.role)
	assert.Empty(t, seen.session, "signed-in requests should not carry a guest session")
	assert.Empty(t, w.Header().Get("X-Session-Id"))
}

func TestIdentityRejectsInvalidBearerToken(t *testing.T) {
	handler, seen := identityProbe(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage token", token: "not-a-jwt"},
		{name: "wrong secret", token: mustMint(t, config.JWTConfig{
			Secret: "other-secret", Issuer: "storefront", ExpirationMinutes: 30,
		})},
		{name: "expired token", token: mustMintAt(t, testJWTConfig, time.Now().Add(-2*time.Hour))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen.called = false
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, seen.called, "handler must not run on an invalid token")
		})
	}
}

func TestRequireUserRejectsGuests(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireUser(nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(WithSessionToken(req.Context(), "guest-token"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(WithUserID(req.Context(), uuid.NewString()))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireAdminChecksRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleCustomer)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.UserRoleAdmin)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func mustMint(t *testing.T, cfg config.JWTConfig) string {
	t.Helper()
	return mustMintAt(t, cfg, time.Now())
}

func mustMintAt(t *testing.T, cfg config.JWTConfig, now time.Time) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
	})
	require.NoError(t, err)
	return token
}
