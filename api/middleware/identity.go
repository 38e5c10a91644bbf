package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/miguelsandoval/storefront-backend/api/responses"
	pkgAuth "github.com/miguelsandoval/storefront-backend/pkg/auth"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	pkgerrors "github.com/miguelsandoval/storefront-backend/pkg/errors"
	"github.com/miguelsandoval/storefront-backend/pkg/logger"
)

const sessionHeader = "X-Session-Id"

// Identity resolves who the request acts as. A valid bearer token seeds a
// signed-in user; otherwise the guest session token from the X-Session-Id
// header is used, minting a fresh one when the header is absent. The active
// session token is always echoed back so clients can persist it.
//
// A present but invalid bearer token fails the request instead of silently
// downgrading to a guest.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}

				ctx = WithUserID(ctx, claims.UserID.String())
				ctx = WithRole(ctx, string(claims.Role))
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
					ctx = logg.WithField(ctx, "actor_role", string(claims.Role))
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionToken := strings.TrimSpace(r.Header.Get(sessionHeader))
			if sessionToken == "" {
				sessionToken = uuid.NewString()
			}
			w.Header().Set(sessionHeader, sessionToken)

			ctx = WithSessionToken(ctx, sessionToken)
			if logg != nil {
				ctx = logg.WithField(ctx, "session_token", sessionToken)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
