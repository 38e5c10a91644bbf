package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/miguelsandoval/storefront-backend/internal/identity"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxSessionToken contextKey = "session_token"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// CallerFromContext rebuilds the request owner seeded by the Identity
// middleware. A signed-in user wins over a guest session token.
func CallerFromContext(ctx context.Context) identity.Caller {
	if raw := UserIDFromContext(ctx); raw != "" {
		if userID, err := uuid.Parse(raw); err == nil {
			return identity.ForUser(userID)
		}
	}
	if token := SessionTokenFromContext(ctx); token != "" {
		return identity.ForSession(token)
	}
	return identity.Caller{}
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithSessionToken injects the guest session token into the context.
func WithSessionToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionToken, token)
}
