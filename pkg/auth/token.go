package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
)

// Tokens are HS256 only; parse rejects any other method.
var signingMethod = jwt.SigningMethodHS256

// MintAccessToken signs a customer or admin JWT with the configured issuer
// and TTL. An empty payload JTI gets a fresh uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := validateJWTConfig(cfg); err != nil {
		return "", err
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	token := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration())),
			ID:        jti,
		},
	})

	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies the signature, method, issuer, and expiry, and
// returns the typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

func validateJWTConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("jwt secret is required")
	case cfg.Issuer == "":
		return fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return fmt.Errorf("jwt expiration minutes must be positive")
	}
	return nil
}
