package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miguelsandoval/storefront-backend/pkg/config"
	"github.com/miguelsandoval/storefront-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	payload := AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleAdmin,
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestMintAccessToken_Validation(t *testing.T) {
	base := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}
	payload := AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer}

	cases := []struct {
		name    string
		cfg     config.JWTConfig
		payload AccessTokenPayload
	}{
		{"missing secret", config.JWTConfig{Issuer: "storefront", ExpirationMinutes: 30}, payload},
		{"missing issuer", config.JWTConfig{Secret: "secret", ExpirationMinutes: 30}, payload},
		{"zero expiry", config.JWTConfig{Secret: "secret", Issuer: "storefront"}, payload},
		{"bad role", base, AccessTokenPayload{UserID: uuid.New(), Role: "superuser"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MintAccessToken(tc.cfg, time.Now(), tc.payload); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseAccessToken_WrongIssuer(t *testing.T) {
	mintCfg := config.JWTConfig{Secret: "secret", Issuer: "other", ExpirationMinutes: 30}
	token, err := MintAccessToken(mintCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parseCfg := config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}
	if _, err := ParseAccessToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}
