package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "livebuynow-identity"}

func TestMintAndParseAccessToken(t *testing.T) {
	userID := uuid.New()
	token, err := MintAccessToken(testJWT, time.Now().UTC(), time.Hour, userID)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject to carry user id, got %q", claims.Subject)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), time.Hour, uuid.New())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil || !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestParseAccessTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	token, err := MintAccessToken(testJWT, time.Now(), time.Hour, uuid.New())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, token); err == nil {
		t.Fatal("expected issuer mismatch")
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer}, token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestParseAccessTokenFallsBackToSubject(t *testing.T) {
	userID := uuid.New()
	claims := jwt.RegisteredClaims{
		Issuer:    testJWT.Issuer,
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parsed, err := ParseAccessToken(testJWT, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != userID {
		t.Fatalf("expected subject fallback, got %s", parsed.UserID)
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	if _, err := MintAccessToken(config.JWTConfig{Issuer: "x"}, time.Now(), time.Hour, uuid.New()); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Fatalf("expected secret error, got %v", err)
	}
	if _, err := MintAccessToken(testJWT, time.Now(), 0, uuid.New()); err == nil {
		t.Fatal("expected ttl error")
	}
	if _, err := MintAccessToken(testJWT, time.Now(), time.Hour, uuid.Nil); !errors.Is(err, ErrMissingPrincipal) {
		t.Fatalf("expected missing principal, got %v", err)
	}
}
