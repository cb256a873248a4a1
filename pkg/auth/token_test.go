package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/drawspace/drawspace-backend/pkg/config"
)

var testConfig = config.JWTConfig{
	Secret:            "token-test-secret",
	Issuer:            "drawspace-test",
	ExpirationMinutes: 10,
}

func TestMintAndVerifyRoundTrip(t *testing.T) {
	token, err := MintAccessToken(testConfig, time.Now(), IdentityClaims{
		Email:     "user@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user_1",
		},
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := VerifyAccessToken(testConfig, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ExternalID() != "user_1" {
		t.Fatalf("unexpected external id %q", claims.ExternalID())
	}
	if claims.Email != "user@example.com" || claims.FirstName != "Ada" {
		t.Fatalf("profile claims lost: %+v", claims)
	}
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	token, err := MintAccessToken(testConfig, time.Now(), IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_1"},
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := testConfig
	other.Secret = "a-different-secret"
	if _, err := VerifyAccessToken(other, token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyAccessToken_WrongIssuer(t *testing.T) {
	other := testConfig
	other.Issuer = "someone-else"
	token, err := MintAccessToken(other, time.Now(), IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_1"},
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := VerifyAccessToken(testConfig, token); err == nil {
		t.Fatal("expected verification failure with wrong issuer")
	}
}

func TestVerifyAccessToken_MissingSubject(t *testing.T) {
	if _, err := MintAccessToken(testConfig, time.Now(), IdentityClaims{}); err == nil {
		t.Fatal("expected mint failure without subject")
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	token, err := MintAccessToken(testConfig, time.Now().Add(-time.Hour), IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user_1"},
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := VerifyAccessToken(testConfig, token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}
