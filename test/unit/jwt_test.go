package unit

import (
	"testing"
	"time"

	"github.com/ItsAdel/morpho-apr/internal/auth"
)

func TestMintAndParseOperatorToken(t *testing.T) {
	m := auth.NewJWTManager("morpho-apr-backend", "morpho-apr-dashboard", "test-secret")

	token, err := m.MintOperatorToken(time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != auth.RoleOperator {
		t.Fatalf("role = %q, want operator", claims.Role)
	}
	if claims.Issuer != "morpho-apr-backend" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	minter := auth.NewJWTManager("iss", "aud", "secret-a")
	verifier := auth.NewJWTManager("iss", "aud", "secret-b")

	token, err := minter.MintOperatorToken(time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("token signed with the wrong key must be rejected")
	}
}

func TestParseRejectsWrongIssuerAndAudience(t *testing.T) {
	minter := auth.NewJWTManager("other-service", "aud", "secret")
	verifier := auth.NewJWTManager("iss", "aud", "secret")

	token, err := minter.MintOperatorToken(time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("wrong issuer must be rejected")
	}

	minter = auth.NewJWTManager("iss", "other-audience", "secret")
	token, err = minter.MintOperatorToken(time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("wrong audience must be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := auth.NewJWTManager("iss", "aud", "secret")

	token, err := m.MintOperatorToken(-time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m := auth.NewJWTManager("iss", "aud", "secret")
	if _, err := m.Parse("not.a.token"); err == nil {
		t.Fatalf("garbage input must be rejected")
	}
}
