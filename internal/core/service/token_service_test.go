package service

import (
	"errors"
	"testing"
	"time"

	"github.com/wekeza/investment-platform/internal/core/domain"
	"github.com/wekeza/investment-platform/internal/core/ports"
)

func testUser() *domain.User {
	return &domain.User{ID: 42, Email: "user@example.com", Active: true}
}

func TestTokenService_MintAndVerifyPair(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)

	pair, err := svc.MintPair(testUser())
	if err != nil {
		t.Fatalf("MintPair returned error: %v", err)
	}

	access, err := svc.Verify(pair.Access, ports.TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify access failed: %v", err)
	}
	if access.UserID != 42 || access.Email != "user@example.com" {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if access.ID == "" {
		t.Fatalf("expected a jti on the access token")
	}

	refresh, err := svc.Verify(pair.Refresh, ports.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("verify refresh failed: %v", err)
	}
	if refresh.ID == access.ID {
		t.Fatalf("expected distinct jtis for access and refresh tokens")
	}
	if !refresh.ExpiresAt.After(access.ExpiresAt) {
		t.Fatalf("expected refresh token to outlive access token")
	}
}

func TestTokenService_Verify_WrongType(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)
	pair, _ := svc.MintPair(testUser())

	if _, err := svc.Verify(pair.Access, ports.TokenTypeRefresh); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for type mismatch, got %v", err)
	}
	if _, err := svc.Verify(pair.Refresh, ports.TokenTypeAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for type mismatch, got %v", err)
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	minted := NewTokenService("secret-a", time.Minute, time.Hour)
	verifier := NewTokenService("secret-b", time.Minute, time.Hour)

	access, err := minted.MintAccess(testUser())
	if err != nil {
		t.Fatalf("MintAccess returned error: %v", err)
	}
	if _, err := verifier.Verify(access, ports.TokenTypeAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestTokenService_Verify_Expired(t *testing.T) {
	// NewTokenService refuses non-positive TTLs, so build one by hand.
	svc := &TokenService{secret: []byte("secret"), accessTTL: -time.Minute, refreshTTL: time.Hour}

	access, err := svc.MintAccess(testUser())
	if err != nil {
		t.Fatalf("MintAccess returned error: %v", err)
	}
	if _, err := svc.Verify(access, ports.TokenTypeAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	svc := NewTokenService("secret", time.Minute, time.Hour)

	if _, err := svc.Verify("definitely.not.ajwt", ports.TokenTypeAccess); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
