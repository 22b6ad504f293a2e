package ports

import (
	"context"
	"time"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is the access/refresh credential pair returned on login.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenClaims is the decoded, verified content of a bearer token.
type TokenClaims struct {
	UserID    int64
	Email     string
	TokenType string
	ID        string // jti, used for refresh revocation
	ExpiresAt time.Time
}

// TokenService mints and verifies the platform's bearer tokens.
type TokenService interface {
	MintPair(user *domain.User) (TokenPair, error)
	MintAccess(user *domain.User) (string, error)
	// Verify parses and validates a token, rejecting wrong signatures,
	// expired tokens and tokens of the wrong type.
	Verify(token, wantType string) (*TokenClaims, error)
}

// TokenBlacklist records revoked refresh tokens (by jti) until they would
// have expired anyway.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
