package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wekeza/investment-platform/internal/core/domain"
	"github.com/wekeza/investment-platform/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService mints and verifies HS256 access/refresh token pairs.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *TokenService) MintPair(user *domain.User) (ports.TokenPair, error) {
	access, err := s.mint(user, ports.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	refresh, err := s.mint(user, ports.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) MintAccess(user *domain.User) (string, error) {
	return s.mint(user, ports.TokenTypeAccess, s.accessTTL)
}

func (s *TokenService) mint(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", user.ID),
		"user_id":    user.ID,
		"email":      user.Email,
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses a token, checks its signature and expiry, and confirms it is
// of the expected type. A refresh token can never be used as an access token
// and vice versa.
func (s *TokenService) Verify(token, wantType string) (*ports.TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrTokenInvalid
	}

	gotType, _ := claims["token_type"].(string)
	if gotType != wantType {
		return nil, domain.ErrTokenInvalid
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	out := &ports.TokenClaims{
		UserID:    int64(userID),
		TokenType: gotType,
	}
	out.Email, _ = claims["email"].(string)
	out.ID, _ = claims["jti"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, domain.ErrTokenInvalid
	}
	out.ExpiresAt = exp.Time

	return out, nil
}

var _ ports.TokenService = (*TokenService)(nil)
