package ports

import (
	"context"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

// RegisterInput carries the fields accepted at account creation.
type RegisterInput struct {
	Email        string
	Name         string
	Password     string
	IsInvestor   bool
	IsIndividual bool
}

// LoginResult is the successful outcome of a login: a token pair plus the
// authenticated user record.
type LoginResult struct {
	Access  string
	Refresh string
	User    *domain.User
}

// ProfileUpdateInput carries a partial profile update. Nil pointers mean
// "leave unchanged"; the role of the target user selects which fields apply.
type ProfileUpdateInput struct {
	ContactInfo  *string
	AddressInfo  *string
	IsLocal      *bool
	Avatar       *string
	Interests    []int64 // investor only; nil means unchanged
	BusinessName *string // business only
	Category     *int64  // business only
}

// AuthService exposes every identity-affecting operation of the platform.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	VerifyOTP(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, input ProfileUpdateInput) (*domain.User, error)
}
