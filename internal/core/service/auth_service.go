package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wekeza/investment-platform/internal/api/metrics"
	"github.com/wekeza/investment-platform/internal/core/domain"
	"github.com/wekeza/investment-platform/internal/core/ports"
)

// AuthService implements the full account lifecycle: registration with email
// OTP verification, login with lockout tracking, token refresh and revocation,
// and the password reset/change flows.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenService
	blacklist ports.TokenBlacklist
	// mailer carries mail the flow depends on (OTPs, reset links); notifier
	// carries best-effort confirmations and may deliver asynchronously.
	mailer   ports.Mailer
	notifier ports.Mailer
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, blacklist ports.TokenBlacklist, mailer, notifier ports.Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, blacklist: blacklist, mailer: mailer, notifier: notifier}
}

// Register creates an inactive account, issues an OTP and mails it. The
// account is rolled back if the verification mail cannot be delivered, so a
// user is never stranded with an unverifiable registration.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Email == "" || input.Name == "" || input.Password == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if len(input.Password) < domain.MinPasswordLength {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		IsInvestor:   input.IsInvestor,
		IsIndividual: input.IsIndividual,
		Active:       false,
		OTP:          generateOTP(),
		OTPCreatedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// An empty profile of the matching kind is created with the account,
	// filled in later through profile update.
	if input.IsInvestor {
		user.InvestorProfile = &domain.InvestorProfile{IsLocal: true, Interests: []int64{}}
	} else {
		user.BusinessProfile = &domain.BusinessProfile{IsLocal: true}
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	body := fmt.Sprintf(`Hi %s,

Welcome to our platform! Please verify your email address using the OTP code below:

Your OTP: %s

This OTP will expire in 10 minutes.

If you didn't create this account, please ignore this email.

Best regards,
The Team`, created.Name, created.OTP)

	if err := s.mailer.Send(ctx, created.Email, "Verify your email with OTP", body); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("mail_failed").Inc()
		_ = s.users.Delete(ctx, created.ID)
		return nil, domain.ErrMailDelivery
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return created, nil
}

// VerifyOTP activates an account when the supplied code matches. Five failed
// attempts lock the account for an hour.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		metrics.OTPVerificationsTotal.WithLabelValues("locked").Inc()
		return domain.ErrAccountLocked
	}

	if !user.IsOTPValid(otp, now) {
		expired := user.IsOTPExpired(otp, now)

		user.OTPAttempts++
		if user.OTPAttempts >= domain.OTPMaxAttempts {
			user.AccountLockedUntil = now.Add(domain.OTPLockDuration)
			if err := s.users.Update(ctx, user); err != nil {
				return err
			}
			metrics.OTPVerificationsTotal.WithLabelValues("locked").Inc()
			metrics.LockoutsTotal.WithLabelValues("otp").Inc()
			return domain.ErrAccountLocked
		}
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}

		if expired {
			metrics.OTPVerificationsTotal.WithLabelValues("expired").Inc()
			return domain.ErrOTPExpired
		}
		metrics.OTPVerificationsTotal.WithLabelValues("invalid").Inc()
		return domain.ErrOTPInvalid
	}

	user.Active = true
	user.ClearOTP()
	user.AccountLockedUntil = time.Time{}
	user.FailedLoginAttempts = 0
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	metrics.OTPVerificationsTotal.WithLabelValues("verified").Inc()
	return nil
}

// ResendOTP issues a fresh code for an unverified account, at most once per
// cool-down interval.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.Active {
		return domain.ErrAlreadyVerified
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		return domain.ErrAccountLocked
	}

	if !user.OTPCreatedAt.IsZero() {
		if next := user.OTPCreatedAt.Add(domain.OTPResendInterval); now.Before(next) {
			return &domain.ThrottledError{Wait: next.Sub(now)}
		}
	}

	user.OTP = generateOTP()
	user.OTPCreatedAt = now
	user.OTPAttempts = 0
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf(`Hi %s,

Here's your new verification OTP:

Your OTP: %s

This OTP will expire in 10 minutes.

Best regards,
The Team`, user.Name, user.OTP)

	if err := s.mailer.Send(ctx, user.Email, "Your New Verification OTP", body); err != nil {
		return domain.ErrMailDelivery
	}
	return nil
}

// Login authenticates by email and password and mints a token pair. Failed
// attempts are counted per account; crossing the threshold starts a lockout
// window.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// same error as a wrong password, to avoid account enumeration
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, domain.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= domain.LoginMaxAttempts {
			user.AccountLockedUntil = now.Add(domain.LoginLockDuration)
			metrics.LockoutsTotal.WithLabelValues("login").Inc()
		}
		_ = s.users.Update(ctx, user)
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !user.Active {
		metrics.LoginsTotal.WithLabelValues("unverified").Inc()
		return nil, domain.ErrEmailNotVerified
	}

	user.FailedLoginAttempts = 0
	user.LastLoginAttempt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.tokens.MintPair(user)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.LoginResult{Access: pair.Access, Refresh: pair.Refresh, User: user}, nil
}

// Logout revokes the presented refresh token for its remaining lifetime. A
// token that fails verification is reported as invalid; the client clears its
// local state regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Verify(refreshToken, ports.TokenTypeRefresh)
	if err != nil {
		return domain.ErrTokenInvalid
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, ttl)
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken, ports.TokenTypeRefresh)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
		return "", domain.ErrTokenInvalid
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		metrics.TokenRefreshesTotal.WithLabelValues("revoked").Inc()
		return "", domain.ErrTokenRevoked
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("invalid").Inc()
		return "", domain.ErrTokenInvalid
	}

	access, err := s.tokens.MintAccess(user)
	if err != nil {
		return "", err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return access, nil
}

// ForgotPassword issues a reset token and mails a reset link. The response is
// identical whether or not the account exists, so the endpoint cannot be used
// to probe for registered emails. Re-issue is throttled per account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	now := time.Now().UTC()
	if !user.ResetTokenCreatedAt.IsZero() && now.Before(user.ResetTokenCreatedAt.Add(domain.ForgotResendWindow)) {
		return nil
	}

	user.ResetToken = uuid.NewString()
	user.ResetTokenCreatedAt = now
	user.ResetAttempts = 0
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("http://localhost:3000/reset-password?token=%s&email=%s", user.ResetToken, user.Email)
	body := fmt.Sprintf(`Hi %s,

You requested to reset your password. Click the link below to set a new password:

%s

This link will expire in 1 hour.

If you didn't request this password reset, please ignore this email.

Best regards,
The Team`, user.Name, resetLink)

	if err := s.mailer.Send(ctx, user.Email, "Password Reset Request", body); err != nil {
		// Leave no dangling token the user can never learn about.
		user.ClearResetToken()
		_ = s.users.Update(ctx, user)
		return nil
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return nil
}

// ResetPassword completes the forgot-password flow. Five bad tokens lock the
// account for two hours.
func (s *AuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if len(newPassword) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}
	if !user.Active {
		return domain.ErrResetTokenInvalid
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		return domain.ErrAccountLocked
	}

	if !user.IsResetTokenValid(token, now) {
		user.ResetAttempts++
		if user.ResetAttempts >= domain.ResetMaxAttempts {
			user.AccountLockedUntil = now.Add(domain.ResetLockDuration)
			metrics.LockoutsTotal.WithLabelValues("reset").Inc()
			if err := s.users.Update(ctx, user); err != nil {
				return err
			}
			return domain.ErrAccountLocked
		}
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		return domain.ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.ClearResetToken()
	user.AccountLockedUntil = time.Time{}
	user.FailedLoginAttempts = 0
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf(`Hi %s,

Your password has been successfully reset.

If you didn't make this change, please contact our support team immediately.

Best regards,
The Team`, user.Name)
	_ = s.notifier.Send(ctx, user.Email, "Password Reset Successful", body)

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	return nil
}

// ChangePassword rotates the password of an authenticated user.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	if currentPassword == newPassword {
		return domain.ErrPasswordUnchanged
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	body := fmt.Sprintf(`Hi %s,

Your password has been successfully changed.

If you didn't make this change, please contact our support team immediately.

Best regards,
The Team`, user.Name)
	_ = s.notifier.Send(ctx, user.Email, "Password Changed Successfully", body)

	metrics.PasswordResetsTotal.WithLabelValues("changed").Inc()
	return nil
}

// Profile returns the full user record for an authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial update to the profile block matching the
// user's role and returns the updated record.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, input ports.ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsInvestor {
		p := user.InvestorProfile
		if p == nil {
			p = &domain.InvestorProfile{}
			user.InvestorProfile = p
		}
		applyCommon(&p.ContactInfo, &p.AddressInfo, &p.IsLocal, &p.Avatar, input)
		if input.Interests != nil {
			p.Interests = input.Interests
		}
	} else {
		p := user.BusinessProfile
		if p == nil {
			p = &domain.BusinessProfile{}
			user.BusinessProfile = p
		}
		applyCommon(&p.ContactInfo, &p.AddressInfo, &p.IsLocal, &p.Avatar, input)
		if input.BusinessName != nil {
			p.BusinessName = *input.BusinessName
		}
		if input.Category != nil {
			p.Category = *input.Category
		}
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func applyCommon(contact, address *string, isLocal *bool, avatar **string, input ports.ProfileUpdateInput) {
	if input.ContactInfo != nil {
		*contact = *input.ContactInfo
	}
	if input.AddressInfo != nil {
		*address = *input.AddressInfo
	}
	if input.IsLocal != nil {
		*isLocal = *input.IsLocal
	}
	if input.Avatar != nil {
		*avatar = input.Avatar
	}
}

// generateOTP returns a random 6-digit numeric code.
func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing is unrecoverable for an auth service
		panic(fmt.Sprintf("otp generation: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

var _ ports.AuthService = (*AuthService)(nil)
