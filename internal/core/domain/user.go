package domain

import "time"

// Verification and lockout windows, mirrored by the notification emails sent
// to users ("expires in 10 minutes", "try again in 1 hour").
const (
	OTPLength         = 6
	OTPTTL            = 10 * time.Minute
	OTPMaxAttempts    = 5
	OTPLockDuration   = time.Hour
	OTPResendInterval = 60 * time.Second

	ResetTokenTTL      = time.Hour
	ResetMaxAttempts   = 5
	ResetLockDuration  = 2 * time.Hour
	ForgotResendWindow = 5 * time.Minute

	LoginMaxAttempts  = 5
	LoginLockDuration = time.Hour

	MinPasswordLength = 8
)

// User models a platform account. Exactly one of the two profile blocks is
// populated, selected by IsInvestor at registration time.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	IsInvestor   bool   `json:"is_investor"`
	IsIndividual bool   `json:"is_individual"`

	// Active becomes true only after email verification; inactive accounts
	// cannot log in.
	Active bool `json:"-"`

	InvestorProfile *InvestorProfile `json:"investorprofile,omitempty"`
	BusinessProfile *BusinessProfile `json:"businessprofile,omitempty"`

	// Email verification state.
	OTP          string    `json:"-"`
	OTPCreatedAt time.Time `json:"-"`
	OTPAttempts  int       `json:"-"`

	// Password reset state.
	ResetToken          string    `json:"-"`
	ResetTokenCreatedAt time.Time `json:"-"`
	ResetAttempts       int       `json:"-"`

	// Account security counters.
	FailedLoginAttempts int       `json:"-"`
	LastLoginAttempt    time.Time `json:"-"`
	AccountLockedUntil  time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// InvestorProfile holds investor-specific profile data. Interests reference
// Sector ids.
type InvestorProfile struct {
	ContactInfo string  `json:"contact_info"`
	AddressInfo string  `json:"address_info"`
	IsLocal     bool    `json:"is_local"`
	Avatar      *string `json:"avatar"`
	Interests   []int64 `json:"interests"`
}

// BusinessProfile holds business-owner profile data. Category references a
// single Sector id; zero means uncategorised.
type BusinessProfile struct {
	BusinessName string  `json:"business_name"`
	ContactInfo  string  `json:"contact_info"`
	AddressInfo  string  `json:"address_info"`
	IsLocal      bool    `json:"is_local"`
	Avatar       *string `json:"avatar"`
	Category     int64   `json:"category"`
}

// IsLocked reports whether the account is inside a temporary lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return !u.AccountLockedUntil.IsZero() && now.Before(u.AccountLockedUntil)
}

// IsOTPValid reports whether the supplied code matches the stored OTP and the
// OTP has not expired.
func (u *User) IsOTPValid(otp string, now time.Time) bool {
	if u.OTP == "" || u.OTP != otp {
		return false
	}
	if u.OTPCreatedAt.IsZero() {
		return false
	}
	return !now.After(u.OTPCreatedAt.Add(OTPTTL))
}

// IsOTPExpired reports whether the stored OTP matches no longer because its
// window has passed, used to distinguish "expired" from "wrong code".
func (u *User) IsOTPExpired(otp string, now time.Time) bool {
	if u.OTP == "" || u.OTP != otp || u.OTPCreatedAt.IsZero() {
		return false
	}
	return now.After(u.OTPCreatedAt.Add(OTPTTL))
}

// IsResetTokenValid reports whether the supplied reset token matches and has
// not expired.
func (u *User) IsResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || u.ResetToken != token {
		return false
	}
	if u.ResetTokenCreatedAt.IsZero() {
		return false
	}
	return !now.After(u.ResetTokenCreatedAt.Add(ResetTokenTTL))
}

// ClearOTP resets all email-verification state.
func (u *User) ClearOTP() {
	u.OTP = ""
	u.OTPCreatedAt = time.Time{}
	u.OTPAttempts = 0
}

// ClearResetToken resets all password-reset state.
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetTokenCreatedAt = time.Time{}
	u.ResetAttempts = 0
}
