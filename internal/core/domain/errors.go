package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("a user with this email already exists")
var ErrInvalidCredentials = errors.New("invalid credentials, please try again")
var ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts, please try again later")
var ErrEmailNotVerified = errors.New("please verify your email before logging in")
var ErrAlreadyVerified = errors.New("account is already verified")
var ErrOTPInvalid = errors.New("invalid OTP")
var ErrOTPExpired = errors.New("expired OTP")
var ErrResetTokenInvalid = errors.New("invalid or expired reset token")
var ErrTokenInvalid = errors.New("invalid token")
var ErrTokenRevoked = errors.New("token has been revoked")
var ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
var ErrPasswordUnchanged = errors.New("new password must be different from current password")
var ErrWrongPassword = errors.New("current password is incorrect")
var ErrMailDelivery = errors.New("failed to send email, please try again later")

// ThrottledError is returned when an OTP resend is requested before the
// cool-down has elapsed. Wait carries the remaining cool-down so the message
// can tell the user how long to hold off.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting a new OTP", int(e.Wait.Seconds()))
}
