package authclient

import (
	"errors"
	"strings"
)

// ErrSessionClosed is returned by every Session operation after Close.
var ErrSessionClosed = errors.New("authclient: session closed")

// Error codes the server attaches to its error envelope. Classification
// should switch on these; the message text is for display only.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserNotFound       = "user_not_found"
	CodeUserExists         = "user_exists"
	CodeAccountLocked      = "account_locked"
	CodeEmailUnverified    = "email_unverified"
	CodeOTPInvalid         = "otp_invalid"
	CodeOTPExpired         = "otp_expired"
	CodeResendWait         = "resend_wait"
	CodeResetTokenInvalid  = "reset_token_invalid"
	CodeTokenInvalid       = "token_invalid"
	CodeTokenRevoked       = "token_revoked"
)

// APIError is the error returned for any non-2xx response. Message is the
// server's error field verbatim (or a generic fallback carrying the status);
// Code is the server's stable error code, empty when talking to a backend
// that predates structured codes.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// is reports whether err is an APIError carrying the given code, falling back
// to a case-insensitive message-substring check for backends that only send
// free-text errors. The substrings mirror the legacy server's phrasing and
// exist purely as a compatibility shim.
func is(err error, code string, substrings ...string) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.Code != "" {
		return ae.Code == code
	}
	msg := strings.ToLower(ae.Message)
	for _, s := range substrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsAccountLocked reports whether the account is inside a lockout window.
func IsAccountLocked(err error) bool {
	return is(err, CodeAccountLocked, "locked")
}

// IsOTPInvalid reports whether a verification code was rejected as wrong.
func IsOTPInvalid(err error) bool {
	return is(err, CodeOTPInvalid, "invalid or expired otp", "invalid otp")
}

// IsOTPExpired reports whether a verification code was rejected as expired.
func IsOTPExpired(err error) bool {
	return is(err, CodeOTPExpired, "expired otp")
}

// IsResendThrottled reports whether an OTP resend was refused because the
// cool-down has not elapsed.
func IsResendThrottled(err error) bool {
	return is(err, CodeResendWait, "please wait")
}

// IsEmailUnverified reports whether login was refused pending verification.
func IsEmailUnverified(err error) bool {
	return is(err, CodeEmailUnverified, "verify your email")
}

// IsInvalidCredentials reports whether login was refused for a bad
// email/password combination.
func IsInvalidCredentials(err error) bool {
	return is(err, CodeInvalidCredentials, "invalid credentials")
}
