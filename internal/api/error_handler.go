package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wekeza/investment-platform/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error
// carries the human-readable message; Code is a stable machine-readable
// identifier clients classify on instead of matching message text.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		_ = c.JSON(status, errorResponse{Error: msg, Code: code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, "", fmt.Sprintf("%v", he.Message)
	}

	// Resend throttling carries the remaining wait in its message.
	var te *domain.ThrottledError
	if errors.As(err, &te) {
		return http.StatusTooManyRequests, "resend_wait", te.Error()
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "Invalid credentials, please try again."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "User not found."
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user_exists", "A user with this email already exists."
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusLocked, "account_locked", "Account temporarily locked due to too many failed attempts. Please try again later."
	case errors.Is(err, domain.ErrEmailNotVerified):
		return http.StatusForbidden, "email_unverified", "Please verify your email before logging in."
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, "already_verified", "Account is already verified."
	case errors.Is(err, domain.ErrOTPInvalid):
		return http.StatusBadRequest, "otp_invalid", "Invalid OTP."
	case errors.Is(err, domain.ErrOTPExpired):
		return http.StatusBadRequest, "otp_expired", "Expired OTP."
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusBadRequest, "reset_token_invalid", "Invalid or expired reset token."
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "token_invalid", "Invalid token."
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "token_revoked", "Token has been revoked."
	case errors.Is(err, domain.ErrPasswordTooShort):
		return http.StatusBadRequest, "password_too_short", "Password must be at least 8 characters long."
	case errors.Is(err, domain.ErrPasswordUnchanged):
		return http.StatusBadRequest, "password_unchanged", "New password must be different from current password."
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusBadRequest, "wrong_password", "Current password is incorrect."
	case errors.Is(err, domain.ErrMailDelivery):
		return http.StatusInternalServerError, "mail_delivery", "Failed to send email. Please try again later."
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal", "internal server error"
}
