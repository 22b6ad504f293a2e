package handler

import "github.com/wekeza/investment-platform/internal/core/domain"

// errorResponse documents the standard error envelope in swagger output; the
// actual rendering happens in the central error handler.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Request types ---

type registerRequest struct {
	Email        string `json:"email"         validate:"required,email"`
	Name         string `json:"name"          validate:"required"`
	Password     string `json:"password"      validate:"required,min=8"`
	IsInvestor   bool   `json:"is_investor"`
	IsIndividual bool   `json:"is_individual"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type logoutRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

type resendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"        validate:"required,email"`
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}

type registerResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Refresh string       `json:"refresh"`
	Access  string       `json:"access"`
	User    *domain.User `json:"user"`
}

type refreshResponse struct {
	Access string `json:"access"`
}
