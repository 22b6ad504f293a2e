// Package authclient is the Go client for the platform's auth API: a
// stateless API client plus a Session that owns the credential pair and the
// current-user record for a consuming application.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const apiPrefix = "/api/auth"

// Client is a stateless mapper from typed operations to single HTTP calls
// against the auth API. It performs no retries and sets no timeout of its
// own; pass a context or a configured http.Client to bound a call. The
// refresh-and-retry policy lives in Session, not here.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   TokenStore
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient returns a Client for the API at baseURL (scheme://host[:port],
// no trailing slash). Bearer tokens for authenticated calls are read from
// store at request time.
func NewClient(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpc:   http.DefaultClient,
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one request/response exchange. withAuth attaches the stored
// access token when one is present; an absent token sends the request
// anyway and lets the server reject it.
func (c *Client) do(ctx context.Context, method, path string, withAuth bool, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authclient: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("authclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		if token := c.store.Get(AccessTokenKey); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("authclient: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: envelope.Code, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authclient: decode response: %w", err)
	}
	return nil
}

// Register creates a new account. The account stays unusable until the
// emailed OTP is verified.
func (c *Client) Register(ctx context.Context, data RegisterData) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/register/", false, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token pair and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the server to revoke the given refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) (*MessageResponse, error) {
	body := map[string]string{"refresh": refreshToken}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/logout/", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP confirms an email address with the mailed one-time code.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*MessageResponse, error) {
	body := map[string]string{"email": email, "otp": otp}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/verify-otp/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP requests a fresh verification code.
func (c *Client) ResendOTP(ctx context.Context, email string) (*MessageResponse, error) {
	body := map[string]string{"email": email}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/resend-otp/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword starts the reset flow for the given email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	body := map[string]string{"email": email}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/forgot-password/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword completes the reset flow with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, email, token, newPassword string) (*MessageResponse, error) {
	body := map[string]string{"email": email, "token": token, "new_password": newPassword}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/reset-password/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the password of the authenticated user.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*MessageResponse, error) {
	body := map[string]string{"current_password": currentPassword, "new_password": newPassword}
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, "/change-password/", true, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile fetches the authenticated user's record.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/profile/", true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a partial profile update and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodPut, "/profile/", true, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSectors fetches the public sector catalogue.
func (c *Client) GetSectors(ctx context.Context) ([]Sector, error) {
	var out []Sector
	if err := c.do(ctx, http.MethodGet, "/sectors/", false, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	body := map[string]string{"refresh": refreshToken}
	var out RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/token/refresh/", false, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
