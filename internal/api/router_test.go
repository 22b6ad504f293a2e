package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wekeza/investment-platform/internal/core/domain"
	"github.com/wekeza/investment-platform/internal/core/ports"
	"github.com/wekeza/investment-platform/internal/core/service"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	verifyOTPFn      func(ctx context.Context, email, otp string) error
	resendOTPFn      func(ctx context.Context, email string) error
	loginFn          func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	logoutFn         func(ctx context.Context, refreshToken string) error
	refreshFn        func(ctx context.Context, refreshToken string) (string, error)
	forgotFn         func(ctx context.Context, email string) error
	resetFn          func(ctx context.Context, email, token, newPassword string) error
	changePasswordFn func(ctx context.Context, userID int64, currentPassword, newPassword string) error
	profileFn        func(ctx context.Context, userID int64) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, userID int64, input ports.ProfileUpdateInput) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	return s.verifyOTPFn(ctx, email, otp)
}

func (s *stubAuthService) ResendOTP(ctx context.Context, email string) error {
	return s.resendOTPFn(ctx, email)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.logoutFn(ctx, refreshToken)
}

func (s *stubAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	return s.resetFn(ctx, email, token, newPassword)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, currentPassword, newPassword)
}

func (s *stubAuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.profileFn(ctx, userID)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, userID int64, input ports.ProfileUpdateInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, userID, input)
}

type stubSectorRepo struct {
	listFn func(ctx context.Context) ([]domain.Sector, error)
}

func (r *stubSectorRepo) List(ctx context.Context) ([]domain.Sector, error) {
	return r.listFn(ctx)
}

func (r *stubSectorRepo) Seed(_ context.Context, _ []domain.Sector) error {
	return nil
}

// The prometheus middleware registers its collectors with the default
// registry, so the router is built exactly once and the stubs are mutated
// between tests.
var (
	routerOnce    sync.Once
	testEcho      *echo.Echo
	testAuthSvc   = &stubAuthService{}
	testSectors   = &stubSectorRepo{}
	testTokens    = service.NewTokenService("router-test-secret", 15*time.Minute, 24*time.Hour)
	testTokenUser = &domain.User{ID: 7, Email: "auth@example.com", Active: true}
)

func testRouter() *echo.Echo {
	routerOnce.Do(func() {
		testEcho = NewRouter(Deps{
			AuthService: testAuthSvc,
			Sectors:     testSectors,
			Tokens:      testTokens,
			Log:         zerolog.Nop(),
		})
	})
	return testEcho
}

func doJSON(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func bearerFor(t *testing.T, u *domain.User) map[string]string {
	t.Helper()
	access, err := testTokens.MintAccess(u)
	if err != nil {
		t.Fatalf("mint access: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + access}
}

func TestRouter_Register_Success(t *testing.T) {
	testAuthSvc.registerFn = func(_ context.Context, input ports.RegisterInput) (*domain.User, error) {
		if input.Email != "alice@example.com" || !input.IsInvestor {
			t.Fatalf("unexpected input: %+v", input)
		}
		return &domain.User{ID: 1, Email: input.Email, Name: input.Name, IsInvestor: true}, nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/register/",
		`{"email":"alice@example.com","name":"Alice","password":"password123","is_investor":true}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["email"] != "alice@example.com" {
		t.Fatalf("unexpected payload: %v", resp)
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "OTP") {
		t.Fatalf("expected OTP hand-off message, got %q", msg)
	}
}

func TestRouter_Register_Duplicate(t *testing.T) {
	testAuthSvc.registerFn = func(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
		return nil, domain.ErrUserExists
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/register/",
		`{"email":"bob@example.com","name":"Bob","password":"password123"}`, nil)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "user_exists" {
		t.Fatalf("unexpected error envelope: %v", resp)
	}
}

func TestRouter_Register_ValidationFailure(t *testing.T) {
	testAuthSvc.registerFn = func(_ context.Context, _ ports.RegisterInput) (*domain.User, error) {
		t.Fatalf("service should not be called")
		return nil, nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/register/",
		`{"email":"not-an-email","name":"X","password":"short"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_Login_Success(t *testing.T) {
	testAuthSvc.loginFn = func(_ context.Context, email, password string) (*ports.LoginResult, error) {
		if email != "alice@example.com" || password != "password123" {
			t.Fatalf("unexpected args: %s %s", email, password)
		}
		return &ports.LoginResult{
			Access:  "A1",
			Refresh: "R1",
			User:    &domain.User{ID: 1, Email: email, Name: "Alice"},
		}, nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/login/",
		`{"email":"alice@example.com","password":"password123"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["access"] != "A1" || resp["refresh"] != "R1" {
		t.Fatalf("expected token pair, got %v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected user payload: %v", resp["user"])
	}
}

func TestRouter_Login_InvalidCredentials(t *testing.T) {
	testAuthSvc.loginFn = func(_ context.Context, _, _ string) (*ports.LoginResult, error) {
		return nil, domain.ErrInvalidCredentials
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/login/",
		`{"email":"alice@example.com","password":"wrongpass"}`, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "invalid_credentials" {
		t.Fatalf("unexpected envelope: %v", resp)
	}
	if msg, _ := resp["error"].(string); !strings.Contains(strings.ToLower(msg), "invalid credentials") {
		t.Fatalf("expected invalid credentials message, got %q", msg)
	}
}

func TestRouter_Login_Locked(t *testing.T) {
	testAuthSvc.loginFn = func(_ context.Context, _, _ string) (*ports.LoginResult, error) {
		return nil, domain.ErrAccountLocked
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/login/",
		`{"email":"alice@example.com","password":"password123"}`, nil)

	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
}

func TestRouter_VerifyOTP_Expired(t *testing.T) {
	testAuthSvc.verifyOTPFn = func(_ context.Context, _, _ string) error {
		return domain.ErrOTPExpired
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/verify-otp/",
		`{"email":"alice@example.com","otp":"123456"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "otp_expired" {
		t.Fatalf("unexpected envelope: %v", resp)
	}
}

func TestRouter_VerifyOTP_MalformedCode(t *testing.T) {
	testAuthSvc.verifyOTPFn = func(_ context.Context, _, _ string) error {
		t.Fatalf("service should not be called")
		return nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/verify-otp/",
		`{"email":"alice@example.com","otp":"12ab"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRouter_ResendOTP_Throttled(t *testing.T) {
	testAuthSvc.resendOTPFn = func(_ context.Context, _ string) error {
		return &domain.ThrottledError{Wait: 42 * time.Second}
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/resend-otp/",
		`{"email":"alice@example.com"}`, nil)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "resend_wait" {
		t.Fatalf("unexpected envelope: %v", resp)
	}
	if msg, _ := resp["error"].(string); !strings.Contains(msg, "42 seconds") {
		t.Fatalf("expected remaining wait in message, got %q", msg)
	}
}

func TestRouter_ChangePassword_RequiresAuth(t *testing.T) {
	testAuthSvc.changePasswordFn = func(_ context.Context, _ int64, _, _ string) error {
		t.Fatalf("service should not be called")
		return nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/change-password/",
		`{"current_password":"oldpass123","new_password":"newpass123"}`, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestRouter_ChangePassword_Success(t *testing.T) {
	var gotUserID int64
	testAuthSvc.changePasswordFn = func(_ context.Context, userID int64, current, next string) error {
		gotUserID = userID
		if current != "oldpass123" || next != "newpass123" {
			t.Fatalf("unexpected args: %s %s", current, next)
		}
		return nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/change-password/",
		`{"current_password":"oldpass123","new_password":"newpass123"}`, bearerFor(t, testTokenUser))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != testTokenUser.ID {
		t.Fatalf("expected user id %d from token claims, got %d", testTokenUser.ID, gotUserID)
	}
}

func TestRouter_ChangePassword_RejectsRefreshToken(t *testing.T) {
	testAuthSvc.changePasswordFn = func(_ context.Context, _ int64, _, _ string) error {
		t.Fatalf("service should not be called")
		return nil
	}

	pair, err := testTokens.MintPair(testTokenUser)
	if err != nil {
		t.Fatalf("mint pair: %v", err)
	}
	rec := doJSON(t, http.MethodPost, "/api/auth/change-password/",
		`{"current_password":"oldpass123","new_password":"newpass123"}`,
		map[string]string{"Authorization": "Bearer " + pair.Refresh})

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a refresh token, got %d", rec.Code)
	}
}

func TestRouter_Profile_Get(t *testing.T) {
	testAuthSvc.profileFn = func(_ context.Context, userID int64) (*domain.User, error) {
		if userID != testTokenUser.ID {
			t.Fatalf("unexpected user id %d", userID)
		}
		return &domain.User{
			ID: userID, Email: "auth@example.com", Name: "Authed", IsInvestor: true,
			InvestorProfile: &domain.InvestorProfile{IsLocal: true, Interests: []int64{1, 2}},
		}, nil
	}

	rec := doJSON(t, http.MethodGet, "/api/auth/profile/", "", bearerFor(t, testTokenUser))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	profile, ok := resp["investorprofile"].(map[string]any)
	if !ok {
		t.Fatalf("expected embedded investor profile, got %v", resp)
	}
	if profile["is_local"] != true {
		t.Fatalf("unexpected profile payload: %v", profile)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash leaked into response")
	}
}

func TestRouter_Profile_Update(t *testing.T) {
	testAuthSvc.updateProfileFn = func(_ context.Context, userID int64, input ports.ProfileUpdateInput) (*domain.User, error) {
		if input.ContactInfo == nil || *input.ContactInfo != "+254700000000" {
			t.Fatalf("contact info not forwarded: %+v", input)
		}
		if input.AddressInfo != nil {
			t.Fatalf("absent fields must stay nil: %+v", input)
		}
		return &domain.User{ID: userID, Email: "auth@example.com", IsInvestor: true,
			InvestorProfile: &domain.InvestorProfile{ContactInfo: *input.ContactInfo}}, nil
	}

	rec := doJSON(t, http.MethodPut, "/api/auth/profile/",
		`{"contact_info":"+254700000000"}`, bearerFor(t, testTokenUser))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Refresh(t *testing.T) {
	testAuthSvc.refreshFn = func(_ context.Context, refreshToken string) (string, error) {
		if refreshToken != "R1" {
			t.Fatalf("unexpected token %q", refreshToken)
		}
		return "A2", nil
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/token/refresh/", `{"refresh":"R1"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["access"] != "A2" {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestRouter_Refresh_Revoked(t *testing.T) {
	testAuthSvc.refreshFn = func(_ context.Context, _ string) (string, error) {
		return "", domain.ErrTokenRevoked
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/token/refresh/", `{"refresh":"R1"}`, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["code"] != "token_revoked" {
		t.Fatalf("unexpected envelope: %v", resp)
	}
}

func TestRouter_Sectors_Public(t *testing.T) {
	testSectors.listFn = func(_ context.Context) ([]domain.Sector, error) {
		return []domain.Sector{{ID: 1, Name: "Agro-processing"}}, nil
	}

	rec := doJSON(t, http.MethodGet, "/api/auth/sectors/", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sectors []domain.Sector
	if err := json.Unmarshal(rec.Body.Bytes(), &sectors); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(sectors) != 1 || sectors[0].Name != "Agro-processing" {
		t.Fatalf("unexpected sectors: %+v", sectors)
	}
}

func TestRouter_UnhandledErrorIsOpaque(t *testing.T) {
	testAuthSvc.forgotFn = func(_ context.Context, _ string) error {
		return context.DeadlineExceeded
	}

	rec := doJSON(t, http.MethodPost, "/api/auth/forgot-password/",
		`{"email":"alice@example.com"}`, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["code"] != "internal" || resp["error"] != "internal server error" {
		t.Fatalf("internal error leaked: %v", resp)
	}
}

func TestRouter_Liveness(t *testing.T) {
	rec := doJSON(t, http.MethodGet, "/health", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
