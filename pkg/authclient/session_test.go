package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// authServer is a scriptable fake of the auth API, counting requests per
// path so tests can assert exactly which calls the session made.
type authServer struct {
	*httptest.Server
	profileStatus  int32 // status for GET /profile/; 0 means 200
	refreshStatus  int32
	logoutStatus   int32
	profileCalls   int32
	refreshCalls   int32
	logoutCalls    int32
	loginCalls     int32
	registerCalls  int32
	lastAuthHeader atomic.Value
}

func newAuthServer() *authServer {
	s := &authServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lastAuthHeader.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/auth/profile/":
			atomic.AddInt32(&s.profileCalls, 1)
			if st := atomic.LoadInt32(&s.profileStatus); st != 0 {
				writeErr(w, int(st), "Invalid token.", CodeTokenInvalid)
				return
			}
			_ = json.NewEncoder(w).Encode(User{ID: 1, Email: "alice@example.com", Name: "Alice"})
		case "/api/auth/token/refresh/":
			atomic.AddInt32(&s.refreshCalls, 1)
			if st := atomic.LoadInt32(&s.refreshStatus); st != 0 {
				writeErr(w, int(st), "Token has been revoked.", CodeTokenRevoked)
				return
			}
			_ = json.NewEncoder(w).Encode(RefreshResponse{Access: "A2"})
		case "/api/auth/login/":
			atomic.AddInt32(&s.loginCalls, 1)
			_ = json.NewEncoder(w).Encode(LoginResponse{
				Access: "A1", Refresh: "R1",
				User: &User{ID: 1, Email: "alice@example.com", Name: "Alice"},
			})
		case "/api/auth/register/":
			atomic.AddInt32(&s.registerCalls, 1)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(RegisterResponse{
				Message: "User registered successfully.", Email: "alice@example.com",
			})
		case "/api/auth/logout/":
			atomic.AddInt32(&s.logoutCalls, 1)
			if st := atomic.LoadInt32(&s.logoutStatus); st != 0 {
				writeErr(w, int(st), "internal server error", "internal")
				return
			}
			_ = json.NewEncoder(w).Encode(MessageResponse{Message: "Successfully logged out."})
		default:
			writeErr(w, http.StatusNotFound, "not found", "")
		}
	}))
	return s
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}

func (s *authServer) totalCalls() int32 {
	return atomic.LoadInt32(&s.profileCalls) + atomic.LoadInt32(&s.refreshCalls) +
		atomic.LoadInt32(&s.logoutCalls) + atomic.LoadInt32(&s.loginCalls) +
		atomic.LoadInt32(&s.registerCalls)
}

func newTestSession(srv *authServer, opts ...SessionOption) (*Session, *MemoryStore) {
	store := NewMemoryStore()
	client := NewClient(srv.URL, store)
	return NewSession(client, store, opts...), store
}

func TestSession_Initialize_NoTokensSkipsNetwork(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, _ := newTestSession(srv)

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if srv.totalCalls() != 0 {
		t.Fatalf("expected no network traffic without stored tokens")
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected unauthenticated session")
	}
	if session.IsBusy() {
		t.Fatalf("expected busy flag cleared after Initialize")
	}
}

func TestSession_Initialize_OneTokenMissingSkipsNetwork(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, store := newTestSession(srv)
	_ = store.Set(AccessTokenKey, "A0")

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if srv.totalCalls() != 0 {
		t.Fatalf("an incomplete pair must not trigger network traffic")
	}
}

func TestSession_Initialize_RestoresUser(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, store := newTestSession(srv)
	_ = store.Set(AccessTokenKey, "A0")
	_ = store.Set(RefreshTokenKey, "R0")

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if u := session.User(); u == nil || u.Email != "alice@example.com" {
		t.Fatalf("expected restored user, got %+v", u)
	}
	if atomic.LoadInt32(&srv.refreshCalls) != 0 {
		t.Fatalf("no refresh expected when the access token still works")
	}
}

func TestSession_Initialize_RefreshRetrySucceeds(t *testing.T) {
	var profileCalls, refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/profile/":
			// The first profile call fails, the post-refresh retry succeeds.
			if atomic.AddInt32(&profileCalls, 1) == 1 {
				writeErr(w, http.StatusUnauthorized, "Invalid token.", CodeTokenInvalid)
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer A2" {
				t.Errorf("retry must carry the refreshed token, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(User{ID: 1, Email: "alice@example.com", Name: "Alice"})
		case "/api/auth/token/refresh/":
			atomic.AddInt32(&refreshCalls, 1)
			_ = json.NewEncoder(w).Encode(RefreshResponse{Access: "A2"})
		default:
			writeErr(w, http.StatusNotFound, "not found", "")
		}
	}))
	defer srv.Close()

	store := NewMemoryStore()
	session := NewSession(NewClient(srv.URL, store), store)
	_ = store.Set(AccessTokenKey, "A0")
	_ = store.Set(RefreshTokenKey, "R0")

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated session after refresh retry")
	}
	if got := store.Get(AccessTokenKey); got != "A2" {
		t.Fatalf("expected refreshed access token persisted, got %q", got)
	}
	if got := store.Get(RefreshTokenKey); got != "R0" {
		t.Fatalf("refresh token must survive, got %q", got)
	}
	if atomic.LoadInt32(&profileCalls) != 2 || atomic.LoadInt32(&refreshCalls) != 1 {
		t.Fatalf("expected exactly one refresh and one retry, got profile=%d refresh=%d",
			profileCalls, refreshCalls)
	}
}

func TestSession_Initialize_BothFailClearsTokens(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, store := newTestSession(srv)
	_ = store.Set(AccessTokenKey, "A0")
	_ = store.Set(RefreshTokenKey, "R0")
	atomic.StoreInt32(&srv.profileStatus, http.StatusUnauthorized)
	atomic.StoreInt32(&srv.refreshStatus, http.StatusUnauthorized)

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize must swallow restore failures, got %v", err)
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected unauthenticated session")
	}
	if store.Get(AccessTokenKey) != "" || store.Get(RefreshTokenKey) != "" {
		t.Fatalf("expected dead tokens to be cleared")
	}
}

func TestSession_Login_PersistsPairAndUser(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()

	var changes int32
	session, store := newTestSession(srv, WithOnChange(func() {
		atomic.AddInt32(&changes, 1)
	}))

	if err := session.Login(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if store.Get(AccessTokenKey) != "A1" || store.Get(RefreshTokenKey) != "R1" {
		t.Fatalf("expected token pair persisted, got %q/%q",
			store.Get(AccessTokenKey), store.Get(RefreshTokenKey))
	}
	if u := session.User(); u == nil || u.Name != "Alice" {
		t.Fatalf("expected cached user, got %+v", u)
	}
	if session.State() != StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", session.State())
	}
	if atomic.LoadInt32(&changes) == 0 {
		t.Fatalf("expected OnChange notifications")
	}
}

func TestSession_Login_FailureLeavesStoreUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusUnauthorized, "Invalid credentials, please try again.", CodeInvalidCredentials)
	}))
	defer srv.Close()

	store := NewMemoryStore()
	session := NewSession(NewClient(srv.URL, store), store)

	err := session.Login(context.Background(), "alice@example.com", "wrongpass")
	if !IsInvalidCredentials(err) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if store.Get(AccessTokenKey) != "" || store.Get(RefreshTokenKey) != "" {
		t.Fatalf("failed login must not write tokens")
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected unauthenticated session")
	}
	if session.IsBusy() {
		t.Fatalf("expected busy flag cleared after failure")
	}
}

func TestSession_Register_NeverAuthenticates(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, store := newTestSession(srv)

	email, err := session.Register(context.Background(), RegisterData{
		Email: "alice@example.com", Name: "Alice", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("unexpected email %q", email)
	}
	if store.Get(AccessTokenKey) != "" || store.Get(RefreshTokenKey) != "" {
		t.Fatalf("registration must not store tokens")
	}
	if session.IsAuthenticated() {
		t.Fatalf("registration must not authenticate")
	}
}

func TestSession_Logout_ClearsStateDespiteServerError(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	atomic.StoreInt32(&srv.logoutStatus, http.StatusInternalServerError)

	session, store := newTestSession(srv)
	if err := session.Login(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must not fail on a server error, got %v", err)
	}
	if atomic.LoadInt32(&srv.logoutCalls) != 1 {
		t.Fatalf("expected the revocation attempt to be made")
	}
	if store.Get(AccessTokenKey) != "" || store.Get(RefreshTokenKey) != "" {
		t.Fatalf("expected both tokens cleared")
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected unauthenticated session after logout")
	}
}

func TestSession_Logout_NoRefreshTokenSkipsNetwork(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, _ := newTestSession(srv)

	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if atomic.LoadInt32(&srv.logoutCalls) != 0 {
		t.Fatalf("no revocation call expected without a refresh token")
	}
}

func TestSession_Close(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, _ := newTestSession(srv)

	session.Close()

	if err := session.Initialize(context.Background()); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if err := session.Login(context.Background(), "a@example.com", "p"); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if err := session.Logout(context.Background()); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := session.Register(context.Background(), RegisterData{}); err != ErrSessionClosed {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	if srv.totalCalls() != 0 {
		t.Fatalf("a closed session must not touch the network")
	}
}

func TestSession_UpdateProfile_ReplacesCachedUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login/":
			_ = json.NewEncoder(w).Encode(LoginResponse{
				Access: "A1", Refresh: "R1",
				User: &User{ID: 1, Email: "alice@example.com", Name: "Alice"},
			})
		case "/api/auth/profile/":
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			var update ProfileUpdate
			_ = json.NewDecoder(r.Body).Decode(&update)
			contact := ""
			if update.ContactInfo != nil {
				contact = *update.ContactInfo
			}
			_ = json.NewEncoder(w).Encode(User{
				ID: 1, Email: "alice@example.com", Name: "Alice", IsInvestor: true,
				InvestorProfile: &InvestorProfile{ContactInfo: contact},
			})
		default:
			writeErr(w, http.StatusNotFound, "not found", "")
		}
	}))
	defer srv.Close()

	store := NewMemoryStore()
	session := NewSession(NewClient(srv.URL, store), store)
	if err := session.Login(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	contact := "+254700000000"
	if err := session.UpdateProfile(context.Background(), ProfileUpdate{ContactInfo: &contact}); err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	u := session.User()
	if u.InvestorProfile == nil || u.InvestorProfile.ContactInfo != contact {
		t.Fatalf("cached user not replaced: %+v", u)
	}
}

func TestSession_StateTransitions(t *testing.T) {
	srv := newAuthServer()
	defer srv.Close()
	session, _ := newTestSession(srv)

	if session.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated initially, got %v", session.State())
	}
	if err := session.Login(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.State() != StateAuthenticated {
		t.Fatalf("expected authenticated after login, got %v", session.State())
	}
	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if session.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after logout, got %v", session.State())
	}
}
