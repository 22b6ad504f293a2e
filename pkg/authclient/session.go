package authclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// State is the session's position in the authentication lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the single source of truth for "who is logged in". It owns the
// credential pair in its TokenStore and the cached user record, and exposes
// every identity-affecting operation.
//
// Operations are serialized: a second call issued while one is in flight
// waits for the first to finish rather than racing it, so the last *issued*
// operation decides the final state, never the last network response to
// arrive. State reads (User, IsAuthenticated, IsBusy, State) do not wait on
// in-flight operations.
//
// A Session is not reusable after Close: every operation then fails with
// ErrSessionClosed and no state is mutated, which keeps a late-resolving
// call from writing to a session its owner has already discarded.
type Session struct {
	client *Client
	store  TokenStore
	log    zerolog.Logger

	// opMu serializes operations end to end; mu guards the fields below.
	opMu sync.Mutex
	mu   sync.RWMutex

	user     *User
	busy     bool
	closed   bool
	onChange func()
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for best-effort failures (logout).
func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// WithOnChange registers a callback invoked after every user or busy-flag
// change, outside any lock. Use it to trigger re-rendering or persistence in
// the consuming application.
func WithOnChange(fn func()) SessionOption {
	return func(s *Session) { s.onChange = fn }
}

// NewSession creates a Session around the given client and token store. The
// store should be the same one the client reads bearer tokens from.
func NewSession(client *Client, store TokenStore, opts ...SessionOption) *Session {
	s := &Session{
		client: client,
		store:  store,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// User returns the cached user record, nil when unauthenticated.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated reports whether a user is currently logged in.
func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// IsBusy reports whether an auth operation that toggles the busy flag is in
// flight. Deliberately, logout, OTP resend and the password operations never
// toggle it.
func (s *Session) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// State reports the session's lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.user != nil:
		return StateAuthenticated
	case s.busy:
		return StateAuthenticating
	default:
		return StateUnauthenticated
	}
}

// Close marks the session unusable. An operation already past its network
// call finishes without mutating state; subsequent operations fail fast.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.user = nil
	s.busy = false
	s.mu.Unlock()
	s.notify()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) setUser(u *User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.user = u
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setBusy(b bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.busy = b
	s.mu.Unlock()
	s.notify()
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Session) clearTokens() {
	_ = s.store.Delete(AccessTokenKey)
	_ = s.store.Delete(RefreshTokenKey)
}

// Initialize restores the session from stored credentials, once per process
// or page lifetime. With either token missing it leaves the session
// unauthenticated without touching the network. With both present it fetches
// the profile; on failure it spends exactly one refresh attempt and one
// retry, and when that fails too it clears both tokens. All failure modes
// collapse into the unauthenticated state; Initialize itself only errors
// when the session is closed.
func (s *Session) Initialize(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.setBusy(true)
	defer s.setBusy(false)

	access := s.store.Get(AccessTokenKey)
	refresh := s.store.Get(RefreshTokenKey)
	if access == "" || refresh == "" {
		return nil
	}

	user, err := s.client.GetProfile(ctx)
	if err == nil {
		s.setUser(user)
		return nil
	}

	refreshed, err := s.client.RefreshToken(ctx, refresh)
	if err != nil {
		s.clearTokens()
		s.setUser(nil)
		return nil
	}
	if err := s.store.Set(AccessTokenKey, refreshed.Access); err != nil {
		s.clearTokens()
		s.setUser(nil)
		return nil
	}

	user, err = s.client.GetProfile(ctx)
	if err != nil {
		s.clearTokens()
		s.setUser(nil)
		return nil
	}

	s.setUser(user)
	return nil
}

// Login authenticates, persists the returned token pair and caches the user.
// On failure the store and the cached user are left untouched and the error
// is returned unchanged.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.store.Set(AccessTokenKey, resp.Access); err != nil {
		return fmt.Errorf("authclient: persist access token: %w", err)
	}
	if err := s.store.Set(RefreshTokenKey, resp.Refresh); err != nil {
		return fmt.Errorf("authclient: persist refresh token: %w", err)
	}

	s.setUser(resp.User)
	return nil
}

// Register creates an account and returns the email for the OTP hand-off.
// Registration never authenticates: no tokens are stored and no user is
// cached until the account is verified and logged in.
func (s *Session) Register(ctx context.Context, data RegisterData) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return "", ErrSessionClosed
	}

	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.Register(ctx, data)
	if err != nil {
		return "", err
	}
	return resp.Email, nil
}

// VerifyOTP confirms the email address. It only unlocks the ability to log
// in; the caller still has to Login afterwards.
func (s *Session) VerifyOTP(ctx context.Context, email, otp string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.setBusy(true)
	defer s.setBusy(false)

	_, err := s.client.VerifyOTP(ctx, email, otp)
	return err
}

// ResendOTP requests a fresh verification code.
func (s *Session) ResendOTP(ctx context.Context, email string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err := s.client.ResendOTP(ctx, email)
	return err
}

// Logout informs the server best-effort and unconditionally clears local
// state: whatever the network does, the session never stays looking
// authenticated.
func (s *Session) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	if refresh := s.store.Get(RefreshTokenKey); refresh != "" {
		if _, err := s.client.Logout(ctx, refresh); err != nil {
			s.log.Warn().Err(err).Msg("remote logout failed")
		}
	}

	s.clearTokens()
	s.setUser(nil)
	return nil
}

// ForgotPassword starts the password reset flow.
func (s *Session) ForgotPassword(ctx context.Context, email string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err := s.client.ForgotPassword(ctx, email)
	return err
}

// ResetPassword completes the password reset flow.
func (s *Session) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err := s.client.ResetPassword(ctx, email, token, newPassword)
	return err
}

// ChangePassword rotates the authenticated user's password. The request is
// sent even when no access token is stored; the server's rejection comes
// back unchanged.
func (s *Session) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	_, err := s.client.ChangePassword(ctx, currentPassword, newPassword)
	return err
}

// UpdateProfile sends a partial profile update and replaces the cached user
// with the server's updated record.
func (s *Session) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	s.setBusy(true)
	defer s.setBusy(false)

	user, err := s.client.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	s.setUser(user)
	return nil
}

// RefreshUserProfile re-fetches the profile out of band, without toggling
// the busy flag; used after side effects elsewhere in the application.
func (s *Session) RefreshUserProfile(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.isClosed() {
		return ErrSessionClosed
	}

	user, err := s.client.GetProfile(ctx)
	if err != nil {
		return err
	}
	s.setUser(user)
	return nil
}
