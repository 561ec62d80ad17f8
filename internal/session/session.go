// Package session holds the signed-in customer identity for the lifetime of
// an app run. A Session is created at startup, initialized after a successful
// authentication, and torn down by SignOut.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

// ErrEmptyToken is returned by Init when the auth response carries no token.
var ErrEmptyToken = errors.New("session: token is required")

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	user      api.User
	token     string
	claims    jwt.RegisteredClaims
	signedIn  bool
	listeners []func(api.User)

	logger *logging.Logger
	now    func() time.Time
}

// New returns a signed-out session.
func New(logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{logger: logger, now: time.Now}
}

// Init stores the identity returned by the backend. Claims are read from the
// token without verifying its signature; the backend remains the authority.
// Opaque (non-JWT) tokens are accepted and simply carry no expiry.
func (s *Session) Init(auth *api.AuthResponse) error {
	if auth == nil || auth.Token == "" {
		return ErrEmptyToken
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(auth.Token, &claims); err != nil {
		s.logger.Debug("session token is not a JWT", "error", err)
		claims = jwt.RegisteredClaims{}
	}

	s.mu.Lock()
	s.user = auth.User
	s.token = auth.Token
	s.claims = claims
	s.signedIn = true
	s.mu.Unlock()

	s.logger.Info("session started", "user_id", auth.User.ID)
	return nil
}

// SignOut clears the identity and notifies listeners registered with
// OnSignOut. Calling it on a signed-out session is a no-op.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	if !s.signedIn {
		s.mu.Unlock()
		return
	}
	user := s.user
	s.user = api.User{}
	s.token = ""
	s.claims = jwt.RegisteredClaims{}
	s.signedIn = false
	listeners := append([]func(api.User){}, s.listeners...)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session ended", "user_id", user.ID)
	for _, fn := range listeners {
		fn(user)
	}
}

// OnSignOut registers fn to run after every sign-out.
func (s *Session) OnSignOut(fn func(api.User)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// User returns the signed-in user.
func (s *Session) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.signedIn
}

// SignedIn reports whether the session holds a live identity.
func (s *Session) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedIn && !s.expiredLocked()
}

// Token satisfies api.TokenSource. Expired tokens are withheld so the
// backend answers 401 instead of acting on a stale identity.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.signedIn || s.expiredLocked() {
		return ""
	}
	return s.token
}

// ExpiresAt returns the token expiry when the token carried one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return s.claims.ExpiresAt.Time, true
}

func (s *Session) expiredLocked() bool {
	if s.claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(s.claims.ExpiresAt.Time)
}

var _ api.TokenSource = (*Session)(nil)
