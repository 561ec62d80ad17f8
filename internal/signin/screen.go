// Package signin holds the sign-in screen. It collects credentials but does
// not authenticate yet.
package signin

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wolfman30/barber-booking/pkg/logging"
)

// ErrNotImplemented is returned by Submit until sign-in is wired to the
// session endpoint.
var ErrNotImplemented = errors.New("signin: not implemented")

// Screen copy.
const (
	Title         = "Do your login"
	EmailLabel    = "E-mail"
	PasswordLabel = "Password"
	SubmitLabel   = "Sign in"
)

// Field names accepted by Set.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Screen keeps the typed credentials.
type Screen struct {
	mu       sync.Mutex
	email    string
	password string
	logger   *logging.Logger
}

// NewScreen returns an empty sign-in form.
func NewScreen(logger *logging.Logger) *Screen {
	if logger == nil {
		logger = logging.Default()
	}
	return &Screen{logger: logger.With("screen", "signin")}
}

// Set updates a labeled field.
func (s *Screen) Set(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldEmail:
		s.email = strings.TrimSpace(value)
	case FieldPassword:
		s.password = value
	default:
		return errors.New("signin: unknown field " + field)
	}
	return nil
}

// Email returns the typed e-mail.
func (s *Screen) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// HasPassword reports whether a password was typed. The value itself is
// never exposed for rendering.
func (s *Screen) HasPassword() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.password != ""
}

// Submit always fails with ErrNotImplemented.
func (s *Screen) Submit(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sign-in submitted", "email_set", s.Email() != "")
	return ErrNotImplemented
}
