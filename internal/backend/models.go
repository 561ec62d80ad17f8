// Package backend implements the development booking server: sessions,
// the provider directory, day availability and appointment creation.
package backend

import (
	"errors"
	"strings"

	"github.com/wolfman30/barber-booking/internal/api"
)

var (
	// ErrNotFound is returned by stores for a missing user.
	ErrNotFound = errors.New("backend: not found")
	// ErrSlotTaken is returned by stores when the provider already has an
	// appointment at that time.
	ErrSlotTaken = errors.New("backend: slot already booked")
	// ErrEmailTaken is returned by stores for a duplicate e-mail.
	ErrEmailTaken = errors.New("backend: email already registered")
	// ErrInvalidCredentials is returned for an unknown e-mail or wrong password.
	ErrInvalidCredentials = errors.New("backend: incorrect email/password combination")
)

// ValidationError is a request the caller can fix. Handlers answer 400 with
// its message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(message string) error { return &ValidationError{Message: message} }

// User is a stored account. Every user can be booked as a provider.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PasswordHash string `json:"password_hash"`
}

// Public drops the password hash.
func (u User) Public() api.User {
	return api.User{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}

// Provider is the directory view of the user.
func (u User) Provider() api.Provider {
	return api.Provider{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
