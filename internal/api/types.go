// Package api contains the booking REST API client and its wire types.
package api

import "time"

// Provider is a bookable service professional from the directory.
type Provider struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AvailabilityItem is one bookable hour for a provider on a given day.
type AvailabilityItem struct {
	Hour      int  `json:"hour"`
	Available bool `json:"available"`
}

// CreateAppointmentRequest is the POST /appointments body.
type CreateAppointmentRequest struct {
	ProviderID string    `json:"provider_id"`
	Date       time.Time `json:"date"`
}

// Appointment is the record returned after a successful create.
type Appointment struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Date       time.Time `json:"date"`
}

// Credentials are posted to /sessions.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the signed-in customer identity.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AuthResponse is returned by a successful session create.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
