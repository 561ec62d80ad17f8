package backend

import (
	"context"
	"time"

	"github.com/wolfman30/barber-booking/internal/api"
)

// Store persists users and appointments. Implementations must reject a
// second appointment for the same provider and time with ErrSlotTaken.
type Store interface {
	CreateUser(ctx context.Context, user User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateAppointment(ctx context.Context, appt api.Appointment) error
	// AppointmentsBetween returns the provider's appointments in [from, to).
	AppointmentsBetween(ctx context.Context, providerID string, from, to time.Time) ([]api.Appointment, error)
}
