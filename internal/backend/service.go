package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/internal/observability/metrics"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

// Appointment and login outcomes reported to metrics.
const (
	resultCreated  = "created"
	resultRejected = "rejected"
	resultError    = "error"
	resultSuccess  = "success"
	resultDenied   = "denied"
)

// ServiceConfig tunes business hours and token issuance.
type ServiceConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Location is where business hours apply; defaults to time.Local.
	Location  *time.Location
	OpenHour  int
	CloseHour int
	// Now drives the past-date rules. Token expiry always uses wall time.
	Now     func() time.Time
	Metrics *metrics.BackendMetrics
}

// Service holds the booking rules on top of a Store.
type Service struct {
	store     Store
	tokens    *TokenIssuer
	loc       *time.Location
	openHour  int
	closeHour int
	now       func() time.Time
	metrics   *metrics.BackendMetrics
	logger    *logging.Logger
}

// NewService validates cfg and builds the booking rules over store.
func NewService(store Store, cfg ServiceConfig, logger *logging.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("backend: store is required")
	}
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	if cfg.OpenHour < 0 || cfg.CloseHour > 24 || cfg.OpenHour >= cfg.CloseHour {
		return nil, fmt.Errorf("backend: invalid business hours %d-%d", cfg.OpenHour, cfg.CloseHour)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:     store,
		tokens:    tokens,
		loc:       cfg.Location,
		openHour:  cfg.OpenHour,
		closeHour: cfg.CloseHour,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
		logger:    logger,
	}, nil
}

// RegisterUser stores a new account with a bcrypt password hash.
func (s *Service) RegisterUser(ctx context.Context, name, email, password, avatarURL string) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, invalid("Name, email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("backend: hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		AvatarURL:    strings.TrimSpace(avatarURL),
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, invalid("Email address already used")
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks the credentials and issues a session token.
func (s *Service) Authenticate(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error) {
	user, err := s.store.UserByEmail(ctx, creds.Email)
	if errors.Is(err, ErrNotFound) {
		s.metrics.ObserveLogin(resultDenied)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.ObserveLogin(resultError)
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		s.metrics.ObserveLogin(resultDenied)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.ObserveLogin(resultError)
		return nil, fmt.Errorf("backend: issue token: %w", err)
	}
	s.metrics.ObserveLogin(resultSuccess)
	return &api.AuthResponse{User: user.Public(), Token: token}, nil
}

// Providers lists every user except the caller.
func (s *Service) Providers(ctx context.Context, userID string) ([]api.Provider, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	providers := make([]api.Provider, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		providers = append(providers, u.Provider())
	}
	return providers, nil
}

// DayAvailability returns one item per business hour of the given day. An
// hour is available when it is not booked and has not started yet.
func (s *Service) DayAvailability(ctx context.Context, providerID string, year, month, day int) ([]api.AvailabilityItem, error) {
	start, err := s.dayStart(year, month, day)
	if err != nil {
		return nil, err
	}
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}

	booked, err := s.store.AppointmentsBetween(ctx, providerID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]struct{}, len(booked))
	for _, a := range booked {
		taken[a.Date.Unix()] = struct{}{}
	}

	now := s.now()
	items := make([]api.AvailabilityItem, 0, s.closeHour-s.openHour)
	for hour := s.openHour; hour < s.closeHour; hour++ {
		slot := time.Date(start.Year(), start.Month(), start.Day(), hour, 0, 0, 0, s.loc)
		_, isTaken := taken[slot.Unix()]
		items = append(items, api.AvailabilityItem{
			Hour:      hour,
			Available: !isTaken && slot.After(now),
		})
	}
	return items, nil
}

// CreateAppointment books the hour containing req.Date for userID.
func (s *Service) CreateAppointment(ctx context.Context, userID string, req api.CreateAppointmentRequest) (*api.Appointment, error) {
	appt, err := s.createAppointment(ctx, userID, req)
	switch {
	case err == nil:
		s.metrics.ObserveAppointment(resultCreated)
	case isValidation(err):
		s.metrics.ObserveAppointment(resultRejected)
	default:
		s.metrics.ObserveAppointment(resultError)
	}
	return appt, err
}

func (s *Service) createAppointment(ctx context.Context, userID string, req api.CreateAppointmentRequest) (*api.Appointment, error) {
	if strings.TrimSpace(req.ProviderID) == "" || req.Date.IsZero() {
		return nil, invalid("provider_id and date are required")
	}
	local := req.Date.In(s.loc)
	slot := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, s.loc)

	if !slot.After(s.now()) {
		return nil, invalid("You can't create an appointment on a past date")
	}
	if req.ProviderID == userID {
		return nil, invalid("You can't create an appointment with yourself")
	}
	if slot.Hour() < s.openHour || slot.Hour() >= s.closeHour {
		return nil, invalid(fmt.Sprintf("You can only create appointments between %02d:00 and %02d:00", s.openHour, s.closeHour-1))
	}
	if _, err := s.provider(ctx, req.ProviderID); err != nil {
		return nil, err
	}

	appt := api.Appointment{
		ID:         uuid.NewString(),
		ProviderID: req.ProviderID,
		UserID:     userID,
		Date:       slot,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, invalid("This appointment is already booked")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "appointment booked", "appointment_id", appt.ID, "provider_id", appt.ProviderID, "user_id", userID)
	return &appt, nil
}

func (s *Service) provider(ctx context.Context, providerID string) (*User, error) {
	user, err := s.store.UserByID(ctx, providerID)
	if errors.Is(err, ErrNotFound) {
		return nil, invalid("Provider not found")
	}
	return user, err
}

func (s *Service) dayStart(year, month, day int) (time.Time, error) {
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.loc)
	if month < 1 || month > 12 || start.Day() != day || start.Month() != time.Month(month) {
		return time.Time{}, invalid("year, month and day must form a valid date")
	}
	return start, nil
}

func isValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
