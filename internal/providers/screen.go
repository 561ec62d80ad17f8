// Package providers implements the provider directory screen.
package providers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/internal/navigation"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

const (
	// EmptyMessage is rendered instead of the list when no provider exists.
	EmptyMessage = "There isn't any hairdresser"
	// DefaultAvatar is shown for providers without an avatar_url.
	DefaultAvatar = "assets/no-avatar.png"
)

// Meta lines shown on every provider row.
var rowMeta = []string{"Monday to Friday", "8h to 18h"}

// Directory fetches the provider list.
type Directory interface {
	ListProviders(ctx context.Context) ([]api.Provider, error)
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context)
}

// Row is the display form of one provider.
type Row struct {
	ID     string
	Name   string
	Avatar string
	Meta   []string
}

// Screen holds the directory list state.
type Screen struct {
	mu         sync.RWMutex
	providers  []api.Provider
	refreshing bool
	lastErr    error

	directory Directory
	session   SignOuter
	nav       navigation.Navigator
	logger    *logging.Logger
}

// NewScreen wires the screen to its collaborators.
func NewScreen(directory Directory, session SignOuter, nav navigation.Navigator, logger *logging.Logger) *Screen {
	if directory == nil {
		panic("providers: directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Screen{
		directory: directory,
		session:   session,
		nav:       nav,
		logger:    logger.With("screen", "providers"),
		providers: []api.Provider{},
	}
}

// Mount performs the initial directory load. An authorization failure signs
// the user out; any other failure leaves an empty list. The fetch error is
// returned after it has been handled.
func (s *Screen) Mount(ctx context.Context) error {
	providers, err := s.directory.ListProviders(ctx)
	if err != nil {
		s.handleFetchError(ctx, "initial load", err)
		return err
	}
	s.replace(providers)
	return nil
}

// Refresh re-requests the directory and replaces the list. The refreshing
// flag is set for the duration of the call and always cleared. A transient
// failure keeps the previous list.
func (s *Screen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.refreshing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	providers, err := s.directory.ListProviders(ctx)
	if err != nil {
		s.handleFetchError(ctx, "refresh", err)
		return err
	}
	s.replace(providers)
	return nil
}

// Select opens the scheduling screen for providerID.
func (s *Screen) Select(providerID string) error {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return errors.New("providers: provider id is required")
	}
	if s.nav != nil {
		s.nav.Navigate(navigation.RouteCreateAppointment, navigation.CreateAppointmentParams{ProviderID: providerID})
	}
	return nil
}

// Providers returns a copy of the current list.
func (s *Screen) Providers() []api.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.Provider{}, s.providers...)
}

// Rows returns the list in display form.
func (s *Screen) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]Row, 0, len(s.providers))
	for _, p := range s.providers {
		rows = append(rows, Row{
			ID:     p.ID,
			Name:   p.Name,
			Avatar: AvatarOf(p),
			Meta:   append([]string(nil), rowMeta...),
		})
	}
	return rows
}

// Empty reports whether the placeholder should be shown.
func (s *Screen) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.providers) == 0
}

// Refreshing reports whether a pull-to-refresh is in flight.
func (s *Screen) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// LastError returns the error of the most recent fetch, or nil.
func (s *Screen) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// AvatarOf returns the provider avatar or the default asset.
func AvatarOf(p api.Provider) string {
	if strings.TrimSpace(p.AvatarURL) == "" {
		return DefaultAvatar
	}
	return p.AvatarURL
}

func (s *Screen) replace(providers []api.Provider) {
	s.mu.Lock()
	s.providers = append([]api.Provider{}, providers...)
	s.lastErr = nil
	s.mu.Unlock()
	s.logger.Debug("providers loaded", "count", len(providers))
}

func (s *Screen) handleFetchError(ctx context.Context, phase string, err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if api.IsAuthFailure(err) {
		s.logger.WarnContext(ctx, "provider fetch rejected, signing out", "phase", phase, "status", api.StatusCode(err))
		if s.session != nil {
			s.session.SignOut(ctx)
		}
		return
	}
	s.logger.ErrorContext(ctx, "provider fetch failed", "phase", phase, "error", err)
}
