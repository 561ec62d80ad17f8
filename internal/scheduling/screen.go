// Package scheduling implements the appointment scheduling screen: provider,
// date and hour selection over a day-availability fetch, and submission.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/internal/navigation"
	"github.com/wolfman30/barber-booking/internal/notify"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

var (
	// ErrNoHourSelected is returned by Submit before any hour was chosen.
	ErrNoHourSelected = errors.New("scheduling: no hour selected")
	// ErrHourUnavailable is returned when the hour is not bookable in the
	// current availability set.
	ErrHourUnavailable = errors.New("scheduling: hour is not available")
)

// Screen copy.
const (
	HeaderTitle    = "Schedule"
	MorningTitle   = "In the morning"
	AfternoonTitle = "At afternoon"

	createErrorTitle    = "Appointment create error"
	createErrorMessage  = "An error happened on appointment creating, try again."
	hourRequiredMessage = "Select an available hour before confirming."
	submissionCreated   = "created"
	submissionFailed    = "failed"
	submissionRejected  = "rejected"
)

// BookingAPI is the slice of the backend the screen talks to.
type BookingAPI interface {
	AvailabilityFetcher
	ListProviders(ctx context.Context) ([]api.Provider, error)
	CreateAppointment(ctx context.Context, req api.CreateAppointmentRequest) (*api.Appointment, error)
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context)
}

// Observer receives scheduling outcomes, typically metrics.
type Observer interface {
	ObserveStaleDiscarded()
	ObserveSubmission(result string)
}

// Options tunes platform and clock behavior.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Location is the zone appointments are booked in; defaults to time.Local.
	Location *time.Location
	// ClosePickerOnChange hides the date picker whenever it reports a change,
	// including a dismissal.
	ClosePickerOnChange bool
	Observer            Observer
	// Session is signed out when the backend rejects the token (401/403).
	Session SignOuter
}

// State is a snapshot of everything the screen renders.
type State struct {
	Providers          []api.Provider
	InitialScrollIndex int
	SelectedProviderID string
	SelectedDate       time.Time
	SelectedHour       int
	HourSelected       bool
	DatePickerVisible  bool
	Availability       []api.AvailabilityItem
	Morning            []Slot
	Afternoon          []Slot
}

// Screen is safe for concurrent use; network calls run outside its lock.
type Screen struct {
	mu                 sync.Mutex
	routeProviderID    string
	providers          []api.Provider
	initialScrollIndex int
	selectedProviderID string
	selectedDate       time.Time
	selectedHour       int
	hourSelected       bool
	datePickerVisible  bool
	availability       []api.AvailabilityItem
	morning            []Slot
	afternoon          []Slot

	client   BookingAPI
	coord    *Coordinator
	nav      navigation.Navigator
	alerter  notify.Alerter
	observer Observer
	opts     Options
	logger   *logging.Logger
}

// NewScreen builds the screen for the provider carried by params.
func NewScreen(client BookingAPI, nav navigation.Navigator, alerter notify.Alerter, params navigation.CreateAppointmentParams, logger *logging.Logger, opts Options) (*Screen, error) {
	if client == nil {
		return nil, errors.New("scheduling: booking api is required")
	}
	providerID := strings.TrimSpace(params.ProviderID)
	if providerID == "" {
		return nil, errors.New("scheduling: provider id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if alerter == nil {
		alerter = &notify.Recorder{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Screen{
		routeProviderID:    providerID,
		providers:          []api.Provider{},
		selectedProviderID: providerID,
		selectedDate:       opts.Now().In(opts.Location),
		availability:       []api.AvailabilityItem{},
		morning:            []Slot{},
		afternoon:          []Slot{},
		client:             client,
		coord:              NewCoordinator(client, opts.Location),
		nav:                nav,
		alerter:            alerter,
		observer:           observer,
		opts:               opts,
		logger:             logger.With("screen", "scheduling"),
	}, nil
}

// Mount loads the provider directory and the initial availability
// concurrently. A rejected token signs the session out; other failures
// degrade to empty lists. The first error is returned for callers that want
// to surface it.
func (s *Screen) Mount(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.LoadProviders(ctx) })
	g.Go(func() error {
		if err := s.RefreshAvailability(ctx); err != nil && !errors.Is(err, ErrStale) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// LoadProviders fetches the directory and recomputes the initial scroll
// index.
func (s *Screen) LoadProviders(ctx context.Context) error {
	providers, err := s.client.ListProviders(ctx)
	if err != nil {
		s.handleFetchError(ctx, "provider directory", err)
		providers = []api.Provider{}
	}

	s.mu.Lock()
	s.providers = append([]api.Provider{}, providers...)
	s.initialScrollIndex = ScrollIndex(s.providers, s.routeProviderID)
	s.mu.Unlock()
	return err
}

// RefreshAvailability refetches availability for the current selection.
func (s *Screen) RefreshAvailability(ctx context.Context) error {
	s.mu.Lock()
	req := s.beginLocked(ctx)
	s.mu.Unlock()
	return s.run(ctx, req)
}

// SelectProvider switches the provider axis and refetches availability.
func (s *Screen) SelectProvider(ctx context.Context, providerID string) error {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return errors.New("scheduling: provider id is required")
	}
	s.mu.Lock()
	s.selectedProviderID = providerID
	req := s.beginLocked(ctx)
	s.mu.Unlock()
	return s.run(ctx, req)
}

// ToggleDatePicker shows or hides the date picker.
func (s *Screen) ToggleDatePicker() {
	s.mu.Lock()
	s.datePickerVisible = !s.datePickerVisible
	s.mu.Unlock()
}

// ChangeDate handles a date picker event. A nil date is a dismissal. A new
// date replaces the selection and refetches availability.
func (s *Screen) ChangeDate(ctx context.Context, date *time.Time) error {
	s.mu.Lock()
	if s.opts.ClosePickerOnChange {
		s.datePickerVisible = false
	}
	if date == nil {
		s.mu.Unlock()
		return nil
	}
	s.selectedDate = date.In(s.opts.Location)
	req := s.beginLocked(ctx)
	s.mu.Unlock()
	return s.run(ctx, req)
}

// SelectHour updates the hour axis. Only hours present and available in the
// current set can be chosen.
func (s *Screen) SelectHour(hour int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !IsAvailable(s.availability, hour) {
		return fmt.Errorf("%w: %s", ErrHourUnavailable, FormatHour(hour))
	}
	s.selectedHour = hour
	s.hourSelected = true
	return nil
}

// Submit creates the appointment for the current selection. On success it
// navigates to the confirmation screen; on failure it alerts the user and
// leaves the selection untouched.
func (s *Screen) Submit(ctx context.Context) (*api.Appointment, error) {
	s.mu.Lock()
	hour, selected := s.selectedHour, s.hourSelected
	available := IsAvailable(s.availability, hour)
	payload := api.CreateAppointmentRequest{
		ProviderID: s.selectedProviderID,
		Date:       AppointmentTime(s.selectedDate, hour, s.opts.Location),
	}
	s.mu.Unlock()

	var guardErr error
	switch {
	case !selected:
		guardErr = ErrNoHourSelected
	case !available:
		guardErr = fmt.Errorf("%w: %s", ErrHourUnavailable, FormatHour(hour))
	}
	if guardErr != nil {
		s.observer.ObserveSubmission(submissionRejected)
		s.alerter.Alert(ctx, notify.Alert{Title: createErrorTitle, Message: hourRequiredMessage})
		return nil, guardErr
	}

	appt, err := s.client.CreateAppointment(ctx, payload)
	if err != nil {
		s.observer.ObserveSubmission(submissionFailed)
		s.logger.ErrorContext(ctx, "appointment create failed", "provider_id", payload.ProviderID, "status", api.StatusCode(err), "error", err)
		s.alerter.Alert(ctx, notify.Alert{Title: createErrorTitle, Message: createErrorMessage})
		s.signOutOnAuthFailure(ctx, "appointment create", err)
		return nil, err
	}

	s.observer.ObserveSubmission(submissionCreated)
	s.logger.InfoContext(ctx, "appointment created", "provider_id", payload.ProviderID, "appointment_id", appt.ID)
	if s.nav != nil {
		s.nav.Navigate(navigation.RouteAppointmentCreated, navigation.AppointmentCreatedParams{Date: payload.Date.UnixMilli()})
	}
	return appt, nil
}

// GoBack leaves the screen.
func (s *Screen) GoBack() bool {
	if s.nav == nil {
		return false
	}
	return s.nav.GoBack()
}

// State returns a snapshot of the screen.
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Providers:          append([]api.Provider{}, s.providers...),
		InitialScrollIndex: s.initialScrollIndex,
		SelectedProviderID: s.selectedProviderID,
		SelectedDate:       s.selectedDate,
		SelectedHour:       s.selectedHour,
		HourSelected:       s.hourSelected,
		DatePickerVisible:  s.datePickerVisible,
		Availability:       append([]api.AvailabilityItem{}, s.availability...),
		Morning:            append([]Slot{}, s.morning...),
		Afternoon:          append([]Slot{}, s.afternoon...),
	}
}

// ScrollIndex returns the position of providerID in providers, or 0.
func ScrollIndex(providers []api.Provider, providerID string) int {
	index := 0
	for i, p := range providers {
		if p.ID == providerID {
			index = i
		}
	}
	return index
}

// AppointmentTime combines the calendar day of date with hour at minute 0
// in loc.
func AppointmentTime(date time.Time, hour int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, hour, 0, 0, 0, loc)
}

// beginLocked discards the current availability set and starts a request
// for the current selection. Callers hold s.mu.
func (s *Screen) beginLocked(ctx context.Context) *Request {
	s.applyLocked([]api.AvailabilityItem{}, false)
	return s.coord.Begin(ctx, KeyFor(s.selectedProviderID, s.selectedDate))
}

func (s *Screen) run(ctx context.Context, req *Request) error {
	res, err := req.Do()
	if errors.Is(err, ErrStale) {
		s.observer.ObserveStaleDiscarded()
		s.logger.DebugContext(ctx, "stale availability discarded", "provider_id", req.Key().ProviderID, "generation", req.Generation())
		return err
	}

	s.mu.Lock()
	if !s.coord.IsCurrent(res.Generation) {
		s.mu.Unlock()
		s.observer.ObserveStaleDiscarded()
		return ErrStale
	}
	if err != nil {
		s.applyLocked([]api.AvailabilityItem{}, true)
		s.mu.Unlock()
		s.handleFetchError(ctx, "availability", err, "provider_id", res.Key.ProviderID)
		return err
	}
	s.applyLocked(res.Items, true)
	s.mu.Unlock()
	return nil
}

// handleFetchError logs a failed background fetch. Callers must not hold
// s.mu: signing out runs the session's listeners.
func (s *Screen) handleFetchError(ctx context.Context, phase string, err error, attrs ...any) {
	if s.signOutOnAuthFailure(ctx, phase, err) {
		return
	}
	s.logger.ErrorContext(ctx, phase+" fetch failed", append(attrs, "error", err)...)
}

// signOutOnAuthFailure ends the session when err is a token rejection and
// reports whether it did.
func (s *Screen) signOutOnAuthFailure(ctx context.Context, phase string, err error) bool {
	if !api.IsAuthFailure(err) {
		return false
	}
	s.logger.WarnContext(ctx, "request rejected, signing out", "phase", phase, "status", api.StatusCode(err))
	if s.opts.Session != nil {
		s.opts.Session.SignOut(ctx)
	}
	return true
}

// applyLocked replaces the availability set and its partition. With
// revalidate set, a selected hour that is no longer bookable is cleared.
func (s *Screen) applyLocked(items []api.AvailabilityItem, revalidate bool) {
	if items == nil {
		items = []api.AvailabilityItem{}
	}
	s.availability = append([]api.AvailabilityItem{}, items...)
	s.morning, s.afternoon = Partition(s.availability)
	if revalidate && s.hourSelected && !IsAvailable(s.availability, s.selectedHour) {
		s.hourSelected = false
	}
}

type nopObserver struct{}

func (nopObserver) ObserveStaleDiscarded()   {}
func (nopObserver) ObserveSubmission(string) {}
