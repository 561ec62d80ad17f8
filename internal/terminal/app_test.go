package terminal

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/internal/navigation"
	"github.com/wolfman30/barber-booking/internal/session"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeClient struct {
	mu              sync.Mutex
	providerErr     error
	availabilityErr error
	created         []api.CreateAppointmentRequest
}

func (f *fakeClient) Authenticate(_ context.Context, creds api.Credentials) (*api.AuthResponse, error) {
	return &api.AuthResponse{User: api.User{ID: "u1", Name: "Jane", Email: creds.Email}, Token: "opaque-token"}, nil
}

func (f *fakeClient) ListProviders(context.Context) ([]api.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return []api.Provider{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob", AvatarURL: "https://cdn/bob.png"}}, nil
}

func (f *fakeClient) DayAvailability(context.Context, string, time.Time) ([]api.AvailabilityItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availabilityErr != nil {
		return nil, f.availabilityErr
	}
	return []api.AvailabilityItem{{Hour: 9, Available: true}, {Hour: 14, Available: false}}, nil
}

func (f *fakeClient) CreateAppointment(_ context.Context, req api.CreateAppointmentRequest) (*api.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &api.Appointment{ID: "a1", ProviderID: req.ProviderID, Date: req.Date}, nil
}

func runApp(t *testing.T, client *fakeClient, creds api.Credentials, input string) (*App, string) {
	t.Helper()
	var out bytes.Buffer
	app, err := New(client, session.New(logging.Default()), logging.Default(), Options{
		In:                  strings.NewReader(input),
		Out:                 &out,
		Credentials:         creds,
		Location:            brt,
		Now:                 func() time.Time { return time.Date(2024, time.March, 1, 8, 0, 0, 0, brt) },
		ClosePickerOnChange: true,
	})
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background()))
	return app, out.String()
}

var jane = api.Credentials{Email: "jane@example.com", Password: "secret"}

func TestAppBookingFlow(t *testing.T) {
	client := &fakeClient{}
	app, out := runApp(t, client, jane, "select 2\nhour 9\nconfirm\nok\nquit\n")

	require.Len(t, client.created, 1)
	assert.Equal(t, "p2", client.created[0].ProviderID)
	assert.True(t, client.created[0].Date.Equal(time.Date(2024, time.March, 1, 9, 0, 0, 0, brt)))

	assert.Contains(t, out, "2. Bob  <https://cdn/bob.png>")
	assert.Contains(t, out, "1. Alice  <assets/no-avatar.png>")
	assert.Contains(t, out, "Monday to Friday | 8h to 18h")
	assert.Contains(t, out, "1.Alice  [2.Bob]")
	assert.Contains(t, out, "In the morning: [09:00]")
	assert.Contains(t, out, "At afternoon: -14:00")
	assert.Contains(t, out, "Friday, March 1, 2024 at 09:00")
	assert.Equal(t, navigation.RouteProviders, app.Route())
}

func TestAppConfirmWithoutHourAlerts(t *testing.T) {
	client := &fakeClient{}
	_, out := runApp(t, client, jane, "select 1\nconfirm\nhour 14\nquit\n")

	assert.Empty(t, client.created)
	assert.Contains(t, out, "[!] Appointment create error")
	assert.Contains(t, out, "not available")
}

func TestAppDatePicker(t *testing.T) {
	_, out := runApp(t, &fakeClient{}, jane, "select 1\npicker\ndate 2024-03-05\nquit\n")

	assert.Contains(t, out, "Date: 2024-03-01  (picker open)")
	assert.Contains(t, out, "Date: 2024-03-05\n")
}

func TestAppSignInShell(t *testing.T) {
	app, out := runApp(t, &fakeClient{}, api.Credentials{}, "email jane@example.com\npassword secret\nsubmit\n")

	assert.Contains(t, out, "== Do your login ==")
	assert.Contains(t, out, "E-mail: jane@example.com")
	assert.Contains(t, out, "Password: ******")
	assert.Contains(t, out, "not available yet")
	assert.Equal(t, navigation.RouteSignIn, app.Route())
}

func TestAppSignsOutOnAuthFailure(t *testing.T) {
	client := &fakeClient{providerErr: &api.StatusError{StatusCode: http.StatusUnauthorized, Path: "/providers"}}
	app, out := runApp(t, client, jane, "")

	assert.Contains(t, out, "Signed out jane@example.com.")
	assert.Equal(t, navigation.RouteSignIn, app.Route())
}

func TestAppSignsOutOnSchedulingAuthFailure(t *testing.T) {
	client := &fakeClient{availabilityErr: &api.StatusError{StatusCode: http.StatusUnauthorized, Path: "/providers/p1/day-availability"}}
	app, out := runApp(t, client, jane, "select 1\n")

	assert.Contains(t, out, "Signed out jane@example.com.")
	assert.Contains(t, out, "== Do your login ==")
	assert.Equal(t, navigation.RouteSignIn, app.Route())
}

func TestAppBackAndUnknownCommand(t *testing.T) {
	app, out := runApp(t, &fakeClient{}, jane, "select 1\nback\ndance\nselect 9\n")

	assert.Contains(t, out, `unknown command "dance"`)
	assert.Contains(t, out, "pick a number between 1 and 2")
	assert.Equal(t, navigation.RouteProviders, app.Route())
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, session.New(nil), nil, Options{In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.Error(t, err)
	_, err = New(&fakeClient{}, nil, nil, Options{In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.Error(t, err)
	_, err = New(&fakeClient{}, session.New(nil), nil, Options{})
	assert.Error(t, err)
}
