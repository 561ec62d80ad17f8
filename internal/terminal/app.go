// Package terminal is a line-oriented front end for the booking screens. It
// reads one command per line and re-renders the current screen after each.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/barber-booking/internal/api"
	"github.com/wolfman30/barber-booking/internal/navigation"
	"github.com/wolfman30/barber-booking/internal/notify"
	"github.com/wolfman30/barber-booking/internal/providers"
	"github.com/wolfman30/barber-booking/internal/scheduling"
	"github.com/wolfman30/barber-booking/internal/session"
	"github.com/wolfman30/barber-booking/internal/signin"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

const dateLayout = "2006-01-02"

// BookingClient is the backend surface the terminal needs.
type BookingClient interface {
	scheduling.BookingAPI
	Authenticate(ctx context.Context, creds api.Credentials) (*api.AuthResponse, error)
}

// Options configures an App.
type Options struct {
	In  io.Reader
	Out io.Writer
	// Credentials, when complete, sign in at startup.
	Credentials         api.Credentials
	Location            *time.Location
	Now                 func() time.Time
	ClosePickerOnChange bool
	Observer            scheduling.Observer
}

// App owns the navigation stack and the screen mounted on top of it.
type App struct {
	client  BookingClient
	session *session.Session
	nav     *navigation.Stack
	alerter notify.Alerter
	opts    Options
	logger  *logging.Logger
	out     io.Writer

	route     navigation.Route
	depth     int
	signIn    *signin.Screen
	directory *providers.Screen
	schedule  *scheduling.Screen
	created   navigation.AppointmentCreatedParams
}

func New(client BookingClient, sess *session.Session, logger *logging.Logger, opts Options) (*App, error) {
	if client == nil {
		return nil, errors.New("terminal: client is required")
	}
	if sess == nil {
		return nil, errors.New("terminal: session is required")
	}
	if opts.In == nil || opts.Out == nil {
		return nil, errors.New("terminal: input and output are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{
		client:  client,
		session: sess,
		nav:     navigation.NewStack(navigation.RouteSignIn),
		alerter: notify.NewWriterAlerter(opts.Out, logger),
		opts:    opts,
		logger:  logger,
		out:     opts.Out,
	}
	sess.OnSignOut(func(u api.User) {
		a.nav.Reset(navigation.RouteSignIn)
		fmt.Fprintf(a.out, "Signed out %s.\n", u.Email)
	})
	return a, nil
}

// Run processes commands until quit, end of input, or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.opts.Credentials.Email != "" && a.opts.Credentials.Password != "" {
		if err := a.authenticate(ctx, a.opts.Credentials); err != nil {
			fmt.Fprintf(a.out, "Sign-in failed: %v\n", err)
		}
	}
	a.sync(ctx)

	scanner := bufio.NewScanner(a.opts.In)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			if err := ctx.Err(); err != nil {
				return err
			}
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := a.handle(ctx, line); quit {
			return nil
		}
		a.sync(ctx)
	}
}

// Route returns the route currently on top of the stack.
func (a *App) Route() navigation.Route {
	return a.nav.Current().Route
}

func (a *App) authenticate(ctx context.Context, creds api.Credentials) error {
	resp, err := a.client.Authenticate(ctx, creds)
	if err != nil {
		return err
	}
	if err := a.session.Init(resp); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "signed in", "user_id", resp.User.ID)
	a.nav.Reset(navigation.RouteProviders)
	return nil
}

// sync mounts the screen for the top of the stack if it changed, then
// renders it. Mounting may navigate again (a sign-out, for instance), so it
// loops until the stack settles.
func (a *App) sync(ctx context.Context) {
	for i := 0; i < 4; i++ {
		cur := a.nav.Current()
		depth := a.nav.Depth()
		if cur.Route == a.route && depth == a.depth {
			break
		}
		a.route, a.depth = cur.Route, depth
		a.mount(ctx, cur)
	}
	a.render()
}

func (a *App) mount(ctx context.Context, entry navigation.Entry) {
	switch entry.Route {
	case navigation.RouteSignIn:
		a.signIn = signin.NewScreen(a.logger)
		a.directory = nil
		a.schedule = nil
	case navigation.RouteProviders:
		a.schedule = nil
		if a.directory == nil {
			a.directory = providers.NewScreen(a.client, a.session, a.nav, a.logger)
			// The screen logs and degrades on failure and signs out on a
			// rejected token; sync picks up the resulting route change.
			_ = a.directory.Mount(ctx)
		}
	case navigation.RouteCreateAppointment:
		params, _ := entry.Params.(navigation.CreateAppointmentParams)
		screen, err := scheduling.NewScreen(a.client, a.nav, a.alerter, params, a.logger, scheduling.Options{
			Now:                 a.opts.Now,
			Location:            a.opts.Location,
			ClosePickerOnChange: a.opts.ClosePickerOnChange,
			Observer:            a.opts.Observer,
			Session:             a.session,
		})
		if err != nil {
			fmt.Fprintf(a.out, "Cannot open scheduling: %v\n", err)
			a.nav.GoBack()
			return
		}
		a.schedule = screen
		// Auth failures sign out inside the screen; anything else leaves
		// empty lists.
		_ = screen.Mount(ctx)
	case navigation.RouteAppointmentCreated:
		a.schedule = nil
		a.created, _ = entry.Params.(navigation.AppointmentCreatedParams)
	}
}

func (a *App) handle(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	cmd = strings.ToLower(cmd)
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		a.renderHelp()
		return false
	case "logout":
		a.session.SignOut(ctx)
		return false
	}

	var err error
	switch a.route {
	case navigation.RouteSignIn:
		err = a.handleSignIn(ctx, cmd, arg)
	case navigation.RouteProviders:
		err = a.handleProviders(ctx, cmd, arg)
	case navigation.RouteCreateAppointment:
		err = a.handleSchedule(ctx, cmd, arg)
	case navigation.RouteAppointmentCreated:
		err = a.handleCreated(cmd)
	}
	if err != nil {
		fmt.Fprintf(a.out, "%v\n", err)
	}
	return false
}

func (a *App) handleSignIn(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case signin.FieldEmail, signin.FieldPassword:
		return a.signIn.Set(cmd, arg)
	case "submit":
		if err := a.signIn.Submit(ctx); errors.Is(err, signin.ErrNotImplemented) {
			return errors.New("sign-in from this screen is not available yet; set BOOKING_EMAIL and BOOKING_PASSWORD and restart")
		} else if err != nil {
			return err
		}
		return nil
	}
	return unknown(cmd)
}

func (a *App) handleProviders(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "refresh":
		return a.directory.Refresh(ctx)
	case "select":
		id, err := pick(a.directory.Providers(), arg)
		if err != nil {
			return err
		}
		return a.directory.Select(id)
	case "show":
		return nil
	}
	return unknown(cmd)
}

func (a *App) handleSchedule(ctx context.Context, cmd, arg string) error {
	s := a.schedule
	if s == nil {
		return errors.New("no scheduling screen mounted")
	}
	switch cmd {
	case "provider":
		id, err := pick(s.State().Providers, arg)
		if err != nil {
			return err
		}
		return quiet(s.SelectProvider(ctx, id))
	case "picker":
		s.ToggleDatePicker()
		return nil
	case "date":
		date, err := time.ParseInLocation(dateLayout, arg, a.opts.Location)
		if err != nil {
			return fmt.Errorf("date must look like %s", dateLayout)
		}
		return quiet(s.ChangeDate(ctx, &date))
	case "dismiss":
		return s.ChangeDate(ctx, nil)
	case "hour":
		hour, err := strconv.Atoi(strings.TrimSuffix(arg, ":00"))
		if err != nil {
			return errors.New("hour must be a number like 9 or 14")
		}
		return s.SelectHour(hour)
	case "confirm":
		// Failures are already shown as alerts.
		_, _ = s.Submit(ctx)
		return nil
	case "back":
		s.GoBack()
		return nil
	case "refresh":
		return quiet(s.RefreshAvailability(ctx))
	case "show":
		return nil
	}
	return unknown(cmd)
}

func (a *App) handleCreated(cmd string) error {
	switch cmd {
	case "ok":
		a.nav.Reset(navigation.RouteProviders)
		return nil
	case "show":
		return nil
	}
	return unknown(cmd)
}

// pick resolves a 1-based list position or a provider id.
func pick(list []api.Provider, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("which one? give a number or an id")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(list) {
			return "", fmt.Errorf("pick a number between 1 and %d", len(list))
		}
		return list[n-1].ID, nil
	}
	for _, p := range list {
		if p.ID == arg {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", arg)
}

// quiet hides availability errors the screen has already degraded from.
func quiet(err error) error {
	if err == nil || errors.Is(err, scheduling.ErrStale) {
		return nil
	}
	return fmt.Errorf("could not load availability: %v", err)
}

func unknown(cmd string) error {
	return fmt.Errorf("unknown command %q, type help", cmd)
}
