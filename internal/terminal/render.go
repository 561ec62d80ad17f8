package terminal

import (
	"fmt"
	"strings"

	"github.com/wolfman30/barber-booking/internal/navigation"
	"github.com/wolfman30/barber-booking/internal/providers"
	"github.com/wolfman30/barber-booking/internal/scheduling"
	"github.com/wolfman30/barber-booking/internal/signin"
)

const providersTitle = "Hairdressers"

func (a *App) render() {
	fmt.Fprintln(a.out)
	switch a.route {
	case navigation.RouteSignIn:
		a.renderSignIn()
	case navigation.RouteProviders:
		a.renderProviders()
	case navigation.RouteCreateAppointment:
		a.renderSchedule()
	case navigation.RouteAppointmentCreated:
		a.renderCreated()
	}
}

func (a *App) renderSignIn() {
	s := a.signIn
	password := ""
	if s.HasPassword() {
		password = "******"
	}
	fmt.Fprintf(a.out, "== %s ==\n", signin.Title)
	fmt.Fprintf(a.out, "  %s: %s\n", signin.EmailLabel, s.Email())
	fmt.Fprintf(a.out, "  %s: %s\n", signin.PasswordLabel, password)
	fmt.Fprintf(a.out, "  [%s] submit\n", signin.SubmitLabel)
}

func (a *App) renderProviders() {
	s := a.directory
	fmt.Fprintf(a.out, "== %s ==\n", providersTitle)
	if s.Empty() {
		fmt.Fprintf(a.out, "  %s\n", providers.EmptyMessage)
		return
	}
	for i, row := range s.Rows() {
		fmt.Fprintf(a.out, "  %d. %s  <%s>\n", i+1, row.Name, row.Avatar)
		fmt.Fprintf(a.out, "     %s\n", strings.Join(row.Meta, " | "))
	}
}

func (a *App) renderSchedule() {
	st := a.schedule.State()
	fmt.Fprintf(a.out, "== %s ==\n", scheduling.HeaderTitle)

	names := make([]string, 0, len(st.Providers))
	for i, p := range st.Providers {
		name := fmt.Sprintf("%d.%s", i+1, p.Name)
		if p.ID == st.SelectedProviderID {
			name = "[" + name + "]"
		}
		names = append(names, name)
	}
	fmt.Fprintf(a.out, "  %s\n", strings.Join(names, "  "))

	picker := ""
	if st.DatePickerVisible {
		picker = "  (picker open)"
	}
	fmt.Fprintf(a.out, "  Date: %s%s\n", st.SelectedDate.Format(dateLayout), picker)

	fmt.Fprintf(a.out, "  %s: %s\n", scheduling.MorningTitle, a.slotLine(st, st.Morning))
	fmt.Fprintf(a.out, "  %s: %s\n", scheduling.AfternoonTitle, a.slotLine(st, st.Afternoon))
}

// slotLine marks available hours plainly, unavailable ones with a dash and
// the selected hour in brackets.
func (a *App) slotLine(st scheduling.State, slots []scheduling.Slot) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		label := slot.HourFormatted
		switch {
		case st.HourSelected && slot.Hour == st.SelectedHour:
			label = "[" + label + "]"
		case !slot.Available:
			label = "-" + label
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func (a *App) renderCreated() {
	when := a.created.Time(a.opts.Location)
	fmt.Fprintln(a.out, "== Appointment created ==")
	fmt.Fprintf(a.out, "  %s\n", when.Format("Monday, January 2, 2006 at 15:04"))
	fmt.Fprintln(a.out, "  type ok to go back to the list")
}

func (a *App) renderHelp() {
	fmt.Fprintln(a.out, "Commands: help, quit, logout")
	switch a.route {
	case navigation.RouteSignIn:
		fmt.Fprintln(a.out, "  email <address>, password <secret>, submit")
	case navigation.RouteProviders:
		fmt.Fprintln(a.out, "  refresh, select <n|id>")
	case navigation.RouteCreateAppointment:
		fmt.Fprintln(a.out, "  provider <n|id>, picker, date <YYYY-MM-DD>, dismiss, hour <H>, confirm, refresh, back")
	case navigation.RouteAppointmentCreated:
		fmt.Fprintln(a.out, "  ok")
	}
}
