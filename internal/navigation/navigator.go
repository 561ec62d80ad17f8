// Package navigation models the screen stack the booking screens move
// through.
package navigation

import (
	"sync"
	"time"
)

// Route names a screen.
type Route string

const (
	RouteSignIn             Route = "SignIn"
	RouteProviders          Route = "Providers"
	RouteCreateAppointment  Route = "CreateAppointment"
	RouteAppointmentCreated Route = "AppointmentCreated"
)

// CreateAppointmentParams is required by RouteCreateAppointment.
type CreateAppointmentParams struct {
	ProviderID string
}

// AppointmentCreatedParams is passed to RouteAppointmentCreated. Date is in
// epoch milliseconds.
type AppointmentCreatedParams struct {
	Date int64
}

// Time converts Date back to a time.Time in loc.
func (p AppointmentCreatedParams) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(p.Date).In(loc)
}

// Entry is one screen on the stack.
type Entry struct {
	Route  Route
	Params any
}

// Navigator is what screens use to move between each other.
type Navigator interface {
	Navigate(route Route, params any)
	GoBack() bool
}

// Stack is an in-memory Navigator. It is safe for concurrent use.
type Stack struct {
	mu      sync.Mutex
	entries []Entry
}

// NewStack starts a stack at root.
func NewStack(root Route) *Stack {
	return &Stack{entries: []Entry{{Route: root}}}
}

// Navigate pushes route onto the stack.
func (s *Stack) Navigate(route Route, params any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Route: route, Params: params})
}

// GoBack pops the current screen. The root is never popped.
func (s *Stack) GoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) <= 1 {
		return false
	}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// Reset replaces the whole stack with a single root, e.g. after sign-out.
func (s *Stack) Reset(root Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Entry{{Route: root}}
}

// Current returns the top of the stack.
func (s *Stack) Current() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

// Depth returns the number of screens on the stack.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ Navigator = (*Stack)(nil)
