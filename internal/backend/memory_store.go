package backend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/barber-booking/internal/api"
)

type slotKey struct {
	providerID string
	unix       int64
}

// MemoryStore keeps everything in process. It is the default for local runs
// and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]User
	emails       map[string]string
	appointments map[slotKey]api.Appointment
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]User),
		emails:       make(map[string]string),
		appointments: make(map[slotKey]api.Appointment),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(user.Email)
	if _, ok := s.emails[email]; ok {
		return ErrEmailTaken
	}
	user.Email = email
	s.users[user.ID] = user
	s.emails[email] = user.ID
	return nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sortUsers(users)
	return users, nil
}

func (s *MemoryStore) CreateAppointment(_ context.Context, appt api.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey{providerID: appt.ProviderID, unix: appt.Date.Unix()}
	if _, ok := s.appointments[key]; ok {
		return ErrSlotTaken
	}
	s.appointments[key] = appt
	return nil
}

func (s *MemoryStore) AppointmentsBetween(_ context.Context, providerID string, from, to time.Time) ([]api.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []api.Appointment{}
	for key, appt := range s.appointments {
		if key.providerID != providerID {
			continue
		}
		if !appt.Date.Before(from) && appt.Date.Before(to) {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name == users[j].Name {
			return users[i].ID < users[j].ID
		}
		return users[i].Name < users[j].Name
	})
}
