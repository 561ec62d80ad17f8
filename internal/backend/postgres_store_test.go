package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/wolfman30/barber-booking/internal/api"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_CreateUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "Jane", "jane@example.com", "", "hash").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.CreateUser(context.Background(), User{ID: "u1", Name: "Jane", Email: " Jane@Example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_CreateUserDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "Jane", "jane@example.com", "", "hash").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := store.CreateUser(context.Background(), User{ID: "u1", Name: "Jane", Email: "jane@example.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPostgresStore_UserByEmail(t *testing.T) {
	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "avatar_url", "password_hash"}).
		AddRow("u1", "Jane", "jane@example.com", "https://cdn/j.png", "hash")
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("jane@example.com").
		WillReturnRows(rows)

	user, err := store.UserByEmail(context.Background(), "JANE@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if user.ID != "u1" || user.AvatarURL != "https://cdn/j.png" {
		t.Fatalf("user = %+v", user)
	}
}

func TestPostgresStore_UserByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.UserByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_ListUsers(t *testing.T) {
	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "avatar_url", "password_hash"}).
		AddRow("u1", "Alice", "alice@example.com", "", "h").
		AddRow("u2", "Bob", "bob@example.com", "", "h")
	mock.ExpectQuery("SELECT (.+) FROM users ORDER BY name").WillReturnRows(rows)

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[1].Name != "Bob" {
		t.Fatalf("users = %+v", users)
	}
}

func TestPostgresStore_CreateAppointmentConflict(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("a1", "p1", "u1", date).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("a2", "p1", "u2", date).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	ctx := context.Background()
	if err := store.CreateAppointment(ctx, api.Appointment{ID: "a1", ProviderID: "p1", UserID: "u1", Date: date}); err != nil {
		t.Fatalf("first CreateAppointment() error = %v", err)
	}
	err := store.CreateAppointment(ctx, api.Appointment{ID: "a2", ProviderID: "p1", UserID: "u2", Date: date})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_AppointmentsBetween(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	rows := pgxmock.NewRows([]string{"id", "provider_id", "user_id", "date"}).
		AddRow("a1", "p1", "u1", from.Add(9*time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("p1", from, to).
		WillReturnRows(rows)

	got, err := store.AppointmentsBetween(context.Background(), "p1", from, to)
	if err != nil {
		t.Fatalf("AppointmentsBetween() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" || got[0].Date.Hour() != 9 {
		t.Fatalf("appointments = %+v", got)
	}
}
