package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/barber-booking/internal/api"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore persists users and appointments in the tables created by
// the migrations package.
type PostgresStore struct {
	db DB
}

// NewPostgresStore takes a pgxpool.Pool or any DB.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("backend: db required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, name, email, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, normalizeEmail(user.Email), user.AvatarURL, user.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("backend: create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id::text, name, email, avatar_url, password_hash
		FROM users WHERE email = $1`, normalizeEmail(email))
	return scanUser(row)
}

func (s *PostgresStore) UserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id::text, name, email, avatar_url, password_hash
		FROM users WHERE id::text = $1`, id)
	return scanUser(row)
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, name, email, avatar_url, password_hash
		FROM users ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("backend: list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("backend: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backend: list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) CreateAppointment(ctx context.Context, appt api.Appointment) error {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO appointments (id, provider_id, user_id, date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_id, date) DO NOTHING`,
		appt.ID, appt.ProviderID, appt.UserID, appt.Date.UTC(),
	)
	if err != nil {
		return fmt.Errorf("backend: create appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotTaken
	}
	return nil
}

func (s *PostgresStore) AppointmentsBetween(ctx context.Context, providerID string, from, to time.Time) ([]api.Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id::text, provider_id::text, user_id::text, date
		FROM appointments
		WHERE provider_id::text = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC`, providerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("backend: list appointments: %w", err)
	}
	defer rows.Close()

	out := []api.Appointment{}
	for rows.Next() {
		var a api.Appointment
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.UserID, &a.Date); err != nil {
			return nil, fmt.Errorf("backend: scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("backend: list appointments: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backend: scan user: %w", err)
	}
	return &u, nil
}
