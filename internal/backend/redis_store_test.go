package backend

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barber-booking/internal/api"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	store, _ := newRedisStoreWithServer(t)
	return store
}

func newRedisStoreWithServer(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRedisStoreUsers(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, User{ID: "u2", Name: "Bob", Email: "bob@example.com", PasswordHash: "h"}))
	require.NoError(t, store.CreateUser(ctx, User{ID: "u1", Name: "Alice", Email: "Alice@Example.com", PasswordHash: "h"}))
	assert.ErrorIs(t, store.CreateUser(ctx, User{ID: "u3", Name: "Dup", Email: "bob@example.com"}), ErrEmailTaken)

	user, err := store.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)

	_, err = store.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.UserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
}

func TestRedisStoreAppointments(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	nine := api.Appointment{ID: "a1", ProviderID: "p1", UserID: "u1", Date: day.Add(9 * time.Hour)}
	nextDay := api.Appointment{ID: "a2", ProviderID: "p1", UserID: "u1", Date: day.Add(24 * time.Hour)}
	other := api.Appointment{ID: "a3", ProviderID: "p2", UserID: "u1", Date: day.Add(10 * time.Hour)}

	require.NoError(t, store.CreateAppointment(ctx, nine))
	require.NoError(t, store.CreateAppointment(ctx, nextDay))
	require.NoError(t, store.CreateAppointment(ctx, other))
	assert.ErrorIs(t, store.CreateAppointment(ctx, api.Appointment{ID: "a4", ProviderID: "p1", Date: nine.Date}), ErrSlotTaken)

	got, err := store.AppointmentsBetween(ctx, "p1", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 1, "upper bound is exclusive")
	assert.Equal(t, "a1", got[0].ID)
	assert.True(t, got[0].Date.Equal(nine.Date))
}

func TestRedisStoreFailedAppointmentWriteKeepsSlotFree(t *testing.T) {
	store, mr := newRedisStoreWithServer(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("barber:appointments:p1", "not-a-zset"))
	appt := api.Appointment{ID: "a1", ProviderID: "p1", UserID: "u1", Date: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)}
	require.Error(t, store.CreateAppointment(ctx, appt))
	assert.False(t, mr.Exists(store.slotKey("p1", appt.Date)), "slot stays unreserved")

	mr.Del("barber:appointments:p1")
	require.NoError(t, store.CreateAppointment(ctx, appt))

	got, err := store.AppointmentsBetween(ctx, "p1", appt.Date, appt.Date.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestRedisStoreFailedUserWriteKeepsEmailFree(t *testing.T) {
	store, mr := newRedisStoreWithServer(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(redisUsersKey, "not-a-set"))
	user := User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "h"}
	require.Error(t, store.CreateUser(ctx, user))
	assert.False(t, mr.Exists(store.emailKey(user.Email)), "email stays unreserved")
	assert.False(t, mr.Exists(store.userKey(user.ID)))

	mr.Del(redisUsersKey)
	require.NoError(t, store.CreateUser(ctx, user))

	found, err := store.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
}
