package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barber-booking/internal/api"
)

func signedToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestInitAndSignOut(t *testing.T) {
	s := New(nil)
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Token())

	token := signedToken(t, "u1", time.Now().Add(time.Hour))
	require.NoError(t, s.Init(&api.AuthResponse{User: api.User{ID: "u1", Name: "Jane"}, Token: token}))

	assert.True(t, s.SignedIn())
	assert.Equal(t, token, s.Token())
	user, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, "Jane", user.Name)
	exp, ok := s.ExpiresAt()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	var signedOut []string
	s.OnSignOut(func(u api.User) { signedOut = append(signedOut, u.ID) })

	s.SignOut(context.Background())
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Token())
	_, ok = s.User()
	assert.False(t, ok)
	assert.Equal(t, []string{"u1"}, signedOut)

	// second sign-out does not notify again
	s.SignOut(context.Background())
	assert.Equal(t, []string{"u1"}, signedOut)
}

func TestInitRejectsEmptyToken(t *testing.T) {
	s := New(nil)
	assert.True(t, errors.Is(s.Init(nil), ErrEmptyToken))
	assert.True(t, errors.Is(s.Init(&api.AuthResponse{User: api.User{ID: "u1"}}), ErrEmptyToken))
	assert.False(t, s.SignedIn())
}

func TestOpaqueTokenHasNoExpiry(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Init(&api.AuthResponse{User: api.User{ID: "u1"}, Token: "opaque-token"}))
	assert.Equal(t, "opaque-token", s.Token())
	_, ok := s.ExpiresAt()
	assert.False(t, ok)
}

func TestExpiredTokenIsWithheld(t *testing.T) {
	s := New(nil)
	token := signedToken(t, "u1", time.Now().Add(time.Minute))
	require.NoError(t, s.Init(&api.AuthResponse{User: api.User{ID: "u1"}, Token: token}))

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.False(t, s.SignedIn())
	assert.Empty(t, s.Token())
	_, ok := s.User()
	assert.True(t, ok, "identity stays until explicit sign-out")
}

func TestConcurrentAccess(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Init(&api.AuthResponse{User: api.User{ID: "u1"}, Token: "tok"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Token()
			_, _ = s.User()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SignOut(context.Background())
	}()
	wg.Wait()
	assert.False(t, s.SignedIn())
}
