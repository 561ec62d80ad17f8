package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/barber-booking/internal/api"
)

type fetchFunc func(ctx context.Context, providerID string, date time.Time) ([]api.AvailabilityItem, error)

func (f fetchFunc) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]api.AvailabilityItem, error) {
	return f(ctx, providerID, date)
}

func TestKeyFor(t *testing.T) {
	key := KeyFor("p1", time.Date(2024, time.March, 1, 23, 59, 0, 0, brt))
	assert.Equal(t, Key{ProviderID: "p1", Year: 2024, Month: time.March, Day: 1}, key)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, brt), key.Date(brt))
}

func TestCoordinatorFetchPassesKey(t *testing.T) {
	var gotProvider string
	var gotDate time.Time
	c := NewCoordinator(fetchFunc(func(_ context.Context, providerID string, date time.Time) ([]api.AvailabilityItem, error) {
		gotProvider, gotDate = providerID, date
		return []api.AvailabilityItem{{Hour: 10, Available: true}}, nil
	}), brt)

	res, err := c.Fetch(context.Background(), KeyFor("p9", march1))
	require.NoError(t, err)
	assert.Equal(t, "p9", gotProvider)
	assert.Equal(t, "2024-03-01", gotDate.Format("2006-01-02"))
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, []api.AvailabilityItem{{Hour: 10, Available: true}}, res.Items)
	assert.True(t, c.IsCurrent(res.Generation))
}

func TestCoordinatorBeginCancelsPrevious(t *testing.T) {
	c := NewCoordinator(fetchFunc(func(ctx context.Context, _ string, _ time.Time) ([]api.AvailabilityItem, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), brt)

	first := c.Begin(context.Background(), KeyFor("p1", march1))
	second := c.Begin(context.Background(), KeyFor("p2", march1))
	assert.Equal(t, uint64(2), c.Generation())

	_, err := first.Do()
	assert.ErrorIs(t, err, ErrStale)
	assert.False(t, c.IsCurrent(first.Generation()))
	assert.True(t, c.IsCurrent(second.Generation()))
	assert.Equal(t, "p2", second.Key().ProviderID)
}

func TestCoordinatorStaleEvenOnSuccess(t *testing.T) {
	release := make(chan struct{})
	c := NewCoordinator(fetchFunc(func(_ context.Context, providerID string, _ time.Time) ([]api.AvailabilityItem, error) {
		if providerID == "slow" {
			<-release
		}
		return []api.AvailabilityItem{{Hour: 9, Available: true}}, nil
	}), brt)

	slow := c.Begin(context.Background(), KeyFor("slow", march1))
	done := make(chan error, 1)
	go func() {
		_, err := slow.Do()
		done <- err
	}()

	res, err := c.Fetch(context.Background(), KeyFor("fast", march1))
	require.NoError(t, err)
	assert.Equal(t, "fast", res.Key.ProviderID)

	close(release)
	assert.ErrorIs(t, <-done, ErrStale)
}

func TestCoordinatorPropagatesCurrentError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCoordinator(fetchFunc(func(context.Context, string, time.Time) ([]api.AvailabilityItem, error) {
		return nil, boom
	}), nil)

	res, err := c.Fetch(context.Background(), KeyFor("p1", time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(1), res.Generation)
}

func TestNewCoordinatorRequiresFetcher(t *testing.T) {
	assert.Panics(t, func() { NewCoordinator(nil, nil) })
}
