package scheduling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wolfman30/barber-booking/internal/api"
)

// ErrStale is returned for an availability response that a newer request
// superseded. Such a response must never be applied.
var ErrStale = errors.New("scheduling: availability response superseded")

// AvailabilityFetcher loads the hour slots of one provider on one day.
type AvailabilityFetcher interface {
	DayAvailability(ctx context.Context, providerID string, date time.Time) ([]api.AvailabilityItem, error)
}

// Key identifies an availability set: a provider on a calendar day.
type Key struct {
	ProviderID string
	Year       int
	Month      time.Month
	Day        int
}

// KeyFor builds the key of providerID on the calendar day of date.
func KeyFor(providerID string, date time.Time) Key {
	y, m, d := date.Date()
	return Key{ProviderID: providerID, Year: y, Month: m, Day: d}
}

// Date returns midnight of the key's day in loc.
func (k Key) Date(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

// Result is a completed, non-stale availability fetch.
type Result struct {
	Key        Key
	Generation uint64
	Items      []api.AvailabilityItem
}

// Coordinator hands out generation-tagged availability requests. Starting a
// request cancels the one before it, and a request finishing after a newer
// one began reports ErrStale.
type Coordinator struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc

	fetcher  AvailabilityFetcher
	location *time.Location
}

// NewCoordinator creates a coordinator over fetcher. Days are interpreted in
// loc.
func NewCoordinator(fetcher AvailabilityFetcher, loc *time.Location) *Coordinator {
	if fetcher == nil {
		panic("scheduling: availability fetcher required")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Coordinator{fetcher: fetcher, location: loc}
}

// Request is one in-flight availability fetch.
type Request struct {
	coord      *Coordinator
	ctx        context.Context
	cancel     context.CancelFunc
	key        Key
	generation uint64
}

// Begin registers a new request for key and cancels the previous one. The
// request does no I/O until Do is called.
func (c *Coordinator) Begin(ctx context.Context, key Key) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return &Request{coord: c, ctx: reqCtx, cancel: cancel, key: key, generation: c.generation}
}

// Fetch is Begin followed by Do.
func (c *Coordinator) Fetch(ctx context.Context, key Key) (Result, error) {
	return c.Begin(ctx, key).Do()
}

// IsCurrent reports whether generation belongs to the latest request.
func (c *Coordinator) IsCurrent(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation == c.generation
}

// Generation returns the number of requests begun so far.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Key returns the key the request was started for.
func (r *Request) Key() Key { return r.key }

// Generation returns the request's tag.
func (r *Request) Generation() uint64 { return r.generation }

// Do performs the fetch. Superseded requests return ErrStale regardless of
// how the fetch itself ended.
func (r *Request) Do() (Result, error) {
	defer r.cancel()

	items, err := r.coord.fetcher.DayAvailability(r.ctx, r.key.ProviderID, r.key.Date(r.coord.location))
	if !r.coord.IsCurrent(r.generation) {
		return Result{Key: r.key, Generation: r.generation}, ErrStale
	}
	if err != nil {
		return Result{Key: r.key, Generation: r.generation}, err
	}
	return Result{Key: r.key, Generation: r.generation, Items: items}, nil
}
