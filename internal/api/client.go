package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/barber-booking/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:3333"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 300
)

var apiTracer = otel.Tracer("barber.internal.api")

// TokenSource supplies the bearer token for authorized requests. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token() string
}

// Observer receives one call per completed round trip.
type Observer interface {
	ObserveRequest(endpoint string, status int, seconds float64)
}

// Client wraps the booking backend REST endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	observer   Observer
	logger     *logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithObserver reports request outcomes, typically to metrics.
func WithObserver(observer Observer) Option {
	return func(c *Client) { c.observer = observer }
}

// NewClient constructs a booking API client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate creates a session for the given credentials.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, errors.New("api: email and password are required")
	}
	var resp AuthResponse
	if err := c.doJSON(ctx, "create_session", http.MethodPost, "/sessions", creds, &resp); err != nil {
		return nil, fmt.Errorf("api: authenticate: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("api: authenticate: empty token in response")
	}
	return &resp, nil
}

// ListProviders returns the full provider directory.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var providers []Provider
	if err := c.doJSON(ctx, "list_providers", http.MethodGet, "/providers", nil, &providers); err != nil {
		return nil, fmt.Errorf("api: list providers: %w", err)
	}
	if providers == nil {
		providers = []Provider{}
	}
	return providers, nil
}

// DayAvailability returns the hour slots of a provider on the calendar day
// of date. Only the year, month and day of date are sent.
func (c *Client) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]AvailabilityItem, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, errors.New("api: day availability: provider id is required")
	}
	q := url.Values{}
	q.Set("year", strconv.Itoa(date.Year()))
	q.Set("month", strconv.Itoa(int(date.Month())))
	q.Set("day", strconv.Itoa(date.Day()))

	path := fmt.Sprintf("/providers/%s/day-availability?%s", url.PathEscape(providerID), q.Encode())

	var items []AvailabilityItem
	if err := c.doJSON(ctx, "day_availability", http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("api: day availability: %w", err)
	}
	if items == nil {
		items = []AvailabilityItem{}
	}
	return items, nil
}

// CreateAppointment books the slot described by req.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*Appointment, error) {
	var appt Appointment
	if err := c.doJSON(ctx, "create_appointment", http.MethodPost, "/appointments", req, &appt); err != nil {
		return nil, fmt.Errorf("api: create appointment: %w", err)
	}
	return &appt, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, body interface{}, out interface{}) (err error) {
	ctx, span := apiTracer.Start(ctx, "api."+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("barber.endpoint", endpoint),
	)

	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(endpoint, status, time.Since(start).Seconds())
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(respBody)
		c.logger.Warn("booking API non-2xx response", "status", resp.StatusCode, "endpoint", endpoint, "body", msg)
		return &StatusError{StatusCode: resp.StatusCode, Path: strings.SplitN(path, "?", 2)[0], Message: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the backend's {"message": ...} envelope and falls back
// to the truncated raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
