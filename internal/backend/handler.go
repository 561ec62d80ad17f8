package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/barber-booking/internal/api"
	httpmiddleware "github.com/wolfman30/barber-booking/internal/http/middleware"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

// Handler exposes the Service over the booking REST contract.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler wraps svc for HTTP.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the authenticated endpoints. The caller is expected
// to have installed httpmiddleware.UserJWT.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/providers", h.ListProviders)
	r.Get("/providers/{providerID}/day-availability", h.DayAvailability)
	r.Post("/appointments", h.CreateAppointment)
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSession exchanges credentials for a token.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := h.svc.Authenticate(r.Context(), creds)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.svc.Providers(r.Context(), httpmiddleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *Handler) DayAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, errY := strconv.Atoi(q.Get("year"))
	month, errM := strconv.Atoi(q.Get("month"))
	day, errD := strconv.Atoi(q.Get("day"))
	if errY != nil || errM != nil || errD != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "year, month and day are required")
		return
	}
	items, err := h.svc.DayAvailability(r.Context(), chi.URLParam(r, "providerID"), year, month, day)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	appt, err := h.svc.CreateAppointment(r.Context(), httpmiddleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var v *ValidationError
	switch {
	case errors.As(err, &v):
		httpmiddleware.WriteError(w, http.StatusBadRequest, v.Message)
	case errors.Is(err, ErrInvalidCredentials):
		httpmiddleware.WriteError(w, http.StatusUnauthorized, "Incorrect email/password combination")
	default:
		h.logger.ErrorContext(r.Context(), "booking handler failed", "path", r.URL.Path, "error", err)
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
