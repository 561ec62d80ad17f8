package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "barber"

// ClientMetrics exposes counters/histograms for the booking client flows.
type ClientMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	staleDiscarded prometheus.Counter
	submissions    *prometheus.CounterVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "api_requests_total",
			Help:      "Total booking API requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of booking API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "availability_stale_discarded_total",
			Help:      "Availability responses dropped because a newer request superseded them",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "appointment_submissions_total",
			Help:      "Appointment submissions by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.staleDiscarded, m.submissions)
	return m
}

// ObserveRequest records one API round trip. A status of 0 means the request
// never produced a response.
func (m *ClientMetrics) ObserveRequest(endpoint string, status int, seconds float64) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(endpoint, label).Inc()
	m.requestLatency.WithLabelValues(endpoint).Observe(seconds)
}

func (m *ClientMetrics) ObserveStaleDiscarded() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

func (m *ClientMetrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(result).Inc()
}

// BackendMetrics exposes counters for the development booking backend.
type BackendMetrics struct {
	appointments *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	m := &BackendMetrics{
		appointments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "appointments_total",
			Help:      "Appointment create attempts by result",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "sessions_total",
			Help:      "Session create attempts by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.appointments, m.logins)
	return m
}

func (m *BackendMetrics) ObserveAppointment(result string) {
	if m == nil {
		return
	}
	m.appointments.WithLabelValues(result).Inc()
}

func (m *BackendMetrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}
