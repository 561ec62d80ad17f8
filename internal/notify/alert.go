// Package notify delivers blocking, user-facing alerts from screens to
// whatever presentation layer is attached.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/wolfman30/barber-booking/pkg/logging"
)

// Alert is a titled message the user must acknowledge.
type Alert struct {
	Title   string
	Message string
}

// Alerter shows alerts to the user.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// WriterAlerter prints alerts to a terminal-like writer and logs them.
type WriterAlerter struct {
	mu     sync.Mutex
	out    io.Writer
	logger *logging.Logger
}

// NewWriterAlerter creates an alerter writing to out.
func NewWriterAlerter(out io.Writer, logger *logging.Logger) *WriterAlerter {
	if logger == nil {
		logger = logging.Default()
	}
	return &WriterAlerter{out: out, logger: logger}
}

// Alert writes a boxed alert block.
func (a *WriterAlerter) Alert(ctx context.Context, alert Alert) {
	a.logger.WarnContext(ctx, "user alert shown", "title", alert.Title)
	if a.out == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = fmt.Fprintf(a.out, "\n[!] %s\n    %s\n\n", alert.Title, alert.Message)
}

// Recorder keeps every alert in memory.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *Recorder) Alert(_ context.Context, alert Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

// Alerts returns a copy of the recorded alerts.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

var (
	_ Alerter = (*WriterAlerter)(nil)
	_ Alerter = (*Recorder)(nil)
)
