package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/barber-booking/internal/api"
	appconfig "github.com/wolfman30/barber-booking/internal/config"
	"github.com/wolfman30/barber-booking/internal/observability/metrics"
	"github.com/wolfman30/barber-booking/internal/session"
	"github.com/wolfman30/barber-booking/internal/terminal"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

func main() {
	email := flag.String("email", "", "Sign in with this e-mail (overrides BOOKING_EMAIL)")
	password := flag.String("password", "", "Password for -email (overrides BOOKING_PASSWORD)")
	apiURL := flag.String("api", "", "Booking API base URL (overrides API_BASE_URL)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	creds := api.Credentials{Email: cfg.BookingEmail, Password: cfg.BookingPassword}
	if *email != "" {
		creds = api.Credentials{Email: *email, Password: *password}
	}

	// Logs go to stderr so they never interleave with the rendered screens.
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	clientMetrics := metrics.NewClientMetrics(reg)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg, logger)
	}

	sess := session.New(logger)
	client := api.NewClient(cfg.APIBaseURL, logger,
		api.WithTimeout(cfg.APITimeout),
		api.WithTokenSource(sess),
		api.WithObserver(clientMetrics),
	)

	app, err := terminal.New(client, sess, logger, terminal.Options{
		In:                  os.Stdin,
		Out:                 os.Stdout,
		Credentials:         creds,
		Location:            cfg.Location(),
		ClosePickerOnChange: cfg.ClosePickerOnChange,
		Observer:            clientMetrics,
	})
	if err != nil {
		logger.Error("failed to start booking client", "error", err)
		os.Exit(1)
	}

	// Unblock the pending read on interrupt.
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	if err := app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("booking client stopped", "error", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("client metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("client metrics server stopped", "error", err)
	}
}
