package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/barber-booking/internal/api/router"
	"github.com/wolfman30/barber-booking/internal/app/bootstrap"
	"github.com/wolfman30/barber-booking/internal/backend"
	appconfig "github.com/wolfman30/barber-booking/internal/config"
	httpmiddleware "github.com/wolfman30/barber-booking/internal/http/middleware"
	"github.com/wolfman30/barber-booking/internal/observability/metrics"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting barber-booking dev server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			logger.Error("JWT_SECRET is required in production")
			os.Exit(1)
		}
		cfg.JWTSecret = "dev-secret"
		logger.Warn("JWT_SECRET not set; using the development secret")
	}

	ctx := context.Background()
	store, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := backend.NewService(store, backend.ServiceConfig{
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
		Location:  cfg.Location(),
		OpenHour:  cfg.OpenHour,
		CloseHour: cfg.CloseHour,
		Metrics:   metrics.NewBackendMetrics(reg),
	}, logger)
	if err != nil {
		logger.Error("failed to build booking service", "error", err)
		os.Exit(1)
	}
	if err := bootstrap.SeedDemoUsers(ctx, store, svc, logger); err != nil {
		logger.Error("failed to seed demo users", "error", err)
		os.Exit(1)
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:         logger,
		Booking:        backend.NewHandler(svc, logger),
		JWTSecret:      cfg.JWTSecret,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		LoginLimiter:   httpmiddleware.NewRateLimiter(cfg.LoginPerMin, cfg.LoginBurst),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
