package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barber-booking/internal/backend"
	appconfig "github.com/wolfman30/barber-booking/internal/config"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

// Store backends selectable through STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "123456"

type demoUser struct {
	name   string
	email  string
	avatar string
}

var demoUsers = []demoUser{
	{name: "Demo Customer", email: "customer@barber.dev"},
	{name: "Diego Fernandes", email: "diego@barber.dev", avatar: "https://avatars.githubusercontent.com/u/2254731"},
	{name: "Mayk Brito", email: "mayk@barber.dev"},
	{name: "Robson Marques", email: "robson@barber.dev"},
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildStore opens the store named by cfg.StoreBackend. The returned close
// function releases its connections.
func BuildStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (backend.Store, func(), error) {
	if cfg == nil {
		return nil, nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StoreBackend {
	case "", StoreMemory:
		logger.Info("using in-memory store")
		return backend.NewMemoryStore(), func() {}, nil
	case StoreRedis:
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: redis unavailable at %s", cfg.RedisAddr)
		}
		logger.Info("using redis store", "addr", cfg.RedisAddr)
		return backend.NewRedisStore(client), func() { _ = client.Close() }, nil
	case StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, errors.New("bootstrap: DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("using postgres store")
		return backend.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
	}
}

// SeedDemoUsers registers the demo accounts when the store has no users.
func SeedDemoUsers(ctx context.Context, store backend.Store, svc *backend.Service, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: list users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}
	for _, u := range demoUsers {
		if _, err := svc.RegisterUser(ctx, u.name, u.email, DemoPassword, u.avatar); err != nil {
			return fmt.Errorf("bootstrap: seed %s: %w", u.email, err)
		}
	}
	logger.Info("seeded demo users", "count", len(demoUsers), "customer_email", demoUsers[0].email)
	return nil
}
