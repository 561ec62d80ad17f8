package bootstrap

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/barber-booking/internal/backend"
	appconfig "github.com/wolfman30/barber-booking/internal/config"
	"github.com/wolfman30/barber-booking/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without address")
	}
}

func TestBuildStoreMemory(t *testing.T) {
	store, closeFn, err := BuildStore(context.Background(), &appconfig.Config{StoreBackend: "memory"}, logging.Default())
	if err != nil {
		t.Fatalf("BuildStore() error = %v", err)
	}
	defer closeFn()
	if _, ok := store.(*backend.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestBuildStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	store, closeFn, err := BuildStore(context.Background(), &appconfig.Config{StoreBackend: "redis", RedisAddr: mr.Addr()}, logging.Default())
	if err != nil {
		t.Fatalf("BuildStore() error = %v", err)
	}
	defer closeFn()
	if _, ok := store.(*backend.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}
}

func TestBuildStoreErrors(t *testing.T) {
	ctx := context.Background()
	if _, _, err := BuildStore(ctx, &appconfig.Config{StoreBackend: "postgres"}, nil); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	if _, _, err := BuildStore(ctx, &appconfig.Config{StoreBackend: "sqlite"}, nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, _, err := BuildStore(ctx, nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestSeedDemoUsersOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := backend.NewMemoryStore()
	svc, err := backend.NewService(store, backend.ServiceConfig{
		JWTSecret: "secret",
		TokenTTL:  time.Hour,
		OpenHour:  8,
		CloseHour: 18,
	}, nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if err := SeedDemoUsers(ctx, store, svc, nil); err != nil {
		t.Fatalf("SeedDemoUsers() error = %v", err)
	}
	if err := SeedDemoUsers(ctx, store, svc, nil); err != nil {
		t.Fatalf("second SeedDemoUsers() error = %v", err)
	}
	users, _ := store.ListUsers(ctx)
	if len(users) != len(demoUsers) {
		t.Fatalf("users = %d, want %d", len(users), len(demoUsers))
	}
}
