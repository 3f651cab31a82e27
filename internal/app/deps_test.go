package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) { return nil, context.Canceled }

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:  "access",
			AccessTokenTTL:     time.Minute,
			RefreshTokenSecret: "refresh",
			RefreshTokenTTL:    time.Hour,
		},
		ObjectStore: config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
		RateLimit:   config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 5},
	}
}

func TestBuildDependencies(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.Sessions == nil || deps.Resolver == nil {
		t.Fatal("expected session manager and resolver to be configured")
	}
	if deps.Views == nil {
		t.Fatal("expected view builder to be configured")
	}
	if deps.Users == nil || deps.Videos == nil || deps.Comments == nil {
		t.Fatal("expected user, video and comment services to be configured")
	}
	if deps.Likes == nil || deps.Subscriptions == nil || deps.Playlists == nil {
		t.Fatal("expected like, subscription and playlist services to be configured")
	}
	if deps.Limiter == nil {
		t.Fatal("expected rate limiter to be configured")
	}
	if _, ok := deps.HealthChecks["database"]; !ok {
		t.Fatal("expected database health check")
	}
	if _, ok := deps.HealthChecks["redis"]; ok {
		t.Fatal("redis health check registered without an address")
	}
}

func TestBuildDependenciesRedis(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1", CountTTL: time.Minute}

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup(context.Background())

	if _, ok := deps.HealthChecks["redis"]; !ok {
		t.Fatal("expected redis health check")
	}
}

func TestBuildDependenciesMemoryGeneratesSecrets(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.Auth.AccessTokenSecret = ""
	cfg.Auth.RefreshTokenSecret = ""

	deps, _, err := buildDependencies(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.HealthChecks) != 0 {
		t.Fatalf("expected no health checks for the memory backend, got %v", deps.HealthChecks)
	}

	ctx := context.Background()
	if _, _, err := deps.Sessions.Login(ctx, "nobody", "secret"); err == nil {
		t.Fatal("expected login against an empty store to fail")
	}
}

func TestBuildDependenciesRequiresBucket(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectStore.Bucket = ""

	if _, _, err := buildDependencies(context.Background(), nil, cfg); err == nil {
		t.Fatal("expected error without a bucket")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()
	if !newLogger("debug").Enabled(ctx, slog.LevelDebug) {
		t.Fatal("expected debug level to be enabled")
	}
	if newLogger("warn").Enabled(ctx, slog.LevelInfo) {
		t.Fatal("expected info to be disabled at warn level")
	}
	if !newLogger("bogus").Enabled(ctx, slog.LevelInfo) {
		t.Fatal("expected unknown level to fall back to info")
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(context.Background(), []string{"seed"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
