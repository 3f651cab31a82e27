package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithSecrets(t *testing.T) {
	t.Setenv("VIDSHARE_CONFIG_FILE", "")
	t.Setenv("VIDSHARE_ACCESS_TOKEN_SECRET", "access")
	t.Setenv("VIDSHARE_REFRESH_TOKEN_SECRET", "refresh")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port got %d", cfg.AppPort)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %s", cfg.Auth.AccessTokenTTL)
	}
	if cfg.StorageBackend != StorageBackendPostgres {
		t.Fatalf("unexpected storage backend %q", cfg.StorageBackend)
	}
}

func TestLoadRequiresSecretsForPostgres(t *testing.T) {
	t.Setenv("VIDSHARE_CONFIG_FILE", "")
	t.Setenv("VIDSHARE_STORAGE", "postgres")
	t.Setenv("VIDSHARE_ACCESS_TOKEN_SECRET", "")
	t.Setenv("VIDSHARE_REFRESH_TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when secrets are missing")
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidshare.yaml")
	contents := `
port: 9090
storage: memory
auth:
  access_token_ttl: 5m
  refresh_token_ttl: 48h
redis:
  addr: localhost:6379
rate_limit:
  requests: 3
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VIDSHARE_CONFIG_FILE", path)
	t.Setenv("VIDSHARE_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 7070 {
		t.Fatalf("expected env to override file port, got %d", cfg.AppPort)
	}
	if cfg.StorageBackend != StorageBackendMemory {
		t.Fatalf("expected memory storage got %q", cfg.StorageBackend)
	}
	if cfg.Auth.AccessTokenTTL != 5*time.Minute || cfg.Auth.RefreshTokenTTL != 48*time.Hour {
		t.Fatalf("unexpected ttls %+v", cfg.Auth)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr)
	}
	if cfg.RateLimit.Requests != 3 || cfg.RateLimit.Burst != 5 {
		t.Fatalf("expected file value and default burst, got %+v", cfg.RateLimit)
	}
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	t.Setenv("VIDSHARE_CONFIG_FILE", "")
	t.Setenv("VIDSHARE_STORAGE", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}
