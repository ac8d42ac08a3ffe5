package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	t.Cleanup(os.Clearenv)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.JanitorInterval != 30*time.Minute {
		t.Errorf("JanitorInterval: got %v, want 30m", cfg.Auth.JanitorInterval)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("Cache.Driver: got %q, want memory", cfg.Cache.Driver)
	}
	if cfg.Mail.Driver != "ses" {
		t.Errorf("Mail.Driver: got %q, want ses", cfg.Mail.Driver)
	}
	if cfg.Notify.QueueSize != 64 {
		t.Errorf("Notify.QueueSize: got %d, want 64", cfg.Notify.QueueSize)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() without JWT_SECRET should fail")
	}
}

func TestLoad_InvalidCacheDriver(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("CACHE_DRIVER", "memcached")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with unknown CACHE_DRIVER should fail")
	}
}

func TestLoad_InvalidMailDriver(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("MAIL_DRIVER", "sendgrid")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with unknown MAIL_DRIVER should fail")
	}
}

func TestLoad_WeakJWTSecretRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with short JWT_SECRET should fail")
	}
}

func TestLoad_CustomDurations(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("SESSION_JANITOR_INTERVAL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.JanitorInterval != 10*time.Minute {
		t.Errorf("JanitorInterval: got %v, want 10m", cfg.Auth.JanitorInterval)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("SESSION_JANITOR_INTERVAL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.JanitorInterval != 30*time.Minute {
		t.Errorf("JanitorInterval with invalid value: got %v, want 30m", cfg.Auth.JanitorInterval)
	}
}
