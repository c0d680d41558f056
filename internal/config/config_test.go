package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("STAFFDESK_AUTH_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without auth secret")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("STAFFDESK_AUTH_SECRET", "test-secret")
	t.Setenv("STAFFDESK_TOKEN_TTL", "45m")
	t.Setenv("STAFFDESK_RATE_BURST", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.TokenTTL != 45*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.TokenTTL)
	}
	if cfg.RateBurst != 7 {
		t.Fatalf("unexpected burst: %d", cfg.RateBurst)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("STAFFDESK_AUTH_SECRET", "test-secret")
	t.Setenv("STAFFDESK_RATE_PER_SEC", "not-a-number")
	t.Setenv("STAFFDESK_TOKEN_TTL", "-5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RatePerSec != 25 {
		t.Fatalf("expected fallback rate, got %d", cfg.RatePerSec)
	}
	if cfg.TokenTTL != defaultTokenTTL {
		t.Fatalf("expected fallback ttl, got %v", cfg.TokenTTL)
	}
}
