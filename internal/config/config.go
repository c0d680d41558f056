// Package config loads runtime settings from the environment, optionally
// seeded from a .env file during local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the API process needs at startup.
type Config struct {
	Addr         string
	DatabaseDSN  string
	TokenSecret  string
	TokenTTL     time.Duration
	RateBurst    int
	RatePerSec   int
	MaxBodyBytes int64
	Version      string
}

const defaultTokenTTL = 24 * time.Hour

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:         readString("STAFFDESK_ADDR", ":8080"),
		DatabaseDSN:  os.Getenv("STAFFDESK_PG_DSN"),
		TokenSecret:  strings.TrimSpace(os.Getenv("STAFFDESK_AUTH_SECRET")),
		TokenTTL:     readDuration("STAFFDESK_TOKEN_TTL", defaultTokenTTL),
		RateBurst:    readInt("STAFFDESK_RATE_BURST", 50),
		RatePerSec:   readInt("STAFFDESK_RATE_PER_SEC", 25),
		MaxBodyBytes: int64(readInt("STAFFDESK_MAX_BODY_BYTES", 1<<20)),
		Version:      readString("STAFFDESK_VERSION", "dev"),
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("STAFFDESK_AUTH_SECRET is required")
	}
	return cfg, nil
}

func readString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func readDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
