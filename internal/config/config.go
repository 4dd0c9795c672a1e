package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	AccessTTLSeconds int64
	AdminUsername    string
	AdminPassword    string
	Port             string
	LogDir           string
	LogRetentionDays int
	Timezone         string
	CorsOrigins      []string
}

func Load() Config {
	return Config{
		DatabaseURL:      envOr("DATABASE_URL", "sqlite://storage/pintlog.db"),
		JWTSecret:        mustEnv("JWT_SECRET"),
		JWTIssuer:        envOr("JWT_ISSUER", "pintlog"),
		AccessTTLSeconds: int64(envOrInt("ACCESS_TTL_SECONDS", 259200)),
		AdminUsername:    envOr("ADMIN_USERNAME", "admin"),
		AdminPassword:    mustEnv("ADMIN_PASSWORD"),
		Port:             envOr("PORT", "8080"),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 7),
		Timezone:         envOr("TIMEZONE", ""),
		CorsOrigins:      parseCSV(envOr("CORS_ORIGINS", "")),
	}
}

// Location resolves Timezone, falling back to the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
