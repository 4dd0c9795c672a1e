package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_RETENTION_DAYS", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	assert.Equal(t, "sqlite://storage/pintlog.db", cfg.DatabaseURL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
	assert.Equal(t, int64(259200), cfg.AccessTTLSeconds)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.LogRetentionDays)
	assert.Nil(t, cfg.CorsOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TTL_SECONDS", "60")
	t.Setenv("LOG_RETENTION_DAYS", "30")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ADMIN_USERNAME", " boss ")

	cfg := Load()
	assert.Equal(t, int64(60), cfg.AccessTTLSeconds)
	assert.Equal(t, 7, cfg.LogRetentionDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsOrigins)
	assert.Equal(t, "boss", cfg.AdminUsername)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TTL_SECONDS", "soon")
	assert.Equal(t, int64(259200), Load().AccessTTLSeconds)
}

func TestLoad_PanicsWithoutSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "x")
	assert.PanicsWithValue(t, "missing env var: JWT_SECRET", func() { Load() })

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("ADMIN_PASSWORD", "  ")
	assert.PanicsWithValue(t, "missing env var: ADMIN_PASSWORD", func() { Load() })
}

func TestLocation(t *testing.T) {
	loc, err := Config{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{Timezone: "Europe/Paris"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", loc.String())

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
