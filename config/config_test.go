package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, `
http:
  address: ":9090"
auth:
  jwt_secret: "file-secret"
booking:
  max_hold: 20m
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Minute, cfg.Booking.MinHold)
	assert.Equal(t, 20*time.Minute, cfg.Booking.MaxHold)
	assert.Equal(t, 24*time.Hour, cfg.Booking.CancellationWindow)
	assert.Equal(t, time.Minute, cfg.Worker.SweepInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 3, cfg.Roblox.Attempts)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "admin", cfg.Roblox.RoleRanks[0].Role)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("ROBLOX_GAMEPASS_ID", "123456")
	t.Setenv("DATABASE_PASSWORD", "hunter2")
	path := writeConfig(t, `
auth:
  jwt_secret: "file-secret"
database:
  host: db
  port: 5432
  user: indigo
  name: indigo
  ssl_mode: disable
roblox:
  role_ranks:
    - {min_rank: 10, role: pilot}
    - {min_rank: 90, role: atc}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "123456", cfg.Roblox.GamepassID)
	assert.Contains(t, cfg.Database.DSN(), "password=hunter2")
	assert.Equal(t, []RoleRank{{MinRank: 90, Role: "atc"}, {MinRank: 10, Role: "pilot"}}, cfg.Roblox.RoleRanks)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "http: ["))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "booking: {min_hold: 1m}"))
	assert.ErrorContains(t, err, "jwt_secret")

	_, err = LoadConfig(writeConfig(t, "auth: {jwt_secret: s}\nstorage: {holds: redis}"))
	assert.ErrorContains(t, err, "redis.addr")

	_, err = LoadConfig(writeConfig(t, "auth: {jwt_secret: s}\nbooking: {min_hold: 20m}"))
	assert.ErrorContains(t, err, "exceeds")
}
