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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[ledger]
endpoint = "https://authority.example.com"
timeout = "10s"

[stream]
enabled = true
ws_url = "wss://authority.example.com/stream"
owners = [1, 2]

[redis]
entity_ttl = "2m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://authority.example.com", cfg.Ledger.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Ledger.Timeout.Duration)
	assert.Equal(t, []int64{1, 2}, cfg.Stream.Owners)
	assert.Equal(t, 2*time.Minute, cfg.Redis.EntityTTL.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[ledger]
endpoint = "http://from-file:8080"
`)

	t.Setenv("LEDGER_ENDPOINT", "http://from-env:9090")
	t.Setenv("LEDGER_SESSION_TOKEN", "secret-token")
	t.Setenv("LEDGER_STREAM_OWNERS", "10, 20,30")
	t.Setenv("LEDGER_REDIS_ENTITY_TTL", "45s")
	t.Setenv("LEDGER_POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9090", cfg.Ledger.Endpoint)
	assert.Equal(t, "secret-token", cfg.Ledger.SessionToken)
	assert.Equal(t, []int64{10, 20, 30}, cfg.Stream.Owners)
	assert.Equal(t, 45*time.Second, cfg.Redis.EntityTTL.Duration)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Ledger.Endpoint = ""
	cfg.Redis.Addr = ""
	cfg.Stream.Enabled = true
	cfg.Stream.WSURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "ledger: endpoint")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "stream: ws_url")
}

func TestValidateArchiveRequiresS3(t *testing.T) {
	cfg := Defaults()
	cfg.S3.Bucket = ""

	// Archival off: the S3 section is not required.
	require.NoError(t, cfg.Validate())

	cfg.Archive.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestValidateStreamOwners(t *testing.T) {
	cfg := Defaults()
	cfg.Stream.Enabled = true
	cfg.Stream.Owners = []int64{0}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner ids must be >= 1")
}
