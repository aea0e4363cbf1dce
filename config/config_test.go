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

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "keep_finished", cfg.Session.RemovalPolicy)
	assert.True(t, cfg.Session.AutoNextMatch)
	assert.Equal(t, time.Second, cfg.Session.AutoNextDelay)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
session:
  auto_next_match: false
  auto_next_delay: 250ms
  removal_policy: purge_all
storage:
  driver: redis
  ttl: 2h
`))
	require.NoError(t, err)

	assert.False(t, cfg.Session.AutoNextMatch)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.AutoNextDelay)
	assert.Equal(t, "purge_all", cfg.Session.RemovalPolicy)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Storage.TTL)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: mongo\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "session:\n  removal_policy: sometimes\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", db.GetDSN())

	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.GetRedisAddr())
}
