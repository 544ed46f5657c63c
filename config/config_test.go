package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, DefaultMongoURI, cfg.Mongo.URI)
	assert.Equal(t, "0 8 * * *", cfg.Scheduler.Spec)
	assert.Equal(t, 5*time.Second, cfg.Engine.LookupTimeout)
	assert.Equal(t, "TrackTruck", cfg.Mongo.DatabaseName())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"PORT":                 "8080",
		"STORE_DRIVER":         "postgres",
		"DATABASE_URL":         "postgres://u:p@db:5432/fleet",
		"MONGO_URI":            "mongodb://mongo:27017/fleet",
		"KAFKA_BROKERS":        "k1:9092, k2:9092,,",
		"NATS_URL":             "nats://n1:4222",
		"ADMIN_USERS":          "u1,u2",
		"MAINTENANCE_SCHEDULE": "*/5 * * * *",
		"LOG_FORMAT":           "text",
		"REDIS_ADDR":           "",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.KafkaBrokers)
	assert.Equal(t, []string{"nats://n1:4222"}, cfg.Notify.NATSURLs)
	assert.Equal(t, []string{"u1", "u2"}, cfg.Auth.AdminUsers)
	assert.Equal(t, "fleet", cfg.Mongo.DatabaseName())
	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.Spec)
	assert.Empty(t, cfg.Notify.RedisAddr, "empty values do not override")
}

func TestApplyEnvBadPort(t *testing.T) {
	err := Default().ApplyEnv(envMap(map[string]string{"PORT": "http"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown store", func(c *Config) { c.Store.Driver = "redis" }},
		{"unknown assets", func(c *Config) { c.Assets.Driver = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.Driver = DriverPostgres }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite; c.Store.SQLitePath = "" }},
		{"bad spec", func(c *Config) { c.Scheduler.Spec = "every morning" }},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{"bad qos", func(c *Config) { c.Notify.MQTTQoS = 3 }},
		{"zero concurrency", func(c *Config) { c.Engine.Concurrency = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Scheduler.Disabled = true
	cfg.Scheduler.Spec = "ignored"
	assert.NoError(t, cfg.Validate(), "spec is not checked when the scheduler is off")
}

func TestLoadYAML(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "ASSET_DRIVER", "MAINTENANCE_SCHEDULE", "ADMIN_USERS", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "tracktruck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 4000
store:
  driver: sqlite
  sqlitePath: /var/lib/tracktruck.db
assets:
  driver: memory
  seed: true
engine:
  lookupTimeout: 2s
  concurrency: 4
  cacheTtl: 30s
scheduler:
  spec: "30 6 * * 1-5"
auth:
  adminUsers: [admin-1]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.True(t, cfg.Assets.Seed)
	assert.Equal(t, 2*time.Second, cfg.Engine.LookupTimeout)
	assert.Equal(t, 4, cfg.Engine.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Engine.CacheTTL)
	assert.Equal(t, []string{"admin-1"}, cfg.Auth.AdminUsers)
	// Unset sections keep their defaults.
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnvIgnoresMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
