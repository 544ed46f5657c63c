// Package config loads the tracktruck binary configuration: an optional YAML
// file, then environment overrides (after loading a .env file), then
// validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/robfig/cron/v3"
)

// Store and asset drivers.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultMongoURI is the connection string used when none is configured.
const DefaultMongoURI = "mongodb://localhost:27017/TrackTruck"

// Config is the full binary configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Assets    AssetsConfig    `yaml:"assets"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Notify    NotifyConfig    `yaml:"notify"`
	Engine    EngineConfig    `yaml:"engine"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	CORSOrigin      string        `yaml:"corsOrigin"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string { return ":" + strconv.Itoa(s.Port) }

type StoreConfig struct {
	Driver     string `yaml:"driver"` // memory, mongo, postgres, sqlite
	SQLitePath string `yaml:"sqlitePath"`
	Migrate    bool   `yaml:"migrate"`
}

type AssetsConfig struct {
	Driver string `yaml:"driver"` // memory, mongo, postgres
	Seed   bool   `yaml:"seed"`   // load demo assets into the memory driver
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// DatabaseName returns Database, or the path of URI, or "TrackTruck".
func (m MongoConfig) DatabaseName() string {
	if m.Database != "" {
		return m.Database
	}
	if u, err := url.Parse(m.URI); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return "TrackTruck"
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type NotifyConfig struct {
	Prefix       string   `yaml:"prefix"`
	Hub          bool     `yaml:"hub"`
	RedisAddr    string   `yaml:"redisAddr"`
	NATSURLs     []string `yaml:"natsUrls"`
	MQTTBroker   string   `yaml:"mqttBroker"`
	MQTTQoS      byte     `yaml:"mqttQos"`
	KafkaBrokers []string `yaml:"kafkaBrokers"`
	KafkaTopic   string   `yaml:"kafkaTopic"`
}

type EngineConfig struct {
	LookupTimeout   time.Duration `yaml:"lookupTimeout"`
	Concurrency     int           `yaml:"concurrency"`
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	RequireInterval bool          `yaml:"requireInterval"`
	DisableAlertLog bool          `yaml:"disableAlertLog"`
}

type SchedulerConfig struct {
	Disabled bool          `yaml:"disabled"`
	Spec     string        `yaml:"spec"`
	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Location resolves Timezone, defaulting to the local zone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

type AuthConfig struct {
	AdminUsers []string `yaml:"adminUsers"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json or text
	File       string `yaml:"file"`   // rotate into this file as well as stdout
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			CORSOrigin:      "*",
			ShutdownTimeout: 15 * time.Second,
		},
		Store:  StoreConfig{Driver: DriverMongo, SQLitePath: "tracktruck.db", Migrate: true},
		Assets: AssetsConfig{Driver: DriverMongo},
		Mongo:  MongoConfig{URI: DefaultMongoURI},
		Notify: NotifyConfig{Prefix: "tracktruck", Hub: true},
		Engine: EngineConfig{
			LookupTimeout: 5 * time.Second,
			Concurrency:   1,
		},
		Scheduler: SchedulerConfig{Spec: "0 8 * * *", Timeout: 10 * time.Minute},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{Path: "/metrics"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	str("CORS_ORIGIN", &c.Server.CORSOrigin)
	str("STORE_DRIVER", &c.Store.Driver)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("ASSET_DRIVER", &c.Assets.Driver)
	str("MONGO_URI", &c.Mongo.URI)
	str("DATABASE_URL", &c.Postgres.URL)
	str("REDIS_ADDR", &c.Notify.RedisAddr)
	list("NATS_URL", &c.Notify.NATSURLs)
	str("MQTT_BROKER", &c.Notify.MQTTBroker)
	list("KAFKA_BROKERS", &c.Notify.KafkaBrokers)
	str("KAFKA_TOPIC", &c.Notify.KafkaTopic)
	str("MAINTENANCE_SCHEDULE", &c.Scheduler.Spec)
	str("MAINTENANCE_TIMEZONE", &c.Scheduler.Timezone)
	list("ADMIN_USERS", &c.Auth.AdminUsers)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_FILE", &c.Logging.File)
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverMemory, DriverMongo, DriverPostgres:
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("sqlite store requires a path")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Assets.Driver {
	case DriverMemory, DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("unknown asset driver %q", c.Assets.Driver)
	}

	if (c.Store.Driver == DriverMongo || c.Assets.Driver == DriverMongo) && c.Mongo.URI == "" {
		return errors.New("mongo driver requires a uri")
	}
	if (c.Store.Driver == DriverPostgres || c.Assets.Driver == DriverPostgres) && c.Postgres.URL == "" {
		return errors.New("postgres driver requires DATABASE_URL")
	}

	if c.Notify.MQTTQoS > 2 {
		return fmt.Errorf("mqtt qos %d must be 0, 1 or 2", c.Notify.MQTTQoS)
	}

	if c.Engine.LookupTimeout < 0 || c.Engine.CacheTTL < 0 {
		return errors.New("engine durations must not be negative")
	}
	if c.Engine.Concurrency < 1 {
		return errors.New("engine concurrency must be at least 1")
	}

	if !c.Scheduler.Disabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler spec %q: %w", c.Scheduler.Spec, err)
		}
		if _, err := c.Scheduler.Location(); err != nil {
			return fmt.Errorf("scheduler timezone: %w", err)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
