package extension

import "time"

// Config holds the TrackTruck extension configuration.
// Fields can be set programmatically via ExtOption functions or loaded from
// YAML configuration files (under "extensions.tracktruck" or "tracktruck" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableScheduler keeps the daily maintenance pass from running. Passes
	// can still be triggered through the API.
	DisableScheduler bool `json:"disable_scheduler" mapstructure:"disable_scheduler" yaml:"disable_scheduler"`

	// Schedule is the cron expression for the maintenance pass (default: "0 8 * * *").
	Schedule string `json:"schedule" mapstructure:"schedule" yaml:"schedule"`

	// PassTimeout bounds one scheduled pass. Zero means no bound.
	PassTimeout time.Duration `json:"pass_timeout" mapstructure:"pass_timeout" yaml:"pass_timeout"`

	// AdminUsers lists the user IDs allowed to call admin routes. Empty
	// leaves admin routes open.
	AdminUsers []string `json:"admin_users" mapstructure:"admin_users" yaml:"admin_users"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Schedule:    "0 8 * * *",
		PassTimeout: 10 * time.Minute,
	}
}
