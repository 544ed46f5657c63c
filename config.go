package tracktruck

import "time"

// Config holds configuration for the TrackTruck engine.
type Config struct {
	// LookupTimeout bounds each asset lookup during a pass.
	// Defaults to 5s. Zero or negative means no per-lookup bound.
	LookupTimeout time.Duration `json:"lookup_timeout,omitempty"`

	// Concurrency is the number of rules evaluated in parallel.
	// Values below 2 evaluate rules one at a time in store order.
	Concurrency int `json:"concurrency,omitempty"`

	// RequireInterval rejects rules that have no positive interval.
	RequireInterval bool `json:"require_interval,omitempty"`

	// DisableAlertLog stops the engine from recording fired alerts.
	DisableAlertLog bool `json:"disable_alert_log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LookupTimeout: 5 * time.Second,
		Concurrency:   1,
	}
}

func (c Config) workers() int {
	if c.Concurrency < 1 {
		return 1
	}
	return c.Concurrency
}
