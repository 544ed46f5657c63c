package extension

import (
	"log/slog"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/middleware"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	"github.com/Taha-mlaiki/TrackTruck/plugin"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// ExtOption configures the TrackTruck Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, tracktruck.WithStore(s))
	}
}

// WithLookup sets the asset lookup.
func WithLookup(l asset.Lookup) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, tracktruck.WithLookup(l))
	}
}

// WithPublisher sets the notification publisher.
func WithPublisher(p notify.Publisher) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, tracktruck.WithPublisher(p))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...tracktruck.Option) ExtOption {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithAuthorizer overrides the admin gate built from Config.AdminUsers.
func WithAuthorizer(a middleware.Authorizer) ExtOption {
	return func(e *Extension) {
		e.authz = a
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithDisableScheduler disables the cron-driven maintenance pass.
func WithDisableScheduler() ExtOption {
	return func(e *Extension) {
		e.config.DisableScheduler = true
	}
}
