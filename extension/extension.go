// Package extension provides a Forge extension entry point for TrackTruck.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/api"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/middleware"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	"github.com/Taha-mlaiki/TrackTruck/plugin"
	"github.com/Taha-mlaiki/TrackTruck/scheduler"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tracktruck"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fleet maintenance rules with scheduled checks and admin notifications"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts TrackTruck as a Forge extension.
type Extension struct {
	config     Config
	eng        *tracktruck.Engine
	apiHandler *api.API
	sched      *scheduler.Scheduler
	authz      middleware.Authorizer
	logger     *slog.Logger
	engineOpts []tracktruck.Option
	plugins    []plugin.Plugin
}

// New creates a TrackTruck Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying TrackTruck engine.
func (e *Extension) Engine() *tracktruck.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Scheduler returns the maintenance pass scheduler, or nil when disabled.
func (e *Extension) Scheduler() *scheduler.Scheduler { return e.sched }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*tracktruck.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("tracktruck: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]tracktruck.Option, 0, len(e.engineOpts)+len(e.plugins)+4)
	opts = append(opts, tracktruck.WithLogger(logger))

	// Resolve backends from the DI container; explicit options below win.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, tracktruck.WithStore(s))
	}
	if l, err := forge.Inject[asset.Lookup](fapp.Container()); err == nil {
		opts = append(opts, tracktruck.WithLookup(l))
	}
	if p, err := forge.Inject[notify.Publisher](fapp.Container()); err == nil {
		opts = append(opts, tracktruck.WithPublisher(p))
	}

	opts = append(opts, e.engineOpts...)

	for _, x := range e.plugins {
		opts = append(opts, tracktruck.WithPlugin(x))
	}

	eng, err := tracktruck.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("tracktruck: create engine: %w", err)
	}
	e.eng = eng

	if e.authz == nil {
		e.authz = middleware.NewStaticAuthorizer(e.config.AdminUsers...)
	}

	if !e.config.DisableScheduler {
		sched, err := scheduler.New(eng,
			scheduler.WithSpec(e.config.Schedule),
			scheduler.WithTimeout(e.config.PassTimeout),
			scheduler.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("tracktruck: create scheduler: %w", err)
		}
		e.sched = sched
	}

	e.apiHandler = api.New(eng, fapp.Router(), e.authz)

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("tracktruck: register routes: %w", err)
		}
	}

	return nil
}

// Start runs migrations if enabled, starts the engine and then the
// maintenance scheduler.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("tracktruck: extension not initialized")
	}

	if !e.config.DisableMigrate {
		s := e.eng.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("tracktruck: migration failed: %w", err)
			}
		}
	}

	if err := e.eng.Start(ctx); err != nil {
		return err
	}

	if e.sched != nil {
		if err := e.sched.Start(ctx); err != nil {
			return fmt.Errorf("tracktruck: start scheduler: %w", err)
		}
	}
	return nil
}

// Stop halts the scheduler, waiting for an in-flight pass, and shuts the
// engine down.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	var errs []error
	if e.sched != nil {
		if err := e.sched.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracktruck: stop scheduler: %w", err))
		}
	}
	if err := e.eng.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("tracktruck: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("tracktruck: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all TrackTruck API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
