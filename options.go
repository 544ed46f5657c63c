package tracktruck

import (
	"log/slog"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	"github.com/Taha-mlaiki/TrackTruck/plugin"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithLookup sets the asset lookup used during a pass.
func WithLookup(l asset.Lookup) Option { return func(e *Engine) { e.lookup = l } }

// WithPublisher sets the notification publisher.
func WithPublisher(p notify.Publisher) Option { return func(e *Engine) { e.publisher = p } }

// WithEvaluator sets the trigger evaluator.
func WithEvaluator(ev Evaluator) Option { return func(e *Engine) { e.evaluator = ev } }

// WithCache sets the asset snapshot cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithClock sets the time source used for the days trigger and timestamps.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
