package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/api"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	assetmem "github.com/Taha-mlaiki/TrackTruck/asset/memory"
	assetmongo "github.com/Taha-mlaiki/TrackTruck/asset/mongo"
	assetpg "github.com/Taha-mlaiki/TrackTruck/asset/postgres"
	"github.com/Taha-mlaiki/TrackTruck/cache"
	"github.com/Taha-mlaiki/TrackTruck/config"
	"github.com/Taha-mlaiki/TrackTruck/metrics"
	"github.com/Taha-mlaiki/TrackTruck/middleware"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	"github.com/Taha-mlaiki/TrackTruck/notify/hub"
	"github.com/Taha-mlaiki/TrackTruck/notify/kafka"
	"github.com/Taha-mlaiki/TrackTruck/notify/mqtt"
	"github.com/Taha-mlaiki/TrackTruck/notify/nats"
	"github.com/Taha-mlaiki/TrackTruck/notify/redis"
	"github.com/Taha-mlaiki/TrackTruck/scheduler"
	"github.com/Taha-mlaiki/TrackTruck/store"
	"github.com/Taha-mlaiki/TrackTruck/store/memory"
	"github.com/Taha-mlaiki/TrackTruck/store/mongo"
	"github.com/Taha-mlaiki/TrackTruck/store/postgres"
	"github.com/Taha-mlaiki/TrackTruck/store/sqlite"
)

// app holds everything main starts and later shuts down.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store.Store
	publisher *notify.Multi
	hub       *hub.Hub
	engine    *tracktruck.Engine
	sched     *scheduler.Scheduler
	server    *http.Server

	// closers run in reverse order on shutdown.
	closers []func(context.Context) error
}

func (a *app) onClose(fn func(context.Context) error) { a.closers = append(a.closers, fn) }

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// build connects every backend named in cfg and assembles the engine,
// scheduler and HTTP server. On error, whatever was opened is closed.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()

	if a.store, err = openStore(ctx, cfg); err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return a.store.Close() })
	if cfg.Store.Migrate {
		if err = a.store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
		}
	}

	lookup, err := a.openLookup(ctx)
	if err != nil {
		return nil, err
	}

	if err = a.openPublishers(ctx); err != nil {
		return nil, err
	}

	opts := []tracktruck.Option{
		tracktruck.WithLogger(logger),
		tracktruck.WithStore(a.store),
		tracktruck.WithLookup(lookup),
		tracktruck.WithConfig(tracktruck.Config{
			LookupTimeout:   cfg.Engine.LookupTimeout,
			Concurrency:     cfg.Engine.Concurrency,
			RequireInterval: cfg.Engine.RequireInterval,
			DisableAlertLog: cfg.Engine.DisableAlertLog,
		}),
	}
	if a.publisher.Len() > 0 {
		opts = append(opts, tracktruck.WithPublisher(a.publisher))
	}
	if cfg.Engine.CacheTTL > 0 {
		opts = append(opts, tracktruck.WithCache(cache.NewMemory(cache.WithTTL(cfg.Engine.CacheTTL))))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		m, merr := metrics.NewMetrics(reg)
		if merr != nil {
			return nil, fmt.Errorf("create metrics: %w", merr)
		}
		opts = append(opts, tracktruck.WithPlugin(m))
	}

	if a.engine, err = tracktruck.NewEngine(opts...); err != nil {
		return nil, err
	}
	a.onClose(a.engine.Stop)

	if !cfg.Scheduler.Disabled {
		loc, lerr := cfg.Scheduler.Location()
		if lerr != nil {
			return nil, lerr
		}
		a.sched, err = scheduler.New(a.engine,
			scheduler.WithSpec(cfg.Scheduler.Spec),
			scheduler.WithLocation(loc),
			scheduler.WithTimeout(cfg.Scheduler.Timeout),
			scheduler.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
	}

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.routes(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.Mongo.URI)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Postgres.URL)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Store.SQLitePath)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *app) openLookup(ctx context.Context) (asset.Lookup, error) {
	cfg := a.cfg
	switch cfg.Assets.Driver {
	case config.DriverMemory:
		l := assetmem.New()
		if cfg.Assets.Seed {
			seedAssets(l)
		}
		return l, nil
	case config.DriverMongo:
		l, client, err := assetmongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.DatabaseName())
		if err != nil {
			return nil, fmt.Errorf("connect asset mongo: %w", err)
		}
		a.onClose(client.Disconnect)
		return l, nil
	case config.DriverPostgres:
		l, pool, err := assetpg.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect asset postgres: %w", err)
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		return l, nil
	}
	return nil, fmt.Errorf("unknown asset driver %q", cfg.Assets.Driver)
}

// openPublishers connects the websocket hub and every configured broker
// into a single fan-out publisher.
func (a *app) openPublishers(ctx context.Context) error {
	n := a.cfg.Notify
	a.publisher = notify.NewMulti()
	a.onClose(func(context.Context) error { return a.publisher.Close() })

	if n.Hub {
		a.hub = hub.New(
			hub.WithAllowedOrigins(a.cfg.Server.CORSOrigin),
			hub.WithLogger(a.logger),
		)
		a.publisher.Add(a.hub)
	}
	if n.RedisAddr != "" {
		p, err := redis.Dial(ctx, redis.Config{Addr: n.RedisAddr, Prefix: n.Prefix})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.publisher.Add(p)
	}
	if len(n.NATSURLs) > 0 {
		p, err := nats.Connect(nats.Config{URLs: n.NATSURLs, Prefix: n.Prefix}, a.logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		a.publisher.Add(p)
	}
	if n.MQTTBroker != "" {
		p, err := mqtt.Connect(mqtt.Config{Broker: n.MQTTBroker, QoS: n.MQTTQoS, Prefix: n.Prefix}, a.logger)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		a.publisher.Add(p)
	}
	if len(n.KafkaBrokers) > 0 {
		topic := n.KafkaTopic
		if topic == "" {
			topic = n.Prefix + ".notifications"
		}
		p, err := kafka.NewWriter(kafka.Config{Brokers: n.KafkaBrokers, Topic: topic})
		if err != nil {
			return fmt.Errorf("create kafka writer: %w", err)
		}
		a.publisher.Add(p)
	}
	a.logger.Info("notification publishers ready", "count", a.publisher.Len())
	return nil
}

func (a *app) routes(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	if a.hub != nil {
		mux.Handle("/socket", a.hub)
	}
	if reg != nil {
		mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			Registry:          reg,
			EnableOpenMetrics: true,
		}))
	}
	authz := middleware.NewStaticAuthorizer(a.cfg.Auth.AdminUsers...)
	if authz.Open() {
		a.logger.Warn("no admin users configured, admin routes are open")
	}
	mux.Handle("/", api.New(a.engine, nil, authz).Handler())
	return withCORS(a.cfg.Server.CORSOrigin, mux)
}

// withCORS applies the configured origin policy. A comma-separated list
// allows several origins; "*" allows any.
func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: strings.Split(origin, ","),
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(next)
}
