package tracktruck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/notify"
	"github.com/Taha-mlaiki/TrackTruck/plugin"
	"github.com/Taha-mlaiki/TrackTruck/store"
)

// Engine is the central maintenance engine. It owns the rule store, resolves
// assets, evaluates triggers, publishes alerts and fires extension hooks.
type Engine struct {
	store     store.Store
	lookup    asset.Lookup
	publisher notify.Publisher
	evaluator Evaluator
	cache     Cache
	plugins   *plugin.Registry
	logger    *slog.Logger
	config    Config
	now       func() time.Time
}

// NewEngine creates a new TrackTruck engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		evaluator: DefaultEvaluator(),
		logger:    slog.Default(),
		config:    DefaultConfig(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("tracktruck: store is required")
	}
	if e.evaluator == nil {
		e.evaluator = DefaultEvaluator()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Lookup returns the asset lookup (may be nil).
func (e *Engine) Lookup() asset.Lookup { return e.lookup }

// Publisher returns the notification publisher (may be nil).
func (e *Engine) Publisher() notify.Publisher { return e.publisher }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// PassReport summarises one CheckAllRules pass.
type PassReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Rules is the number of rules loaded from the store.
	Rules int `json:"rules"`
	// Evaluated counts rules whose asset was resolved and evaluated.
	Evaluated int `json:"evaluated"`
	// Skipped counts rules whose asset does not exist.
	Skipped int `json:"skipped"`
	// Failed counts rules isolated because of a lookup or evaluation error.
	Failed int `json:"failed"`
	// PublishFailed counts alerts the publisher rejected.
	PublishFailed int `json:"publish_failed"`

	Alerts []*Alert `json:"alerts"`
}

// Fired returns the number of alerts raised during the pass.
func (r *PassReport) Fired() int { return len(r.Alerts) }

// Duration returns how long the pass took.
func (r *PassReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// ruleOutcome is what one rule contributes to a report.
type ruleOutcome struct {
	evaluated     bool
	skipped       bool
	failed        bool
	publishFailed int
	alerts        []*Alert
}

func (r *PassReport) add(o ruleOutcome) {
	if o.evaluated {
		r.Evaluated++
	}
	if o.skipped {
		r.Skipped++
	}
	if o.failed {
		r.Failed++
	}
	r.PublishFailed += o.publishFailed
	r.Alerts = append(r.Alerts, o.alerts...)
}

// CheckAllRules runs one evaluation pass over every stored rule. Each due
// trigger is published once to the admins audience. A missing asset skips
// its rule; any other per-rule failure is logged and counted without
// stopping the pass.
//
// The returned error is non-nil only when the rules cannot be listed or ctx
// ends. A pass interrupted by ctx returns the partial report together with
// ctx.Err().
func (e *Engine) CheckAllRules(ctx context.Context) (*PassReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.lookup == nil {
		return nil, ErrNoLookup
	}
	if e.publisher == nil {
		return nil, ErrNoPublisher
	}

	now := e.now()
	report := &PassReport{StartedAt: now, Alerts: []*Alert{}}

	rules, err := e.store.ListRules(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tracktruck: list rules: %w", err)
	}
	report.Rules = len(rules)

	if e.plugins != nil {
		e.plugins.EmitBeforePass(ctx, len(rules))
	}

	var interrupted bool
	if workers := e.config.workers(); workers > 1 && len(rules) > 1 {
		interrupted = e.runParallel(ctx, rules, now, workers, report)
	} else {
		interrupted = e.runSequential(ctx, rules, now, report)
	}

	report.FinishedAt = e.now()

	if e.plugins != nil {
		e.plugins.EmitAfterPass(ctx, report)
	}

	e.logger.Info("maintenance pass complete",
		slog.Int("rules", report.Rules),
		slog.Int("evaluated", report.Evaluated),
		slog.Int("fired", report.Fired()),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration()),
	)

	if interrupted {
		return report, ctx.Err()
	}
	return report, nil
}

func (e *Engine) runSequential(ctx context.Context, rules []*maintenance.Rule, now time.Time, report *PassReport) bool {
	for _, r := range rules {
		if ctx.Err() != nil {
			return true
		}
		out, stop := e.checkRule(ctx, r, now)
		report.add(out)
		if stop {
			return true
		}
	}
	return false
}

func (e *Engine) runParallel(ctx context.Context, rules []*maintenance.Rule, now time.Time, workers int, report *PassReport) bool {
	if workers > len(rules) {
		workers = len(rules)
	}

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		interrupted bool
	)
	jobs := make(chan *maintenance.Rule)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				out, stop := e.checkRule(ctx, r, now)
				mu.Lock()
				report.add(out)
				if stop {
					interrupted = true
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, r := range rules {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- r:
		}
	}
	close(jobs)
	wg.Wait()

	return interrupted || ctx.Err() != nil
}

// checkRule resolves and evaluates one rule. stop is true when ctx ended
// while the rule was in flight; the rule is then counted nowhere. A panic
// inside the rule counts it as failed.
func (e *Engine) checkRule(ctx context.Context, r *maintenance.Rule, now time.Time) (out ruleOutcome, stop bool) {
	log := e.logger.With(
		slog.String("rule_id", r.ID.String()),
		slog.String("resource_type", string(r.ResourceType)),
		slog.String("resource_id", r.ResourceID),
	)
	defer func() {
		if p := recover(); p != nil {
			log.Error("maintenance rule panicked", slog.Any("panic", p))
			out.evaluated = false
			out.failed = true
			stop = false
		}
	}()

	snap, err := e.resolveAsset(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return out, true
		}
		if errors.Is(err, asset.ErrNotFound) {
			log.Info("maintenance asset not found, skipping rule")
			out.skipped = true
		} else {
			log.Warn("maintenance asset lookup failed", slog.String("error", err.Error()))
			out.failed = true
		}
		if e.plugins != nil {
			e.plugins.EmitAssetSkipped(ctx, r, err)
		}
		return out, false
	}

	alerts, err := e.evaluator.Evaluate(ctx, r, snap, now)
	if err != nil {
		log.Warn("maintenance rule evaluation failed", slog.String("error", err.Error()))
		out.failed = true
		return out, false
	}
	out.evaluated = true

	for _, a := range alerts {
		if err := e.publishAlert(ctx, a); err != nil {
			log.Warn("maintenance alert publish failed",
				slog.String("trigger", string(a.Trigger)),
				slog.String("error", err.Error()),
			)
			out.publishFailed++
		} else {
			a.Delivered = true
		}
		log.Info("maintenance alert fired",
			slog.String("trigger", string(a.Trigger)),
			slog.String("message", a.Message),
		)
		e.recordAlert(ctx, a)
		if e.plugins != nil {
			e.plugins.EmitAlertFired(ctx, a)
		}
		out.alerts = append(out.alerts, a)
	}
	return out, false
}

func (e *Engine) resolveAsset(ctx context.Context, r *maintenance.Rule) (asset.Snapshot, error) {
	kind := asset.Kind(r.ResourceType)
	if e.cache != nil {
		if snap, ok := e.cache.Get(ctx, kind, r.ResourceID); ok {
			return snap, nil
		}
	}

	lctx := ctx
	if e.config.LookupTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, e.config.LookupTimeout)
		defer cancel()
	}
	snap, err := asset.Find(lctx, e.lookup, kind, r.ResourceID)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(ctx, snap)
	}
	return snap, nil
}

func (e *Engine) publishAlert(ctx context.Context, a *Alert) error {
	n := notify.New(notify.AudienceAdmins, notify.EventMaintenance, a.Message)
	n.Type = string(a.ResourceType)
	n.AssetID = a.ResourceID
	n.RuleID = a.RuleID.String()
	n.Trigger = string(a.Trigger)
	n.Timestamp = a.FiredAt.UTC()
	return e.publisher.Publish(ctx, n)
}

func (e *Engine) recordAlert(ctx context.Context, a *Alert) {
	if e.config.DisableAlertLog {
		return
	}
	entry := &alertlog.Entry{
		ID:           id.NewAlertID(),
		RuleID:       a.RuleID,
		ResourceType: string(a.ResourceType),
		ResourceID:   a.ResourceID,
		Trigger:      a.Trigger,
		Message:      a.Message,
		Delivered:    a.Delivered,
		FiredAt:      a.FiredAt,
	}
	if err := e.store.CreateAlert(ctx, entry); err != nil {
		e.logger.Warn("failed to record maintenance alert",
			slog.String("rule_id", a.RuleID.String()),
			slog.String("error", err.Error()),
		)
	}
}
