package plugin

import (
	"context"
	"log/slog"

	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

// Named entry types pair a hook with the plugin name for logging.

type ruleCreatedEntry struct {
	name string
	hook RuleCreated
}
type ruleUpdatedEntry struct {
	name string
	hook RuleUpdated
}
type ruleDeletedEntry struct {
	name string
	hook RuleDeleted
}
type beforePassEntry struct {
	name string
	hook BeforePass
}
type afterPassEntry struct {
	name string
	hook AfterPass
}
type alertFiredEntry struct {
	name string
	hook AlertFired
}
type assetSkippedEntry struct {
	name string
	hook AssetSkipped
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
//
// Register must not be called concurrently with the emitters. Emitters may
// run from several pass workers at once, so hooks must be safe for
// concurrent use.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	ruleCreated  []ruleCreatedEntry
	ruleUpdated  []ruleUpdatedEntry
	ruleDeleted  []ruleDeletedEntry
	beforePass   []beforePassEntry
	afterPass    []afterPassEntry
	alertFired   []alertFiredEntry
	assetSkipped []assetSkippedEntry
	shutdown     []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(RuleCreated); ok {
		r.ruleCreated = append(r.ruleCreated, ruleCreatedEntry{name, h})
	}
	if h, ok := p.(RuleUpdated); ok {
		r.ruleUpdated = append(r.ruleUpdated, ruleUpdatedEntry{name, h})
	}
	if h, ok := p.(RuleDeleted); ok {
		r.ruleDeleted = append(r.ruleDeleted, ruleDeletedEntry{name, h})
	}
	if h, ok := p.(BeforePass); ok {
		r.beforePass = append(r.beforePass, beforePassEntry{name, h})
	}
	if h, ok := p.(AfterPass); ok {
		r.afterPass = append(r.afterPass, afterPassEntry{name, h})
	}
	if h, ok := p.(AlertFired); ok {
		r.alertFired = append(r.alertFired, alertFiredEntry{name, h})
	}
	if h, ok := p.(AssetSkipped); ok {
		r.assetSkipped = append(r.assetSkipped, assetSkippedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Rule event emitters
// ──────────────────────────────────────────────────

// EmitRuleCreated notifies all plugins that implement RuleCreated.
func (r *Registry) EmitRuleCreated(ctx context.Context, rule *maintenance.Rule) {
	for _, e := range r.ruleCreated {
		if err := e.hook.OnRuleCreated(ctx, rule); err != nil {
			r.logHookError("OnRuleCreated", e.name, err)
		}
	}
}

// EmitRuleUpdated notifies all plugins that implement RuleUpdated.
func (r *Registry) EmitRuleUpdated(ctx context.Context, rule *maintenance.Rule) {
	for _, e := range r.ruleUpdated {
		if err := e.hook.OnRuleUpdated(ctx, rule); err != nil {
			r.logHookError("OnRuleUpdated", e.name, err)
		}
	}
}

// EmitRuleDeleted notifies all plugins that implement RuleDeleted.
func (r *Registry) EmitRuleDeleted(ctx context.Context, ruleID id.RuleID) {
	for _, e := range r.ruleDeleted {
		if err := e.hook.OnRuleDeleted(ctx, ruleID); err != nil {
			r.logHookError("OnRuleDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Pass event emitters
// ──────────────────────────────────────────────────

// EmitBeforePass notifies all plugins that implement BeforePass.
func (r *Registry) EmitBeforePass(ctx context.Context, rules int) {
	for _, e := range r.beforePass {
		if err := e.hook.OnBeforePass(ctx, rules); err != nil {
			r.logHookError("OnBeforePass", e.name, err)
		}
	}
}

// EmitAfterPass notifies all plugins that implement AfterPass.
func (r *Registry) EmitAfterPass(ctx context.Context, report any) {
	for _, e := range r.afterPass {
		if err := e.hook.OnAfterPass(ctx, report); err != nil {
			r.logHookError("OnAfterPass", e.name, err)
		}
	}
}

// EmitAlertFired notifies all plugins that implement AlertFired.
func (r *Registry) EmitAlertFired(ctx context.Context, alert any) {
	for _, e := range r.alertFired {
		if err := e.hook.OnAlertFired(ctx, alert); err != nil {
			r.logHookError("OnAlertFired", e.name, err)
		}
	}
}

// EmitAssetSkipped notifies all plugins that implement AssetSkipped.
func (r *Registry) EmitAssetSkipped(ctx context.Context, rule *maintenance.Rule, cause error) {
	for _, e := range r.assetSkipped {
		if err := e.hook.OnAssetSkipped(ctx, rule, cause); err != nil {
			r.logHookError("OnAssetSkipped", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
