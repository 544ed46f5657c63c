// Package plugin defines the plugin system for TrackTruck.
// Plugins are notified of lifecycle events (rule created, pass finished,
// alert fired, etc.) and can react with metrics, auditing or forwarding.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Rule lifecycle hooks
// ──────────────────────────────────────────────────

// RuleCreated is called after a maintenance rule is created.
type RuleCreated interface {
	OnRuleCreated(ctx context.Context, r *maintenance.Rule) error
}

// RuleUpdated is called after a maintenance rule is updated.
type RuleUpdated interface {
	OnRuleUpdated(ctx context.Context, r *maintenance.Rule) error
}

// RuleDeleted is called after a maintenance rule is deleted.
type RuleDeleted interface {
	OnRuleDeleted(ctx context.Context, ruleID id.RuleID) error
}

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// BeforePass is called once the rule list for a pass has been loaded.
type BeforePass interface {
	OnBeforePass(ctx context.Context, rules int) error
}

// AfterPass is called when a pass ends, including cancelled passes.
// The report parameter is *tracktruck.PassReport (passed as any to avoid an
// import cycle).
type AfterPass interface {
	OnAfterPass(ctx context.Context, report any) error
}

// AlertFired is called for every alert the engine publishes.
// The alert parameter is *tracktruck.Alert.
type AlertFired interface {
	OnAlertFired(ctx context.Context, alert any) error
}

// AssetSkipped is called when a rule's asset could not be resolved. err
// wraps asset.ErrNotFound for a missing asset; anything else is a lookup
// failure.
type AssetSkipped interface {
	OnAssetSkipped(ctx context.Context, r *maintenance.Rule, err error) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
