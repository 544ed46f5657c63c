package tracktruck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// CreateRule validates r, assigns an ID when it has none and persists it.
func (e *Engine) CreateRule(ctx context.Context, r *maintenance.Rule) error {
	if err := e.validateRule(r); err != nil {
		return err
	}
	if r.ID.IsNil() {
		r.ID = id.NewRuleID()
	}
	if err := e.store.CreateRule(ctx, r); err != nil {
		return fmt.Errorf("tracktruck: create rule: %w", err)
	}
	if e.plugins != nil {
		e.plugins.EmitRuleCreated(ctx, r)
	}
	return nil
}

// GetRule returns the rule with ruleID or ErrRuleNotFound.
func (e *Engine) GetRule(ctx context.Context, ruleID id.RuleID) (*maintenance.Rule, error) {
	r, err := e.store.GetRule(ctx, ruleID)
	if err != nil {
		return nil, ruleError("get", ruleID, err)
	}
	return r, nil
}

// ListRules returns the rules matching filter. A nil filter lists all rules.
func (e *Engine) ListRules(ctx context.Context, filter *maintenance.ListFilter) ([]*maintenance.Rule, error) {
	rules, err := e.store.ListRules(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tracktruck: list rules: %w", err)
	}
	return rules, nil
}

// CountRules returns the number of rules matching filter, ignoring paging.
func (e *Engine) CountRules(ctx context.Context, filter *maintenance.ListFilter) (int64, error) {
	n, err := e.store.CountRules(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("tracktruck: count rules: %w", err)
	}
	return n, nil
}

// UpdateRule applies patch to the stored rule and returns the result. An
// empty patch returns the rule unchanged without writing.
func (e *Engine) UpdateRule(ctx context.Context, ruleID id.RuleID, patch *maintenance.Patch) (*maintenance.Rule, error) {
	r, err := e.store.GetRule(ctx, ruleID)
	if err != nil {
		return nil, ruleError("update", ruleID, err)
	}
	if patch == nil || patch.IsEmpty() {
		return r, nil
	}

	patch.Apply(r)
	if err := e.validateRule(r); err != nil {
		return nil, err
	}
	if err := e.store.UpdateRule(ctx, r); err != nil {
		return nil, ruleError("update", ruleID, err)
	}
	if e.plugins != nil {
		e.plugins.EmitRuleUpdated(ctx, r)
	}
	return r, nil
}

// DeleteRule removes the rule with ruleID or returns ErrRuleNotFound.
func (e *Engine) DeleteRule(ctx context.Context, ruleID id.RuleID) error {
	if err := e.store.DeleteRule(ctx, ruleID); err != nil {
		return ruleError("delete", ruleID, err)
	}
	if e.plugins != nil {
		e.plugins.EmitRuleDeleted(ctx, ruleID)
	}
	return nil
}

// ListAlerts returns recorded alerts, newest first.
func (e *Engine) ListAlerts(ctx context.Context, filter *alertlog.QueryFilter) ([]*alertlog.Entry, int64, error) {
	entries, err := e.store.ListAlerts(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("tracktruck: list alerts: %w", err)
	}
	total, err := e.store.CountAlerts(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("tracktruck: count alerts: %w", err)
	}
	return entries, total, nil
}

// Notify publishes an ad-hoc notification through the configured publisher.
func (e *Engine) Notify(ctx context.Context, n *notify.Notification) error {
	if e.publisher == nil {
		return ErrNoPublisher
	}
	if err := e.publisher.Publish(ctx, n); err != nil {
		return fmt.Errorf("tracktruck: publish %s: %w", n.Event, err)
	}
	return nil
}

func (e *Engine) validateRule(r *maintenance.Rule) error {
	if !r.ResourceType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidResourceType, r.ResourceType)
	}
	if strings.TrimSpace(r.ResourceID) == "" {
		return ErrInvalidResourceID
	}
	if r.IntervalKm != nil && *r.IntervalKm < 0 {
		return fmt.Errorf("%w: intervalKm %d", ErrInvalidInterval, *r.IntervalKm)
	}
	if r.IntervalDays != nil && *r.IntervalDays < 0 {
		return fmt.Errorf("%w: intervalDays %d", ErrInvalidInterval, *r.IntervalDays)
	}
	if e.config.RequireInterval && !r.HasTrigger() {
		return ErrIntervalRequired
	}
	return nil
}

func ruleError(op string, ruleID id.RuleID, err error) error {
	if errors.Is(err, maintenance.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
	}
	return fmt.Errorf("tracktruck: %s rule %s: %w", op, ruleID, err)
}
