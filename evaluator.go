package tracktruck

import (
	"context"
	"fmt"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/asset"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

// Alert is a single rule firing.
type Alert struct {
	RuleID       id.RuleID                `json:"rule_id"`
	ResourceType maintenance.ResourceType `json:"resource_type"`
	ResourceID   string                   `json:"resource_id"`
	Label        string                   `json:"label"`
	Trigger      alertlog.Trigger         `json:"trigger"`
	Message      string                   `json:"message"`
	Delivered    bool                     `json:"delivered"`
	FiredAt      time.Time                `json:"fired_at"`

	Rule  *maintenance.Rule `json:"-"`
	Asset asset.Snapshot    `json:"-"`
}

// Evaluator decides which triggers of a rule fire against an asset snapshot.
type Evaluator interface {
	Evaluate(ctx context.Context, r *maintenance.Rule, snap asset.Snapshot, now time.Time) ([]*Alert, error)
}

// DefaultEvaluator returns the built-in threshold evaluator. It checks the
// distance or wear threshold first and the days interval second; both may
// fire for the same rule.
func DefaultEvaluator() Evaluator { return &thresholdEvaluator{} }

type thresholdEvaluator struct{}

func (e *thresholdEvaluator) Evaluate(_ context.Context, r *maintenance.Rule, snap asset.Snapshot, now time.Time) ([]*Alert, error) {
	var alerts []*Alert

	if th := r.Threshold(); th != nil && th.Reached(snap.Measure()) {
		alerts = append(alerts, newAlert(r, snap, thresholdTrigger(th), thresholdMessage(r.ResourceType, snap.Label(), th), now))
	}

	if due, ok := r.NextDue(); ok && !now.Before(due) {
		msg := fmt.Sprintf("Maintenance alert: %s %s is due by days interval (%d days)",
			r.ResourceType, snap.Label(), *r.IntervalDays)
		alerts = append(alerts, newAlert(r, snap, alertlog.TriggerDays, msg, now))
	}

	return alerts, nil
}

func thresholdTrigger(th maintenance.Threshold) alertlog.Trigger {
	switch th.(type) {
	case maintenance.WearThreshold:
		return alertlog.TriggerWear
	default:
		return alertlog.TriggerDistance
	}
}

func thresholdMessage(rt maintenance.ResourceType, label string, th maintenance.Threshold) string {
	switch th.(type) {
	case maintenance.WearThreshold:
		return fmt.Sprintf("Maintenance alert: %s %s reached wear level %s", rt, label, th)
	default:
		return fmt.Sprintf("Maintenance alert: %s %s reached interval %s", rt, label, th)
	}
}

func newAlert(r *maintenance.Rule, snap asset.Snapshot, trigger alertlog.Trigger, msg string, now time.Time) *Alert {
	return &Alert{
		RuleID:       r.ID,
		ResourceType: r.ResourceType,
		ResourceID:   r.ResourceID,
		Label:        snap.Label(),
		Trigger:      trigger,
		Message:      msg,
		FiredAt:      now,
		Rule:         r,
		Asset:        snap,
	}
}
