// Package alertlog defines the audit Entry written for every maintenance
// alert the engine publishes. Entries are a record only: they never
// suppress a rule from firing again on the next pass.
package alertlog

import (
	"time"

	"github.com/Taha-mlaiki/TrackTruck/id"
)

// Trigger names the condition that fired.
type Trigger string

const (
	TriggerDistance Trigger = "distance"
	TriggerWear     Trigger = "wear"
	TriggerDays     Trigger = "days"
)

// Entry is a single published alert.
type Entry struct {
	ID           id.AlertID `json:"id" db:"id"`
	RuleID       id.RuleID  `json:"rule_id" db:"rule_id"`
	ResourceType string     `json:"resource_type" db:"resource_type"`
	ResourceID   string     `json:"resource_id" db:"resource_id"`
	Trigger      Trigger    `json:"trigger" db:"trigger"`
	Message      string     `json:"message" db:"message"`
	Delivered    bool       `json:"delivered" db:"delivered"`
	FiredAt      time.Time  `json:"fired_at" db:"fired_at"`
}

// QueryFilter contains filters for querying alert entries.
type QueryFilter struct {
	RuleID       *id.RuleID `json:"rule_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Trigger      Trigger    `json:"trigger,omitempty"`
	After        *time.Time `json:"after,omitempty"`
	Before       *time.Time `json:"before,omitempty"`
	Limit        int        `json:"limit,omitempty"`
	Offset       int        `json:"offset,omitempty"`
}
